package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/mtilocca/servo-cascade-core/internal/axis"
)

// CANEstimateSource implements axis.EstimateSource by decoding the latest
// ENCODER_FEEDBACK frame received off a CANReader. A background goroutine,
// started by Run, keeps the decoded fields current; the accessors read them
// under a mutex so the control-loop tick never blocks on the bus.
//
// A reading older than staleAfter is treated as invalid, matching spec.md
// §4.1's "estimate becomes stale" note: the axis whose encoder feed drops
// out gets INVALID_ESTIMATE on its next tick rather than a frozen estimate.
type CANEstimateSource struct {
	reader     CANReader
	wireMap    *WireMap
	staleAfter time.Duration

	mu          sync.Mutex
	posLinear   float64
	posCircular float64
	velocity    float64
	valid       bool
	updatedAt   time.Time
}

// NewCANEstimateSource builds a CANEstimateSource reading ENCODER_FEEDBACK
// frames through reader, decoded with wireMap. A reading is considered
// stale after staleAfter has elapsed with no new frame.
func NewCANEstimateSource(reader CANReader, wireMap *WireMap, staleAfter time.Duration) *CANEstimateSource {
	return &CANEstimateSource{reader: reader, wireMap: wireMap, staleAfter: staleAfter}
}

// Run reads frames until ctx is done or the reader errors, decoding every
// ENCODER_FEEDBACK frame it sees and discarding anything else. It is meant
// to be run as one goroutine per axis under an errgroup.
func (s *CANEstimateSource) Run(ctx context.Context) error {
	for {
		frame, err := s.reader.ReadFrame(ctx)
		if err != nil {
			return err
		}
		if uint32(frame.ID) != encoderFeedbackID {
			continue
		}
		fb, err := s.wireMap.DecodeEncoderFeedback(frame)
		if err != nil {
			continue
		}
		s.mu.Lock()
		s.posLinear = fb.PosLinear
		s.posCircular = fb.PosCircular
		s.velocity = fb.Velocity
		s.valid = fb.Valid
		s.updatedAt = time.Now()
		s.mu.Unlock()
	}
}

func (s *CANEstimateSource) PosLinear() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.posLinear
}

func (s *CANEstimateSource) PosCircular() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.posCircular
}

func (s *CANEstimateSource) Velocity() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.velocity
}

// Valid reports the last decoded frame's own valid bit, and also goes false
// once the reading is older than staleAfter.
func (s *CANEstimateSource) Valid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.valid {
		return false
	}
	if s.staleAfter > 0 && time.Since(s.updatedAt) > s.staleAfter {
		return false
	}
	return true
}

var _ axis.EstimateSource = (*CANEstimateSource)(nil)

// TorqueCommandPublisher encodes and transmits a Controller's torque output
// as a TORQUE_CMD frame.
type TorqueCommandPublisher struct {
	writer  CANWriter
	wireMap *WireMap
}

// NewTorqueCommandPublisher builds a publisher writing through writer using
// wireMap's TORQUE_CMD layout.
func NewTorqueCommandPublisher(writer CANWriter, wireMap *WireMap) *TorqueCommandPublisher {
	return &TorqueCommandPublisher{writer: writer, wireMap: wireMap}
}

// Publish encodes torque and transmits it.
func (p *TorqueCommandPublisher) Publish(ctx context.Context, torque float64) error {
	frame, err := p.wireMap.EncodeTorqueCommand(torque)
	if err != nil {
		return err
	}
	return p.writer.WriteFrame(ctx, frame)
}
