package homing

import "github.com/mtilocca/servo-cascade-core/internal/axis"

// IndexZeroedSource wraps an axis.EstimateSource and holds it invalid until
// the index-pulse input has been seen once, at which point it latches the
// underlying circular position as the new zero reference; the linear
// position passes through unchanged. This lets an axis boot
// with an absolute-looking estimate that is nonetheless anchored to a
// physical index mark rather than wherever the encoder happened to power up.
type IndexZeroedSource struct {
	underlying axis.EstimateSource
	driver     Driver
	pin        int

	homed   bool
	lastPin Level
	offset  float64
}

// NewIndexZeroedSource wraps underlying, watching pin on driver for a
// rising edge to trigger homing.
func NewIndexZeroedSource(underlying axis.EstimateSource, driver Driver, pin int) (*IndexZeroedSource, error) {
	if err := driver.SetupPin(pin, Input); err != nil {
		return nil, err
	}
	return &IndexZeroedSource{underlying: underlying, driver: driver, pin: pin}, nil
}

// Poll must be called once per tick before reading position. It detects the
// index pulse's rising edge and, on the first one seen, latches the offset
// that zeroes PosCircular from that point on.
func (s *IndexZeroedSource) Poll() error {
	level, err := s.driver.ReadPin(s.pin)
	if err != nil {
		return err
	}
	if !s.homed && level == High && s.lastPin == Low {
		s.homed = true
		s.offset = s.underlying.PosCircular()
	}
	s.lastPin = level
	return nil
}

// Homed reports whether the index pulse has been seen since construction.
func (s *IndexZeroedSource) Homed() bool { return s.homed }

func (s *IndexZeroedSource) PosLinear() float64 {
	return s.underlying.PosLinear()
}

func (s *IndexZeroedSource) PosCircular() float64 {
	return s.underlying.PosCircular() - s.offset
}

func (s *IndexZeroedSource) Velocity() float64 {
	return s.underlying.Velocity()
}

// Valid reports the underlying source's validity, but only once homed —
// before the index pulse fires, this axis has no trustworthy zero and any
// controller reading it should treat it as INVALID_ESTIMATE.
func (s *IndexZeroedSource) Valid() bool {
	return s.homed && s.underlying.Valid()
}

var _ axis.EstimateSource = (*IndexZeroedSource)(nil)
