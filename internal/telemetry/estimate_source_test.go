package telemetry

import (
	"context"
	"testing"
	"time"

	"go.einride.tech/can"
)

type fakeCANReader struct {
	frames chan can.Frame
}

func newFakeCANReader() *fakeCANReader {
	return &fakeCANReader{frames: make(chan can.Frame, 8)}
}

func (r *fakeCANReader) ReadFrame(ctx context.Context) (can.Frame, error) {
	select {
	case f := <-r.frames:
		return f, nil
	case <-ctx.Done():
		return can.Frame{}, ctx.Err()
	}
}

func (r *fakeCANReader) Close() error { return nil }

type fakeCANWriter struct {
	sent []can.Frame
}

func (w *fakeCANWriter) WriteFrame(ctx context.Context, frame can.Frame) error {
	w.sent = append(w.sent, frame)
	return nil
}

func (w *fakeCANWriter) Close() error { return nil }

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestCANEstimateSource_DecodesFeedbackFrame(t *testing.T) {
	wire := DefaultWireMap()
	reader := newFakeCANReader()
	src := NewCANEstimateSource(reader, wire, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go src.Run(ctx)

	data, id, err := wire.encodeSignals(FrameEncoderFeedback, map[string]float64{
		"pos_linear":   1.5,
		"pos_circular": 0.25,
		"velocity":     -2.0,
		"valid":        1,
	})
	if err != nil {
		t.Fatalf("encodeSignals: %v", err)
	}
	reader.frames <- toEinrideFrame(id, data)

	waitUntil(t, time.Second, func() bool { return src.Valid() })

	if src.PosLinear() != 1.5 {
		t.Errorf("PosLinear = %v, want 1.5", src.PosLinear())
	}
	if src.Velocity() != -2.0 {
		t.Errorf("Velocity = %v, want -2.0", src.Velocity())
	}
}

func TestCANEstimateSource_StaleReadingGoesInvalid(t *testing.T) {
	wire := DefaultWireMap()
	reader := newFakeCANReader()
	src := NewCANEstimateSource(reader, wire, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go src.Run(ctx)

	data, id, _ := wire.encodeSignals(FrameEncoderFeedback, map[string]float64{"valid": 1})
	reader.frames <- toEinrideFrame(id, data)

	waitUntil(t, time.Second, func() bool { return src.Valid() })
	waitUntil(t, time.Second, func() bool { return !src.Valid() })
}

func TestCANEstimateSource_NeverReceived_IsInvalid(t *testing.T) {
	wire := DefaultWireMap()
	reader := newFakeCANReader()
	src := NewCANEstimateSource(reader, wire, time.Second)

	if src.Valid() {
		t.Fatal("a source with no frames received should be invalid")
	}
}

func TestTorqueCommandPublisher_Publish(t *testing.T) {
	wire := DefaultWireMap()
	writer := &fakeCANWriter{}
	pub := NewTorqueCommandPublisher(writer, wire)

	if err := pub.Publish(context.Background(), 4.2); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(writer.sent) != 1 {
		t.Fatalf("expected 1 frame sent, got %d", len(writer.sent))
	}
	if uint32(writer.sent[0].ID) != torqueCmdID {
		t.Errorf("sent frame id = 0x%X, want 0x%X", uint32(writer.sent[0].ID), torqueCmdID)
	}
}
