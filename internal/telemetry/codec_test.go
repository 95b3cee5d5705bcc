package telemetry

import (
	"math"
	"testing"
)

func TestEncodeDecodeTorqueCommand_RoundTrips(t *testing.T) {
	m := DefaultWireMap()
	frame, err := m.EncodeTorqueCommand(3.1415)
	if err != nil {
		t.Fatalf("EncodeTorqueCommand: %v", err)
	}
	fb, err := m.decodeSignals(uint32(frame.ID), frame.Data[:frame.Length])
	if err != nil {
		t.Fatalf("decodeSignals: %v", err)
	}
	if math.Abs(fb["torque_nm"]-3.1415) > 1e-3 {
		t.Errorf("torque_nm round-trip = %v, want ~3.1415", fb["torque_nm"])
	}
}

func TestEncodeDecodeEncoderFeedback_RoundTrips(t *testing.T) {
	m := DefaultWireMap()
	in := map[string]float64{
		"pos_linear":   -12.5,
		"pos_circular": 0.75,
		"velocity":     3.2,
		"valid":        1,
	}
	payload, id, err := m.encodeSignals(FrameEncoderFeedback, in)
	if err != nil {
		t.Fatalf("encodeSignals: %v", err)
	}
	fb, err := m.DecodeEncoderFeedback(toEinrideFrame(id, payload))
	if err != nil {
		t.Fatalf("DecodeEncoderFeedback: %v", err)
	}
	if math.Abs(fb.PosLinear-in["pos_linear"]) > 1e-2 {
		t.Errorf("PosLinear = %v, want ~%v", fb.PosLinear, in["pos_linear"])
	}
	if math.Abs(fb.PosCircular-in["pos_circular"]) > 1e-3 {
		t.Errorf("PosCircular = %v, want ~%v", fb.PosCircular, in["pos_circular"])
	}
	if !fb.Valid {
		t.Error("Valid = false, want true")
	}
}

func TestEncodeTorqueCommand_UnknownFrameErrors(t *testing.T) {
	m := &WireMap{ByID: map[uint32]*FrameDef{}, ByName: map[string]*FrameDef{}}
	if _, err := m.EncodeTorqueCommand(1.0); err == nil {
		t.Fatal("expected error when TORQUE_CMD is missing from the map")
	}
}

func TestDecodeEncoderFeedback_UnknownIDErrors(t *testing.T) {
	m := DefaultWireMap()
	if _, err := m.DecodeEncoderFeedback(toEinrideFrame(0xDEAD, make([]byte, 8))); err == nil {
		t.Fatal("expected error for unknown frame id")
	}
}

func TestDecodeEncoderFeedback_ShortPayloadErrors(t *testing.T) {
	m := DefaultWireMap()
	if _, err := m.DecodeEncoderFeedback(toEinrideFrame(encoderFeedbackID, make([]byte, 2))); err == nil {
		t.Fatal("expected error for payload shorter than DLC")
	}
}

func TestSignedSignal_NegativeRoundTrips(t *testing.T) {
	m := DefaultWireMap()
	frame, err := m.EncodeTorqueCommand(-7.5)
	if err != nil {
		t.Fatalf("EncodeTorqueCommand: %v", err)
	}
	fb, err := m.decodeSignals(uint32(frame.ID), frame.Data[:frame.Length])
	if err != nil {
		t.Fatalf("decodeSignals: %v", err)
	}
	if math.Abs(fb["torque_nm"]+7.5) > 1e-3 {
		t.Errorf("torque_nm = %v, want ~-7.5", fb["torque_nm"])
	}
}
