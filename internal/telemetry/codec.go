package telemetry

import (
	"fmt"
	"math"

	"go.einride.tech/can"
)

// EncoderFeedback is the decoded physical content of an ENCODER_FEEDBACK
// frame: the two position estimates and the velocity estimate
// axis.Controller consumes, plus the sender's own valid bit.
type EncoderFeedback struct {
	PosLinear   float64
	PosCircular float64
	Velocity    float64
	Valid       bool
}

// EncodeTorqueCommand packs torqueNm into a TORQUE_CMD frame ready to hand
// to a CANWriter. Out-of-range torque is clamped to the signal's configured
// span rather than rejected, since a saturated command is still a valid one
// for the receiving axis to act on.
func (m *WireMap) EncodeTorqueCommand(torqueNm float64) (can.Frame, error) {
	payload, id, err := m.encodeSignals(FrameTorqueCmd, map[string]float64{"torque_nm": torqueNm})
	if err != nil {
		return can.Frame{}, err
	}
	return toEinrideFrame(id, payload), nil
}

// DecodeEncoderFeedback unpacks an ENCODER_FEEDBACK frame into the fields
// CANEstimateSource tracks.
func (m *WireMap) DecodeEncoderFeedback(frame can.Frame) (EncoderFeedback, error) {
	values, err := m.decodeSignals(uint32(frame.ID), frame.Data[:frame.Length])
	if err != nil {
		return EncoderFeedback{}, err
	}
	return EncoderFeedback{
		PosLinear:   values["pos_linear"],
		PosCircular: values["pos_circular"],
		Velocity:    values["velocity"],
		Valid:       values["valid"] != 0,
	}, nil
}

func toEinrideFrame(id uint32, payload []byte) can.Frame {
	var f can.Frame
	f.ID = id
	f.Length = uint8(len(payload))
	copy(f.Data[:], payload)
	return f
}

// encodeSignals packs values (keyed by signal name; missing signals fall
// back to their SignalDef.Default) into the little-endian payload for
// frameName. It is the shared bit-packing step behind every typed Encode*
// method on WireMap.
func (m *WireMap) encodeSignals(frameName string, values map[string]float64) ([]byte, uint32, error) {
	fd, err := m.FrameByName(frameName)
	if err != nil {
		return nil, 0, err
	}
	if fd.DLC <= 0 || fd.DLC > 8 {
		return nil, 0, fmt.Errorf("frame %s has invalid DLC %d", fd.Name, fd.DLC)
	}

	var payload uint64
	for _, s := range fd.Signals {
		v, ok := values[s.Name]
		if !ok {
			v = s.Default
		}
		v = clamp(v, s.Min, s.Max)

		raw := int64(math.Round((v - s.Offset) / s.Factor))
		raw = clampRaw(raw, s.BitLength, s.Signed)

		u := rawToUnsigned(raw, s.BitLength)
		payload = setBits(payload, s.StartBit, s.BitLength, u)
	}

	out := make([]byte, fd.DLC)
	for i := 0; i < fd.DLC; i++ {
		out[i] = byte((payload >> (8 * i)) & 0xFF)
	}
	return out, fd.ID, nil
}

// decodeSignals is the shared bit-unpacking step behind every typed Decode*
// method on WireMap.
func (m *WireMap) decodeSignals(frameID uint32, data []byte) (map[string]float64, error) {
	fd, err := m.FrameByID(frameID)
	if err != nil {
		return nil, err
	}
	if len(data) < fd.DLC {
		return nil, fmt.Errorf("frame 0x%X expects DLC %d, got %d", frameID, fd.DLC, len(data))
	}

	var payload uint64
	for i := 0; i < fd.DLC && i < 8; i++ {
		payload |= uint64(data[i]) << (8 * i)
	}

	out := make(map[string]float64, len(fd.Signals))
	for _, s := range fd.Signals {
		u := getBits(payload, s.StartBit, s.BitLength)
		raw := unsignedToRawInt64(u, s.BitLength, s.Signed)
		out[s.Name] = float64(raw)*s.Factor + s.Offset
	}
	return out, nil
}
