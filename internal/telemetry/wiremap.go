// Package telemetry speaks plain SocketCAN frames for axis torque commands
// and encoder feedback. It never negotiates a CAN node ID — that protocol
// is explicitly out of scope for this subsystem (spec.md §1) and nothing
// here implements it.
package telemetry

import (
	"fmt"
	"sort"
)

// SignalDef describes one physical signal packed into a CAN frame's data
// bytes: a DBC-style bit position, scale, and offset for converting between
// the wire's raw integer and the physical value axis code works with.
type SignalDef struct {
	Name      string
	StartBit  int
	BitLength int
	Signed    bool
	Factor    float64
	Offset    float64
	Min       float64
	Max       float64
	Default   float64
}

// FrameDef describes one CAN frame: its arbitration ID and the signals
// packed into its payload.
type FrameDef struct {
	ID      uint32
	Name    string
	DLC     int
	Signals []SignalDef
}

// WireMap is a small fixed set of frame definitions, addressable by name or
// ID. It can be loaded from a CSV signal sheet via LoadCSV for bench
// configurations, or the two frames this subsystem needs can be built
// directly via DefaultWireMap without touching disk.
type WireMap struct {
	ByID   map[uint32]*FrameDef
	ByName map[string]*FrameDef
}

func newWireMap() *WireMap {
	return &WireMap{ByID: map[uint32]*FrameDef{}, ByName: map[string]*FrameDef{}}
}

func (m *WireMap) add(fd *FrameDef) {
	m.ByID[fd.ID] = fd
	m.ByName[fd.Name] = fd
}

// FrameByName looks up a frame definition, erroring with the available
// frame names if not found.
func (m *WireMap) FrameByName(name string) (*FrameDef, error) {
	fd, ok := m.ByName[name]
	if !ok {
		return nil, fmt.Errorf("unknown frame %q (available: %v)", name, m.frameNames())
	}
	return fd, nil
}

// FrameByID looks up a frame definition by arbitration ID.
func (m *WireMap) FrameByID(id uint32) (*FrameDef, error) {
	fd, ok := m.ByID[id]
	if !ok {
		return nil, fmt.Errorf("unknown frame id 0x%X", id)
	}
	return fd, nil
}

func (m *WireMap) frameNames() []string {
	out := make([]string, 0, len(m.ByName))
	for k := range m.ByName {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Frame IDs and names for the two frames this subsystem exchanges with the
// current/FOC controller and the encoder's CAN-attached front end.
const (
	FrameTorqueCmd       = "TORQUE_CMD"
	FrameEncoderFeedback = "ENCODER_FEEDBACK"

	torqueCmdID       uint32 = 0x180
	encoderFeedbackID uint32 = 0x280
)

// DefaultWireMap returns the compiled-in frame layout for TORQUE_CMD
// (axis torque output, one signal) and ENCODER_FEEDBACK (pos_linear,
// pos_circular, velocity, valid; the estimate contract of spec.md §4.1).
func DefaultWireMap() *WireMap {
	m := newWireMap()
	m.add(&FrameDef{
		ID:   torqueCmdID,
		Name: FrameTorqueCmd,
		DLC:  8,
		Signals: []SignalDef{
			{Name: "torque_nm", StartBit: 0, BitLength: 32, Signed: true, Factor: 1e-4, Min: -1e6, Max: 1e6},
		},
	})
	m.add(&FrameDef{
		ID:   encoderFeedbackID,
		Name: FrameEncoderFeedback,
		DLC:  8,
		Signals: []SignalDef{
			{Name: "pos_linear", StartBit: 0, BitLength: 16, Signed: true, Factor: 1e-3, Min: -32.768, Max: 32.767},
			{Name: "pos_circular", StartBit: 16, BitLength: 16, Signed: false, Factor: 1e-4, Min: 0, Max: 6.5535},
			{Name: "velocity", StartBit: 32, BitLength: 16, Signed: true, Factor: 1e-2, Min: -327.68, Max: 327.67},
			{Name: "valid", StartBit: 48, BitLength: 1, Signed: false, Factor: 1, Min: 0, Max: 1},
		},
	})
	return m
}
