package axis

import "errors"

// ErrorKind is a sticky bitmask, matching spec.md §7. Bits are cleared only
// by the command layer via (*Controller).ClearErrors.
type ErrorKind uint32

const (
	ErrorOverspeed ErrorKind = 1 << iota
	ErrorInvalidInputMode
	ErrorInvalidMirrorAxis
	ErrorInvalidLoadEncoder
	ErrorInvalidEstimate
	ErrorInvalidCircularRange
)

func (e ErrorKind) String() string {
	if e == 0 {
		return "NONE"
	}
	names := []struct {
		bit  ErrorKind
		name string
	}{
		{ErrorOverspeed, "OVERSPEED"},
		{ErrorInvalidInputMode, "INVALID_INPUT_MODE"},
		{ErrorInvalidMirrorAxis, "INVALID_MIRROR_AXIS"},
		{ErrorInvalidLoadEncoder, "INVALID_LOAD_ENCODER"},
		{ErrorInvalidEstimate, "INVALID_ESTIMATE"},
		{ErrorInvalidCircularRange, "INVALID_CIRCULAR_RANGE"},
	}
	s := ""
	for _, n := range names {
		if e&n.bit != 0 {
			if s != "" {
				s += "|"
			}
			s += n.name
		}
	}
	return s
}

// errCircularRange is returned by ApplyConfig. (*Controller).ApplyConfig
// wraps the package function and turns this into a sticky
// ErrorInvalidCircularRange bit on the controller.
var errCircularRange = errors.New("circular_setpoint_range must be > 0 when circular_setpoints is enabled")

// AxisFault is the axis-level flag set alongside any ErrorKind bit, per
// spec.md §4.5 ("ORs ERROR_CONTROLLER_FAILED into the owning axis's error
// latch"). It is a separate sticky flag from ErrorKind because in a
// multi-axis system it aggregates faults from every subsystem on the axis,
// not just this controller.
type AxisFault struct {
	failed bool
}

// SetFailed marks the axis as having a failed controller. Sticky until Clear.
func (f *AxisFault) SetFailed() { f.failed = true }

// Failed reports whether the axis has a sticky controller failure.
func (f *AxisFault) Failed() bool { return f.failed }

// Clear resets the sticky failure flag. Called by the command layer only.
func (f *AxisFault) Clear() { f.failed = false }
