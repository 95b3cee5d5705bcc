package axis

import "fmt"

// InputMode selects how InputShaper turns the external inputs into stage
// setpoints. Numeric values are preserved for wire compatibility with the
// host-facing object-tree RPC.
type InputMode int

const (
	InputModeInactive    InputMode = 0
	InputModePassthrough InputMode = 1
	InputModeVelRamp     InputMode = 2
	InputModePosFilter   InputMode = 3
	InputModeTrapTraj    InputMode = 5
	InputModeTorqueRamp  InputMode = 6
	InputModeMirror      InputMode = 7
)

func (m InputMode) String() string {
	switch m {
	case InputModeInactive:
		return "INACTIVE"
	case InputModePassthrough:
		return "PASSTHROUGH"
	case InputModeVelRamp:
		return "VEL_RAMP"
	case InputModePosFilter:
		return "POS_FILTER"
	case InputModeTrapTraj:
		return "TRAP_TRAJ"
	case InputModeTorqueRamp:
		return "TORQUE_RAMP"
	case InputModeMirror:
		return "MIRROR"
	default:
		return fmt.Sprintf("InputMode(%d)", int(m))
	}
}

// ControlMode selects the cascade depth. Higher values enclose the loops of
// every lower value: POSITION also runs VELOCITY and TORQUE.
type ControlMode int

const (
	ControlModeVoltage ControlMode = 0
	ControlModeTorque  ControlMode = 1
	ControlModeVelocity ControlMode = 2
	ControlModePosition ControlMode = 3
)

func (m ControlMode) String() string {
	switch m {
	case ControlModeVoltage:
		return "VOLTAGE"
	case ControlModeTorque:
		return "TORQUE"
	case ControlModeVelocity:
		return "VELOCITY"
	case ControlModePosition:
		return "POSITION"
	default:
		return fmt.Sprintf("ControlMode(%d)", int(m))
	}
}

// MotorType distinguishes the torque-per-amp behavior the cascade must
// compensate for. Only ACIM changes the velocity-loop gain math: both
// velocity gains are divided by the rotor flux (§4.4).
type MotorType int

const (
	MotorTypePMSM MotorType = iota
	MotorTypeACIM
)

// AnticoggingConfig groups the online-calibration and lookup parameters of
// spec.md §4.3.
type AnticoggingConfig struct {
	Enabled          bool
	Calibrating      bool
	IntegratorGain   float64
	MaxTorque        float64
	CoggingMapSize   int
}

// TrajectoryConfig groups the trapezoidal-planner limits consumed by the
// TRAP_TRAJ input mode (spec.md §4.2, "external trapezoidal planner").
type TrajectoryConfig struct {
	VelLimit   float64
	AccelLimit float64
	DecelLimit float64
}

// MotorConfig groups the read-only motor facts the cascade consults
// (spec.md §6, "the current controller independently reads ... read-only").
type MotorConfig struct {
	Type              MotorType
	MaxAvailableTorque float64
	RotorFlux         float64 // ACIM only; read live, this is the tick-entry snapshot
	MinFlux           float64 // ACIM only; floor for the flux divisor
}

// Config is the immutable-per-tick configuration struct of spec.md §3/§6.
// The command layer writes fields directly; ApplyConfig must be called
// after any write that affects derived state (input filter gains) or that
// must be validated (circular_setpoint_range).
type Config struct {
	ControlMode ControlMode
	InputMode   InputMode

	VelLimit                  float64
	VelLimitTolerance         float64
	EnableVelLimit            bool
	EnableOverspeedError      bool
	EnableCurrentModeVelLimit bool

	PosGain             float64
	VelGain             float64
	VelIntegratorGain   float64
	Inertia             float64

	CircularSetpoints      bool
	CircularSetpointRange  float64

	EnableGainScheduling  bool
	GainSchedulingWidth   float64

	VelRampRate         float64
	TorqueRampRate      float64
	InputFilterBandwidth float64

	AxisToMirror int
	MirrorRatio  float64

	Anticogging AnticoggingConfig
	Trajectory  TrajectoryConfig
	Motor       MotorConfig

	// derived, refreshed only by ApplyConfig
	inputFilterKp float64
	inputFilterKi float64
}

// ApplyConfig recomputes derived gains and validates the fields whose
// invariants must hold at every tick boundary. It must be called once after
// construction and again after any command-layer write that changes
// input_filter_bandwidth or circular_setpoint_range.
func ApplyConfig(cfg *Config, fCtrl float64) error {
	if cfg.CircularSetpoints && cfg.CircularSetpointRange <= 0 {
		return errCircularRange
	}
	bandwidth := cfg.InputFilterBandwidth
	maxBandwidth := 0.25 * fCtrl
	if bandwidth > maxBandwidth {
		bandwidth = maxBandwidth
	}
	cfg.inputFilterKi = 2.0 * bandwidth
	cfg.inputFilterKp = 0.25 * (cfg.inputFilterKi * cfg.inputFilterKi)
	return nil
}
