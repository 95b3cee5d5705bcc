package axis

import "fmt"

// Controller is the per-axis cascade of spec.md §2–§5: it consumes external
// setpoints and an EstimateSource and produces a torque command every tick
// via Update. It performs no allocation inside Update and holds no
// reference to any other axis's Controller — MIRROR reads go through the
// injected AxisRegistry, per spec.md §9.
type Controller struct {
	cfg      *Config
	fCtrl    float64
	registry AxisRegistry

	encoderIdx int
	est        EstimateSource

	fault AxisFault

	Map     *AnticoggingMap
	Planner *TrapezoidalPlanner
	traj    Trajectory
	trajT   float64

	// Controller state, spec.md §3. Exported because the command layer
	// reads/writes several of these fields directly every tick.
	InputPos        float64
	InputVel        float64
	InputTorque     float64
	inputPosUpdated bool

	PosSetpoint         float64
	VelSetpoint         float64
	TorqueSetpoint      float64
	VelIntegratorTorque float64

	TrajectoryDone           bool
	AnticoggingCorrectionPwr float64

	Error ErrorKind
}

// NewController builds a Controller bound to cfg (which must already have
// had ApplyConfig called on it) and fCtrl, the current-measurement rate in
// Hz. mapSize is the anticogging table's bin count.
func NewController(cfg *Config, fCtrl float64, mapSize int) *Controller {
	return &Controller{
		cfg:     cfg,
		fCtrl:   fCtrl,
		Map:     NewAnticoggingMap(mapSize),
		Planner: &TrapezoidalPlanner{},
	}
}

// SetRegistry binds the axis registry used for SelectEncoder and MIRROR
// mode. Must be called before the first Update.
func (c *Controller) SetRegistry(r AxisRegistry) { c.registry = r }

// Reset zeroes the stage setpoints and the velocity integrator, matching
// controller.cpp's reset(): input_pos/vel/torque and the sticky error latch
// are untouched (clearing the latch is a separate, explicit operation).
func (c *Controller) Reset() {
	c.PosSetpoint = 0
	c.VelSetpoint = 0
	c.VelIntegratorTorque = 0
	c.TorqueSetpoint = 0
}

// ClearErrors clears the sticky error bitmask and the axis-level fault
// flag. Only the command layer should call this, after addressing the
// underlying cause.
func (c *Controller) ClearErrors() {
	c.Error = 0
	c.fault.Clear()
}

// Failed reports the axis-level controller-failed flag (spec.md §4.5).
func (c *Controller) Failed() bool { return c.fault.Failed() }

// SelectEncoder rebinds the EstimateSource this controller reads from, by
// index into the registry. Idempotent on the same index; raises
// INVALID_LOAD_ENCODER when the index is out of range (spec.md §4.1).
func (c *Controller) SelectEncoder(index int) bool {
	if c.registry == nil {
		return c.setError(ErrorInvalidLoadEncoder)
	}
	src, ok := c.registry.Estimate(index)
	if !ok {
		return c.setError(ErrorInvalidLoadEncoder)
	}
	c.encoderIdx = index
	c.est = src
	return true
}

// ApplyConfig recomputes derived gains on the controller's own config and
// raises INVALID_CIRCULAR_RANGE if circular_setpoint_range is left at zero
// while circular_setpoints is enabled (spec.md §7).
func (c *Controller) ApplyConfig(fCtrl float64) error {
	if err := ApplyConfig(c.cfg, fCtrl); err != nil {
		c.setError(ErrorInvalidCircularRange)
		return err
	}
	return nil
}

// MoveToPos plans a trapezoidal trajectory from the current stage state to
// goal and resets the trajectory clock, matching controller.cpp's
// move_to_pos. It is also the implementation behind the input_pos_updated
// edge case of TRAP_TRAJ input mode.
func (c *Controller) MoveToPos(goal float64) error {
	traj, err := c.Planner.Plan(c.PosSetpoint, c.VelSetpoint, goal, c.cfg.Trajectory)
	if err != nil {
		return fmt.Errorf("plan trajectory: %w", err)
	}
	c.traj = traj
	c.trajT = 0
	c.TrajectoryDone = false
	return nil
}

// MoveIncremental shifts input_pos by displacement, either relative to the
// current input_pos (fromInputPos) or relative to the current stage
// pos_setpoint, and re-fires the input_pos_updated edge either way
// (controller.cpp lines 52-60).
func (c *Controller) MoveIncremental(displacement float64, fromInputPos bool) {
	if fromInputPos {
		c.InputPos += displacement
	} else {
		c.InputPos = c.PosSetpoint + displacement
	}
	c.inputPosUpdated = true
}

// SetInputPos writes input_pos from the command layer and fires the
// input_pos_updated edge consumed by TRAP_TRAJ (spec.md §3).
func (c *Controller) SetInputPos(pos float64) {
	c.InputPos = pos
	c.inputPosUpdated = true
}

// SetControlMode changes the cascade depth. Dropping below VELOCITY zeroes
// the integrator on the next tick via runCascade's own guard, not here.
func (c *Controller) SetControlMode(mode ControlMode) {
	c.cfg.ControlMode = mode
}

// SetInputMode changes how shapeInput turns external inputs into stage
// setpoints. Switching into TRAP_TRAJ does not by itself start a move; the
// next SetInputPos call fires the edge that plans one.
func (c *Controller) SetInputMode(mode InputMode) {
	c.cfg.InputMode = mode
}

// StartAnticoggingCalibration begins online calibration, but only if the
// axis currently has no other errors (spec.md §4.3, "Start/stop").
func (c *Controller) StartAnticoggingCalibration() bool {
	if c.Error != 0 || c.fault.Failed() {
		return false
	}
	c.cfg.Anticogging.Calibrating = true
	return true
}

// StopAnticoggingCalibration unconditionally clears the calibrating flag.
func (c *Controller) StopAnticoggingCalibration() {
	c.cfg.Anticogging.Calibrating = false
}

// AnticoggingRemoveBias subtracts the map's mean from every bin.
func (c *Controller) AnticoggingRemoveBias() {
	c.Map.RemoveBias()
}

// estimateValid reports whether this controller has a bound EstimateSource
// currently reporting valid readings.
func (c *Controller) estimateValid() bool {
	return c.est != nil && c.est.Valid()
}

// setError sets the sticky ErrorKind bit, ORs the axis-level fault flag,
// and returns false so callers can `return c.setError(...)` to abort the
// tick in one line, matching controller.cpp's `return
// set_error(...), false`.
func (c *Controller) setError(kind ErrorKind) bool {
	c.Error |= kind
	c.fault.SetFailed()
	return false
}

// Update runs one tick of the cascade: input shaping, calibration write,
// position loop, anticogging feed-forward, velocity loop, torque
// saturation, and integrator anti-windup, in that fixed order (spec.md
// §5). On any error it aborts the tick and returns ok=false with no
// torque produced (spec.md §4.5); the caller must treat that as "no
// update", never as a retryable failure.
func (c *Controller) Update(dt float64) (torque float64, ok bool) {
	if c.cfg.CircularSetpoints {
		c.InputPos = fmodPos(c.InputPos, c.cfg.CircularSetpointRange)
	}

	if !c.shapeInput(dt) {
		return 0, false
	}

	if c.cfg.Anticogging.Calibrating && c.cfg.ControlMode == ControlModeVelocity {
		if !c.estimateValid() {
			return 0, c.setError(ErrorInvalidEstimate)
		}
		velErr := c.VelSetpoint - c.est.Velocity()
		c.Map.Calibrate(c.est.PosLinear(), velErr, c.cfg.Anticogging.IntegratorGain, c.cfg.Anticogging.MaxTorque, dt, &c.AnticoggingCorrectionPwr)
	}

	return c.runCascade(dt)
}
