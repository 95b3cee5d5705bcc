package axis

import "math"

// shapeInput dispatches on config.InputMode and produces the stage
// setpoints, matching spec.md §4.2 / controller.cpp lines 143-218. Returns
// false (having already called setError) on any invalid configuration.
func (c *Controller) shapeInput(dt float64) bool {
	switch c.cfg.InputMode {
	case InputModeInactive:
		// no-op; stage setpoints retain their last values.
		return true

	case InputModePassthrough:
		c.PosSetpoint = c.InputPos
		c.VelSetpoint = c.InputVel
		c.TorqueSetpoint = c.InputTorque
		return true

	case InputModeVelRamp:
		maxStep := math.Abs(dt * c.cfg.VelRampRate)
		fullStep := c.InputVel - c.VelSetpoint
		step := clampf(fullStep, -maxStep, maxStep)
		c.VelSetpoint += step
		c.TorqueSetpoint = (step / dt) * c.cfg.Inertia
		return true

	case InputModeTorqueRamp:
		maxStep := math.Abs(dt * c.cfg.TorqueRampRate)
		fullStep := c.InputTorque - c.TorqueSetpoint
		step := clampf(fullStep, -maxStep, maxStep)
		c.TorqueSetpoint += step
		return true

	case InputModePosFilter:
		deltaPos := c.InputPos - c.PosSetpoint
		deltaVel := c.InputVel - c.VelSetpoint
		accel := c.cfg.inputFilterKp*deltaPos + c.cfg.inputFilterKi*deltaVel
		c.TorqueSetpoint = accel * c.cfg.Inertia
		c.VelSetpoint += dt * accel
		c.PosSetpoint += dt * c.VelSetpoint
		return true

	case InputModeMirror:
		if c.registry == nil {
			return c.setError(ErrorInvalidMirrorAxis)
		}
		src, ok := c.registry.Estimate(c.cfg.AxisToMirror)
		if !ok {
			return c.setError(ErrorInvalidMirrorAxis)
		}
		c.PosSetpoint = src.PosLinear() * c.cfg.MirrorRatio
		c.VelSetpoint = src.Velocity() * c.cfg.MirrorRatio
		return true

	case InputModeTrapTraj:
		return c.shapeTrapTraj(dt)

	default:
		return c.setError(ErrorInvalidInputMode)
	}
}

// shapeTrapTraj implements the TRAP_TRAJ input mode's state machine
// (spec.md §4.2): on the rising edge of input_pos_updated it (re)plans from
// the current stage state; each subsequent tick it either evaluates the
// planner or, once past the trajectory's end, hands off to position
// control with the terminal state of spec.md §8 property 8.
func (c *Controller) shapeTrapTraj(dt float64) bool {
	if c.inputPosUpdated {
		if err := c.MoveToPos(c.InputPos); err != nil {
			return c.setError(ErrorInvalidInputMode)
		}
		c.inputPosUpdated = false
	}

	if c.TrajectoryDone {
		return true
	}

	if c.trajT > c.traj.Tf {
		c.cfg.ControlMode = ControlModePosition
		c.PosSetpoint = c.InputPos
		c.VelSetpoint = 0
		c.TorqueSetpoint = 0
		c.TrajectoryDone = true
		return true
	}

	pos, vel, accel := c.traj.Eval(c.trajT)
	c.PosSetpoint = pos
	c.VelSetpoint = vel
	c.TorqueSetpoint = accel * c.cfg.Inertia
	c.trajT += dt
	return true
}
