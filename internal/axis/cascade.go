package axis

import "math"

// integratorDecay is the anti-windup back-off factor applied on a
// saturated tick. Hard-coded to match controller.cpp's own unresolved
// "TODO make decayfactor configurable" (see DESIGN.md Open Questions).
const integratorDecay = 0.99

// runCascade evaluates the position loop, velocity loop, torque
// saturation, and anti-windup, in that order (spec.md §4.4). It assumes
// shapeInput has already produced this tick's stage setpoints.
func (c *Controller) runCascade(dt float64) (float64, bool) {
	velDes := c.VelSetpoint
	torque := c.TorqueSetpoint

	g := 1.0 // gain-scheduling multiplier; computed once, shared by P and I terms of the velocity loop.

	if c.cfg.ControlMode >= ControlModePosition {
		posErr, ok := c.positionError()
		if !ok {
			return 0, false
		}
		velDes += c.cfg.PosGain * posErr

		if c.cfg.EnableGainScheduling {
			absErr := math.Abs(posErr)
			if absErr <= c.cfg.GainSchedulingWidth && c.cfg.GainSchedulingWidth > 0 {
				g = absErr / c.cfg.GainSchedulingWidth
			}
		}
	}

	if c.cfg.EnableVelLimit {
		velDes = clampf(velDes, -c.cfg.VelLimit, c.cfg.VelLimit)
	}

	if c.cfg.EnableOverspeedError {
		if !c.estimateValid() {
			return 0, c.setError(ErrorInvalidEstimate)
		}
		if math.Abs(c.est.Velocity()) > c.cfg.VelLimitTolerance*c.cfg.VelLimit {
			return 0, c.setError(ErrorOverspeed)
		}
	}

	velGain := c.cfg.VelGain
	velIntegratorGain := c.cfg.VelIntegratorGain
	if c.cfg.Motor.Type == MotorTypeACIM {
		flux := c.cfg.Motor.RotorFlux
		minFlux := c.cfg.Motor.MinFlux
		if math.Abs(flux) < minFlux {
			flux = math.Copysign(minFlux, flux)
		}
		velGain /= flux
		velIntegratorGain /= flux
		// NOTE: vel_integrator_torque is deliberately not rescaled here even
		// though its effective units just changed with flux — preserved from
		// the source firmware's own unresolved TODO, not an oversight.
	}

	if c.cfg.Anticogging.Enabled || c.cfg.Anticogging.Calibrating {
		anticoggingPos, ok := c.anticoggingPos()
		if !ok {
			return 0, false
		}
		torque += c.Map.Lookup(anticoggingPos)
	}

	var vErr float64
	if c.cfg.ControlMode >= ControlModeVelocity {
		if !c.estimateValid() {
			return 0, c.setError(ErrorInvalidEstimate)
		}
		vErr = velDes - c.est.Velocity()
		torque += velGain*g*vErr + c.VelIntegratorTorque
	}

	if c.cfg.ControlMode < ControlModeVelocity && c.cfg.EnableCurrentModeVelLimit {
		if !c.estimateValid() {
			return 0, c.setError(ErrorInvalidEstimate)
		}
		torque = limitVel(c.cfg.VelLimit, c.est.Velocity(), velGain, torque)
	}

	tLim := c.cfg.Motor.MaxAvailableTorque
	torqueClamped := clampf(torque, -tLim, tLim)
	saturated := torqueClamped != torque

	switch {
	case c.cfg.ControlMode < ControlModeVelocity:
		c.VelIntegratorTorque = 0
	case saturated:
		c.VelIntegratorTorque *= integratorDecay
	default:
		c.VelIntegratorTorque += velIntegratorGain * g * dt * vErr
	}

	return torqueClamped, true
}

// positionError computes pos_err for the position loop, folding and
// wrapping for circular setpoints (spec.md §4.4, invariant 9 of §8).
func (c *Controller) positionError() (float64, bool) {
	if c.cfg.CircularSetpoints {
		if !c.estimateValid() {
			return 0, c.setError(ErrorInvalidEstimate)
		}
		c.PosSetpoint = fmodPos(c.PosSetpoint, c.cfg.CircularSetpointRange)
		posErr := c.PosSetpoint - c.est.PosCircular()
		return wrapPM(posErr, c.cfg.CircularSetpointRange), true
	}
	if !c.estimateValid() {
		return 0, c.setError(ErrorInvalidEstimate)
	}
	return c.PosSetpoint - c.est.PosLinear(), true
}

// anticoggingPos selects the position source for the feed-forward lookup:
// pos_setpoint during trajectory playback, pos_linear otherwise (spec.md
// §4.3/§4.4).
func (c *Controller) anticoggingPos() (float64, bool) {
	if c.cfg.InputMode == InputModeTrapTraj {
		return c.PosSetpoint, true
	}
	if !c.estimateValid() {
		return 0, c.setError(ErrorInvalidEstimate)
	}
	return c.est.PosLinear(), true
}

// limitVel implements the current-mode velocity clamp of spec.md §4.4:
// torque is bounded so that, at the present velocity, it cannot drive the
// axis outside ±vel_limit any faster than vel_gain would command.
func limitVel(velLimit, velEstimate, velGain, torque float64) float64 {
	tMax := (velLimit - velEstimate) * velGain
	tMin := (-velLimit - velEstimate) * velGain
	return clampf(torque, tMin, tMax)
}
