package axis

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
)

// Trajectory is the output of Plan: a pure function of time, evaluated by
// Eval. Spec.md §1 treats the trapezoidal planner as an external
// plan→eval collaborator; this is the reference implementation used when
// no other planner is wired in.
type Trajectory struct {
	pos0, dir float64
	v0        float64
	aAccel    float64
	aDecel    float64
	vLimit    float64

	ta, tc, td float64 // phase durations: accel, cruise, decel
	da, dc     float64 // distance covered by accel and cruise phases

	// Tf is the trajectory duration. Once t > Tf the trajectory is done
	// (spec.md §4.2's TRAP_TRAJ handoff condition).
	Tf float64
}

// TrapezoidalPlanner plans trapezoidal-velocity-profile trajectories. It
// mirrors the plan/eval split of the trapezoid velocity generator this
// subsystem is modeled on, but exposes it as a pure Plan-then-Eval pair
// rather than a per-tick stateful Next() call, matching spec.md §1's "pure
// function plan→eval" framing.
type TrapezoidalPlanner struct {
	// Logger receives validation diagnostics; nil is a valid no-op logger.
	Logger golog.Logger
}

// Plan computes a trapezoidal trajectory from (pos0, vel0) to goal subject
// to cfg's velocity/accel/decel limits. vel0 is projected onto the
// direction of travel; a residual velocity opposing the goal is treated as
// zero (the axis must first come to rest before the profile can assume a
// constant acceleration sign).
func (p *TrapezoidalPlanner) Plan(pos0, vel0, goal float64, cfg TrajectoryConfig) (Trajectory, error) {
	if cfg.VelLimit <= 0 {
		return Trajectory{}, errors.Errorf("trapezoidal planner needs a positive vel_limit, got %v", cfg.VelLimit)
	}
	if cfg.AccelLimit <= 0 {
		return Trajectory{}, errors.Errorf("trapezoidal planner needs a positive accel_limit, got %v", cfg.AccelLimit)
	}
	if cfg.DecelLimit <= 0 {
		return Trajectory{}, errors.Errorf("trapezoidal planner needs a positive decel_limit, got %v", cfg.DecelLimit)
	}

	dir := 1.0
	if goal < pos0 {
		dir = -1.0
	}
	d := math.Abs(goal - pos0)

	v0 := vel0 * dir
	if v0 < 0 {
		v0 = 0
	}
	if v0 > cfg.VelLimit {
		v0 = cfg.VelLimit
	}

	t := Trajectory{pos0: pos0, dir: dir, v0: v0, aAccel: cfg.AccelLimit, aDecel: cfg.DecelLimit, vLimit: cfg.VelLimit}

	ta := (cfg.VelLimit - v0) / cfg.AccelLimit
	da := v0*ta + 0.5*cfg.AccelLimit*ta*ta
	td := cfg.VelLimit / cfg.DecelLimit
	dd := 0.5 * cfg.VelLimit * td

	if da+dd > d {
		// Distance too short to reach vLimit: triangular profile peaking at vp.
		vpSq := (2*d*cfg.AccelLimit*cfg.DecelLimit + v0*v0*cfg.DecelLimit) / (cfg.AccelLimit + cfg.DecelLimit)
		vp := math.Sqrt(math.Max(vpSq, 0))
		ta = (vp - v0) / cfg.AccelLimit
		if ta < 0 {
			ta = 0
		}
		td = vp / cfg.DecelLimit
		da = v0*ta + 0.5*cfg.AccelLimit*ta*ta
		t.ta, t.tc, t.td = ta, 0, td
		t.da, t.dc = da, 0
		t.vLimit = vp
		t.Tf = ta + td
		if p.Logger != nil {
			p.Logger.Debugw("triangular trajectory profile", "distance", d, "peak_vel", vp)
		}
		return t, nil
	}

	dc := d - da - dd
	tc := dc / cfg.VelLimit
	t.ta, t.tc, t.td = ta, tc, td
	t.da, t.dc = da, dc
	t.Tf = ta + tc + td
	if p.Logger != nil {
		p.Logger.Debugw("trapezoidal trajectory profile", "distance", d, "duration", t.Tf)
	}
	return t, nil
}

// Eval evaluates the trajectory at time t (clamped to [0, Tf]), returning
// position, velocity, and acceleration.
func (t Trajectory) Eval(at float64) (pos, vel, accel float64) {
	if at < 0 {
		at = 0
	}
	switch {
	case at <= t.ta:
		pos = t.pos0 + t.dir*(t.v0*at+0.5*t.aAccel*at*at)
		vel = t.dir * (t.v0 + t.aAccel*at)
		accel = t.dir * t.aAccel
	case at <= t.ta+t.tc:
		dt := at - t.ta
		pos = t.pos0 + t.dir*(t.da+t.vLimit*dt)
		vel = t.dir * t.vLimit
		accel = 0
	case at < t.Tf:
		dt := at - t.ta - t.tc
		pos = t.pos0 + t.dir*(t.da+t.dc+t.vLimit*dt-0.5*t.aDecel*dt*dt)
		vel = t.dir * (t.vLimit - t.aDecel*dt)
		accel = -t.dir * t.aDecel
	default:
		pos = t.pos0 + t.dir*(t.da+t.dc+t.vLimit*t.td-0.5*t.aDecel*t.td*t.td)
		vel = 0
		accel = 0
	}
	return
}
