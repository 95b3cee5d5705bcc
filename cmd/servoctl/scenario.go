package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mtilocca/servo-cascade-core/internal/axis"
)

// Scenario drives one or more axes through a sequence of setpoint segments
// keyed by simulation time, letting a bench run replay a fixed sequence of
// control/input mode switches and setpoints without a human at the stick.
type Scenario struct {
	Meta   ScenarioMeta   `json:"meta"`
	Timing ScenarioTiming `json:"timing"`
	Axes   []AxisScenario `json:"axes"`
}

type ScenarioMeta struct {
	Name        string `json:"name"`
	Version     int    `json:"version"`
	Description string `json:"description"`
}

type ScenarioTiming struct {
	DurationS float64 `json:"duration_s"`
	LogHz     float64 `json:"log_hz"`
}

// AxisScenario names the axis this sequence of segments drives (must match
// an axis name in the persisted system file).
type AxisScenario struct {
	Name     string          `json:"name"`
	Segments []AxisSegment   `json:"segments"`
	Defaults AxisSetpointCmd `json:"defaults"`
}

// AxisSegment overrides the axis's setpoints and modes for [T0, T1). A
// negative T1 means "until the scenario ends".
type AxisSegment struct {
	T0 float64 `json:"t0"`
	T1 float64 `json:"t1"`
	AxisSetpointCmd
	Comment string `json:"comment,omitempty"`
}

// AxisSetpointCmd is the full set of externally driven fields of
// axis.Controller (spec.md §3's input_* triple plus the modes that gate how
// they're consumed).
type AxisSetpointCmd struct {
	ControlMode string  `json:"control_mode,omitempty"`
	InputMode   string  `json:"input_mode,omitempty"`
	InputPos    float64 `json:"input_pos"`
	InputVel    float64 `json:"input_vel"`
	InputTorque float64 `json:"input_torque"`
}

// LoadScenario reads and validates a Scenario from a JSON file.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read file: %w", err)
	}
	var scen Scenario
	if err := json.Unmarshal(data, &scen); err != nil {
		return Scenario{}, fmt.Errorf("unmarshal: %w", err)
	}
	if scen.Timing.DurationS <= 0 {
		return Scenario{}, fmt.Errorf("invalid duration_s: %f", scen.Timing.DurationS)
	}
	if len(scen.Axes) == 0 {
		return Scenario{}, fmt.Errorf("scenario has no axes")
	}
	return scen, nil
}

// EvalAxisCmd finds the active segment for axisName at time t and returns
// its setpoint command, falling back to that axis's Defaults outside any
// segment.
func EvalAxisCmd(scen *Scenario, axisName string, t float64) (AxisSetpointCmd, bool) {
	for _, ax := range scen.Axes {
		if ax.Name != axisName {
			continue
		}
		cmd := ax.Defaults
		for _, seg := range ax.Segments {
			t1 := seg.T1
			if t1 < 0 {
				t1 = scen.Timing.DurationS
			}
			if t >= seg.T0 && t < t1 {
				cmd = seg.AxisSetpointCmd
				break
			}
		}
		return cmd, true
	}
	return AxisSetpointCmd{}, false
}

func parseControlMode(s string) (axis.ControlMode, bool) {
	switch s {
	case "", "VOLTAGE":
		return axis.ControlModeVoltage, s != ""
	case "TORQUE":
		return axis.ControlModeTorque, true
	case "VELOCITY":
		return axis.ControlModeVelocity, true
	case "POSITION":
		return axis.ControlModePosition, true
	default:
		return 0, false
	}
}

func parseInputMode(s string) (axis.InputMode, bool) {
	switch s {
	case "":
		return axis.InputModeInactive, false
	case "INACTIVE":
		return axis.InputModeInactive, true
	case "PASSTHROUGH":
		return axis.InputModePassthrough, true
	case "VEL_RAMP":
		return axis.InputModeVelRamp, true
	case "POS_FILTER":
		return axis.InputModePosFilter, true
	case "TRAP_TRAJ":
		return axis.InputModeTrapTraj, true
	case "TORQUE_RAMP":
		return axis.InputModeTorqueRamp, true
	case "MIRROR":
		return axis.InputModeMirror, true
	default:
		return 0, false
	}
}
