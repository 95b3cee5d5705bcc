package axis

import "testing"

func TestSelectEncoder_OutOfRangeErrors(t *testing.T) {
	cfg := &Config{ControlMode: ControlModeTorque}
	c := newTestController(t, cfg)
	c.SetRegistry(SliceRegistry{staticEstimate{valid: true}})

	if c.SelectEncoder(5) {
		t.Fatal("SelectEncoder should have failed for an out-of-range index")
	}
	if c.Error&ErrorInvalidLoadEncoder == 0 {
		t.Errorf("error = %s, want INVALID_LOAD_ENCODER", c.Error)
	}
	if !c.Failed() {
		t.Error("axis should be marked failed after INVALID_LOAD_ENCODER")
	}
}

func TestSelectEncoder_NoRegistryErrors(t *testing.T) {
	cfg := &Config{ControlMode: ControlModeTorque}
	c := newTestController(t, cfg)

	if c.SelectEncoder(0) {
		t.Fatal("SelectEncoder should fail with no registry bound")
	}
}

func TestClearErrors_ResetsLatchAndFault(t *testing.T) {
	cfg := &Config{ControlMode: ControlModeTorque}
	c := newTestController(t, cfg)
	c.SelectEncoder(0) // no registry -> raises an error

	if c.Error == 0 || !c.Failed() {
		t.Fatal("expected an error and a failed axis before ClearErrors")
	}
	c.ClearErrors()
	if c.Error != 0 {
		t.Errorf("error = %s, want NONE after ClearErrors", c.Error)
	}
	if c.Failed() {
		t.Error("axis should not be failed after ClearErrors")
	}
}

func TestReset_ZeroesStageStateNotInputsOrErrors(t *testing.T) {
	cfg := &Config{ControlMode: ControlModeTorque}
	c := newTestController(t, cfg)
	c.InputPos, c.InputVel, c.InputTorque = 1, 2, 3
	c.PosSetpoint, c.VelSetpoint, c.TorqueSetpoint, c.VelIntegratorTorque = 4, 5, 6, 7
	c.Error = ErrorOverspeed

	c.Reset()

	if c.PosSetpoint != 0 || c.VelSetpoint != 0 || c.TorqueSetpoint != 0 || c.VelIntegratorTorque != 0 {
		t.Errorf("Reset should zero all stage setpoints and the integrator")
	}
	if c.InputPos != 1 || c.InputVel != 2 || c.InputTorque != 3 {
		t.Errorf("Reset must not touch input_* fields")
	}
	if c.Error != ErrorOverspeed {
		t.Errorf("Reset must not clear the sticky error latch")
	}
}

func TestStartAnticoggingCalibration_RefusedWhenFailed(t *testing.T) {
	cfg := &Config{ControlMode: ControlModeTorque}
	c := newTestController(t, cfg)
	c.SelectEncoder(0) // no registry -> raises an error and marks failed

	if c.StartAnticoggingCalibration() {
		t.Fatal("StartAnticoggingCalibration should refuse to start on a failed axis")
	}
}

func TestStartAnticoggingCalibration_SucceedsWhenHealthy(t *testing.T) {
	cfg := &Config{ControlMode: ControlModeTorque, Anticogging: AnticoggingConfig{}}
	c := newTestController(t, cfg)

	if !c.StartAnticoggingCalibration() {
		t.Fatal("StartAnticoggingCalibration should succeed on a healthy axis")
	}
	if !c.cfg.Anticogging.Calibrating {
		t.Error("calibrating flag should be set")
	}
	c.StopAnticoggingCalibration()
	if c.cfg.Anticogging.Calibrating {
		t.Error("calibrating flag should be cleared")
	}
}

func TestMoveIncremental_FromInputPos(t *testing.T) {
	cfg := &Config{ControlMode: ControlModePosition, InputMode: InputModeTrapTraj,
		Trajectory: TrajectoryConfig{VelLimit: 1, AccelLimit: 1, DecelLimit: 1}}
	c := newTestController(t, cfg)
	c.InputPos = 1.0

	c.MoveIncremental(0.5, true)
	if c.InputPos != 1.5 {
		t.Errorf("input_pos = %v, want 1.5", c.InputPos)
	}
}

func TestMoveIncremental_FromPosSetpoint(t *testing.T) {
	cfg := &Config{ControlMode: ControlModePosition, InputMode: InputModeTrapTraj,
		Trajectory: TrajectoryConfig{VelLimit: 1, AccelLimit: 1, DecelLimit: 1}}
	c := newTestController(t, cfg)
	c.PosSetpoint = 2.0

	c.MoveIncremental(0.5, false)
	if c.InputPos != 2.5 {
		t.Errorf("input_pos = %v, want 2.5", c.InputPos)
	}
}
