package main

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mtilocca/servo-cascade-core/internal/axis"
	"github.com/mtilocca/servo-cascade-core/internal/logging"
	"github.com/mtilocca/servo-cascade-core/internal/persistence"
	"github.com/mtilocca/servo-cascade-core/internal/telemetry"
)

// RunnerConfig gathers the command-line inputs NewRunner needs to bring a
// dual-axis system up.
type RunnerConfig struct {
	Interface    string
	SystemPath   string
	ScenarioPath string
}

// axisRuntime is one axis's live wiring: its name, its controller, its
// CAN-backed estimate source, and its torque-command publisher.
type axisRuntime struct {
	name string
	ctrl *axis.Controller
	est  *telemetry.CANEstimateSource
	pub  *telemetry.TorqueCommandPublisher
}

// Runner ticks every axis's Controller at the configured control frequency
// and, in a fixed order, feeds each one its scenario setpoints. One ticker
// drives all axes; a background goroutine per axis keeps its estimate
// current so the tick loop never blocks on the bus. All axes share one
// AxisRegistry so MIRROR mode can read another axis's live encoder estimate.
type Runner struct {
	cfg   RunnerConfig
	log   *logging.Logger
	sys   *persistence.SystemFile
	scen  Scenario
	axes  []*axisRuntime
	wire  *telemetry.WireMap
	reader telemetry.CANReader
	writer telemetry.CANWriter
}

// NewRunner loads the system and scenario files, opens one SocketCAN writer
// and one SocketCAN reader shared by all axes, and builds one Controller per
// axis wired into a shared axis.SliceRegistry for MIRROR support.
func NewRunner(ctx context.Context, cfg RunnerConfig, log *logging.Logger) (*Runner, error) {
	sys, err := persistence.Load(cfg.SystemPath)
	if err != nil {
		return nil, fmt.Errorf("load system config: %w", err)
	}
	scen, err := LoadScenario(cfg.ScenarioPath)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}

	writer, err := telemetry.NewSocketCANWriter(ctx, cfg.Interface)
	if err != nil {
		return nil, err
	}
	reader, err := telemetry.NewSocketCANReader(ctx, cfg.Interface)
	if err != nil {
		writer.Close()
		return nil, err
	}

	wire := telemetry.DefaultWireMap()

	registry := make(axis.SliceRegistry, len(sys.Axes))
	axes := make([]*axisRuntime, len(sys.Axes))

	for i := range sys.Axes {
		af := &sys.Axes[i]
		ctrl := axis.NewController(&af.Config, sys.FCtrl, af.Config.Anticogging.CoggingMapSize)
		persistence.RestoreCoggingMap(ctrl.Map, *af)

		est := telemetry.NewCANEstimateSource(reader, wire, 200*time.Millisecond)
		pub := telemetry.NewTorqueCommandPublisher(writer, wire)

		registry[i] = est
		axes[i] = &axisRuntime{name: af.Name, ctrl: ctrl, est: est, pub: pub}
	}

	for i, ar := range axes {
		ar.ctrl.SetRegistry(registry)
		ar.ctrl.SelectEncoder(i)
	}

	return &Runner{cfg: cfg, log: log, sys: sys, scen: scen, axes: axes, wire: wire, reader: reader, writer: writer}, nil
}

// Close releases the shared CAN reader and writer.
func (r *Runner) Close() {
	if r.reader != nil {
		_ = r.reader.Close()
	}
	if r.writer != nil {
		_ = r.writer.Close()
	}
}

// Run supervises one estimate-reader goroutine per axis plus the tick loop,
// via errgroup so any goroutine's error tears the whole group down.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, ar := range r.axes {
		ar := ar
		g.Go(func() error { return ar.est.Run(ctx) })
	}

	g.Go(func() error { return r.tickLoop(ctx) })

	err := g.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}

func (r *Runner) tickLoop(ctx context.Context) error {
	dt := 1.0 / r.sys.FCtrl
	period := time.Duration(dt * float64(time.Second))

	r.log.Info("Starting tick loop: f_ctrl=%.1fHz axes=%d iface=%s scenario=%s duration=%.2fs",
		r.sys.FCtrl, len(r.axes), r.cfg.Interface, r.scen.Meta.Name, r.scen.Timing.DurationS)

	start := time.Now()
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	endAfter := time.Duration(r.scen.Timing.DurationS * float64(time.Second))
	var ticks uint64

	for {
		select {
		case <-ctx.Done():
			r.log.Warn("Context canceled; stopping tick loop")
			return ctx.Err()

		case now := <-ticker.C:
			elapsed := now.Sub(start)
			if elapsed > endAfter {
				r.log.Info("Scenario complete. ticks=%d", ticks)
				return nil
			}
			t := elapsed.Seconds()

			// Fixed axis update order: MIRROR mode depends on it (spec.md §9).
			for _, ar := range r.axes {
				r.applySetpoints(ar, t)

				torque, ok := ar.ctrl.Update(dt)
				if !ok {
					if ticks%uint64(r.sys.FCtrl) == 0 {
						r.log.Error("%s: controller error=%s", ar.name, ar.ctrl.Error)
					}
					continue
				}
				if err := ar.pub.Publish(ctx, torque); err != nil {
					r.log.Error("%s: publish torque failed: %v", ar.name, err)
				}
			}
			ticks++
		}
	}
}

func (r *Runner) applySetpoints(ar *axisRuntime, t float64) {
	cmd, ok := EvalAxisCmd(&r.scen, ar.name, t)
	if !ok {
		return
	}
	if mode, set := parseControlMode(cmd.ControlMode); set {
		ar.ctrl.SetControlMode(mode)
	}
	if mode, set := parseInputMode(cmd.InputMode); set {
		ar.ctrl.SetInputMode(mode)
	}
	ar.ctrl.InputVel = cmd.InputVel
	ar.ctrl.InputTorque = cmd.InputTorque
	if ar.ctrl.InputPos != cmd.InputPos {
		ar.ctrl.SetInputPos(cmd.InputPos)
	}
}
