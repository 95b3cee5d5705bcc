// Command servoctl runs the dual-axis servo cascade against a SocketCAN bus,
// driven by a scenario file, logging to both file and stdout so a bench run
// leaves a record behind after the terminal scrolls away.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/mtilocca/servo-cascade-core/internal/logging"
)

func main() {
	var (
		iface      = flag.String("iface", "vcan0", "SocketCAN interface name")
		systemPath = flag.String("system", "config/system.yaml", "Path to system.yaml (axis configs)")
		scenPath   = flag.String("scenario", "scenarios/s1_passthrough_torque.json", "Scenario JSON file")
		logLevel   = flag.String("log", "info", "trace|debug|info|warn|error|critical")
		logPath    = flag.String("logfile", "servoctl.log", "Path to log file")
	)
	flag.Parse()

	level := logging.ParseLevel(*logLevel)

	log, err := logging.NewFileLogger(*logPath, level, true)
	if err != nil {
		_, _ = os.Stderr.WriteString("ERROR: cannot open " + *logPath + ": " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Close()

	cfg := RunnerConfig{
		Interface:    *iface,
		SystemPath:   *systemPath,
		ScenarioPath: *scenPath,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := NewRunner(ctx, cfg, log)
	if err != nil {
		log.Critical("Startup failed: %v", err)
		os.Exit(1)
	}
	defer runner.Close()

	if err := runner.Run(ctx); err != nil {
		log.Critical("Run failed: %v", err)
		os.Exit(1)
	}
}
