// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"stemviz/cmd"
	"stemviz/internal/app"
	"stemviz/internal/audio"
	"stemviz/internal/config"
	"stemviz/internal/log"
	"stemviz/pkg/build"
)

// logFile receives log output while the terminal meter owns the screen.
const logFile = "stemviz.log"

// main is the entry point for the visualizer.
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Parse command line arguments and the config file
//   - Execute one-off commands if requested
//   - Decode the stems and build the scene, driver and sinks
//
// 2. Concurrent Phase (Hot Path):
//   - Start playback, which feeds the analyser taps
//   - Tick the animation loop and publish frames
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals, meter quit or end of song
//   - Save the recording if active
//   - Clean up resources
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	if err := build.Initialize(); err != nil {
		log.Debugf("Build info incomplete (%v), using development defaults", err)
	}

	cfg, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	if cfg == nil {
		return
	}

	configureLogging(cfg)

	if cfg.Command != "" {
		if err := executeCommand(cfg.Command); err != nil {
			log.Fatal(err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Startup failed: %v", err)
	}

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	runErr := a.Run(ctx)

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	if err := a.Close(); err != nil {
		log.Errorf("Error during shutdown: %v", err)
	}
	if runErr != nil {
		log.Fatal(runErr)
	}
}

func configureLogging(cfg *config.Config) {
	level, ok := log.ParseLevel(cfg.LogLevel)
	if !ok {
		log.Warnf("Unknown log level %q, using %s", cfg.LogLevel, log.GetLevel())
		level = log.GetLevel()
	}
	if cfg.Debug {
		level = log.LevelDebug
	}
	log.SetLevel(level)

	if cfg.TUI && cfg.Command == "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Warnf("Cannot open %s, logging is disabled while the meter runs: %v", logFile, err)
			log.SetLevel(log.LevelFatal)
			return
		}
		log.SetOutput(f)
	}
}

// executeCommand handles one-off commands that don't require playback.
func executeCommand(command string) error {
	switch command {
	case "list":
		if err := audio.Initialize(); err != nil {
			return err
		}
		defer audio.Terminate()
		return audio.ListDevices(os.Stdout)
	default:
		log.Warnf("Unknown command %q", command)
		return nil
	}
}
