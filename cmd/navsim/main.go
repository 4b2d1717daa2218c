package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/navrunner/internal/config"
	"github.com/udisondev/navrunner/internal/frame"
	"github.com/udisondev/navrunner/internal/navigation"
	"github.com/udisondev/navrunner/internal/sim"
)

const (
	ConfigPath   = "config/navsim.yaml"
	ScenarioPath = "config/scenarios/meadow.yaml"
)

// Ticker ids in the frame manager; each frame runs them in this order.
const (
	worldTickerID uint32 = iota + 1
	controllerTickerID
	completionTickerID
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load config FIRST to determine log level
	cfgPath := ConfigPath
	if p := os.Getenv("NAVSIM_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadRunner(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := cfg.SlogLevel()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))
	navigation.EnableDebugLogging(logLevel == slog.LevelDebug)

	scenarioPath := ScenarioPath
	if p := os.Getenv("NAVSIM_SCENARIO"); p != "" {
		scenarioPath = p
	}
	sc, err := sim.LoadScenario(scenarioPath)
	if err != nil {
		return fmt.Errorf("loading scenario: %w", err)
	}

	slog.Info("navsim starting",
		"scenario", sc.Name,
		"waypoints", len(sc.Waypoints),
		"tick_interval", cfg.TickInterval,
		"precision", cfg.Navigation.Precision)

	world := sim.NewWorld(sc, cfg.TickInterval)
	flight := navigation.NewFlightCache()

	ctrl, err := navigation.NewController(navigation.Deps{
		Game:      world,
		Movement:  world,
		Idle:      world,
		Executor:  world,
		Flight:    flight,
		Scheduler: navigation.TimerScheduler{},
	}, cfg.ControllerOptions())
	if err != nil {
		return fmt.Errorf("creating controller: %w", err)
	}
	ctrl.Enqueue(sc.Route()...)

	mgr := frame.NewTickManager(cfg.TickInterval)
	done := newCompletion(ctrl, mgr, uint64(sc.MaxFrames))
	mgr.Register(worldTickerID, world)
	mgr.Register(controllerTickerID, ctrl)
	mgr.Register(completionTickerID, done)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		if err := mgr.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("tick manager: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return watchConfig(gctx, cfgPath, mgr, ctrl)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	// Tick loop has exited; state is safe to read here.
	mgr.Unregister(controllerTickerID)

	snap := world.Snapshot()
	slog.Info("navsim finished",
		"frames", mgr.Frames(),
		"waypoints_left", ctrl.WaypointCount(),
		"position", snap.Position,
		"territory", snap.Territory,
		"mounted", snap.Mounted,
		"flying", snap.Flying,
		"idle_resets", snap.IdleResets,
		"flight_cache", flight.Snapshot())

	if done.exceeded {
		return fmt.Errorf("scenario %q not finished after %d frames", sc.Name, sc.MaxFrames)
	}
	return nil
}

// watchConfig hot-reloads navigation settings. Changes are applied on the tick goroutine.
func watchConfig(ctx context.Context, path string, mgr *frame.TickManager, ctrl *navigation.Controller) error {
	w, err := config.NewWatcher(path)
	if err != nil {
		slog.Warn("config hot reload disabled", "path", path, "err", err)
		return nil
	}
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case _, ok := <-w.Events:
			if !ok {
				return nil
			}
			cfg, err := config.LoadRunner(path)
			if err != nil {
				slog.Warn("config reload failed", "path", path, "err", err)
				continue
			}
			opts := cfg.ControllerOptions()
			err = mgr.Post(ctx, func() { applyOptions(ctrl, opts) })
			if errors.Is(err, frame.ErrStopped) || ctx.Err() != nil {
				return nil
			}
			if err != nil {
				return fmt.Errorf("posting config reload: %w", err)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config watcher error", "err", err)
		}
	}
}

// applyOptions updates the settings that can change at runtime.
func applyOptions(ctrl *navigation.Controller, opts navigation.Options) {
	if err := ctrl.SetArrivalPrecision(opts.Precision); err != nil {
		slog.Warn("config reload: precision rejected", "err", err)
	}
	ctrl.SetPreferredMountID(opts.MountID)
	ctrl.SetRunAlongPoints(opts.RunAlongPoints)

	slog.Info("config reloaded",
		"precision", ctrl.ArrivalPrecision(),
		"run_along_points", ctrl.RunAlongPoints())
}
