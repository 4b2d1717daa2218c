package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/navrunner/internal/model"
	"github.com/udisondev/navrunner/internal/navigation"
)

// Runner holds all configuration for the navigation runner.
type Runner struct {
	LogLevel string `yaml:"log_level"`

	// Frame period of the tick loop
	TickInterval time.Duration `yaml:"tick_interval"`

	Navigation Navigation `yaml:"navigation"`
	Actions    Actions    `yaml:"actions"`
}

// Navigation holds controller settings.
type Navigation struct {
	Precision        float32       `yaml:"precision"`
	MountID          *uint32       `yaml:"mount_id"` // preferred mount; unset uses the generic mount action
	RunAlongPoints   bool          `yaml:"run_along_points"`
	FlightProbeDelay time.Duration `yaml:"flight_probe_delay"`
}

// Actions holds general action ids.
type Actions struct {
	Mount    uint32  `yaml:"mount"`
	Dismount uint32  `yaml:"dismount"`
	Jump     uint32  `yaml:"jump"`
	Sprint   *uint32 `yaml:"sprint"` // role action; unset disables fast movement
}

// DefaultRunner returns Runner config with sensible defaults.
func DefaultRunner() Runner {
	return Runner{
		LogLevel:     "info",
		TickInterval: 16 * time.Millisecond,
		Navigation: Navigation{
			Precision:        1.0,
			RunAlongPoints:   true,
			FlightProbeDelay: navigation.DefaultFlightProbeDelay,
		},
		Actions: Actions{
			Mount:    model.GeneralActionMount,
			Dismount: model.GeneralActionDismount,
			Jump:     model.GeneralActionJump,
		},
	}
}

// LoadRunner loads runner config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadRunner(path string) (Runner, error) {
	cfg := DefaultRunner()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate rejects settings the controller cannot run with.
func (r Runner) Validate() error {
	if err := navigation.ValidatePrecision(r.Navigation.Precision); err != nil {
		return err
	}
	if r.TickInterval <= 0 {
		return fmt.Errorf("%w: tick_interval must be positive, got %s",
			navigation.ErrInvalidConfiguration, r.TickInterval)
	}
	if r.Navigation.FlightProbeDelay < 0 {
		return fmt.Errorf("%w: flight_probe_delay must not be negative, got %s",
			navigation.ErrInvalidConfiguration, r.Navigation.FlightProbeDelay)
	}
	return nil
}

// ControllerOptions converts the config into controller options.
func (r Runner) ControllerOptions() navigation.Options {
	opts := navigation.Options{
		Precision:        r.Navigation.Precision,
		MountID:          r.Navigation.MountID,
		RunAlongPoints:   r.Navigation.RunAlongPoints,
		FlightProbeDelay: r.Navigation.FlightProbeDelay,
		Actions: navigation.Actions{
			Mount:    model.ActionRef{Type: model.ActionTypeGeneralAction, ID: r.Actions.Mount},
			Dismount: model.ActionRef{Type: model.ActionTypeGeneralAction, ID: r.Actions.Dismount},
			Jump:     model.ActionRef{Type: model.ActionTypeGeneralAction, ID: r.Actions.Jump},
		},
	}
	if r.Actions.Sprint != nil {
		opts.Actions.Sprint = &model.ActionRef{Type: model.ActionTypeAction, ID: *r.Actions.Sprint}
	}
	return opts
}

// SlogLevel maps LogLevel to a slog level; unknown values mean info.
func (r Runner) SlogLevel() slog.Level {
	switch r.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
