package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/utkarsh5026/tangleview/pkg/layout"
	"github.com/utkarsh5026/tangleview/pkg/tangle"
)

// AppName names the config directory and environment prefix
const AppName = "tangleview"

// Environment overrides
const (
	EnvSourceURL    = "TANGLEVIEW_SOURCE_URL"
	EnvPollInterval = "TANGLEVIEW_POLL_INTERVAL"
	EnvNATSURL      = "TANGLEVIEW_NATS_URL"
	EnvLogFile      = "TANGLEVIEW_LOG_FILE"
	EnvMetricsAddr  = "TANGLEVIEW_METRICS_ADDR"
)

// Config holds tangleview configuration.
type Config struct {
	Source  SourceConfig  `toml:"source"`
	View    ViewConfig    `toml:"view"`
	Physics PhysicsConfig `toml:"physics"`
	Events  EventsConfig  `toml:"events"`
	Log     LogConfig     `toml:"log"`
	Metrics MetricsConfig `toml:"metrics"`
	Demo    DemoConfig    `toml:"demo"`
}

// SourceConfig controls where records come from.
type SourceConfig struct {
	URL          string   `toml:"url"`
	File         string   `toml:"file"`
	PerPage      int      `toml:"per_page"`
	Timeout      Duration `toml:"timeout"`
	PollInterval Duration `toml:"poll_interval"`
}

// ViewConfig controls drawing.
type ViewConfig struct {
	FPS    int     `toml:"fps"`
	Labels bool    `toml:"labels"`
	Legend bool    `toml:"legend"`
	Seed   uint64  `toml:"seed"` // 0 picks a random seed
	Width  int     `toml:"width"`
	Height int     `toml:"height"`
	Scale  float64 `toml:"scale"`
}

// PhysicsConfig mirrors the tunable simulation parameters.
type PhysicsConfig struct {
	Width             float64 `toml:"width"`
	Height            float64 `toml:"height"`
	BoundaryPadding   float64 `toml:"boundary_padding"`
	Bounce            float64 `toml:"bounce"`
	CenterThreshold   float64 `toml:"center_threshold"`
	CenterStrength    float64 `toml:"center_strength"`
	CenterCap         float64 `toml:"center_cap"`
	RepulsionStrength float64 `toml:"repulsion_strength"`
	RepulsionCutoff   float64 `toml:"repulsion_cutoff"`
	RepulsionCap      float64 `toml:"repulsion_cap"`
	SpringStrength    float64 `toml:"spring_strength"`
	SpringLength      float64 `toml:"spring_length"`
	SpringCap         float64 `toml:"spring_cap"`
	MaxForce          float64 `toml:"max_force"`
	MaxSpeed          float64 `toml:"max_speed"`
	Damping           float64 `toml:"damping"`
}

// EventsConfig controls the optional NATS nudge subscription.
type EventsConfig struct {
	NATSURL  string   `toml:"nats_url"`
	Subject  string   `toml:"subject"`
	Debounce Duration `toml:"debounce"`
}

// LogConfig controls background logging.
type LogConfig struct {
	File string `toml:"file"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `toml:"addr"`
}

// DemoConfig controls the synthetic data source.
type DemoConfig struct {
	Addr       string   `toml:"addr"`
	Interval   Duration `toml:"interval"`
	MaxParents int      `toml:"max_parents"`
	Backlog    int      `toml:"backlog"`
	Seed       uint64   `toml:"seed"`
	Publish    bool     `toml:"publish"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			URL:          "http://localhost:8080",
			PerPage:      100,
			Timeout:      Duration{tangle.DefaultTimeout},
			PollInterval: Duration{15 * time.Second},
		},
		View: ViewConfig{
			FPS:    30,
			Labels: true,
			Width:  800,
			Height: 600,
			Scale:  1,
		},
		Physics: PhysicsFrom(layout.DefaultParams()),
		Events: EventsConfig{
			Subject:  "tangle.blocks.>",
			Debounce: Duration{200 * time.Millisecond},
		},
		Demo: DemoConfig{
			Addr:       ":8080",
			Interval:   Duration{3 * time.Second},
			MaxParents: 2,
			Backlog:    5,
		},
	}
}

// PhysicsFrom copies simulation parameters into their config form.
func PhysicsFrom(p layout.Params) PhysicsConfig {
	return PhysicsConfig{
		Width:             p.Width,
		Height:            p.Height,
		BoundaryPadding:   p.BoundaryPadding,
		Bounce:            p.Bounce,
		CenterThreshold:   p.CenterThreshold,
		CenterStrength:    p.CenterStrength,
		CenterCap:         p.CenterCap,
		RepulsionStrength: p.RepulsionStrength,
		RepulsionCutoff:   p.RepulsionCutoff,
		RepulsionCap:      p.RepulsionCap,
		SpringStrength:    p.SpringStrength,
		SpringLength:      p.SpringLength,
		SpringCap:         p.SpringCap,
		MaxForce:          p.MaxForce,
		MaxSpeed:          p.MaxSpeed,
		Damping:           p.Damping,
	}
}

// Params returns the simulation parameters, starting from the defaults
// and overriding every field set in the config.
func (c PhysicsConfig) Params() layout.Params {
	p := layout.DefaultParams()
	set := func(dst *float64, v float64) {
		if v != 0 {
			*dst = v
		}
	}

	set(&p.Width, c.Width)
	set(&p.Height, c.Height)
	set(&p.BoundaryPadding, c.BoundaryPadding)
	set(&p.Bounce, c.Bounce)
	set(&p.CenterThreshold, c.CenterThreshold)
	set(&p.CenterStrength, c.CenterStrength)
	set(&p.CenterCap, c.CenterCap)
	set(&p.RepulsionStrength, c.RepulsionStrength)
	set(&p.RepulsionCutoff, c.RepulsionCutoff)
	set(&p.RepulsionCap, c.RepulsionCap)
	set(&p.SpringStrength, c.SpringStrength)
	set(&p.SpringLength, c.SpringLength)
	set(&p.SpringCap, c.SpringCap)
	set(&p.MaxForce, c.MaxForce)
	set(&p.MaxSpeed, c.MaxSpeed)
	set(&p.Damping, c.Damping)
	return p
}

// Dir returns the tangleview config directory path.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, AppName)
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file at path (DefaultPath when empty), applies
// environment overrides and validates the result. A missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, NewErrConfigParse(path, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, NewErrConfigParse(path, err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to path (DefaultPath when empty).
func Save(path string, cfg *Config) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		f.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return f.Close()
}

// ApplyEnv overrides fields from TANGLEVIEW_* environment variables.
func (c *Config) ApplyEnv() error {
	c.Source.URL = envOrDefault(EnvSourceURL, c.Source.URL)
	c.Events.NATSURL = envOrDefault(EnvNATSURL, c.Events.NATSURL)
	c.Log.File = envOrDefault(EnvLogFile, c.Log.File)
	c.Metrics.Addr = envOrDefault(EnvMetricsAddr, c.Metrics.Addr)

	if v := os.Getenv(EnvPollInterval); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return NewErrInvalidConfig(EnvPollInterval, err.Error())
		}
		c.Source.PollInterval = Duration{d}
	}
	return nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Source.URL == "" && c.Source.File == "":
		return NewErrInvalidConfig("source.url", "a source url or file is required")
	case c.Source.PerPage <= 0:
		return NewErrInvalidConfig("source.per_page", "must be positive")
	case c.Source.PollInterval.Duration <= 0:
		return NewErrInvalidConfig("source.poll_interval", "must be positive")
	case c.Source.Timeout.Duration <= 0:
		return NewErrInvalidConfig("source.timeout", "must be positive")
	case c.View.FPS <= 0 || c.View.FPS > 120:
		return NewErrInvalidConfig("view.fps", "must be between 1 and 120")
	case c.View.Width <= 0 || c.View.Height <= 0:
		return NewErrInvalidConfig("view.width", "image size must be positive")
	case c.View.Scale <= 0:
		return NewErrInvalidConfig("view.scale", "must be positive")
	case c.Demo.Interval.Duration <= 0:
		return NewErrInvalidConfig("demo.interval", "must be positive")
	case c.Demo.MaxParents < 1:
		return NewErrInvalidConfig("demo.max_parents", "must be at least 1")
	}

	if err := c.Physics.Params().Validate(); err != nil {
		var invalid *layout.ErrInvalidParams
		if errors.As(err, &invalid) {
			return NewErrInvalidConfig("physics."+invalid.Field, invalid.Reason)
		}
		return err
	}
	return nil
}

// FrameInterval returns the time between frames.
func (c ViewConfig) FrameInterval() time.Duration {
	if c.FPS <= 0 {
		return time.Second / 30
	}
	return time.Second / time.Duration(c.FPS)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseDuration accepts Go durations and bare seconds.
func parseDuration(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// Duration is a time.Duration written as a string ("15s") in TOML.
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := parseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}
