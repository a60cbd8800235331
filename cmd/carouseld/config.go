package main

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/victorgvargas/carousel/internal/carousel"
	"github.com/victorgvargas/carousel/internal/gesture"
)

// Config is the top-level configuration for carouseld. It can be loaded from
// a YAML or a TOML file; the format is picked by file extension.
//
// Keep defaults and validation centralized so the rest of the code can assume
// a well-formed config.
type Config struct {
	Carousel CarouselConfig `yaml:"carousel" toml:"carousel"`
	Gesture  GestureConfig  `yaml:"gesture" toml:"gesture"`
	Input    InputConfig    `yaml:"input" toml:"input"`
	IPC      IPCConfig      `yaml:"ipc" toml:"ipc"`
	StateWS  StateWSConfig  `yaml:"state_ws" toml:"state_ws"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

type CarouselConfig struct {
	Pages         int     `yaml:"pages" toml:"pages"`
	AutoAdvanceMS int     `yaml:"auto_advance_ms" toml:"auto_advance_ms"`
	TransitionMS  int     `yaml:"transition_ms" toml:"transition_ms"`
	PageWidthPx   float64 `yaml:"page_width_px" toml:"page_width_px"`
	CommitRatio   float64 `yaml:"commit_ratio" toml:"commit_ratio"`
}

type GestureConfig struct {
	ThresholdPx float64 `yaml:"threshold_px" toml:"threshold_px"`

	// ThresholdPerDirection overrides ThresholdPx when non-empty. Keys are
	// left, right, up and down; missing directions use 10 px.
	ThresholdPerDirection map[string]float64 `yaml:"threshold_per_direction,omitempty" toml:"threshold_per_direction,omitempty"`

	PreventDefaultTouchmove bool    `yaml:"prevent_default_touchmove" toml:"prevent_default_touchmove"`
	RotationDeg             float64 `yaml:"rotation_deg" toml:"rotation_deg"`
	TrackMouse              bool    `yaml:"track_mouse" toml:"track_mouse"`
	TrackTouch              bool    `yaml:"track_touch" toml:"track_touch"`
}

type InputConfig struct {
	Devices []string `yaml:"devices,omitempty" toml:"devices,omitempty"`

	// Reader is epoll, select or goroutine.
	Reader string `yaml:"reader" toml:"reader"`

	// ScaleX/ScaleY convert absolute device units to pixels.
	ScaleX float64 `yaml:"scale_x" toml:"scale_x"`
	ScaleY float64 `yaml:"scale_y" toml:"scale_y"`

	// Relative pointer motion is clamped to the screen.
	ScreenWidth  int `yaml:"screen_width" toml:"screen_width"`
	ScreenHeight int `yaml:"screen_height" toml:"screen_height"`
}

type IPCConfig struct {
	SocketPath string `yaml:"socket_path" toml:"socket_path"`
}

type StateWSConfig struct {
	Listen string `yaml:"listen" toml:"listen"`
	Path   string `yaml:"path" toml:"path"`

	SendBuf      int `yaml:"send_buf" toml:"send_buf"`
	BroadcastBuf int `yaml:"broadcast_buf" toml:"broadcast_buf"`

	// DragCoalesceMS rate-limits drag updates (latest wins). 0 disables it.
	DragCoalesceMS int `yaml:"drag_coalesce_ms" toml:"drag_coalesce_ms"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // text | json
}

// DefaultConfig returns a fully-populated Config with defaults.
// Keep this aligned with constants.go and the flag defaults in main.go.
func DefaultConfig() Config {
	return Config{
		Carousel: CarouselConfig{
			Pages:         defaultPages,
			AutoAdvanceMS: defaultAutoAdvanceMS,
			TransitionMS:  defaultTransitionMS,
			PageWidthPx:   defaultPageWidthPx,
			CommitRatio:   defaultCommitRatio,
		},
		Gesture: GestureConfig{
			ThresholdPx: defaultThresholdPx,
			TrackTouch:  true,
		},
		Input: InputConfig{
			Devices:      []string{"/dev/input/event0"},
			Reader:       "epoll",
			ScaleX:       1,
			ScaleY:       1,
			ScreenWidth:  1080,
			ScreenHeight: 1920,
		},
		IPC: IPCConfig{
			SocketPath: defaultSocketPath,
		},
		StateWS: StateWSConfig{
			Listen:         defaultWSListen,
			Path:           defaultWSPath,
			SendBuf:        32,
			BroadcastBuf:   128,
			DragCoalesceMS: defaultDragCoalesceMS,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfigFile reads and parses a config file on top of DefaultConfig.
//
// Files ending in .toml are parsed as TOML, anything else as YAML. Unknown
// fields are rejected in both formats to catch typos.
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return decodeTOML(b)
	}
	return decodeYAML(b)
}

func decodeYAML(b []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Ensure there's no trailing garbage (only whitespace/comments are allowed after the document).
	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

func decodeTOML(b []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := toml.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("decode config toml: %s", strict.String())
		}
		return Config{}, fmt.Errorf("decode config toml: %w", err)
	}
	return cfg, nil
}

// FlagOverrides holds values from flags that were explicitly set. A nil
// pointer means "not set" and leaves the config alone.
type FlagOverrides struct {
	Pages         *int
	AutoAdvanceMS *int
	TransitionMS  *int

	ThresholdPx *float64
	RotationDeg *float64
	TrackMouse  *bool

	InputDevices *string // comma separated
	InputReader  *string

	IPCSocketPath *string
	WSListen      *string

	LogLevel  *string
	LogFormat *string
}

// Apply merges the overrides into cfg. If an override pointer is nil, it is ignored.
// If the pointer is non-nil, the value is applied (even if it is a “zero value”).
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}

	if o.Pages != nil {
		cfg.Carousel.Pages = *o.Pages
	}
	if o.AutoAdvanceMS != nil {
		cfg.Carousel.AutoAdvanceMS = *o.AutoAdvanceMS
	}
	if o.TransitionMS != nil {
		cfg.Carousel.TransitionMS = *o.TransitionMS
	}

	if o.ThresholdPx != nil {
		cfg.Gesture.ThresholdPx = *o.ThresholdPx
		cfg.Gesture.ThresholdPerDirection = nil
	}
	if o.RotationDeg != nil {
		cfg.Gesture.RotationDeg = *o.RotationDeg
	}
	if o.TrackMouse != nil {
		cfg.Gesture.TrackMouse = *o.TrackMouse
	}

	if o.InputDevices != nil {
		var devs []string
		for _, d := range strings.Split(*o.InputDevices, ",") {
			if d = strings.TrimSpace(d); d != "" {
				devs = append(devs, d)
			}
		}
		cfg.Input.Devices = devs
	}
	if o.InputReader != nil {
		cfg.Input.Reader = *o.InputReader
	}

	if o.IPCSocketPath != nil {
		cfg.IPC.SocketPath = *o.IPCSocketPath
	}
	if o.WSListen != nil {
		cfg.StateWS.Listen = *o.WSListen
	}

	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
	if o.LogFormat != nil {
		cfg.Logging.Format = *o.LogFormat
	}
}

// Validate checks config invariants and returns a user-friendly error.
// This is intended to be called after defaults + file + overrides are applied.
func (c *Config) Validate() error {
	// Carousel
	if c.Carousel.Pages < 1 {
		return errors.New("carousel.pages must be >= 1")
	}
	if c.Carousel.AutoAdvanceMS <= 0 {
		return errors.New("carousel.auto_advance_ms must be > 0")
	}
	if c.Carousel.TransitionMS <= 0 {
		return errors.New("carousel.transition_ms must be > 0")
	}
	if !(c.Carousel.PageWidthPx > 0) {
		return errors.New("carousel.page_width_px must be > 0")
	}
	if !(c.Carousel.CommitRatio > 0 && c.Carousel.CommitRatio <= 1) {
		return errors.New("carousel.commit_ratio must be in (0, 1]")
	}

	// Gesture
	if c.Gesture.ThresholdPx < 0 || math.IsNaN(c.Gesture.ThresholdPx) {
		return errors.New("gesture.threshold_px must be >= 0")
	}
	for k, v := range c.Gesture.ThresholdPerDirection {
		if _, err := gesture.ParseDirection(k); err != nil {
			return fmt.Errorf("gesture.threshold_per_direction: %w", err)
		}
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("gesture.threshold_per_direction.%s must be >= 0", k)
		}
	}
	if math.IsNaN(c.Gesture.RotationDeg) || math.IsInf(c.Gesture.RotationDeg, 0) {
		return errors.New("gesture.rotation_deg must be finite")
	}
	if !c.Gesture.TrackMouse && !c.Gesture.TrackTouch {
		return errors.New("at least one of gesture.track_mouse and gesture.track_touch must be true")
	}

	// Input
	if len(c.Input.Devices) == 0 {
		return errors.New("input.devices must not be empty")
	}
	for i, dev := range c.Input.Devices {
		if dev == "" {
			return fmt.Errorf("input.devices[%d] is empty", i)
		}
	}
	switch c.Input.Reader {
	case "epoll", "select", "goroutine":
	default:
		return fmt.Errorf("input.reader must be one of epoll, select, goroutine (got %q)", c.Input.Reader)
	}
	if c.Input.ScaleX <= 0 || c.Input.ScaleY <= 0 {
		return errors.New("input.scale_x and input.scale_y must be > 0")
	}
	if c.Input.ScreenWidth <= 0 || c.Input.ScreenHeight <= 0 {
		return errors.New("input.screen_width and input.screen_height must be > 0")
	}

	// IPC
	if c.IPC.SocketPath == "" {
		return errors.New("ipc.socket_path must not be empty")
	}

	// State WS (empty listen disables it)
	if c.StateWS.Listen != "" && !strings.HasPrefix(c.StateWS.Path, "/") {
		return errors.New("state_ws.path must start with /")
	}
	if c.StateWS.DragCoalesceMS < 0 {
		return errors.New("state_ws.drag_coalesce_ms must be >= 0")
	}

	// Logging
	if _, err := parseLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if !validLogFormat(c.Logging.Format) {
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

// GestureOptions converts the gesture section into recognizer options.
// Validate must have passed.
func (c *Config) GestureOptions() gesture.Options {
	opts := gesture.Options{
		Threshold:               gesture.Uniform(c.Gesture.ThresholdPx),
		PreventDefaultTouchmove: c.Gesture.PreventDefaultTouchmove,
		RotationDeg:             c.Gesture.RotationDeg,
		TrackMouse:              c.Gesture.TrackMouse,
		TrackTouch:              c.Gesture.TrackTouch,
	}
	if len(c.Gesture.ThresholdPerDirection) > 0 {
		m := make(map[gesture.Direction]float64, len(c.Gesture.ThresholdPerDirection))
		for k, v := range c.Gesture.ThresholdPerDirection {
			d, _ := gesture.ParseDirection(k)
			m[d] = v
		}
		opts.Threshold = gesture.PerDirection(m)
	}
	return opts
}

func (c *Config) AutoAdvanceInterval() time.Duration {
	return time.Duration(c.Carousel.AutoAdvanceMS) * time.Millisecond
}

func (c *Config) TransitionDuration() time.Duration {
	return time.Duration(c.Carousel.TransitionMS) * time.Millisecond
}

// CarouselOptions returns the controller options derived from the config.
func (c *Config) CarouselOptions() []carousel.Option {
	return []carousel.Option{
		carousel.WithGestureOptions(c.GestureOptions()),
		carousel.WithTransitionDuration(c.TransitionDuration()),
		carousel.WithCommitRule(c.Carousel.PageWidthPx, c.Carousel.CommitRatio),
	}
}

// LogFields renders the effective config as slog key/value pairs.
func (c *Config) LogFields() []any {
	dirs := make([]string, 0, len(c.Gesture.ThresholdPerDirection))
	for k := range c.Gesture.ThresholdPerDirection {
		dirs = append(dirs, k)
	}
	sort.Strings(dirs)

	return []any{
		"pages", c.Carousel.Pages,
		"auto_advance_ms", c.Carousel.AutoAdvanceMS,
		"transition_ms", c.Carousel.TransitionMS,
		"threshold_px", c.Gesture.ThresholdPx,
		"threshold_dirs", strings.Join(dirs, ","),
		"track_mouse", c.Gesture.TrackMouse,
		"track_touch", c.Gesture.TrackTouch,
		"devices", strings.Join(c.Input.Devices, ","),
		"reader", c.Input.Reader,
		"ipc_socket", c.IPC.SocketPath,
		"ws_listen", c.StateWS.Listen,
	}
}

// ExpandPath expands a leading "~" in a path using $HOME.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	if p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
