// Package config handles fbsnap configuration from a YAML file and the
// environment.
package config

import (
	"image/color"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/drummonds/fbsnap/internal/drawing"
	"github.com/drummonds/fbsnap/internal/errors"
	"github.com/drummonds/fbsnap/internal/mask"
	"github.com/drummonds/fbsnap/internal/resize"
	"github.com/drummonds/fbsnap/internal/snapshot"
)

// Environment variables read by Load.
const (
	EnvConfig          = `FBSNAP_CONFIG`
	EnvDevice          = `FBSNAP_DEVICE`
	EnvAssets          = `FBSNAP_ASSETS`
	EnvPhotoPrismHost  = `PHOTOPRISM_DOMAIN`
	EnvPhotoPrismToken = `PHOTOPRISM_TOKEN`
)

// Config is the top-level configuration shared by fbsnap and fbsnapd.
type Config struct {
	Device     string           `yaml:"device"`
	Assets     string           `yaml:"assets"`
	Scale      float64          `yaml:"scale"`
	Resizer    string           `yaml:"resizer"` // catmullrom | bilinear | gift | imaging | nfnt | bild
	Background string           `yaml:"background"`
	Hold       time.Duration    `yaml:"hold"`
	Codec      string           `yaml:"codec"` // deflate | zstd
	Preview    bool             `yaml:"preview"`
	Mask       MaskConfig       `yaml:"mask"`
	Viewer     ViewerConfig     `yaml:"viewer"`
	PhotoPrism PhotoPrismConfig `yaml:"photoprism"`
	Log        LogConfig        `yaml:"log"`
}

type MaskConfig struct {
	OuterRadius    float64 `yaml:"outer_radius"`
	InnerMargin    float64 `yaml:"inner_margin"`
	BorderOpacity  float64 `yaml:"border_opacity"`
	BlurRadius     int     `yaml:"blur_radius"`
	BlurSigma      float64 `yaml:"blur_sigma"`
	SymmetricInset bool    `yaml:"symmetric_inset"`
}

// ViewerConfig is the long running display program fbsnapd supervises.
// Its own config file is passed through by path and never parsed here.
type ViewerConfig struct {
	Command []string `yaml:"command"`
	Config  string   `yaml:"config"`
	// Snapshot overrides <assets>/default.fb.
	Snapshot string `yaml:"snapshot"`
}

type PhotoPrismConfig struct {
	Domain string `yaml:"domain"`
	Token  string `yaml:"token"`
	Thumb  string `yaml:"thumb"` // thumbnail size, empty for the original file
}

type LogConfig struct {
	Level string `yaml:"level"` // debug | info | warn | error
}

func Default() *Config {
	mp := mask.DefaultParams()
	return &Config{
		Device:     `/dev/fb0`,
		Assets:     `/var/lib/fbsnap`,
		Scale:      resize.DefaultFactor,
		Background: `black`,
		Hold:       time.Second,
		Codec:      snapshot.Deflate{}.Name(),
		Mask: MaskConfig{
			OuterRadius:   mp.OuterRadius,
			InnerMargin:   mp.InnerMargin,
			BorderOpacity: mp.BorderOpacity,
			BlurRadius:    mp.Blur.Radius,
			BlurSigma:     mp.Blur.Sigma,
		},
		Log: LogConfig{Level: `info`},
	}
}

// Load is Read followed by Validate.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Read reads path, or the file named by FBSNAP_CONFIG when path is empty,
// over the defaults and then applies environment overrides. With neither
// set the defaults are used as they are. The result is not validated, so
// command line overrides can still be applied before Validate.
func Read(path string) (*Config, error) {
	if path == `` {
		path = os.Getenv(EnvConfig)
	}
	cfg := Default()
	if path != `` {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// LoadFile reads a YAML configuration file over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInvalidInput, `read config %s`, path)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.Wrapf(err, errors.ErrInvalidInput, `parse config %s`, path)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDevice); v != `` {
		c.Device = v
	}
	if v := os.Getenv(EnvAssets); v != `` {
		c.Assets = v
	}
	if v := os.Getenv(EnvPhotoPrismHost); v != `` {
		c.PhotoPrism.Domain = v
	}
	if v := os.Getenv(EnvPhotoPrismToken); v != `` {
		c.PhotoPrism.Token = v
	}
}

// applyDefaults fills fields an explicit empty value in the file cleared.
func (c *Config) applyDefaults() {
	d := Default()
	if c.Device == `` {
		c.Device = d.Device
	}
	if c.Assets == `` {
		c.Assets = d.Assets
	}
	if c.Background == `` {
		c.Background = d.Background
	}
	if c.Codec == `` {
		c.Codec = d.Codec
	}
	if c.Log.Level == `` {
		c.Log.Level = d.Log.Level
	}
}

// Validate checks every value that can be checked without touching a device.
func (c *Config) Validate() error {
	if c.Scale <= 0 {
		return errors.Kind(errors.ErrInvalidInput, `scale must be > 0, got %v`, c.Scale)
	}
	if c.Hold < 0 {
		return errors.Kind(errors.ErrInvalidInput, `hold must not be negative, got %v`, c.Hold)
	}
	if _, err := resize.ByName(c.Resizer); err != nil {
		return err
	}
	if _, err := snapshot.ByName(c.Codec); err != nil {
		return err
	}
	if _, err := c.BackgroundColour(); err != nil {
		return err
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	// the mask itself is checked against a size when it is built
	p := c.MaskParams()
	if p.BorderOpacity < 0 || p.BorderOpacity > 1 {
		return errors.Kind(errors.ErrInvalidInput, `mask.border_opacity %v not in [0,1]`, p.BorderOpacity)
	}
	return nil
}

func (c *Config) MaskParams() mask.Params {
	return mask.Params{
		OuterRadius:    c.Mask.OuterRadius,
		InnerMargin:    c.Mask.InnerMargin,
		BorderOpacity:  c.Mask.BorderOpacity,
		Blur:           mask.Blur{Radius: c.Mask.BlurRadius, Sigma: c.Mask.BlurSigma},
		SymmetricInset: c.Mask.SymmetricInset,
	}
}

func (c *Config) BackgroundColour() (color.NRGBA, error) {
	return drawing.ParseColour(c.Background)
}

func (c *Config) SnapshotCodec() (snapshot.Codec, error) {
	return snapshot.ByName(c.Codec)
}

func (c *Config) ImageResizer() (resize.Resizer, error) {
	return resize.ByName(c.Resizer)
}

// SnapshotPath is the snapshot fbsnapd restores from: viewer.snapshot, or
// <assets>/default with the configured codec's suffix.
func (c *Config) SnapshotPath() string {
	if c.Viewer.Snapshot != `` {
		return c.Viewer.Snapshot
	}
	codec, err := c.SnapshotCodec()
	if err != nil {
		codec = snapshot.Deflate{}
	}
	return snapshot.Path(c.Assets, snapshot.DefaultName, codec)
}

func (c *Config) LogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(c.Log.Level))); err != nil {
		return 0, errors.Wrapf(err, errors.ErrInvalidInput, `log.level`)
	}
	return l, nil
}

// NewLogger is a text logger on w at the configured level.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	lvl, err := c.LogLevel()
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
