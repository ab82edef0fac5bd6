// Package config loads the forcelayout TOML configuration file.
//
// # File Location
//
// [DefaultPath] follows the XDG convention:
//
//	$XDG_CONFIG_HOME/forcelayout/config.toml   (when XDG_CONFIG_HOME is set)
//	~/.config/forcelayout/config.toml          (otherwise)
//
// A missing file is not an error: [Load] returns [Default].
//
// # Example
//
//	[layout]
//	strategy = "fruchterman-reingold-gravity"
//	steps = 1000
//	until = "avg < 0.05"
//
//	[viewport]
//	width = 1200
//	height = 800
//
//	[force]
//	dt = 0.05
//	damping = 0.3
//
//	[gravity]
//	enabled = true
//	c = 0.3
//
//	[store]
//	backend = "file"
//	ttl = "168h"
//
//	[server]
//	addr = ":8080"
package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/forcelayout/pkg/errors"
	"github.com/matzehuels/forcelayout/pkg/layout/force"
	"github.com/matzehuels/forcelayout/pkg/pipeline"
	"github.com/matzehuels/forcelayout/pkg/store"
)

const appName = "forcelayout"

// Config is the decoded configuration file.
type Config struct {
	Layout   Layout   `toml:"layout"`
	Viewport Viewport `toml:"viewport"`
	Force    Force    `toml:"force"`
	Gravity  Gravity  `toml:"gravity"`
	Store    Store    `toml:"store"`
	Server   Server   `toml:"server"`
}

// Layout holds the fast-forward settings.
type Layout struct {
	Strategy    string   `toml:"strategy" validate:"required"`
	Steps       int      `toml:"steps" validate:"gte=0"`
	Epsilon     float64  `toml:"epsilon" validate:"finite,gt=0"`
	UntilStable bool     `toml:"until_stable"`
	Until       string   `toml:"until"`
	Budget      Duration `toml:"budget"`
	Seed        uint64   `toml:"seed"`
}

// Viewport is the layout canvas size.
type Viewport struct {
	Width  float64 `toml:"width" validate:"finite,gt=0"`
	Height float64 `toml:"height" validate:"finite,gt=0"`
}

// Force holds the algorithm tunables.
type Force struct {
	DT       float64 `toml:"dt" validate:"finite,gt=0"`
	Damping  float64 `toml:"damping" validate:"finite,gt=0,lte=1"`
	CRepulse float64 `toml:"c_repulse" validate:"finite,gte=0"`
	CAttract float64 `toml:"c_attract" validate:"finite,gte=0"`
	Epsilon  float64 `toml:"epsilon" validate:"finite,gt=0"`
	KScale   float64 `toml:"k_scale" validate:"finite,gt=0"`
	MaxStep  float64 `toml:"max_step" validate:"finite,gt=0"`
}

// Gravity configures the center gravity extra force.
type Gravity struct {
	Enabled bool    `toml:"enabled"`
	C       float64 `toml:"c" validate:"finite"`
}

// Store selects the persistence backend for layout states.
type Store struct {
	Backend string   `toml:"backend" validate:"oneof=memory file redis mongo none"`
	Dir     string   `toml:"dir"`
	Prefix  string   `toml:"prefix"`
	TTL     Duration `toml:"ttl"`
	Redis   Redis    `toml:"redis"`
	Mongo   Mongo    `toml:"mongo"`
}

// Redis configures the Redis backend.
type Redis struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db" validate:"gte=0"`
}

// Mongo configures the MongoDB backend.
type Mongo struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Server configures the HTTP API.
type Server struct {
	Addr         string   `toml:"addr" validate:"required"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
	MaxSteps     int      `toml:"max_steps" validate:"gte=0"`
}

// Duration is a time.Duration written as a string ("30s", "2h") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() Config {
	state := force.DefaultGravityState()
	gravity := state.Extras.Head
	return Config{
		Layout: Layout{
			Strategy: pipeline.DefaultStrategy,
			Steps:    pipeline.DefaultSteps,
			Epsilon:  pipeline.DefaultStableEpsilon,
			Seed:     pipeline.DefaultSeed,
		},
		Viewport: Viewport{
			Width:  pipeline.DefaultWidth,
			Height: pipeline.DefaultHeight,
		},
		Force: Force{
			DT:       state.DT,
			Damping:  state.Damping,
			CRepulse: state.CRepulse,
			CAttract: state.CAttract,
			Epsilon:  state.Epsilon,
			KScale:   state.KScale,
			MaxStep:  state.MaxStep,
		},
		Gravity: Gravity{
			Enabled: gravity.Enabled,
			C:       gravity.Params.C,
		},
		Store: Store{
			Backend: store.BackendFile,
			Redis:   Redis{Addr: "localhost:6379"},
			Mongo:   Mongo{URI: "mongodb://localhost:27017", Database: appName, Collection: "layouts"},
		},
		Server: Server{
			Addr:         ":8080",
			ReadTimeout:  Duration{15 * time.Second},
			WriteTimeout: Duration{60 * time.Second},
			MaxSteps:     10000,
		},
	}
}

// DefaultPath returns the XDG config file location.
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads path on top of the defaults. An empty path means DefaultPath.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML data on top of the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section against its range rules.
func (c Config) Validate() error {
	var verrs validator.ValidationErrors
	if err := validate.Struct(c); err != nil {
		if !stderrors.As(err, &verrs) {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "validate config")
		}
		fields := make([]string, len(verrs))
		for i, fe := range verrs {
			fields[i] = strings.TrimPrefix(fe.Namespace(), "Config.")
		}
		return errors.New(errors.ErrCodeInvalidConfig, "invalid config values: %s", strings.Join(fields, ", "))
	}
	if err := pipeline.ValidateStrategy(c.Layout.Strategy); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "layout.strategy")
	}
	if _, err := pipeline.CompileUntil(c.Layout.Until); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "layout.until")
	}
	return nil
}

var validate = newValidator()

// newValidator reports TOML key names and knows the finite rule.
func newValidator() *validator.Validate {
	v := force.NewValidator()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Encode writes the configuration as TOML.
func (c Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// Options converts the layout sections into pipeline options.
func (c Config) Options() pipeline.Options {
	return pipeline.Options{
		Strategy:    c.Layout.Strategy,
		Steps:       c.Layout.Steps,
		Epsilon:     c.Layout.Epsilon,
		UntilStable: c.Layout.UntilStable,
		Until:       c.Layout.Until,
		Budget:      c.Layout.Budget.Duration,
		Seed:        c.Layout.Seed,
		Width:       c.Viewport.Width,
		Height:      c.Viewport.Height,
		Tunables:    c.Tunables(),
	}
}

// Tunables returns every force and gravity setting as an override.
func (c Config) Tunables() pipeline.Tunables {
	f := c.Force
	return pipeline.Tunables{
		DT:             pipeline.Float(f.DT),
		Damping:        pipeline.Float(f.Damping),
		CRepulse:       pipeline.Float(f.CRepulse),
		CAttract:       pipeline.Float(f.CAttract),
		Epsilon:        pipeline.Float(f.Epsilon),
		KScale:         pipeline.Float(f.KScale),
		MaxStep:        pipeline.Float(f.MaxStep),
		Gravity:        pipeline.Float(c.Gravity.C),
		GravityEnabled: pipeline.Bool(c.Gravity.Enabled),
	}
}

// StoreOptions converts the store section for [store.Open]. An empty
// directory for the file backend resolves to the XDG cache directory.
func (c Config) StoreOptions() (store.Options, error) {
	s := c.Store
	dir := s.Dir
	if s.Backend == store.BackendFile && dir == "" {
		d, err := CacheDir()
		if err != nil {
			return store.Options{}, err
		}
		dir = filepath.Join(d, "layouts")
	}
	return store.Options{
		Backend: s.Backend,
		Dir:     dir,
		Prefix:  s.Prefix,
		Redis:   store.RedisConfig{Addr: s.Redis.Addr, Password: s.Redis.Password, DB: s.Redis.DB},
		Mongo:   store.MongoConfig{URI: s.Mongo.URI, Database: s.Mongo.Database, Collection: s.Mongo.Collection},
	}, nil
}

// CacheDir returns the XDG cache directory for forcelayout.
func CacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
