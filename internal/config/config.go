// Package config loads the labeller's TOML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const configFile = "config.toml"

type Config struct {
	// Server is the labelling server's base URL. Empty means discover it.
	Server   string
	Discover bool
	// Service is the mDNS service type browsed for when discovering.
	Service string
	// Timeout bounds every request, e.g. "15s".
	Timeout string

	StrokeWidth    float64
	MinStrokeWidth float64
	MaxStrokeWidth float64
	// Color of drawn paths as #rrggbb or #rrggbbaa.
	Color string

	// Canvas size used until the first micrograph arrives.
	CanvasWidth  int
	CanvasHeight int

	Verbose bool
}

func Default() Config {
	return Config{
		Server:         "http://localhost:8000",
		Service:        "_filament-label._tcp",
		Timeout:        "15s",
		StrokeWidth:    5,
		MinStrokeWidth: 1,
		MaxStrokeWidth: 20,
		Color:          "#ff0000",
		CanvasWidth:    1024,
		CanvasHeight:   1024,
	}
}

// Dir is where the config file lives by default.
func Dir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "filament-labeller")
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "filament-labeller")
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "filament-labeller")
}

func DefaultPath() string {
	return filepath.Join(Dir(), configFile)
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	conf := Default()
	md, err := toml.DecodeFile(path, &conf)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("[config] %s not found, using defaults", path)
		return conf, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		log.Printf("[config] ignoring unknown keys in %s: %v", path, undecoded)
	}
	if err := conf.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return conf, nil
}

// Write saves conf to path, creating the directory if needed.
func Write(path string, conf Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(conf); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func (c Config) Validate() error {
	if c.Server == "" && !c.Discover {
		return errors.New("server is empty and discovery is off")
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("timeout: %w", err)
	}
	if c.MinStrokeWidth <= 0 || c.MaxStrokeWidth < c.MinStrokeWidth {
		return fmt.Errorf("stroke width range [%g, %g] is invalid", c.MinStrokeWidth, c.MaxStrokeWidth)
	}
	if c.StrokeWidth < c.MinStrokeWidth || c.StrokeWidth > c.MaxStrokeWidth {
		return fmt.Errorf("stroke width %g outside [%g, %g]", c.StrokeWidth, c.MinStrokeWidth, c.MaxStrokeWidth)
	}
	if !validHex(c.Color) {
		return fmt.Errorf("color %q is not #rrggbb or #rrggbbaa", c.Color)
	}
	if c.CanvasWidth <= 0 || c.CanvasHeight <= 0 {
		return fmt.Errorf("canvas size %dx%d is invalid", c.CanvasWidth, c.CanvasHeight)
	}
	return nil
}

// RequestTimeout is Timeout parsed. Call after Validate.
func (c Config) RequestTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

func validHex(s string) bool {
	s, ok := strings.CutPrefix(s, "#")
	if !ok || (len(s) != 6 && len(s) != 8) {
		return false
	}
	_, err := strconv.ParseUint(s, 16, 32)
	return err == nil
}
