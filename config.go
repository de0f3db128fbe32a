package imdraw

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/imdraw/shape"
)

// Config is the file form of the renderer options.
//
//	width = 1280
//	height = 720
//	slots = 4
//	clear_color = "#202020"
//	bind_group_cache = 128
//	software = true
type Config struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`

	// Slots is nil to let the renderer choose.
	Slots *int `toml:"slots"`

	// ClearColor is a hex colour such as "#336699" or "#33669980".
	ClearColor string `toml:"clear_color"`

	BindGroupCache int  `toml:"bind_group_cache"`
	Software       bool `toml:"software"`
}

// LoadConfig reads a TOML config file. Unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("imdraw: open config: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("imdraw: decode config %s: %w", path, err)
	}
	return cfg, nil
}

// Options converts the config into renderer options. Zero fields are left
// at their defaults.
func (c Config) Options() []Option {
	var opts []Option
	if c.Width > 0 && c.Height > 0 {
		opts = append(opts, WithSize(c.Width, c.Height))
	}
	if c.Slots != nil {
		opts = append(opts, WithSlots(*c.Slots))
	}
	if c.ClearColor != "" {
		opts = append(opts, WithClearColor(shape.Hex(c.ClearColor)))
	}
	if c.BindGroupCache > 0 {
		opts = append(opts, WithBindGroupCache(c.BindGroupCache))
	}
	if c.Software {
		opts = append(opts, WithSoftware())
	}
	return opts
}
