// Package config handles xbind.toml project configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/benn-herrera/xbind/model"
)

// FileName is the configuration file looked up beside an API description.
const FileName = "xbind.toml"

// Config represents an xbind.toml project configuration.
type Config struct {
	APIVersion   string              `toml:"api_version"`
	Naming       NamingConfig        `toml:"naming"`
	Output       OutputConfig        `toml:"output"`
	Targets      TargetsConfig       `toml:"targets"`
	Rust         RustConfig          `toml:"rust"`
	Go           GoConfig            `toml:"go"`
	Banner       BannerConfig        `toml:"banner"`
	Callbacks    []CallbackConfig    `toml:"callback"`
	Passthroughs []PassthroughConfig `toml:"passthrough"`

	// Dir is the directory relative paths resolve against (set at load time).
	Dir string `toml:"-"`
	// Path is the file the configuration was read from; empty for defaults.
	Path string `toml:"-"`
}

// NamingConfig parameterizes the identifier transform.
type NamingConfig struct {
	Prefix   string `toml:"prefix"`
	Postfix  string `toml:"postfix"`
	FnPrefix string `toml:"fn_prefix"`
}

// OutputConfig places the generated artifacts.
type OutputConfig struct {
	Dir   string            `toml:"dir"`
	Paths map[string]string `toml:"paths"` // target name → path below Dir
}

// TargetsConfig selects the generators to run.
type TargetsConfig struct {
	Enabled []string `toml:"enabled"`
}

// RustConfig configures the Rust surfaces.
type RustConfig struct {
	FlatCrate string   `toml:"flat_crate"`
	Prelude   []string `toml:"prelude"`
}

// GoConfig configures the cgo wrapper.
type GoConfig struct {
	Package string `toml:"package"`
	Header  string `toml:"header"`
	LDFlags string `toml:"ldflags"`
}

// BannerConfig names the files embedded at the top of every artifact.
type BannerConfig struct {
	License string `toml:"license"`
	Readme  string `toml:"readme"`
}

// CallbackConfig declares an extra callback type.
type CallbackConfig struct {
	Name               string   `toml:"name"`
	Module             string   `toml:"module"`
	Args               []string `toml:"args"`
	Returns            string   `toml:"returns"`
	DefaultConstructor string   `toml:"default_constructor"`
}

// PassthroughConfig declares an extra raw type passed through unchanged.
type PassthroughConfig struct {
	Name   string `toml:"name"`
	Module string `toml:"module"`
}

// Default returns the configuration used when no xbind.toml exists.
func Default(dir string) *Config {
	c := &Config{Dir: dir}
	c.applyDefaults()
	return c
}

// Load parses an xbind.toml file. Unknown keys are rejected so a typo never
// silently falls back to a default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	c.Path = path
	c.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	c.applyDefaults()

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &c, nil
}

// Find loads the configuration for a description. An explicit path must
// exist; otherwise xbind.toml beside the description is used when present,
// and defaults when not.
func Find(explicit, descriptionPath string) (*Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	dir := filepath.Dir(descriptionPath)
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("cannot stat %s: %w", path, err)
	}
	return Default(dir), nil
}

func (c *Config) applyDefaults() {
	def := model.DefaultNaming()
	if c.Naming.Prefix == "" {
		c.Naming.Prefix = def.Prefix
	}
	if c.Naming.Postfix == "" {
		c.Naming.Postfix = def.Postfix
	}
	if c.Naming.FnPrefix == "" {
		c.Naming.FnPrefix = def.FnPrefix
	}
	if c.Rust.FlatCrate == "" {
		c.Rust.FlatCrate = "azul_dll"
	}
	if c.Go.Package == "" {
		c.Go.Package = "azul"
	}
	if c.Go.Header == "" {
		c.Go.Header = "azul.h"
	}
	for i := range c.Callbacks {
		if c.Callbacks[i].Module == "" {
			c.Callbacks[i].Module = model.DefaultHostModule
		}
	}
	for i := range c.Passthroughs {
		if c.Passthroughs[i].Module == "" {
			c.Passthroughs[i].Module = model.DefaultHostModule
		}
	}
}

func (c *Config) validate() error {
	seen := map[string]bool{}
	for i, cb := range c.Callbacks {
		if cb.Name == "" {
			return fmt.Errorf("callback[%d]: name is required", i)
		}
		if seen[cb.Name] {
			return fmt.Errorf("callback[%d]: %q declared twice", i, cb.Name)
		}
		seen[cb.Name] = true
		if cb.DefaultConstructor != "" && cb.Returns == "" {
			return fmt.Errorf("callback %q: default_constructor needs returns", cb.Name)
		}
	}
	for i, p := range c.Passthroughs {
		if p.Name == "" {
			return fmt.Errorf("passthrough[%d]: name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("passthrough[%d]: %q declared twice", i, p.Name)
		}
		seen[p.Name] = true
	}
	for target, p := range c.Output.Paths {
		if filepath.IsAbs(p) {
			return fmt.Errorf("output.paths.%s: %q must be relative to the output directory", target, p)
		}
	}
	return nil
}

// ModelNaming returns the identifier transform parameters.
func (c *Config) ModelNaming() model.Naming {
	return model.Naming{Prefix: c.Naming.Prefix, Postfix: c.Naming.Postfix, FnPrefix: c.Naming.FnPrefix}
}

// WellKnown returns the built-in well-known types followed by the configured
// callbacks and passthroughs. A configured type replaces a built-in one of the
// same name.
func (c *Config) WellKnown() []model.WellKnown {
	types := model.DefaultWellKnown()
	for _, cb := range c.Callbacks {
		types = append(types, model.WellKnown{
			Name:               cb.Name,
			Kind:               model.KindCallback,
			Module:             cb.Module,
			Args:               append([]string(nil), cb.Args...),
			Returns:            cb.Returns,
			DefaultConstructor: cb.DefaultConstructor,
		})
	}
	for _, p := range c.Passthroughs {
		types = append(types, model.WellKnown{Name: p.Name, Kind: model.KindPassthrough, Module: p.Module})
	}
	return types
}

// ResolvePath makes a configured path absolute against the configuration
// directory. Empty stays empty.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// OutputDir returns the configured output directory, or fallback when unset.
func (c *Config) OutputDir(fallback string) string {
	if c.Output.Dir == "" {
		return fallback
	}
	return c.ResolvePath(c.Output.Dir)
}
