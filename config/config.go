// Package config handles filament.toml runtime configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/tliron/commonlog"

	"github.com/chazu/filament/resolver"
	"github.com/chazu/filament/vm"

	_ "github.com/tliron/commonlog/simple"
)

// FileName is the name of the configuration file.
const FileName = "filament.toml"

// Config represents a filament.toml configuration.
type Config struct {
	Runtime  Runtime        `toml:"runtime"`
	Resolver ResolverConfig `toml:"resolver"`
	Program  ProgramConfig  `toml:"program"`
	Modules  []ModuleEntry  `toml:"modules"`

	// Dir is the directory containing the filament.toml file (set at load time).
	Dir string `toml:"-"`
}

// Runtime configures the interpreter and logging.
type Runtime struct {
	DebugChecks  *bool  `toml:"debug-checks"`
	Trace        bool   `toml:"trace"`
	LogVerbosity int    `toml:"log-verbosity"`
	LogFile      string `toml:"log-file"`
}

// ResolverConfig selects the resolver and what it supports.
type ResolverConfig struct {
	Kind         string   `toml:"kind"`
	Capabilities []string `toml:"capabilities"`
}

// ProgramConfig locates a serialized program image.
type ProgramConfig struct {
	Image string `toml:"image"`
}

// ModuleEntry binds a module export to a VM handle.
type ModuleEntry struct {
	Specifier string `toml:"specifier"`
	Export    string `toml:"export"`
	Handle    int    `toml:"handle"`
}

// Resolver kinds.
const (
	EagerResolver = "eager"
	TableResolver = "table"
)

// Default returns the configuration used when no file is present.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Runtime.DebugChecks == nil {
		on := true
		c.Runtime.DebugChecks = &on
	}
	if c.Resolver.Kind == "" {
		c.Resolver.Kind = EagerResolver
	}
}

// Load parses a filament.toml file from the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return c, nil
}

// Parse decodes and validates configuration text.
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	switch c.Resolver.Kind {
	case EagerResolver, TableResolver:
	default:
		return fmt.Errorf("unknown resolver kind %q", c.Resolver.Kind)
	}
	if _, err := c.Capabilities(); err != nil {
		return err
	}
	if c.Runtime.LogVerbosity < 0 {
		return fmt.Errorf("log-verbosity must not be negative, got %d", c.Runtime.LogVerbosity)
	}
	for i, m := range c.Modules {
		if m.Specifier == "" {
			return fmt.Errorf("modules[%d]: specifier is required", i)
		}
		if m.Handle < 0 || m.Handle > 0xFFFF {
			return fmt.Errorf("modules[%d] (%s): handle %d out of range", i, m.Specifier, m.Handle)
		}
	}
	return nil
}

// Find returns the nearest directory at or above startDir holding a
// filament.toml. ok is false when the search reaches the filesystem root.
func Find(startDir string) (dir string, ok bool, err error) {
	dir, err = filepath.Abs(startDir)
	if err != nil {
		return "", false, err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return dir, true, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// FindAndLoad loads the configuration that governs startDir. A tree without
// any filament.toml yields a nil config and no error; callers fall back to
// Default.
func FindAndLoad(startDir string) (*Config, error) {
	dir, ok, err := Find(startDir)
	if err != nil || !ok {
		return nil, err
	}
	return Load(dir)
}

// ---------------------------------------------------------------------------
// Derived settings
// ---------------------------------------------------------------------------

// Options returns the interpreter options.
func (c *Config) Options() vm.Options {
	return vm.Options{
		DebugChecks: c.Runtime.DebugChecks == nil || *c.Runtime.DebugChecks,
		Trace:       c.Runtime.Trace,
	}
}

// Capabilities returns the configured resolver capabilities. An empty list
// means the resolver kind's natural set.
func (c *Config) Capabilities() (resolver.Capability, error) {
	if len(c.Resolver.Capabilities) == 0 {
		if c.Resolver.Kind == TableResolver {
			return resolver.AllCapabilities, nil
		}
		return resolver.Components, nil
	}
	return resolver.ParseCapabilities(c.Resolver.Capabilities)
}

// ModuleTable builds the handle table from the [[modules]] entries.
func (c *Config) ModuleTable() (*resolver.ModuleTable, error) {
	table := resolver.NewModuleTable()
	for _, m := range c.Modules {
		locator := resolver.Locator{Module: m.Specifier, Export: m.Export}
		if err := table.Register(m.Handle, locator); err != nil {
			return nil, fmt.Errorf("modules: %w", err)
		}
	}
	return table, nil
}

// NewResolver builds the configured resolver over modules.
func (c *Config) NewResolver(modules *resolver.Modules) (resolver.Resolver, error) {
	table, err := c.ModuleTable()
	if err != nil {
		return nil, err
	}
	if c.Resolver.Kind == TableResolver {
		caps, err := c.Capabilities()
		if err != nil {
			return nil, err
		}
		return resolver.NewTableResolver(modules, table, caps), nil
	}
	return resolver.NewEagerResolver(modules, table), nil
}

// ImagePath returns the absolute path of the program image, or "" when
// none is configured.
func (c *Config) ImagePath() string {
	if c.Program.Image == "" {
		return ""
	}
	if filepath.IsAbs(c.Program.Image) {
		return c.Program.Image
	}
	return filepath.Join(c.Dir, c.Program.Image)
}

// LoadProgram reads the configured program image. With debug checks on, the
// program is statically verified before it is returned.
func (c *Config) LoadProgram(r vm.HandleResolver) (*vm.Program, error) {
	path := c.ImagePath()
	if path == "" {
		return nil, fmt.Errorf("no program image configured in [program]")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	p, err := vm.UnmarshalProgram(data, r)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if c.Options().DebugChecks {
		if err := vm.Verify(p); err != nil {
			return nil, fmt.Errorf("verifying %s: %w", path, err)
		}
	}
	return p, nil
}

// ConfigureLogging applies the log verbosity and destination.
func (c *Config) ConfigureLogging() {
	var path *string
	if c.Runtime.LogFile != "" {
		file := c.Runtime.LogFile
		if !filepath.IsAbs(file) && c.Dir != "" {
			file = filepath.Join(c.Dir, file)
		}
		path = &file
	}
	commonlog.Configure(c.Runtime.LogVerbosity, path)
}
