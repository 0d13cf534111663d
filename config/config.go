// Package config handles jyzer.toml configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/rlegendi/jyzer/classfile"
)

const FileName = "jyzer.toml"

// Version policies applied when a class is newer than the configured ceiling.
const (
	PolicyWarn   = "warn"
	PolicyRefuse = "refuse"
)

// Config represents a jyzer.toml file.
type Config struct {
	Decode Decode `toml:"decode"`
	Output Output `toml:"output"`
	Log    Log    `toml:"log"`

	// Path is the file the config was loaded from, empty for defaults.
	Path string `toml:"-"`
}

// Decode configures the supported class-file version ceiling.
type Decode struct {
	MaxMajor      uint16 `toml:"max_major"`
	MaxMinor      uint16 `toml:"max_minor"`
	VersionPolicy string `toml:"version_policy"`
}

type Output struct {
	Format string `toml:"format"`
}

type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

func Default() *Config {
	return &Config{
		Decode: Decode{
			MaxMajor:      classfile.DefaultSupportedVersion.Major,
			MaxMinor:      classfile.DefaultSupportedVersion.Minor,
			VersionPolicy: PolicyWarn,
		},
		Output: Output{Format: "line"},
	}
}

// Load parses the jyzer.toml file at path. Keys the file leaves out keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	c.Path = path

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return c, nil
}

// FindAndLoad walks up from startDir to find a jyzer.toml file and loads
// it. Without one, the defaults are returned.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

func (c *Config) validate() error {
	switch c.Decode.VersionPolicy {
	case PolicyWarn, PolicyRefuse:
	default:
		return fmt.Errorf("version_policy must be %q or %q, got %q", PolicyWarn, PolicyRefuse, c.Decode.VersionPolicy)
	}
	if c.Decode.MaxMajor == 0 {
		return fmt.Errorf("max_major must be set")
	}
	return nil
}

// Ceiling is the newest class-file version the configuration accepts.
func (c *Config) Ceiling() classfile.Version {
	return classfile.Version{Major: c.Decode.MaxMajor, Minor: c.Decode.MaxMinor}
}

// CheckVersion applies the version policy to a decoded class. Under the
// warn policy it reports whether the class is too new without failing.
func (c *Config) CheckVersion(cf *classfile.ClassFile) (tooNew bool, err error) {
	if cf.IsVersionSupported(c.Ceiling()) {
		return false, nil
	}
	if c.Decode.VersionPolicy == PolicyRefuse {
		return true, &UnsupportedVersionError{Class: cf.ThisClassName(), Version: cf.Version(), Ceiling: c.Ceiling()}
	}
	return true, nil
}

type UnsupportedVersionError struct {
	Class   string
	Version classfile.Version
	Ceiling classfile.Version
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("%s has class-file version %d.%d, newer than supported %d.%d",
		e.Class, e.Version.Major, e.Version.Minor, e.Ceiling.Major, e.Ceiling.Minor)
}
