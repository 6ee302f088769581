// Package project loads the droidforge.yaml project configuration: bundle
// naming, versioning, SDK levels, and per-profile signing entries.
package project

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the project configuration file, looked up relative to the
// project root.
const ConfigFileName = "droidforge.yaml"

// Defaults applied when the corresponding configuration field is unset. The
// SDK and version defaults are load-bearing for aapt2 link compatibility.
const (
	DefaultName          = "bundle"
	DefaultMinSDKVersion = 21
	DefaultTargetSDK     = 35
	DefaultVersionCode   = 1
	DefaultVersionName   = "1.0"
)

// Signing is a per-profile keystore declaration. StorePath is relative to the
// project root. KeyAlias and KeyPassword are optional; an empty string means
// unset.
type Signing struct {
	StorePath     string `yaml:"store_path"`
	StorePassword string `yaml:"store_password"`
	KeyAlias      string `yaml:"key_alias"`
	KeyPassword   string `yaml:"key_password"`
}

// SDK holds the manifest SDK levels used during resource linking.
type SDK struct {
	MinSDKVersion    int `yaml:"min_sdk_version"`
	TargetSDKVersion int `yaml:"target_sdk_version"`
}

// Config is the droidforge.yaml project configuration.
type Config struct {
	Signing     map[string]Signing `yaml:"signing"`
	Name        string             `yaml:"name"`
	VersionName string             `yaml:"version_name"`
	SDK         SDK                `yaml:"sdk"`
	VersionCode int                `yaml:"version_code"`
}

// Load reads and decodes a project configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project config: %w", err)
	}

	c := &Config{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	return c, nil
}

// LoadFromRoot reads the project configuration from the given project root.
// A missing file yields an empty configuration, not an error; every field has
// a usable default.
func LoadFromRoot(root string) (*Config, error) {
	path := filepath.Join(root, ConfigFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{}, nil
	}

	return Load(path)
}

// GetName returns the bundle base name.
func (c *Config) GetName() string {
	if c.Name == "" {
		return DefaultName
	}

	return c.Name
}

// GetVersionCode returns the manifest version code.
func (c *Config) GetVersionCode() int {
	if c.VersionCode == 0 {
		return DefaultVersionCode
	}

	return c.VersionCode
}

// GetVersionName returns the manifest version name.
func (c *Config) GetVersionName() string {
	if c.VersionName == "" {
		return DefaultVersionName
	}

	return c.VersionName
}

// GetMinSDKVersion returns the minimum SDK level for resource linking.
func (c *Config) GetMinSDKVersion() int {
	if c.SDK.MinSDKVersion == 0 {
		return DefaultMinSDKVersion
	}

	return c.SDK.MinSDKVersion
}

// GetTargetSDKVersion returns the target SDK level for resource linking.
func (c *Config) GetTargetSDKVersion() int {
	if c.SDK.TargetSDKVersion == 0 {
		return DefaultTargetSDK
	}

	return c.SDK.TargetSDKVersion
}

// GetSigning returns the signing entry declared for the given profile.
func (c *Config) GetSigning(profile Profile) (Signing, bool) {
	s, ok := c.Signing[profile.Name()]

	return s, ok
}
