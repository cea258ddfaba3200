// Package config loads the defaults of the ruwuma command from a YAML file.
//
// Every setting can also be given on the command line; flags win over the
// file. A missing file is not an error when no path was given explicitly.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tirr-c/ruwuma"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "RUWUMA_CONFIG"

// Config holds the command defaults.
type Config struct {
	// Homeserver is the base URL requests are built against,
	// e.g. "https://matrix.example.org".
	Homeserver string `yaml:"homeserver"`

	// AccessToken is sent to endpoints that require or accept one.
	AccessToken string `yaml:"access_token"`

	// Versions are the supported protocol versions, as advertised by the
	// versions endpoint ("v1.1", "r0.6.1").
	Versions []string `yaml:"versions"`

	// AllowUnstable lets unstable paths be chosen when no stable one fits.
	AllowUnstable bool `yaml:"allow_unstable"`

	// Timeout bounds each HTTP request. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the configuration used without a file.
func Default() *Config {
	return &Config{
		Homeserver: "http://localhost:8008",
		Versions:   []string{"v1.1"},
		Timeout:    30 * time.Second,
	}
}

// Load reads the file named by RUWUMA_CONFIG, or returns the defaults when
// it is unset.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads path over the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs []error
	if c.Homeserver != "" {
		u, err := url.Parse(c.Homeserver)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("homeserver: %w", err))
		case u.Scheme != "http" && u.Scheme != "https":
			errs = append(errs, fmt.Errorf("homeserver: %q must be an http or https URL", c.Homeserver))
		}
	}
	if _, err := c.Supported(); err != nil {
		errs = append(errs, fmt.Errorf("versions: %w", err))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout: must not be negative, got %s", c.Timeout))
	}
	return errors.Join(errs...)
}

// Supported converts Versions and AllowUnstable.
func (c *Config) Supported() (ruwuma.SupportedVersions, error) {
	return ruwuma.ParseSupportedVersions(c.Versions, c.AllowUnstable)
}

// Credential returns the access token holder for AccessToken.
func (c *Config) Credential() ruwuma.Credential {
	if c.AccessToken == "" {
		return ruwuma.NoAccessToken
	}
	return ruwuma.SendIfRequired(c.AccessToken)
}
