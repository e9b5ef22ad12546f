// Package config loads the formflow command configuration from TOML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/goliatone/go-formflow/pkg/definition"
)

// Config is the on-disk command configuration. Values set here override
// the submit and verification blocks of a definition.
type Config struct {
	LogLevel     string       `toml:"log_level"`
	BaseURL      string       `toml:"base_url"`
	Timeout      Duration     `toml:"timeout"`
	Submit       Submit       `toml:"submit"`
	Verification Verification `toml:"verification"`
}

type Submit struct {
	Endpoint        string         `toml:"endpoint"`
	Method          string         `toml:"method"`
	ExtraStaticData map[string]any `toml:"extra_static_data"`
}

type Verification struct {
	Endpoint       string   `toml:"endpoint"`
	ResendEndpoint string   `toml:"resend_endpoint"`
	Countdown      Duration `toml:"countdown"`
}

// Duration decodes TOML strings such as "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

const defaultTimeout = 30 * time.Second

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LogLevel: "warn",
		Timeout:  Duration{defaultTimeout},
	}
}

// Load reads path over the defaults. A missing file is not an error when
// optional is set.
func Load(path string, optional bool) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return Config{}, fmt.Errorf("config: unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	if cfg.Timeout.Duration <= 0 {
		cfg.Timeout.Duration = defaultTimeout
	}
	return cfg, nil
}

// Apply overrides def's submit and verification settings with the non-empty
// values of c.
func (c Config) Apply(def *definition.Definition) {
	if def == nil {
		return
	}
	if c.Submit.Endpoint != "" {
		def.Submit.Endpoint = c.Submit.Endpoint
	}
	if c.Submit.Method != "" {
		def.Submit.Method = strings.ToUpper(c.Submit.Method)
	}
	if len(c.Submit.ExtraStaticData) > 0 {
		merged := make(map[string]any, len(def.Submit.ExtraStaticData)+len(c.Submit.ExtraStaticData))
		for k, v := range def.Submit.ExtraStaticData {
			merged[k] = v
		}
		for k, v := range c.Submit.ExtraStaticData {
			merged[k] = v
		}
		def.Submit.ExtraStaticData = merged
	}
	if c.Verification.Endpoint != "" {
		def.Verification.Endpoint = c.Verification.Endpoint
	}
	if c.Verification.ResendEndpoint != "" {
		def.Verification.ResendEndpoint = c.Verification.ResendEndpoint
	}
	if c.Verification.Countdown.Duration > 0 {
		def.Verification.Countdown = c.Verification.Countdown.Duration
	}
}
