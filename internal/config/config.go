// Package config loads sdkgen settings from YAML, a .env file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/skdltmxn/sdkgen/graph"
	"github.com/skdltmxn/sdkgen/memory"
)

// DefaultFileName is the config file looked up when none is given.
const DefaultFileName = "sdkgen.yaml"

// Environment variables that override the file.
const (
	EnvPid     = "SDKGEN_PID"
	EnvObjects = "SDKGEN_OBJECTS"
	EnvNames   = "SDKGEN_NAMES"
	EnvOutput  = "SDKGEN_OUTPUT"
)

// ErrInvalidConfig is returned when config validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all sdkgen configuration
type Config struct {
	Target  TargetConfig  `yaml:"target"`
	Layout  graph.Layout  `yaml:"layout"`
	Names   NamesConfig   `yaml:"names"`
	Output  OutputConfig  `yaml:"output"`
	Cache   CacheConfig   `yaml:"cache"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// TargetConfig selects the memory source and the root tables
type TargetConfig struct {
	Pid      int      `yaml:"pid" validate:"gte=0"`
	Images   []string `yaml:"images"` // "path@0xbase"
	Objects  Hex      `yaml:"objects"`
	Names    Hex      `yaml:"names"`
	MaxChain int      `yaml:"max_chain" validate:"gte=0"`
}

// NamesConfig controls type name disambiguation
type NamesConfig struct {
	Denylist         []string `yaml:"denylist"`
	AutoDisambiguate bool     `yaml:"auto_disambiguate"`
}

// OutputConfig controls the generated file
type OutputConfig struct {
	Path         string `yaml:"path"`
	Preamble     string `yaml:"preamble"`
	SkipPreamble bool   `yaml:"skip_preamble"`
}

// CacheConfig sizes the page and name caches
type CacheConfig struct {
	Pages int `yaml:"pages" validate:"gte=0"`
	Names int `yaml:"names" validate:"gte=0"`
}

// LogConfig controls logging
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=auto text json"`
}

// MetricsConfig controls the metrics textfile
type MetricsConfig struct {
	Path string `yaml:"path"`
}

// Hex is an address or offset written as "0x..." or as a plain integer.
type Hex uint64

// ParseHex parses s with its base prefix, defaulting to decimal.
func ParseHex(s string) (Hex, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return Hex(v), nil
}

// Addr returns h as a foreign address.
func (h Hex) Addr() memory.Addr {
	return memory.Addr(h)
}

func (h Hex) String() string {
	return fmt.Sprintf("%#x", uint64(h))
}

// UnmarshalYAML accepts both integer and string scalars.
func (h *Hex) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: address must be a scalar", value.Line)
	}
	v, err := ParseHex(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*h = v
	return nil
}

// MarshalYAML writes h in hex.
func (h Hex) MarshalYAML() (any, error) {
	return h.String(), nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Target: TargetConfig{
			MaxChain: graph.DefaultMaxChain,
		},
		Layout: graph.DefaultLayout(),
		Names: NamesConfig{
			Denylist: append([]string(nil), graph.DefaultDenylist...),
		},
		Cache: CacheConfig{
			Pages: memory.DefaultPageCache,
			Names: graph.DefaultNameCache,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load reads a .env file from the working directory if present, then the
// config at path, then applies environment overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := LoadFromPath(path)
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath reads config from a specific path.
// Fields missing from the file keep their defaults. A missing file yields
// the defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg from SDKGEN_* variables.
func ApplyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv(EnvPid); ok && v != "" {
		pid, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvPid, err)
		}
		cfg.Target.Pid = pid
	}
	for _, env := range []struct {
		name string
		dst  *Hex
	}{
		{EnvObjects, &cfg.Target.Objects},
		{EnvNames, &cfg.Target.Names},
	} {
		v, ok := os.LookupEnv(env.name)
		if !ok || v == "" {
			continue
		}
		h, err := ParseHex(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, env.name, err)
		}
		*env.dst = h
	}
	if v, ok := os.LookupEnv(EnvOutput); ok && v != "" {
		cfg.Output.Path = v
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that config values are valid.
// Returns an error if validation fails.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("%w: %s fails %q, got %v",
				ErrInvalidConfig, f.Namespace(), f.Tag(), f.Value())
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Layout.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if cfg.Target.Pid != 0 && len(cfg.Target.Images) > 0 {
		return fmt.Errorf("%w: target pid and images are mutually exclusive", ErrInvalidConfig)
	}
	for _, spec := range cfg.Target.Images {
		if _, _, err := memory.ParseRegionSpec(spec); err != nil {
			return fmt.Errorf("%w: image %q: %v", ErrInvalidConfig, spec, err)
		}
	}
	return nil
}
