package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goliatone/go-choices/internal/layering"
	"github.com/goliatone/go-choices/pkg/consistency"
	"github.com/goliatone/go-choices/pkg/dropdown"
	"gopkg.in/yaml.v3"
)

// Config is the file configuration of the choices services.
type Config struct {
	DataDir       string                     `yaml:"data_dir" validate:"required"`
	Cache         CacheConfig                `yaml:"cache"`
	MinQuality    string                     `yaml:"min_quality" validate:"oneof=excellent good fair poor"`
	Evaluator     string                     `yaml:"evaluator" validate:"oneof=expr cel js"`
	Activity      ActivityConfig             `yaml:"activity"`
	Log           LogConfig                  `yaml:"log"`
	Watch         WatchConfig                `yaml:"watch"`
	Consistency   ConsistencyConfig          `yaml:"consistency"`
	Relationships []consistency.Relationship `yaml:"relationships" validate:"dive"`
	Dropdowns     []dropdown.Config          `yaml:"dropdowns" validate:"dive"`
}

type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl" validate:"gte=0"`
	MaxEntries int           `yaml:"max_entries" validate:"gte=0"`
}

// ActivityConfig controls forwarding of bus events to external hooks.
type ActivityConfig struct {
	Enabled bool   `yaml:"enabled"`
	Channel string `yaml:"channel"`
}

type LogConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce" validate:"gte=0"`
}

type ConsistencyConfig struct {
	// Orphans enables orphan detection in generated reports.
	Orphans      bool          `yaml:"orphans"`
	PollInterval time.Duration `yaml:"poll_interval" validate:"gte=0"`
}

// Defaults returns the configuration used for every key a file leaves unset.
func Defaults() Config {
	return Config{
		DataDir:    "data",
		Cache:      CacheConfig{TTL: 5 * time.Minute, MaxEntries: 256},
		MinQuality: "fair",
		Evaluator:  "expr",
		Activity:   ActivityConfig{Channel: "choices"},
		Log:        LogConfig{Level: "info"},
		Watch:      WatchConfig{Debounce: 200 * time.Millisecond},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	seen := map[string]struct{}{}
	for _, d := range c.Dropdowns {
		if _, dup := seen[d.ID]; dup {
			return fmt.Errorf("config: dropdown %q declared twice", d.ID)
		}
		seen[d.ID] = struct{}{}
	}
	return nil
}

// Parse decodes YAML from r, merges it over Defaults and validates the
// result. Unknown keys are rejected.
func Parse(r io.Reader) (Config, error) {
	payload, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("config: read: %w", err)
	}
	var file Config
	if len(bytes.TrimSpace(payload)) > 0 {
		decoder := yaml.NewDecoder(bytes.NewReader(payload))
		decoder.KnownFields(true)
		if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("config: decode: %w", err)
		}
	}
	cfg := layering.Merge(file, Defaults())
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads the configuration file at path. An empty path yields the
// defaults. A relative data_dir is resolved against the file's directory.
func Load(path string) (Config, error) {
	if path == "" {
		cfg := Defaults()
		return cfg, cfg.Validate()
	}
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return Config{}, err
	}
	if !filepath.IsAbs(cfg.DataDir) {
		cfg.DataDir = filepath.Join(filepath.Dir(path), cfg.DataDir)
	}
	return cfg, nil
}
