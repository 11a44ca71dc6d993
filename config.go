package glthread

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// EnvVar is the environment variable read by ConfigFromEnv.
// "false" or "0" disables offloading, "true" or "1" enables it and
// "sync" enables it in synchronous mode.
const EnvVar = "GLTHREAD"

// ErrInvalidConfig is returned when a Config fails validation.
var ErrInvalidConfig = errors.New("glthread: invalid config")

// Config is the file form of the engine options.
//
// Example config.toml:
//
//	enabled = true
//	batches = 8
//	batch_size = 8192
//	pin_interval = 128
type Config struct {
	Enabled     bool   `toml:"enabled"`
	Batches     int    `toml:"batches"`
	BatchSize   int    `toml:"batch_size"`
	PinInterval int    `toml:"pin_interval"`
	Synchronous bool   `toml:"synchronous"`
	TracePath   string `toml:"trace_path,omitempty"`
}

// DefaultConfig returns the configuration matching the engine defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:     true,
		Batches:     DefaultBatchCount,
		BatchSize:   DefaultBatchSize,
		PinInterval: DefaultPinInterval,
	}
}

// LoadConfig reads a TOML config file. Keys missing from the file keep
// their default values; unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("glthread: read config %s: %w", path, err)
	}
	if err := checkUndecoded(md); err != nil {
		return Config{}, fmt.Errorf("glthread: read config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// ParseConfig is LoadConfig for config text held in memory.
func ParseConfig(data string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("glthread: parse config: %w", err)
	}
	if err := checkUndecoded(md); err != nil {
		return Config{}, fmt.Errorf("glthread: parse config: %w", err)
	}
	return cfg, cfg.Validate()
}

func checkUndecoded(md toml.MetaData) error {
	keys := md.Undecoded()
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	return fmt.Errorf("%w: unknown keys %s", ErrInvalidConfig, strings.Join(names, ", "))
}

// WriteConfig encodes cfg as TOML.
func WriteConfig(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// Validate reports whether the configuration can build an engine.
func (c Config) Validate() error {
	if c.Batches < MinBatchCount {
		return fmt.Errorf("%w: batches = %d, want at least %d", ErrInvalidConfig, c.Batches, MinBatchCount)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch_size = %d", ErrInvalidConfig, c.BatchSize)
	}
	if c.PinInterval < 0 {
		return fmt.Errorf("%w: pin_interval = %d", ErrInvalidConfig, c.PinInterval)
	}
	return nil
}

// Options converts the configuration to engine options. TracePath is not
// included: the caller owns the trace file and passes WithTracer itself.
func (c Config) Options() []Option {
	return []Option{
		WithBatchCount(c.Batches),
		WithBatchSize(c.BatchSize),
		WithPinInterval(c.PinInterval),
		WithSynchronous(c.Synchronous),
	}
}

// ConfigFromEnv applies the GLTHREAD environment variable to base.
// Unrecognized values leave base unchanged.
func ConfigFromEnv(base Config) Config {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvVar))) {
	case "false", "0", "off":
		base.Enabled = false
	case "true", "1", "on":
		base.Enabled = true
	case "sync":
		base.Enabled = true
		base.Synchronous = true
	}
	return base
}
