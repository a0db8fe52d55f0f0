// Package application wires assembled reactor programs to the
// scheduler: it loads and validates runtime configuration and runs the
// scheduler together with any physical-action producers.
package application

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-reactor/internal/runtime"
)

// RuntimeConfig is the operator-facing configuration of a reactor run.
// It deliberately mirrors the scheduler options plus the observability
// switches, so a deployment can be tuned without recompiling the
// program.
type RuntimeConfig struct {
	// TimeoutMillis bounds the logical duration of the run in
	// milliseconds, measured from the initial tag. Zero disables the
	// bound.
	TimeoutMillis int `yaml:"timeout_ms" validate:"min=0,max=86400000"`

	// KeepAlive keeps the scheduler waiting for asynchronous events
	// when the queue is empty instead of exiting.
	KeepAlive bool `yaml:"keep_alive"`

	// IdleTimeoutMillis is how long an empty scheduler blocks on the
	// event channel before re-evaluating the keep-alive policy.
	// Zero selects the built-in default.
	IdleTimeoutMillis int `yaml:"idle_timeout_ms" validate:"min=0,max=60000"`

	// EventBuffer is the capacity of the asynchronous event channel.
	// Zero selects the built-in default.
	EventBuffer int `yaml:"event_buffer" validate:"min=0,max=65536"`

	// LogLevel selects the logrus level for scheduler logging.
	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=trace debug info warn error"`

	// Metrics enables the Prometheus execution observer.
	Metrics bool `yaml:"metrics"`

	// Tracing enables the OpenTelemetry execution observer.
	Tracing bool `yaml:"tracing"`

	// GraphDumpDir, when set, receives DOT dumps of the data-flow and
	// trigger graphs after assembly.
	GraphDumpDir string `yaml:"graph_dump_dir"`
}

// DefaultRuntimeConfig returns the configuration used when no file is
// supplied: no timeout, no keep-alive, observability off.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{LogLevel: "info"}
}

// Timeout returns the configured logical timeout as a duration.
func (c RuntimeConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMillis) * time.Millisecond
}

// SchedulerOptions converts the configuration into scheduler options.
// Clock, logger, and observers are filled in by the runner.
func (c RuntimeConfig) SchedulerOptions() runtime.Options {
	return runtime.Options{
		Timeout:     c.Timeout(),
		KeepAlive:   c.KeepAlive,
		IdleTimeout: time.Duration(c.IdleTimeoutMillis) * time.Millisecond,
		EventBuffer: c.EventBuffer,
	}
}

// ParseRuntimeConfig decodes and validates a YAML configuration
// document. Unknown fields are rejected so that typos surface as
// errors rather than silently selecting defaults.
func ParseRuntimeConfig(data []byte) (RuntimeConfig, error) {
	cfg := DefaultRuntimeConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parsing runtime config: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return cfg, fmt.Errorf("invalid runtime config: %w", err)
	}
	return cfg, nil
}

// LoadRuntimeConfig reads and parses a YAML configuration file.
func LoadRuntimeConfig(path string) (RuntimeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultRuntimeConfig(), fmt.Errorf("reading runtime config: %w", err)
	}
	return ParseRuntimeConfig(data)
}

// validate is the shared validator instance. Struct validation is
// read-only and the instance caches struct metadata, so sharing it is
// both safe and faster.
var validate = validator.New(validator.WithRequiredStructEnabled())
