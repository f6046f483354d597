package protector

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the file form of the runtime options.
//
//	allow_natives_syntax: true
//	trace_protector_invalidation: true
//	trace_filter: "^(Array|String)"
type Config struct {
	AllowNativesSyntax         bool   `yaml:"allow_natives_syntax"`
	TraceProtectorInvalidation bool   `yaml:"trace_protector_invalidation"`
	TraceFilter                string `yaml:"trace_filter,omitempty"`
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes a YAML config. Unknown keys are rejected.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if _, err := CompileTraceFilter(cfg.TraceFilter); err != nil {
		return nil, fmt.Errorf("trace_filter: %w", err)
	}
	return cfg, nil
}

// Options converts the config to runtime options.
func (c *Config) Options() ([]Option, error) {
	opts := []Option{WithAllowNativesSyntax(c.AllowNativesSyntax)}
	if c.TraceProtectorInvalidation {
		filter, err := CompileTraceFilter(c.TraceFilter)
		if err != nil {
			return nil, fmt.Errorf("trace_filter: %w", err)
		}
		opts = append(opts, WithTraceInvalidation(filter))
	}
	return opts, nil
}
