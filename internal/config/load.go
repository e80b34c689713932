package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownField is returned when a config file names an option that does not exist.
var ErrUnknownField = errors.New("unknown config field")

// Load reads a YAML config file on top of Default(). An empty path returns the defaults.
func Load(path string) (App, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := Decode(bytes.NewReader(data), &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode merges YAML from r into cfg. Keys missing from the document keep
// the values already in cfg; keys cfg does not declare are rejected.
func Decode(r io.Reader, cfg *App) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg.Validate()
		}
		if strings.Contains(err.Error(), "not found in type") {
			return fmt.Errorf("%w: %v", ErrUnknownField, err)
		}
		return err
	}
	return cfg.Validate()
}

// Write stores cfg as YAML.
func Write(cfg App, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
