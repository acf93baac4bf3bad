package hello

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// LoadConfig reads a TOML file on top of DefaultConfig. Keys missing from
// the file keep their defaults; unknown keys are an error.
//
//	title = "hello triangle"
//	width = 800
//	height = 600
//	debug_layer = true
//	clear_color = "#003366"
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if err := DecodeConfig(data, &cfg); err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// DecodeConfig decodes TOML data into cfg, keeping fields the data omits.
func DecodeConfig(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return err
	}
	return cfg.Validate()
}

// EncodeConfig renders cfg as TOML.
func EncodeConfig(cfg Config) ([]byte, error) {
	return toml.Marshal(cfg)
}
