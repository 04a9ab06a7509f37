// Package toml loads siteqa configuration files with go-toml.
package toml

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/fwojciec/siteqa"
	"github.com/pelletier/go-toml/v2"
)

// LoadConfig reads the TOML file at path over siteqa.DefaultConfig and
// validates the result. An empty path returns the defaults. Unknown keys
// are rejected so typos do not silently fall back to defaults.
func LoadConfig(path string) (*siteqa.Config, error) {
	if path == "" {
		cfg := siteqa.DefaultConfig()
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, siteqa.Errorf(siteqa.ECONFIG, "config file %s not found", path)
	} else if err != nil {
		return nil, siteqa.Errorf(siteqa.ECONFIG, "read config file %s: %v", path, err)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, siteqa.Errorf(siteqa.ECONFIG, "%s: %s", path, siteqa.ErrorMessage(err))
	}
	return cfg, nil
}

// ParseConfig decodes TOML data over siteqa.DefaultConfig and validates
// the result.
func ParseConfig(data []byte) (*siteqa.Config, error) {
	cfg := siteqa.DefaultConfig()

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, siteqa.Errorf(siteqa.ECONFIG, "%s", describeError(err))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// describeError renders go-toml errors with their position.
func describeError(err error) string {
	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		row, col := derr.Position()
		return fmt.Sprintf("%s (line %d, column %d)", derr.Error(), row, col)
	}
	var serr *toml.StrictMissingError
	if errors.As(err, &serr) {
		return "unknown configuration keys:\n" + serr.String()
	}
	var app *siteqa.Error
	if errors.As(err, &app) {
		return app.Message
	}
	return err.Error()
}
