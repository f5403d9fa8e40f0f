// Package config loads dsgen.yaml, the configuration of batch generation.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/broady/dsgen/javascript"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "dsgen.yaml"

// Config is the content of a configuration file.
type Config struct {
	// Out is the directory generated modules are written to.
	Out string `yaml:"out" validate:"required"`

	// Inputs are the service directories to generate.
	Inputs []string `yaml:"inputs" validate:"omitempty,dive,required"`

	Concurrency int `yaml:"concurrency" validate:"gte=1,lte=64"`

	// Overwrite replaces existing modules (default: true).
	Overwrite *bool `yaml:"overwrite"`

	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// Header replaces the comment lines at the top of generated modules.
	Header []string `yaml:"header"`

	ModuleStyle string `yaml:"module_style" validate:"oneof=commonjs esm"`
	IndentStyle string `yaml:"indent_style" validate:"oneof=space tab"`
	IndentSize  int    `yaml:"indent_size" validate:"gte=1,lte=8"`
	LineEnding  string `yaml:"line_ending" validate:"oneof=lf crlf"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{Out: "."}
	setDefaults(cfg)
	return cfg
}

// Load reads, defaults and validates the file at path. Environment
// variables in the file are expanded. Relative paths in Out and Inputs are
// resolved against the directory of the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	cfg.Out = resolve(base, cfg.Out)
	for i, in := range cfg.Inputs {
		cfg.Inputs[i] = resolve(base, in)
	}
	return cfg, nil
}

// Parse decodes, defaults and validates configuration data.
func Parse(data []byte) (*Config, error) {
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	setDefaults(&cfg)

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", describe(err))
	}
	return &cfg, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func setDefaults(cfg *Config) {
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 1
	}
	if cfg.Overwrite == nil {
		overwrite := true
		cfg.Overwrite = &overwrite
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	def := javascript.DefaultConfig()
	if cfg.ModuleStyle == "" {
		cfg.ModuleStyle = def.ModuleStyle
	}
	if cfg.IndentStyle == "" {
		cfg.IndentStyle = def.IndentStyle
	}
	if cfg.IndentSize == 0 {
		cfg.IndentSize = def.IndentSize
	}
	if cfg.LineEnding == "" {
		cfg.LineEnding = def.LineEnding
	}
}

// Renderer returns the renderer configuration.
func (c *Config) Renderer() javascript.Config {
	r := javascript.DefaultConfig()
	r.ModuleStyle = c.ModuleStyle
	r.IndentStyle = c.IndentStyle
	r.IndentSize = c.IndentSize
	r.LineEnding = c.LineEnding
	return r
}

// ShouldOverwrite reports whether existing modules are replaced.
func (c *Config) ShouldOverwrite() bool {
	return c.Overwrite == nil || *c.Overwrite
}

// Level returns the slog level named by LogLevel.
func (c *Config) Level() slog.Level {
	return ParseLevel(c.LogLevel)
}

// ParseLevel maps debug, info, warn and error to slog levels. Anything
// else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// describe turns validator errors into one message per field.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	errs := make([]error, len(verrs))
	for i, fe := range verrs {
		switch fe.Tag() {
		case "required":
			errs[i] = fmt.Errorf("%s is required", fe.Field())
		case "oneof":
			errs[i] = fmt.Errorf("%s must be one of [%s], got %v", fe.Field(), fe.Param(), fe.Value())
		case "gte", "lte":
			errs[i] = fmt.Errorf("%s must be between the allowed bounds (%s %s), got %v", fe.Field(), fe.Tag(), fe.Param(), fe.Value())
		default:
			errs[i] = fmt.Errorf("%s failed %s validation", fe.Field(), fe.Tag())
		}
	}
	return errors.Join(errs...)
}
