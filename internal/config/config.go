// Package config loads labledger configuration from YAML or CUE files and
// validates it against an embedded CUE schema.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Config is the decoded configuration.
type Config struct {
	Store  StoreConfig  `json:"store"`
	Notify NotifyConfig `json:"notify"`
	Ledger LedgerConfig `json:"ledger"`
	Log    LogConfig    `json:"log"`
}

// StoreConfig selects and addresses the record store.
type StoreConfig struct {
	Driver    string `json:"driver"`
	Path      string `json:"path"`
	RedisAddr string `json:"redis_addr"`
	Namespace string `json:"namespace"`
}

// NotifyConfig selects notice sinks. Both may be on.
type NotifyConfig struct {
	Redis bool `json:"redis"`
	Log   bool `json:"log"`
}

// LedgerConfig tunes transition handling.
type LedgerConfig struct {
	RequireTester bool `json:"require_tester"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Error is a configuration load or validation failure.
type Error struct {
	Source  string // file path, or "" for defaults and overrides
	Message string
}

func (e *Error) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("config %s: %s", e.Source, e.Message)
	}
	return "config: " + e.Message
}

// Default returns the schema defaults.
func Default() Config {
	cfg, err := decode(cuecontext.New(), nil, "")
	if err != nil {
		// The embedded schema is fixed at build time.
		panic(err)
	}
	return cfg
}

// Load reads path and returns the validated configuration.
// An empty path returns Default(). Files ending in .yaml or .yml are
// decoded as YAML; .cue files are compiled as CUE.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &Error{Source: path, Message: err.Error()}
	}

	ctx := cuecontext.New()
	var val cue.Value
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, &Error{Source: path, Message: fmt.Sprintf("parse yaml: %v", err)}
		}
		if raw == nil {
			raw = map[string]any{}
		}
		val = ctx.Encode(raw)
	case ".cue":
		val = ctx.CompileBytes(data, cue.Filename(path))
	default:
		return Config{}, &Error{Source: path, Message: fmt.Sprintf("unsupported file type %q", filepath.Ext(path))}
	}
	if err := val.Err(); err != nil {
		return Config{}, &Error{Source: path, Message: describe(err)}
	}

	return decode(ctx, &val, path)
}

// Validate checks c against the schema. Use after applying overrides.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	val := ctx.Encode(c)
	if err := val.Err(); err != nil {
		return &Error{Message: describe(err)}
	}
	_, err := decode(ctx, &val, "")
	return err
}

// SlogLevel maps Log.Level to a slog level.
func (c Config) SlogLevel() slog.Level {
	switch c.Log.Level {
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

// decode unifies val (nil for none) with #Config and decodes the result.
func decode(ctx *cue.Context, val *cue.Value, source string) (Config, error) {
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, &Error{Source: "schema.cue", Message: describe(err)}
	}
	unified := schema.LookupPath(cue.ParsePath("#Config"))
	if val != nil {
		unified = unified.Unify(*val)
	}

	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Config{}, &Error{Source: source, Message: describe(err)}
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return Config{}, &Error{Source: source, Message: describe(err)}
	}
	return cfg, nil
}

// describe flattens a CUE error list into one line per problem.
func describe(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) <= 1 {
		return err.Error()
	}
	msg := errs[0].Error()
	for _, e := range errs[1:] {
		msg += "; " + e.Error()
	}
	return msg
}
