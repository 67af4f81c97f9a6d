// Package config loads connection targets and logger settings from YAML.
//
// A file looks like:
//
//	log:
//	  level: debug
//	  format: console
//	targets:
//	  orders:
//	    engine: postgres
//	    host: ${PGHOST}
//	    database: orders
//	    user: inspector
//	    password: ${PGPASSWORD}
//	    query_timeout: 30s
//
// ${VAR} references are expanded from the environment before parsing.
// Engine aliases are accepted and normalised to their canonical tag.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/koustreak/dbinspect/internal/database"
	"github.com/koustreak/dbinspect/internal/errs"
	"github.com/koustreak/dbinspect/internal/logger"
	"go.yaml.in/yaml/v3"
)

// File is the parsed configuration.
type File struct {
	Log     *logger.Config             `yaml:"log"`
	Targets map[string]database.Config `yaml:"targets" validate:"required,min=1"`
}

var validate = validator.New()

// Load reads and parses the file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "read config file", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, errs.Annotate(errs.ErrKindInvalidInput, path, err)
	}
	return f, nil
}

// Parse decodes a YAML document. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	expanded := os.ExpandEnv(string(data))

	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "parse config", err)
	}

	if err := validate.Struct(&f); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid config", err)
	}
	if f.Log != nil {
		if err := validate.Var(f.Log.Level, "omitempty,oneof=debug info warn error fatal"); err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid log level", err)
		}
		if err := validate.Var(f.Log.Format, "omitempty,oneof=json console"); err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid log format", err)
		}
	}

	for name, t := range f.Targets {
		e, err := database.ParseEngine(string(t.Engine))
		if err != nil {
			return nil, errs.Annotate(errs.ErrKindInvalidInput, fmt.Sprintf("target %q", name), err)
		}
		t.Engine = e
		if err := t.Validate(); err != nil {
			return nil, errs.Annotate(errs.ErrKindInvalidInput, fmt.Sprintf("target %q", name), err)
		}
		f.Targets[name] = t
	}
	return &f, nil
}

// Names returns the target names, sorted.
func (f *File) Names() []string {
	return slices.Sorted(maps.Keys(f.Targets))
}

// Target returns a copy of the named target.
func (f *File) Target(name string) (*database.Config, error) {
	t, ok := f.Targets[name]
	if !ok {
		return nil, errs.New(errs.ErrKindNotFound, fmt.Sprintf("no target named %q", name))
	}
	t.Options = maps.Clone(t.Options)
	return &t, nil
}

// Logger builds the logger described by the log section, falling back to
// the defaults when the section is absent.
func (f *File) Logger() *logger.Logger {
	if f.Log == nil {
		return logger.New(nil)
	}
	cfg := *f.Log
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	return logger.New(&cfg)
}
