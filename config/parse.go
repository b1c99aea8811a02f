// Package config loads the YAML configuration of gnosql.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/validator.v2"
	"gopkg.in/yaml.v2"
)

// ErrNoFiles is returned by [Parse] when no file is given.
var ErrNoFiles = errors.New("no files to load")

// ValidationError is returned when a configuration fails validation.
type ValidationError struct {
	errorMap validator.ErrorMap
}

// ErrForField returns the validation error for the given field.
func (e ValidationError) ErrForField(name string) error {
	return e.errorMap[name]
}

// Error implements [error].
func (e ValidationError) Error() string {
	var w bytes.Buffer
	fmt.Fprintf(&w, "validation failed")
	for f, err := range e.errorMap {
		fmt.Fprintf(&w, "   %s: %v\n", f, err)
	}
	return w.String()
}

type validatable interface {
	Validate() error
}

// Parse loads files in order, merging each one over the previous, and
// validates the result. Values implementing Validate() error are checked
// after the struct tags.
func Parse(cfg any, files ...string) error {
	if len(files) == 0 {
		return ErrNoFiles
	}
	for _, name := range files {
		data, err := os.ReadFile(name)
		if err != nil {
			return errors.Wrapf(err, "read %s", name)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return errors.Wrapf(err, "parse %s", name)
		}
	}
	if err := validate(cfg); err != nil {
		return err
	}
	if v, ok := cfg.(validatable); ok {
		return v.Validate()
	}
	return nil
}

func validate(cfg any) error {
	err := validator.Validate(cfg)
	if err == nil {
		return nil
	}
	if m, ok := err.(validator.ErrorMap); ok {
		return ValidationError{errorMap: m}
	}
	return errors.Wrap(err, "validate")
}
