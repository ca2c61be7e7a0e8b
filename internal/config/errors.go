package config

import "fmt"

// ModelConfigError reports a structural or semantic problem with
// model_config.json: a missing file, invalid JSON, missing required keys,
// an unknown provider reference, or a provider record that fails its
// type-specific validation. Loader-level APIs surface every failure as this
// one type so callers only need to handle a single error kind.
type ModelConfigError struct {
	Message string
	Err     error
}

func (e *ModelConfigError) Error() string {
	return e.Message
}

func (e *ModelConfigError) Unwrap() error {
	return e.Err
}

func configErrorf(format string, args ...any) *ModelConfigError {
	return &ModelConfigError{Message: fmt.Sprintf(format, args...)}
}

func wrapConfigError(err error, format string, args ...any) *ModelConfigError {
	return &ModelConfigError{Message: fmt.Sprintf(format, args...), Err: err}
}

// InterpolationError is returned by the interpolation primitive when a
// placeholder references an environment variable that is unset and carries
// no default. The loader wraps it into ModelConfigError before it reaches
// callers.
type InterpolationError struct {
	Variable string
}

func (e *InterpolationError) Error() string {
	return fmt.Sprintf("environment variable %s not found and no default provided", e.Variable)
}
