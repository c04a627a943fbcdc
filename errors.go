package main

import "fmt"

// ConfigError reports an invalid or inconsistent job configuration. It is
// always raised before any database or file I/O happens.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// SourceDataError reports source data that cannot satisfy a job: a required
// CSV column or CDF variable is missing, or a filename does not match the
// configured pattern. It aborts the affected file only.
type SourceDataError struct {
	Msg string
}

func (e *SourceDataError) Error() string { return e.Msg }

func sourceDataErrorf(format string, args ...any) *SourceDataError {
	return &SourceDataError{Msg: fmt.Sprintf(format, args...)}
}

// BackendError wraps a database driver failure with the operation that
// triggered it. The driver error stays reachable through errors.As/Is.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *BackendError) Unwrap() error { return e.Err }

func backendErrf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &BackendError{Op: fmt.Sprintf(format, args...), Err: err}
}

// FileConflictError reports an extraction output collision: the target file
// already exists and append was not requested, or the append target's header
// does not match the data being written.
type FileConflictError struct {
	Path string
	Msg  string
}

func (e *FileConflictError) Error() string { return e.Msg }
