package pipeline

import (
	"errors"
	"fmt"
)

var (
	ErrUsage      = errors.New("usage error")
	ErrInput      = errors.New("input error")
	ErrEvaluation = errors.New("evaluation error")
	ErrIO         = errors.New("io error")
)

// RunError wraps a pipeline failure with the kind of failure it is.
type RunError struct {
	Kind error
	Msg  string
	Err  error
}

func (e *RunError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *RunError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func usagef(format string, args ...any) error {
	return &RunError{Kind: ErrUsage, Msg: fmt.Sprintf(format, args...)}
}

func inputError(err error, format string, args ...any) error {
	return &RunError{Kind: ErrInput, Msg: fmt.Sprintf(format, args...), Err: err}
}

func evaluationError(err error, format string, args ...any) error {
	return &RunError{Kind: ErrEvaluation, Msg: fmt.Sprintf(format, args...), Err: err}
}

func ioError(err error, format string, args ...any) error {
	return &RunError{Kind: ErrIO, Msg: fmt.Sprintf(format, args...), Err: err}
}

// outcome classifies err for run metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUsage):
		return "usage"
	case errors.Is(err, ErrInput):
		return "input"
	case errors.Is(err, ErrEvaluation):
		return "evaluation"
	case errors.Is(err, ErrIO):
		return "io"
	}
	return "unknown"
}
