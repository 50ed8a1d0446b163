// Package errs defines the closed set of error kinds brd commands can fail
// with, each carrying a stable short code and a process exit code for
// scripting.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a command failure.
type Kind int

const (
	Other Kind = iota
	Usage
	NotGitRepo
	ControlRootInvalid
	IssueNotFound
	AmbiguousID
	ClaimConflict
	InvalidGraph
	ParseError
	IOError
	LockBusy
)

// Error is the single error type commands return to the CLI layer.
// Payload fields are populated per-kind: Candidates for AmbiguousID,
// CyclePath for InvalidGraph, File for ParseError.
type Error struct {
	Kind       Kind
	Message    string
	Candidates []string
	CyclePath  []string
	File       string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch e.Kind {
	case AmbiguousID:
		return fmt.Sprintf("%s: %s", msg, strings.Join(e.Candidates, ", "))
	case InvalidGraph:
		if len(e.CyclePath) > 0 {
			return fmt.Sprintf("%s: %s", msg, strings.Join(e.CyclePath, " -> "))
		}
	case ParseError:
		if e.File != "" {
			return fmt.Sprintf("%s: %s", e.File, msg)
		}
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Code returns the stable short string for scripting.
func (e *Error) Code() string {
	switch e.Kind {
	case Usage:
		return "usage"
	case NotGitRepo:
		return "not-git-repo"
	case ControlRootInvalid:
		return "control-root-invalid"
	case IssueNotFound:
		return "issue-not-found"
	case AmbiguousID:
		return "ambiguous-id"
	case ClaimConflict:
		return "claim-conflict"
	case InvalidGraph:
		return "invalid-graph"
	case ParseError:
		return "parse-error"
	case IOError:
		return "io-error"
	case LockBusy:
		return "lock-busy"
	default:
		return "other"
	}
}

// ExitCode returns the process exit code for the kind.
func (e *Error) ExitCode() int {
	switch e.Kind {
	case Usage:
		return 2
	case NotGitRepo:
		return 10
	case ControlRootInvalid:
		return 11
	case IssueNotFound:
		return 12
	case AmbiguousID:
		return 13
	case ClaimConflict:
		return 14
	case InvalidGraph:
		return 15
	case ParseError:
		return 16
	default:
		return 1
	}
}

// New builds an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying error.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// IO wraps a filesystem failure.
func IO(err error, format string, args ...any) *Error {
	return Wrap(IOError, err, format, args...)
}

// NotFound reports an ID that resolved to nothing.
func NotFound(input string) *Error {
	return New(IssueNotFound, "no issue matches %q", input)
}

// Ambiguous reports an ID that resolved to several issues.
func Ambiguous(input string, candidates []string) *Error {
	return &Error{
		Kind:       AmbiguousID,
		Message:    fmt.Sprintf("%q is ambiguous", input),
		Candidates: candidates,
	}
}

// Cycle reports a dependency edge that would close the given path.
func Cycle(path []string) *Error {
	return &Error{
		Kind:      InvalidGraph,
		Message:   "dependency would create a cycle",
		CyclePath: path,
	}
}

// Parse reports a YAML or TOML failure in a named file.
func Parse(file string, err error) *Error {
	return &Error{Kind: ParseError, Message: err.Error(), File: file, Err: err}
}

// From coerces any error to *Error, mapping unknown errors to Other.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: Other, Message: err.Error(), Err: err}
}
