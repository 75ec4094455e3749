// SPDX-License-Identifier: Unlicense OR MIT

package vdso

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code identifies one member of the engine's error taxonomy. Callers compare
// against the exported Err* sentinels with errors.Is rather than switching on
// Code directly, since every returned error is wrapped with call-site
// context and (via github.com/pkg/errors) a stack trace.
type Code int

const (
	CodeVdsoNotFound Code = iota
	CodeMapReadFailure
	CodeMalformedImage
	CodeSymbolMissing
	CodeBudgetTooSmall
	CodeProtectFailed
	CodeAlreadyInstalled
	CodeNotInstalled
	CodeUnsupportedArchitecture
)

func (c Code) String() string {
	switch c {
	case CodeVdsoNotFound:
		return "vdso not found"
	case CodeMapReadFailure:
		return "map read failure"
	case CodeMalformedImage:
		return "malformed image"
	case CodeSymbolMissing:
		return "symbol missing"
	case CodeBudgetTooSmall:
		return "budget too small"
	case CodeProtectFailed:
		return "protect failed"
	case CodeAlreadyInstalled:
		return "already installed"
	case CodeNotInstalled:
		return "not installed"
	case CodeUnsupportedArchitecture:
		return "unsupported architecture"
	default:
		return "unknown"
	}
}

// codeError is the concrete error type behind every Err* sentinel. It only
// ever compares equal to itself through errors.Is on Code, never on message
// text, so wrapping with extra context never breaks caller comparisons.
type codeError struct {
	code Code
}

func (e *codeError) Error() string { return e.code.String() }

// Is makes errors.Is(err, ErrSymbolMissing) work through any number of
// pkg/errors wraps.
func (e *codeError) Is(target error) bool {
	other, ok := target.(*codeError)
	return ok && other.code == e.code
}

// Sentinel errors callers compare against. Compare with errors.Is, never
// with ==, since returned errors are wrapped for context.
var (
	ErrVdsoNotFound            error = &codeError{CodeVdsoNotFound}
	ErrMapReadFailure          error = &codeError{CodeMapReadFailure}
	ErrMalformedImage          error = &codeError{CodeMalformedImage}
	ErrSymbolMissing           error = &codeError{CodeSymbolMissing}
	ErrBudgetTooSmall          error = &codeError{CodeBudgetTooSmall}
	ErrProtectFailed           error = &codeError{CodeProtectFailed}
	ErrAlreadyInstalled        error = &codeError{CodeAlreadyInstalled}
	ErrNotInstalled            error = &codeError{CodeNotInstalled}
	ErrUnsupportedArchitecture error = &codeError{CodeUnsupportedArchitecture}
)

// wrapf attaches call-site context and a stack trace to one of the sentinels
// above without losing errors.Is comparability.
func wrapf(sentinel error, format string, args ...interface{}) error {
	return errors.WithStack(fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), sentinel))
}

// wraperr additionally puts an underlying cause's message (a syscall error,
// a procfs error, an elf parse error) ahead of the sentinel. The cause is
// formatted as text, so only the sentinel is reachable through errors.Is.
func wraperr(sentinel error, cause error, format string, args ...interface{}) error {
	return errors.WithStack(fmt.Errorf("%s: %v: %w", fmt.Sprintf(format, args...), cause, sentinel))
}
