package gruntz

import (
	"errors"
	"fmt"
)

// ============================================================
// Failure taxonomy
// ============================================================

var (
	// ErrUnsupportedConstruct is returned for derivative nodes, functions of
	// several independently varying arguments and expression forms the
	// engine has no rule for.
	ErrUnsupportedConstruct = errors.New("gruntz: unsupported construct")

	// ErrAmbiguousSign is returned when the sign of an expression cannot be
	// decided, typically for oscillating inputs.
	ErrAmbiguousSign = errors.New("gruntz: ambiguous sign")

	// ErrSeriesExhausted is returned when no truncation order produced a
	// nonzero term.
	ErrSeriesExhausted = errors.New("gruntz: series exhausted")

	// ErrInvariant signals an internal consistency failure.
	ErrInvariant = errors.New("gruntz: invariant violated")

	// ErrBudgetExceeded is returned when a computation exceeds the
	// configured recursion depth or call budget.
	ErrBudgetExceeded = errors.New("gruntz: budget exceeded")

	// ErrInvalidArgument is returned for malformed requests such as a
	// limit variable that is not a symbol.
	ErrInvalidArgument = errors.New("gruntz: invalid argument")
)

// Error carries the failing stage and the offending expression.
type Error struct {
	Kind   error
	Op     string
	Expr   Expr
	Detail string
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg += " in " + e.Op
	}
	if e.Expr != nil {
		msg += ": " + e.Expr.String()
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, op string, expr Expr, format string, args ...interface{}) *Error {
	detail := format
	if len(args) > 0 {
		detail = fmt.Sprintf(format, args...)
	}
	return &Error{Kind: kind, Op: op, Expr: expr, Detail: detail}
}

// errPrecision is internal to the series layer: the requested truncation
// order was too low to fix the wanted coefficient. It triggers a retry at a
// higher order and never leaves the package.
var errPrecision = errors.New("gruntz: series precision too low")
