package gruntz

import (
	"fmt"
	"log"
	"strings"
)

// ============================================================
// Engine configuration
// ============================================================

// Representative selects which element of an MRV set the rewriter uses
// as the infinitesimal w. Both choices give the same limits.
type Representative int

const (
	// RepresentativeLast takes the last element after ordering by
	// dependency height.
	RepresentativeLast Representative = iota
	// RepresentativeFirst takes the first element of minimal height.
	RepresentativeFirst
)

func (r Representative) String() string {
	if r == RepresentativeFirst {
		return "first"
	}
	return "last"
}

const (
	DefaultMaxDepth = 400
	DefaultMaxCalls = 20000
)

// Config bounds and instruments a computation.
type Config struct {
	// MaxDepth bounds the nesting of engine calls.
	MaxDepth int
	// MaxCalls bounds the total number of engine calls.
	MaxCalls int
	// Trace, when set, receives one line per engine call result.
	Trace *log.Logger
	// Representative picks the rewrite representative.
	Representative Representative
}

func DefaultConfig() Config {
	return Config{MaxDepth: DefaultMaxDepth, MaxCalls: DefaultMaxCalls}
}

// Engine evaluates limits under a fixed Config. It holds no mutable state
// and may be shared between goroutines.
type Engine struct{ cfg Config }

// NewEngine returns an engine; zero budget fields take their defaults.
func NewEngine(cfg Config) *Engine {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.MaxCalls <= 0 {
		cfg.MaxCalls = DefaultMaxCalls
	}
	return &Engine{cfg: cfg}
}

func (en *Engine) Config() Config { return en.cfg }

var defaultEngine = NewEngine(DefaultConfig())

// ============================================================
// limiter - state of one top-level computation
// ============================================================

type limiter struct {
	cfg    Config
	depth  int
	calls  int
	nextID int
	memo   *memo
}

func (en *Engine) newLimiter() *limiter {
	return &limiter{cfg: en.cfg, memo: newMemo()}
}

// fresh returns a new positive placeholder symbol. Names start with an
// underscore so they cannot clash with parsed input.
func (l *limiter) fresh(prefix string) *Sym {
	l.nextID++
	return PosSym(fmt.Sprintf("_%s%d", prefix, l.nextID))
}

// enter accounts for one engine call. Callers defer leave even when enter
// fails.
func (l *limiter) enter(op string, e Expr) error {
	l.depth++
	l.calls++
	if l.depth > l.cfg.MaxDepth {
		return newError(ErrBudgetExceeded, op, e, "depth %d exceeds %d", l.depth, l.cfg.MaxDepth)
	}
	if l.calls > l.cfg.MaxCalls {
		return newError(ErrBudgetExceeded, op, e, "call %d exceeds %d", l.calls, l.cfg.MaxCalls)
	}
	return nil
}

func (l *limiter) leave() { l.depth-- }

func (l *limiter) tracef(format string, args ...interface{}) {
	if l.cfg.Trace == nil {
		return
	}
	indent := strings.Repeat("  ", l.depth-1)
	l.cfg.Trace.Printf(indent+format, args...)
}

// prepare puts e in tractable form and makes sure the variable is
// positive. It returns the new expression, the variable to use and a
// function restoring the caller's variable in results.
func (l *limiter) prepare(e Expr, x *Sym) (Expr, *Sym, func(Expr) Expr) {
	e = rewriteTractable(e.Simplify())
	if x.positive {
		return e, x, func(r Expr) Expr { return r }
	}
	p := l.fresh("p")
	return Sub(e, x.name, p), p, func(r Expr) Expr { return Sub(r, p.name, x) }
}
