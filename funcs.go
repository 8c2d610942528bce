package gruntz

import (
	"math"
	"strings"
)

// ============================================================
// Func - named function applications
// ============================================================

// Func applies a named function to its arguments. The elementary functions
// take one argument; unknown names are kept as opaque applications so that
// the limit engine can refuse them explicitly.
type Func struct {
	name string
	args []Expr
}

func funcOf(name string, args ...Expr) *Func { return &Func{name: name, args: args} }

// FuncOf builds a simplified application of any named function.
func FuncOf(name string, args ...Expr) Expr { return funcOf(name, args...).Simplify() }

func ExpOf(arg Expr) Expr  { return funcOf("exp", arg).Simplify() }
func LogOf(arg Expr) Expr  { return funcOf("log", arg).Simplify() }
func SinOf(arg Expr) Expr  { return funcOf("sin", arg).Simplify() }
func CosOf(arg Expr) Expr  { return funcOf("cos", arg).Simplify() }
func TanOf(arg Expr) Expr  { return funcOf("tan", arg).Simplify() }
func AtanOf(arg Expr) Expr { return funcOf("atan", arg).Simplify() }
func AsinOf(arg Expr) Expr { return funcOf("asin", arg).Simplify() }
func SinhOf(arg Expr) Expr { return funcOf("sinh", arg).Simplify() }
func CoshOf(arg Expr) Expr { return funcOf("cosh", arg).Simplify() }
func TanhOf(arg Expr) Expr { return funcOf("tanh", arg).Simplify() }
func AbsOf(arg Expr) Expr  { return funcOf("abs", arg).Simplify() }

var (
	oddFuncs  = map[string]bool{"sin": true, "tan": true, "atan": true, "asin": true, "sinh": true, "tanh": true}
	evenFuncs = map[string]bool{"cos": true, "cosh": true}
)

func (f *Func) Simplify() Expr {
	args := make([]Expr, len(f.args))
	for i, a := range f.args {
		args[i] = a.Simplify()
	}
	if len(args) != 1 {
		return &Func{name: f.name, args: args}
	}
	arg := args[0]

	if oddFuncs[f.name] || evenFuncs[f.name] {
		if isNumEqual(arg, 0) {
			if evenFuncs[f.name] {
				return N(1)
			}
			return N(0)
		}
		if c, _ := splitCoeff(arg); c.IsNegative() {
			pos := funcOf(f.name, MulOf(N(-1), arg)).Simplify()
			if evenFuncs[f.name] {
				return pos
			}
			return MulOf(N(-1), pos)
		}
	}

	switch f.name {
	case "exp":
		if isNumEqual(arg, 0) {
			return N(1)
		}
		if inner, ok := arg.(*Func); ok && inner.name == "log" {
			return inner.args[0]
		}
		if c, rest := splitCoeff(arg); !c.IsOne() {
			if inner, ok := rest.(*Func); ok && inner.name == "log" {
				return PowOf(inner.args[0], c)
			}
		}
	case "log":
		if isNumEqual(arg, 1) {
			return N(0)
		}
		if c, ok := arg.(*Const); ok && c.name == "E" {
			return N(1)
		}
		if inner, ok := arg.(*Func); ok && inner.name == "exp" {
			return inner.args[0]
		}
	case "abs":
		if n, ok := arg.(*Num); ok {
			if n.IsNegative() {
				return numNeg(n)
			}
			return n
		}
		if s, ok := KnownSign(arg); ok {
			if s >= 0 {
				return arg
			}
			return MulOf(N(-1), arg)
		}
		if c, rest := splitCoeff(arg); c.IsNegative() {
			return MulOf(numNeg(c), AbsOf(rest))
		}
	}
	return &Func{name: f.name, args: args}
}

func isNumEqual(e Expr, v int64) bool {
	n, ok := e.(*Num)
	return ok && n.val.IsInt() && n.val.Num().IsInt64() && n.val.Num().Int64() == v
}

func (f *Func) String() string {
	parts := make([]string, len(f.args))
	for i, a := range f.args {
		parts[i] = a.String()
	}
	return f.name + "(" + strings.Join(parts, ", ") + ")"
}

func (f *Func) LaTeX() string {
	parts := make([]string, len(f.args))
	for i, a := range f.args {
		parts[i] = a.LaTeX()
	}
	inner := strings.Join(parts, ", ")
	switch f.name {
	case "sin", "cos", "tan", "exp", "log", "sinh", "cosh", "tanh":
		return "\\" + f.name + "\\left(" + inner + "\\right)"
	case "asin":
		return "\\arcsin\\left(" + inner + "\\right)"
	case "atan":
		return "\\arctan\\left(" + inner + "\\right)"
	case "abs":
		return "\\left|" + inner + "\\right|"
	}
	return "\\operatorname{" + f.name + "}\\left(" + inner + "\\right)"
}

func (f *Func) Sub(varName string, value Expr) Expr {
	args := make([]Expr, len(f.args))
	for i, a := range f.args {
		args[i] = a.Sub(varName, value)
	}
	return funcOf(f.name, args...).Simplify()
}

// Eval approximates the application in float64. It is used for reporting
// only and never feeds back into simplification.
func (f *Func) Eval() (*Num, bool) {
	vals := make([]float64, len(f.args))
	for i, a := range f.args {
		n, ok := a.Eval()
		if !ok {
			return nil, false
		}
		vals[i] = n.Float64()
	}
	var r float64
	switch {
	case len(vals) == 1:
		v := vals[0]
		switch f.name {
		case "sin":
			r = math.Sin(v)
		case "cos":
			r = math.Cos(v)
		case "tan":
			r = math.Tan(v)
		case "exp":
			r = math.Exp(v)
		case "log":
			r = math.Log(v)
		case "abs":
			r = math.Abs(v)
		case "asin":
			r = math.Asin(v)
		case "atan":
			r = math.Atan(v)
		case "sinh":
			r = math.Sinh(v)
		case "cosh":
			r = math.Cosh(v)
		case "tanh":
			r = math.Tanh(v)
		default:
			return nil, false
		}
	case len(vals) == 2 && f.name == "besselj" && vals[0] == math.Trunc(vals[0]):
		r = math.Jn(int(vals[0]), vals[1])
	default:
		return nil, false
	}
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return nil, false
	}
	return NFloat(r), true
}

func (f *Func) Equal(other Expr) bool {
	o, ok := other.(*Func)
	if !ok || f.name != o.name || len(f.args) != len(o.args) {
		return false
	}
	for i := range f.args {
		if !f.args[i].Equal(o.args[i]) {
			return false
		}
	}
	return true
}

func (f *Func) exprType() string { return "func" }
func (f *Func) toJSON() map[string]interface{} {
	if len(f.args) == 1 {
		return map[string]interface{}{"type": "func", "name": f.name, "arg": f.args[0].toJSON()}
	}
	as := make([]map[string]interface{}, len(f.args))
	for i, a := range f.args {
		as[i] = a.toJSON()
	}
	return map[string]interface{}{"type": "func", "name": f.name, "args": as}
}

func (f *Func) FuncName() string { return f.name }
func (f *Func) Args() []Expr     { return append([]Expr(nil), f.args...) }

// Arg returns the single argument of a unary application.
func (f *Func) Arg() Expr {
	if len(f.args) == 0 {
		return nil
	}
	return f.args[0]
}
