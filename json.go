package gruntz

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// ============================================================
// JSON Serialization
// ============================================================

func ToJSON(e Expr) (string, error) {
	b, err := json.Marshal(e.toJSON())
	return string(b), err
}

// ToJSONMap returns the wire object of e.
func ToJSONMap(e Expr) map[string]interface{} { return e.toJSON() }

// FromJSON decodes a wire object. Decoded expressions are simplified.
func FromJSON(data map[string]interface{}) (Expr, error) {
	if data == nil {
		return nil, fmt.Errorf("expression must be an object")
	}
	typAny, ok := data["type"]
	if !ok {
		return nil, fmt.Errorf("missing 'type' field")
	}
	typ, ok := typAny.(string)
	if !ok || typ == "" {
		return nil, fmt.Errorf("field 'type' must be a non-empty string")
	}

	subObj := func(field string) (map[string]interface{}, error) {
		v, ok := data[field]
		if !ok {
			return nil, fmt.Errorf("%s: missing %q", typ, field)
		}
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: %q must be an object", typ, field)
		}
		return m, nil
	}

	subExprs := func(field string) ([]Expr, error) {
		v, ok := data[field]
		if !ok {
			return nil, fmt.Errorf("%s: missing %q", typ, field)
		}
		raw, ok := v.([]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: %q must be an array", typ, field)
		}
		out := make([]Expr, len(raw))
		for i, it := range raw {
			m, ok := it.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("%s: %q[%d] must be an object", typ, field, i)
			}
			e, err := FromJSON(m)
			if err != nil {
				return nil, fmt.Errorf("%s: %s[%d]: %w", typ, field, i, err)
			}
			out[i] = e
		}
		return out, nil
	}

	subString := func(field string) (string, error) {
		v, ok := data[field]
		if !ok {
			return "", fmt.Errorf("%s: missing %q", typ, field)
		}
		s, ok := v.(string)
		if !ok || s == "" {
			return "", fmt.Errorf("%s: %q must be a non-empty string", typ, field)
		}
		return s, nil
	}

	// subRat accepts a JSON number or a rational string such as "3/2".
	subRat := func(field string) (*Num, error) {
		v, ok := data[field]
		if !ok {
			return nil, fmt.Errorf("%s: missing %q", typ, field)
		}
		switch t := v.(type) {
		case float64:
			return NFloat(t), nil
		case string:
			r := new(big.Rat)
			if _, ok := r.SetString(t); !ok {
				return nil, fmt.Errorf("%s: invalid %s value: %s", typ, field, t)
			}
			return &Num{val: r}, nil
		}
		return nil, fmt.Errorf("%s: %q must be a number or string", typ, field)
	}

	switch typ {
	case "num":
		return subRat("value")

	case "sym":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		if pos, _ := data["positive"].(bool); pos {
			return PosSym(name), nil
		}
		return S(name), nil

	case "const":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		switch name {
		case "E", "e":
			return E, nil
		case "pi":
			return Pi, nil
		case "I":
			return I, nil
		}
		return nil, fmt.Errorf("const: unknown constant %q", name)

	case "inf":
		s, err := subRat("sign")
		if err != nil {
			return nil, err
		}
		if s.IsNegative() {
			return NegOo, nil
		}
		return Oo, nil

	case "add":
		terms, err := subExprs("terms")
		if err != nil {
			return nil, err
		}
		return AddOf(terms...), nil

	case "mul":
		factors, err := subExprs("factors")
		if err != nil {
			return nil, err
		}
		return MulOf(factors...), nil

	case "pow":
		baseM, err := subObj("base")
		if err != nil {
			return nil, err
		}
		expM, err := subObj("exp")
		if err != nil {
			return nil, err
		}
		base, err := FromJSON(baseM)
		if err != nil {
			return nil, fmt.Errorf("pow: base: %w", err)
		}
		exp, err := FromJSON(expM)
		if err != nil {
			return nil, fmt.Errorf("pow: exp: %w", err)
		}
		return PowOf(base, exp), nil

	case "func":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		if _, ok := data["args"]; ok {
			args, err := subExprs("args")
			if err != nil {
				return nil, err
			}
			return FuncOf(canonicalFuncName(name), args...), nil
		}
		argM, err := subObj("arg")
		if err != nil {
			return nil, err
		}
		arg, err := FromJSON(argM)
		if err != nil {
			return nil, fmt.Errorf("func: arg: %w", err)
		}
		if name == "sqrt" {
			return SqrtOf(arg), nil
		}
		return FuncOf(canonicalFuncName(name), arg), nil

	case "bigo":
		v, err := subString("var")
		if err != nil {
			return nil, err
		}
		if _, ok := data["order"].(map[string]interface{}); ok {
			om, err := subObj("order")
			if err != nil {
				return nil, err
			}
			order, err := FromJSON(om)
			if err != nil {
				return nil, err
			}
			return OTermOf(v, order), nil
		}
		order, err := subRat("order")
		if err != nil {
			return nil, err
		}
		return OTermRat(v, order), nil

	case "derivative":
		exprM, err := subObj("expr")
		if err != nil {
			return nil, err
		}
		inner, err := FromJSON(exprM)
		if err != nil {
			return nil, fmt.Errorf("derivative: expr: %w", err)
		}
		v, err := subString("var")
		if err != nil {
			return nil, err
		}
		return DerivativeOf(inner, v), nil
	}
	return nil, fmt.Errorf("unknown expression type: %s", typ)
}

// canonicalFuncName maps accepted aliases to the names used internally.
func canonicalFuncName(name string) string {
	switch name {
	case "ln":
		return "log"
	case "arctan":
		return "atan"
	case "arcsin":
		return "asin"
	}
	return name
}
