package gruntz

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	semver "github.com/Masterminds/semver/v3"
	"golang.org/x/sync/errgroup"
)

// ============================================================
// MCP Tool Interface
// ============================================================

// ToolAPIVersion is the version of the tool schema served by MCPToolSpec.
const ToolAPIVersion = "1.1.0"

type ToolRequest struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

type ToolResponse struct {
	Result interface{} `json:"result,omitempty"`
	LaTeX  string      `json:"latex,omitempty"`
	String string      `json:"string,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// CheckToolVersion reports whether ToolAPIVersion satisfies a semver
// constraint such as "^1.0" or ">= 1.1, < 2". An empty constraint always
// passes.
func CheckToolVersion(constraint string) error {
	if strings.TrimSpace(constraint) == "" {
		return nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("%w: version constraint: %v", ErrInvalidArgument, err)
	}
	v := semver.MustParse(ToolAPIVersion)
	if ok, errs := c.Validate(v); !ok {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return fmt.Errorf("%w: tool API %s: %s", ErrInvalidArgument, ToolAPIVersion, strings.Join(msgs, "; "))
	}
	return nil
}

func HandleToolCall(req ToolRequest) ToolResponse { return defaultEngine.HandleToolCall(req) }

// HandleBatch evaluates independent requests on the default engine.
func HandleBatch(ctx context.Context, reqs []ToolRequest, limit int) ([]ToolResponse, error) {
	return defaultEngine.HandleBatch(ctx, reqs, limit)
}

// HandleBatch evaluates reqs concurrently, at most limit at a time, and
// returns the responses in request order. Tool failures are reported in
// the individual responses; the error is only set when ctx ends first.
func (en *Engine) HandleBatch(ctx context.Context, reqs []ToolRequest, limit int) ([]ToolResponse, error) {
	out := make([]ToolResponse, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = en.HandleToolCall(req)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// HandleToolCall dispatches one tool request. Expression parameters may be
// JSON expression objects or infix strings.
func (en *Engine) HandleToolCall(req ToolRequest) ToolResponse {
	getExpr := func(key string) (Expr, error) {
		v, ok := req.Params[key]
		if !ok {
			return nil, fmt.Errorf("missing param: %s", key)
		}
		switch val := v.(type) {
		case map[string]interface{}:
			return FromJSON(val)
		case string:
			return Parse(val)
		case float64:
			return NFloat(val), nil
		}
		return nil, fmt.Errorf("invalid type for param %s", key)
	}
	getString := func(key string) (string, error) {
		v, ok := req.Params[key]
		if !ok {
			return "", fmt.Errorf("missing param: %s", key)
		}
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("param %s must be a string", key)
		}
		return s, nil
	}
	getOptString := func(key string) (string, error) {
		if _, ok := req.Params[key]; !ok {
			return "", nil
		}
		return getString(key)
	}
	getSym := func(key string) (*Sym, error) {
		name, err := getString(key)
		if err != nil {
			return nil, err
		}
		if name == "" {
			return nil, fmt.Errorf("param %s must be a non-empty string", key)
		}
		return S(name), nil
	}
	respond := func(e Expr) ToolResponse {
		return ToolResponse{Result: e.toJSON(), LaTeX: LaTeX(e), String: String(e)}
	}
	fail := func(err error) ToolResponse { return ToolResponse{Error: err.Error()} }

	switch req.Tool {
	case "limit":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		x, err := getSym("var")
		if err != nil {
			return fail(err)
		}
		pt, err := getExpr("point")
		if err != nil {
			return fail(err)
		}
		ds, err := getOptString("dir")
		if err != nil {
			return fail(err)
		}
		dir, err := ParseDirection(ds)
		if err != nil {
			return fail(err)
		}
		v, err := en.Gruntz(e, x, pt, dir)
		if err != nil {
			return fail(err)
		}
		return respond(v)

	case "limit_inf":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		x, err := getSym("var")
		if err != nil {
			return fail(err)
		}
		v, err := en.LimitInf(e, x)
		if err != nil {
			return fail(err)
		}
		return respond(v)

	case "sign":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		x, err := getSym("var")
		if err != nil {
			return fail(err)
		}
		s, err := en.Sign(e, x)
		if err != nil {
			return fail(err)
		}
		return ToolResponse{Result: s, String: fmt.Sprintf("%d", s)}

	case "compare":
		a, err := getExpr("a")
		if err != nil {
			return fail(err)
		}
		b, err := getExpr("b")
		if err != nil {
			return fail(err)
		}
		x, err := getSym("var")
		if err != nil {
			return fail(err)
		}
		c, err := en.Compare(a, b, x)
		if err != nil {
			return fail(err)
		}
		return ToolResponse{Result: c.String(), String: a.String() + " " + c.String() + " " + b.String()}

	case "mrv":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		x, err := getSym("var")
		if err != nil {
			return fail(err)
		}
		r, err := en.MRV(e, x)
		if err != nil {
			return fail(err)
		}
		set := make([]interface{}, len(r.Set))
		strs := make([]string, len(r.Set))
		for i, m := range r.Set {
			set[i] = m.toJSON()
			strs[i] = m.String()
		}
		return ToolResponse{
			Result: map[string]interface{}{"set": set},
			String: "{" + strings.Join(strs, ", ") + "}",
		}

	case "leadterm":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		x, err := getSym("var")
		if err != nil {
			return fail(err)
		}
		c0, e0, err := en.LeadTerm(e, x)
		if err != nil {
			return fail(err)
		}
		return ToolResponse{
			Result: map[string]interface{}{"coeff": c0.toJSON(), "exp": e0.String()},
			String: "(" + c0.String() + ", " + e0.String() + ")",
		}

	case "series":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		x, err := getSym("var")
		if err != nil {
			return fail(err)
		}
		s, err := en.CalculateSeries(e, x, LogOf(x))
		if err != nil {
			return fail(err)
		}
		return respond(rewriteIntractable(s.Expr(x)))

	case "simplify":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		return respond(Simplify(e))

	case "expand":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		return respond(Expand(e))

	case "substitute":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		v, err := getString("var")
		if err != nil {
			return fail(err)
		}
		val, err := getExpr("value")
		if err != nil {
			return fail(err)
		}
		return respond(Sub(e, v, val))

	case "to_latex":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		return ToolResponse{Result: LaTeX(e), LaTeX: LaTeX(e), String: String(e)}

	case "free_symbols":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		names := SortedSymbols(e)
		return ToolResponse{Result: names, String: strings.Join(names, ", ")}

	case "parse":
		src, err := getString("source")
		if err != nil {
			return fail(err)
		}
		e, err := Parse(src)
		if err != nil {
			return fail(err)
		}
		return respond(e)

	case "mcp_spec":
		return ToolResponse{Result: MCPToolSpec(), String: "MCP tool specification"}
	}

	return ToolResponse{Error: fmt.Sprintf("unknown tool: %s", req.Tool)}
}

// ============================================================
// MCP spec
// ============================================================

func MCPToolSpec() string {
	exprProps := map[string]string{"expr": "object|string", "var": "string"}
	tools := []map[string]interface{}{
		ts("limit", "lim_{var->point} expr by the Gruntz algorithm. Optional dir: \"+\" or \"-\"", []string{"expr", "var", "point"},
			map[string]string{"expr": "object|string", "var": "string", "point": "object|string", "dir": "string"}),
		ts("limit_inf", "lim_{var->oo} expr", []string{"expr", "var"}, exprProps),
		ts("sign", "Eventual sign of expr as var->oo (-1, 0 or 1)", []string{"expr", "var"}, exprProps),
		ts("compare", "Compare growth rates of a and b as var->oo (<, = or >)", []string{"a", "b", "var"},
			map[string]string{"a": "object|string", "b": "object|string", "var": "string"}),
		ts("mrv", "Most rapidly varying subexpressions of expr as var->oo", []string{"expr", "var"}, exprProps),
		ts("leadterm", "Leading coefficient and exponent of expr as var->oo", []string{"expr", "var"}, exprProps),
		ts("series", "Truncated series of expr in the infinitesimal var", []string{"expr", "var"}, exprProps),
		ts("simplify", "Simplify a symbolic expression", []string{"expr"}, map[string]string{"expr": "object|string"}),
		ts("expand", "Algebraically expand expression", []string{"expr"}, map[string]string{"expr": "object|string"}),
		ts("substitute", "Substitute var with value", []string{"expr", "var", "value"},
			map[string]string{"expr": "object|string", "var": "string", "value": "object|string"}),
		ts("to_latex", "Convert to LaTeX", []string{"expr"}, map[string]string{"expr": "object|string"}),
		ts("free_symbols", "Return free symbol names", []string{"expr"}, map[string]string{"expr": "object|string"}),
		ts("parse", "Parse an infix expression into its JSON form", []string{"source"}, map[string]string{"source": "string"}),
		ts("mcp_spec", "Return this tool schema", []string{}, map[string]string{}),
	}
	spec := map[string]interface{}{"version": ToolAPIVersion, "tools": tools}
	b, _ := json.MarshalIndent(spec, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := map[string]interface{}{}
	for k, typ := range props {
		if strings.Contains(typ, "|") {
			properties[k] = map[string]interface{}{"type": strings.Split(typ, "|")}
			continue
		}
		properties[k] = map[string]interface{}{"type": typ}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
