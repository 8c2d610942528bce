package gruntz_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/gruntz"
)

func call(tool string, params map[string]interface{}) gruntz.ToolResponse {
	return gruntz.HandleToolCall(gruntz.ToolRequest{Tool: tool, Params: params})
}

func TestTool_Limit(t *testing.T) {
	resp := call("limit", map[string]interface{}{"expr": "sin(x)/x", "var": "x", "point": "0"})
	require.Empty(t, resp.Error)
	assert.Equal(t, "1", resp.String)
	assert.Equal(t, "1", resp.LaTeX)

	resp = call("limit", map[string]interface{}{"expr": "1/x", "var": "x", "point": float64(0), "dir": "-"})
	require.Empty(t, resp.Error)
	assert.Equal(t, "-oo", resp.String)
}

func TestTool_LimitAcceptsJSONExpressions(t *testing.T) {
	expr := map[string]interface{}{
		"type": "pow",
		"base": map[string]interface{}{"type": "sym", "name": "x"},
		"exp":  map[string]interface{}{"type": "num", "value": "-1"},
	}
	resp := call("limit_inf", map[string]interface{}{"expr": expr, "var": "x"})
	require.Empty(t, resp.Error)
	assert.Equal(t, "0", resp.String)
}

func TestTool_LimitErrors(t *testing.T) {
	cases := []map[string]interface{}{
		{"var": "x", "point": "0"},
		{"expr": "x", "point": "0"},
		{"expr": "x", "var": "x"},
		{"expr": "x", "var": 3.0, "point": "0"},
		{"expr": "x", "var": "x", "point": "0", "dir": "sideways"},
		{"expr": "sin(", "var": "x", "point": "0"},
		{"expr": "sin(x)", "var": "x", "point": "oo"},
	}
	for _, p := range cases {
		resp := call("limit", p)
		assert.NotEmpty(t, resp.Error, "%v", p)
		assert.Nil(t, resp.Result)
	}
}

func TestTool_SignAndCompare(t *testing.T) {
	resp := call("sign", map[string]interface{}{"expr": "x - exp(x)", "var": "x"})
	require.Empty(t, resp.Error)
	assert.Equal(t, -1, resp.Result)

	resp = call("compare", map[string]interface{}{"a": "log(x)", "b": "x", "var": "x"})
	require.Empty(t, resp.Error)
	assert.Equal(t, "<", resp.Result)
}

func TestTool_MRVAndLeadTerm(t *testing.T) {
	resp := call("mrv", map[string]interface{}{"expr": "x*exp(-x)", "var": "x"})
	require.Empty(t, resp.Error)
	assert.Equal(t, "{exp(-1*x)}", resp.String)

	resp = call("leadterm", map[string]interface{}{"expr": "x^2*exp(-x)", "var": "x"})
	require.Empty(t, resp.Error)
	assert.Equal(t, "(x^2, 1)", resp.String)
}

func TestTool_Series(t *testing.T) {
	resp := call("series", map[string]interface{}{"expr": "1/(1 - w)", "var": "w"})
	require.Empty(t, resp.Error)
	assert.True(t, strings.HasPrefix(resp.String, "O(w)"), resp.String)
	assert.True(t, strings.HasSuffix(resp.String, "+ 1"), resp.String)
}

func TestTool_SeriesUsesEngineConfig(t *testing.T) {
	var buf bytes.Buffer
	en := gruntz.NewEngine(gruntz.Config{Trace: log.New(&buf, "", 0)})
	resp := en.HandleToolCall(gruntz.ToolRequest{
		Tool:   "series",
		Params: map[string]interface{}{"expr": "atan(1/w)", "var": "w"},
	})
	require.Empty(t, resp.Error)
	assert.Contains(t, resp.String, "pi")
	assert.Contains(t, buf.String(), "sign(")
}

func TestTool_Algebra(t *testing.T) {
	resp := call("simplify", map[string]interface{}{"expr": "x + x + x + 2"})
	require.Empty(t, resp.Error)
	assert.Equal(t, "3*x + 2", resp.String)

	resp = call("expand", map[string]interface{}{"expr": "(x + 1)^2"})
	require.Empty(t, resp.Error)
	assert.Equal(t, "2*x + x^2 + 1", resp.String)

	resp = call("substitute", map[string]interface{}{"expr": "2*x + 3", "var": "x", "value": "5"})
	require.Empty(t, resp.Error)
	assert.Equal(t, "13", resp.String)

	resp = call("free_symbols", map[string]interface{}{"expr": "x*y + z"})
	require.Empty(t, resp.Error)
	assert.Equal(t, []string{"x", "y", "z"}, resp.Result)

	resp = call("to_latex", map[string]interface{}{"expr": "1/2"})
	require.Empty(t, resp.Error)
	assert.Equal(t, `\frac{1}{2}`, resp.LaTeX)

	resp = call("parse", map[string]interface{}{"source": "ln(x)"})
	require.Empty(t, resp.Error)
	assert.Equal(t, "log(x)", resp.String)
}

func TestTool_Unknown(t *testing.T) {
	resp := call("integrate", nil)
	assert.Equal(t, "unknown tool: integrate", resp.Error)
}

func TestTool_Spec(t *testing.T) {
	var spec struct {
		Version string `json:"version"`
		Tools   []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal([]byte(gruntz.MCPToolSpec()), &spec))
	assert.Equal(t, gruntz.ToolAPIVersion, spec.Version)
	names := map[string]bool{}
	for _, tl := range spec.Tools {
		names[tl.Name] = true
	}
	for _, want := range []string{"limit", "limit_inf", "sign", "compare", "mrv", "leadterm", "series", "mcp_spec"} {
		assert.True(t, names[want], "missing tool %s", want)
	}

	resp := call("mcp_spec", nil)
	assert.Equal(t, gruntz.MCPToolSpec(), resp.Result)
}

func TestCheckToolVersion(t *testing.T) {
	assert.NoError(t, gruntz.CheckToolVersion(""))
	assert.NoError(t, gruntz.CheckToolVersion("^1.0"))
	assert.NoError(t, gruntz.CheckToolVersion(">= 1.0, < 2"))

	err := gruntz.CheckToolVersion(">= 2.0")
	require.Error(t, err)
	assert.True(t, errors.Is(err, gruntz.ErrInvalidArgument))

	err = gruntz.CheckToolVersion("not a version")
	require.Error(t, err)
	assert.True(t, errors.Is(err, gruntz.ErrInvalidArgument))
}

func TestHandleBatch_PreservesOrder(t *testing.T) {
	reqs := []gruntz.ToolRequest{
		{Tool: "limit_inf", Params: map[string]interface{}{"expr": "x/exp(x)", "var": "x"}},
		{Tool: "limit_inf", Params: map[string]interface{}{"expr": "sin(x)", "var": "x"}},
		{Tool: "limit", Params: map[string]interface{}{"expr": "sin(x)/x", "var": "x", "point": "0"}},
		{Tool: "simplify", Params: map[string]interface{}{"expr": "x*x"}},
		{Tool: "nope"},
	}
	resps, err := gruntz.HandleBatch(context.Background(), reqs, 2)
	require.NoError(t, err)
	require.Len(t, resps, len(reqs))
	assert.Equal(t, "0", resps[0].String)
	assert.NotEmpty(t, resps[1].Error)
	assert.Equal(t, "1", resps[2].String)
	assert.Equal(t, "x^2", resps[3].String)
	assert.Equal(t, "unknown tool: nope", resps[4].Error)
}

func TestHandleBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := gruntz.HandleBatch(ctx, []gruntz.ToolRequest{{Tool: "mcp_spec"}}, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestHandleBatch_SharedEngine(t *testing.T) {
	en := gruntz.NewEngine(gruntz.Config{MaxCalls: 3})
	resps, err := en.HandleBatch(context.Background(), []gruntz.ToolRequest{
		{Tool: "limit_inf", Params: map[string]interface{}{"expr": "exp(x + exp(-x)) - exp(x)", "var": "x"}},
		{Tool: "simplify", Params: map[string]interface{}{"expr": "x + x"}},
	}, 0)
	require.NoError(t, err)
	assert.Contains(t, resps[0].Error, "budget exceeded")
	assert.Equal(t, "2*x", resps[1].String)
}
