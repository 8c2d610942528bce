package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_SingleProblem(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{"sin(x)/x", "x", "0"}, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	assert.Equal(t, "limit(sin(x)/x, x -> 0+) = 1\n", out.String())
}

func TestRun_LeftSide(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{"-dir", "-", "1/x", "x", "0"}, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	assert.Equal(t, "limit(1/x, x -> 0-) = -oo\n", out.String())
}

func TestRun_Failure(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{"sin(x)", "x", "oo"}, &out, &errOut)
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "error:")
}

func TestRun_Usage(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Equal(t, 2, run(context.Background(), []string{"x"}, &out, &errOut))
	assert.Equal(t, 2, run(context.Background(), []string{"-bogus"}, &out, &errOut))
}

func TestRun_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "problems.json")
	ps := []problem{
		{Expr: "(1 + 1/x)^x", Var: "x", Point: "oo"},
		{Expr: "1/x", Var: "x", Point: "0", Dir: "-"},
	}
	b, err := json.Marshal(ps)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o644))

	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{"-json", "-file", path}, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())

	var rs []result
	require.NoError(t, json.Unmarshal(out.Bytes(), &rs))
	require.Len(t, rs, 2)
	assert.Equal(t, "E", rs[0].Value)
	assert.Equal(t, "-oo", rs[1].Value)
}

func TestLoadProblems_Validation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"expr": "x"}]`), 0o644))
	_, err := loadProblems(path)
	assert.Error(t, err)

	_, err = loadProblems(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
