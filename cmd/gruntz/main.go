// cmd/gruntz/main.go - command line front end for the limit engine.
//
// Usage:
//
//	gruntz [-dir +|-] [-trace] EXPR VAR POINT
//	gruntz -file problems.json [-watch] [-jobs 4]
//
// A problems file holds a JSON array of objects with the fields expr, var,
// point and optionally dir. With -watch the file is evaluated again each
// time it is written.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/njchilds90/gruntz"
)

type problem struct {
	Expr  string `json:"expr"`
	Var   string `json:"var"`
	Point string `json:"point"`
	Dir   string `json:"dir,omitempty"`
}

type options struct {
	dir      string
	file     string
	watch    bool
	jobs     int
	trace    bool
	maxDepth int
	maxCalls int
	asJSON   bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("gruntz", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var o options
	fs.StringVar(&o.dir, "dir", "+", "Side of a finite limit point: + or -")
	fs.StringVar(&o.file, "file", "", "JSON file of limit problems")
	fs.BoolVar(&o.watch, "watch", false, "Re-evaluate -file whenever it changes")
	fs.IntVar(&o.jobs, "jobs", 4, "Problems evaluated concurrently with -file")
	fs.BoolVar(&o.trace, "trace", false, "Log every engine step to stderr")
	fs.IntVar(&o.maxDepth, "max-depth", gruntz.DefaultMaxDepth, "Maximum engine recursion depth")
	fs.IntVar(&o.maxCalls, "max-calls", gruntz.DefaultMaxCalls, "Maximum engine calls per limit")
	fs.BoolVar(&o.asJSON, "json", false, "Print results as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg := gruntz.Config{MaxDepth: o.maxDepth, MaxCalls: o.maxCalls}
	if o.trace {
		cfg.Trace = log.New(stderr, "", 0)
	}
	en := gruntz.NewEngine(cfg)
	logger := log.New(stderr, "gruntz: ", 0)

	if o.file != "" {
		if fs.NArg() != 0 {
			logger.Print("-file takes no positional arguments")
			return 2
		}
		if o.watch {
			if err := watchFile(ctx, en, o, stdout, logger); err != nil {
				logger.Print(err)
				return 1
			}
			return 0
		}
		if err := evalFile(ctx, en, o, stdout); err != nil {
			logger.Print(err)
			return 1
		}
		return 0
	}

	if fs.NArg() != 3 {
		fs.Usage()
		return 2
	}
	p := problem{Expr: fs.Arg(0), Var: fs.Arg(1), Point: fs.Arg(2), Dir: o.dir}
	resp := en.HandleToolCall(p.request())
	if err := printResults(stdout, o.asJSON, []problem{p}, []gruntz.ToolResponse{resp}); err != nil {
		logger.Print(err)
		return 1
	}
	if resp.Error != "" {
		return 1
	}
	return 0
}

func (p problem) request() gruntz.ToolRequest {
	params := map[string]interface{}{"expr": p.Expr, "var": p.Var, "point": p.Point}
	if p.Dir != "" {
		params["dir"] = p.Dir
	}
	return gruntz.ToolRequest{Tool: "limit", Params: params}
}

func loadProblems(path string) ([]problem, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ps []problem
	if err := json.Unmarshal(b, &ps); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for i, p := range ps {
		if p.Expr == "" || p.Var == "" || p.Point == "" {
			return nil, fmt.Errorf("%s: problem %d: expr, var and point are required", path, i)
		}
	}
	return ps, nil
}

func evalFile(ctx context.Context, en *gruntz.Engine, o options, out io.Writer) error {
	ps, err := loadProblems(o.file)
	if err != nil {
		return err
	}
	reqs := make([]gruntz.ToolRequest, len(ps))
	for i, p := range ps {
		reqs[i] = p.request()
	}
	resps, err := en.HandleBatch(ctx, reqs, o.jobs)
	if err != nil {
		return err
	}
	return printResults(out, o.asJSON, ps, resps)
}

// watchFile evaluates o.file once and again after every write until ctx
// ends. The parent directory is watched so that editors replacing the file
// are still seen.
func watchFile(ctx context.Context, en *gruntz.Engine, o options, out io.Writer, logger *log.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	target, err := filepath.Abs(o.file)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(target)); err != nil {
		return err
	}
	if err := evalFile(ctx, en, o, out); err != nil {
		logger.Print(err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logger.Printf("%s changed", o.file)
			if err := evalFile(ctx, en, o, out); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				logger.Print(err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Printf("watch: %v", err)
		}
	}
}

type result struct {
	Expr  string      `json:"expr"`
	Var   string      `json:"var"`
	Point string      `json:"point"`
	Dir   string      `json:"dir,omitempty"`
	Value string      `json:"value,omitempty"`
	Tree  interface{} `json:"tree,omitempty"`
	Error string      `json:"error,omitempty"`
}

func printResults(out io.Writer, asJSON bool, ps []problem, resps []gruntz.ToolResponse) error {
	if asJSON {
		rs := make([]result, len(ps))
		for i, p := range ps {
			rs[i] = result{Expr: p.Expr, Var: p.Var, Point: p.Point, Dir: p.Dir,
				Value: resps[i].String, Tree: resps[i].Result, Error: resps[i].Error}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rs)
	}
	for i, p := range ps {
		dir := p.Dir
		if dir == "" {
			dir = "+"
		}
		head := fmt.Sprintf("limit(%s, %s -> %s%s)", p.Expr, p.Var, p.Point, dir)
		if resps[i].Error != "" {
			if _, err := fmt.Fprintf(out, "%s: error: %s\n", head, resps[i].Error); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(out, "%s = %s\n", head, resps[i].String); err != nil {
			return err
		}
	}
	return nil
}
