// cmd/mcp-server/main.go exposes the gruntz limit tools over HTTP for
// agent frameworks.
//
// Usage:
//
//	go run ./cmd/mcp-server -port 8080 [-max-calls 20000] [-batch-limit 4]
//
// Tool call endpoint:  POST /tool
// Batch endpoint:      POST /batch
// Schema endpoint:     GET  /schema
// Health endpoint:     GET  /health
//
// Clients may send an X-Tool-Version header holding a semver constraint
// (for example "^1.0"); requests whose constraint the server does not
// satisfy are rejected with 409.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"github.com/njchilds90/gruntz"
)

const (
	maxBodyBytes  = 1 << 20 // 1 MiB
	maxBatchItems = 64
)

type server struct {
	engine     *gruntz.Engine
	batchLimit int
}

func main() {
	port := flag.Int("port", 8080, "Port to listen on")
	maxDepth := flag.Int("max-depth", gruntz.DefaultMaxDepth, "Maximum engine recursion depth per request")
	maxCalls := flag.Int("max-calls", gruntz.DefaultMaxCalls, "Maximum engine calls per request")
	batchLimit := flag.Int("batch-limit", 4, "Concurrent requests evaluated per batch")
	trace := flag.Bool("trace", false, "Log every engine step")
	flag.Parse()

	cfg := gruntz.Config{MaxDepth: *maxDepth, MaxCalls: *maxCalls}
	if *trace {
		cfg.Trace = log.New(os.Stderr, "trace: ", 0)
	}
	s := &server{engine: gruntz.NewEngine(cfg), batchLimit: *batchLimit}

	mux := http.NewServeMux()
	mux.HandleFunc("/tool", s.recovering("/tool", s.handleTool))
	mux.HandleFunc("/batch", s.recovering("/batch", s.handleBatch))
	mux.HandleFunc("/schema", s.handleSchema)

	// GET /health - liveness check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "ok",
			"version": gruntz.ToolAPIVersion,
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("gruntz MCP server %s listening on %s", gruntz.ToolAPIVersion, addr)
	log.Printf("  POST /tool   - execute a tool call")
	log.Printf("  POST /batch  - execute independent tool calls")
	log.Printf("  GET  /schema - tool schema for agent registration")
	log.Printf("  GET  /health - health check")

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

func (s *server) recovering(path string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic in %s: %v\n%s", path, rec, string(debug.Stack()))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		h(w, r)
	}
}

// POST /tool - handle a tool call
func (s *server) handleTool(w http.ResponseWriter, r *http.Request) {
	if !checkRequest(w, r) {
		return
	}
	var req gruntz.ToolRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.engine.HandleToolCall(req))
}

// POST /batch - handle a JSON array of tool calls
func (s *server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if !checkRequest(w, r) {
		return
	}
	var reqs []gruntz.ToolRequest
	if !decodeBody(w, r, &reqs) {
		return
	}
	if len(reqs) > maxBatchItems {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("batch holds %d requests, limit is %d", len(reqs), maxBatchItems))
		return
	}
	resps, err := s.engine.HandleBatch(r.Context(), reqs, s.batchLimit)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resps)
}

// GET /schema - return tool schema for agent registration
func (s *server) handleSchema(w http.ResponseWriter, r *http.Request) {
	if err := gruntz.CheckToolVersion(r.Header.Get("X-Tool-Version")); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, gruntz.MCPToolSpec())
}

func checkRequest(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := gruntz.CheckToolVersion(r.Header.Get("X-Tool-Version")); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return false
	}
	return true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	// Ensure there's no trailing junk.
	if dec.More() {
		writeError(w, http.StatusBadRequest, "invalid JSON: trailing data")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
