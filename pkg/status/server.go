// Package status serves a small status page for long-running watch sessions:
// an HTML summary for humans and a JSON endpoint for scripts.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/photomirror/photomirror/internal/logger"
	"github.com/photomirror/photomirror/pkg/engine"
	"github.com/photomirror/photomirror/pkg/fileindex"
)

// IndexInfo is the subset of the file index exposed on the status page.
type IndexInfo interface {
	Stats(ctx context.Context) (fileindex.Stats, error)
	LastSync() (time.Time, bool)
}

// Server exposes sync progress over HTTP.
type Server struct {
	addr     string
	progress *engine.Progress
	index    IndexInfo
}

// New creates a status server. index may be nil when no file index is open.
func New(addr string, progress *engine.Progress, index IndexInfo) *Server {
	return &Server{addr: addr, progress: progress, index: index}
}

// Handler returns the HTTP handler, exposed separately for tests.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", s.handlePage)
	r.Get("/api/status", s.handleStatus)
	return r
}

// Run serves until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("status server listening", logger.Fields{"addr": s.addr})

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

type statusPayload struct {
	Sync  engine.Snapshot `json:"sync"`
	Index *indexPayload   `json:"index,omitempty"`
}

type indexPayload struct {
	Files            int    `json:"files"`
	RecentlyVerified int    `json:"recently_verified"`
	LastSync         string `json:"last_sync,omitempty"`
}

func (s *Server) payload(ctx context.Context) statusPayload {
	p := statusPayload{Sync: s.progress.Snapshot()}
	if s.index == nil {
		return p
	}

	info := &indexPayload{}
	if stats, err := s.index.Stats(ctx); err == nil {
		info.Files = stats.Total
		info.RecentlyVerified = stats.RecentlyVerified
	}
	if last, ok := s.index.LastSync(); ok {
		info.LastSync = last.Format(time.RFC3339)
	}
	p.Index = info
	return p
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.payload(r.Context())); err != nil {
		logger.Warn("failed to encode status", logger.Fields{"error": err.Error()})
	}
}

var pageTemplate = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html>
<head>
<title>photomirror</title>
<meta http-equiv="refresh" content="5">
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
td { padding: 0.2em 1em 0.2em 0; }
.err { color: #b00; }
</style>
</head>
<body>
<h1>photomirror</h1>
<p>{{.State}}</p>
<table>
<tr><td>Listed</td><td>{{.Sync.Listed}}{{if .Sync.Total}} / {{.Sync.Total}} ({{.Sync.Percent}}%){{end}}</td></tr>
<tr><td>Downloaded</td><td>{{.Sync.Downloaded}} ({{.Sync.BytesHuman}})</td></tr>
<tr><td>In flight</td><td>{{.Sync.Downloading}}</td></tr>
<tr><td>Cached</td><td>{{.Sync.SkippedCached}}</td></tr>
<tr><td>Filtered</td><td>{{.Sync.SkippedFiltered}}</td></tr>
<tr><td>Failed</td><td>{{.Sync.Failed}}</td></tr>
<tr><td>Deleted</td><td>{{.Sync.Deleted}}</td></tr>
{{if .Index}}<tr><td>Indexed files</td><td>{{.Index.Files}}</td></tr>{{end}}
{{if .Index}}{{if .Index.LastSync}}<tr><td>Last sync</td><td>{{.Index.LastSync}}</td></tr>{{end}}{{end}}
</table>
{{if .Sync.LastError}}<p class="err">{{.Sync.LastError}}</p>{{end}}
</body>
</html>
`))

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	p := s.payload(r.Context())

	state := "idle"
	switch {
	case p.Sync.Running:
		state = fmt.Sprintf("syncing, %s elapsed", p.Sync.Elapsed)
	case p.Sync.Watching && p.Sync.Waiting != "":
		state = fmt.Sprintf("watching, next pass %s", p.Sync.Waiting)
	case p.Sync.Watching:
		state = "watching, waiting for the next pass"
	case !p.Sync.FinishedAt.IsZero():
		state = fmt.Sprintf("last pass finished %s", p.Sync.FinishedAt.Format(time.RFC3339))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, struct {
		State string
		Sync  engine.Snapshot
		Index *indexPayload
	}{state, p.Sync, p.Index}); err != nil {
		logger.Warn("failed to render status page", logger.Fields{"error": err.Error()})
	}
}
