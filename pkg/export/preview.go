// This file implements a local preview server for the dependency map.
// It re-renders on every request from the current snapshot, serves with
// no-cache headers and can auto-open the browser.

package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/depgraph"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/filter"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/highlight"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
)

// SnapshotFunc returns the data to render. An error means the data is
// not loaded and nothing may be drawn.
type SnapshotFunc func() (model.Snapshot, error)

// PreviewOptions configure rendering for every request.
type PreviewOptions struct {
	Geometry  depgraph.Geometry
	ChainMode highlight.ChainMode
	Title     string
	Logger    *slog.Logger
}

// PreviewServer serves the live dependency map.
type PreviewServer struct {
	source  SnapshotFunc
	port    int
	opts    PreviewOptions
	logger  *slog.Logger

	mu      sync.Mutex
	server  *http.Server
	started time.Time
}

// NewPreviewServer creates a preview server reading from source.
func NewPreviewServer(source SnapshotFunc, port int, opts PreviewOptions) *PreviewServer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Title == "" {
		opts.Title = "Roadmap"
	}
	return &PreviewServer{
		source: source,
		port:   port,
		opts:   opts,
		logger: logger,
	}
}

// Handler returns the HTTP routes.
func (p *PreviewServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", p.indexHandler)
	mux.HandleFunc("/graph.svg", p.svgHandler)
	mux.HandleFunc("/graph.png", p.pngHandler)
	mux.HandleFunc("/api/layout", p.layoutHandler)
	mux.HandleFunc("/__preview__/status", p.statusHandler)
	return noCacheMiddleware(mux)
}

// Start starts the preview server and blocks until stopped.
func (p *PreviewServer) Start() error {
	srv, err := p.prepare()
	if err != nil {
		return err
	}
	return srv.ListenAndServe()
}

// prepare builds the http.Server so Stop can see it before serving begins.
func (p *PreviewServer) prepare() (*http.Server, error) {
	if p.source == nil {
		return nil, fmt.Errorf("preview server has no data source")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", p.port),
		Handler:           p.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	p.started = time.Now()
	p.logger.Info("preview server running", "url", p.URL())
	return p.server, nil
}

// StartWithGracefulShutdown serves until ctx is cancelled.
func (p *PreviewServer) StartWithGracefulShutdown(ctx context.Context) error {
	srv, err := p.prepare()
	if err != nil {
		return err
	}
	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		p.logger.Info("shutting down preview server")
		return p.Stop()
	case err := <-errChan:
		return err
	}
}

// Stop gracefully stops the preview server.
func (p *PreviewServer) Stop() error {
	p.mu.Lock()
	srv := p.server
	p.mu.Unlock()
	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// Port returns the port the server is running on.
func (p *PreviewServer) Port() int {
	return p.port
}

// URL returns the full URL of the preview server.
func (p *PreviewServer) URL() string {
	return fmt.Sprintf("http://localhost:%d", p.port)
}

// sceneFor builds the scene selected by the request's query:
// q (search), phase, fuzzy=1, focus (tap), hover, edge=from,to, mode.
func (p *PreviewServer) sceneFor(r *http.Request) (Scene, error) {
	snap, err := p.source()
	if err != nil {
		return Scene{}, err
	}
	q := r.URL.Query()
	crit := filter.Criteria{
		Search: q.Get("q"),
		Phase:  q.Get("phase"),
		Fuzzy:  q.Get("fuzzy") == "1",
	}
	var st highlight.State
	if id := q.Get("hover"); id != "" {
		st = st.Hover(id)
	}
	if id := q.Get("focus"); id != "" {
		st = st.Tap(id)
	}
	if from, to, ok := strings.Cut(q.Get("edge"), ","); ok {
		st = st.TapEdge(highlight.EdgeKey{From: from, To: to})
	}
	mode := p.opts.ChainMode
	if m := q.Get("mode"); m != "" {
		if parsed, err := highlight.ParseChainMode(m); err == nil {
			mode = parsed
		}
	}
	return NewScene(snap, SceneOptions{
		Criteria:  crit,
		State:     st,
		ChainMode: mode,
		Geometry:  p.opts.Geometry,
		Title:     p.opts.Title,
	}), nil
}

func (p *PreviewServer) loadError(w http.ResponseWriter, err error) {
	p.logger.Warn("preview request without data", "error", err)
	http.Error(w, "roadmap not loaded: "+err.Error(), http.StatusServiceUnavailable)
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title>
<style>body{background:#0f172a;color:#e2e8f0;font-family:sans-serif;margin:1rem}
a{color:#93c5fd}.bar{margin-bottom:1rem}</style></head>
<body><div class="bar"><strong>{{.Title}}</strong> · {{.Tasks}} tasks · {{.Edges}} dependencies
{{if .Focus}} · focus <code>{{.Focus}}</code> (<a href="?">clear</a>){{end}}</div>
{{.SVG}}
</body></html>`))

func (p *PreviewServer) indexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	scene, err := p.sceneFor(r)
	if err != nil {
		p.loadError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := RenderSVG(&buf, scene); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	inline := buf.String()
	if i := strings.Index(inline, "<svg"); i > 0 {
		inline = inline[i:]
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	indexTemplate.Execute(w, map[string]any{
		"Title": scene.Title,
		"Tasks": len(scene.Layout.Order),
		"Edges": len(scene.Layout.Edges),
		"Focus": scene.Highlight.FocusNode,
		"SVG":   template.HTML(inline),
	})
}

func (p *PreviewServer) svgHandler(w http.ResponseWriter, r *http.Request) {
	scene, err := p.sceneFor(r)
	if err != nil {
		p.loadError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := RenderSVG(&buf, scene); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(buf.Bytes())
}

func (p *PreviewServer) pngHandler(w http.ResponseWriter, r *http.Request) {
	scene, err := p.sceneFor(r)
	if err != nil {
		p.loadError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := RenderPNG(&buf, scene); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

func (p *PreviewServer) layoutHandler(w http.ResponseWriter, r *http.Request) {
	scene, err := p.sceneFor(r)
	if err != nil {
		p.loadError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(scene.Doc()); err != nil {
		p.logger.Warn("encode layout", "error", err)
	}
}

// statusHandler returns the preview server status as JSON.
func (p *PreviewServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	status := struct {
		Status string `json:"status"`
		Port   int    `json:"port"`
		Loaded bool   `json:"loaded"`
		Tasks  int    `json:"tasks"`
		Phases int    `json:"phases"`
		Error  string `json:"error,omitempty"`
		Uptime string `json:"uptime,omitempty"`
	}{Status: "running", Port: p.port}
	if snap, err := p.source(); err != nil {
		status.Error = err.Error()
	} else {
		status.Loaded = true
		status.Tasks = len(snap.Tasks)
		status.Phases = len(snap.Phases)
	}
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if !started.IsZero() {
		status.Uptime = time.Since(started).Round(time.Second).String()
	}
	json.NewEncoder(w).Encode(status)
}

// noCacheMiddleware adds headers to prevent browser caching.
func noCacheMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// FindAvailablePort finds an available port in the given range.
func FindAvailablePort(start, end int) (int, error) {
	for port := start; port <= end; port++ {
		listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err == nil {
			listener.Close()
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port in range %d-%d", start, end)
}

// Preview port defaults; the range is scanned when the default is taken.
const (
	DefaultPreviewPort    = 9000
	PreviewPortRangeStart = 9000
	PreviewPortRangeEnd   = 9100
)

// OpenInBrowser opens url with the platform's default handler.
func OpenInBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
