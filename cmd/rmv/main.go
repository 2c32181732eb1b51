package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/config"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/export"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/filter"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/highlight"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/logging"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/prefs"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/session"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/store/backend"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/timeline"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/ui"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/updater"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/version"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/watcher"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

type options struct {
	configPath string
	store      string
	data       string
	demo       bool
	seedDemo   bool

	robotLayout bool
	robotChain  string
	robotCycles bool
	exportSVG   string
	exportPNG   string
	serve       bool
	port        int

	phase  string
	search string
	focus  string
	mode   string

	logLevel  string
	logFormat string
	logFile   string

	version     bool
	checkUpdate bool
	help        bool
}

func (o options) robot() bool {
	return o.robotLayout || o.robotChain != "" || o.robotCycles
}

func (o options) batch() bool {
	return o.robot() || o.exportSVG != "" || o.exportPNG != ""
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func newFlagSet(o *options, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("rmv", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&o.configPath, "config", config.DefaultPath(), "Config file")
	fs.StringVar(&o.store, "store", "", "Store backend: auto, jsonl, sqlite, notion, memory")
	fs.StringVar(&o.data, "data", "", "Data directory (jsonl) or database file (sqlite)")
	fs.BoolVar(&o.demo, "demo", false, "Use the built-in demo roadmap")
	fs.BoolVar(&o.seedDemo, "seed-demo", false, "Write the demo roadmap into the configured local store and exit")

	fs.BoolVar(&o.robotLayout, "robot-layout", false, "Print the dependency map layout as JSON")
	fs.StringVar(&o.robotChain, "robot-chain", "", "Print the dependency chain of a task as JSON")
	fs.BoolVar(&o.robotCycles, "robot-cycles", false, "Print graph diagnostics and phase flow as JSON")
	fs.StringVar(&o.exportSVG, "export-svg", "", "Write the dependency map as SVG")
	fs.StringVar(&o.exportPNG, "export-png", "", "Write the dependency map as PNG")
	fs.BoolVar(&o.serve, "serve", false, "Serve a live preview of the dependency map")
	fs.IntVar(&o.port, "port", 0, "Preview port (default: first free port from 9000)")

	fs.StringVar(&o.phase, "phase", "", "Show only this phase")
	fs.StringVar(&o.search, "search", "", "Filter tasks by name")
	fs.StringVar(&o.focus, "focus", "", "Select this task")
	fs.StringVar(&o.mode, "mode", "", "Highlight mode: chain or direct")

	fs.StringVar(&o.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.StringVar(&o.logFormat, "log-format", "", "Log format: text or json")
	fs.StringVar(&o.logFile, "log-file", "", "Log file for interactive mode")

	fs.BoolVar(&o.version, "version", false, "Show version")
	fs.BoolVar(&o.checkUpdate, "check-update", false, "Check GitHub for a newer release")
	fs.BoolVar(&o.help, "help", false, "Show help")

	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: rmv [options]")
		fmt.Fprintln(stderr, "\nA terminal viewer for roadmap dependency graphs.")
		fmt.Fprintln(stderr)
		fs.PrintDefaults()
	}
	return fs
}

func run(args []string, stdout, stderr io.Writer) int {
	var o options
	fs := newFlagSet(&o, stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "rmv: unexpected argument %q\n", fs.Arg(0))
		return exitUsage
	}
	if o.help {
		fs.SetOutput(stdout)
		fmt.Fprintln(stdout, "Usage: rmv [options]")
		fmt.Fprintln(stdout, "\nA terminal viewer for roadmap dependency graphs.")
		fmt.Fprintln(stdout)
		fs.PrintDefaults()
		return exitOK
	}
	if o.version {
		fmt.Fprintln(stdout, "rmv", version.String())
		return exitOK
	}
	if o.checkUpdate {
		return checkUpdate(updater.New(), stdout, stderr)
	}

	cfg, err := loadConfig(o)
	if err != nil {
		fmt.Fprintf(stderr, "rmv: %v\n", err)
		return exitUsage
	}
	if o.port < 0 || o.port > 65535 {
		fmt.Fprintf(stderr, "rmv: invalid port %d\n", o.port)
		return exitUsage
	}

	interactive := !o.batch() && !o.serve && !o.seedDemo
	if !interactive && o.logLevel == "" && cfg.Log.Level == "info" {
		// stderr stays clean for scripts unless a level is asked for.
		cfg.Log.Level = "error"
	}
	logger, closeLog, err := openLogger(cfg, interactive, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "rmv: %v\n", err)
		return exitError
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opened, err := backend.Open(cfg, backend.Options{Demo: o.demo, Logger: logger})
	if err != nil {
		fmt.Fprintf(stderr, "rmv: opening store: %v\n", err)
		return exitError
	}
	defer opened.Close()
	logger.Debug("store opened", "store", opened.Describe())

	if o.seedDemo {
		if err := backend.SeedDemo(ctx, opened, time.Now()); err != nil {
			fmt.Fprintf(stderr, "rmv: seeding demo data: %v\n", err)
			return exitError
		}
		fmt.Fprintf(stdout, "Seeded demo roadmap into %s\n", opened.Describe())
		return exitOK
	}

	sess := session.New(opened.Store, logger)

	switch {
	case o.batch():
		if err := sess.Reload(ctx); err != nil {
			fmt.Fprintf(stderr, "rmv: loading roadmap: %v\n", err)
			return exitError
		}
		return runBatch(o, cfg, sess.State(), stdout, stderr)
	case o.serve:
		return runServe(ctx, o, cfg, sess, opened, logger, stdout, stderr)
	}
	return runInteractive(ctx, o, cfg, sess, opened, logger, stderr)
}

func checkUpdate(c *updater.Checker, stdout, stderr io.Writer) int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rel, err := c.Check(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "rmv: checking for updates: %v\n", err)
		return exitError
	}
	if rel == nil {
		fmt.Fprintf(stdout, "rmv %s is up to date\n", version.String())
		return exitOK
	}
	fmt.Fprintf(stdout, "rmv %s is available (running %s): %s\n", rel.TagName, version.String(), rel.HTMLURL)
	return exitOK
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(o options) (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return cfg, err
	}
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&cfg.Store.Backend, o.store)
	override(&cfg.Store.Path, o.data)
	override(&cfg.Layout.HighlightMode, o.mode)
	override(&cfg.Log.Level, o.logLevel)
	override(&cfg.Log.Format, o.logFormat)
	override(&cfg.Log.File, o.logFile)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// openLogger logs to stderr for one-shot commands. The interactive UI owns
// the terminal, so it logs to a file instead.
func openLogger(cfg config.Config, interactive bool, stderr io.Writer) (*slog.Logger, func(), error) {
	if !interactive {
		return logging.New(cfg.Log.Level, cfg.Log.Format, stderr), func() {}, nil
	}
	f, err := logging.OpenFile(cfg.Log.File)
	if err != nil {
		return nil, nil, err
	}
	return logging.New(cfg.Log.Level, cfg.Log.Format, f), func() { f.Close() }, nil
}

func sceneOptions(o options, cfg config.Config, title string) export.SceneOptions {
	mode, _ := highlight.ParseChainMode(cfg.Layout.HighlightMode)
	var st highlight.State
	if o.focus != "" {
		st = st.Tap(o.focus)
	}
	return export.SceneOptions{
		Criteria:  filter.Criteria{Search: o.search, Phase: o.phase},
		State:     st,
		ChainMode: mode,
		Geometry:  cfg.Geometry(),
		Title:     title,
	}
}

func runBatch(o options, cfg config.Config, st session.State, stdout, stderr io.Writer) int {
	snap := st.Snapshot
	scene := export.NewScene(snap, sceneOptions(o, cfg, "Roadmap"))

	for _, out := range []struct{ path, format string }{
		{o.exportSVG, "svg"},
		{o.exportPNG, "png"},
	} {
		if out.path == "" {
			continue
		}
		err := export.SaveGraphSnapshot(export.GraphSnapshotOptions{Path: out.path, Format: out.format, Scene: scene})
		if err != nil {
			fmt.Fprintf(stderr, "rmv: %v\n", err)
			return exitError
		}
		if !o.robot() {
			fmt.Fprintf(stdout, "Wrote %s\n", out.path)
		}
	}

	switch {
	case o.robotLayout:
		return writeJSON(stdout, stderr, scene.Doc())
	case o.robotChain != "":
		doc, err := chainReport(snap, o.robotChain, filter.Criteria{Search: o.search, Phase: o.phase}, cfg.Layout.HighlightMode)
		if err != nil {
			fmt.Fprintf(stderr, "rmv: %v\n", err)
			return exitError
		}
		return writeJSON(stdout, stderr, doc)
	case o.robotCycles:
		return writeJSON(stdout, stderr, cyclesReport(snap))
	}
	return exitOK
}

func runServe(ctx context.Context, o options, cfg config.Config, sess *session.Session, opened *backend.Opened, logger *slog.Logger, stdout, stderr io.Writer) int {
	if err := sess.Reload(ctx); err != nil {
		// The preview reports load errors itself; a later reload may succeed.
		logger.Warn("initial load failed", "error", err)
	}
	if w := startWatcher(ctx, cfg, sess, opened, logger); w != nil {
		defer w.Close()
	}

	port := o.port
	if port == 0 {
		p, err := export.FindAvailablePort(export.DefaultPreviewPort, export.DefaultPreviewPort+100)
		if err != nil {
			fmt.Fprintf(stderr, "rmv: %v\n", err)
			return exitError
		}
		port = p
	}
	mode, _ := highlight.ParseChainMode(cfg.Layout.HighlightMode)
	srv := export.NewPreviewServer(func() (model.Snapshot, error) {
		return loadedSnapshot(sess.State())
	}, port, export.PreviewOptions{
		Geometry:  cfg.Geometry(),
		ChainMode: mode,
		Title:     "Roadmap · " + opened.Describe(),
		Logger:    logger,
	})
	fmt.Fprintf(stdout, "Serving roadmap preview at %s (Ctrl+C to stop)\n", srv.URL())
	if err := srv.StartWithGracefulShutdown(ctx); err != nil {
		fmt.Fprintf(stderr, "rmv: preview server: %v\n", err)
		return exitError
	}
	return exitOK
}

func runInteractive(ctx context.Context, o options, cfg config.Config, sess *session.Session, opened *backend.Opened, logger *slog.Logger, stderr io.Writer) int {
	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(stderr, "rmv: not a terminal; use --robot-layout, --robot-chain, --robot-cycles, --export-svg or --serve")
		return exitUsage
	}

	kv, err := prefs.OpenFile(filepath.Join(config.Dir, "prefs.yaml"))
	if err != nil {
		fmt.Fprintf(stderr, "rmv: %v\n", err)
		return exitError
	}
	settings, err := loadSettings(kv, o, cfg)
	if err != nil {
		logger.Warn("reading preferences failed, using defaults", "error", err)
	}

	m := ui.New(ui.Options{
		Session:  sess,
		Prefs:    kv,
		Settings: settings,
		Search:   o.search,
		Focus:    o.focus,
		Source:   opened.Describe(),
		Logger:   logger,
		Context:  ctx,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	sess.OnChange(func(s session.State) { p.Send(ui.StateMsg(s)) })

	if w := startWatcher(ctx, cfg, sess, opened, logger); w != nil {
		defer w.Close()
	}

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		fmt.Fprintf(stderr, "rmv: %v\n", err)
		return exitError
	}
	return exitOK
}

// loadSettings layers saved preferences over the config file, then flags
// over both.
func loadSettings(kv *prefs.File, o options, cfg config.Config) (prefs.Settings, error) {
	s, err := prefs.Load(kv)
	if _, ok, _ := kv.Get(prefs.KeyNodeMode); !ok {
		if nm, perr := timeline.ParseNodeMode(cfg.Layout.NodeMode); perr == nil {
			s.NodeMode = nm
		}
	}
	if _, ok, _ := kv.Get(prefs.KeyHighlightMode); !ok || o.mode != "" {
		if hm, perr := highlight.ParseChainMode(cfg.Layout.HighlightMode); perr == nil {
			s.HighlightMode = hm
		}
	}
	if o.phase != "" {
		s.Phase = o.phase
	}
	return s, err
}

// startWatcher reloads the session when a local store file changes. It
// returns nil when watching is off or the backend has no files.
func startWatcher(ctx context.Context, cfg config.Config, sess *session.Session, opened *backend.Opened, logger *slog.Logger) *watcher.Watcher {
	if !cfg.Watch.Enabled || len(opened.WatchPaths) == 0 {
		return nil
	}
	w, err := watcher.New(opened.WatchPaths, cfg.Watch.Debounce, func(changed []string) {
		logger.Debug("reloading after file change", "files", changed)
		if err := sess.Reload(ctx); err != nil {
			logger.Warn("reload after file change failed", "error", err)
		}
	}, logger)
	if err != nil {
		logger.Warn("file watching disabled", "error", err)
		return nil
	}
	return w
}
