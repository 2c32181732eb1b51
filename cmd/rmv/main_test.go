package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/export"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/updater"
)

// runCLI runs rmv with a config path that does not exist, so defaults apply.
func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	args = append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...)
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Version(t *testing.T) {
	code, out, _ := runCLI(t, "--version")
	if code != exitOK {
		t.Fatalf("exit = %d", code)
	}
	if !strings.HasPrefix(out, "rmv ") {
		t.Errorf("version output = %q", out)
	}
}

func TestRun_Help(t *testing.T) {
	code, out, _ := runCLI(t, "--help")
	if code != exitOK {
		t.Fatalf("exit = %d", code)
	}
	for _, want := range []string{"Usage: rmv", "-robot-layout", "-export-svg"} {
		if !strings.Contains(out, want) {
			t.Errorf("help lacks %q", want)
		}
	}
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"--nope"}},
		{"positional", []string{"extra"}},
		{"bad mode", []string{"--mode", "sideways", "--demo", "--robot-layout"}},
		{"bad store", []string{"--store", "ftp", "--demo", "--robot-layout"}},
		{"bad port", []string{"--port", "-1", "--demo", "--serve"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, _, _ := runCLI(t, tt.args...); code != exitUsage {
				t.Errorf("exit = %d, want %d", code, exitUsage)
			}
		})
	}
}

func TestRun_RobotLayout(t *testing.T) {
	code, out, errOut := runCLI(t, "--demo", "--robot-layout", "--focus", "t-api")
	if code != exitOK {
		t.Fatalf("exit = %d, stderr: %s", code, errOut)
	}
	if errOut != "" {
		t.Errorf("stderr not clean: %q", errOut)
	}
	var doc export.LayoutDoc
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(doc.Nodes) != 14 {
		t.Errorf("nodes = %d, want 14", len(doc.Nodes))
	}
	if doc.Focus != "t-api" {
		t.Errorf("focus = %q", doc.Focus)
	}
	for _, n := range doc.Nodes {
		if n.ID == "t-pricing" && !n.Dimmed {
			t.Errorf("t-pricing is unrelated to t-api and should be dimmed")
		}
	}
}

func TestRun_RobotLayoutPhaseFilter(t *testing.T) {
	code, out, _ := runCLI(t, "--demo", "--robot-layout", "--phase", "Launch")
	if code != exitOK {
		t.Fatalf("exit = %d", code)
	}
	var doc export.LayoutDoc
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(doc.Nodes) != 3 {
		t.Errorf("nodes = %d, want 3 Launch tasks", len(doc.Nodes))
	}
	// Edges into hidden tasks are not drawn.
	for _, e := range doc.Edges {
		if e.FromID == "t-feedback" || e.FromID == "t-api" {
			t.Errorf("edge from hidden task %s drawn", e.FromID)
		}
	}
}

func TestRun_RobotChain(t *testing.T) {
	code, out, errOut := runCLI(t, "--demo", "--robot-chain", "t-api")
	if code != exitOK {
		t.Fatalf("exit = %d, stderr: %s", code, errOut)
	}
	var doc ChainDoc
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	want := ChainDoc{
		Focus:       "t-api",
		Name:        "Public API",
		Mode:        "chain",
		Highlighted: []string{"t-api", "t-arch", "t-beta", "t-docs", "t-feedback", "t-ga", "t-integration", "t-interviews", "t-market", "t-prd", "t-ui"},
		Ancestors:   []string{"t-arch", "t-interviews", "t-market", "t-prd"},
		Descendants: []string{"t-beta", "t-docs", "t-feedback", "t-ga", "t-integration", "t-ui"},
		Blockers:    []string{"t-arch"},
		Dependents:  []string{"t-docs", "t-integration", "t-ui"},
	}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("chain mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_RobotChainDirect(t *testing.T) {
	code, out, _ := runCLI(t, "--demo", "--robot-chain", "t-api", "--mode", "direct")
	if code != exitOK {
		t.Fatalf("exit = %d", code)
	}
	var doc ChainDoc
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	want := []string{"t-api", "t-arch", "t-docs", "t-integration", "t-ui"}
	if diff := cmp.Diff(want, doc.Highlighted); diff != "" {
		t.Errorf("direct neighbours (-want +got):\n%s", diff)
	}
}

func TestRun_RobotChainUnknown(t *testing.T) {
	code, _, errOut := runCLI(t, "--demo", "--robot-chain", "t-nope")
	if code != exitError {
		t.Fatalf("exit = %d, want %d", code, exitError)
	}
	if !strings.Contains(errOut, "not found") {
		t.Errorf("stderr = %q", errOut)
	}

	code, _, errOut = runCLI(t, "--demo", "--robot-chain", "t-api", "--phase", "Launch")
	if code != exitError || !strings.Contains(errOut, "hidden") {
		t.Errorf("filtered focus: exit = %d, stderr = %q", code, errOut)
	}
}

func TestRun_RobotCycles(t *testing.T) {
	code, out, _ := runCLI(t, "--demo", "--robot-cycles")
	if code != exitOK {
		t.Fatalf("exit = %d", code)
	}
	var doc CyclesDoc
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if doc.Problems || len(doc.Cycles) != 0 {
		t.Errorf("demo roadmap reported problems: %+v", doc.Report)
	}
	if doc.TaskCount != 14 {
		t.Errorf("task_count = %d", doc.TaskCount)
	}
	if len(doc.Phases) != 4 {
		t.Errorf("phases = %d, want 4", len(doc.Phases))
	}
	if doc.Flow.TotalCross == 0 {
		t.Errorf("expected cross-phase dependencies in the demo")
	}
}

func TestRun_ExportSVG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "map.svg")
	code, out, errOut := runCLI(t, "--demo", "--export-svg", path)
	if code != exitOK {
		t.Fatalf("exit = %d, stderr: %s", code, errOut)
	}
	if !strings.Contains(out, "Wrote "+path) {
		t.Errorf("stdout = %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read svg: %v", err)
	}
	if !bytes.Contains(data, []byte("<svg")) {
		t.Errorf("not an SVG document")
	}
}

func TestRun_ExportPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.png")
	if code, _, errOut := runCLI(t, "--demo", "--export-png", path); code != exitOK {
		t.Fatalf("exit = %d, stderr: %s", code, errOut)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read png: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Errorf("not a PNG file")
	}
}

func TestRun_SeedDemoThenRead(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	code, out, errOut := runCLI(t, "--store", "jsonl", "--data", dir, "--seed-demo")
	if code != exitOK {
		t.Fatalf("seed exit = %d, stderr: %s", code, errOut)
	}
	if !strings.Contains(out, "Seeded demo roadmap") {
		t.Errorf("stdout = %q", out)
	}

	code, out, errOut = runCLI(t, "--store", "jsonl", "--data", dir, "--robot-cycles")
	if code != exitOK {
		t.Fatalf("read exit = %d, stderr: %s", code, errOut)
	}
	var doc CyclesDoc
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if doc.TaskCount != 14 {
		t.Errorf("task_count after seeding = %d", doc.TaskCount)
	}
}

func TestRun_SeedDemoRejectsDemoStore(t *testing.T) {
	if code, _, _ := runCLI(t, "--demo", "--seed-demo"); code != exitError {
		t.Errorf("exit = %d, want %d", code, exitError)
	}
}

func TestCheckUpdate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tag_name":"v9.0.0","html_url":"https://example.invalid/v9"}`))
	}))
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	code := checkUpdate(&updater.Checker{URL: srv.URL, Current: "v1.0.0"}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("exit = %d, stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "v9.0.0 is available") {
		t.Errorf("stdout = %q", stdout.String())
	}

	stdout.Reset()
	code = checkUpdate(&updater.Checker{URL: srv.URL, Current: "v9.0.0"}, &stdout, &stderr)
	if code != exitOK || !strings.Contains(stdout.String(), "up to date") {
		t.Errorf("exit = %d, stdout = %q", code, stdout.String())
	}
}
