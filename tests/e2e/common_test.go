package main_test

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

var (
	buildOnce sync.Once
	binPath   string
	buildErr  error
	buildLog  []byte
)

// buildRmvBinary compiles cmd/rmv once per test run.
func buildRmvBinary(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}
	buildOnce.Do(func() {
		dir, err := os.MkdirTemp("", "rmv-e2e-")
		if err != nil {
			buildErr = err
			return
		}
		binPath = filepath.Join(dir, "rmv")
		cmd := exec.Command("go", "build", "-o", binPath, "./cmd/rmv")
		cmd.Dir = filepath.Join("..", "..")
		buildLog, buildErr = cmd.CombinedOutput()
	})
	if buildErr != nil {
		t.Fatalf("build rmv: %v\n%s", buildErr, buildLog)
	}
	return binPath
}

// rmvResult is the outcome of one invocation.
type rmvResult struct {
	Stdout string
	Stderr string
	Code   int
}

// runRmv runs the binary in dir. A missing config file is fine: defaults
// apply, with the data directory at dir/.roadmap.
func runRmv(t *testing.T, bin, dir string, args ...string) rmvResult {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "NOTION_TOKEN=")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	res := rmvResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if exitErr, ok := err.(*exec.ExitError); ok {
		res.Code = exitErr.ExitCode()
	} else if err != nil {
		t.Fatalf("run rmv %v: %v", args, err)
	}
	return res
}

// writeRoadmap writes tasks.jsonl and phases.jsonl under dir/.roadmap.
func writeRoadmap(t *testing.T, dir, tasks, phases string) {
	t.Helper()
	data := filepath.Join(dir, ".roadmap")
	if err := os.MkdirAll(data, 0o755); err != nil {
		t.Fatalf("mkdir .roadmap: %v", err)
	}
	if err := os.WriteFile(filepath.Join(data, "tasks.jsonl"), []byte(tasks), 0o644); err != nil {
		t.Fatalf("write tasks.jsonl: %v", err)
	}
	if phases != "" {
		if err := os.WriteFile(filepath.Join(data, "phases.jsonl"), []byte(phases), 0o644); err != nil {
			t.Fatalf("write phases.jsonl: %v", err)
		}
	}
}

func writeConfig(t *testing.T, dir, yaml string) {
	t.Helper()
	path := filepath.Join(dir, ".roadmap", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(strings.TrimSpace(yaml)+"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func decodeJSON(t *testing.T, out string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(out), v); err != nil {
		t.Fatalf("json decode: %v\nout=%s", err, out)
	}
}

// layoutDoc is the subset of --robot-layout the tests read.
type layoutDoc struct {
	Width  float64  `json:"width"`
	Height float64  `json:"height"`
	Mode   string   `json:"mode"`
	Focus  string   `json:"focus"`
	Chain  []string `json:"chain"`
	Nodes  []struct {
		ID       string  `json:"id"`
		Column   int     `json:"column"`
		Row      int     `json:"row"`
		X        float64 `json:"x"`
		Y        float64 `json:"y"`
		Dimmed   bool    `json:"isDimmed"`
		Selected bool    `json:"isSelected"`
	} `json:"nodes"`
	Edges []struct {
		FromID string `json:"fromId"`
		ToID   string `json:"toId"`
		Path   string `json:"path"`
	} `json:"edges"`
}

func (d layoutDoc) column(id string) int {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n.Column
		}
	}
	return -1
}

const diamondTasks = `{"id":"a","name":"Plan","date":"2026-01-05","category":"Design","status":"Done"}
{"id":"b","name":"Backend","date":"2026-02-01","category":"Build","blockedBy":["a"]}
{"id":"c","name":"Frontend","date":"2026-02-10","category":"Build","blockedBy":["a"]}
{"id":"d","name":"Launch","date":"2026-03-01","category":"Build","blockedBy":["b","c"],"milestone":true}
{"id":"e","name":"Docs","category":"Design"}
`

const diamondPhases = `{"id":"p1","name":"Design","date":"2026-01-01"}
{"id":"p2","name":"Build","date":"2026-02-01"}
`
