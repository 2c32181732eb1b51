// Package prefs persists UI preferences through an injected key-value
// store. Nothing here is global: the UI receives a Settings value and a KV
// to save it to.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/filter"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/highlight"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/timeline"
)

// View names a top-level screen.
type View string

const (
	ViewTimeline View = "timeline"
	ViewDepMap   View = "depmap"
)

// Keys under which settings are stored.
const (
	KeyView          = "view"
	KeyPhase         = "phase"
	KeyNodeMode      = "node_mode"
	KeyHighlightMode = "highlight_mode"
	KeyFuzzy         = "fuzzy"
)

// KV is the persistence boundary.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Settings are the user's sticky view choices.
type Settings struct {
	View          View
	Phase         string
	NodeMode      timeline.NodeMode
	HighlightMode highlight.ChainMode
	Fuzzy         bool
}

// Default returns the settings used before anything is saved.
func Default() Settings {
	return Settings{
		View:          ViewTimeline,
		Phase:         filter.AllPhases,
		NodeMode:      timeline.NodeSingle,
		HighlightMode: highlight.ChainTransitive,
	}
}

// Load reads settings from kv. Unknown or invalid values keep their
// defaults so a hand-edited file never blocks startup.
func Load(kv KV) (Settings, error) {
	s := Default()
	if v, ok, err := kv.Get(KeyView); err != nil {
		return s, err
	} else if ok && (View(v) == ViewTimeline || View(v) == ViewDepMap) {
		s.View = View(v)
	}
	if v, ok, err := kv.Get(KeyPhase); err != nil {
		return s, err
	} else if ok && v != "" {
		s.Phase = v
	}
	if v, ok, err := kv.Get(KeyNodeMode); err != nil {
		return s, err
	} else if ok {
		if m, perr := timeline.ParseNodeMode(v); perr == nil {
			s.NodeMode = m
		}
	}
	if v, ok, err := kv.Get(KeyHighlightMode); err != nil {
		return s, err
	} else if ok {
		if m, perr := highlight.ParseChainMode(v); perr == nil {
			s.HighlightMode = m
		}
	}
	if v, ok, err := kv.Get(KeyFuzzy); err != nil {
		return s, err
	} else if ok {
		s.Fuzzy = v == "true"
	}
	return s, nil
}

// Save writes every setting to kv.
func Save(kv KV, s Settings) error {
	pairs := [][2]string{
		{KeyView, string(s.View)},
		{KeyPhase, s.Phase},
		{KeyNodeMode, string(s.NodeMode)},
		{KeyHighlightMode, string(s.HighlightMode)},
		{KeyFuzzy, fmt.Sprint(s.Fuzzy)},
	}
	for _, p := range pairs {
		if err := kv.Set(p[0], p[1]); err != nil {
			return fmt.Errorf("save %s: %w", p[0], err)
		}
	}
	return nil
}

// Memory is an in-process KV.
type Memory struct {
	mu sync.Mutex
	m  map[string]string
}

func NewMemory() *Memory { return &Memory{m: make(map[string]string)} }

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.m[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m[key] = value
	return nil
}

// File is a KV backed by a flat YAML map, rewritten on every Set.
type File struct {
	path string
	mu   sync.Mutex
	m    map[string]string
}

// OpenFile loads path if it exists.
func OpenFile(path string) (*File, error) {
	f := &File{path: path, m: make(map[string]string)}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return f, nil
		}
		return nil, fmt.Errorf("failed to read prefs: %w", err)
	}
	if err := yaml.Unmarshal(data, &f.m); err != nil {
		return nil, fmt.Errorf("failed to parse prefs %s: %w", path, err)
	}
	if f.m == nil {
		f.m = make(map[string]string)
	}
	return f, nil
}

func (f *File) Path() string { return f.path }

func (f *File) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.m[key]
	return v, ok, nil
}

func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cur, ok := f.m[key]; ok && cur == value {
		return nil
	}
	f.m[key] = value
	return f.flushLocked()
}

// Keys returns the stored keys, sorted.
func (f *File) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.m))
	for k := range f.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (f *File) flushLocked() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("failed to create prefs directory: %w", err)
	}
	data, err := yaml.Marshal(f.m)
	if err != nil {
		return fmt.Errorf("failed to marshal prefs: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write prefs: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename prefs: %w", err)
	}
	return nil
}
