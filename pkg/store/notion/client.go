// Package notion adapts two Notion databases (phases and tasks) to the
// record store contract over the Notion REST API.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/store"
)

const (
	DefaultBaseURL = "https://api.notion.com/v1"
	DefaultVersion = "2022-06-28"
	pageSize       = 100
)

// Config names the databases and credentials.
type Config struct {
	TasksDB  string
	PhasesDB string
	Token    string
	BaseURL  string
	Version  string

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is a store.Store backed by Notion.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger

	// phaseNames caches page id -> phase name from the last load so
	// created tasks can resolve their phase.
	mu         sync.Mutex
	phaseNames map[string]string

	Now func() time.Time
}

var _ store.Store = (*Client)(nil)

// New validates cfg and returns a client.
func New(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("notion: missing API token")
	}
	if cfg.TasksDB == "" || cfg.PhasesDB == "" {
		return nil, errors.New("notion: tasks and phases database ids are required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	c := &Client{
		cfg:        cfg,
		http:       cfg.HTTPClient,
		logger:     cfg.Logger,
		phaseNames: map[string]string{},
		Now:        time.Now,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c, nil
}

// do sends one API request. Non-2xx responses become *store.APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Notion-Version", c.cfg.Version)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.logger.Debug("notion request", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return &store.APIError{Status: resp.StatusCode, Message: apiErr.Message}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

type sortSpec struct {
	Property  string `json:"property"`
	Direction string `json:"direction"`
}

type queryRequest struct {
	PageSize    int        `json:"page_size"`
	Sorts       []sortSpec `json:"sorts,omitempty"`
	StartCursor string     `json:"start_cursor,omitempty"`
}

type queryResponse struct {
	Results    []page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

// queryAll follows pagination until has_more is false.
func (c *Client) queryAll(ctx context.Context, dbID string, sorts []sortSpec) ([]page, error) {
	var pages []page
	req := queryRequest{PageSize: pageSize, Sorts: sorts}
	for {
		var resp queryResponse
		if err := c.do(ctx, http.MethodPost, "/databases/"+dbID+"/query", req, &resp); err != nil {
			return nil, err
		}
		pages = append(pages, resp.Results...)
		if !resp.HasMore || resp.NextCursor == "" {
			return pages, nil
		}
		req.StartCursor = resp.NextCursor
	}
}

// FetchAll implements store.Store. Phases and tasks are queried
// concurrently.
func (c *Client) FetchAll(ctx context.Context) (model.Snapshot, error) {
	var phasePages, taskPages []page
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		phasePages, err = c.queryAll(gctx, c.cfg.PhasesDB, []sortSpec{{Property: propPhaseDates, Direction: "ascending"}})
		return err
	})
	g.Go(func() error {
		var err error
		taskPages, err = c.queryAll(gctx, c.cfg.TasksDB, []sortSpec{{Property: propDeadline, Direction: "ascending"}})
		return err
	})
	if err := g.Wait(); err != nil {
		return model.Snapshot{}, err
	}

	names := make(map[string]string, len(phasePages))
	snap := model.Snapshot{
		Phases: make([]model.Phase, 0, len(phasePages)),
		Tasks:  make([]model.Task, 0, len(taskPages)),
	}
	for _, p := range phasePages {
		ph := toPhase(p)
		names[ph.ID] = ph.Name
		snap.Phases = append(snap.Phases, ph)
	}
	model.AssignPhaseColors(snap.Phases)
	for _, p := range taskPages {
		if p.Archived {
			continue
		}
		snap.Tasks = append(snap.Tasks, toTask(p, names))
	}

	c.mu.Lock()
	c.phaseNames = names
	c.mu.Unlock()
	c.logger.Info("loaded roadmap from notion", "tasks", len(snap.Tasks), "phases", len(snap.Phases))
	return snap, nil
}

func (c *Client) patchPage(ctx context.Context, pageID string, body any) error {
	return c.do(ctx, http.MethodPatch, "/pages/"+pageID, body, nil)
}

// PatchField implements store.Store. Owner (a people property) and any
// unrecognized field are ignored.
func (c *Client) PatchField(ctx context.Context, taskID string, field model.Field, value string) error {
	props, err := fieldProperties(field, value)
	if err != nil {
		return err
	}
	if props == nil {
		return nil
	}
	return c.patchPage(ctx, taskID, map[string]any{"properties": props})
}

// PatchDependencies implements store.Store.
func (c *Client) PatchDependencies(ctx context.Context, taskID string, blockedBy []string) error {
	return c.patchPage(ctx, taskID, map[string]any{
		"properties": map[string]any{propDependsOn: relation(blockedBy...)},
	})
}

// PatchCategory implements store.Store.
func (c *Client) PatchCategory(ctx context.Context, taskID, phaseName string, phases []model.Phase) error {
	p, err := store.ResolvePhase(phases, phaseName)
	if err != nil {
		return err
	}
	return c.patchPage(ctx, taskID, map[string]any{
		"properties": map[string]any{propLinkedPhase: relation(p.ID)},
	})
}

// Create implements store.Store.
func (c *Client) Create(ctx context.Context) (model.Task, error) {
	defaults := store.NewTask("", c.Now())
	body := map[string]any{
		"parent": map[string]string{"database_id": c.cfg.TasksDB},
		"properties": map[string]any{
			propTaskName:  title(defaults.Name),
			propDeadline:  map[string]any{"date": map[string]string{"start": defaults.Date.String()}},
			propPriority:  map[string]any{"select": map[string]string{"name": string(defaults.Priority)}},
			propStatus:    map[string]any{"status": map[string]string{"name": string(defaults.Status)}},
			propMilestone: map[string]any{"checkbox": false},
		},
	}
	var created page
	if err := c.do(ctx, http.MethodPost, "/pages", body, &created); err != nil {
		return model.Task{}, err
	}
	c.mu.Lock()
	names := c.phaseNames
	c.mu.Unlock()
	return toTask(created, names), nil
}

// Archive implements store.Store.
func (c *Client) Archive(ctx context.Context, taskID string) error {
	return c.patchPage(ctx, taskID, map[string]any{"archived": true})
}
