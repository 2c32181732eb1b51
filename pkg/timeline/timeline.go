// Package timeline computes the Gantt view: a project window spanning the
// dated months, one row per task grouped by month, and the one-hop
// dependency links drawn over the focused row.
package timeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/depgraph"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/highlight"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
)

// NoDateGroup labels the trailing group of undated tasks.
const NoDateGroup = "No date"

// RowOpacityDimmed is applied to rows outside the focused chain.
const RowOpacityDimmed = 0.12

// NodeMode selects how a task is drawn on its row.
type NodeMode string

const (
	// NodeSingle draws a diamond at the task date.
	NodeSingle NodeMode = "single"
	// NodeRange draws a bar from start to end date.
	NodeRange NodeMode = "range"
)

// ParseNodeMode accepts "single" (or empty) and "range".
func ParseNodeMode(s string) (NodeMode, error) {
	switch NodeMode(s) {
	case "", NodeSingle:
		return NodeSingle, nil
	case NodeRange:
		return NodeRange, nil
	}
	return "", fmt.Errorf("unknown node mode %q", s)
}

// Toggle flips between single and range.
func (m NodeMode) Toggle() NodeMode {
	if m == NodeRange {
		return NodeSingle
	}
	return NodeRange
}

// Window is the date span mapped onto [0,100].
type Window struct {
	Start model.Date `json:"start"`
	End   model.Date `json:"end"`
}

// WindowOf spans the first day of the earliest dated month to the last day
// of the latest one. ok is false when no task carries a date.
func WindowOf(tasks []model.Task) (w Window, ok bool) {
	for _, t := range tasks {
		for _, d := range []model.Date{anchor(t), t.Start(), t.End()} {
			if d.IsZero() {
				continue
			}
			if w.Start.IsZero() || d.Before(w.Start) {
				w.Start = d
			}
			if w.End.IsZero() || w.End.Before(d) {
				w.End = d
			}
		}
	}
	if w.Start.IsZero() {
		return Window{}, false
	}
	s, e := w.Start.Time(), w.End.Time()
	w.Start = model.NewDate(s.Year(), s.Month(), 1)
	w.End = model.NewDate(e.Year(), e.Month()+1, 0)
	return w, true
}

// Percent maps d linearly into the window, clamped to [0,100]. Absent
// dates map to 0.
func (w Window) Percent(d model.Date) float64 {
	if d.IsZero() || w.Start.IsZero() {
		return 0
	}
	span := w.End.Time().Sub(w.Start.Time())
	if span <= 0 {
		return 0
	}
	p := float64(d.Time().Sub(w.Start.Time())) / float64(span) * 100
	return min(max(p, 0), 100)
}

// MonthTick is one month boundary on the axis.
type MonthTick struct {
	Label  string  `json:"label"`
	Offset float64 `json:"offset"`
}

// Ticks lists every month start inside the window.
func (w Window) Ticks() []MonthTick {
	if w.Start.IsZero() {
		return nil
	}
	var out []MonthTick
	for d := w.Start.Time(); !d.After(w.End.Time()); d = d.AddDate(0, 1, 0) {
		md := model.DateOf(d)
		out = append(out, MonthTick{Label: md.MonthLabel(), Offset: w.Percent(md)})
	}
	return out
}

// Row is one task on the chart.
type Row struct {
	Task model.Task `json:"task"`
	// From and To are percentages; equal in single mode.
	From  float64             `json:"from"`
	To    float64             `json:"to"`
	Dated bool                `json:"dated"`
	Flags highlight.NodeFlags `json:"flags"`
}

// Opacity is the display opacity of the whole row.
func (r Row) Opacity() float64 {
	if r.Flags.Dimmed {
		return RowOpacityDimmed
	}
	return 1
}

// Group is one month heading and its rows.
type Group struct {
	Month string `json:"month"`
	Rows  []Row  `json:"rows"`
}

// Chart is the full timeline for a render pass.
type Chart struct {
	Mode   NodeMode    `json:"mode"`
	Window Window      `json:"window"`
	Ticks  []MonthTick `json:"ticks"`
	Groups []Group     `json:"groups"`
}

// Build lays out tasks on the timeline, using h for row flags.
func Build(tasks []model.Task, mode NodeMode, h highlight.Highlight) Chart {
	w, _ := WindowOf(tasks)
	c := Chart{Mode: mode, Window: w, Ticks: w.Ticks(), Groups: []Group{}}

	type bucket struct {
		start time.Time
		rows  []Row
	}
	buckets := make(map[string]*bucket)
	var undated []Row
	for _, t := range tasks {
		r := Row{Task: t, Flags: h.Node(t.ID)}
		a := anchor(t)
		if a.IsZero() {
			undated = append(undated, r)
			continue
		}
		r.Dated = true
		if mode == NodeRange {
			r.From, r.To = w.Percent(t.Start()), w.Percent(t.End())
			if r.To < r.From {
				r.To = r.From
			}
		} else {
			r.From = w.Percent(a)
			r.To = r.From
		}
		label := a.MonthLabel()
		b, ok := buckets[label]
		if !ok {
			at := a.Time()
			b = &bucket{start: time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC)}
			buckets[label] = b
		}
		b.rows = append(b.rows, r)
	}

	labels := make([]string, 0, len(buckets))
	for l := range buckets {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		return buckets[labels[i]].start.Before(buckets[labels[j]].start)
	})
	for _, l := range labels {
		c.Groups = append(c.Groups, Group{Month: l, Rows: buckets[l].rows})
	}
	if len(undated) > 0 {
		c.Groups = append(c.Groups, Group{Month: NoDateGroup, Rows: undated})
	}
	return c
}

// Rows flattens the chart in display order.
func (c Chart) Rows() []Row {
	var out []Row
	for _, g := range c.Groups {
		out = append(out, g.Rows...)
	}
	return out
}

// Link is one dependency drawn between timeline rows.
type Link struct {
	FromID string `json:"fromId"`
	ToID   string `json:"toId"`
}

// Links returns the edges between focus and its direct neighbours: blockers
// first, then dependents. Hidden tasks produce no links.
func Links(focusID string, tasks []model.Task) []Link {
	ix := depgraph.NewIndex(tasks)
	if !ix.Has(focusID) {
		return nil
	}
	var out []Link
	for _, p := range ix.Preds[focusID] {
		out = append(out, Link{FromID: p, ToID: focusID})
	}
	for _, s := range ix.Succs[focusID] {
		out = append(out, Link{FromID: focusID, ToID: s})
	}
	return out
}

// anchor is the date a task is grouped by and, in single mode, placed at.
func anchor(t model.Task) model.Date {
	if !t.Date.IsZero() {
		return t.Date
	}
	return t.StartDate
}
