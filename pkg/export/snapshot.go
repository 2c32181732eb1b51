package export

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GraphSnapshotOptions controls SaveGraphSnapshot.
type GraphSnapshotOptions struct {
	Path string
	// Format is "svg" or "png"; empty infers it from Path's extension.
	Format string
	Scene  Scene
}

// SaveGraphSnapshot writes the dependency map to a file.
func SaveGraphSnapshot(opts GraphSnapshotOptions) error {
	format := strings.ToLower(opts.Format)
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(opts.Path)), ".")
	}
	var render func(*bufio.Writer) error
	switch format {
	case "svg":
		render = func(w *bufio.Writer) error { return RenderSVG(w, opts.Scene) }
	case "png":
		render = func(w *bufio.Writer) error { return RenderPNG(w, opts.Scene) }
	default:
		return fmt.Errorf("unsupported snapshot format %q (want svg or png)", format)
	}

	if dir := filepath.Dir(opts.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}
	f, err := os.Create(opts.Path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := render(w); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", format, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	return f.Close()
}
