// Package archive keeps copies of rendered badges outside the HTTP response.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Badge is a rendered badge handed to archivers.
type Badge struct {
	InvocationID string
	Name         string
	// Base64 is the PNG, base64-encoded.
	Base64 string
}

// ImgTag returns the HTML fragment embedding the badge.
func ImgTag(b64 string) string {
	return fmt.Sprintf(`<img src="data:image/png;base64,%s">`, b64)
}

// Archiver stores a badge somewhere.
type Archiver interface {
	Archive(ctx context.Context, b Badge) error
}

// Multi fans a badge out to every archiver and joins their errors.
type Multi []Archiver

func (m Multi) Archive(ctx context.Context, b Badge) error {
	var errs []error
	for _, a := range m {
		if err := a.Archive(ctx, b); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DebugHTML overwrites a single HTML file with the latest badge on a black
// background, handy for eyeballing output during local development.
type DebugHTML struct {
	path string
	mu   sync.Mutex
}

// NewDebugHTML returns a DebugHTML writing to path.
func NewDebugHTML(path string) *DebugHTML {
	return &DebugHTML{path: path}
}

func (d *DebugHTML) Archive(_ context.Context, b Badge) error {
	page := "<body style='background: black'>" + ImgTag(b.Base64) + "</body>"

	d.mu.Lock()
	defer d.mu.Unlock()

	// Write then rename so readers never see a half-written page.
	tmp, err := os.CreateTemp(filepath.Dir(d.path), ".debug-*.html")
	if err != nil {
		return fmt.Errorf("debug html: %w", err)
	}
	if _, err := tmp.WriteString(page); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("debug html: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("debug html: %w", err)
	}
	if err := os.Rename(tmp.Name(), d.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("debug html: %w", err)
	}
	return nil
}
