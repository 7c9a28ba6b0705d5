// Package report writes the per-pass alert report to the local filesystem.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/coastal-alert-service/internal/domain"
)

// FileWriter writes the report as indented JSON, replacing the previous file.
type FileWriter struct {
	path string
}

// NewFileWriter returns a writer targeting path.
func NewFileWriter(path string) *FileWriter {
	return &FileWriter{path: path}
}

// Name labels this publisher in logs and metrics.
func (w *FileWriter) Name() string { return "file" }

// Path returns the target file.
func (w *FileWriter) Path() string { return w.path }

// Publish writes to a temp file in the target directory and renames it into
// place, so readers never see a partial report.
func (w *FileWriter) Publish(_ context.Context, r domain.Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp report: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck,gosec // write error takes precedence
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp report: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod report: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return fmt.Errorf("replace report: %w", err)
	}
	return nil
}
