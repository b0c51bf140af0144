package export

import (
	"fmt"
	"os"
	"path/filepath"
)

// Artifact identifies a CSV file written to local storage.
type Artifact struct {
	Filename string
	Path     string
	Size     int64
}

// Writer materializes CSV documents into a dedicated export directory. It
// does not touch the export queue; tracking the artifact's lifecycle is the
// orchestrator's job.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer { return &Writer{dir: dir} }

// Write creates the export directory if needed and writes content under
// filename, returning the artifact's identity and byte size.
func (w *Writer) Write(filename, content string) (Artifact, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return Artifact{}, fmt.Errorf("mkdir export dir: %w", err)
	}
	path := filepath.Join(w.dir, filename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return Artifact{}, fmt.Errorf("write export: %w", err)
	}
	return Artifact{Filename: filename, Path: path, Size: int64(len(content))}, nil
}

// Remove deletes an exported file. Best effort: a file that is already gone
// is not an error.
func (w *Writer) Remove(path string) {
	_ = os.Remove(path)
}
