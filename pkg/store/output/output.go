// Package output persists generated documents.
package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DocxContentType is the media type of generated reports.
const DocxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Sink stores a rendered document under name and returns where it was written.
type Sink interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

type LocalSink struct {
	dir string
}

func NewLocalSink(dir string) *LocalSink {
	return &LocalSink{dir: dir}
}

// Save writes through a temporary file so a failed write never leaves a partial document.
func (s *LocalSink) Save(_ context.Context, name string, data []byte) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid document name %q", name)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-"+name+"-*")
	if err != nil {
		return "", fmt.Errorf("create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}

	dst := filepath.Join(s.dir, name)
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("move %s into place: %w", name, err)
	}
	return dst, nil
}

// MultiSink saves to every sink in order and reports the first location. It stops at
// the first failure.
type MultiSink []Sink

func (m MultiSink) Save(ctx context.Context, name string, data []byte) (string, error) {
	var first string
	for i, s := range m {
		loc, err := s.Save(ctx, name, data)
		if err != nil {
			return "", err
		}
		if i == 0 {
			first = loc
		}
	}
	return first, nil
}
