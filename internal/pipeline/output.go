package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Output receives the finished document once every page has been stamped.
type Output interface {
	Commit(data []byte) error
}

// FileOutput writes the document to Path through a temporary file in the
// same directory, so a failed write never leaves a partial document.
type FileOutput struct {
	Path string
}

func (o FileOutput) Commit(data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(o.Path), ".barcoder-*.pdf")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, o.Path); err != nil {
		return fmt.Errorf("rename to %s: %w", o.Path, err)
	}
	return nil
}

// MemoryOutput keeps the document in memory.
type MemoryOutput struct {
	Data []byte
}

func (o *MemoryOutput) Commit(data []byte) error {
	o.Data = data
	return nil
}

// OutputPath returns the default output path: "barcoded_<name>" next to the
// input.
func OutputPath(input string) string {
	dir, name := filepath.Split(input)
	return filepath.Join(dir, "barcoded_"+name)
}

// ReadSource reads the input document, reporting ErrMissingInput when the
// path does not exist.
func ReadSource(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingInput, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
