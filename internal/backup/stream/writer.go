// Package stream provides JSONL streaming to/from zip archives.
package stream

import (
	"archive/zip"
	"io"

	jsoniter "github.com/json-iterator/go"
)

//nolint:gochecknoglobals // Shared codec configuration
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Writer streams entities as JSONL to a zip archive.
type Writer struct {
	enc   *jsoniter.Encoder
	count int
}

// NewWriter creates a JSONL writer for a path within the zip.
func NewWriter(zw *zip.Writer, path string) (*Writer, error) {
	w, err := zw.Create(path)
	if err != nil {
		return nil, err
	}
	return &Writer{enc: json.NewEncoder(w)}, nil
}

// Write encodes a single entity as a JSON line.
func (w *Writer) Write(entity any) error {
	if err := w.enc.Encode(entity); err != nil {
		return err
	}
	w.count++
	return nil
}

// Count returns entities written so far.
func (w *Writer) Count() int {
	return w.count
}

// WriteFile writes v as a single JSON document at path.
func WriteFile(zw *zip.Writer, path string, v any) error {
	w, err := zw.Create(path)
	if err != nil {
		return err
	}
	return writeJSON(w, v)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
