package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/storage"

	"golden-forge/internal/raster"
)

// fileReader exposes an open file as a fyne.URIReadCloser so the loader
// sees local paths the same way as any other URI source.
type fileReader struct {
	*os.File
	uri fyne.URI
}

func (r *fileReader) URI() fyne.URI {
	return r.uri
}

// OpenFile opens path for reading.
func OpenFile(path string) (fyne.URIReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", raster.ErrInput, err)
	}
	return &fileReader{File: f, uri: storage.NewFileURI(path)}, nil
}

// atomicWriter buffers output in a temporary file next to the target.
// Close renames it into place; Abort discards it. Readers of the target
// path therefore never observe a partially written bitmap.
type atomicWriter struct {
	tmp    *os.File
	target string
	uri    fyne.URI
	done   bool
}

// CreateAtomic starts a write to path. The caller must finish with
// exactly one of Close or Abort.
func CreateAtomic(path string) (*atomicWriter, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", raster.ErrEncoding, err)
	}
	return &atomicWriter{tmp: tmp, target: path, uri: storage.NewFileURI(path)}, nil
}

func (w *atomicWriter) Write(p []byte) (int, error) {
	return w.tmp.Write(p)
}

func (w *atomicWriter) URI() fyne.URI {
	return w.uri
}

// Close commits the temporary file to the target path.
func (w *atomicWriter) Close() error {
	if w.done {
		return nil
	}
	w.done = true
	if err := w.tmp.Close(); err != nil {
		os.Remove(w.tmp.Name())
		return fmt.Errorf("%w: %v", raster.ErrEncoding, err)
	}
	if err := os.Rename(w.tmp.Name(), w.target); err != nil {
		os.Remove(w.tmp.Name())
		return fmt.Errorf("%w: %v", raster.ErrEncoding, err)
	}
	return nil
}

// Abort drops everything written so far.
func (w *atomicWriter) Abort() {
	if w.done {
		return
	}
	w.done = true
	w.tmp.Close()
	os.Remove(w.tmp.Name())
}

var _ fyne.URIWriteCloser = (*atomicWriter)(nil)
