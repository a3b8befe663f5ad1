// Package upload stages uploaded files before they are parsed, either in
// memory or in a temporary file.
package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	KindMemory = "memory"
	KindDisk   = "disk"
)

var ErrTooLarge = errors.New("upload exceeds the size limit")

// Staged is an uploaded file ready to be read once. Close releases whatever
// backs it.
type Staged interface {
	io.ReadCloser
	Size() int64
}

type Storage interface {
	Stage(r io.Reader) (Staged, error)
}

// New returns the storage strategy named by kind.
func New(kind string, dir string, maxBytes int64) (Storage, error) {
	switch kind {
	case KindMemory:
		return NewMemoryStorage(maxBytes), nil
	case KindDisk:
		return NewDiskStorage(dir, maxBytes), nil
	default:
		return nil, fmt.Errorf("unsupported upload storage: '%s'", kind)
	}
}

// limitedCopy copies at most maxBytes from r into w and fails with
// ErrTooLarge when r has more.
func limitedCopy(w io.Writer, r io.Reader, maxBytes int64) (int64, error) {
	n, err := io.Copy(w, io.LimitReader(r, maxBytes+1))
	if err != nil {
		return n, err
	}

	if n > maxBytes {
		return n, ErrTooLarge
	}

	return n, nil
}

type MemoryStorage struct {
	maxBytes int64
}

func NewMemoryStorage(maxBytes int64) *MemoryStorage {
	return &MemoryStorage{maxBytes: maxBytes}
}

func (s *MemoryStorage) Stage(r io.Reader) (Staged, error) {
	var buf bytes.Buffer

	n, err := limitedCopy(&buf, r, s.maxBytes)
	if err != nil {
		return nil, err
	}

	return &memoryFile{Reader: bytes.NewReader(buf.Bytes()), size: n}, nil
}

type memoryFile struct {
	*bytes.Reader
	size int64
}

func (f *memoryFile) Close() error { return nil }

func (f *memoryFile) Size() int64 { return f.size }

type DiskStorage struct {
	dir      string
	maxBytes int64
}

func NewDiskStorage(dir string, maxBytes int64) *DiskStorage {
	return &DiskStorage{dir: dir, maxBytes: maxBytes}
}

func (s *DiskStorage) Stage(r io.Reader) (staged Staged, err error) {
	f, err := os.CreateTemp(s.dir, "upload-*.csv")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	n, err := limitedCopy(f, r, s.maxBytes)
	if err != nil {
		return nil, err
	}

	if _, err = f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind temp file: %w", err)
	}

	return &diskFile{File: f, size: n}, nil
}

type diskFile struct {
	*os.File
	size int64
}

func (f *diskFile) Size() int64 { return f.size }

// Close closes and removes the temp file.
func (f *diskFile) Close() error {
	closeErr := f.File.Close()
	if err := os.Remove(f.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return closeErr
}
