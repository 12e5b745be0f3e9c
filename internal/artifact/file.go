// Package artifact reads and writes the flat-text files exchanged between the
// indexer, the query tools and upstream producers. Writes are atomic (temp
// file + rename); a path ending in ".zst" is transparently zstd-compressed.
package artifact

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	apperrors "github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/errors"
)

const compressedSuffix = ".zst"

// Writer writes one artifact line by line. Nothing is visible at the final
// path until Commit succeeds.
type Writer struct {
	finalPath string
	tmpPath   string
	file      *os.File
	zw        *zstd.Encoder
	buf       *bufio.Writer
	lines     int
}

// Create opens a temp file next to path, creating parent directories.
func Create(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating artifact directory: %w", err)
	}
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("creating temp artifact file: %w", err)
	}
	w := &Writer{finalPath: path, tmpPath: tmpPath, file: f}
	var dst io.Writer = f
	if strings.HasSuffix(path, compressedSuffix) {
		zw, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			os.Remove(tmpPath)
			return nil, fmt.Errorf("creating zstd encoder: %w", err)
		}
		w.zw = zw
		dst = zw
	}
	w.buf = bufio.NewWriterSize(dst, 64*1024)
	return w, nil
}

// WriteLine appends line and a newline.
func (w *Writer) WriteLine(line string) error {
	if _, err := w.buf.WriteString(line); err != nil {
		return fmt.Errorf("writing %s: %w", w.finalPath, err)
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		return fmt.Errorf("writing %s: %w", w.finalPath, err)
	}
	w.lines++
	return nil
}

// Lines reports how many lines have been written.
func (w *Writer) Lines() int {
	return w.lines
}

// Commit flushes, syncs and renames the temp file into place.
func (w *Writer) Commit() error {
	if err := w.buf.Flush(); err != nil {
		w.Abort()
		return fmt.Errorf("flushing %s: %w", w.finalPath, err)
	}
	if w.zw != nil {
		if err := w.zw.Close(); err != nil {
			w.Abort()
			return fmt.Errorf("closing zstd stream for %s: %w", w.finalPath, err)
		}
	}
	if err := w.file.Sync(); err != nil {
		w.Abort()
		return fmt.Errorf("syncing %s: %w", w.finalPath, err)
	}
	if err := w.file.Close(); err != nil {
		os.Remove(w.tmpPath)
		return fmt.Errorf("closing %s: %w", w.finalPath, err)
	}
	if err := os.Rename(w.tmpPath, w.finalPath); err != nil {
		os.Remove(w.tmpPath)
		return fmt.Errorf("renaming artifact file: %w", err)
	}
	return nil
}

// Abort discards the temp file. It is safe to call after a failed Commit.
func (w *Writer) Abort() {
	if w.zw != nil {
		w.zw.Close()
	}
	w.file.Close()
	os.Remove(w.tmpPath)
}

// WriteLines writes every line produced by emit into path atomically.
func WriteLines(path string, emit func(write func(string) error) error) (int, error) {
	w, err := Create(path)
	if err != nil {
		return 0, err
	}
	if err := emit(w.WriteLine); err != nil {
		w.Abort()
		return 0, err
	}
	if err := w.Commit(); err != nil {
		return 0, err
	}
	return w.Lines(), nil
}

// Open opens path for reading, decompressing when it ends in ".zst". A missing
// file is reported as a missing-resource error naming kind and path.
func Open(kind, path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.MissingResource(kind, path)
		}
		return nil, fmt.Errorf("opening %s %s: %w", kind, path, err)
	}
	if !strings.HasSuffix(path, compressedSuffix) {
		return f, nil
	}
	zr, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening zstd stream %s: %w", path, err)
	}
	return &zstdFile{Decoder: zr, file: f}, nil
}

type zstdFile struct {
	*zstd.Decoder
	file *os.File
}

func (z *zstdFile) Close() error {
	z.Decoder.Close()
	return z.file.Close()
}

// ReadLines calls fn for every line of path with its 1-based line number.
// Lines are passed untrimmed except for the trailing newline.
func ReadLines(kind, path string, fn func(lineNo int, line string) error) error {
	rc, err := Open(kind, path)
	if err != nil {
		return err
	}
	defer rc.Close()
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if err := fn(lineNo, strings.TrimRight(sc.Text(), "\r")); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading %s %s: %w", kind, path, err)
	}
	return nil
}

// ReadAll returns the whole (decompressed) content of path.
func ReadAll(kind, path string) ([]byte, error) {
	rc, err := Open(kind, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s %s: %w", kind, path, err)
	}
	return data, nil
}
