// Package archive writes the zip container of a SOG export.
//
// Entries are stored uncompressed, since every payload is already an
// entropy-coded image, and are written strictly in the order they are added.
package archive

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zip"
)

var (
	// ErrClosed is returned when adding to a closed writer.
	ErrClosed = errors.New("archive: writer closed")

	// ErrDuplicateEntry is returned when a name is added twice.
	ErrDuplicateEntry = errors.New("archive: duplicate entry")

	// ErrNotFound is returned when an entry does not exist.
	ErrNotFound = errors.New("archive: entry not found")
)

// Entry describes one stored file.
type Entry struct {
	Name string
	Size int64

	// Digest is the xxhash64 of the entry's content.
	Digest uint64
}

// Writer appends stored entries to a zip stream.
type Writer struct {
	zw       *zip.Writer
	modified time.Time
	entries  []Entry
	names    map[string]struct{}
	closed   bool
}

// NewWriter creates a writer that stamps entries with modified.
// A zero time selects the current time.
func NewWriter(w io.Writer, modified time.Time) *Writer {
	if modified.IsZero() {
		modified = time.Now()
	}
	return &Writer{
		zw:       zip.NewWriter(w),
		modified: modified,
		names:    make(map[string]struct{}),
	}
}

// Add stores data under name.
func (w *Writer) Add(name string, data []byte) (Entry, error) {
	if w.closed {
		return Entry{}, ErrClosed
	}
	if _, ok := w.names[name]; ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrDuplicateEntry, name)
	}

	fw, err := w.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Store,
		Modified: w.modified,
	})
	if err != nil {
		return Entry{}, fmt.Errorf("archive: create %q: %w", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return Entry{}, fmt.Errorf("archive: write %q: %w", name, err)
	}

	e := Entry{Name: name, Size: int64(len(data)), Digest: xxhash.Sum64(data)}
	w.names[name] = struct{}{}
	w.entries = append(w.entries, e)
	return e, nil
}

// Entries returns the entries written so far.
func (w *Writer) Entries() []Entry {
	return append([]Entry(nil), w.entries...)
}

// Close writes the central directory. It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.zw.Close()
}

// List reads the entries of an archive in stored order and digests them.
func List(r io.ReaderAt, size int64) ([]Entry, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("archive: open: %w", err)
	}

	out := make([]Entry, 0, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("archive: open %q: %w", f.Name, err)
		}
		h := xxhash.New()
		n, err := io.Copy(h, rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("archive: read %q: %w", f.Name, err)
		}
		out = append(out, Entry{Name: f.Name, Size: n, Digest: h.Sum64()})
	}
	return out, nil
}

// ReadFile returns the content of one entry.
func ReadFile(r io.ReaderAt, size int64, name string) ([]byte, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("archive: open: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("archive: open %q: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("archive: %q: %w", name, ErrNotFound)
}
