package blobstore

import (
	"bytes"
	"context"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"
)

// MemoryStore keeps blobs in a map. Committed blobs are immutable, so
// readers share the stored bytes. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte

	// pending counts writable blobs neither committed nor aborted.
	pending int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// Open opens a committed blob.
func (m *MemoryStore) Open(_ context.Context, name string) (Blob, error) {
	m.mu.RLock()
	data, ok := m.blobs[name]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return memoryBlob(data), nil
}

// Create starts a blob that becomes visible on Close.
func (m *MemoryStore) Create(_ context.Context, name string) (WritableBlob, error) {
	m.mu.Lock()
	m.pending++
	m.mu.Unlock()

	return &memoryWritableBlob{store: m, name: name}, nil
}

// Put stores a copy of data under name.
func (m *MemoryStore) Put(_ context.Context, name string, data []byte) error {
	m.commit(name, bytes.Clone(data), false)
	return nil
}

// Delete removes a blob. Missing blobs are ignored.
func (m *MemoryStore) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	delete(m.blobs, name)
	m.mu.Unlock()
	return nil
}

// List returns the sorted names starting with prefix.
func (m *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	names := slices.Sorted(maps.Keys(m.blobs))
	m.mu.RUnlock()

	return slices.DeleteFunc(names, func(name string) bool {
		return !strings.HasPrefix(name, prefix)
	}), nil
}

// Pending returns the number of writable blobs still open.
func (m *MemoryStore) Pending() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pending
}

func (m *MemoryStore) commit(name string, data []byte, fromWriter bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if data != nil {
		m.blobs[name] = data
	}
	if fromWriter {
		m.pending--
	}
}

type memoryBlob []byte

func (b memoryBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(b)) {
		return 0, io.EOF
	}
	n := copy(p, b[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b memoryBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	if off < 0 || off > int64(len(b)) {
		return nil, io.EOF
	}
	end := min(off+length, int64(len(b)))
	return io.NopCloser(bytes.NewReader(b[off:end])), nil
}

func (b memoryBlob) Size() int64 { return int64(len(b)) }

func (memoryBlob) Close() error { return nil }

type memoryWritableBlob struct {
	store *MemoryStore
	name  string
	buf   bytes.Buffer

	closed  bool
	aborted bool
}

func (w *memoryWritableBlob) Write(p []byte) (int, error) {
	if w.closed || w.aborted {
		return 0, ErrClosed
	}
	return w.buf.Write(p)
}

func (w *memoryWritableBlob) Close() error {
	if w.closed || w.aborted {
		return ErrClosed
	}
	w.closed = true
	w.store.commit(w.name, bytes.Clone(w.buf.Bytes()), true)
	w.buf.Reset()
	return nil
}

func (w *memoryWritableBlob) Abort() error {
	if w.closed || w.aborted {
		return nil
	}
	w.aborted = true
	w.buf.Reset()
	w.store.commit(w.name, nil, true)
	return nil
}
