package tablefile

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/hupe1980/sog/internal/conv"
	"github.com/hupe1980/sog/table"
)

// Write stores t in w. Every column is compressed with c unless that does
// not shrink it. It returns the number of bytes written.
func Write(w io.Writer, t *table.Table, c Compression) (int64, error) {
	if t == nil || t.NumColumns() == 0 {
		return 0, table.ErrNoColumns
	}
	if c > CompressionLZ4 {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedCompression, c)
	}

	if t.NumColumns() > MaxColumns {
		return 0, fmt.Errorf("tablefile: %d columns exceed the limit of %d", t.NumColumns(), MaxColumns)
	}
	numColumns, err := conv.Checked[uint32](t.NumColumns())
	if err != nil {
		return 0, err
	}

	cw := &countingWriter{w: w}
	h := FileHeader{
		Magic:       FormatMagic,
		Version:     FormatVersion,
		NumColumns:  numColumns,
		NumRows:     uint64(t.NumRows()), //nolint:gosec
		Compression: c,
	}
	if _, err := h.WriteTo(cw); err != nil {
		return cw.n, err
	}

	for _, col := range t.Columns() {
		if len(col.Name) == 0 || len(col.Name) > maxNameLen {
			return cw.n, fmt.Errorf("tablefile: invalid column name %q", col.Name)
		}
		raw, err := binary.Append(make([]byte, 0, col.Len()*col.Data.Kind().Size()), binary.LittleEndian, col.Data)
		if err != nil {
			return cw.n, fmt.Errorf("tablefile: column %q: %w", col.Name, err)
		}
		payload, used, err := compress(raw, c)
		if err != nil {
			return cw.n, err
		}

		ch := columnHeader{
			Name:        col.Name,
			Kind:        uint8(col.Data.Kind()),
			Compression: used,
			RawSize:     uint64(len(raw)),
			StoredSize:  uint64(len(payload)),
			Digest:      xxhash.Sum64(raw),
		}
		if err := ch.writeTo(cw); err != nil {
			return cw.n, err
		}
		if _, err := cw.Write(payload); err != nil {
			return cw.n, err
		}
	}
	return cw.n, nil
}

// ReadOption configures Read.
type ReadOption func(*readOptions)

type readOptions struct {
	maxBytes int64
}

// WithMaxBytes bounds the decoded column data of a snapshot. Values below 1
// keep DefaultMaxBytes.
func WithMaxBytes(n int64) ReadOption {
	return func(o *readOptions) {
		if n > 0 {
			o.maxBytes = n
		}
	}
}

// Read decodes a snapshot written by Write.
//
// Header fields are not trusted for allocation: buffers grow with the bytes
// actually read, and the decoded size is capped by WithMaxBytes.
func Read(r io.Reader, optFns ...ReadOption) (*table.Table, error) {
	o := readOptions{maxBytes: DefaultMaxBytes}
	for _, fn := range optFns {
		fn(&o)
	}

	var h FileHeader
	if _, err := h.ReadFrom(r); err != nil {
		return nil, err
	}

	rows, err := conv.Checked[int](h.NumRows)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupted, err)
	}

	budget := o.maxBytes
	var cols []*table.Column
	for i := uint32(0); i < h.NumColumns; i++ {
		col, err := readColumn(r, rows, budget)
		if err != nil {
			return nil, fmt.Errorf("tablefile: column %d: %w", i, err)
		}
		budget -= int64(col.Len() * col.Data.Kind().Size())
		cols = append(cols, col)
	}
	return table.New(cols...)
}

func readColumn(r io.Reader, rows int, budget int64) (*table.Column, error) {
	var ch columnHeader
	if err := ch.readFrom(r); err != nil {
		return nil, err
	}

	kind := table.Kind(ch.Kind)
	size := kind.Size()
	rawSize, err := conv.Checked[int](ch.RawSize)
	if err != nil || size == 0 || rawSize/size != rows || rawSize%size != 0 {
		return nil, ErrCorrupted
	}
	if ch.StoredSize > ch.RawSize || (ch.Compression == CompressionNone && ch.StoredSize != ch.RawSize) {
		return nil, ErrCorrupted
	}
	if int64(rawSize) > budget {
		return nil, fmt.Errorf("%w: column %q needs %d bytes", ErrTooLarge, ch.Name, rawSize)
	}

	payload, err := readPayload(r, int64(ch.StoredSize)) //nolint:gosec // bounded by rawSize
	if err != nil {
		return nil, err
	}
	raw, err := decompress(payload, ch.Compression, rawSize)
	if err != nil {
		return nil, err
	}
	if xxhash.Sum64(raw) != ch.Digest {
		return nil, fmt.Errorf("%w: digest mismatch for %q", ErrCorrupted, ch.Name)
	}

	data, err := table.NewData(kind, rows)
	if err != nil {
		return nil, err
	}
	if _, err := binary.Decode(raw, binary.LittleEndian, data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupted, err)
	}
	return &table.Column{Name: ch.Name, Data: data}, nil
}

// readPayload reads exactly n bytes, growing the buffer as data arrives.
func readPayload(r io.Reader, n int64) ([]byte, error) {
	var buf bytes.Buffer
	read, err := buf.ReadFrom(io.LimitReader(r, n))
	if err != nil {
		return nil, err
	}
	if read != n {
		return nil, io.ErrUnexpectedEOF
	}
	return buf.Bytes(), nil
}

// WriteFile writes t to path, replacing any existing file.
func WriteFile(path string, t *table.Table, c Compression) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if _, err := Write(bw, t, c); err != nil {
		_ = f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadFile reads the snapshot at path.
func ReadFile(path string, optFns ...ReadOption) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Read(bufio.NewReader(f), optFns...)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
