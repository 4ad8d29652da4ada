package tablefile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
)

const (
	// FormatMagic identifies table snapshots (ASCII: "SOGT").
	FormatMagic = 0x534F4754

	// FormatVersion is the current snapshot format version.
	FormatVersion uint32 = 1

	// HeaderSize is the size of the file header in bytes.
	HeaderSize = 64

	// Ext is the conventional file extension.
	Ext = ".sogt"

	// MaxColumns bounds the column count of a snapshot. A full splat table
	// with three SH bands has 59.
	MaxColumns = 4096

	// DefaultMaxBytes bounds the decoded column data of a snapshot read
	// without WithMaxBytes.
	DefaultMaxBytes = 8 << 30

	maxNameLen = 1024
)

var (
	// ErrInvalidMagic is returned when a file has an invalid magic number.
	ErrInvalidMagic = errors.New("tablefile: invalid magic number")

	// ErrInvalidVersion is returned when a file has an unsupported version.
	ErrInvalidVersion = errors.New("tablefile: unsupported format version")

	// ErrCorrupted is returned when a header or column fails validation.
	ErrCorrupted = errors.New("tablefile: file corrupted")

	// ErrTooLarge is returned when a snapshot exceeds the read size limit.
	ErrTooLarge = errors.New("tablefile: snapshot exceeds size limit")

	// ErrUnsupportedCompression is returned for unknown compression codes.
	ErrUnsupportedCompression = errors.New("tablefile: unsupported compression")
)

// FileHeader is the 64-byte header at the start of a snapshot.
//
// All multi-byte fields are little-endian.
type FileHeader struct {
	Magic       uint32
	Version     uint32
	Flags       uint32 // reserved, zero
	NumColumns  uint32
	NumRows     uint64
	Compression Compression // preferred codec used when writing
	Checksum    uint64      // xxhash of bytes [0:56)
}

// Validate checks that the header is valid.
func (h *FileHeader) Validate() error {
	if h.Magic != FormatMagic {
		return ErrInvalidMagic
	}
	if h.Version == 0 || h.Version > FormatVersion {
		return ErrInvalidVersion
	}
	if h.NumColumns == 0 || h.NumColumns > MaxColumns {
		return fmt.Errorf("%w: %d columns", ErrCorrupted, h.NumColumns)
	}
	return nil
}

// WriteTo writes the header to w.
func (h *FileHeader) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.Flags)
	binary.LittleEndian.PutUint32(buf[12:16], h.NumColumns)
	binary.LittleEndian.PutUint64(buf[16:24], h.NumRows)
	buf[24] = byte(h.Compression)
	// bytes [25:56) stay zero

	h.Checksum = xxhash.Sum64(buf[:56])
	binary.LittleEndian.PutUint64(buf[56:64], h.Checksum)

	n, err := w.Write(buf)
	return int64(n), err
}

// ReadFrom reads and validates the header from r.
func (h *FileHeader) ReadFrom(r io.Reader) (int64, error) {
	buf := make([]byte, HeaderSize)
	n, err := io.ReadFull(r, buf)
	if err != nil {
		return int64(n), err
	}

	h.Magic = binary.LittleEndian.Uint32(buf[0:4])
	h.Version = binary.LittleEndian.Uint32(buf[4:8])
	h.Flags = binary.LittleEndian.Uint32(buf[8:12])
	h.NumColumns = binary.LittleEndian.Uint32(buf[12:16])
	h.NumRows = binary.LittleEndian.Uint64(buf[16:24])
	h.Compression = Compression(buf[24])
	h.Checksum = binary.LittleEndian.Uint64(buf[56:64])

	if h.Magic != FormatMagic {
		return int64(n), ErrInvalidMagic
	}
	if h.Checksum != xxhash.Sum64(buf[:56]) {
		return int64(n), ErrCorrupted
	}

	return int64(n), h.Validate()
}

// columnHeader precedes every column payload.
type columnHeader struct {
	Name        string
	Kind        uint8
	Compression Compression
	RawSize     uint64
	StoredSize  uint64
	Digest      uint64
}

const columnFixedSize = 1 + 1 + 8 + 8 + 8

func (c *columnHeader) writeTo(w io.Writer) error {
	buf := make([]byte, 2+len(c.Name)+columnFixedSize)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(len(c.Name))) //nolint:gosec
	off := 2 + copy(buf[2:], c.Name)
	buf[off] = c.Kind
	buf[off+1] = byte(c.Compression)
	binary.LittleEndian.PutUint64(buf[off+2:], c.RawSize)
	binary.LittleEndian.PutUint64(buf[off+10:], c.StoredSize)
	binary.LittleEndian.PutUint64(buf[off+18:], c.Digest)
	_, err := w.Write(buf)
	return err
}

func (c *columnHeader) readFrom(r io.Reader) error {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	nameLen := int(binary.LittleEndian.Uint16(lenBuf[:]))
	if nameLen == 0 || nameLen > maxNameLen {
		return ErrCorrupted
	}

	buf := make([]byte, nameLen+columnFixedSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	c.Name = string(buf[:nameLen])
	off := nameLen
	c.Kind = buf[off]
	c.Compression = Compression(buf[off+1])
	c.RawSize = binary.LittleEndian.Uint64(buf[off+2:])
	c.StoredSize = binary.LittleEndian.Uint64(buf[off+10:])
	c.Digest = binary.LittleEndian.Uint64(buf[off+18:])
	return nil
}
