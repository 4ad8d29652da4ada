package tablefile

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the payload codec of a column.
type Compression uint8

const (
	// CompressionNone stores values uncompressed.
	CompressionNone Compression = 0
	// CompressionZstd uses zstd (best ratio).
	CompressionZstd Compression = 1
	// CompressionS2 uses s2 (fast, snappy compatible).
	CompressionS2 Compression = 2
	// CompressionLZ4 uses lz4 block compression.
	CompressionLZ4 Compression = 3
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionS2:
		return "s2"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// ParseCompression maps a codec name to its Compression.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "s2":
		return CompressionS2, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedCompression, name)
	}
}

var (
	zstdEncoderPool = sync.Pool{
		New: func() any {
			enc, err := zstd.NewWriter(nil,
				zstd.WithEncoderLevel(zstd.SpeedDefault),
				zstd.WithEncoderCRC(false),
			)
			if err != nil {
				panic(fmt.Sprintf("tablefile: zstd encoder: %v", err))
			}
			return enc
		},
	}
	zstdDecoderPool = sync.Pool{
		New: func() any {
			dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
			if err != nil {
				panic(fmt.Sprintf("tablefile: zstd decoder: %v", err))
			}
			return dec
		},
	}
)

// compress encodes data with c. It reports CompressionNone and returns
// data unchanged when the codec does not shrink the payload.
func compress(data []byte, c Compression) ([]byte, Compression, error) {
	if c == CompressionNone || len(data) == 0 {
		return data, CompressionNone, nil
	}

	var out []byte
	switch c {
	case CompressionZstd:
		enc := zstdEncoderPool.Get().(*zstd.Encoder)
		out = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	case CompressionS2:
		out = s2.Encode(nil, data)
	case CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("tablefile: lz4: %w", err)
		}
		out = dst[:n]
	default:
		return nil, 0, fmt.Errorf("%w: %s", ErrUnsupportedCompression, c)
	}

	if len(out) == 0 || len(out) >= len(data) {
		return data, CompressionNone, nil
	}
	return out, c, nil
}

// decompress reverses compress. rawSize is the expected decoded length.
func decompress(data []byte, c Compression, rawSize int) ([]byte, error) {
	var (
		out []byte
		err error
	)
	switch c {
	case CompressionNone:
		out = data
	case CompressionZstd:
		out, err = decodeZstd(data, rawSize)
	case CompressionS2:
		var n int
		if n, err = s2.DecodedLen(data); err == nil && n != rawSize {
			return nil, ErrCorrupted
		}
		if err == nil {
			out, err = s2.Decode(make([]byte, rawSize), data)
		}
	case CompressionLZ4:
		out = make([]byte, rawSize)
		var n int
		n, err = lz4.UncompressBlock(data, out)
		out = out[:max(n, 0)]
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, c)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupted, c, err)
	}
	if len(out) != rawSize {
		return nil, ErrCorrupted
	}
	return out, nil
}

// decodeZstd streams data through a pooled decoder. Output is read at most
// one byte past rawSize, so frame headers cannot force a larger allocation.
func decodeZstd(data []byte, rawSize int) ([]byte, error) {
	dec := zstdDecoderPool.Get().(*zstd.Decoder)
	defer func() {
		_ = dec.Reset(nil)
		zstdDecoderPool.Put(dec)
	}()

	if err := dec.Reset(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(io.LimitReader(dec, int64(rawSize)+1)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
