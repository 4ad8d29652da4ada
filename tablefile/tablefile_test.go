package tablefile

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sog/table"
	"github.com/hupe1980/sog/testutil"
)

func mixedTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.New(
		table.NewColumn("x", []float32{1.5, -2.25, 3, 0}),
		table.NewColumn("opacity", []uint8{0, 127, 255, 9}),
		table.NewColumn("id", []int32{-1, 2, -3, 4}),
		table.NewColumn("w", []float64{0.125, 1e9, -7, 42}),
		table.NewColumn("s", []int16{-300, 0, 300, 1}),
	)
	require.NoError(t, err)
	return tbl
}

func assertTablesEqual(t *testing.T, want, got *table.Table) {
	t.Helper()
	require.Equal(t, want.ColumnNames(), got.ColumnNames())
	require.Equal(t, want.NumRows(), got.NumRows())
	for i, wc := range want.Columns() {
		gc := got.Column(i)
		assert.Equal(t, wc.Data.Kind(), gc.Data.Kind(), wc.Name)
		if diff := cmp.Diff(wc.Float64s(), gc.Float64s()); diff != "" {
			t.Errorf("column %q mismatch (-want +got):\n%s", wc.Name, diff)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	splats := testutil.NewRNG(7).Splats(2000, testutil.SplatOptions{SHBands: 1})

	for _, c := range []Compression{CompressionNone, CompressionZstd, CompressionS2, CompressionLZ4} {
		t.Run(c.String(), func(t *testing.T) {
			for _, tbl := range []*table.Table{mixedTable(t), splats} {
				var buf bytes.Buffer
				n, err := Write(&buf, tbl, c)
				require.NoError(t, err)
				assert.Equal(t, int64(buf.Len()), n)

				got, err := Read(&buf)
				require.NoError(t, err)
				assertTablesEqual(t, tbl, got)
			}
		})
	}
}

func TestCompressionShrinksRedundantColumns(t *testing.T) {
	zeros, err := table.New(table.NewColumn("z", make([]float32, 1<<14)))
	require.NoError(t, err)

	var plain, packed bytes.Buffer
	_, err = Write(&plain, zeros, CompressionNone)
	require.NoError(t, err)
	_, err = Write(&packed, zeros, CompressionZstd)
	require.NoError(t, err)

	assert.Less(t, packed.Len(), plain.Len()/10)
}

func TestIncompressibleFallsBackToNone(t *testing.T) {
	tbl, err := table.New(table.NewColumn("u", []uint8{1, 2, 3}))
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = Write(&buf, tbl, CompressionLZ4)
	require.NoError(t, err)

	r := bytes.NewReader(buf.Bytes())
	var h FileHeader
	_, err = h.ReadFrom(r)
	require.NoError(t, err)
	assert.Equal(t, CompressionLZ4, h.Compression)

	var ch columnHeader
	require.NoError(t, ch.readFrom(r))
	assert.Equal(t, CompressionNone, ch.Compression)
	assert.Equal(t, uint64(3), ch.StoredSize)
}

func TestEmptyTable(t *testing.T) {
	tbl, err := table.New(table.NewColumn("x", []float32{}))
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = Write(&buf, tbl, CompressionZstd)
	require.NoError(t, err)

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, 0, got.NumRows())
	assert.Equal(t, []string{"x"}, got.ColumnNames())
}

func TestReadErrors(t *testing.T) {
	var buf bytes.Buffer
	_, err := Write(&buf, mixedTable(t), CompressionNone)
	require.NoError(t, err)
	good := buf.Bytes()

	mutate := func(f func(b []byte)) []byte {
		b := bytes.Clone(good)
		f(b)
		return b
	}

	t.Run("InvalidMagic", func(t *testing.T) {
		_, err := Read(bytes.NewReader(mutate(func(b []byte) { b[0] = 'X' })))
		assert.ErrorIs(t, err, ErrInvalidMagic)
	})

	t.Run("HeaderChecksum", func(t *testing.T) {
		_, err := Read(bytes.NewReader(mutate(func(b []byte) { b[16]++ })))
		assert.ErrorIs(t, err, ErrCorrupted)
	})

	t.Run("PayloadDigest", func(t *testing.T) {
		_, err := Read(bytes.NewReader(mutate(func(b []byte) { b[len(b)-1] ^= 0xFF })))
		assert.ErrorIs(t, err, ErrCorrupted)
	})

	t.Run("Truncated", func(t *testing.T) {
		_, err := Read(bytes.NewReader(good[:len(good)-3]))
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

		_, err = Read(bytes.NewReader(good[:10]))
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("FutureVersion", func(t *testing.T) {
		h := FileHeader{Magic: FormatMagic, Version: FormatVersion + 1, NumColumns: 1}
		var hb bytes.Buffer
		_, err := h.WriteTo(&hb)
		require.NoError(t, err)

		_, err = Read(&hb)
		assert.ErrorIs(t, err, ErrInvalidVersion)
	})
}

// forged builds a snapshot with a valid header checksum whose fields claim
// whatever the caller asks for.
func forged(t *testing.T, h FileHeader, ch *columnHeader, body []byte) []byte {
	t.Helper()

	h.Magic, h.Version = FormatMagic, FormatVersion
	var buf bytes.Buffer
	_, err := h.WriteTo(&buf)
	require.NoError(t, err)
	if ch != nil {
		require.NoError(t, ch.writeTo(&buf))
	}
	buf.Write(body)
	return buf.Bytes()
}

func TestReadForgedHeaders(t *testing.T) {
	t.Run("TooManyColumns", func(t *testing.T) {
		data := forged(t, FileHeader{NumColumns: 0xFFFFFFFF, NumRows: 1}, nil, nil)
		_, err := Read(bytes.NewReader(data))
		assert.ErrorIs(t, err, ErrCorrupted)

		data = forged(t, FileHeader{NumColumns: MaxColumns + 1, NumRows: 1}, nil, nil)
		_, err = Read(bytes.NewReader(data))
		assert.ErrorIs(t, err, ErrCorrupted)
	})

	t.Run("ColumnsBeyondInput", func(t *testing.T) {
		data := forged(t, FileHeader{NumColumns: MaxColumns, NumRows: 1}, nil, nil)
		_, err := Read(bytes.NewReader(data))
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("RowsBeyondLimit", func(t *testing.T) {
		const rows = 1 << 40
		ch := &columnHeader{Name: "x", Kind: uint8(table.KindFloat32), RawSize: rows * 4, StoredSize: rows * 4}
		data := forged(t, FileHeader{NumColumns: 1, NumRows: rows}, ch, nil)

		_, err := Read(bytes.NewReader(data))
		assert.ErrorIs(t, err, ErrTooLarge)
	})

	t.Run("PayloadBeyondInput", func(t *testing.T) {
		const rows = 1 << 28
		ch := &columnHeader{Name: "x", Kind: uint8(table.KindFloat32), RawSize: rows * 4, StoredSize: rows * 4}
		data := forged(t, FileHeader{NumColumns: 1, NumRows: rows}, ch, []byte{1, 2, 3})

		_, err := Read(bytes.NewReader(data))
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("CompressedSizeLie", func(t *testing.T) {
		const rows = 1 << 20
		for _, c := range []Compression{CompressionZstd, CompressionS2, CompressionLZ4} {
			garbage := bytes.Repeat([]byte{0xAB}, 16)
			ch := &columnHeader{Name: "x", Kind: uint8(table.KindFloat32), Compression: c, RawSize: rows * 4, StoredSize: uint64(len(garbage))}
			data := forged(t, FileHeader{NumColumns: 1, NumRows: rows}, ch, garbage)

			_, err := Read(bytes.NewReader(data))
			assert.ErrorIs(t, err, ErrCorrupted, c.String())
		}
	})

	t.Run("MaxBytes", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := Write(&buf, mixedTable(t), CompressionZstd)
		require.NoError(t, err)

		_, err = Read(bytes.NewReader(buf.Bytes()), WithMaxBytes(8))
		assert.ErrorIs(t, err, ErrTooLarge)

		_, err = Read(bytes.NewReader(buf.Bytes()), WithMaxBytes(1<<20))
		assert.NoError(t, err)
	})
}

func TestWriteErrors(t *testing.T) {
	_, err := Write(io.Discard, nil, CompressionNone)
	assert.ErrorIs(t, err, table.ErrNoColumns)

	_, err = Write(io.Discard, mixedTable(t), Compression(42))
	assert.ErrorIs(t, err, ErrUnsupportedCompression)
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionZstd, CompressionS2, CompressionLZ4} {
		got, err := ParseCompression(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	_, err := ParseCompression("brotli")
	assert.ErrorIs(t, err, ErrUnsupportedCompression)
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene"+Ext)
	tbl := mixedTable(t)

	require.NoError(t, WriteFile(path, tbl, CompressionS2))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assertTablesEqual(t, tbl, got)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing"+Ext))
	assert.Error(t, err)
}
