// Package tablefile stores a table.Table as a compact binary snapshot.
//
// A snapshot starts with a fixed 64-byte header followed by one section per
// column. Each section carries the column name, element kind, the codec used
// for its payload and an xxhash digest of the uncompressed little-endian
// values:
//
//	header   [64]byte
//	column*  nameLen u16 | name | kind u8 | compression u8 |
//	         rawSize u64 | storedSize u64 | digest u64 | payload
//
// Payloads are compressed with zstd, s2 or lz4. A column whose payload does
// not shrink is stored uncompressed and flagged as such.
package tablefile
