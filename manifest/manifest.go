// Package manifest defines meta.json, the index of a SOG archive.
//
// Field names, array shapes and file names are read by external decoders
// and must not change within a format version.
package manifest

import (
	"errors"
	"fmt"

	"github.com/hupe1980/sog/codec"
)

const (
	// Version is the format version written to meta.json.
	Version = 2

	// FileName is the archive entry holding the manifest.
	FileName = "meta.json"

	// MaxCodebook is the largest number of codebook entries.
	MaxCodebook = 256
)

// Archive entry names.
const (
	MeansLower   = "means_l.webp"
	MeansUpper   = "means_u.webp"
	Quats        = "quats.webp"
	Scales       = "scales.webp"
	SH0          = "sh0.webp"
	SHNCentroids = "shN_centroids.webp"
	SHNLabels    = "shN_labels.webp"
)

var (
	// ErrUnsupportedVersion is returned when decoding a manifest of another version.
	ErrUnsupportedVersion = errors.New("manifest: unsupported version")

	// ErrInvalid is returned when a manifest violates the format.
	ErrInvalid = errors.New("manifest: invalid")
)

// Meta is the content of meta.json.
type Meta struct {
	Version int      `json:"version"`
	Asset   Asset    `json:"asset"`
	Count   int      `json:"count"`
	Means   Means    `json:"means"`
	Scales  Codebook `json:"scales"`
	Quats   Files    `json:"quats"`
	SH0     Codebook `json:"sh0"`
	SHN     *SHN     `json:"shN,omitempty"`
}

// Asset describes the producer.
type Asset struct {
	Generator string `json:"generator"`
}

// Means holds the log-space position bounds.
type Means struct {
	Mins  []float64 `json:"mins"`
	Maxs  []float64 `json:"maxs"`
	Files []string  `json:"files"`
}

// Codebook is a palette-coded attribute.
type Codebook struct {
	Codebook []float32 `json:"codebook"`
	Files    []string  `json:"files"`
}

// Files lists the entries of an attribute without side data.
type Files struct {
	Files []string `json:"files"`
}

// SHN describes the spherical-harmonic palette.
type SHN struct {
	Count    int       `json:"count"`
	Bands    int       `json:"bands"`
	Codebook []float32 `json:"codebook"`
	Files    []string  `json:"files"`
}

// New returns a manifest with the fixed file lists filled in.
func New(generator string, count int) *Meta {
	return &Meta{
		Version: Version,
		Asset:   Asset{Generator: generator},
		Count:   count,
		Means:   Means{Files: []string{MeansLower, MeansUpper}},
		Scales:  Codebook{Files: []string{Scales}},
		Quats:   Files{Files: []string{Quats}},
		SH0:     Codebook{Files: []string{SH0}},
	}
}

// SetSH attaches the spherical-harmonic section.
func (m *Meta) SetSH(count, bands int, codebook []float32) {
	m.SHN = &SHN{
		Count:    count,
		Bands:    bands,
		Codebook: codebook,
		Files:    []string{SHNCentroids, SHNLabels},
	}
}

// Entries returns the plane files in archive order.
func (m *Meta) Entries() []string {
	var out []string
	out = append(out, m.Means.Files...)
	out = append(out, m.Quats.Files...)
	out = append(out, m.Scales.Files...)
	out = append(out, m.SH0.Files...)
	if m.SHN != nil {
		out = append(out, m.SHN.Files...)
	}
	return out
}

// Validate checks the structural rules of the format.
func (m *Meta) Validate() error {
	if m.Version != Version {
		return fmt.Errorf("%w: %d (expected %d)", ErrUnsupportedVersion, m.Version, Version)
	}
	if m.Count <= 0 {
		return fmt.Errorf("%w: count %d", ErrInvalid, m.Count)
	}
	if len(m.Means.Mins) != 3 || len(m.Means.Maxs) != 3 {
		return fmt.Errorf("%w: means bounds need 3 axes", ErrInvalid)
	}
	for name, cb := range map[string][]float32{"scales": m.Scales.Codebook, "sh0": m.SH0.Codebook} {
		if len(cb) == 0 || len(cb) > MaxCodebook {
			return fmt.Errorf("%w: %s codebook has %d entries", ErrInvalid, name, len(cb))
		}
	}
	if m.SHN != nil {
		if m.SHN.Bands < 1 || m.SHN.Bands > 3 {
			return fmt.Errorf("%w: shN bands %d", ErrInvalid, m.SHN.Bands)
		}
		if m.SHN.Count <= 0 || m.SHN.Count > 64*1024 {
			return fmt.Errorf("%w: shN count %d", ErrInvalid, m.SHN.Count)
		}
		if len(m.SHN.Codebook) == 0 || len(m.SHN.Codebook) > MaxCodebook {
			return fmt.Errorf("%w: shN codebook has %d entries", ErrInvalid, len(m.SHN.Codebook))
		}
	}
	return nil
}

// Marshal encodes m with c, or codec.Default if c is nil.
func (m *Meta) Marshal(c codec.Codec) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	data, err := c.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("manifest: encode with %s: %w", c.Name(), err)
	}
	return data, nil
}

// Unmarshal decodes and validates a manifest.
func Unmarshal(c codec.Codec, data []byte) (*Meta, error) {
	if c == nil {
		c = codec.Default
	}
	var m Meta
	if err := c.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: decode with %s: %w", c.Name(), err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}
