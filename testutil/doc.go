// Package testutil provides testing utilities for sog.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded, thread-safe RNG and generators for synthetic splat
// tables.
//
// # Synthetic Splats
//
//	rng := testutil.NewRNG(seed)
//	tbl := rng.Splats(4096, testutil.SplatOptions{SHBands: 1, Clusters: 4})
//
// # Random Values
//
//	q := rng.UnitQuaternion()
//	xs := rng.Gaussian(1000, 5, 0.5)
package testutil
