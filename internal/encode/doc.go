// Package encode packs splat attributes into RGBA planes.
//
// Every codec reads the rows of a table in the order given by a permutation
// and writes row i of that order to pixel i of a plane. Positions are
// log-transformed and split into two 8-bit planes, rotations use the
// smallest-three quaternion layout, and scales, colors and spherical
// harmonics are vector-quantized against small codebooks.
package encode
