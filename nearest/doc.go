// Package nearest assigns points to their nearest centroid by squared
// Euclidean distance.
//
// A Searcher takes a batch of row-major points and centroids and writes one
// label per point. The CPU implementation processes rows in fixed-size
// batches, one batch at a time, and fans each batch out across workers.
// Centroids are scanned in chunks so that a chunk stays hot in cache while
// every row of a worker's slice is compared against it.
//
// With half precision enabled, points and centroids are rounded through
// IEEE-754 binary16 before distances are taken.
package nearest
