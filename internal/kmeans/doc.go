// Package kmeans builds codebooks with Lloyd's algorithm.
//
// Run partitions the rows of a table into k clusters and returns the
// centroid table plus one label per row. Cluster1D treats every value of a
// multi-column table as a scalar sample and quantizes them all against one
// shared, ascending 256-entry codebook.
//
// Nearest-centroid assignment is delegated to a nearest.Searcher. Each call
// holds the compute slot of a resource.Controller for its whole duration, so
// concurrent callers sharing a controller run one at a time.
package kmeans
