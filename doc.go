// Package sog compresses Gaussian splat attributes into SOG archives.
//
// A SOG archive is a zip file of lossless WebP planes plus meta.json.
// Positions are log-transformed and quantized to 16 bits, rotations use the
// smallest-three quaternion encoding, and scales, colors and spherical
// harmonics are vector-quantized against small codebooks with k-means.
// Rows are laid out in Morton order so that the planes compress well.
//
// # Quick Start
//
//	tbl, _ := table.New(
//	    table.NewColumn("x", xs), table.NewColumn("y", ys), table.NewColumn("z", zs),
//	    // scale_0..2, rot_0..3, f_dc_0..2, opacity, optional f_rest_*
//	)
//
//	exp := sog.New(sog.WithIterations(10), sog.WithLogLevel(slog.LevelInfo))
//	res, err := exp.Export(ctx, []sog.Source{tbl}, sog.All(), f)
//
// # Cloud Output
//
// ExportTo streams into a blobstore and aborts the upload on failure, so a
// partial archive is never committed:
//
//	store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("scenes/"))
//	res, err := exp.ExportTo(ctx, store, "garden.sog", sources, sog.Bitmaps(selection))
//
// # Concurrency
//
// Stages of one export run strictly in sequence. The nearest-centroid search
// inside a clustering step runs in parallel batches. Only one clustering job
// runs at a time per resource.Controller; share a controller between
// exporters with WithController.
package sog
