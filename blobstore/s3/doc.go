// Package s3 provides an S3 implementation of the blobstore.Store interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("scenes/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	res, err := exporter.ExportTo(ctx, store, "garden.sog", sources, sog.All())
//
// # Features
//
//   - Streaming multipart uploads; an aborted write never creates an object
//   - Range reads for partial fetches
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
