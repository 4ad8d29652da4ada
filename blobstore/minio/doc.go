// Package minio provides a blobstore.Store implementation using the MinIO client.
//
// MinIO is an S3-compatible object storage system. This package uses the
// official MinIO Go client, which also works with Ceph, SeaweedFS and Garage.
//
// # Basic Usage
//
//	store, err := minioblob.New(minioblob.Config{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	}, "my-bucket", "scenes/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := exporter.ExportTo(ctx, store, "garden.sog", sources, sog.All())
//
// Streaming writes use an unknown-size multipart upload. Abort cancels the
// upload, so a failed export never leaves an object behind.
package minio
