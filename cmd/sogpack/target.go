package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/sog/blobstore"
	"github.com/hupe1980/sog/blobstore/minio"
	"github.com/hupe1980/sog/blobstore/s3"
	"github.com/hupe1980/sog/internal/config"
)

var errMinioEndpoint = errors.New("minio:// targets need -minio-endpoint or minio_endpoint")

// target is a blob addressed by a local path, s3://bucket/key or
// minio://bucket/key.
type target struct {
	scheme string
	bucket string
	key    string
}

func parseTarget(raw string) (target, error) {
	if !strings.Contains(raw, "://") {
		if raw == "" {
			return target{}, errors.New("empty path")
		}
		return target{scheme: "file", key: raw}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return target{}, err
	}
	switch u.Scheme {
	case "s3", "minio":
	default:
		return target{}, fmt.Errorf("unsupported scheme %q in %q", u.Scheme, raw)
	}

	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return target{}, fmt.Errorf("%q must have the form %s://bucket/key", raw, u.Scheme)
	}
	return target{scheme: u.Scheme, bucket: u.Host, key: key}, nil
}

func (t target) String() string {
	if t.scheme == "file" {
		return t.key
	}
	return t.scheme + "://" + t.bucket + "/" + t.key
}

// open returns the store holding t and the blob name inside it.
func (t target) open(ctx context.Context, cfg *config.Config) (blobstore.Store, string, error) {
	switch t.scheme {
	case "s3":
		var opts []s3.Option
		if cfg.S3Region != nil {
			opts = append(opts, s3.WithRegion(*cfg.S3Region))
		}
		if cfg.S3Profile != nil {
			opts = append(opts, s3.WithProfile(*cfg.S3Profile))
		}
		if cfg.S3PartSize != nil {
			up := s3.DefaultUploadConfig()
			up.PartSize = *cfg.S3PartSize
			opts = append(opts, s3.WithUpload(up))
		}
		store, err := s3.New(ctx, t.bucket, opts...)
		return store, t.key, err
	case "minio":
		if cfg.MinioEndpoint == nil || *cfg.MinioEndpoint == "" {
			return nil, "", errMinioEndpoint
		}
		mc := minio.Config{
			Endpoint:  *cfg.MinioEndpoint,
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
		}
		if cfg.MinioSecure != nil {
			mc.Secure = *cfg.MinioSecure
		}
		if cfg.S3Region != nil {
			mc.Region = *cfg.S3Region
		}
		store, err := minio.New(mc, t.bucket, "")
		return store, t.key, err
	default:
		dir, name := filepath.Split(filepath.Clean(t.key))
		if dir == "" {
			dir = "."
		}
		return blobstore.NewLocalStore(dir), name, nil
	}
}
