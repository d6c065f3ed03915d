package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/hupe1980/seqrand"
	"github.com/hupe1980/seqrand/blobstore"
	"github.com/hupe1980/seqrand/blobstore/minio"
	"github.com/hupe1980/seqrand/blobstore/s3"
)

var errBadSpillURL = errors.New("spill url must be s3://bucket/prefix or minio://host:port/bucket/prefix")

// spillTarget is a parsed --spill-url.
type spillTarget struct {
	scheme   string
	endpoint string
	bucket   string
	prefix   string
	secure   bool
}

// parseSpillURL accepts
//
//	s3://bucket[/prefix]
//	minio://host:port/bucket[/prefix]       (TLS)
//	minio+http://host:port/bucket[/prefix]  (plain HTTP)
func parseSpillURL(raw string) (spillTarget, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return spillTarget{}, fmt.Errorf("%w: %w", seqrand.ErrInvalidConfig, err)
	}
	path := strings.Trim(u.Path, "/")

	var t spillTarget
	switch u.Scheme {
	case "s3":
		t = spillTarget{scheme: "s3", bucket: u.Host, prefix: path}
	case "minio", "minio+http":
		bucket, prefix, _ := strings.Cut(path, "/")
		t = spillTarget{
			scheme:   "minio",
			endpoint: u.Host,
			bucket:   bucket,
			prefix:   prefix,
			secure:   u.Scheme == "minio",
		}
		if t.endpoint == "" {
			return spillTarget{}, fmt.Errorf("%w: %w", seqrand.ErrInvalidConfig, errBadSpillURL)
		}
	default:
		return spillTarget{}, fmt.Errorf("%w: %w", seqrand.ErrInvalidConfig, errBadSpillURL)
	}
	if t.bucket == "" {
		return spillTarget{}, fmt.Errorf("%w: %w", seqrand.ErrInvalidConfig, errBadSpillURL)
	}
	if t.prefix != "" {
		t.prefix += "/"
	}
	return t, nil
}

// openSpillStore connects to the store named by raw. The returned name prefix
// is empty so spill objects get the default prefix below the URL path.
func openSpillStore(ctx context.Context, raw string) (blobstore.Store, string, error) {
	t, err := parseSpillURL(raw)
	if err != nil {
		return nil, "", err
	}
	switch t.scheme {
	case "s3":
		store, err := s3.New(ctx, t.bucket, t.prefix)
		if err != nil {
			return nil, "", fmt.Errorf("s3 spill store: %w", err)
		}
		return store, "", nil
	default:
		client, err := minio.NewClient(t.endpoint, t.secure)
		if err != nil {
			return nil, "", fmt.Errorf("minio spill store: %w", err)
		}
		return minio.NewStore(client, t.bucket, t.prefix), "", nil
	}
}
