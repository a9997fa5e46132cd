package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/noah-isme/fieldops-api/pkg/config"
)

type objectSource interface {
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// ObjectStoreFetcher reads s3://bucket/key addresses from an S3-compatible store.
type ObjectStoreFetcher struct {
	source   objectSource
	maxBytes int64
}

// NewObjectStoreFetcher connects a minio client to the configured endpoint.
func NewObjectStoreFetcher(cfg config.ObjectStoreConfig, maxBytes int64) (*ObjectStoreFetcher, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("object store endpoint is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}
	return &ObjectStoreFetcher{source: minioSource{client: client}, maxBytes: maxBytes}, nil
}

// Fetch implements Fetcher.
func (f *ObjectStoreFetcher) Fetch(ctx context.Context, address string) ([]byte, error) {
	bucket, key, err := ParseObjectAddress(address)
	if err != nil {
		return nil, err
	}
	obj, err := f.source.Open(ctx, bucket, key)
	if err != nil {
		return nil, translateObjectError(err)
	}
	defer obj.Close() //nolint:errcheck

	data, err := readLimited(obj, f.maxBytes)
	if err != nil {
		return nil, translateObjectError(err)
	}
	return data, nil
}

// ParseObjectAddress splits s3://bucket/key into its parts.
func ParseObjectAddress(address string) (bucket, key string, err error) {
	parsed, err := url.Parse(address)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrUnsupportedAddress, err)
	}
	if !strings.EqualFold(parsed.Scheme, "s3") {
		return "", "", fmt.Errorf("%w: scheme %q", ErrUnsupportedAddress, parsed.Scheme)
	}
	bucket = parsed.Host
	key = strings.TrimPrefix(parsed.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %s needs bucket and key", ErrUnsupportedAddress, address)
	}
	return bucket, key, nil
}

func translateObjectError(err error) error {
	if err == ErrTooLarge {
		return err
	}
	if resp := minio.ToErrorResponse(err); resp.StatusCode != 0 {
		return &StatusError{Code: resp.StatusCode}
	}
	return err
}

type minioSource struct {
	client *minio.Client
}

func (s minioSource) Open(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	return s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
}
