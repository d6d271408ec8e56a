package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// FileURLResolver maps a stored file path to a downloadable URL. A nil
// result means the URL could not be produced; it is never an error.
type FileURLResolver interface {
	ResolveFileURL(ctx context.Context, path string) *string
	ResolveCoverURL(ctx context.Context, path string) *string
}

// PublicResolver builds public bucket URLs on the catalog host.
type PublicResolver struct {
	baseURL      *url.URL
	filesBucket  string
	coversBucket string
}

var _ FileURLResolver = (*PublicResolver)(nil)

// NewPublicResolver returns a resolver for public buckets under baseURL. An
// unparsable baseURL yields a resolver that resolves nothing.
func NewPublicResolver(baseURL, filesBucket, coversBucket string) *PublicResolver {
	r := &PublicResolver{filesBucket: filesBucket, coversBucket: coversBucket}
	if u, err := url.Parse(strings.TrimRight(baseURL, "/")); err == nil && u.Scheme != "" && u.Host != "" {
		r.baseURL = u
	}
	return r
}

func (r *PublicResolver) ResolveFileURL(_ context.Context, path string) *string {
	return r.resolve(r.filesBucket, path)
}

func (r *PublicResolver) ResolveCoverURL(_ context.Context, path string) *string {
	return r.resolve(r.coversBucket, path)
}

func (r *PublicResolver) resolve(bucket, path string) *string {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if r.baseURL == nil || bucket == "" || path == "" {
		return nil
	}

	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}

	u := *r.baseURL
	u.RawPath = ""
	full := u.String() + "/storage/v1/object/public/" + url.PathEscape(bucket) + "/" + strings.Join(segments, "/")
	return &full
}

// MinioResolver presigns GET URLs against an S3-compatible object store.
type MinioResolver struct {
	client       *minio.Client
	filesBucket  string
	coversBucket string
	expiry       time.Duration
	logger       *zap.Logger
}

var _ FileURLResolver = (*MinioResolver)(nil)

// MinioOptions configures NewMinioResolver.
type MinioOptions struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Region       string
	UseSSL       bool
	FilesBucket  string
	CoversBucket string
	Expiry       time.Duration
}

// NewMinioResolver creates a presigning resolver. With Region set no request
// is made to the store until a presigned URL is used.
func NewMinioResolver(opts MinioOptions, logger *zap.Logger) (*MinioResolver, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	expiry := opts.Expiry
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &MinioResolver{
		client:       client,
		filesBucket:  opts.FilesBucket,
		coversBucket: opts.CoversBucket,
		expiry:       expiry,
		logger:       logger.Named("minio"),
	}, nil
}

func (r *MinioResolver) ResolveFileURL(ctx context.Context, path string) *string {
	return r.presign(ctx, r.filesBucket, path)
}

func (r *MinioResolver) ResolveCoverURL(ctx context.Context, path string) *string {
	return r.presign(ctx, r.coversBucket, path)
}

func (r *MinioResolver) presign(ctx context.Context, bucket, key string) *string {
	key = strings.Trim(strings.TrimSpace(key), "/")
	if bucket == "" || key == "" {
		return nil
	}
	u, err := r.client.PresignedGetObject(ctx, bucket, key, r.expiry, nil)
	if err != nil {
		r.logger.Warn("Failed to presign object URL", zap.String("bucket", bucket), zap.String("key", key), zap.Error(err))
		return nil
	}
	s := u.String()
	return &s
}
