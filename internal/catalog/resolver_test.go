package catalog

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPublicResolver(t *testing.T) {
	r := NewPublicResolver("https://abc.supabase.co/", "book-files", "book-covers")
	ctx := context.Background()

	file := r.ResolveFileURL(ctx, "books/b1.epub")
	require.NotNil(t, file)
	assert.Equal(t, "https://abc.supabase.co/storage/v1/object/public/book-files/books/b1.epub", *file)

	cover := r.ResolveCoverURL(ctx, "/covers/my cover.jpg")
	require.NotNil(t, cover)
	assert.Equal(t, "https://abc.supabase.co/storage/v1/object/public/book-covers/covers/my%20cover.jpg", *cover)
}

func TestPublicResolver_ReturnsNilInsteadOfFailing(t *testing.T) {
	ctx := context.Background()

	assert.Nil(t, NewPublicResolver("https://abc.supabase.co", "book-files", "").ResolveFileURL(ctx, "  "))
	assert.Nil(t, NewPublicResolver("https://abc.supabase.co", "book-files", "").ResolveCoverURL(ctx, "c.jpg"))
	assert.Nil(t, NewPublicResolver("not a url", "book-files", "").ResolveFileURL(ctx, "b.epub"))
	assert.Nil(t, NewPublicResolver("", "book-files", "").ResolveFileURL(ctx, "b.epub"))
}

func TestMinioResolver_PresignsWithoutNetwork(t *testing.T) {
	r, err := NewMinioResolver(MinioOptions{
		Endpoint:     "127.0.0.1:9000",
		AccessKey:    "minio",
		SecretKey:    "minio-secret",
		Region:       "us-east-1",
		FilesBucket:  "book-files",
		CoversBucket: "book-covers",
		Expiry:       10 * time.Minute,
	}, zap.NewNop())
	require.NoError(t, err)

	u := r.ResolveFileURL(context.Background(), "books/b1.epub")
	require.NotNil(t, u)
	assert.True(t, strings.HasPrefix(*u, "http://127.0.0.1:9000/book-files/books/b1.epub?"), *u)
	assert.Contains(t, *u, "X-Amz-Signature=")
	assert.Contains(t, *u, "X-Amz-Expires=600")

	assert.Nil(t, r.ResolveCoverURL(context.Background(), ""))
}
