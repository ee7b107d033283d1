package objectstore

import (
	"context"
	"errors"
	"testing"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePresigner struct {
	bucket, key string
	err         error
}

func (f *fakePresigner) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.bucket, f.key = *params.Bucket, *params.Key
	return &v4.PresignedHTTPRequest{URL: "https://signed.example/" + f.bucket + "/" + f.key}, nil
}

func TestDownloadURL_PassesHTTPThrough(t *testing.T) {
	s := &Signer{presign: &fakePresigner{}, ttl: time.Minute}

	got, err := s.DownloadURL(context.Background(), "https://cdn.example.com/b1.pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/b1.pdf", got)
}

func TestDownloadURL_PresignsS3(t *testing.T) {
	fake := &fakePresigner{}
	s := &Signer{presign: fake, ttl: time.Minute}

	got, err := s.DownloadURL(context.Background(), "s3://books/novels/b1.pdf")
	require.NoError(t, err)
	assert.Equal(t, "books", fake.bucket)
	assert.Equal(t, "novels/b1.pdf", fake.key)
	assert.Equal(t, "https://signed.example/books/novels/b1.pdf", got)
}

func TestDownloadURL_Errors(t *testing.T) {
	s := &Signer{presign: &fakePresigner{err: errors.New("no credentials")}, ttl: time.Minute}

	_, err := s.DownloadURL(context.Background(), "s3://books/b1.pdf")
	assert.ErrorContains(t, err, "no credentials")

	_, err = s.DownloadURL(context.Background(), "s3://books")
	assert.ErrorIs(t, err, ErrUnsupportedLocation)

	_, err = s.DownloadURL(context.Background(), "ftp://host/file")
	assert.ErrorIs(t, err, ErrUnsupportedLocation)
}

func TestNew_PresignsWithStaticCredentials(t *testing.T) {
	s, err := New(context.Background(), Config{
		Region:    "us-east-1",
		Endpoint:  "http://localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
		TTL:       5 * time.Minute,
	})
	require.NoError(t, err)

	got, err := s.DownloadURL(context.Background(), "s3://books/b1.pdf")
	require.NoError(t, err)
	assert.Contains(t, got, "http://localhost:9000/books/b1.pdf")
	assert.Contains(t, got, "X-Amz-Expires=300")
}
