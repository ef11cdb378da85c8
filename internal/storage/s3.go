package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

var _ Storage = (*S3Storage)(nil)

type S3Storage struct {
	client    *s3.Client
	bucket    string
	region    string
	publicURL string
}

// NewS3Storage serves images from bucket. publicURL, when set, replaces
// the virtual-hosted S3 URL (a CDN or the public endpoint of a
// compatible store).
func NewS3Storage(client *s3.Client, bucket, region, publicURL string) *S3Storage {
	return &S3Storage{
		client:    client,
		bucket:    bucket,
		region:    region,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func (s *S3Storage) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("upload to s3: %w", err)
	}
	return nil
}

func (s *S3Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *S3Storage) PublicURL(key string) string {
	return PublicURL(s.publicURL, s.bucket, s.region, key)
}

// PublicURL builds the address an uploaded object is served from.
func PublicURL(base, bucket, region, key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	if base != "" {
		return strings.TrimRight(base, "/") + "/" + escaped
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, escaped)
}
