package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"srefhub/internal/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Options configures an S3Store. Endpoint is set for S3-compatible
// services such as MinIO, which also need path-style addressing.
type S3Options struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string
}

// S3Store keeps objects in an S3 bucket.
type S3Store struct {
	client    *s3.Client
	uploader  *manager.Uploader
	bucket    string
	publicURL string
}

// NewS3Store loads AWS configuration, preferring static credentials when given.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := opts.PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
	}

	return &S3Store{
		client:    client,
		uploader:  manager.NewUploader(client),
		bucket:    opts.Bucket,
		publicURL: publicURL,
	}, nil
}

// Put uploads the object with a long-lived cache header; keys are content addressed.
func (s *S3Store) Put(ctx context.Context, key string, r io.Reader, _ int64, contentType string) (string, error) {
	key, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	span, ctx := observability.StartExternalCall(ctx, "s3", "PutObject")
	defer span.End()

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         r,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		span.SetError(err)
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return s.URL(key), nil
}

// Delete removes key from the bucket.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}
	span, ctx := observability.StartExternalCall(ctx, "s3", "DeleteObject")
	defer span.End()

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		span.SetError(err)
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// URL returns the public URL for key.
func (s *S3Store) URL(key string) string {
	return joinURL(s.publicURL, key)
}

var _ ObjectStore = (*S3Store)(nil)
