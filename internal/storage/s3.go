package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"foodgram/internal/middleware"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client the store uses.
type S3API interface {
	manager.UploadAPIClient
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config configures an S3Store.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	KeyID     string
	AccessKey string
	Timeout   time.Duration
}

// S3Store keeps images in an S3-compatible bucket.
type S3Store struct {
	client  S3API
	bucket  string
	baseURL string
	timeout time.Duration
}

// NewS3Store builds a path-style client; Endpoint targets S3-compatible servers.
func NewS3Store(cfg S3Config) *S3Store {
	opts := s3.Options{
		UsePathStyle: true,
		Region:       cfg.Region,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	if cfg.KeyID != "" {
		opts.Credentials = aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.KeyID, cfg.AccessKey, ""),
		)
	}
	return NewS3StoreWithClient(s3.New(opts), cfg)
}

// NewS3StoreWithClient wires an existing client.
func NewS3StoreWithClient(client S3API, cfg S3Config) *S3Store {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	baseURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", cfg.Bucket, cfg.Region)
	if cfg.Endpoint != "" {
		baseURL = strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket + "/"
	}
	return &S3Store{client: client, bucket: cfg.Bucket, baseURL: baseURL, timeout: timeout}
}

func (s *S3Store) Save(ctx context.Context, name, contentType string, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	uploader := manager.NewUploader(s.client)
	result, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(name),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		var mu manager.MultiUploadFailure
		if errors.As(err, &mu) {
			return "", fmt.Errorf("multi-upload failure (upload_id: %s): %w", mu.UploadID(), mu)
		}
		return "", fmt.Errorf("upload failure: %w", err)
	}
	middleware.Logger.DebugContext(ctx, "uploaded image", "key", name, "location", result.Location)
	return name, nil
}

func (s *S3Store) Delete(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	}); err != nil {
		return fmt.Errorf("delete object %s: %w", ref, err)
	}
	return nil
}

func (s *S3Store) URL(ref string) string {
	if ref == "" {
		return ""
	}
	return s.baseURL + ref
}
