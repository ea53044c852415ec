// Package storage keeps recipe image assets on the filesystem or in S3.
package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"path"
	"strings"
	"time"

	"foodgram/internal/config"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // register decoder
)

// ImageDir is the key prefix of every stored recipe image.
const ImageDir = "recipes/images"

// ErrInvalidImage is returned when a payload is not a decodable image data URI.
var ErrInvalidImage = errors.New("invalid image payload")

// ImageStore persists image bytes and resolves stored references to URLs.
type ImageStore interface {
	Save(ctx context.Context, name, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, ref string) error
	URL(ref string) string
}

// Image is a decoded data URI.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

// DecodeDataURI parses "data:image/<type>;base64,<payload>" and checks that
// the bytes decode as png, jpeg, gif or webp.
func DecodeDataURI(uri string) (*Image, error) {
	header, payload, ok := strings.Cut(strings.TrimSpace(uri), ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("%w: expected base64 image data URI", ErrInvalidImage)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	ext := format
	if ext == "jpeg" {
		ext = "jpg"
	}
	return &Image{Data: data, ContentType: "image/" + format, Ext: ext}, nil
}

// NewName returns a fresh object key under ImageDir.
func NewName(ext string) string {
	return path.Join(ImageDir, uuid.NewString()+"."+ext)
}

// New builds the store selected by STORAGE_DRIVER.
func New(cfg *config.Config) (ImageStore, error) {
	switch cfg.StorageDriver {
	case "", "local":
		return NewLocalStore(cfg.MediaRoot, cfg.MediaURL), nil
	case "s3":
		timeout, err := time.ParseDuration(cfg.S3Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid S3 timeout value: %w", err)
		}
		return NewS3Store(S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			KeyID:     cfg.S3KeyID,
			AccessKey: cfg.S3AccessKey,
			Timeout:   timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
