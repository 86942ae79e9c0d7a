package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/mandalbook/mandalbook/internal/config"
)

// MaxUploadSize caps gallery uploads. Festival photos and short clips
// comfortably fit in 25MB.
const MaxUploadSize = 25 << 20

// allowedTypes maps accepted MIME types to the object key extension.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"video/mp4":  ".mp4",
	"video/webm": ".webm",
}

// Upload is the stored result of one gallery upload.
type Upload struct {
	Key         string
	URL         string
	ContentType string
	Size        int64
}

// Storage holds festival gallery objects in an S3-compatible bucket.
// Gallery objects are public-read; the showcase page serves them straight
// from the bucket or CDN without touching the API.
type Storage struct {
	client *s3.Client
	cfg    config.StorageConfig
}

// NewStorage builds the S3 client from static credentials. A custom
// endpoint with path-style addressing supports MinIO in development.
func NewStorage(cfg config.StorageConfig) (*Storage, error) {
	if cfg.Bucket == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, ErrInvalidConfig
	}

	opts := []func(*s3.Options){
		func(o *s3.Options) {
			o.Region = cfg.Region
			o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		},
	}
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.PathStyle
		})
	}

	return &Storage{client: s3.New(s3.Options{}, opts...), cfg: cfg}, nil
}

// Put validates, sniffs and uploads one gallery file under the
// festival's key prefix.
func (s *Storage) Put(ctx context.Context, festivalCode string, r io.Reader, size int64) (*Upload, error) {
	if size <= 0 {
		return nil, ErrEmptyFile
	}
	if size > MaxUploadSize {
		return nil, ErrFileTooLarge
	}

	// Sniff the real content type from the first bytes; the client's
	// declared type is not trusted.
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("media: read upload: %w", err)
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	ext, ok := allowedTypes[contentType]
	if !ok {
		return nil, ErrUnsupportedType
	}

	key := fmt.Sprintf("gallery/%s/%s%s", strings.ToLower(festivalCode), uuid.NewString(), ext)
	body := io.MultiReader(bytes.NewReader(head), r)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		ACL:           types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return nil, wrapS3Error(err, ErrUploadFailed)
	}

	return &Upload{
		Key:         key,
		URL:         s.PublicURL(key),
		ContentType: contentType,
		Size:        size,
	}, nil
}

// Delete removes a gallery object. A missing object is not an error: the
// row is being deleted anyway.
func (s *Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return wrapS3Error(err, ErrDeleteFailed)
	}
	return nil
}

// PublicURL builds the browsable URL for a stored object, preferring the
// configured CDN prefix.
func (s *Storage) PublicURL(key string) string {
	if s.cfg.PublicURL != "" {
		return strings.TrimSuffix(s.cfg.PublicURL, "/") + "/" + key
	}
	if s.cfg.Endpoint != "" {
		endpoint := strings.TrimSuffix(s.cfg.Endpoint, "/")
		if s.cfg.PathStyle {
			return fmt.Sprintf("%s/%s/%s", endpoint, s.cfg.Bucket, key)
		}
		return fmt.Sprintf("%s/%s", endpoint, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}
