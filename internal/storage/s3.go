package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/lermo/backend/internal/config"
)

// UploadKind names the storage prefixes assets are filed under.
type UploadKind string

const (
	KindAvatar         UploadKind = "user-avatar"
	KindBanner         UploadKind = "user-banner"
	KindVideoThumbnail UploadKind = "video-thumbnail"
	KindVideoSource    UploadKind = "video-source"
)

// UploadResult reports where an uploaded object landed.
type UploadResult struct {
	Key      string
	Location string
}

// S3Storage stores video assets and profile images in an S3-compatible
// bucket and mints presigned read URLs for them.
type S3Storage struct {
	client    *s3.Client
	uploader  *manager.Uploader
	presigner *s3.PresignClient
	bucket    string
	baseURL   string
}

// NewS3Storage configures a storage client targeting the provided object store.
func NewS3Storage(ctx context.Context, cfg config.ObjectStoreConfig) (*S3Storage, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 storage: bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if strings.TrimSpace(cfg.Endpoint) != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
			if service == s3.ServiceID {
				return aws.Endpoint{
					URL:           cfg.Endpoint,
					SigningRegion: cfg.Region,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		})
		loadOpts = append(loadOpts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	return &S3Storage{
		client:    client,
		uploader:  uploader,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		baseURL:   strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}, nil
}

// UploadFile streams the provided content to the bucket and returns the key
// and public location.
func (s *S3Storage) UploadFile(ctx context.Context, r io.Reader, path string) (UploadResult, error) {
	key := strings.TrimLeft(path, "/")
	if key == "" {
		return UploadResult{}, fmt.Errorf("s3 storage: empty key")
	}

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   manager.ReadSeekCloser(r),
	})
	if err != nil {
		return UploadResult{}, fmt.Errorf("s3 storage upload %s: %w", key, err)
	}

	location := key
	if s.baseURL != "" {
		location = fmt.Sprintf("%s/%s", s.baseURL, key)
	}

	return UploadResult{Key: key, Location: location}, nil
}

// UploadImage stores an image (avatar, banner, thumbnail) and returns its key.
func (s *S3Storage) UploadImage(ctx context.Context, r io.Reader, path string) (string, error) {
	key := strings.TrimLeft(path, "/")
	if key == "" {
		return "", fmt.Errorf("s3 storage: empty key")
	}

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        manager.ReadSeekCloser(r),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return "", fmt.Errorf("s3 storage upload image %s: %w", key, err)
	}

	return key, nil
}

// PresignedURL mints a time-limited read URL for the stored object.
func (s *S3Storage) PresignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	key := strings.TrimLeft(path, "/")
	if key == "" {
		return "", fmt.Errorf("s3 storage: empty key")
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("s3 storage presign %s: %w", key, err)
	}

	return req.URL, nil
}

// LocationPath returns the bucket prefix assets of the given kind are filed
// under.
func (s *S3Storage) LocationPath(kind UploadKind) string {
	return string(kind)
}
