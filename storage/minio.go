package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/zoynulabedin/snowlightv2-sub000/config"
	"github.com/zoynulabedin/snowlightv2-sub000/logger"
	"github.com/zoynulabedin/snowlightv2-sub000/model"
)

// NewMinioClient 初始化 MinIO 客户端，并检查媒体存储桶是否存在
func NewMinioClient(ctx context.Context, cfg *config.Config) (*minio.Client, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		return nil, fmt.Errorf("media bucket %s does not exist", cfg.MinioBucket)
	}

	logger.Info("MinIO client ready",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket))
	return client, nil
}

// MinioResolver turns stored object keys into playable URLs.
type MinioResolver struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

// NewMinioResolver creates a resolver that presigns GET URLs valid for expiry.
func NewMinioResolver(client *minio.Client, bucket string, expiry time.Duration) *MinioResolver {
	return &MinioResolver{client: client, bucket: bucket, expiry: expiry}
}

// IsObjectKey reports whether ref names an object in the bucket rather
// than an absolute or site-relative URL.
func IsObjectKey(ref string) bool {
	if ref == "" || strings.HasPrefix(ref, "/") {
		return false
	}
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}

// ResolveURL presigns ref when it is an object key and returns it unchanged
// otherwise. An empty ref stays empty.
func (r *MinioResolver) ResolveURL(ctx context.Context, ref string) (string, error) {
	if !IsObjectKey(ref) {
		return ref, nil
	}
	u, err := r.client.PresignedGetObject(ctx, r.bucket, ref, r.expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", ref, err)
	}
	return u.String(), nil
}

// ResolveTrack rewrites the media references of t in place.
func (r *MinioResolver) ResolveTrack(ctx context.Context, t *model.Track) error {
	var err error
	if t.AudioURL, err = r.ResolveURL(ctx, t.AudioURL); err != nil {
		return err
	}
	if t.CoverURL, err = r.ResolveURL(ctx, t.CoverURL); err != nil {
		return err
	}
	return nil
}

// ResolveVideo rewrites the media references of v in place.
func (r *MinioResolver) ResolveVideo(ctx context.Context, v *model.Video) error {
	var err error
	if v.VideoURL, err = r.ResolveURL(ctx, v.VideoURL); err != nil {
		return err
	}
	if v.ThumbnailURL, err = r.ResolveURL(ctx, v.ThumbnailURL); err != nil {
		return err
	}
	return nil
}
