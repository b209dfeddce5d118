package minio

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"time"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/ysyms/lastFrameV2/internal/domain/entity"
	"github.com/ysyms/lastFrameV2/internal/domain/port"
)

type Storage struct {
	client       *miniogo.Client
	uploadBucket string
	frameBucket  string
}

type StorageConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	UploadBucket string
	FrameBucket  string
}

func NewStorage(cfg StorageConfig) (*Storage, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &Storage{
		client:       client,
		uploadBucket: cfg.UploadBucket,
		frameBucket:  cfg.FrameBucket,
	}, nil
}

func (s *Storage) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range []string{s.uploadBucket, s.frameBucket} {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("check bucket %s: %w", bucket, err)
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, bucket, miniogo.MakeBucketOptions{}); err != nil {
				return fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
	}
	return nil
}

func (s *Storage) StatVideo(ctx context.Context, objectKey string) (*port.VideoObject, error) {
	info, err := s.client.StatObject(ctx, s.uploadBucket, objectKey, miniogo.StatObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("stat video: %w", err)
	}
	return &port.VideoObject{
		Key:         info.Key,
		ContentType: info.ContentType,
		Size:        info.Size,
	}, nil
}

func (s *Storage) DownloadVideo(ctx context.Context, objectKey string, destPath string) error {
	if err := s.client.FGetObject(ctx, s.uploadBucket, objectKey, destPath, miniogo.GetObjectOptions{}); err != nil {
		return fmt.Errorf("download video: %w", err)
	}
	return nil
}

func (s *Storage) UploadFrame(ctx context.Context, objectKey string, reader io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, s.frameBucket, objectKey, reader, size, miniogo.PutObjectOptions{
		ContentType: entity.ResultContentType,
	})
	if err != nil {
		return fmt.Errorf("upload frame: %w", err)
	}
	return nil
}

// FrameURL presigns a GET for a stored frame that downloads as fileName.
func (s *Storage) FrameURL(ctx context.Context, objectKey string, fileName string, expiry time.Duration) (string, error) {
	params := url.Values{}
	params.Set("response-content-disposition", mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))
	params.Set("response-content-type", entity.ResultContentType)

	u, err := s.client.PresignedGetObject(ctx, s.frameBucket, objectKey, expiry, params)
	if err != nil {
		return "", fmt.Errorf("presign frame: %w", err)
	}
	return u.String(), nil
}
