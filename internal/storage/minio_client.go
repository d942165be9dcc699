package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"blogapi/internal/config"
)

type minioAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
}

type MinIOClient struct {
	client    minioAPI
	bucket    string
	baseURL   string
	public    bool
	urlExpiry time.Duration
}

func NewMinIOClient(ctx context.Context, cfg config.Storage) (*MinIOClient, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: create client: %w", err)
	}

	m := newMinIOClient(client, cfg)
	if err := m.ensureBucket(ctx, cfg.Region); err != nil {
		return nil, err
	}

	return m, nil
}

func newMinIOClient(client minioAPI, cfg config.Storage) *MinIOClient {
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}

	return &MinIOClient{
		client:    client,
		bucket:    cfg.Bucket,
		baseURL:   fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket),
		public:    cfg.Public,
		urlExpiry: cfg.URLExpiry,
	}
}

func (m *MinIOClient) ensureBucket(ctx context.Context, region string) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("minio: check bucket %s: %w", m.bucket, err)
	}

	if exists {
		return nil
	}

	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("minio: create bucket %s: %w", m.bucket, err)
	}

	return nil
}

func (m *MinIOClient) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, body, size,
		minio.PutObjectOptions{
			ContentType: contentType,
			UserMetadata: map[string]string{
				"uploaded-at": time.Now().UTC().Format(time.RFC3339),
			},
		})
	if err != nil {
		return fmt.Errorf("minio: upload %s: %w", key, err)
	}

	return nil
}

func (m *MinIOClient) Delete(ctx context.Context, key string) error {
	err := m.client.RemoveObject(ctx, m.bucket, key,
		minio.RemoveObjectOptions{
			GovernanceBypass: true,
		})
	if err != nil {
		return fmt.Errorf("minio: delete %s: %w", key, err)
	}

	return nil
}

func (m *MinIOClient) URL(ctx context.Context, key string) (string, error) {
	if m.public {
		return m.baseURL + "/" + key, nil
	}

	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, m.urlExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("minio: presign %s: %w", key, err)
	}

	return u.String(), nil
}
