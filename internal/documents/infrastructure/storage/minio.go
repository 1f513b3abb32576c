package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	documents "billing-docs/internal/documents/domain"
)

// MinioConfig locates the template bucket.
type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// MinioTemplates reads stored templates from an object store bucket.
type MinioTemplates struct {
	client *minio.Client
	bucket string
}

// NewMinioTemplates constructs a bucket-backed template source.
func NewMinioTemplates(cfg MinioConfig) (*MinioTemplates, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("storage: minio endpoint and bucket are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: create minio client: %w", err)
	}
	return &MinioTemplates{client: client, bucket: cfg.Bucket}, nil
}

// Open downloads a template object.
func (m *MinioTemplates) Open(ctx context.Context, name string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapObjectError(name, err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapObjectError(name, err)
	}
	return data, nil
}

func mapObjectError(name string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return documents.NewNotFound("template", name)
	}
	return fmt.Errorf("storage: get template %s: %w", name, err)
}
