package bootstrap

import (
	"testing"

	"billing-docs/internal/config"
	"billing-docs/internal/documents/infrastructure/storage"
)

func TestTemplateSource(t *testing.T) {
	uploads, err := storage.NewDir(t.TempDir())
	if err != nil {
		t.Fatalf("uploads: %v", err)
	}

	src, err := TemplateSource(config.Config{Storage: config.StorageConfig{TemplateBackend: config.TemplateBackendFS}}, uploads)
	if err != nil || src != uploads {
		t.Fatalf("expected uploads dir, got %v %v", src, err)
	}

	cfg := config.Config{Storage: config.StorageConfig{
		TemplateBackend: config.TemplateBackendMinio,
		Minio:           storage.MinioConfig{Endpoint: "localhost:9000", Bucket: "templates"},
	}}
	src, err = TemplateSource(cfg, uploads)
	if err != nil {
		t.Fatalf("minio source: %v", err)
	}
	if _, ok := src.(*storage.MinioTemplates); !ok {
		t.Fatalf("expected minio source, got %T", src)
	}

	if _, err := TemplateSource(config.Config{Storage: config.StorageConfig{TemplateBackend: "ftp"}}, uploads); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestBuildDocuments_NilDB(t *testing.T) {
	if _, err := BuildDocuments(config.Config{}, nil, nil); err == nil {
		t.Fatalf("expected error for nil db")
	}
}
