package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"billing-docs/internal/documents/infrastructure/storage"
)

const (
	TemplateBackendFS    = "fs"
	TemplateBackendMinio = "minio"
)

// Config is the service configuration.
type Config struct {
	HTTPAddr    string          `yaml:"http_addr"`
	DatabaseURL string          `yaml:"database_url"`
	JWTSecret   string          `yaml:"jwt_secret"`
	Storage     StorageConfig   `yaml:"storage"`
	Converter   ConverterConfig `yaml:"converter"`
	Locale      LocaleConfig    `yaml:"locale"`
	Schedule    ScheduleConfig  `yaml:"schedule"`
	Items       ItemsConfig     `yaml:"items"`
}

// StorageConfig selects where templates are read and outputs written.
type StorageConfig struct {
	UploadsDir      string              `yaml:"uploads_dir"`
	TemplateBackend string              `yaml:"template_backend"`
	Minio           storage.MinioConfig `yaml:"minio"`
}

// ConverterConfig configures the PDF conversion service.
type ConverterConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Token       string        `yaml:"token"`
	Timeout     time.Duration `yaml:"timeout"`
	ValidatePDF bool          `yaml:"validate_pdf"`
}

// LocaleConfig drives money and date formatting.
type LocaleConfig struct {
	Language       string `yaml:"language"`
	CurrencySymbol string `yaml:"currency_symbol"`
	Timezone       string `yaml:"timezone"`
}

type ScheduleConfig struct {
	LeadMonths int `yaml:"lead_months"`
}

type ItemsConfig struct {
	OneTimeLabel string `yaml:"one_time_label"`
}

// Load builds defaults, overlays the YAML file named by DOCGEN_CONFIG and
// then environment overrides.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr: ":8080",
		Storage: StorageConfig{
			UploadsDir:      "tmp/uploads",
			TemplateBackend: TemplateBackendFS,
		},
		Converter: ConverterConfig{
			BaseURL:     "https://v2.convertapi.com",
			Timeout:     60 * time.Second,
			ValidatePDF: true,
		},
		Locale: LocaleConfig{
			Language:       "pt-BR",
			CurrencySymbol: "R$",
			Timezone:       "America/Sao_Paulo",
		},
		Schedule: ScheduleConfig{LeadMonths: 1},
		Items:    ItemsConfig{OneTimeLabel: "Campo livre"},
	}

	if path := os.Getenv("DOCGEN_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	cfg.HTTPAddr = getenvDefault("HTTP_ADDR", cfg.HTTPAddr)
	cfg.DatabaseURL = getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", cfg.DatabaseURL))
	cfg.JWTSecret = getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", cfg.JWTSecret))

	cfg.Storage.UploadsDir = getenvDefault("DOCGEN_UPLOADS_DIR", cfg.Storage.UploadsDir)
	cfg.Storage.TemplateBackend = getenvDefault("DOCGEN_TEMPLATE_BACKEND", cfg.Storage.TemplateBackend)
	cfg.Storage.Minio.Endpoint = getenvDefault("MINIO_ENDPOINT", cfg.Storage.Minio.Endpoint)
	cfg.Storage.Minio.AccessKey = getenvDefault("MINIO_ACCESS_KEY", cfg.Storage.Minio.AccessKey)
	cfg.Storage.Minio.SecretKey = getenvDefault("MINIO_SECRET_KEY", cfg.Storage.Minio.SecretKey)
	cfg.Storage.Minio.Bucket = getenvDefault("MINIO_BUCKET", cfg.Storage.Minio.Bucket)
	cfg.Storage.Minio.Region = getenvDefault("MINIO_REGION", cfg.Storage.Minio.Region)
	cfg.Storage.Minio.UseSSL = getenvBool("MINIO_USE_SSL", cfg.Storage.Minio.UseSSL)

	cfg.Converter.BaseURL = getenvDefault("CONVERTAPI_BASE_URL", cfg.Converter.BaseURL)
	cfg.Converter.Token = getenvDefault("CONVERTAPI_TOKEN", cfg.Converter.Token)
	cfg.Converter.Timeout = getenvDuration("CONVERTAPI_TIMEOUT", cfg.Converter.Timeout)
	cfg.Converter.ValidatePDF = getenvBool("CONVERTAPI_VALIDATE_PDF", cfg.Converter.ValidatePDF)

	cfg.Locale.Language = getenvDefault("DOCGEN_LANGUAGE", cfg.Locale.Language)
	cfg.Locale.CurrencySymbol = getenvDefault("DOCGEN_CURRENCY_SYMBOL", cfg.Locale.CurrencySymbol)
	cfg.Locale.Timezone = getenvDefault("DOCGEN_TIMEZONE", cfg.Locale.Timezone)

	cfg.Schedule.LeadMonths = getenvIntDefault("DOCGEN_LEAD_MONTHS", cfg.Schedule.LeadMonths)
	cfg.Items.OneTimeLabel = getenvDefault("DOCGEN_ONE_TIME_LABEL", cfg.Items.OneTimeLabel)

	return cfg, nil
}

// Validate reports every missing or inconsistent setting at once.
func (c Config) Validate() error {
	var problems []string
	if c.DatabaseURL == "" {
		problems = append(problems, "database_url is required")
	}
	if c.JWTSecret == "" {
		problems = append(problems, "jwt_secret is required")
	}
	if c.Storage.UploadsDir == "" {
		problems = append(problems, "storage.uploads_dir is required")
	}
	switch c.Storage.TemplateBackend {
	case TemplateBackendFS:
	case TemplateBackendMinio:
		if c.Storage.Minio.Endpoint == "" || c.Storage.Minio.Bucket == "" {
			problems = append(problems, "storage.minio endpoint and bucket are required for the minio backend")
		}
	default:
		problems = append(problems, "storage.template_backend must be fs or minio")
	}
	if c.Converter.BaseURL == "" {
		problems = append(problems, "converter.base_url is required")
	}
	if c.Schedule.LeadMonths < 0 {
		problems = append(problems, "schedule.lead_months must not be negative")
	}
	if len(problems) > 0 {
		return errors.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
