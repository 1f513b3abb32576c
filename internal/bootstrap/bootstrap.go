package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"billing-docs/internal/auth"
	"billing-docs/internal/config"
	"billing-docs/internal/documents/application"
	"billing-docs/internal/documents/infrastructure/convertapi"
	"billing-docs/internal/documents/infrastructure/docx"
	"billing-docs/internal/documents/infrastructure/locale"
	docrepo "billing-docs/internal/documents/infrastructure/postgres"
	"billing-docs/internal/documents/infrastructure/storage"
)

// Documents is the wired render stack shared by the server and the CLI.
type Documents struct {
	Pipeline  *application.Pipeline
	Renderer  *docx.Renderer
	Uploads   *storage.Dir
	Documents *docrepo.DocumentRepository
}

// BuildDocuments wires the render pipeline against postgres, the configured
// template backend and the conversion service.
func BuildDocuments(cfg config.Config, db *sql.DB, logger *log.Logger) (*Documents, error) {
	if db == nil {
		return nil, errors.New("bootstrap: nil db")
	}
	uploads, err := storage.NewDir(cfg.Storage.UploadsDir)
	if err != nil {
		return nil, err
	}
	templates, err := TemplateSource(cfg, uploads)
	if err != nil {
		return nil, err
	}
	loc, err := locale.LoadLocation(cfg.Locale.Timezone)
	if err != nil {
		return nil, err
	}
	formatter, err := locale.NewFormatter(locale.Options{
		Language:       cfg.Locale.Language,
		CurrencySymbol: cfg.Locale.CurrencySymbol,
		Location:       loc,
	})
	if err != nil {
		return nil, err
	}
	converter, err := convertapi.NewClient(convertapi.Options{
		BaseURL:     cfg.Converter.BaseURL,
		Token:       cfg.Converter.Token,
		Timeout:     cfg.Converter.Timeout,
		ValidatePDF: cfg.Converter.ValidatePDF,
	})
	if err != nil {
		return nil, err
	}

	renderer := docx.NewRenderer()
	docs := docrepo.NewDocumentRepository(db)
	pipeline, err := application.NewPipeline(application.Dependencies{
		Documents: docs,
		Contracts: docrepo.NewContractRepository(db),
		Proposals: docrepo.NewProposalRepository(db),
		Accounts:  docrepo.NewAccountRepository(db),
		Items:     docrepo.NewItemRepository(db),
		Templates: templates,
		Outputs:   uploads,
		Renderer:  renderer,
		Converter: converter,
		Formatter: formatter,
	},
		application.WithObserver(application.NewMetricsObserver(logger)),
		application.WithRecordGuard(auth.EnsureRecordCompany),
		application.WithLeadMonths(cfg.Schedule.LeadMonths),
		application.WithOneTimeLabel(cfg.Items.OneTimeLabel),
	)
	if err != nil {
		return nil, err
	}
	return &Documents{Pipeline: pipeline, Renderer: renderer, Uploads: uploads, Documents: docs}, nil
}

// TemplateSource returns the configured template backend.
func TemplateSource(cfg config.Config, uploads *storage.Dir) (application.TemplateSource, error) {
	switch cfg.Storage.TemplateBackend {
	case "", config.TemplateBackendFS:
		return uploads, nil
	case config.TemplateBackendMinio:
		return storage.NewMinioTemplates(cfg.Storage.Minio)
	default:
		return nil, fmt.Errorf("bootstrap: unknown template backend %q", cfg.Storage.TemplateBackend)
	}
}
