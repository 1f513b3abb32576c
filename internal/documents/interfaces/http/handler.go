package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"billing-docs/internal/audit"
	"billing-docs/internal/auth"
	"billing-docs/internal/documents/application"
	documents "billing-docs/internal/documents/domain"
	"billing-docs/internal/documents/interfaces"
	"billing-docs/internal/observability/metrics"
)

const maxTemplateBytes = 32 << 20

// TemplateInspector reports the placeholders a template uses.
type TemplateInspector interface {
	Inspect(template []byte) (documents.Schema, error)
}

// CompanyChecker verifies document ownership.
type CompanyChecker interface {
	EnsureDocumentCompany(ctx context.Context, companyID, documentID string) error
}

// Handler provides the document HTTP endpoints.
type Handler struct {
	pipeline    *application.Pipeline
	inspector   TemplateInspector
	checker     CompanyChecker
	auditLogger audit.Logger
	logger      *log.Logger
	router      chi.Router
}

// NewHandler constructs a handler. inspector, checker and auditLogger may be nil.
func NewHandler(pipeline *application.Pipeline, inspector TemplateInspector, checker CompanyChecker, auditLogger audit.Logger, logger *log.Logger) (*Handler, error) {
	if pipeline == nil {
		return nil, errors.New("documents handler: nil pipeline")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	h := &Handler{
		pipeline:    pipeline,
		inspector:   inspector,
		checker:     checker,
		auditLogger: auditLogger,
		logger:      logger,
	}
	h.router = h.routes()
	return h, nil
}

func (h *Handler) routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/api/v1/documents/{documentID}/contracts/{recordID}/print", h.handlePrint(documents.KindContract))
	r.Post("/api/v1/documents/{documentID}/proposals/{recordID}/print", h.handlePrint(documents.KindProposal))
	r.Get("/api/v1/contracts/{recordID}/annex.{format}", h.handleAnnex(documents.KindContract))
	r.Get("/api/v1/proposals/{recordID}/annex.{format}", h.handleAnnex(documents.KindProposal))
	r.Get("/api/v1/companies/{companyID}/documents", h.handleList)
	r.Post("/api/v1/templates/inspect", h.handleInspect)
	return r
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) handlePrint(kind documents.DocumentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		documentID := chi.URLParam(r, "documentID")
		recordID := chi.URLParam(r, "recordID")
		companyID := auth.CompanyIDFromContext(r.Context())

		if h.checker != nil {
			if err := h.checker.EnsureDocumentCompany(r.Context(), companyID, documentID); err != nil {
				h.respondError(w, err)
				return
			}
		}
		provider, ok := h.pipeline.Provider(kind)
		if !ok {
			http.Error(w, "unsupported document kind", http.StatusNotFound)
			return
		}

		result, err := h.pipeline.Render(r.Context(), provider, documentID, recordID)
		if err != nil {
			h.respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)

		meta, _ := json.Marshal(map[string]any{
			"generated_file": result.GeneratedFile,
			"pdf_url":        result.PDFURL,
		})
		h.logAudit(r, audit.ActionDocumentRender, kind, recordID, documentID, meta)
	}
}

func (h *Handler) handleAnnex(kind documents.DocumentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recordID := chi.URLParam(r, "recordID")
		format := chi.URLParam(r, "format")
		if format != "pdf" && format != "xlsx" {
			http.Error(w, "format must be pdf or xlsx", http.StatusNotFound)
			return
		}
		provider, ok := h.pipeline.Provider(kind)
		if !ok {
			http.Error(w, "unsupported document kind", http.StatusNotFound)
			return
		}

		start := time.Now()
		preview, err := h.pipeline.Preview(r.Context(), provider, recordID)
		if err != nil {
			metrics.ObserveAnnexExport(format, metrics.ResultError, time.Since(start))
			h.respondError(w, err)
			return
		}
		if err := auth.EnsureRecordCompany(r.Context(), preview.Record); err != nil {
			metrics.ObserveAnnexExport(format, metrics.ResultError, time.Since(start))
			h.respondError(w, err)
			return
		}

		var data []byte
		contentType := "application/pdf"
		if format == "pdf" {
			data, err = interfaces.BuildAnnexPDF(preview)
		} else {
			contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
			data, err = interfaces.BuildAnnexXLSX(preview)
		}
		metrics.ObserveAnnexExport(format, metrics.Result(err), time.Since(start))
		if err != nil {
			h.respondError(w, err)
			return
		}

		filename := fmt.Sprintf("%s_anexo.%s", preview.Record.OutputStem(), format)
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)

		meta, _ := json.Marshal(map[string]any{"format": format})
		h.logAudit(r, audit.ActionDocumentAnnex, kind, recordID, "", meta)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")
	if tokenCompany := auth.CompanyIDFromContext(r.Context()); tokenCompany != "" && tokenCompany != companyID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	list, err := h.pipeline.ListDocuments(r.Context(), companyID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	type documentView struct {
		ID           string `json:"id"`
		CompanyID    string `json:"company_id"`
		Name         string `json:"name"`
		TemplateFile string `json:"template_file"`
	}
	views := make([]documentView, 0, len(list))
	for _, doc := range list {
		views = append(views, documentView{ID: doc.ID, CompanyID: doc.CompanyID, Name: doc.Name, TemplateFile: doc.TemplateFile})
	}
	writeJSON(w, http.StatusOK, views)
}

type inspectResponse struct {
	Fields      documents.Schema `json:"fields"`
	Unsupported []string         `json:"unsupported"`
}

func (h *Handler) handleInspect(w http.ResponseWriter, r *http.Request) {
	if h.inspector == nil {
		http.Error(w, "template inspection disabled", http.StatusNotImplemented)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxTemplateBytes+1))
	if err != nil {
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	if len(body) == 0 {
		http.Error(w, "template body required", http.StatusBadRequest)
		return
	}
	if len(body) > maxTemplateBytes {
		http.Error(w, "template too large", http.StatusRequestEntityTooLarge)
		return
	}

	schema, err := h.inspector.Inspect(body)
	if err != nil {
		h.respondError(w, err)
		return
	}
	unsupported := schema.Unsupported(documents.DocumentSchema())
	if unsupported == nil {
		unsupported = []string{}
	}
	writeJSON(w, http.StatusOK, inspectResponse{Fields: schema, Unsupported: unsupported})
}

func (h *Handler) logAudit(r *http.Request, action string, kind documents.DocumentKind, recordID, documentID string, meta json.RawMessage) {
	if h.auditLogger == nil {
		return
	}
	err := h.auditLogger.Log(r.Context(), audit.Entry{
		CompanyID:    auth.CompanyIDFromContext(r.Context()),
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: kind.String(),
		ResourceID:   recordID,
		DocumentID:   documentID,
		Metadata:     meta,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
	if err != nil {
		h.logger.Printf("audit log failed: action=%s record=%s err=%v", action, recordID, err)
	}
}

type errorBody struct {
	Error      string                       `json:"error"`
	Missing    []string                     `json:"missing,omitempty"`
	Violations []documents.BindingViolation `json:"violations,omitempty"`
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var (
		missing  *documents.MissingRelatedDataError
		binding  *documents.TemplateBindingError
		convFail *documents.ConversionServiceError
	)
	switch {
	case errors.Is(err, auth.ErrCompanyMismatch):
		writeJSON(w, http.StatusForbidden, errorBody{Error: "forbidden"})
	case errors.Is(err, documents.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.As(err, &missing):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Missing: missing.Missing})
	case errors.As(err, &binding):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Violations: binding.Violations})
	case errors.Is(err, documents.ErrInvalidInstallments):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
	case errors.As(err, &convFail):
		writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error()})
	default:
		h.logger.Printf("documents handler error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
