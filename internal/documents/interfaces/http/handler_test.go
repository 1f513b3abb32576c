package http

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"billing-docs/internal/audit"
	"billing-docs/internal/auth"
	"billing-docs/internal/documents/application"
	documents "billing-docs/internal/documents/domain"
	"billing-docs/internal/documents/infrastructure/docx"
	"billing-docs/internal/documents/infrastructure/locale"
	"billing-docs/internal/documents/infrastructure/memory"
	"billing-docs/internal/documents/infrastructure/storage"
)

type stubConverter struct {
	err   error
	calls int
}

func (c *stubConverter) Convert(ctx context.Context, req documents.ConversionRequest) (*documents.Conversion, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	if err := os.WriteFile(req.TargetPath, []byte("%PDF-1.4"), 0o644); err != nil {
		return nil, err
	}
	return &documents.Conversion{RemoteURL: "https://converter.example/out.pdf", LocalPath: req.TargetPath, Pages: 1}, nil
}

type memoryAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (m *memoryAudit) Log(ctx context.Context, entry audit.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func docxWith(t *testing.T, text string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	_, _ = io.WriteString(f, `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>`+text+`</w:t></w:r></w:p></w:body></w:document>`)
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

type testEnv struct {
	dir       *storage.Dir
	store     *memory.Store
	converter *stubConverter
	audit     *memoryAudit
	handler   *Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir, err := storage.NewDir(t.TempDir())
	if err != nil {
		t.Fatalf("uploads dir: %v", err)
	}
	if _, err := dir.WriteFile("good.docx", docxWith(t, "{number} {responsable} {#items_unique}{name};{/items_unique}")); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if _, err := dir.WriteFile("broken.docx", docxWith(t, "{number} {nickname}")); err != nil {
		t.Fatalf("write template: %v", err)
	}

	store := memory.NewStore()
	store.PutDocument(documents.Document{ID: "doc-good", CompanyID: "co-1", Name: "Contrato", TemplateFile: "good.docx"})
	store.PutDocument(documents.Document{ID: "doc-broken", CompanyID: "co-1", Name: "Quebrado", TemplateFile: "broken.docx"})
	store.PutDocument(documents.Document{ID: "doc-other", CompanyID: "co-2", Name: "Outro", TemplateFile: "good.docx"})
	store.PutAccount(documents.Account{
		ID:        "acc-1",
		Contacts:  []documents.Contact{{Name: "Ana"}, {Name: "Bruno"}, {Name: "Carla"}},
		Addresses: []documents.Address{{City: "Curitiba"}},
	})
	store.PutAccount(documents.Account{ID: "acc-2", Contacts: []documents.Contact{{Name: "Ana"}}})
	store.PutItem(documents.Item{ID: "setup", Name: "Implantacao", Type: "UNICO"})
	store.PutRecord(documents.BusinessRecord{
		ID: "ctr-1", Kind: documents.KindContract, Number: "10", AccountID: "acc-1", CompanyID: "co-1",
		CreatedAt:  time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		SCSDueDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), SCSInstallments: 2, SCSAmount: decimal.NewFromInt(50),
		SoldItems: []documents.SoldItem{{ItemID: "setup", Quantity: decimal.NewFromInt(1), SalePrice: decimal.NewFromInt(100)}},
	})
	store.PutRecord(documents.BusinessRecord{ID: "ctr-2", Kind: documents.KindContract, Number: "11", AccountID: "acc-2", CompanyID: "co-1"})
	store.PutRecord(documents.BusinessRecord{ID: "prp-1", Kind: documents.KindProposal, Number: "5", AccountID: "acc-1", CompanyID: "co-2"})

	converter := &stubConverter{}
	pipeline, err := application.NewPipeline(application.Dependencies{
		Documents: store,
		Contracts: store.Contracts(),
		Proposals: store.Proposals(),
		Accounts:  store,
		Items:     store,
		Templates: dir,
		Outputs:   dir,
		Renderer:  docx.NewRenderer(),
		Converter: converter,
		Formatter: locale.MustNewFormatter(locale.Options{}),
	}, application.WithRecordGuard(auth.EnsureRecordCompany))
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	recorder := &memoryAudit{}
	handler, err := NewHandler(pipeline, docx.NewRenderer(), auth.NewDocumentCompanyChecker(store), recorder, nil)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	return &testEnv{dir: dir, store: store, converter: converter, audit: recorder, handler: handler}
}

func (e *testEnv) do(method, path, companyID string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req = req.WithContext(auth.WithIdentity(req.Context(), companyID, auth.RoleOperator, "user-1"))
	resp := httptest.NewRecorder()
	e.handler.ServeHTTP(resp, req)
	return resp
}

func TestPrint_Success(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodPost, "/api/v1/documents/doc-good/contracts/ctr-1/print", "co-1", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var result documents.RenderResult
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasSuffix(result.GeneratedFile, "Contrato_10.docx") || !strings.HasSuffix(result.PDFLocation, "Contrato_10.pdf") {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.PDFURL != "https://converter.example/out.pdf" || result.PDFPages != 1 {
		t.Fatalf("unexpected pdf fields %+v", result)
	}

	if len(env.audit.entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(env.audit.entries))
	}
	entry := env.audit.entries[0]
	if entry.Action != audit.ActionDocumentRender || entry.ResourceID != "ctr-1" || entry.DocumentID != "doc-good" || entry.CompanyID != "co-1" || entry.Role != "operator" {
		t.Fatalf("unexpected audit entry %+v", entry)
	}
}

func TestPrint_ErrorMapping(t *testing.T) {
	cases := []struct {
		name    string
		path    string
		company string
		status  int
		check   func(t *testing.T, body errorBody)
	}{
		{name: "missing record", path: "/api/v1/documents/doc-good/contracts/nope/print", status: http.StatusNotFound},
		{name: "missing document", path: "/api/v1/documents/nope/contracts/ctr-1/print", status: http.StatusNotFound},
		{name: "missing contacts", path: "/api/v1/documents/doc-good/contracts/ctr-2/print", status: http.StatusUnprocessableEntity,
			check: func(t *testing.T, body errorBody) {
				if len(body.Missing) == 0 {
					t.Fatalf("expected missing relations in body")
				}
			}},
		{name: "binding", path: "/api/v1/documents/doc-broken/contracts/ctr-1/print", status: http.StatusUnprocessableEntity,
			check: func(t *testing.T, body errorBody) {
				if len(body.Violations) != 1 || body.Violations[0].Field != "nickname" {
					t.Fatalf("unexpected violations %+v", body.Violations)
				}
			}},
		{name: "other company", path: "/api/v1/documents/doc-other/contracts/ctr-1/print", status: http.StatusForbidden},
		{name: "record of other company", path: "/api/v1/documents/doc-other/contracts/ctr-1/print", company: "co-2", status: http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			company := tc.company
			if company == "" {
				company = "co-1"
			}
			resp := env.do(http.MethodPost, tc.path, company, nil)
			if resp.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, resp.Code, resp.Body.String())
			}
			var body errorBody
			if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if tc.check != nil {
				tc.check(t, body)
			}
			if len(env.audit.entries) != 0 {
				t.Fatalf("failed renders must not be audited")
			}
		})
	}
}

func TestPrint_RecordOfOtherCompanyWritesNothing(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodPost, "/api/v1/documents/doc-other/contracts/ctr-1/print", "co-2", nil)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", resp.Code, resp.Body.String())
	}
	if env.converter.calls != 0 {
		t.Fatalf("converter must not run, got %d calls", env.converter.calls)
	}
	path, err := env.dir.Path("Contrato_10.docx")
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no output file, stat err=%v", err)
	}
}

func TestPrint_ConversionFailureIsBadGateway(t *testing.T) {
	env := newTestEnv(t)
	env.converter.err = &documents.ConversionServiceError{Op: "upload", StatusCode: 500, Err: errors.New("down")}

	resp := env.do(http.MethodPost, "/api/v1/documents/doc-good/contracts/ctr-1/print", "", nil)
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
}

func TestPrint_UnexpectedErrorIsInternal(t *testing.T) {
	env := newTestEnv(t)
	env.converter.err = errors.New("disk full")

	resp := env.do(http.MethodPost, "/api/v1/documents/doc-good/contracts/ctr-1/print", "", nil)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if strings.Contains(resp.Body.String(), "disk full") {
		t.Fatalf("internal errors must not leak: %s", resp.Body.String())
	}
}

func TestAnnex(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodGet, "/api/v1/contracts/ctr-1/annex.xlsx", "co-1", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if ct := resp.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("unexpected content type %s", ct)
	}
	if cd := resp.Header().Get("Content-Disposition"); !strings.Contains(cd, "Contrato_10_anexo.xlsx") {
		t.Fatalf("unexpected disposition %s", cd)
	}
	if len(env.audit.entries) != 1 || env.audit.entries[0].Action != audit.ActionDocumentAnnex {
		t.Fatalf("expected annex audit entry, got %+v", env.audit.entries)
	}

	resp = env.do(http.MethodGet, "/api/v1/contracts/ctr-1/annex.pdf", "co-1", nil)
	if resp.Code != http.StatusOK || !bytes.HasPrefix(resp.Body.Bytes(), []byte("%PDF-")) {
		t.Fatalf("expected pdf annex, got %d", resp.Code)
	}

	if resp := env.do(http.MethodGet, "/api/v1/contracts/ctr-1/annex.csv", "co-1", nil); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown format, got %d", resp.Code)
	}
	if resp := env.do(http.MethodGet, "/api/v1/proposals/prp-1/annex.pdf", "co-1", nil); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for another company's proposal, got %d", resp.Code)
	}
	if resp := env.do(http.MethodGet, "/api/v1/proposals/nope/annex.pdf", "", nil); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown proposal, got %d", resp.Code)
	}
}

func TestListDocuments(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodGet, "/api/v1/companies/co-1/documents", "co-1", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var list []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 2 || list[0].ID != "doc-broken" || list[1].ID != "doc-good" {
		t.Fatalf("unexpected list %+v", list)
	}

	if resp := env.do(http.MethodGet, "/api/v1/companies/co-2/documents", "co-1", nil); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestInspect(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodPost, "/api/v1/templates/inspect", "", docxWith(t, "{number} {nickname} {#items_unique}{name}{/items_unique}"))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var body inspectResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := body.Fields["items_unique"]; !ok || len(body.Fields) != 3 {
		t.Fatalf("unexpected fields %+v", body.Fields)
	}
	if len(body.Unsupported) != 1 || body.Unsupported[0] != "nickname" {
		t.Fatalf("unexpected unsupported %v", body.Unsupported)
	}

	if resp := env.do(http.MethodPost, "/api/v1/templates/inspect", "", []byte("not a zip")); resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a non-docx body, got %d", resp.Code)
	}
	if resp := env.do(http.MethodPost, "/api/v1/templates/inspect", "", nil); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an empty body, got %d", resp.Code)
	}
}

func TestNewHandler_RequiresPipeline(t *testing.T) {
	if _, err := NewHandler(nil, nil, nil, nil, nil); err == nil {
		t.Fatalf("expected error for nil pipeline")
	}
}
