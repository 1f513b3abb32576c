package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	documents "billing-docs/internal/documents/domain"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_NoToken(t *testing.T) {
	secret := []byte("test-secret")
	mw := NewMiddleware(secret, NewDefaultPolicy(nil, nil))
	handler := mw.Wrap(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/doc-1/contracts/ctr-1/print", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthMiddleware_ViewerForbiddenPrint(t *testing.T) {
	secret := []byte("test-secret")
	token := mustToken(t, secret, "company-a", "viewer")
	mw := NewMiddleware(secret, NewDefaultPolicy(nil, nil))
	handler := mw.Wrap(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/doc-1/proposals/prp-1/print", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestAuthMiddleware_ViewerForbiddenAnnex(t *testing.T) {
	secret := []byte("test-secret")
	token := mustToken(t, secret, "company-a", "viewer")
	mw := NewMiddleware(secret, NewDefaultPolicy(nil, nil))
	handler := mw.Wrap(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/contracts/ctr-1/annex.pdf", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestAuthMiddleware_OperatorPrintsWithIdentity(t *testing.T) {
	secret := []byte("test-secret")
	token := mustToken(t, secret, "company-a", "operator")
	mw := NewMiddleware(secret, NewDefaultPolicy(nil, nil))
	var gotCompany string
	var gotRole Role
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCompany = CompanyIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/doc-1/contracts/ctr-1/print", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if gotCompany != "company-a" || gotRole != RoleOperator {
		t.Fatalf("unexpected identity %q %q", gotCompany, gotRole)
	}
}

func TestAuthMiddleware_ViewerInspects(t *testing.T) {
	secret := []byte("test-secret")
	token := mustToken(t, secret, "", "viewer")
	mw := NewMiddleware(secret, NewDefaultPolicy(nil, nil))
	handler := mw.Wrap(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/templates/inspect", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestAuthMiddleware_ExemptPaths(t *testing.T) {
	mw := NewMiddleware([]byte("test-secret"), NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil))
	handler := mw.Wrap(okHandler())
	for _, path := range []string{"/healthz", "/metrics"} {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.Code)
		}
	}
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	token := mustToken(t, []byte("other-secret"), "company-a", "admin")
	mw := NewMiddleware([]byte("test-secret"), NewDefaultPolicy(nil, nil))
	handler := mw.Wrap(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/contracts/ctr-1/annex.xlsx", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

type docLookup map[string]*documents.Document

func (d docLookup) GetDocument(ctx context.Context, id string) (*documents.Document, error) {
	doc, ok := d[id]
	if !ok {
		return nil, documents.NewNotFound("document", id)
	}
	return doc, nil
}

func TestDocumentCompanyChecker(t *testing.T) {
	checker := NewDocumentCompanyChecker(docLookup{
		"doc-1": {ID: "doc-1", CompanyID: "company-a"},
	})
	ctx := context.Background()
	if err := checker.EnsureDocumentCompany(ctx, "company-a", "doc-1"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := checker.EnsureDocumentCompany(ctx, "company-b", "doc-1"); !errors.Is(err, ErrCompanyMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	if err := checker.EnsureDocumentCompany(ctx, "", "doc-1"); err != nil {
		t.Fatalf("unscoped token should pass, got %v", err)
	}
	if err := checker.EnsureDocumentCompany(ctx, "company-a", "doc-x"); !errors.Is(err, documents.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestParseJWT_CompanyClaim(t *testing.T) {
	secret := []byte("secret")

	claims, err := ParseJWT(mustToken(t, secret, "  company-a ", "viewer"), secret)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.CompanyID != "company-a" {
		t.Fatalf("expected trimmed company id, got %q", claims.CompanyID)
	}

	for _, bad := range []string{"co/1", "..", "a..b", "-lead", "with space", strings.Repeat("x", 65)} {
		if _, err := ParseJWT(mustToken(t, secret, bad, "viewer"), secret); !errors.Is(err, ErrInvalidCompanyClaim) {
			t.Fatalf("company %q: expected ErrInvalidCompanyClaim, got %v", bad, err)
		}
	}
}

func TestEnsureRecordCompany(t *testing.T) {
	record := &documents.BusinessRecord{ID: "ctr-1", CompanyID: "company-a"}
	scoped := WithIdentity(context.Background(), "company-a", RoleOperator, "user-1")
	other := WithIdentity(context.Background(), "company-b", RoleOperator, "user-2")

	if err := EnsureRecordCompany(scoped, record); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := EnsureRecordCompany(other, record); !errors.Is(err, ErrCompanyMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	if err := EnsureRecordCompany(context.Background(), record); err != nil {
		t.Fatalf("unscoped caller should pass, got %v", err)
	}
	if err := EnsureRecordCompany(other, &documents.BusinessRecord{ID: "ctr-2"}); err != nil {
		t.Fatalf("record without company should pass, got %v", err)
	}
}

func mustToken(t *testing.T, secret []byte, companyID, role string) string {
	t.Helper()
	claims := Claims{
		CompanyID: companyID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
