package auth

import (
	"context"
	"errors"

	documents "billing-docs/internal/documents/domain"
)

// ErrCompanyMismatch indicates the resource belongs to another company.
var ErrCompanyMismatch = errors.New("company mismatch")

// DocumentLookup loads document metadata.
type DocumentLookup interface {
	GetDocument(ctx context.Context, id string) (*documents.Document, error)
}

// DocumentCompanyChecker checks that a document belongs to the caller's company.
type DocumentCompanyChecker struct {
	docs DocumentLookup
}

// NewDocumentCompanyChecker constructs a DocumentCompanyChecker.
func NewDocumentCompanyChecker(docs DocumentLookup) *DocumentCompanyChecker {
	if docs == nil {
		return nil
	}
	return &DocumentCompanyChecker{docs: docs}
}

// EnsureDocumentCompany verifies the document belongs to companyID. Tokens
// without a company claim are not scoped.
func (c *DocumentCompanyChecker) EnsureDocumentCompany(ctx context.Context, companyID, documentID string) error {
	if c == nil || c.docs == nil {
		return nil
	}
	if companyID == "" || documentID == "" {
		return nil
	}
	doc, err := c.docs.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.CompanyID != "" && doc.CompanyID != companyID {
		return ErrCompanyMismatch
	}
	return nil
}

// EnsureRecordCompany verifies a loaded contract or proposal belongs to the
// company carried by ctx. Unscoped callers and records without a company pass.
func EnsureRecordCompany(ctx context.Context, record *documents.BusinessRecord) error {
	if record == nil {
		return nil
	}
	companyID := CompanyIDFromContext(ctx)
	if companyID == "" || record.CompanyID == "" {
		return nil
	}
	if record.CompanyID != companyID {
		return ErrCompanyMismatch
	}
	return nil
}
