package postgres

import (
	"context"
	"database/sql"
	"errors"

	documents "billing-docs/internal/documents/domain"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// DocumentRepository reads template definitions and their stored file.
type DocumentRepository struct {
	db *sql.DB
}

// NewDocumentRepository constructs a repository.
func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// GetDocument returns a document with its template file name.
func (r *DocumentRepository) GetDocument(ctx context.Context, id string) (*documents.Document, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("document repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT d.id, d.company_id, d.name, f.file
FROM documents d
JOIN files f ON f.id = d.file_id
WHERE d.id = $1
LIMIT 1`, id)
	doc, err := scanDocument(row)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, documents.NewNotFound("document", id)
	}
	return doc, nil
}

// ListDocuments returns the documents a company owns, ordered by name.
func (r *DocumentRepository) ListDocuments(ctx context.Context, companyID string) ([]documents.Document, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("document repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT d.id, d.company_id, d.name, f.file
FROM documents d
JOIN files f ON f.id = d.file_id
WHERE d.company_id = $1
ORDER BY d.name ASC, d.id ASC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []documents.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		if doc != nil {
			result = append(result, *doc)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanDocument(row rowScanner) (*documents.Document, error) {
	var doc documents.Document
	if err := row.Scan(&doc.ID, &doc.CompanyID, &doc.Name, &doc.TemplateFile); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}
