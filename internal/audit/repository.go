package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// Repository writes and reads document audit logs.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs an audit repository.
func NewRepository(db *sql.DB) *Repository {
	if db == nil {
		return nil
	}
	return &Repository{db: db}
}

// Log validates and writes an audit entry.
func (r *Repository) Log(ctx context.Context, entry Entry) error {
	if r == nil || r.db == nil {
		return errors.New("audit repo: nil db")
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	if entry.ID == "" {
		entry.ID = NewID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.PayloadDigest == "" {
		entry.PayloadDigest = DigestJSON(entry.Metadata)
	}
	entry.UserAgent = truncateUserAgent(entry.UserAgent)
	var metadata any
	if len(entry.Metadata) > 0 {
		metadata = []byte(entry.Metadata)
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO audit_logs (
	id, company_id, actor, role, action, resource_type, resource_id, document_id,
	metadata, payload_digest, ip, user_agent, created_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
)`, entry.ID, entry.CompanyID, entry.Actor, entry.Role, entry.Action, entry.ResourceType, entry.ResourceID, entry.DocumentID,
		metadata, entry.PayloadDigest, entry.IP, entry.UserAgent, entry.CreatedAt)
	return err
}

// ListForRecord returns the audit trail of one contract or proposal, newest first.
func (r *Repository) ListForRecord(ctx context.Context, resourceType, resourceID string) ([]Entry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("audit repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, company_id, actor, role, action, resource_type, resource_id, document_id,
	metadata, payload_digest, ip, user_agent, created_at
FROM audit_logs
WHERE resource_type = $1 AND resource_id = $2
ORDER BY created_at DESC, id`, resourceType, resourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			entry    Entry
			metadata []byte
		)
		if err := rows.Scan(&entry.ID, &entry.CompanyID, &entry.Actor, &entry.Role, &entry.Action, &entry.ResourceType,
			&entry.ResourceID, &entry.DocumentID, &metadata, &entry.PayloadDigest, &entry.IP, &entry.UserAgent, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			entry.Metadata = json.RawMessage(metadata)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}
