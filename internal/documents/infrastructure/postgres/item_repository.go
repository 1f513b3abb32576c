package postgres

import (
	"context"
	"database/sql"
	"errors"

	documents "billing-docs/internal/documents/domain"
)

// ItemRepository reads item definitions.
type ItemRepository struct {
	db *sql.DB
}

// NewItemRepository constructs a repository.
func NewItemRepository(db *sql.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// GetItem returns an item or a NotFoundError.
func (r *ItemRepository) GetItem(ctx context.Context, id string) (*documents.Item, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("item repo: nil db")
	}
	var item documents.Item
	err := r.db.QueryRowContext(ctx, `
SELECT id, name, type
FROM items
WHERE id = $1
LIMIT 1`, id).Scan(&item.ID, &item.Name, &item.Type)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, documents.NewNotFound("item", id)
		}
		return nil, err
	}
	return &item, nil
}
