package postgres

import (
	"context"
	"database/sql"
	"errors"

	documents "billing-docs/internal/documents/domain"
)

// AccountRepository reads accounts with their contacts and addresses.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository constructs a repository.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetAccount returns the account. Contacts without a stored role get their
// positional role.
func (r *AccountRepository) GetAccount(ctx context.Context, id string) (*documents.Account, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("account repo: nil db")
	}
	var account documents.Account
	err := r.db.QueryRowContext(ctx, `
SELECT id, company_name, document, website
FROM accounts
WHERE id = $1
LIMIT 1`, id).Scan(&account.ID, &account.CompanyName, &account.Document, &account.Website)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, documents.NewNotFound("account", id)
		}
		return nil, err
	}

	if account.Contacts, err = r.contacts(ctx, id); err != nil {
		return nil, err
	}
	if account.Addresses, err = r.addresses(ctx, id); err != nil {
		return nil, err
	}
	account.AssignPositionalRoles()
	return &account, nil
}

func (r *AccountRepository) contacts(ctx context.Context, accountID string) ([]documents.Contact, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT name, phone, email, role
FROM account_contacts
WHERE account_id = $1
ORDER BY position ASC, id ASC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []documents.Contact
	for rows.Next() {
		var contact documents.Contact
		var role sql.NullString
		if err := rows.Scan(&contact.Name, &contact.Phone, &contact.Email, &role); err != nil {
			return nil, err
		}
		if role.Valid {
			if parsed, ok := documents.NormalizeContactRole(role.String); ok {
				contact.Role = parsed
			}
		}
		result = append(result, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *AccountRepository) addresses(ctx context.Context, accountID string) ([]documents.Address, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT city, street, state, postal_code, is_primary
FROM account_addresses
WHERE account_id = $1
ORDER BY id ASC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []documents.Address
	for rows.Next() {
		var addr documents.Address
		if err := rows.Scan(&addr.City, &addr.Street, &addr.State, &addr.PostalCode, &addr.Primary); err != nil {
			return nil, err
		}
		result = append(result, addr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
