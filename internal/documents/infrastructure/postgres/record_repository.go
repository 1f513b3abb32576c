package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	documents "billing-docs/internal/documents/domain"
)

// recordTables names the tables backing one record kind.
type recordTables struct {
	records   string
	soldItems string
	foreign   string
}

var kindTables = map[documents.DocumentKind]recordTables{
	documents.KindContract: {records: "contracts", soldItems: "contract_sold_items", foreign: "contract_id"},
	documents.KindProposal: {records: "proposals", soldItems: "proposal_sold_items", foreign: "proposal_id"},
}

// RecordRepository loads contracts or proposals with their sold items and
// issuing company.
type RecordRepository struct {
	db     *sql.DB
	kind   documents.DocumentKind
	tables recordTables
}

// NewRecordRepository constructs a repository for kind.
func NewRecordRepository(db *sql.DB, kind documents.DocumentKind) (*RecordRepository, error) {
	tables, ok := kindTables[kind]
	if !ok {
		return nil, fmt.Errorf("record repo: unsupported kind %q", kind)
	}
	return &RecordRepository{db: db, kind: kind, tables: tables}, nil
}

// NewContractRepository constructs the contract repository.
func NewContractRepository(db *sql.DB) *RecordRepository {
	repo, _ := NewRecordRepository(db, documents.KindContract)
	return repo
}

// NewProposalRepository constructs the proposal repository.
func NewProposalRepository(db *sql.DB) *RecordRepository {
	repo, _ := NewRecordRepository(db, documents.KindProposal)
	return repo
}

// Kind returns the record kind served.
func (r *RecordRepository) Kind() documents.DocumentKind { return r.kind }

// Load returns the record or a NotFoundError.
func (r *RecordRepository) Load(ctx context.Context, id string) (*documents.BusinessRecord, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("record repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT r.id, r.number, r.created_at, r.account_id, r.company_id,
	r.scs_due_date, r.scs_installments, r.scs_amount,
	r.sms_due_day, r.sms_due_date, r.deployment_date, r.grace_period,
	c.trading_name
FROM `+r.tables.records+` r
JOIN companies c ON c.id = r.company_id
WHERE r.id = $1
LIMIT 1`, id)
	record, err := scanRecord(row)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, documents.NewNotFound(r.kind.String(), id)
	}
	record.Kind = r.kind

	items, err := r.soldItems(ctx, id)
	if err != nil {
		return nil, err
	}
	record.SoldItems = items
	return record, nil
}

func (r *RecordRepository) soldItems(ctx context.Context, recordID string) ([]documents.SoldItem, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT item_id, quantity, sale_price
FROM `+r.tables.soldItems+`
WHERE `+r.tables.foreign+` = $1
ORDER BY id ASC`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []documents.SoldItem{}
	for rows.Next() {
		var item documents.SoldItem
		if err := rows.Scan(&item.ItemID, &item.Quantity, &item.SalePrice); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanRecord(row rowScanner) (*documents.BusinessRecord, error) {
	var rec documents.BusinessRecord
	var scsDueDate sql.NullTime
	var scsAmount decimal.NullDecimal
	var smsDueDate sql.NullTime
	var deploymentDate sql.NullTime
	err := row.Scan(
		&rec.ID,
		&rec.Number,
		&rec.CreatedAt,
		&rec.AccountID,
		&rec.CompanyID,
		&scsDueDate,
		&rec.SCSInstallments,
		&scsAmount,
		&rec.SMSDueDay,
		&smsDueDate,
		&deploymentDate,
		&rec.GracePeriod,
		&rec.Company.TradingName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	rec.Company.ID = rec.CompanyID
	rec.CreatedAt = rec.CreatedAt.UTC()
	if scsDueDate.Valid {
		rec.SCSDueDate = scsDueDate.Time.UTC()
	}
	if scsAmount.Valid {
		rec.SCSAmount = scsAmount.Decimal
	}
	if smsDueDate.Valid {
		rec.SMSDueDate = smsDueDate.Time.UTC()
	}
	if deploymentDate.Valid {
		rec.DeploymentDate = deploymentDate.Time.UTC()
	}
	return &rec, nil
}
