package documents

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentKind identifies which business record drives a render.
type DocumentKind string

const (
	KindContract DocumentKind = "contract"
	KindProposal DocumentKind = "proposal"
)

// Prefix returns the output file prefix for the kind.
func (k DocumentKind) Prefix() string {
	switch k {
	case KindContract:
		return "Contrato"
	case KindProposal:
		return "Proposta"
	default:
		return "Documento"
	}
}

// String returns the raw kind.
func (k DocumentKind) String() string { return string(k) }

// ParseKind validates a kind string.
func ParseKind(value string) (DocumentKind, bool) {
	switch DocumentKind(value) {
	case KindContract, KindProposal:
		return DocumentKind(value), true
	default:
		return "", false
	}
}

// BusinessRecord is a contract or a proposal. Both share the same shape.
type BusinessRecord struct {
	ID        string
	Kind      DocumentKind
	Number    string
	CreatedAt time.Time
	AccountID string
	CompanyID string

	// SCS track: one-time charges paid in installments.
	SCSDueDate      time.Time
	SCSInstallments int
	SCSAmount       decimal.Decimal

	// SMS track: recurring monthly billing.
	SMSDueDay  int
	SMSDueDate time.Time

	DeploymentDate time.Time
	GracePeriod    int

	Company   Company
	SoldItems []SoldItem
}

// OutputStem returns the file stem shared by the rendered binary and its PDF.
func (r *BusinessRecord) OutputStem() string {
	return r.Kind.Prefix() + "_" + r.Number
}

// SoldItem is a priced line attached to a business record.
type SoldItem struct {
	ItemID    string
	Quantity  decimal.Decimal
	SalePrice decimal.Decimal
}

// LineTotal returns quantity times sale price.
func (s SoldItem) LineTotal() decimal.Decimal {
	return s.Quantity.Mul(s.SalePrice)
}

// ItemTypeRecurring marks items billed on every period.
const ItemTypeRecurring = "RECORRENTE"

// Item is a sellable item definition.
type Item struct {
	ID   string
	Name string
	Type string
}

// IsRecurring reports whether the item is billed as a subscription.
func (i Item) IsRecurring() bool {
	return i.Type == ItemTypeRecurring
}

// Company is the seller issuing the document.
type Company struct {
	ID          string
	TradingName string
}

// Document is a stored template definition.
type Document struct {
	ID           string
	CompanyID    string
	Name         string
	TemplateFile string
}

// RenderResult holds the locations of a finished render.
type RenderResult struct {
	GeneratedFile string `json:"generated_file"`
	PDFLocation   string `json:"pdf_location"`
	PDFURL        string `json:"pdf_url"`
	PDFPages      int    `json:"pdf_pages,omitempty"`
}
