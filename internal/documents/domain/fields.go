package documents

import (
	"errors"
	"strconv"
	"time"
)

// AssembleInput is everything one render merges into a field set.
type AssembleInput struct {
	Document       *Document
	Record         *BusinessRecord
	Account        *Account
	Schedule       []DueDateEntry
	Classification Classification
	Now            time.Time
}

// FieldAssembler flattens a business record and its relations into the
// placeholder contract of the document templates.
type FieldAssembler struct {
	formatter Formatter
}

// NewFieldAssembler constructs an assembler.
func NewFieldAssembler(formatter Formatter) (*FieldAssembler, error) {
	if formatter == nil {
		return nil, errors.New("assembler: nil formatter")
	}
	return &FieldAssembler{formatter: formatter}, nil
}

// Assemble builds the field set. The account must carry a primary, a
// financial and a technical contact plus at least one address.
func (a *FieldAssembler) Assemble(in AssembleInput) (FieldSet, error) {
	if in.Record == nil {
		return nil, ErrNilRecord
	}
	if in.Account == nil {
		return nil, NewNotFound("account", in.Record.AccountID)
	}
	contacts, address, err := requiredRelations(in.Account)
	if err != nil {
		return nil, err
	}
	primary := contacts[RolePrimary]
	financial := contacts[RoleFinancial]
	technical := contacts[RoleTechnical]
	rec := in.Record
	f := a.formatter

	fields := FieldSet{
		"number":         rec.Number,
		"locale":         address.City,
		"date":           a.date(rec.CreatedAt),
		"generated_date": a.date(in.Now),
		"trading_name":   rec.Company.TradingName,
		"responsable":    primary.Name,

		"items_recurrent": lineRows(in.Classification.Recurring),
		"items_unique":    lineRows(in.Classification.OneTime),
		"scs_due_dates":   scheduleRows(in.Schedule),

		"sms_due_day":     strconv.Itoa(rec.SMSDueDay),
		"sms_due_date":    a.date(rec.SMSDueDate),
		"base_date":       a.month(rec.CreatedAt),
		"scs_total_final": f.Money(in.Classification.OneTimeTotal),
		"sms_total_final": f.Money(in.Classification.RecurringTotal),

		"accountCompanyName":       in.Account.CompanyName,
		"accountDocument":          in.Account.Document,
		"accountContactPhone":      primary.Phone,
		"accountWebSite":           in.Account.Website,
		"accountAddressStreet":     address.Street,
		"accountAddressState":      address.State,
		"accountAddressPostalCode": address.PostalCode,

		"responsableMail":       primary.Email,
		"responsableFinan":      financial.Name,
		"responsableFinanPhone": financial.Phone,
		"responsableFinanMail":  financial.Email,
		"responsableTec":        technical.Name,
		"responsableTecPhone":   technical.Phone,
		"responsableTecMail":    technical.Email,

		"deploymentDate": a.date(rec.DeploymentDate),
		"grace_period":   strconv.Itoa(rec.GracePeriod),
		"pdf_url":        "",
	}
	return fields, nil
}

func requiredRelations(account *Account) (map[ContactRole]Contact, Address, error) {
	var missing []string
	contacts := make(map[ContactRole]Contact, 3)
	for _, role := range RequiredContactRoles() {
		c, ok := account.ContactByRole(role)
		if !ok {
			missing = append(missing, string(role)+" contact")
			continue
		}
		contacts[role] = c
	}
	address, ok := account.PrimaryAddress()
	if !ok {
		missing = append(missing, "address")
	}
	if len(missing) > 0 {
		return nil, Address{}, &MissingRelatedDataError{Entity: "account", ID: account.ID, Missing: missing}
	}
	return contacts, address, nil
}

// Zero dates are absent values and render empty.
func (a *FieldAssembler) date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return a.formatter.Date(t)
}

func (a *FieldAssembler) month(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return a.formatter.Month(t)
}

func lineRows(views []LineItemView) []FieldSet {
	rows := make([]FieldSet, 0, len(views))
	for _, v := range views {
		rows = append(rows, v.Fields())
	}
	return rows
}

func scheduleRows(entries []DueDateEntry) []FieldSet {
	rows := make([]FieldSet, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, e.Fields())
	}
	return rows
}

// DocumentSchema is the placeholder contract Assemble fulfils.
func DocumentSchema() Schema {
	scalar := FieldSpec{Kind: FieldScalar}
	schema := Schema{
		"items_recurrent": {Kind: FieldList, Item: Schema{
			"name": scalar, "quantity": scalar, "sale_price": scalar, "total": scalar,
		}},
		"items_unique": {Kind: FieldList, Item: Schema{
			"name": scalar, "info": scalar, "amount": scalar, "total": scalar,
		}},
		"scs_due_dates": {Kind: FieldList, Item: Schema{
			"scs_number": scalar, "scs_due_date": scalar, "scs_amount": scalar,
		}},
	}
	for _, name := range []string{
		"number", "locale", "date", "generated_date", "trading_name", "responsable",
		"sms_due_day", "sms_due_date", "base_date", "scs_total_final", "sms_total_final",
		"accountCompanyName", "accountDocument", "accountContactPhone", "accountWebSite",
		"accountAddressStreet", "accountAddressState", "accountAddressPostalCode",
		"responsableMail", "responsableFinan", "responsableFinanPhone", "responsableFinanMail",
		"responsableTec", "responsableTecPhone", "responsableTecMail",
		"deploymentDate", "grace_period", "pdf_url",
	} {
		schema[name] = scalar
	}
	return schema
}
