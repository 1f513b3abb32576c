package documents

import (
	"errors"

	"github.com/shopspring/decimal"
)

// DefaultOneTimeLabel is the descriptive label shown for one-time items.
const DefaultOneTimeLabel = "Campo livre"

// ItemResolver loads the Item a sold item refers to.
type ItemResolver func(SoldItem) (Item, error)

// LineItemView is a formatted sold item row.
type LineItemView struct {
	Name      string
	Quantity  string
	UnitPrice string
	Info      string
	Total     string
	Recurring bool
	LineTotal decimal.Decimal
}

// Fields returns the template row for the view.
func (v LineItemView) Fields() FieldSet {
	if v.Recurring {
		return FieldSet{
			"name":       v.Name,
			"quantity":   v.Quantity,
			"sale_price": v.UnitPrice,
			"total":      v.Total,
		}
	}
	return FieldSet{
		"name":   v.Name,
		"info":   v.Info,
		"amount": v.UnitPrice,
		"total":  v.Total,
	}
}

// Classification is the recurring/one-time partition of sold items.
type Classification struct {
	Recurring      []LineItemView
	OneTime        []LineItemView
	RecurringTotal decimal.Decimal
	OneTimeTotal   decimal.Decimal
}

// ItemClassifier partitions sold items by item type.
type ItemClassifier struct {
	formatter    Formatter
	oneTimeLabel string
}

// NewItemClassifier constructs a classifier. An empty label uses DefaultOneTimeLabel.
func NewItemClassifier(formatter Formatter, oneTimeLabel string) (*ItemClassifier, error) {
	if formatter == nil {
		return nil, errors.New("classifier: nil formatter")
	}
	if oneTimeLabel == "" {
		oneTimeLabel = DefaultOneTimeLabel
	}
	return &ItemClassifier{formatter: formatter, oneTimeLabel: oneTimeLabel}, nil
}

// Classify resolves every sold item and splits them, preserving input order
// within each side. A resolver error aborts the classification unchanged.
func (c *ItemClassifier) Classify(items []SoldItem, resolve ItemResolver) (Classification, error) {
	if resolve == nil {
		return Classification{}, errors.New("classifier: nil resolver")
	}
	result := Classification{
		Recurring:      []LineItemView{},
		OneTime:        []LineItemView{},
		RecurringTotal: decimal.Zero,
		OneTimeTotal:   decimal.Zero,
	}
	for _, sold := range items {
		item, err := resolve(sold)
		if err != nil {
			return Classification{}, err
		}
		total := sold.LineTotal()
		if item.IsRecurring() {
			result.Recurring = append(result.Recurring, LineItemView{
				Name:      item.Name,
				Quantity:  c.formatter.Quantity(sold.Quantity),
				UnitPrice: c.formatter.Money(sold.SalePrice),
				Total:     c.formatter.Money(total),
				Recurring: true,
				LineTotal: total,
			})
			result.RecurringTotal = result.RecurringTotal.Add(total)
			continue
		}
		result.OneTime = append(result.OneTime, LineItemView{
			Name:      item.Name,
			Info:      c.oneTimeLabel,
			UnitPrice: c.formatter.Money(sold.SalePrice),
			Total:     c.formatter.Money(total),
			LineTotal: total,
		})
		result.OneTimeTotal = result.OneTimeTotal.Add(total)
	}
	return result, nil
}
