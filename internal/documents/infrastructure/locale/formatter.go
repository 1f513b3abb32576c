package locale

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	dateLayout  = "02/01/2006"
	monthLayout = "01"

	maxQuantityDigits = 3
)

// Options configures a Formatter.
type Options struct {
	Language       string
	CurrencySymbol string
	Location       *time.Location
}

// Formatter formats money, quantities and dates with locale rules.
type Formatter struct {
	printer *message.Printer
	symbol  string
	loc     *time.Location
}

// NewFormatter constructs a formatter. Defaults to pt-BR, R$ and UTC.
func NewFormatter(opts Options) (*Formatter, error) {
	if opts.Language == "" {
		opts.Language = "pt-BR"
	}
	if opts.CurrencySymbol == "" {
		opts.CurrencySymbol = "R$"
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	tag, err := language.Parse(opts.Language)
	if err != nil {
		return nil, fmt.Errorf("locale: invalid language %q: %w", opts.Language, err)
	}
	return &Formatter{
		printer: message.NewPrinter(tag),
		symbol:  opts.CurrencySymbol,
		loc:     opts.Location,
	}, nil
}

// MustNewFormatter is NewFormatter for static options.
func MustNewFormatter(opts Options) *Formatter {
	f, err := NewFormatter(opts)
	if err != nil {
		panic(err)
	}
	return f
}

// LoadLocation resolves a timezone name, empty meaning UTC.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, errors.New("locale: unknown timezone " + name)
	}
	return loc, nil
}

// Money formats an amount with two decimals and the currency symbol, e.g. "R$ 1.234,50".
func (f *Formatter) Money(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	return sign + f.symbol + " " + f.printer.Sprintf("%.2f", rounded.InexactFloat64())
}

// Quantity formats a number with up to three decimals and no trailing zeros.
func (f *Formatter) Quantity(value decimal.Decimal) string {
	rounded := value.Round(maxQuantityDigits)
	places := 0
	if idx := strings.IndexByte(rounded.String(), '.'); idx >= 0 {
		places = len(rounded.String()) - idx - 1
	}
	return f.printer.Sprintf(fmt.Sprintf("%%.%df", places), rounded.InexactFloat64())
}

// Date formats t as DD/MM/YYYY in the formatter's timezone.
func (f *Formatter) Date(t time.Time) string {
	return t.In(f.loc).Format(dateLayout)
}

// Month formats the two-digit month of t.
func (f *Formatter) Month(t time.Time) string {
	return t.In(f.loc).Format(monthLayout)
}
