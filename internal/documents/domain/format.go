package documents

import (
	"time"

	"github.com/shopspring/decimal"
)

// Formatter renders values the way the documents' locale expects.
type Formatter interface {
	Money(amount decimal.Decimal) string
	Quantity(value decimal.Decimal) string
	Date(t time.Time) string
	Month(t time.Time) string
}

// Clock supplies the render timestamp.
type Clock interface {
	Now() time.Time
}
