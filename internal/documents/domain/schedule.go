package documents

import (
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultLeadMonths is the gap between the schedule start and the first due date.
const DefaultLeadMonths = 1

// DueDateEntry is one installment of a payment schedule.
type DueDateEntry struct {
	Number  int
	Date    time.Time
	Amount  decimal.Decimal
	DueDate string
	Value   string
}

// Fields returns the template row for the entry.
func (e DueDateEntry) Fields() FieldSet {
	return FieldSet{
		"scs_number":   strconv.Itoa(e.Number),
		"scs_due_date": e.DueDate,
		"scs_amount":   e.Value,
	}
}

// ScheduleGenerator produces installment due dates.
type ScheduleGenerator struct {
	formatter  Formatter
	leadMonths int
}

// NewScheduleGenerator constructs a generator. leadMonths < 0 is rejected.
func NewScheduleGenerator(formatter Formatter, leadMonths int) (*ScheduleGenerator, error) {
	if formatter == nil {
		return nil, errors.New("schedule: nil formatter")
	}
	if leadMonths < 0 {
		return nil, errors.New("schedule: negative lead months")
	}
	return &ScheduleGenerator{formatter: formatter, leadMonths: leadMonths}, nil
}

// Generate returns installments entries in ascending order. Entry i falls
// leadMonths+i calendar months after start, keeping the start's day of month
// when the target month has it and clamping to the month end otherwise.
func (g *ScheduleGenerator) Generate(start time.Time, installments int, amount decimal.Decimal) ([]DueDateEntry, error) {
	if installments < 0 {
		return nil, ErrInvalidInstallments
	}
	if installments == 0 {
		return []DueDateEntry{}, nil
	}
	if start.IsZero() {
		return nil, &MissingRelatedDataError{Entity: "schedule", Missing: []string{"scs_due_date"}}
	}
	value := g.formatter.Money(amount)
	entries := make([]DueDateEntry, 0, installments)
	for i := 0; i < installments; i++ {
		due := AddMonths(start, g.leadMonths+i)
		entries = append(entries, DueDateEntry{
			Number:  i + 1,
			Date:    due,
			Amount:  amount,
			DueDate: g.formatter.Date(due),
			Value:   value,
		})
	}
	return entries, nil
}

// AddMonths moves t by n calendar months, clamping the day to the last day of
// the target month.
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	last := daysIn(first.Year(), first.Month(), t.Location())
	if day > last {
		day = last
	}
	hour, minute, sec := t.Clock()
	return time.Date(first.Year(), first.Month(), day, hour, minute, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
