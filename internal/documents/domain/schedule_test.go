package documents_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	documents "billing-docs/internal/documents/domain"
	"billing-docs/internal/documents/infrastructure/locale"
)

func newGenerator(t *testing.T, lead int) *documents.ScheduleGenerator {
	t.Helper()
	gen, err := documents.NewScheduleGenerator(locale.MustNewFormatter(locale.Options{}), lead)
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	return gen
}

func TestScheduleGenerator_ThreeInstallments(t *testing.T) {
	gen := newGenerator(t, documents.DefaultLeadMonths)
	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

	entries, err := gen.Generate(start, 3, decimal.RequireFromString("100.00"))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	want := []struct {
		number int
		date   string
		amount string
	}{
		{1, "15/02/2024", "R$ 100,00"},
		{2, "15/03/2024", "R$ 100,00"},
		{3, "15/04/2024", "R$ 100,00"},
	}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, w := range want {
		e := entries[i]
		if e.Number != w.number || e.DueDate != w.date || e.Value != w.amount {
			t.Fatalf("entry %d: expected (%d, %s, %s), got (%d, %s, %s)", i, w.number, w.date, w.amount, e.Number, e.DueDate, e.Value)
		}
	}
}

func TestScheduleGenerator_CountAndMonthlySpacing(t *testing.T) {
	gen := newGenerator(t, documents.DefaultLeadMonths)
	start := time.Date(2023, time.November, 10, 0, 0, 0, 0, time.UTC)
	for n := 0; n <= 24; n++ {
		entries, err := gen.Generate(start, n, decimal.NewFromInt(50))
		if err != nil {
			t.Fatalf("generate %d: %v", n, err)
		}
		if len(entries) != n {
			t.Fatalf("expected %d entries, got %d", n, len(entries))
		}
		for i, e := range entries {
			if e.Number != i+1 {
				t.Fatalf("entry %d has number %d", i, e.Number)
			}
			if i == 0 {
				continue
			}
			prev := entries[i-1].Date
			if !documents.AddMonths(prev, 1).Equal(e.Date) {
				t.Fatalf("entries %d and %d are not one month apart: %s %s", i-1, i, prev, e.Date)
			}
		}
	}
}

func TestScheduleGenerator_ZeroLeadStartsAtStart(t *testing.T) {
	gen := newGenerator(t, 0)
	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	entries, err := gen.Generate(start, 2, decimal.NewFromInt(10))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if entries[0].DueDate != "15/01/2024" || entries[1].DueDate != "15/02/2024" {
		t.Fatalf("unexpected dates: %s %s", entries[0].DueDate, entries[1].DueDate)
	}
}

func TestScheduleGenerator_ClampsToMonthEnd(t *testing.T) {
	gen := newGenerator(t, 0)
	start := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)
	entries, err := gen.Generate(start, 4, decimal.NewFromInt(10))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	got := []string{entries[0].DueDate, entries[1].DueDate, entries[2].DueDate, entries[3].DueDate}
	want := []string{"31/01/2024", "29/02/2024", "31/03/2024", "30/04/2024"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestScheduleGenerator_Errors(t *testing.T) {
	gen := newGenerator(t, 1)
	if _, err := gen.Generate(time.Now(), -1, decimal.Zero); !errors.Is(err, documents.ErrInvalidInstallments) {
		t.Fatalf("expected ErrInvalidInstallments, got %v", err)
	}
	entries, err := gen.Generate(time.Time{}, 0, decimal.Zero)
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected empty schedule, got %v %v", entries, err)
	}
	var missing *documents.MissingRelatedDataError
	if _, err := gen.Generate(time.Time{}, 2, decimal.Zero); !errors.As(err, &missing) {
		t.Fatalf("expected MissingRelatedDataError, got %v", err)
	}
	if _, err := documents.NewScheduleGenerator(nil, 1); err == nil {
		t.Fatalf("expected nil formatter error")
	}
}
