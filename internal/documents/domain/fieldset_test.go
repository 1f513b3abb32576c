package documents_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	documents "billing-docs/internal/documents/domain"
)

func TestSchema_Unsupported(t *testing.T) {
	scalar := documents.FieldSpec{Kind: documents.FieldScalar}
	template := documents.Schema{
		"number":      scalar,
		"nickname":    scalar,
		"scs_number":  scalar,
		"sms_due_day": {Kind: documents.FieldList},
		"items_unique": {Kind: documents.FieldList, Item: documents.Schema{
			"name":   scalar,
			"price":  scalar,
			"number": scalar,
		}},
	}
	got := template.Unsupported(documents.DocumentSchema())
	want := []string{"items_unique.price", "nickname", "scs_number", "sms_due_day"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unsupported mismatch (-want +got):\n%s", diff)
	}
	if got := documents.DocumentSchema().Unsupported(documents.DocumentSchema()); len(got) != 0 {
		t.Fatalf("document schema should satisfy itself, got %v", got)
	}
}
