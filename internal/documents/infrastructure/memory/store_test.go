package memory

import (
	"context"
	"errors"
	"testing"

	documents "billing-docs/internal/documents/domain"
)

func TestStore_RecordsAreScopedByKind(t *testing.T) {
	store := NewStore()
	store.PutRecord(documents.BusinessRecord{ID: "r-1", Kind: documents.KindContract, Number: "7"})

	record, err := store.Contracts().Load(context.Background(), "r-1")
	if err != nil {
		t.Fatalf("load contract: %v", err)
	}
	if record.Number != "7" || record.Kind != documents.KindContract {
		t.Fatalf("unexpected record %+v", record)
	}
	if _, err := store.Proposals().Load(context.Background(), "r-1"); !errors.Is(err, documents.ErrNotFound) {
		t.Fatalf("expected not found for proposal, got %v", err)
	}
}

func TestStore_AccountCopiesAndAssignsRoles(t *testing.T) {
	store := NewStore()
	store.PutAccount(documents.Account{ID: "acc-1", Contacts: []documents.Contact{{Name: "A"}, {Name: "B"}, {Name: "C"}}})

	account, err := store.GetAccount(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if account.Contacts[2].Role != documents.RoleTechnical {
		t.Fatalf("expected positional role, got %q", account.Contacts[2].Role)
	}
	again, _ := store.GetAccount(context.Background(), "acc-1")
	account.Contacts[0].Name = "changed"
	if again.Contacts[0].Name != "A" {
		t.Fatalf("store leaked a shared slice")
	}
}

func TestStore_ListDocuments(t *testing.T) {
	store := NewStore()
	store.PutDocument(documents.Document{ID: "b", CompanyID: "co-1"})
	store.PutDocument(documents.Document{ID: "a", CompanyID: "co-1"})
	store.PutDocument(documents.Document{ID: "c", CompanyID: "co-2"})

	docs, err := store.ListDocuments(context.Background(), "co-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "a" || docs[1].ID != "b" {
		t.Fatalf("unexpected documents %+v", docs)
	}
}
