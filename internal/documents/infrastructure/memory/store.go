package memory

import (
	"context"
	"sort"
	"sync"

	documents "billing-docs/internal/documents/domain"
)

// Store keeps documents, records and their relations in memory.
type Store struct {
	mu        sync.RWMutex
	documents map[string]documents.Document
	records   map[documents.DocumentKind]map[string]documents.BusinessRecord
	accounts  map[string]documents.Account
	items     map[string]documents.Item
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		documents: make(map[string]documents.Document),
		records: map[documents.DocumentKind]map[string]documents.BusinessRecord{
			documents.KindContract: {},
			documents.KindProposal: {},
		},
		accounts: make(map[string]documents.Account),
		items:    make(map[string]documents.Item),
	}
}

// PutDocument stores a template definition.
func (s *Store) PutDocument(doc documents.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = doc
}

// PutRecord stores a contract or proposal.
func (s *Store) PutRecord(record documents.BusinessRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.Kind]; !ok {
		s.records[record.Kind] = make(map[string]documents.BusinessRecord)
	}
	s.records[record.Kind][record.ID] = record
}

// PutAccount stores an account.
func (s *Store) PutAccount(account documents.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.ID] = account
}

// PutItem stores an item definition.
func (s *Store) PutItem(item documents.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

// GetDocument returns a template definition.
func (s *Store) GetDocument(ctx context.Context, id string) (*documents.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, documents.NewNotFound("document", id)
	}
	return &doc, nil
}

// ListDocuments returns a company's documents ordered by id.
func (s *Store) ListDocuments(ctx context.Context, companyID string) ([]documents.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []documents.Document{}
	for _, doc := range s.documents {
		if doc.CompanyID == companyID {
			result = append(result, doc)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// GetAccount returns an account with positional roles filled in.
func (s *Store) GetAccount(ctx context.Context, id string) (*documents.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.accounts[id]
	if !ok {
		return nil, documents.NewNotFound("account", id)
	}
	account := stored
	account.Contacts = append([]documents.Contact(nil), stored.Contacts...)
	account.Addresses = append([]documents.Address(nil), stored.Addresses...)
	account.AssignPositionalRoles()
	return &account, nil
}

// GetItem returns an item definition.
func (s *Store) GetItem(ctx context.Context, id string) (*documents.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, documents.NewNotFound("item", id)
	}
	return &item, nil
}

// Contracts returns the contract provider.
func (s *Store) Contracts() *RecordProvider {
	return &RecordProvider{store: s, kind: documents.KindContract}
}

// Proposals returns the proposal provider.
func (s *Store) Proposals() *RecordProvider {
	return &RecordProvider{store: s, kind: documents.KindProposal}
}

// RecordProvider serves one record kind from a Store.
type RecordProvider struct {
	store *Store
	kind  documents.DocumentKind
}

// Kind implements the record provider contract.
func (p *RecordProvider) Kind() documents.DocumentKind { return p.kind }

// Load returns a copy of the record.
func (p *RecordProvider) Load(ctx context.Context, id string) (*documents.BusinessRecord, error) {
	p.store.mu.RLock()
	defer p.store.mu.RUnlock()
	stored, ok := p.store.records[p.kind][id]
	if !ok {
		return nil, documents.NewNotFound(p.kind.String(), id)
	}
	record := stored
	record.Kind = p.kind
	record.SoldItems = append([]documents.SoldItem(nil), stored.SoldItems...)
	return &record, nil
}
