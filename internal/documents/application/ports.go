package application

import (
	"context"

	documents "billing-docs/internal/documents/domain"
)

// DocumentReader loads template definitions.
type DocumentReader interface {
	GetDocument(ctx context.Context, id string) (*documents.Document, error)
	ListDocuments(ctx context.Context, companyID string) ([]documents.Document, error)
}

// RecordProvider loads one kind of business record with its company and sold items.
type RecordProvider interface {
	Kind() documents.DocumentKind
	Load(ctx context.Context, id string) (*documents.BusinessRecord, error)
}

// AccountReader loads an account with its contacts and addresses.
type AccountReader interface {
	GetAccount(ctx context.Context, id string) (*documents.Account, error)
}

// ItemReader resolves item definitions.
type ItemReader interface {
	GetItem(ctx context.Context, id string) (*documents.Item, error)
}

// TemplateSource returns stored template bytes by file name.
type TemplateSource interface {
	Open(ctx context.Context, name string) ([]byte, error)
}

// OutputStore receives generated files.
type OutputStore interface {
	Path(name string) (string, error)
	WriteFile(name string, data []byte) (string, error)
}

// Renderer binds a field set into a template.
type Renderer interface {
	Render(template []byte, fields documents.FieldSet) ([]byte, error)
}

// Converter turns a generated file into another format.
type Converter interface {
	Convert(ctx context.Context, req documents.ConversionRequest) (*documents.Conversion, error)
}
