package application

import (
	"context"
	"errors"
	"time"

	documents "billing-docs/internal/documents/domain"
)

const (
	sourceFormat = "docx"
	targetFormat = "pdf"
)

// Dependencies are the collaborators a Pipeline calls.
type Dependencies struct {
	Documents DocumentReader
	Contracts RecordProvider
	Proposals RecordProvider
	Accounts  AccountReader
	Items     ItemReader
	Templates TemplateSource
	Outputs   OutputStore
	Renderer  Renderer
	Converter Converter
	Formatter documents.Formatter
}

// Option customises a Pipeline.
type Option func(*pipelineOptions)

type pipelineOptions struct {
	clock        documents.Clock
	observer     StageObserver
	guard        RecordGuard
	leadMonths   int
	oneTimeLabel string
}

// RecordGuard rejects a loaded record before anything is derived from it.
type RecordGuard func(ctx context.Context, record *documents.BusinessRecord) error

// WithClock sets the clock used for the generated date.
func WithClock(clock documents.Clock) Option {
	return func(o *pipelineOptions) { o.clock = clock }
}

// WithObserver sets the stage observer.
func WithObserver(observer StageObserver) Option {
	return func(o *pipelineOptions) { o.observer = observer }
}

// WithRecordGuard sets the check every loaded record must pass.
func WithRecordGuard(guard RecordGuard) Option {
	return func(o *pipelineOptions) { o.guard = guard }
}

// WithLeadMonths sets how many months after the start date the first installment is due.
func WithLeadMonths(months int) Option {
	return func(o *pipelineOptions) { o.leadMonths = months }
}

// WithOneTimeLabel sets the descriptive label of one-time item rows.
func WithOneTimeLabel(label string) Option {
	return func(o *pipelineOptions) { o.oneTimeLabel = label }
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Pipeline renders business records into DOCX documents and their PDFs.
type Pipeline struct {
	docs      DocumentReader
	contracts RecordProvider
	proposals RecordProvider
	accounts  AccountReader
	items     ItemReader
	templates TemplateSource
	outputs   OutputStore
	renderer  Renderer
	converter Converter

	schedule   *documents.ScheduleGenerator
	classifier *documents.ItemClassifier
	assembler  *documents.FieldAssembler

	clock    documents.Clock
	observer StageObserver
	guard    RecordGuard
	locks    *stemLocks
}

// NewPipeline constructs the render pipeline.
func NewPipeline(deps Dependencies, opts ...Option) (*Pipeline, error) {
	if deps.Documents == nil {
		return nil, errors.New("render pipeline: nil document reader")
	}
	if deps.Accounts == nil {
		return nil, errors.New("render pipeline: nil account reader")
	}
	if deps.Items == nil {
		return nil, errors.New("render pipeline: nil item reader")
	}
	if deps.Templates == nil {
		return nil, errors.New("render pipeline: nil template source")
	}
	if deps.Outputs == nil {
		return nil, errors.New("render pipeline: nil output store")
	}
	if deps.Renderer == nil {
		return nil, errors.New("render pipeline: nil renderer")
	}
	if deps.Converter == nil {
		return nil, errors.New("render pipeline: nil converter")
	}
	options := pipelineOptions{leadMonths: documents.DefaultLeadMonths}
	for _, opt := range opts {
		opt(&options)
	}
	if options.clock == nil {
		options.clock = SystemClock{}
	}
	if options.observer == nil {
		options.observer = nopObserver{}
	}

	schedule, err := documents.NewScheduleGenerator(deps.Formatter, options.leadMonths)
	if err != nil {
		return nil, err
	}
	classifier, err := documents.NewItemClassifier(deps.Formatter, options.oneTimeLabel)
	if err != nil {
		return nil, err
	}
	assembler, err := documents.NewFieldAssembler(deps.Formatter)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		docs:       deps.Documents,
		contracts:  deps.Contracts,
		proposals:  deps.Proposals,
		accounts:   deps.Accounts,
		items:      deps.Items,
		templates:  deps.Templates,
		outputs:    deps.Outputs,
		renderer:   deps.Renderer,
		converter:  deps.Converter,
		schedule:   schedule,
		classifier: classifier,
		assembler:  assembler,
		clock:      options.clock,
		observer:   options.observer,
		guard:      options.guard,
		locks:      newStemLocks(),
	}, nil
}

// RenderContract renders a contract with the given document template.
func (p *Pipeline) RenderContract(ctx context.Context, documentID, contractID string) (*documents.RenderResult, error) {
	if p.contracts == nil {
		return nil, errors.New("render pipeline: no contract provider")
	}
	return p.Render(ctx, p.contracts, documentID, contractID)
}

// RenderProposal renders a proposal with the given document template.
func (p *Pipeline) RenderProposal(ctx context.Context, documentID, proposalID string) (*documents.RenderResult, error) {
	if p.proposals == nil {
		return nil, errors.New("render pipeline: no proposal provider")
	}
	return p.Render(ctx, p.proposals, documentID, proposalID)
}

// Provider returns the record provider for kind.
func (p *Pipeline) Provider(kind documents.DocumentKind) (RecordProvider, bool) {
	switch kind {
	case documents.KindContract:
		return p.contracts, p.contracts != nil
	case documents.KindProposal:
		return p.proposals, p.proposals != nil
	}
	return nil, false
}

// Render runs the state machine for one (document, record) pair. Errors are
// returned exactly as the failing collaborator produced them.
func (p *Pipeline) Render(ctx context.Context, provider RecordProvider, documentID, recordID string) (*documents.RenderResult, error) {
	if provider == nil {
		return nil, errors.New("render pipeline: nil record provider")
	}
	run := startRun(ctx, p.observer, provider.Kind(), documentID, recordID)

	doc, err := p.docs.GetDocument(ctx, documentID)
	if err != nil {
		return nil, run.fail(err)
	}
	record, err := provider.Load(ctx, recordID)
	if err != nil {
		return nil, run.fail(err)
	}
	if record == nil {
		return nil, run.fail(documents.ErrNilRecord)
	}
	if record.Kind == "" {
		record.Kind = provider.Kind()
	}
	if err := p.checkRecord(ctx, record); err != nil {
		return nil, run.fail(err)
	}
	account, err := p.accounts.GetAccount(ctx, record.AccountID)
	if err != nil {
		return nil, run.fail(err)
	}
	template, err := p.templates.Open(ctx, doc.TemplateFile)
	if err != nil {
		return nil, run.fail(err)
	}

	run.advance(StageScheduling)
	schedule, err := p.schedule.Generate(record.SCSDueDate, record.SCSInstallments, record.SCSAmount)
	if err != nil {
		return nil, run.fail(err)
	}

	run.advance(StageClassifying)
	classified, err := p.classifier.Classify(record.SoldItems, p.resolver(ctx))
	if err != nil {
		return nil, run.fail(err)
	}

	run.advance(StageAssembling)
	fields, err := p.assembler.Assemble(documents.AssembleInput{
		Document:       doc,
		Record:         record,
		Account:        account,
		Schedule:       schedule,
		Classification: classified,
		Now:            p.clock.Now(),
	})
	if err != nil {
		return nil, run.fail(err)
	}

	run.advance(StageRendering)
	stem := record.OutputStem()
	unlock := p.locks.lock(stem)
	defer unlock()

	rendered, err := p.renderer.Render(template, fields)
	if err != nil {
		return nil, run.fail(err)
	}
	generated, err := p.outputs.WriteFile(stem+"."+sourceFormat, rendered)
	if err != nil {
		return nil, run.fail(err)
	}

	run.advance(StageConverting)
	pdfPath, err := p.outputs.Path(stem + "." + targetFormat)
	if err != nil {
		return nil, run.fail(err)
	}
	conversion, err := p.converter.Convert(ctx, documents.ConversionRequest{
		SourcePath:   generated,
		SourceFormat: sourceFormat,
		TargetFormat: targetFormat,
		TargetPath:   pdfPath,
	})
	if err != nil {
		return nil, run.fail(err)
	}

	run.done()
	return &documents.RenderResult{
		GeneratedFile: generated,
		PDFLocation:   conversion.LocalPath,
		PDFURL:        conversion.RemoteURL,
		PDFPages:      conversion.Pages,
	}, nil
}

// Preview is the schedule and item breakdown of a record, without rendering.
type Preview struct {
	Record         *documents.BusinessRecord
	Schedule       []documents.DueDateEntry
	Classification documents.Classification
}

// Preview loads a record and computes its schedule and classification.
func (p *Pipeline) Preview(ctx context.Context, provider RecordProvider, recordID string) (*Preview, error) {
	if provider == nil {
		return nil, errors.New("render pipeline: nil record provider")
	}
	record, err := provider.Load(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, documents.ErrNilRecord
	}
	if record.Kind == "" {
		record.Kind = provider.Kind()
	}
	if err := p.checkRecord(ctx, record); err != nil {
		return nil, err
	}
	schedule, err := p.schedule.Generate(record.SCSDueDate, record.SCSInstallments, record.SCSAmount)
	if err != nil {
		return nil, err
	}
	classified, err := p.classifier.Classify(record.SoldItems, p.resolver(ctx))
	if err != nil {
		return nil, err
	}
	return &Preview{Record: record, Schedule: schedule, Classification: classified}, nil
}

// ListDocuments returns the templates a company owns.
func (p *Pipeline) ListDocuments(ctx context.Context, companyID string) ([]documents.Document, error) {
	return p.docs.ListDocuments(ctx, companyID)
}

// GetDocument returns one template definition.
func (p *Pipeline) GetDocument(ctx context.Context, id string) (*documents.Document, error) {
	return p.docs.GetDocument(ctx, id)
}

func (p *Pipeline) checkRecord(ctx context.Context, record *documents.BusinessRecord) error {
	if p.guard == nil {
		return nil
	}
	return p.guard(ctx, record)
}

func (p *Pipeline) resolver(ctx context.Context) documents.ItemResolver {
	return func(sold documents.SoldItem) (documents.Item, error) {
		item, err := p.items.GetItem(ctx, sold.ItemID)
		if err != nil {
			return documents.Item{}, err
		}
		if item == nil {
			return documents.Item{}, documents.NewNotFound("item", sold.ItemID)
		}
		return *item, nil
	}
}
