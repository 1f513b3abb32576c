package application

import (
	"context"
	"log"
	"time"

	documents "billing-docs/internal/documents/domain"
	"billing-docs/internal/observability/metrics"
)

// Stage is a state of the render state machine.
type Stage string

const (
	StageLoading     Stage = "loading"
	StageScheduling  Stage = "scheduling"
	StageClassifying Stage = "classifying"
	StageAssembling  Stage = "assembling"
	StageRendering   Stage = "rendering"
	StageConverting  Stage = "converting"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// StageEvent reports a finished stage. For StageDone and StageFailed, Elapsed
// covers the whole render and FailedStage names where a failure happened.
// StageElapsed is the time spent in the closing stage, or in FailedStage.
type StageEvent struct {
	Kind         documents.DocumentKind
	DocumentID   string
	RecordID     string
	Stage        Stage
	FailedStage  Stage
	Err          error
	Elapsed      time.Duration
	StageElapsed time.Duration
}

// StageObserver receives every stage transition of a render.
type StageObserver interface {
	ObserveStage(ctx context.Context, event StageEvent)
}

type nopObserver struct{}

func (nopObserver) ObserveStage(context.Context, StageEvent) {}

// MetricsObserver records render metrics and logs failures.
type MetricsObserver struct {
	logger *log.Logger
}

// NewMetricsObserver constructs a MetricsObserver. A nil logger disables logging.
func NewMetricsObserver(logger *log.Logger) *MetricsObserver {
	return &MetricsObserver{logger: logger}
}

// ObserveStage implements StageObserver.
func (o *MetricsObserver) ObserveStage(ctx context.Context, event StageEvent) {
	switch event.Stage {
	case StageConverting:
		metrics.ObserveConversion(metrics.ResultSuccess, event.StageElapsed)
	case StageDone:
		metrics.ObserveRender(event.Kind.String(), metrics.ResultSuccess, event.Elapsed)
		if o.logger != nil {
			o.logger.Printf("document rendered: kind=%s document=%s record=%s elapsed=%s", event.Kind, event.DocumentID, event.RecordID, event.Elapsed)
		}
	case StageFailed:
		metrics.ObserveRender(event.Kind.String(), metrics.ResultError, event.Elapsed)
		metrics.IncRenderStageFailure(string(event.FailedStage))
		if event.FailedStage == StageConverting {
			metrics.ObserveConversion(metrics.ResultError, event.StageElapsed)
		}
		if o.logger != nil {
			o.logger.Printf("document render failed: kind=%s document=%s record=%s stage=%s err=%v", event.Kind, event.DocumentID, event.RecordID, event.FailedStage, event.Err)
		}
	}
}

// renderRun walks one render through the stages.
type renderRun struct {
	ctx          context.Context
	observer     StageObserver
	base         StageEvent
	stage        Stage
	started      time.Time
	stageStarted time.Time
}

func startRun(ctx context.Context, observer StageObserver, kind documents.DocumentKind, documentID, recordID string) *renderRun {
	now := time.Now()
	return &renderRun{
		ctx:          ctx,
		observer:     observer,
		base:         StageEvent{Kind: kind, DocumentID: documentID, RecordID: recordID},
		stage:        StageLoading,
		started:      now,
		stageStarted: now,
	}
}

func (r *renderRun) emit(stage Stage, elapsed, stageElapsed time.Duration, failed Stage, err error) {
	event := r.base
	event.Stage = stage
	event.Elapsed = elapsed
	event.StageElapsed = stageElapsed
	event.FailedStage = failed
	event.Err = err
	r.observer.ObserveStage(r.ctx, event)
}

// advance closes the current stage and enters next.
func (r *renderRun) advance(next Stage) {
	now := time.Now()
	spent := now.Sub(r.stageStarted)
	r.emit(r.stage, spent, spent, "", nil)
	r.stage = next
	r.stageStarted = now
}

// fail moves the run to StageFailed and hands err back unchanged.
func (r *renderRun) fail(err error) error {
	r.emit(StageFailed, time.Since(r.started), time.Since(r.stageStarted), r.stage, err)
	r.stage = StageFailed
	return err
}

func (r *renderRun) done() {
	r.advance(StageDone)
	r.emit(StageDone, time.Since(r.started), 0, "", nil)
}
