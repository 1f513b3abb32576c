package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRender(t *testing.T) {
	Init(nil, nil)

	before := testutil.ToFloat64(renderTotal.WithLabelValues("contract", ResultSuccess))
	ObserveRender("contract", ResultSuccess, 150*time.Millisecond)
	after := testutil.ToFloat64(renderTotal.WithLabelValues("contract", ResultSuccess))
	if after-before != 1 {
		t.Fatalf("expected render counter to grow by 1, got %v", after-before)
	}

	ObserveRender("", "", time.Millisecond)
	if got := testutil.ToFloat64(renderTotal.WithLabelValues("unknown", ResultSuccess)); got < 1 {
		t.Fatalf("expected empty kind to count as unknown, got %v", got)
	}
}

func TestStageFailureAndConversion(t *testing.T) {
	Init(nil, nil)

	IncRenderStageFailure("rendering")
	IncRenderStageFailure("rendering")
	if got := testutil.ToFloat64(renderStageFailures.WithLabelValues("rendering")); got != 2 {
		t.Fatalf("expected 2 rendering failures, got %v", got)
	}

	ObserveConversion(ResultError, 0)
	if got := testutil.ToFloat64(conversionTotal.WithLabelValues(ResultError)); got != 1 {
		t.Fatalf("expected 1 failed conversion, got %v", got)
	}

	ObserveAnnexExport("xlsx", ResultSuccess, time.Second)
	if got := testutil.ToFloat64(annexExportTotal.WithLabelValues("xlsx", ResultSuccess)); got != 1 {
		t.Fatalf("expected 1 xlsx export, got %v", got)
	}
}

func TestResult(t *testing.T) {
	if Result(nil) != ResultSuccess {
		t.Fatalf("nil error should map to success")
	}
	if Result(errors.New("boom")) != ResultError {
		t.Fatalf("error should map to error")
	}
}
