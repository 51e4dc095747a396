package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInit(t *testing.T) {
	// Call Init multiple times to test idempotency.
	Init()
	Init()

	if previewResolutionsTotal == nil || previewCacheLookupsTotal == nil ||
		reconciliationsTotal == nil || httpRequestsTotal == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}

	// A simple check to see if a metric can be used.
	previewResolutionsTotal.WithLabelValues("oembed", "resolved").Inc()
	if val := testutil.ToFloat64(previewResolutionsTotal.WithLabelValues("oembed", "resolved")); val != 1 {
		t.Errorf("Expected resolution counter to be 1, got %f", val)
	}
}

func TestObserveHelpersLazyInit(t *testing.T) {
	ObserveResolution("scrape", "none")
	ObserveCacheLookup("hit")
	ObserveCacheLookup("miss")
	ObserveReconciliation("applied")
	ObserveFetchDuration("oembed", 125*time.Millisecond)
	IncActiveWorkers()
	DecActiveWorkers()

	if val := testutil.ToFloat64(previewCacheLookupsTotal.WithLabelValues("hit")); val < 1 {
		t.Errorf("Expected at least one cache hit recorded, got %f", val)
	}
	if val := testutil.ToFloat64(reconcilerActiveWorkers); val != 0 {
		t.Errorf("Expected active workers gauge back at 0, got %f", val)
	}
}
