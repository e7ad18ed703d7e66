package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRanking(t *testing.T) {
	tests := []struct {
		name     string
		strategy string
		err      error
		result   string
	}{
		{"success", "knn-test", nil, "success"},
		{"error", "heuristic-test", errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(RankingRequests.WithLabelValues(tt.strategy, tt.result))
			RecordRanking(tt.strategy, 2*time.Millisecond, tt.err)
			after := testutil.ToFloat64(RankingRequests.WithLabelValues(tt.strategy, tt.result))
			if after != before+1 {
				t.Fatalf("counter = %v, want %v", after, before+1)
			}
		})
	}
}

func TestRecordAPIRequest(t *testing.T) {
	c := APIRequestsTotal.WithLabelValues("POST", "/test", "400")
	before := testutil.ToFloat64(c)
	RecordAPIRequest("POST", "/test", 400, time.Millisecond)
	if got := testutil.ToFloat64(c); got != before+1 {
		t.Fatalf("requests = %v, want %v", got, before+1)
	}
}

func TestRecordFallbackAndHealth(t *testing.T) {
	fb := RankingFallbacks.WithLabelValues("remote-test", "knn")
	before := testutil.ToFloat64(fb)
	RecordFallback("remote-test", "knn")
	if got := testutil.ToFloat64(fb); got != before+1 {
		t.Fatalf("fallbacks = %v", got)
	}

	unhealthy := RemoteHealthChecks.WithLabelValues("unhealthy")
	before = testutil.ToFloat64(unhealthy)
	RecordHealthCheck(false)
	if got := testutil.ToFloat64(unhealthy); got != before+1 {
		t.Fatalf("unhealthy probes = %v", got)
	}
}

func TestSetCatalogSize(t *testing.T) {
	SetCatalogSize(5)
	if got := testutil.ToFloat64(CatalogSize); got != 5 {
		t.Fatalf("catalog size = %v, want 5", got)
	}
}
