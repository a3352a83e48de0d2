package observability_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"listing_editor/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record one sample per vec so every family is exported
	observability.ObserveHTTP("/test", "GET", 200, 12*time.Millisecond)
	observability.ObservePipelineWarning("assemble", "not a number")
	observability.ObserveSubmission("create", nil)
	observability.ObserveSubmission("edit", errors.New("db down"))
	observability.ObserveEvent("listing.created", nil)

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, want := range []string{
		"listing_http_requests_total",
		`listing_pipeline_warnings_total{reason="not a number",stage="assemble"}`,
		`listing_submissions_total{mode="edit",result="error"}`,
		`listing_events_published_total{result="ok",type="listing.created"}`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in output", want)
		}
	}
}
