package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestHTTPMetricsRecordRequestsAndActions(t *testing.T) {
	m := NewHTTPServerMetrics("invoice-api")
	handler := m.Middleware("invoice-api", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/schema/usd", nil))
	m.ObserveAction("extractInvoice", 20*time.Millisecond, nil)
	m.ObserveAction("processPDF", time.Second, errors.New("boom"))
	m.ObserveExtraction("PDF", "byte_heuristic")

	out := scrape(t, m.Handler())
	for _, want := range []string{
		`invoicefill_http_requests_total{method="GET",path="/v1/schema/{currency}",service="invoice-api",status="418"} 1`,
		`invoicefill_actions_total{action="extractInvoice",service="invoice-api",status="success"} 1`,
		`invoicefill_actions_total{action="processPDF",service="invoice-api",status="error"} 1`,
		`invoicefill_extraction_total{service="invoice-api",source_type="PDF",strategy="byte_heuristic"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestWorkerMetricsTrackInFlight(t *testing.T) {
	m := NewWorkerMetrics("invoice-worker")
	m.StartRequest()
	m.StartRequest()
	m.FinishRequest()
	m.ObserveExtraction("DOM", "")

	out := scrape(t, m.Handler())
	if !strings.Contains(out, `invoicefill_worker_requests_in_flight{service="invoice-worker"} 1`) {
		t.Fatalf("unexpected in-flight gauge:\n%s", out)
	}
	if !strings.Contains(out, `strategy="none"`) {
		t.Fatalf("expected empty strategy to be reported as none:\n%s", out)
	}
}
