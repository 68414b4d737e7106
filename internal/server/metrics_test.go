package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// counterValue returns the value of the named counter whose labels include
// every pair in want, or -1 when absent.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelsMatch(m, want) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return -1
}

func labelsMatch(m *dto.Metric, want map[string]string) bool {
	matched := 0
	for _, lp := range m.GetLabel() {
		if v, ok := want[lp.GetName()]; ok && v == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}

func Test_Metrics_EndpointServesRegistry(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, nil)
	e.createEntry(t, "alice", "", "hello")

	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("want text/plain content-type, got %q", ct)
	}
	if !strings.Contains(w.Body.String(), "journal_api_operations_total") {
		t.Error("operations counter missing from /metrics output")
	}
}

func Test_Metrics_OperationOutcomes(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, nil)

	e.createEntry(t, "alice", "", "hello")
	e.do(t, "alice", http.MethodGet, "/v1/journals/missing", nil)

	if v := counterValue(t, e.reg, "journal_api_operations_total", map[string]string{"op": "create", "outcome": "ok"}); v != 1 {
		t.Errorf("create ok = %v, want 1", v)
	}
	if v := counterValue(t, e.reg, "journal_api_operations_total", map[string]string{"op": "get", "outcome": "JOURNAL_NOT_FOUND"}); v != 1 {
		t.Errorf("get not found = %v, want 1", v)
	}
}

func Test_Metrics_HTTPRequestsByPattern(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, nil)

	e.do(t, "alice", http.MethodGet, "/v1/journals/a", nil)
	e.do(t, "alice", http.MethodGet, "/v1/journals/b", nil)

	v := counterValue(t, e.reg, "journal_http_requests_total", map[string]string{
		"method":     "GET",
		labelHandler: "GET /v1/journals/{id}",
		"code":       "404",
	})
	if v != 2 {
		t.Errorf("requests for pattern = %v, want 2", v)
	}

	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if v := counterValue(t, e.reg, "journal_http_requests_total", map[string]string{labelHandler: unmatchedHandler}); v != 1 {
		t.Errorf("unmatched = %v, want 1", v)
	}
}
