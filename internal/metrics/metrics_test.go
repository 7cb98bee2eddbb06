package metrics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRoutesLabel(t *testing.T) {
	routes := Routes{}
	routes.Add("GET /items/bills")
	routes.Add("POST /items/bills/update")
	routes.Add("/health")

	tests := []struct {
		in   string
		want string
	}{
		{"/items/bills", "/items/bills"},
		{"/items/bills/update", "/items/bills/update"},
		{"/health", "/health"},
		{"/items/bills/", "/other"},
		{"/items/x1/y1", "/other"},
		{"/wp-admin/login.php", "/other"},
		{"/", "/other"},
	}
	for _, tt := range tests {
		if got := routes.label(tt.in); got != tt.want {
			t.Errorf("label(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMethodLabel(t *testing.T) {
	for _, m := range []string{"GET", "POST", "DELETE"} {
		if got := methodLabel(m); got != m {
			t.Errorf("methodLabel(%q) = %q", m, got)
		}
	}
	for _, m := range []string{"get", "BREW", "X-CUSTOM-1"} {
		if got := methodLabel(m); got != "OTHER" {
			t.Errorf("methodLabel(%q) = %q, want OTHER", m, got)
		}
	}
}

func TestInstrumentHandlerCountsRequests(t *testing.T) {
	routes := Routes{}
	routes.Add("GET /items/chores")
	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/items/chores", "404"))

	h := InstrumentHandler(http.NotFoundHandler(), routes)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/chores", nil))

	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/items/chores", "404"))
	if after-before != 1 {
		t.Errorf("requests counter delta = %v, want 1", after-before)
	}
}

func TestInstrumentHandlerBoundsSeries(t *testing.T) {
	routes := Routes{}
	routes.Add("GET /items/chores")
	h := InstrumentHandler(http.NotFoundHandler(), routes)

	for i := 0; i < 200; i++ {
		path := fmt.Sprintf("/items/x%d/y%d", i, i)
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
		req := httptest.NewRequest(http.MethodGet, "/items/chores", nil)
		req.Method = fmt.Sprintf("M%d", i)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	values := labelValues(t, "hearth_http_requests_total")
	for i := 0; i < 200; i++ {
		for _, label := range []string{fmt.Sprintf("/items/x%d/y%d", i, i), fmt.Sprintf("M%d", i)} {
			if values[label] {
				t.Fatalf("series created for %q", label)
			}
		}
	}
	if !values["/other"] || !values["OTHER"] {
		t.Error("expected unknown paths and methods under the shared labels")
	}
}

func TestRecordAuditBoundsItemType(t *testing.T) {
	otherBefore := testutil.ToFloat64(auditEntries.WithLabelValues("other"))
	billsBefore := testutil.ToFloat64(auditEntries.WithLabelValues("bills"))

	for i := 0; i < 50; i++ {
		RecordAudit(fmt.Sprintf("client-type-%d", i))
	}
	RecordAudit("bills")

	if got := testutil.ToFloat64(auditEntries.WithLabelValues("other")) - otherBefore; got != 50 {
		t.Errorf("other delta = %v, want 50", got)
	}
	if got := testutil.ToFloat64(auditEntries.WithLabelValues("bills")) - billsBefore; got != 1 {
		t.Errorf("bills delta = %v, want 1", got)
	}
	if labelValues(t, "hearth_audit_entries_total")["client-type-0"] {
		t.Error("series created for client supplied item type")
	}
}

// labelValues collects every label value used by the named metric's series.
func labelValues(t *testing.T, name string) map[string]bool {
	t.Helper()
	families, err := Registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	values := make(map[string]bool)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				values[lp.GetValue()] = true
			}
		}
	}
	return values
}

func TestRecordNotification(t *testing.T) {
	before := testutil.ToFloat64(notificationsCreated.WithLabelValues("chores"))
	RecordNotification("chores")
	if got := testutil.ToFloat64(notificationsCreated.WithLabelValues("chores")) - before; got != 1 {
		t.Errorf("notifications delta = %v, want 1", got)
	}
}

func TestRecordPush(t *testing.T) {
	sent := testutil.ToFloat64(pushDeliveries.WithLabelValues("sent"))
	failed := testutil.ToFloat64(pushDeliveries.WithLabelValues("failed"))

	RecordPush(2, 3)

	if got := testutil.ToFloat64(pushDeliveries.WithLabelValues("sent")) - sent; got != 2 {
		t.Errorf("sent delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(pushDeliveries.WithLabelValues("failed")) - failed; got != 1 {
		t.Errorf("failed delta = %v, want 1", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordAudit("bills")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "hearth_audit_entries_total") {
		t.Error("expected hearth_audit_entries_total in output")
	}
}
