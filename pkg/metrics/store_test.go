package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStoreMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStoreMetrics(reg)

	m.ObserveMutation("account", "create", nil)
	m.ObserveMutation("account", "create", errors.New("dup"))
	m.ObserveMutation("account", "create", nil)
	m.ObserveAuth(nil)
	m.ObserveAuth(errors.New("bad"))
	m.ObserveDecision("accounts", true)
	m.ObserveSlot("save", time.Now().Add(-10*time.Millisecond), nil)

	if got := testutil.ToFloat64(m.mutations.WithLabelValues("account", "create", OutcomeSuccess)); got != 2 {
		t.Fatalf("expected 2 successful creates, got %f", got)
	}
	if got := testutil.ToFloat64(m.mutations.WithLabelValues("account", "create", OutcomeFailure)); got != 1 {
		t.Fatalf("expected 1 failed create, got %f", got)
	}
	if got := testutil.ToFloat64(m.auth.WithLabelValues(OutcomeFailure)); got != 1 {
		t.Fatalf("expected 1 failed auth, got %f", got)
	}
	if got := testutil.ToFloat64(m.guard.WithLabelValues("accounts", OutcomeRedirect)); got != 1 {
		t.Fatalf("expected 1 redirect, got %f", got)
	}
	if got := testutil.ToFloat64(m.slotOps.WithLabelValues("save", OutcomeSuccess)); got != 1 {
		t.Fatalf("expected 1 slot save, got %f", got)
	}
	if n := testutil.CollectAndCount(m.slotTime); n != 1 {
		t.Fatalf("expected one histogram series, got %d", n)
	}
}

func TestNilStoreMetricsIsSafe(t *testing.T) {
	var m *StoreMetrics
	m.ObserveMutation("department", "delete", nil)
	m.ObserveSlot("load", time.Now(), nil)
	m.ObserveAuth(nil)
	m.ObserveDecision("home", false)

	unregistered := NewStoreMetrics(nil)
	unregistered.ObserveMutation("department", "delete", nil)
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStoreMetrics(reg)
	m.ObserveAuth(nil)

	path := filepath.Join(t.TempDir(), "staffdesk.prom")
	if err := WriteTextfile(reg, path); err != nil {
		t.Fatalf("WriteTextfile returned error: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(raw), `staffdesk_auth_attempts_total{outcome="success"} 1`) {
		t.Fatalf("unexpected textfile contents:\n%s", raw)
	}

	if err := WriteTextfile(reg, ""); err != nil {
		t.Fatalf("empty path should be a no-op, got %v", err)
	}
}
