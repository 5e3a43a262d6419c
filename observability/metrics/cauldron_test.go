package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"cauldron/native/cauldron"
)

func TestCauldronMetricsRecordOperation(t *testing.T) {
	m := NewCauldronMetrics(prometheus.NewRegistry())

	m.RecordOperation("frob", nil, time.Millisecond)
	m.RecordOperation("frob", nil, time.Millisecond)
	m.RecordOperation("frob", fmt.Errorf("%w: 0a", cauldron.ErrVaultNotFound), time.Millisecond)
	m.RecordOperation("give", fmt.Errorf("give: %w", fmt.Errorf("%w: 0b", cauldron.ErrVaultNotFound)), time.Millisecond)

	if got := testutil.ToFloat64(m.operations.WithLabelValues("frob", "ok")); got != 2 {
		t.Fatalf("expected 2 successful frobs, got %v", got)
	}
	if got := testutil.ToFloat64(m.operations.WithLabelValues("frob", "error")); got != 1 {
		t.Fatalf("expected 1 failed frob, got %v", got)
	}
	if got := testutil.ToFloat64(m.rejections.WithLabelValues("give", "vault_not_found")); got != 1 {
		t.Fatalf("expected rejection keyed by sentinel, got %v", got)
	}
	if got := testutil.CollectAndCount(m.latency); got != 2 {
		t.Fatalf("expected latency series for two operations, got %d", got)
	}
}

func TestRejectionReasonsAreBounded(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"sentinel", fmt.Errorf("%w: 0a", cauldron.ErrDebtCeilingExceeded), "debt_ceiling_exceeded"},
		{"shared sentinel", fmt.Errorf("frob: %w", cauldron.ErrModulePaused), "paused"},
		{"missing vault ownership", fmt.Errorf("%w: %w", cauldron.ErrNotOwner, cauldron.ErrVaultNotFound), "not_owner"},
		{"oracle message", fmt.Errorf("cauldron: spot 01/02: %w", errors.New("feed stale")), "other"},
		{"storage failure", errors.New("leveldb: closed"), "other"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := reason(tc.err); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}

	m := NewCauldronMetrics(prometheus.NewRegistry())
	m.RecordOperation("level", errors.New("feed stale"), time.Millisecond)
	m.RecordOperation("frob", errors.New("feed unreachable"), time.Millisecond)
	if got := testutil.CollectAndCount(m.rejections); got != 2 {
		t.Fatalf("expected one series per operation, got %d", got)
	}
	if got := testutil.ToFloat64(m.rejections.WithLabelValues("level", "other")); got != 1 {
		t.Fatalf("expected free-form errors under other, got %v", got)
	}
}

func TestNilCauldronMetrics(t *testing.T) {
	var m *CauldronMetrics
	m.RecordOperation("frob", nil, time.Second)
}
