package metrics

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"cauldron/native/cauldron"
)

// CauldronMetrics tracks ledger operation outcomes and latency.
type CauldronMetrics struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	rejections *prometheus.CounterVec
}

var (
	cauldronOnce     sync.Once
	cauldronRegistry *CauldronMetrics
)

// Cauldron returns the process-wide cauldron metrics, registering them with
// the default prometheus registry on first use.
func Cauldron() *CauldronMetrics {
	cauldronOnce.Do(func() {
		cauldronRegistry = NewCauldronMetrics(prometheus.DefaultRegisterer)
	})
	return cauldronRegistry
}

// NewCauldronMetrics builds a metrics set registered with reg. A nil reg
// leaves the collectors unregistered.
func NewCauldronMetrics(reg prometheus.Registerer) *CauldronMetrics {
	m := &CauldronMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cauldron_operations_total",
			Help: "Count of ledger operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cauldron_operation_duration_seconds",
			Help:    "Latency of ledger operations including commit.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"operation"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cauldron_rejections_total",
			Help: "Count of rejected ledger operations by reason.",
		}, []string{"operation", "reason"}),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.latency, m.rejections)
	}
	return m
}

// RecordOperation implements the engine's operation recorder.
func (m *CauldronMetrics) RecordOperation(operation string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	if operation == "" {
		operation = "unknown"
	}
	m.latency.WithLabelValues(operation).Observe(elapsed.Seconds())
	if err == nil {
		m.operations.WithLabelValues(operation, "ok").Inc()
		return
	}
	m.operations.WithLabelValues(operation, "error").Inc()
	m.rejections.WithLabelValues(operation, reason(err)).Inc()
}

// rejectionReasons maps ledger sentinels to bounded label values. Errors
// matching none of them are counted as "other".
var rejectionReasons = []struct {
	err   error
	label string
}{
	{cauldron.ErrUnauthorized, "unauthorized"},
	{cauldron.ErrModulePaused, "paused"},
	{cauldron.ErrReentrantCall, "reentrant"},
	{cauldron.ErrDuplicateID, "duplicate_id"},
	{cauldron.ErrUnknownAsset, "unknown_asset"},
	{cauldron.ErrUnknownSeries, "unknown_series"},
	{cauldron.ErrOracleMissing, "oracle_missing"},
	{cauldron.ErrIlkNotApproved, "ilk_not_approved"},
	{cauldron.ErrInvalidHandle, "invalid_handle"},
	{cauldron.ErrNotOwner, "not_owner"},
	{cauldron.ErrVaultNotFound, "vault_not_found"},
	{cauldron.ErrNotEmpty, "not_empty"},
	{cauldron.ErrIlkMismatch, "ilk_mismatch"},
	{cauldron.ErrDebtPresent, "debt_present"},
	{cauldron.ErrCollateralPresent, "collateral_present"},
	{cauldron.ErrUnderflow, "underflow"},
	{cauldron.ErrDebtCeilingExceeded, "debt_ceiling_exceeded"},
	{cauldron.ErrUndercollateralized, "undercollateralized"},
	{cauldron.ErrArithmeticOverflow, "overflow"},
	{cauldron.ErrVaultIDExhausted, "vault_id_exhausted"},
}

// reason returns the label of the first ledger sentinel err matches.
func reason(err error) string {
	for _, r := range rejectionReasons {
		if errors.Is(err, r.err) {
			return r.label
		}
	}
	return "other"
}
