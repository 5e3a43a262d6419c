package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInitRequiresServiceName(t *testing.T) {
	_, err := Init(context.Background(), Config{Traces: true})
	require.Error(t, err)
}

func TestInitDisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{ServiceName: "cauldron"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestInitRejectsSampleRatio(t *testing.T) {
	_, err := Init(context.Background(), Config{ServiceName: "cauldron", Traces: true, SampleRatio: 1.5})
	require.Error(t, err)
}

func TestParseHeaders(t *testing.T) {
	headers := ParseHeaders(" api-key = abc ,broken, =skip,tenant=ledger")
	require.Equal(t, map[string]string{"api-key": "abc", "tenant": "ledger"}, headers)
}

func TestScopeNames(t *testing.T) {
	require.Equal(t, "cauldron", scope(""))
	require.Equal(t, "cauldron/audit", scope(" /audit/ "))
	require.NotNil(t, Tracer("audit"))
	require.NotNil(t, Meter("audit"))
}

func TestStopAllJoinsErrorsInReverse(t *testing.T) {
	var order []string
	first := errors.New("first")
	second := errors.New("second")
	err := stopAll(context.Background(), []Shutdown{
		func(context.Context) error { order = append(order, "traces"); return first },
		func(context.Context) error { order = append(order, "metrics"); return second },
	})
	require.ErrorIs(t, err, first)
	require.ErrorIs(t, err, second)
	require.Equal(t, []string{"metrics", "traces"}, order)
	require.NoError(t, stopAll(context.Background(), nil))
}

func TestSampler(t *testing.T) {
	require.Equal(t, sdktrace.AlwaysSample().Description(), sampler(0).Description())
	require.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	require.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased")
}
