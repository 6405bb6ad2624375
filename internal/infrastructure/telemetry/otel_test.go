package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/carehours/backend/internal/domain/billing"
	"github.com/carehours/backend/internal/domain/shared"
	"github.com/carehours/backend/internal/domain/timesheet"
	"github.com/carehours/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetup_Disabled(t *testing.T) {
	tel, err := Setup(context.Background(), config.TelemetryConfig{Enabled: false}, zap.NewNop())

	require.NoError(t, err)
	assert.False(t, tel.Enabled())
	assert.NoError(t, tel.Shutdown(context.Background()))

	core, _ := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)
	assert.Same(t, logger, tel.WrapLogger(logger, zapcore.InfoLevel))
	tel.EnableSpanProfiles()
}

func TestSamplerFor(t *testing.T) {
	assert.Contains(t, samplerFor(1).Description(), "AlwaysOnSampler")
	assert.Equal(t, "AlwaysOffSampler", samplerFor(0).Description())
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestStartSpan_EndSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx, span := StartSpan(context.Background(), "document", "generate", AttrDocumentKind.String("invoice"))
	assert.NotEmpty(t, TraceID(ctx))
	EndSpan(span, errors.New("render failed"))

	_, ok := StartSpan(context.Background(), "email", "drain")
	EndSpan(ok, nil)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "document.generate", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Len(t, spans[0].Events(), 1)
	assert.Equal(t, codes.Ok, spans[1].Status().Code)
}

func TestTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
}

func TestLevelCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelCore{Core: inner, min: zapcore.WarnLevel}
	logger := zap.New(core).With(zap.String("component", "test"))

	logger.Info("dropped")
	logger.Warn("kept")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
	assert.Equal(t, "test", logs.All()[0].ContextMap()["component"])
}

func TestProfiler_Disabled(t *testing.T) {
	p, err := StartProfiler(config.TelemetryConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.Running())
	assert.NoError(t, p.Stop())

	_, err = StartProfiler(config.TelemetryConfig{ProfilingEnabled: true}, zap.NewNop())
	assert.Error(t, err)
}

func TestWithJobLabels(t *testing.T) {
	ran := false
	WithJobLabels(context.Background(), "email_drain", func(ctx context.Context) {
		ran = ctx != nil
	})
	assert.True(t, ran)
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestBusinessMetrics_Handle(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")
	bm, err := NewBusinessMetrics(meter)
	require.NoError(t, err)
	ctx := context.Background()
	tenantID := uuid.New()

	ts := &timesheet.TimesheetEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(timesheet.EventTypeTimesheetApproved, timesheet.AggregateTypeTimesheet, uuid.New(), tenantID),
		BillableUnits:   12,
	}
	inv := &billing.InvoiceEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(billing.EventTypeInvoiceSent, billing.AggregateTypeInvoice, uuid.New(), tenantID),
		TotalAmount:     decimal.RequireFromString("240.50"),
	}
	require.NoError(t, bm.Handle(ctx, ts))
	require.NoError(t, bm.Handle(ctx, inv))
	require.NoError(t, bm.Handle(ctx, &shared.BaseDomainEvent{}))

	data := collect(t, reader)
	units := data["carehours.timesheets.approved_units"].(metricdata.Sum[int64])
	require.Len(t, units.DataPoints, 1)
	assert.Equal(t, int64(12), units.DataPoints[0].Value)

	amount := data["carehours.invoices.sent_amount"].(metricdata.Sum[float64])
	require.Len(t, amount.DataPoints, 1)
	assert.InDelta(t, 240.5, amount.DataPoints[0].Value, 0.001)
}

func TestBusinessMetrics_EventTypes(t *testing.T) {
	bm, err := NewBusinessMetrics(sdkmetric.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	assert.Contains(t, bm.EventTypes(), billing.EventTypeInvoicePaid)
	assert.Contains(t, bm.EventTypes(), timesheet.EventTypeTimesheetSubmitted)
}
