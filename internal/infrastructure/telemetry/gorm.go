package telemetry

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const spanAnnotateCallback = "carehours:annotate_span"

// InstrumentGorm traces every gorm statement. Query variables are never put
// on spans since they carry client data.
func InstrumentGorm(db *gorm.DB, dbSystem string) error {
	if err := db.Use(otelgorm.NewPlugin(
		otelgorm.WithDBName(dbSystem),
		otelgorm.WithoutQueryVariables(),
	)); err != nil {
		return fmt.Errorf("failed to register otelgorm: %w", err)
	}

	cb := db.Callback()
	errs := []error{
		cb.Create().After("gorm:create").Register(spanAnnotateCallback, annotateSpan),
		cb.Query().After("gorm:query").Register(spanAnnotateCallback, annotateSpan),
		cb.Update().After("gorm:update").Register(spanAnnotateCallback, annotateSpan),
		cb.Delete().After("gorm:delete").Register(spanAnnotateCallback, annotateSpan),
		cb.Row().After("gorm:row").Register(spanAnnotateCallback, annotateSpan),
		cb.Raw().After("gorm:raw").Register(spanAnnotateCallback, annotateSpan),
	}
	return errors.Join(errs...)
}

// annotateSpan adds the table and row count, and leaves not-found unmarked
func annotateSpan(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
	}
}

// RegisterDBStats exports connection pool statistics on /metrics
func RegisterDBStats(db *gorm.DB, name string) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	err = Registry.Register(collectors.NewDBStatsCollector(sqlDB, name))
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return nil
	}
	return err
}
