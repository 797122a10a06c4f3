package telemetry

import (
	"database/sql"
	"fmt"

	"github.com/XSAM/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// OpenDB opens an instrumented Postgres handle and registers its pool stats
// with the global meter provider.
func OpenDB(driverName, dsn string) (*sql.DB, error) {
	attrs := otelsql.WithAttributes(semconv.DBSystemPostgreSQL)

	db, err := otelsql.Open(driverName, dsn, attrs)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := otelsql.RegisterDBStatsMetrics(db, attrs); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("register db stats metrics: %w", err)
	}

	return db, nil
}
