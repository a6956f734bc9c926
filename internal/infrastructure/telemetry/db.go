package telemetry

import (
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// InstrumentDB adds a span to every statement run on db.
// Query variables are never recorded; the store holds session tokens.
func InstrumentDB(db *gorm.DB, tp trace.TracerProvider) error {
	plugin := otelgorm.NewPlugin(
		otelgorm.WithDBName("sqlite"),
		otelgorm.WithoutQueryVariables(),
		otelgorm.WithTracerProvider(tp),
	)
	if err := db.Use(plugin); err != nil {
		return fmt.Errorf("failed to register otelgorm plugin: %w", err)
	}
	return nil
}
