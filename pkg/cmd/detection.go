package cmd

import (
	"github.com/vallabhn1/MallCCTV/pkg/detection"
	"github.com/vallabhn1/MallCCTV/pkg/persistence"
	"github.com/vallabhn1/MallCCTV/pkg/persistence/postgresql"
)

// NewDetectionSource exposes the detection stream backing the store. The
// PostgreSQL backend shares the database the vision pipeline writes to; other
// backends fall back to an in-memory source fed by trigger payloads.
func NewDetectionSource(store persistence.Persistence) detection.Source {
	if pg, ok := store.(*postgresql.Persistence); ok {
		return pg.Detections()
	}

	return detection.NewMemorySource()
}
