package db

import (
	"context"
	"errors"

	"github.com/agrovision/grainloss/services/api/models"
)

// ErrNotFound marks a point lookup or delete that matched no record.
var ErrNotFound = errors.New("measurement not found")

// ErrNotInitialized marks store usage before a backend was opened. It is
// distinct from an empty result so callers can tell "no data" from "store
// unusable".
var ErrNotInitialized = errors.New("measurement store is not initialized")

// Store is the persistence contract for measurement records. Records are
// immutable after save; there is no update operation, only delete.
type Store interface {
	// Save assigns an id and writes the record durably. Ids are strictly
	// increasing and unique per store instance.
	Save(ctx context.Context, rec models.MeasurementRecord) (int64, error)
	// GetAll returns every record, most recent timestamp first.
	GetAll(ctx context.Context) ([]models.MeasurementRecord, error)
	// GetByID returns one record or ErrNotFound.
	GetByID(ctx context.Context, id int64) (*models.MeasurementRecord, error)
	// GetFiltered applies the filter dimensions conjunctively, timestamp
	// descending. Date bounds are inclusive at both ends.
	GetFiltered(ctx context.Context, filter models.Filter) ([]models.MeasurementRecord, error)
	// GetAggregatedByField groups records by field name within the filter's
	// date range (field/operator dimensions are ignored: the grouping itself
	// covers the field axis) and orders by average loss descending, so the
	// worst fields come first.
	GetAggregatedByField(ctx context.Context, filter models.Filter) ([]models.AggregatedFieldRecord, error)
	// Delete removes a record permanently, ErrNotFound if absent.
	Delete(ctx context.Context, id int64) error
	// Close releases backend resources.
	Close()
}
