package db

import (
	"context"
	"sort"
	"sync"

	"github.com/agrovision/grainloss/services/api/models"
)

// MemoryStore keeps measurements in process memory. It backs the service
// when no DATABASE_URL is configured (offline/dev sessions) and the test
// suite; the query semantics match PostgresStore exactly.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[int64]models.MeasurementRecord
	nextID  int64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{records: make(map[int64]models.MeasurementRecord), nextID: 1}
}

// Close is a no-op for the in-memory backend.
func (s *MemoryStore) Close() {}

// Save assigns the next id and stores a copy of the record.
func (s *MemoryStore) Save(ctx context.Context, rec models.MeasurementRecord) (int64, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = s.nextID
	s.nextID++
	if rec.Detections == nil {
		rec.Detections = []models.Detection{}
	}
	s.records[rec.ID] = rec
	return rec.ID, nil
}

// GetAll returns every record, most recent timestamp first.
func (s *MemoryStore) GetAll(ctx context.Context) ([]models.MeasurementRecord, error) {
	return s.GetFiltered(ctx, models.Filter{})
}

// GetByID returns one record or ErrNotFound.
func (s *MemoryStore) GetByID(ctx context.Context, id int64) (*models.MeasurementRecord, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// GetFiltered applies all supplied dimensions conjunctively, timestamp
// descending. Date bounds are inclusive.
func (s *MemoryStore) GetFiltered(ctx context.Context, filter models.Filter) ([]models.MeasurementRecord, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]models.MeasurementRecord, 0, len(s.records))
	for _, rec := range s.records {
		if !matches(rec, filter) {
			continue
		}
		matched = append(matched, rec)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Timestamp != matched[j].Timestamp {
			return matched[i].Timestamp > matched[j].Timestamp
		}
		return matched[i].ID > matched[j].ID
	})
	return matched, nil
}

// GetAggregatedByField groups records by field name within the date range,
// ordered by average loss descending.
func (s *MemoryStore) GetAggregatedByField(ctx context.Context, filter models.Filter) ([]models.AggregatedFieldRecord, error) {
	// Field/operator dimensions do not apply to the grouped view.
	records, err := s.GetFiltered(ctx, models.Filter{StartDate: filter.StartDate, EndDate: filter.EndDate})
	if err != nil {
		return nil, err
	}

	type bucket struct {
		count       int
		lossSum     float64
		badPctSum   float64
		healthySum  int
		badSum      int
		impuritySum int
	}
	buckets := make(map[string]*bucket)
	for _, rec := range records {
		name := models.UnspecifiedField
		if rec.FieldName != nil && *rec.FieldName != "" {
			name = *rec.FieldName
		}
		b, ok := buckets[name]
		if !ok {
			b = &bucket{}
			buckets[name] = b
		}
		b.count++
		b.lossSum += rec.Statistics.TotalLossKgPerHa
		b.badPctSum += rec.Statistics.BadPercent
		b.healthySum += rec.Statistics.HealthyCount
		b.badSum += rec.Statistics.BadCount
		b.impuritySum += rec.Statistics.ImpurityCount
	}

	aggregated := make([]models.AggregatedFieldRecord, 0, len(buckets))
	for name, b := range buckets {
		aggregated = append(aggregated, models.AggregatedFieldRecord{
			FieldName:         name,
			TotalMeasurements: b.count,
			AverageLoss:       b.lossSum / float64(b.count),
			AverageBadPercent: b.badPctSum / float64(b.count),
			TotalHealthy:      b.healthySum,
			TotalBad:          b.badSum,
			TotalImpurity:     b.impuritySum,
		})
	}

	sort.Slice(aggregated, func(i, j int) bool {
		if aggregated[i].AverageLoss != aggregated[j].AverageLoss {
			return aggregated[i].AverageLoss > aggregated[j].AverageLoss
		}
		return aggregated[i].FieldName < aggregated[j].FieldName
	})
	return aggregated, nil
}

// Delete removes a record permanently.
func (s *MemoryStore) Delete(ctx context.Context, id int64) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func matches(rec models.MeasurementRecord, filter models.Filter) bool {
	if filter.StartDate != nil && rec.Timestamp < *filter.StartDate {
		return false
	}
	if filter.EndDate != nil && rec.Timestamp > *filter.EndDate {
		return false
	}
	if filter.FieldName != nil {
		if rec.FieldName == nil || *rec.FieldName != *filter.FieldName {
			return false
		}
	}
	if filter.CombineOperator != nil {
		if rec.CombineOperator == nil || *rec.CombineOperator != *filter.CombineOperator {
			return false
		}
	}
	return true
}
