package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrovision/grainloss/services/api/models"
)

// PostgresStore persists measurements in a single flattened table, with the
// detection list kept as JSONB.
type PostgresStore struct {
	pool *pgxpool.Pool
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS measurements (
    id                   BIGSERIAL PRIMARY KEY,
    image_uri            TEXT NOT NULL,
    detections           JSONB NOT NULL DEFAULT '[]',
    ts                   BIGINT NOT NULL,
    field_name           TEXT,
    combine_operator     TEXT,
    grain_weight_grams   DOUBLE PRECISION,
    photo_area_m2        DOUBLE PRECISION,
    healthy_count        INTEGER NOT NULL,
    bad_count            INTEGER NOT NULL,
    impurity_count       INTEGER NOT NULL,
    total_loss_kg_per_ha DOUBLE PRECISION NOT NULL,
    healthy_percent      DOUBLE PRECISION NOT NULL,
    bad_percent          DOUBLE PRECISION NOT NULL,
    impurity_percent     DOUBLE PRECISION NOT NULL,
    quality_grade        TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS measurements_ts_idx ON measurements (ts DESC);
`

// NewPostgres connects a pgx pool and ensures the measurements schema.
func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the pool resources.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

const insertSQL = `
INSERT INTO measurements (
    image_uri, detections, ts, field_name, combine_operator,
    grain_weight_grams, photo_area_m2,
    healthy_count, bad_count, impurity_count,
    total_loss_kg_per_ha, healthy_percent, bad_percent, impurity_percent,
    quality_grade
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
RETURNING id
`

// Save inserts the record and returns the assigned id. Write failures
// surface verbatim; the store never retries.
func (s *PostgresStore) Save(ctx context.Context, rec models.MeasurementRecord) (int64, error) {
	if s.pool == nil {
		return 0, ErrNotInitialized
	}

	detections := rec.Detections
	if detections == nil {
		detections = []models.Detection{}
	}
	detectionsJSON, err := json.Marshal(detections)
	if err != nil {
		return 0, fmt.Errorf("encode detections: %w", err)
	}

	var id int64
	err = s.pool.QueryRow(ctx, insertSQL,
		rec.ImageURI,
		detectionsJSON,
		rec.Timestamp,
		rec.FieldName,
		rec.CombineOperator,
		rec.GrainWeightGrams,
		rec.PhotoAreaM2,
		rec.Statistics.HealthyCount,
		rec.Statistics.BadCount,
		rec.Statistics.ImpurityCount,
		rec.Statistics.TotalLossKgPerHa,
		rec.Statistics.HealthyPercent,
		rec.Statistics.BadPercent,
		rec.Statistics.ImpurityPercent,
		rec.Statistics.QualityGrade,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert measurement: %w", err)
	}
	return id, nil
}

const selectColumns = `
    id, image_uri, detections, ts, field_name, combine_operator,
    grain_weight_grams, photo_area_m2,
    healthy_count, bad_count, impurity_count,
    total_loss_kg_per_ha, healthy_percent, bad_percent, impurity_percent,
    quality_grade
`

// GetAll returns every stored measurement, most recent first.
func (s *PostgresStore) GetAll(ctx context.Context) ([]models.MeasurementRecord, error) {
	return s.GetFiltered(ctx, models.Filter{})
}

// GetByID returns one measurement or ErrNotFound.
func (s *PostgresStore) GetByID(ctx context.Context, id int64) (*models.MeasurementRecord, error) {
	if s.pool == nil {
		return nil, ErrNotInitialized
	}

	row := s.pool.QueryRow(ctx, "SELECT "+selectColumns+" FROM measurements WHERE id = $1", id)
	rec, err := scanMeasurement(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetFiltered applies all supplied filter dimensions conjunctively and
// returns matches ordered by timestamp descending.
func (s *PostgresStore) GetFiltered(ctx context.Context, filter models.Filter) ([]models.MeasurementRecord, error) {
	if s.pool == nil {
		return nil, ErrNotInitialized
	}

	conditions := []string{}
	args := []any{}

	if filter.StartDate != nil {
		conditions = append(conditions, "ts >= $"+strconv.Itoa(len(args)+1))
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "ts <= $"+strconv.Itoa(len(args)+1))
		args = append(args, *filter.EndDate)
	}
	if filter.FieldName != nil {
		conditions = append(conditions, "field_name = $"+strconv.Itoa(len(args)+1))
		args = append(args, *filter.FieldName)
	}
	if filter.CombineOperator != nil {
		conditions = append(conditions, "combine_operator = $"+strconv.Itoa(len(args)+1))
		args = append(args, *filter.CombineOperator)
	}

	query := "SELECT " + selectColumns + " FROM measurements"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY ts DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]models.MeasurementRecord, 0)
	for rows.Next() {
		rec, err := scanMeasurement(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

const aggregateSQL = `
SELECT COALESCE(NULLIF(field_name, ''), 'unspecified') AS field,
       COUNT(*) AS total,
       AVG(total_loss_kg_per_ha) AS avg_loss,
       AVG(bad_percent) AS avg_bad,
       SUM(healthy_count) AS sum_healthy,
       SUM(bad_count) AS sum_bad,
       SUM(impurity_count) AS sum_impurity
FROM measurements
`

// GetAggregatedByField groups measurements by field within the date range.
// Only the date dimensions of the filter apply here: aggregation itself
// spans the field axis, so field/operator constraints are ignored.
func (s *PostgresStore) GetAggregatedByField(ctx context.Context, filter models.Filter) ([]models.AggregatedFieldRecord, error) {
	if s.pool == nil {
		return nil, ErrNotInitialized
	}

	conditions := []string{}
	args := []any{}
	if filter.StartDate != nil {
		conditions = append(conditions, "ts >= $"+strconv.Itoa(len(args)+1))
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "ts <= $"+strconv.Itoa(len(args)+1))
		args = append(args, *filter.EndDate)
	}

	query := aggregateSQL
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " GROUP BY field ORDER BY avg_loss DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]models.AggregatedFieldRecord, 0)
	for rows.Next() {
		var agg models.AggregatedFieldRecord
		if err := rows.Scan(
			&agg.FieldName,
			&agg.TotalMeasurements,
			&agg.AverageLoss,
			&agg.AverageBadPercent,
			&agg.TotalHealthy,
			&agg.TotalBad,
			&agg.TotalImpurity,
		); err != nil {
			return nil, err
		}
		records = append(records, agg)
	}
	return records, rows.Err()
}

// Delete removes a measurement permanently.
func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	if s.pool == nil {
		return ErrNotInitialized
	}

	tag, err := s.pool.Exec(ctx, "DELETE FROM measurements WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanMeasurement(row pgx.Row) (*models.MeasurementRecord, error) {
	var rec models.MeasurementRecord
	var detectionsJSON []byte
	if err := row.Scan(
		&rec.ID,
		&rec.ImageURI,
		&detectionsJSON,
		&rec.Timestamp,
		&rec.FieldName,
		&rec.CombineOperator,
		&rec.GrainWeightGrams,
		&rec.PhotoAreaM2,
		&rec.Statistics.HealthyCount,
		&rec.Statistics.BadCount,
		&rec.Statistics.ImpurityCount,
		&rec.Statistics.TotalLossKgPerHa,
		&rec.Statistics.HealthyPercent,
		&rec.Statistics.BadPercent,
		&rec.Statistics.ImpurityPercent,
		&rec.Statistics.QualityGrade,
	); err != nil {
		return nil, err
	}
	if len(detectionsJSON) > 0 {
		if err := json.Unmarshal(detectionsJSON, &rec.Detections); err != nil {
			return nil, fmt.Errorf("decode detections: %w", err)
		}
	}
	return &rec, nil
}
