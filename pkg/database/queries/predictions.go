package queries

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/OldStager01/getaround-pricing/pkg/models"
)

type PredictionRepository struct {
	db *sql.DB
}

func NewPredictionRepository(db *sql.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

func (r *PredictionRepository) Insert(ctx context.Context, rec *models.PredictionRecord) error {
	query := `
		INSERT INTO predictions
			(id, created_at, trace_id, model_key, fuel, paint_color, car_type,
			 mileage, engine_power, predicted_price, error_kind, latency_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.CreatedAt,
		rec.TraceID,
		rec.ModelKey,
		rec.Fuel,
		rec.PaintColor,
		rec.CarType,
		rec.Mileage,
		rec.EnginePower,
		rec.PredictedPrice,
		rec.ErrorKind,
		rec.LatencyMs,
	)
	if err != nil {
		return fmt.Errorf("failed to insert prediction %s: %w", rec.ID, err)
	}
	return nil
}

func (r *PredictionRepository) GetRecent(ctx context.Context, limit int) ([]models.PredictionRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, created_at, trace_id, model_key, fuel, paint_color, car_type,
			   mileage, engine_power, predicted_price, error_kind, latency_ms
		FROM predictions
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]models.PredictionRecord, 0, limit)
	for rows.Next() {
		var rec models.PredictionRecord
		err := rows.Scan(
			&rec.ID, &rec.CreatedAt, &rec.TraceID, &rec.ModelKey,
			&rec.Fuel, &rec.PaintColor, &rec.CarType,
			&rec.Mileage, &rec.EnginePower, &rec.PredictedPrice,
			&rec.ErrorKind, &rec.LatencyMs,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// CountByErrorKind counts predictions since the given time, keyed by error
// kind. Successful predictions are counted under "ok".
func (r *PredictionRepository) CountByErrorKind(ctx context.Context, since time.Time) (map[string]int, error) {
	query := `
		SELECT COALESCE(error_kind, 'ok') AS kind, COUNT(*)
		FROM predictions
		WHERE created_at >= $1
		GROUP BY kind`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[kind] = n
	}

	return counts, rows.Err()
}
