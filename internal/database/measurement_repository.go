package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"ryotgo/models"
)

// MeasurementRepository persists body-measurement snapshots, each keyed
// by (user, timestamp) so one import row overwrites a same-instant
// duplicate rather than accumulating it.
type MeasurementRepository struct {
	db *DB
}

func NewMeasurementRepository(db *DB) *MeasurementRepository {
	return &MeasurementRepository{db: db}
}

// Upsert inserts a measurement snapshot, replacing one already recorded
// at the same (user, timestamp).
func (r *MeasurementRepository) Upsert(ctx context.Context, m *models.UserMeasurement) error {
	statsJSON, err := json.Marshal(m.Stats)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO user_measurement (user_id, timestamp, name, comment, stats)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (user_id, timestamp) DO UPDATE SET name = $3, comment = $4, stats = $5`,
		m.UserID, m.Timestamp, nullIfEmpty(m.Name), nullIfEmpty(m.Comment), statsJSON,
	)
	return err
}

// Since returns every measurement a user recorded at or after since,
// used by the analytics rollup (C10) to fold measurement_count.
func (r *MeasurementRepository) Since(ctx context.Context, userID string, since time.Time) ([]*models.UserMeasurement, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, timestamp, name, comment, stats FROM user_measurement
		WHERE user_id = $1 AND timestamp >= $2 ORDER BY timestamp ASC`, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.UserMeasurement
	for rows.Next() {
		var m models.UserMeasurement
		var name, comment sql.NullString
		var statsJSON []byte
		if err := rows.Scan(&m.UserID, &m.Timestamp, &name, &comment, &statsJSON); err != nil {
			return nil, err
		}
		m.Name = name.String
		m.Comment = comment.String
		_ = json.Unmarshal(statsJSON, &m.Stats)
		out = append(out, &m)
	}
	return out, rows.Err()
}

// ForExport returns one page of the measurements recorded for userID,
// oldest first, for the exporter's (C7) paginated streaming.
func (r *MeasurementRepository) ForExport(ctx context.Context, userID string, limit, offset int) ([]*models.UserMeasurement, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, timestamp, name, comment, stats FROM user_measurement
		WHERE user_id = $1 ORDER BY timestamp ASC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.UserMeasurement
	for rows.Next() {
		var m models.UserMeasurement
		var name, comment sql.NullString
		var statsJSON []byte
		if err := rows.Scan(&m.UserID, &m.Timestamp, &name, &comment, &statsJSON); err != nil {
			return nil, err
		}
		m.Name = name.String
		m.Comment = comment.String
		_ = json.Unmarshal(statsJSON, &m.Stats)
		out = append(out, &m)
	}
	return out, rows.Err()
}
