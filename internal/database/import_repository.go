package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"ryotgo/internal/apperror"
	"ryotgo/models"
)

// ImportRepository persists import job progress (C6).
type ImportRepository struct {
	db *DB
}

func NewImportRepository(db *DB) *ImportRepository {
	return &ImportRepository{db: db}
}

// Create inserts a new import report in the started state.
func (r *ImportRepository) Create(ctx context.Context, rpt *models.ImportReport) error {
	if rpt.ID == "" {
		rpt.ID = models.NewID("imp_")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO import_report (id, user_id, source, status, estimated_finish_time)
		VALUES ($1,$2,$3,$4,$5)`,
		rpt.ID, rpt.UserID, rpt.Source, rpt.Status, rpt.EstimatedFinishTime,
	)
	return err
}

// UpdateProgress overwrites the estimated finish time as the import
// pipeline processes items, letting pollers show a moving target. A nil
// estimatedFinish clears the column (the run is about to finish).
func (r *ImportRepository) UpdateProgress(ctx context.Context, id string, estimatedFinish *time.Time) error {
	var arg sql.NullTime
	if estimatedFinish != nil {
		arg = sql.NullTime{Time: *estimatedFinish, Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE import_report SET estimated_finish_time = $2 WHERE id = $1`, id, arg)
	return err
}

// Finish records the final ImportResult and marks the report done.
func (r *ImportRepository) Finish(ctx context.Context, id string, status models.ImportReportStatus, details *models.ImportResult) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE import_report SET status = $2, details = $3, finished_on = now() WHERE id = $1`,
		id, status, detailsJSON,
	)
	return err
}

// Get fetches a single import report.
func (r *ImportRepository) Get(ctx context.Context, id string) (*models.ImportReport, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, source, status, details, estimated_finish_time, started_on, finished_on
		FROM import_report WHERE id = $1`, id)
	var rpt models.ImportReport
	var detailsJSON []byte
	err := row.Scan(&rpt.ID, &rpt.UserID, &rpt.Source, &rpt.Status, &detailsJSON,
		&rpt.EstimatedFinishTime, &rpt.StartedOn, &rpt.FinishedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.New(apperror.KindNotFound, "import report not found: "+id)
	}
	if err != nil {
		return nil, err
	}
	if len(detailsJSON) > 0 {
		_ = json.Unmarshal(detailsJSON, &rpt.Details)
	}
	return &rpt, nil
}
