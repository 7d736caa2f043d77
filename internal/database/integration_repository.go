package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"ryotgo/internal/apperror"
	"ryotgo/models"
)

// IntegrationRepository persists a user's standing connections to
// external media servers and *arr instances (C8).
type IntegrationRepository struct {
	db *DB
}

func NewIntegrationRepository(db *DB) *IntegrationRepository {
	return &IntegrationRepository{db: db}
}

// Create inserts a new integration, generating its id and sink slug if
// unset.
func (r *IntegrationRepository) Create(ctx context.Context, in *models.Integration) error {
	if in.ID == "" {
		in.ID = models.NewID(models.PrefixIntegration)
	}
	if in.Slug == "" && in.Lot == models.IntegrationSink {
		in.Slug = models.NewID("")
	}
	specificsJSON, err := json.Marshal(in.ProviderSpecifics)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO integration (id, user_id, lot, provider, provider_specifics, slug, is_disabled)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		in.ID, in.UserID, in.Lot, in.Provider, specificsJSON, nullIfEmpty(in.Slug), in.IsDisabled,
	)
	return err
}

// Get fetches a single integration by id.
func (r *IntegrationRepository) Get(ctx context.Context, id string) (*models.Integration, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, lot, provider, provider_specifics, slug, is_disabled, last_ping, trigger_result, created_on
		FROM integration WHERE id = $1`, id)
	in, err := scanIntegration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.New(apperror.KindNotFound, "integration not found: "+id)
	}
	return in, err
}

// BySlug looks up the sink integration a webhook path segment addresses.
func (r *IntegrationRepository) BySlug(ctx context.Context, slug string) (*models.Integration, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, lot, provider, provider_specifics, slug, is_disabled, last_ping, trigger_result, created_on
		FROM integration WHERE slug = $1`, slug)
	in, err := scanIntegration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.New(apperror.KindNotFound, "integration not found for slug: "+slug)
	}
	return in, err
}

// ForUser returns every integration belonging to userID, optionally
// filtered to one direction.
func (r *IntegrationRepository) ForUser(ctx context.Context, userID string, lot models.IntegrationLot) ([]*models.Integration, error) {
	var rows *sql.Rows
	var err error
	if lot == "" {
		rows, err = r.db.QueryContext(ctx, `
			SELECT id, user_id, lot, provider, provider_specifics, slug, is_disabled, last_ping, trigger_result, created_on
			FROM integration WHERE user_id = $1 ORDER BY created_on`, userID)
	} else {
		rows, err = r.db.QueryContext(ctx, `
			SELECT id, user_id, lot, provider, provider_specifics, slug, is_disabled, last_ping, trigger_result, created_on
			FROM integration WHERE user_id = $1 AND lot = $2 ORDER BY created_on`, userID, lot)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Integration
	for rows.Next() {
		in, err := scanIntegration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// RecordTrigger writes the outcome of a yank/push run (or sink delivery)
// and bumps last_ping, replacing the one-shot ImportReport a regular
// import would create.
func (r *IntegrationRepository) RecordTrigger(ctx context.Context, id string, result models.IntegrationTriggerResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE integration SET trigger_result = $2, last_ping = $3 WHERE id = $1`,
		id, resultJSON, result.TriggeredOn,
	)
	return err
}

// SetDisabled toggles an integration's is_disabled flag, used after a
// yank/push run exhausts its retry budget (SPEC_FULL §4.8's
// "auto-disable on repeated failure" rule).
func (r *IntegrationRepository) SetDisabled(ctx context.Context, id string, disabled bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE integration SET is_disabled = $2 WHERE id = $1`, id, disabled)
	return err
}

// Delete removes an integration.
func (r *IntegrationRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM integration WHERE id = $1`, id)
	return err
}

func scanIntegration(row rowScanner) (*models.Integration, error) {
	var in models.Integration
	var specificsJSON, resultJSON []byte
	var slug sql.NullString
	var lastPing sql.NullTime
	err := row.Scan(&in.ID, &in.UserID, &in.Lot, &in.Provider, &specificsJSON, &slug,
		&in.IsDisabled, &lastPing, &resultJSON, &in.CreatedOn)
	if err != nil {
		return nil, err
	}
	in.Slug = slug.String
	if lastPing.Valid {
		t := lastPing.Time
		in.LastPing = &t
	}
	_ = json.Unmarshal(specificsJSON, &in.ProviderSpecifics)
	if len(resultJSON) > 0 {
		_ = json.Unmarshal(resultJSON, &in.TriggerResult)
	}
	return &in, nil
}
