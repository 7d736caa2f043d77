package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"ryotgo/internal/apperror"
	"ryotgo/models"
)

// NotificationRepository persists a user's configured delivery channels
// (C9).
type NotificationRepository struct {
	db *DB
}

func NewNotificationRepository(db *DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a new notification platform subscription.
func (r *NotificationRepository) Create(ctx context.Context, p *models.NotificationPlatform) error {
	if p.ID == "" {
		p.ID = models.NewID(models.PrefixNotification)
	}
	eventsJSON, err := json.Marshal(p.ConfiguredEvents)
	if err != nil {
		return err
	}
	settingsJSON, err := json.Marshal(p.Settings)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO notification_platform (id, user_id, kind, configured_events, settings, is_disabled)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.UserID, p.Kind, eventsJSON, settingsJSON, p.IsDisabled,
	)
	return err
}

// Get fetches one platform by id.
func (r *NotificationRepository) Get(ctx context.Context, id string) (*models.NotificationPlatform, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, kind, configured_events, settings, is_disabled, created_on
		FROM notification_platform WHERE id = $1`, id)
	p, err := scanNotificationPlatform(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.New(apperror.KindNotFound, "notification platform not found: "+id)
	}
	return p, err
}

// ForUser returns every enabled platform configured for userID, the set
// MonitoringService fans a change out to.
func (r *NotificationRepository) ForUser(ctx context.Context, userID string) ([]*models.NotificationPlatform, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, kind, configured_events, settings, is_disabled, created_on
		FROM notification_platform WHERE user_id = $1 AND is_disabled = FALSE ORDER BY created_on`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.NotificationPlatform
	for rows.Next() {
		p, err := scanNotificationPlatform(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Delete removes a notification platform.
func (r *NotificationRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM notification_platform WHERE id = $1`, id)
	return err
}

func scanNotificationPlatform(row rowScanner) (*models.NotificationPlatform, error) {
	var p models.NotificationPlatform
	var eventsJSON, settingsJSON []byte
	err := row.Scan(&p.ID, &p.UserID, &p.Kind, &eventsJSON, &settingsJSON, &p.IsDisabled, &p.CreatedOn)
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal(eventsJSON, &p.ConfiguredEvents)
	_ = json.Unmarshal(settingsJSON, &p.Settings)
	return &p, nil
}
