package database

import (
	"context"
	"time"

	"ryotgo/models"
)

// CalendarRepository persists materialized release-date rows consumed
// by upcoming-release queries.
type CalendarRepository struct {
	db *DB
}

func NewCalendarRepository(db *DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

// Replace clears and re-inserts every CalendarEvent derived from a
// single metadata row's specifics, the unit the calendar job recomputes
// on each metadata refresh.
func (r *CalendarRepository) Replace(ctx context.Context, metadataID string, events []*models.CalendarEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM calendar_event WHERE metadata_id = $1`, metadataID); err != nil {
		return err
	}
	for _, e := range events {
		if e.ID == "" {
			e.ID = models.NewID("cal_")
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO calendar_event (id, metadata_id, date, season_number, episode_number, title)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			e.ID, metadataID, e.Date, e.SeasonNumber, e.EpisodeNumber, e.Title,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Upcoming returns calendar events between from and to, across all
// metadata, ordered by date.
func (r *CalendarRepository) Upcoming(ctx context.Context, from, to time.Time) ([]*models.CalendarEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, metadata_id, date, season_number, episode_number, title
		FROM calendar_event WHERE date BETWEEN $1 AND $2 ORDER BY date`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.CalendarEvent
	for rows.Next() {
		var e models.CalendarEvent
		if err := rows.Scan(&e.ID, &e.MetadataID, &e.Date, &e.SeasonNumber, &e.EpisodeNumber, &e.Title); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
