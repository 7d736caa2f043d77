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

// SeenRepository persists consumption events (C4).
type SeenRepository struct {
	db *DB
}

func NewSeenRepository(db *DB) *SeenRepository {
	return &SeenRepository{db: db}
}

// LatestInProgress returns the most recently updated in_progress or
// on_a_hold Seen row for (userID, metadataID), or nil if none exists.
func (r *SeenRepository) LatestInProgress(ctx context.Context, userID, metadataID string) (*models.Seen, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+seenColumns+`
		FROM seen
		WHERE user_id = $1 AND metadata_id = $2 AND state IN ('in_progress', 'on_a_hold')
		ORDER BY last_updated_on DESC
		LIMIT 1`, userID, metadataID)
	s, err := scanSeen(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// Get loads a single Seen row by id, the lookup the on_seen_complete job
// handler needs before it can act on which title a user just finished.
func (r *SeenRepository) Get(ctx context.Context, id string) (*models.Seen, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+seenColumns+` FROM seen WHERE id = $1`, id)
	s, err := scanSeen(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.New(apperror.KindNotFound, "seen row not found")
	}
	return s, err
}

// Insert creates a new Seen row.
func (r *SeenRepository) Insert(ctx context.Context, s *models.Seen) error {
	if s.ID == "" {
		s.ID = models.NewID(models.PrefixSeen)
	}
	showJSON, _ := json.Marshal(s.ShowExtra)
	podcastJSON, _ := json.Marshal(s.PodcastExtra)
	mangaJSON, _ := json.Marshal(s.MangaExtra)
	animeJSON, _ := json.Marshal(s.AnimeExtra)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO seen (id, user_id, metadata_id, state, progress, started_on, finished_on,
		                   manual_time_spent, show_extra, podcast_extra, manga_extra, anime_extra,
		                   provider_watched_on, review_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		s.ID, s.UserID, s.MetadataID, s.State, s.Progress, s.StartedOn, s.FinishedOn,
		s.ManualTimeSpent, nullIfEmptyJSON(showJSON), nullIfEmptyJSON(podcastJSON),
		nullIfEmptyJSON(mangaJSON), nullIfEmptyJSON(animeJSON), s.ProviderWatchedOn, s.ReviewID,
	)
	return err
}

// Update overwrites an existing Seen row's mutable fields.
func (r *SeenRepository) Update(ctx context.Context, s *models.Seen) error {
	showJSON, _ := json.Marshal(s.ShowExtra)
	podcastJSON, _ := json.Marshal(s.PodcastExtra)
	mangaJSON, _ := json.Marshal(s.MangaExtra)
	animeJSON, _ := json.Marshal(s.AnimeExtra)

	res, err := r.db.ExecContext(ctx, `
		UPDATE seen SET state=$2, progress=$3, started_on=$4, finished_on=$5,
			manual_time_spent=$6, show_extra=$7, podcast_extra=$8, manga_extra=$9,
			anime_extra=$10, last_updated_on=now()
		WHERE id=$1`,
		s.ID, s.State, s.Progress, s.StartedOn, s.FinishedOn, s.ManualTimeSpent,
		nullIfEmptyJSON(showJSON), nullIfEmptyJSON(podcastJSON), nullIfEmptyJSON(mangaJSON),
		nullIfEmptyJSON(animeJSON),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.New(apperror.KindNotFound, "seen row not found: "+s.ID)
	}
	return nil
}

// HistoryForMetadata returns every Seen row a user has for a metadata
// entity, most recent first, used by is_metadata_finished_by_user and
// export.
func (r *SeenRepository) HistoryForMetadata(ctx context.Context, userID, metadataID string) ([]*models.Seen, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+seenColumns+`
		FROM seen WHERE user_id=$1 AND metadata_id=$2
		ORDER BY last_updated_on DESC`, userID, metadataID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Seen
	for rows.Next() {
		s, err := scanSeen(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdatedSince returns every Seen row for a user touched at or after
// since, used by the analytics rollup (C10) to resume an incremental
// CalculateUserActivitiesAndSummary scan.
func (r *SeenRepository) UpdatedSince(ctx context.Context, userID string, since time.Time) ([]*models.Seen, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+seenColumns+`
		FROM seen WHERE user_id=$1 AND last_updated_on >= $2
		ORDER BY last_updated_on ASC`, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Seen
	for rows.Next() {
		s, err := scanSeen(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

const seenColumns = `id, user_id, metadata_id, state, progress, started_on, finished_on,
	last_updated_on, manual_time_spent, show_extra, podcast_extra, manga_extra, anime_extra,
	provider_watched_on, review_id`

func scanSeen(row rowScanner) (*models.Seen, error) {
	var s models.Seen
	var showJSON, podcastJSON, mangaJSON, animeJSON []byte
	err := row.Scan(&s.ID, &s.UserID, &s.MetadataID, &s.State, &s.Progress, &s.StartedOn,
		&s.FinishedOn, &s.LastUpdatedOn, &s.ManualTimeSpent, &showJSON, &podcastJSON,
		&mangaJSON, &animeJSON, &s.ProviderWatchedOn, &s.ReviewID)
	if err != nil {
		return nil, err
	}
	if len(showJSON) > 0 {
		_ = json.Unmarshal(showJSON, &s.ShowExtra)
	}
	if len(podcastJSON) > 0 {
		_ = json.Unmarshal(podcastJSON, &s.PodcastExtra)
	}
	if len(mangaJSON) > 0 {
		_ = json.Unmarshal(mangaJSON, &s.MangaExtra)
	}
	if len(animeJSON) > 0 {
		_ = json.Unmarshal(animeJSON, &s.AnimeExtra)
	}
	return &s, nil
}

func nullIfEmptyJSON(b []byte) any {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	return b
}
