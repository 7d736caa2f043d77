package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"ryotgo/models"
)

// ActivityRepository persists the analytics rollup (C10).
type ActivityRepository struct {
	db *DB
}

func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// activityBlob is the JSONB shape stored in daily_user_activity.counters:
// plain integer counters merge by addition, decimal counters (workout
// weight/distance, manga's fractional chapter count) merge with
// shopspring/decimal so repeated merges never drift the way repeated
// float addition would.
type activityBlob struct {
	Ints     map[string]int    `json:"ints"`
	Decimals map[string]string `json:"decimals"`
}

// Upsert merges counters into the row for (userID, date, bucket),
// creating it if absent. Callers pass a delta; the merge happens inside
// the transaction so concurrent job runs can't race-overwrite counters.
func (r *ActivityRepository) Upsert(ctx context.Context, a *models.DailyUserActivity) error {
	delta := activityBlob{Ints: intCounters(a), Decimals: decimalCounters(a)}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var existing []byte
	err = tx.QueryRowContext(ctx, `
		SELECT counters FROM daily_user_activity WHERE user_id=$1 AND date=$2 AND bucket=$3
		FOR UPDATE`, a.UserID, a.Date, a.Bucket).Scan(&existing)
	if err != nil && err != sql.ErrNoRows {
		return err
	}

	merged := activityBlob{Ints: map[string]int{}, Decimals: map[string]string{}}
	if len(existing) > 0 {
		_ = json.Unmarshal(existing, &merged)
		if merged.Ints == nil {
			merged.Ints = map[string]int{}
		}
		if merged.Decimals == nil {
			merged.Decimals = map[string]string{}
		}
	}
	for k, v := range delta.Ints {
		merged.Ints[k] += v
	}
	for k, v := range delta.Decimals {
		add, err := decimal.NewFromString(v)
		if err != nil {
			continue
		}
		cur := decimal.Zero
		if s, ok := merged.Decimals[k]; ok {
			cur, _ = decimal.NewFromString(s)
		}
		merged.Decimals[k] = cur.Add(add).String()
	}

	mergedJSON, err := json.Marshal(merged)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO daily_user_activity (user_id, date, bucket, counters)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (user_id, date, bucket) DO UPDATE SET counters = EXCLUDED.counters`,
		a.UserID, a.Date, a.Bucket, mergedJSON,
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteForUser removes every rollup row for a user, used by
// CalculateUserActivitiesAndSummary's from_scratch path.
func (r *ActivityRepository) DeleteForUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM daily_user_activity WHERE user_id = $1`, userID)
	return err
}

// Range returns a user's activity rows for a date span at the bucket
// granularity models.PickBucket selects for that span, unless group is
// non-empty, in which case it is used verbatim instead of the adaptive
// choice (get_daily_user_activities' optional group_by argument).
func (r *ActivityRepository) Range(ctx context.Context, userID string, from, to time.Time, group models.DailyUserActivityBucket) ([]*models.DailyUserActivity, error) {
	bucket := group
	if bucket == "" {
		bucket = models.PickBucket(int(to.Sub(from).Hours() / 24))
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, date, bucket, counters FROM daily_user_activity
		WHERE user_id = $1 AND bucket = $2 AND date BETWEEN $3 AND $4
		ORDER BY date`, userID, bucket, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.DailyUserActivity
	for rows.Next() {
		var a models.DailyUserActivity
		var countersJSON []byte
		if err := rows.Scan(&a.UserID, &a.Date, &a.Bucket, &countersJSON); err != nil {
			return nil, err
		}
		applyActivityCounters(&a, countersJSON)
		out = append(out, &a)
	}
	return out, rows.Err()
}

// LatestComputedDate returns the most recent date a user has an activity
// row for, or the zero time if none exists yet, used to resume an
// incremental (non-from-scratch) CalculateUserActivitiesAndSummary scan.
func (r *ActivityRepository) LatestComputedDate(ctx context.Context, userID string) (time.Time, error) {
	var date sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT MAX(date) FROM daily_user_activity WHERE user_id = $1 AND bucket = $2`,
		userID, models.BucketDay,
	).Scan(&date)
	if err != nil {
		return time.Time{}, err
	}
	if !date.Valid {
		return time.Time{}, nil
	}
	return date.Time, nil
}

func intCounters(a *models.DailyUserActivity) map[string]int {
	return map[string]int{
		"movie": a.MovieCount, "show": a.ShowCount, "podcast": a.PodcastCount,
		"anime": a.AnimeCount, "manga": a.MangaCount, "book": a.BookCount,
		"audio_book": a.AudioBookCount, "video_game": a.VideoGameCount,
		"visual_novel": a.VisualNovelCount, "music": a.MusicCount,
		"movie_duration": a.MovieDurationSeconds, "show_duration": a.ShowDurationSeconds,
		"podcast_duration": a.PodcastDurationSeconds, "audio_book_duration": a.AudioBookDurationSeconds,
		"music_duration": a.MusicDurationSeconds, "visual_novel_duration": a.VisualNovelDurationSeconds,
		"video_game_duration": a.VideoGameDurationSeconds,
		"book_pages_read": a.BookPagesRead,
		"workout_count": a.WorkoutCount, "workout_duration": a.WorkoutDurationSeconds,
		"workout_reps": a.WorkoutReps, "workout_rest_time": a.WorkoutRestTimeSeconds,
		"workout_personal_bests": a.WorkoutPersonalBests,
		"measurement_count": a.MeasurementCount,
		"metadata_review_count": a.MetadataReviewCount, "collection_review_count": a.CollectionReviewCount,
		"person_review_count": a.PersonReviewCount, "metadata_group_review_count": a.MetadataGroupReviewCount,
		"total_metadata_count": a.TotalMetadataCount, "total_review_count": a.TotalReviewCount,
		"total_count": a.TotalCount, "total_duration": a.TotalDurationSeconds,
	}
}

func decimalCounters(a *models.DailyUserActivity) map[string]string {
	m := map[string]string{}
	if a.WorkoutWeight != "" {
		m["workout_weight"] = a.WorkoutWeight
	}
	if a.WorkoutDistance != "" {
		m["workout_distance"] = a.WorkoutDistance
	}
	if a.MangaChaptersRead != "" {
		m["manga_chapters_read"] = a.MangaChaptersRead
	}
	return m
}

func applyActivityCounters(a *models.DailyUserActivity, raw []byte) {
	var blob activityBlob
	_ = json.Unmarshal(raw, &blob)
	m := blob.Ints
	a.MovieCount, a.ShowCount, a.PodcastCount = m["movie"], m["show"], m["podcast"]
	a.AnimeCount, a.MangaCount, a.BookCount = m["anime"], m["manga"], m["book"]
	a.AudioBookCount, a.VideoGameCount = m["audio_book"], m["video_game"]
	a.VisualNovelCount, a.MusicCount = m["visual_novel"], m["music"]
	a.MovieDurationSeconds, a.ShowDurationSeconds = m["movie_duration"], m["show_duration"]
	a.PodcastDurationSeconds, a.AudioBookDurationSeconds = m["podcast_duration"], m["audio_book_duration"]
	a.MusicDurationSeconds, a.VisualNovelDurationSeconds = m["music_duration"], m["visual_novel_duration"]
	a.VideoGameDurationSeconds = m["video_game_duration"]
	a.BookPagesRead = m["book_pages_read"]
	a.WorkoutCount, a.WorkoutDurationSeconds = m["workout_count"], m["workout_duration"]
	a.WorkoutReps, a.WorkoutRestTimeSeconds = m["workout_reps"], m["workout_rest_time"]
	a.WorkoutPersonalBests = m["workout_personal_bests"]
	a.MeasurementCount = m["measurement_count"]
	a.MetadataReviewCount, a.CollectionReviewCount = m["metadata_review_count"], m["collection_review_count"]
	a.PersonReviewCount, a.MetadataGroupReviewCount = m["person_review_count"], m["metadata_group_review_count"]
	a.TotalMetadataCount, a.TotalReviewCount = m["total_metadata_count"], m["total_review_count"]
	a.TotalCount, a.TotalDurationSeconds = m["total_count"], m["total_duration"]
	a.WorkoutWeight = blob.Decimals["workout_weight"]
	a.WorkoutDistance = blob.Decimals["workout_distance"]
	a.MangaChaptersRead = blob.Decimals["manga_chapters_read"]
}
