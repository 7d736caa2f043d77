package models

import "time"

// DailyUserActivityBucket is the granularity a DailyUserActivity row has
// been rolled up to. Queries spanning a wide date range are served from
// coarser buckets so the response stays a handful of rows instead of
// thousands.
type DailyUserActivityBucket string

const (
	BucketDay        DailyUserActivityBucket = "day"
	BucketMonth      DailyUserActivityBucket = "month"
	BucketYear       DailyUserActivityBucket = "year"
	BucketMillennium DailyUserActivityBucket = "millennium"
)

// MillenniumBucketDate is the sentinel date every row in the
// BucketMillennium bucket is stored under: all of a user's history
// folded into one row, used as the lifetime "latest summary" the
// dashboard reads rather than querying and summing every day bucket.
func MillenniumBucketDate() time.Time {
	return time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
}

// PickBucket implements the adaptive date-bucketing rule: wide ranges get
// coarser buckets so result sets stay small regardless of the span
// requested.
func PickBucket(spanDays int) DailyUserActivityBucket {
	switch {
	case spanDays >= 500:
		return BucketYear
	case spanDays >= 200:
		return BucketMonth
	default:
		return BucketDay
	}
}

// DailyUserActivity is a per-user, per-period counter row produced by the
// analytics rollup (C10). Counts are split by media lot and by workout
// activity so a single table answers both "what did I consume" and "how
// did I train" without joining Seen/Workout at query time.
type DailyUserActivity struct {
	UserID string                  `json:"userId"`
	Date   time.Time               `json:"date"`
	Bucket DailyUserActivityBucket `json:"bucket"`

	MovieCount     int `json:"movieCount"`
	ShowCount      int `json:"showCount"`
	PodcastCount   int `json:"podcastCount"`
	AnimeCount     int `json:"animeCount"`
	MangaCount     int `json:"mangaCount"`
	BookCount      int `json:"bookCount"`
	AudioBookCount int `json:"audioBookCount"`
	VideoGameCount int `json:"videoGameCount"`
	VisualNovelCount int `json:"visualNovelCount"`
	MusicCount     int `json:"musicCount"`

	MovieDurationSeconds     int `json:"movieDurationSeconds"`
	ShowDurationSeconds      int `json:"showDurationSeconds"`
	PodcastDurationSeconds   int `json:"podcastDurationSeconds"`
	AudioBookDurationSeconds int `json:"audioBookDurationSeconds"`
	MusicDurationSeconds     int `json:"musicDurationSeconds"`
	VisualNovelDurationSeconds int `json:"visualNovelDurationSeconds"`
	VideoGameDurationSeconds   int `json:"videoGameDurationSeconds"` // playtime, when a provider reports it

	BookPagesRead     int `json:"bookPagesRead"`
	MangaChaptersRead string `json:"mangaChaptersRead"` // decimal string, fractional chapters

	WorkoutCount           int    `json:"workoutCount"`
	WorkoutDurationSeconds int    `json:"workoutDurationSeconds"`
	WorkoutWeight          string `json:"workoutWeight"` // decimal string, sum(weight*reps)
	WorkoutReps            int    `json:"workoutReps"`
	WorkoutDistance        string `json:"workoutDistance"` // decimal string
	WorkoutRestTimeSeconds int    `json:"workoutRestTimeSeconds"`
	WorkoutPersonalBests   int    `json:"workoutPersonalBests"`

	MeasurementCount int `json:"measurementCount"`

	MetadataReviewCount      int `json:"metadataReviewCount"`
	CollectionReviewCount    int `json:"collectionReviewCount"`
	PersonReviewCount        int `json:"personReviewCount"`
	MetadataGroupReviewCount int `json:"metadataGroupReviewCount"`

	TotalMetadataCount        int `json:"totalMetadataCount"`
	TotalReviewCount          int `json:"totalReviewCount"`
	TotalCount                int `json:"totalCount"`
	TotalDurationSeconds      int `json:"totalDurationSeconds"`
}

// ReviewCount is the sum of every per-entity-kind review counter, kept
// as a method rather than a stored field so there is exactly one place
// that defines "total reviews".
func (a DailyUserActivity) ReviewCount() int {
	return a.MetadataReviewCount + a.CollectionReviewCount + a.PersonReviewCount + a.MetadataGroupReviewCount
}

// UserActivitySummary is the all-time aggregate surfaced on a user's
// profile, distinct from the per-period DailyUserActivity rows.
type UserActivitySummary struct {
	UserID               string `json:"userId"`
	TotalMediaCount      int    `json:"totalMediaCount"`
	TotalWorkoutCount    int    `json:"totalWorkoutCount"`
	TotalReviewCount     int    `json:"totalReviewCount"`
	TotalWorkoutVolume   string `json:"totalWorkoutVolume"`
	TotalMediaDurationSeconds int `json:"totalMediaDurationSeconds"`
}
