package models

import "time"

// SeenShowExtra pins a Seen row to a specific episode for serialized
// media.
type SeenShowExtra struct {
	SeasonNumber  int `json:"seasonNumber"`
	EpisodeNumber int `json:"episodeNumber"`
}

// SeenPodcastExtra pins a Seen row to a specific podcast episode.
type SeenPodcastExtra struct {
	EpisodeNumber int `json:"episodeNumber"`
}

// SeenMangaExtra records a chapter/volume position for LotManga, which
// supports fractional chapter numbers.
type SeenMangaExtra struct {
	Chapter *string `json:"chapter,omitempty"` // decimal string, e.g. "12.5"
	Volume  *int    `json:"volume,omitempty"`
}

// SeenAnimeExtra records an episode position for LotAnime.
type SeenAnimeExtra struct {
	Episode *int `json:"episode,omitempty"`
}

// Seen is a single consumption event: one watch-through, one read-through,
// one listen.
type Seen struct {
	ID                   string            `json:"id"`
	UserID               string            `json:"userId"`
	MetadataID           string            `json:"metadataId"`
	State                SeenState         `json:"state"`
	Progress             float64           `json:"progress"` // percent 0..100
	StartedOn            *time.Time        `json:"startedOn,omitempty"`
	FinishedOn           *time.Time        `json:"finishedOn,omitempty"`
	LastUpdatedOn        time.Time         `json:"lastUpdatedOn"`
	ManualTimeSpent      *int              `json:"manualTimeSpent,omitempty"` // seconds, for manual entries
	ShowExtra            *SeenShowExtra    `json:"showExtraInformation,omitempty"`
	PodcastExtra         *SeenPodcastExtra `json:"podcastExtraInformation,omitempty"`
	MangaExtra           *SeenMangaExtra   `json:"mangaExtraInformation,omitempty"`
	AnimeExtra           *SeenAnimeExtra   `json:"animeExtraInformation,omitempty"`
	ProviderWatchedOn    string            `json:"providerWatchedOn,omitempty"` // integration source label
	ReviewID             *string           `json:"reviewId,omitempty"`
}

// IsInProgress reports whether this Seen row represents a title the user
// is actively working through.
func (s *Seen) IsInProgress() bool {
	return s.State == SeenInProgress || s.State == SeenOnAHold
}

// MetadataProgressUpdateKind selects which branch of
// MetadataProgressUpdateInput applies.
type MetadataProgressUpdateKind string

const (
	UpdateChangeLatestInProgress MetadataProgressUpdateKind = "change_latest_in_progress"
	UpdateCreateNewInProgress    MetadataProgressUpdateKind = "create_new_in_progress"
	UpdateCreateNewCompleted     MetadataProgressUpdateKind = "create_new_completed"
)

// MetadataProgressUpdateInput is the input to the consumption engine's
// progress update operation. Exactly one of the extra-information fields
// is meaningful, selected by the metadata's lot.
type MetadataProgressUpdateInput struct {
	Kind         MetadataProgressUpdateKind
	MetadataID   string
	Progress     *float64
	Date         *time.Time
	ShowExtra    *SeenShowExtra
	PodcastExtra *SeenPodcastExtra
	MangaExtra   *SeenMangaExtra
	AnimeExtra   *SeenAnimeExtra
	ProviderWatchedOn string
}

// UserExerciseExtraInfo is the fitness-domain payload nested in
// UserToEntity for entities of EntityExercise.
type UserExerciseExtraInfo struct {
	HistoryWorkoutIDs []string                        `json:"historyWorkoutIds"`
	Lifetime          ExerciseLifetimeStats            `json:"lifetime"`
	PersonalBests     map[PersonalBestKind]PersonalBestEntry `json:"personalBests"`
}

// ExerciseLifetimeStats accumulates all-time totals across every workout
// set logged for an exercise.
type ExerciseLifetimeStats struct {
	Weight   string `json:"weight"`   // decimal string, kept as string to avoid float drift
	Reps     int    `json:"reps"`
	Distance string `json:"distance"`
	Duration int    `json:"duration"` // seconds
}

// PersonalBestEntry records the best-ever value for one PR kind and which
// workout set produced it.
type PersonalBestEntry struct {
	WorkoutID string `json:"workoutId"`
	SetIndex  int    `json:"setIndex"`
	Value     string `json:"value"` // decimal string
}
