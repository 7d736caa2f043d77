package models

import "time"

// ImportItemReview is one review/rating attached to an imported entity,
// normalized to the store's 0..100 rating scale by the source adapter.
type ImportItemReview struct {
	Rating      *string   `json:"rating,omitempty"` // decimal string, 0..100
	Text        string    `json:"text,omitempty"`
	PostedOn    time.Time `json:"postedOn"`
	ShowExtra   *SeenShowExtra    `json:"showExtraInformation,omitempty"`
	PodcastExtra *SeenPodcastExtra `json:"podcastExtraInformation,omitempty"`
}

// ImportItemSeen is one history entry for an imported metadata item,
// mapped onto MetadataProgressUpdateInput during processing.
type ImportItemSeen struct {
	Progress    float64    `json:"progress"`
	StartedOn   *time.Time `json:"startedOn,omitempty"`
	FinishedOn  *time.Time `json:"finishedOn,omitempty"`
	ProviderWatchedOn string `json:"providerWatchedOn,omitempty"`
	ShowExtra    *SeenShowExtra    `json:"showExtraInformation,omitempty"`
	PodcastExtra *SeenPodcastExtra `json:"podcastExtraInformation,omitempty"`
	MangaExtra   *SeenMangaExtra   `json:"mangaExtraInformation,omitempty"`
	AnimeExtra   *SeenAnimeExtra   `json:"animeExtraInformation,omitempty"`
}

// ImportOrExportMetadataItem is one source row normalized into the
// system's metadata import shape: enough for commit_metadata plus its
// seen history, reviews, and collection memberships.
type ImportOrExportMetadataItem struct {
	Lot         MediaLot        `json:"lot"`
	Source      MediaSource     `json:"source"`
	Identifier  string          `json:"identifier"`
	SourceID    string          `json:"sourceId,omitempty"` // the source's own id, if different from Identifier
	Seen        []ImportItemSeen   `json:"seen,omitempty"`
	Reviews     []ImportItemReview `json:"reviews,omitempty"`
	Collections []string        `json:"collections,omitempty"`
}

// ImportOrExportPersonItem is one imported person-follow/rating row.
type ImportOrExportPersonItem struct {
	Source      MediaSource        `json:"source"`
	Identifier  string             `json:"identifier"`
	Name        string             `json:"name"`
	Reviews     []ImportItemReview `json:"reviews,omitempty"`
	Collections []string           `json:"collections,omitempty"`
}

// ImportOrExportMetadataGroupItem is one imported franchise/box-set row.
type ImportOrExportMetadataGroupItem struct {
	Lot         MediaLot           `json:"lot"`
	Source      MediaSource        `json:"source"`
	Identifier  string             `json:"identifier"`
	Title       string             `json:"title"`
	Reviews     []ImportItemReview `json:"reviews,omitempty"`
	Collections []string           `json:"collections,omitempty"`
}

// ImportOrExportExerciseItem is one imported custom-exercise definition
// (Strong App auto-creates these when a logged set names an exercise
// missing from the catalog).
type ImportOrExportExerciseItem struct {
	Name string      `json:"name"`
	Lot  ExerciseLot `json:"lot"`
}

// ImportOrExportWorkoutItem is one imported completed workout, built
// directly out of models.Workout since the shapes coincide.
type ImportOrExportWorkoutItem struct {
	Workout Workout `json:"workout"`
}

// ImportOrExportMeasurementItem is one imported body-measurement entry.
type ImportOrExportMeasurementItem struct {
	Measurement UserMeasurement `json:"measurement"`
}

// ImportOrExportApplicationWorkoutItem is a workout imported from the
// system's own generic-JSON export format (round-trip), distinguished
// from ImportOrExportWorkoutItem because it arrives pre-normalized and
// skips unit conversion.
type ImportOrExportApplicationWorkoutItem struct {
	Workout Workout `json:"workout"`
}

// ImportCompletedItem is the tagged union of every entity kind a source
// adapter can produce; exactly one field is non-nil, selected by Lot.
// Collection membership travels on the item itself (each of Metadata,
// MetadataGroup, and Person carries its own Collections list) rather
// than as a separate entity kind here.
type ImportCompletedItem struct {
	Lot                EntityLot                             `json:"lot"`
	Metadata           *ImportOrExportMetadataItem            `json:"metadata,omitempty"`
	MetadataGroup      *ImportOrExportMetadataGroupItem       `json:"metadataGroup,omitempty"`
	Person             *ImportOrExportPersonItem              `json:"person,omitempty"`
	Exercise           *ImportOrExportExerciseItem             `json:"exercise,omitempty"`
	Workout            *ImportOrExportWorkoutItem              `json:"workout,omitempty"`
	Measurement        *ImportOrExportMeasurementItem          `json:"measurement,omitempty"`
	ApplicationWorkout *ImportOrExportApplicationWorkoutItem   `json:"applicationWorkout,omitempty"`
}

// ImportFailedItem records one source record that could not be imported,
// the pipeline step it failed at, and why.
type ImportFailedItem struct {
	Identifier string          `json:"identifier"`
	Lot        *EntityLot      `json:"lot,omitempty"`
	Step       ImportFailStep  `json:"step"`
	Error      string          `json:"error"`
}

// ImportResult is the common shape every source adapter (C6) normalizes
// its output into, regardless of the source's native format.
type ImportResult struct {
	Completed []ImportCompletedItem `json:"completed"`
	Failed    []ImportFailedItem    `json:"failed"`
}

// ImportReportStatus tracks an in-flight or finished import job's
// lifecycle as surfaced to the user.
type ImportReportStatus string

const (
	ImportStatusStarted  ImportReportStatus = "started"
	ImportStatusSuccess  ImportReportStatus = "success"
	ImportStatusFailed   ImportReportStatus = "failed"
)

// ImportReport is the persisted, progressively-updated record of one
// import run, polled by the client for progress and final results.
type ImportReport struct {
	ID                 string             `json:"id"`
	UserID             string             `json:"userId"`
	Source             ImportSource       `json:"source"`
	Status             ImportReportStatus `json:"status"`
	Details            *ImportResult      `json:"details,omitempty"`
	EstimatedFinishTime *time.Time        `json:"estimatedFinishTime,omitempty"`
	StartedOn          time.Time          `json:"startedOn"`
	FinishedOn         *time.Time         `json:"finishedOn,omitempty"`
}

// ExportAllResponse is the top-level shape of the streamed JSON export
// document (format version "v1"): one array per exportable domain, each
// element the exact inverse of the matching ImportOrExport* import shape
// (identifier, source, lot, seen history, reviews, collections already
// folded in per item), written incrementally so the whole payload is
// never buffered in memory.
type ExportAllResponse struct {
	FormatVersion string                            `json:"formatVersion"`
	GeneratedOn   time.Time                         `json:"generatedOn"`
	Media         []ImportOrExportMetadataItem      `json:"media"`
	MediaGroup    []ImportOrExportMetadataGroupItem `json:"media_group"`
	People        []ImportOrExportPersonItem        `json:"people"`
	Measurements  []ImportOrExportMeasurementItem   `json:"measurements"`
	Workouts      []Workout                         `json:"workouts"`
}

// ExportEntry describes one previously generated export object, read
// back from the x-amz-meta-* headers Put wrote rather than from a
// database row.
type ExportEntry struct {
	Key       string    `json:"key"`
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`
	Exported  []string  `json:"exported"` // which of media/media_group/people/measurements/workouts had rows
	SizeBytes int64     `json:"sizeBytes"`
}
