package jobs

import "ryotgo/models"

// Payload shapes for kinds whose Kind alone doesn't carry enough to run
// the handler. Kinds enqueued with a single id (KindUpdateMetadata,
// KindUpdatePerson, KindUpdateMetadataGroup, KindPerformExport,
// KindSyncIntegrationsData, and the rest of the bare-string kinds) pass
// that id directly as Payload instead and need no struct here.

type WorkoutCompletePayload struct {
	UserID    string
	WorkoutID string
}

type ReEvaluateWorkoutsPayload struct {
	UserID     string
	ExerciseID string
}

type BulkProgressUpdatePayload struct {
	UserID  string
	Updates []models.MetadataProgressUpdateInput
}

type EntityAddedToCollectionPayload struct {
	UserID               string
	CollectionName       string
	EntityID             string
	EntityLot            models.EntityLot
	CollectionToEntityID string
}

type AfterExerciseDeletedPayload struct {
	UserID     string
	ExerciseID string
}
