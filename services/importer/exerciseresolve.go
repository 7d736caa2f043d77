package importer

import (
	"context"

	"ryotgo/internal/database"
	"ryotgo/models"
)

// exerciseResolver maps a CSV-logged exercise name onto a catalog
// exercise id, auto-creating a custom one (via a deterministic id) when
// the name isn't in the catalog — Strong App's documented behavior,
// applied uniformly to every set-log CSV adapter since every one of
// them needs a valid exercise id to build a Workout.
type exerciseResolver struct {
	repo   *database.ExerciseRepository
	userID string
	// pending collects the custom-exercise items that must be committed
	// ahead of any workout referencing them; the caller appends these to
	// ImportResult.Completed before the workout items.
	pending []models.ImportCompletedItem
	seen    map[string]string
}

func newExerciseResolver(repo *database.ExerciseRepository, userID string) *exerciseResolver {
	return &exerciseResolver{repo: repo, userID: userID, seen: map[string]string{}}
}

// resolve returns exerciseName's catalog id, queuing a custom-exercise
// creation the first time an unrecognized name is seen.
func (r *exerciseResolver) resolve(ctx context.Context, exerciseName string, lot models.ExerciseLot) string {
	if id, ok := r.seen[exerciseName]; ok {
		return id
	}
	if ex, err := r.repo.ByName(ctx, exerciseName); err == nil && ex != nil {
		r.seen[exerciseName] = ex.ID
		return ex.ID
	}
	id := models.PrefixExercise + deterministicExerciseUUID(exerciseName, lot, r.userID)
	r.seen[exerciseName] = id
	r.pending = append(r.pending, models.ImportCompletedItem{
		Lot:      models.EntityExercise,
		Exercise: &models.ImportOrExportExerciseItem{Name: exerciseName, Lot: lot},
	})
	return id
}

// drainPending returns queued custom-exercise creations and clears the
// queue, called once per exercise name the first time it's resolved.
func (r *exerciseResolver) drainPending() []models.ImportCompletedItem {
	out := r.pending
	r.pending = nil
	return out
}
