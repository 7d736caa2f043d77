package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ryotgo/internal/database"
	"ryotgo/models"
	"ryotgo/services/consumption"
)

// exerciseIDNamespace roots the deterministic custom-exercise ids
// generated below in a fixed UUID namespace so they never collide with
// the random v4 ids models.NewID generates for everything else.
var exerciseIDNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// deterministicExerciseUUID derives a stable id from (name, lot, user)
// so re-importing the same Strong App export never creates duplicate
// custom exercises for a set naming something outside the catalog.
func deterministicExerciseUUID(name string, lot models.ExerciseLot, userID string) string {
	return uuid.NewSHA1(exerciseIDNamespace, []byte(userID+"|"+string(lot)+"|"+name)).String()
}

// Processor runs process_import: committing every ImportCompletedItem an
// adapter produced into the canonical store, independent of which
// adapter produced it.
type Processor struct {
	metadata      *database.MetadataRepository
	metadataGroup *database.MetadataGroupRepository
	person        *database.PersonRepository
	exercise      *database.ExerciseRepository
	workout       *database.WorkoutRepository
	measurement   *database.MeasurementRepository
	collections   *database.CollectionRepository
	reviews       *database.ReviewRepository
	consumption   *consumption.Engine
}

func NewProcessor(
	metadata *database.MetadataRepository,
	metadataGroup *database.MetadataGroupRepository,
	person *database.PersonRepository,
	exercise *database.ExerciseRepository,
	workout *database.WorkoutRepository,
	measurement *database.MeasurementRepository,
	collections *database.CollectionRepository,
	reviews *database.ReviewRepository,
	consumptionEngine *consumption.Engine,
) *Processor {
	return &Processor{
		metadata: metadata, metadataGroup: metadataGroup, person: person,
		exercise: exercise, workout: workout, measurement: measurement,
		collections: collections, reviews: reviews, consumption: consumptionEngine,
	}
}

// geometricRetrySum estimates remaining wall-clock time for an import
// run, matching the spec's rule for ImportReport.estimated_finish_time:
// each remaining item is assumed to cost twice the last observed item
// duration, capped at 30s/item so a long tail of failures doesn't blow
// the estimate up unboundedly.
func geometricRetrySum(remaining int, perItem time.Duration) time.Duration {
	if remaining <= 0 {
		return 0
	}
	total := time.Duration(0)
	step := perItem
	for i := 0; i < remaining; i++ {
		total += step
		if step < 30*time.Second {
			step *= 2
		}
	}
	return total
}

// Process commits every item in result for userID, ticking onProgress
// after each one, and returns a copy of result with any commit-time
// failures appended. The caller already has result from Adapter.Import;
// this is the commit half of process_import, run independently of
// source shape.
func (p *Processor) Process(ctx context.Context, userID string, result models.ImportResult, onProgress func(done, total int, estimatedFinish time.Duration)) models.ImportResult {
	total := len(result.Completed)
	start := time.Now()

	out := models.ImportResult{Failed: append([]models.ImportFailedItem{}, result.Failed...)}
	for i, item := range result.Completed {
		if err := p.commitOne(ctx, userID, item); err != nil {
			if fe, ok := err.(*failedCommit); ok {
				appendFailure(&out, fe.identifier, entityLot(item.Lot), fe.step, fe.cause)
			} else {
				appendFailure(&out, identifierHint(item), entityLot(item.Lot), models.StepDatabaseCommit, err)
			}
		} else {
			out.Completed = append(out.Completed, item)
		}
		if onProgress != nil {
			elapsedPerItem := time.Since(start) / time.Duration(i+1)
			onProgress(i+1, total, geometricRetrySum(total-(i+1), elapsedPerItem))
		}
	}
	return out
}

// identifierHint returns whichever identifier field is populated, for
// failure reporting when commitOne can't build a typed failedCommit.
func identifierHint(item models.ImportCompletedItem) string {
	switch {
	case item.Metadata != nil:
		return item.Metadata.Identifier
	case item.MetadataGroup != nil:
		return item.MetadataGroup.Identifier
	case item.Person != nil:
		return item.Person.Identifier
	case item.Exercise != nil:
		return item.Exercise.Name
	case item.Workout != nil:
		return item.Workout.Workout.Name
	case item.ApplicationWorkout != nil:
		return item.ApplicationWorkout.Workout.Name
	case item.Measurement != nil:
		return item.Measurement.Measurement.Name
	default:
		return "unknown"
	}
}

type failedCommit struct {
	identifier string
	step       models.ImportFailStep
	cause      error
}

func (f *failedCommit) Error() string { return f.cause.Error() }

func fail(identifier string, step models.ImportFailStep, cause error) error {
	return &failedCommit{identifier: identifier, step: step, cause: cause}
}

func (p *Processor) commitOne(ctx context.Context, userID string, item models.ImportCompletedItem) error {
	switch {
	case item.Metadata != nil:
		return p.commitMetadataItem(ctx, userID, item.Metadata)
	case item.MetadataGroup != nil:
		return p.commitMetadataGroupItem(ctx, userID, item.MetadataGroup)
	case item.Person != nil:
		return p.commitPersonItem(ctx, userID, item.Person)
	case item.Exercise != nil:
		return p.commitExerciseItem(ctx, userID, item.Exercise)
	case item.Workout != nil:
		return p.commitWorkout(ctx, userID, &item.Workout.Workout)
	case item.ApplicationWorkout != nil:
		return p.commitWorkout(ctx, userID, &item.ApplicationWorkout.Workout)
	case item.Measurement != nil:
		return p.commitMeasurement(ctx, userID, &item.Measurement.Measurement)
	default:
		return fail(identifierHint(item), models.StepInputTransformation, fmt.Errorf("empty import item"))
	}
}

func (p *Processor) commitMetadataItem(ctx context.Context, userID string, item *models.ImportOrExportMetadataItem) error {
	md, err := p.metadata.CommitMetadata(ctx, models.PartialMetadata{
		Lot: item.Lot, Source: item.Source, Identifier: item.Identifier, Title: item.Identifier,
	})
	if err != nil {
		return fail(item.Identifier, models.StepDatabaseCommit, err)
	}

	for _, seen := range item.Seen {
		in := models.MetadataProgressUpdateInput{
			MetadataID:        md.ID,
			Progress:          floatPtr(seen.Progress),
			ProviderWatchedOn: seen.ProviderWatchedOn,
			ShowExtra:         seen.ShowExtra,
			PodcastExtra:      seen.PodcastExtra,
			MangaExtra:        seen.MangaExtra,
			AnimeExtra:        seen.AnimeExtra,
		}
		if seen.FinishedOn != nil {
			in.Kind = models.UpdateCreateNewCompleted
			in.Date = seen.FinishedOn
		} else {
			in.Kind = models.UpdateCreateNewInProgress
			in.Date = seen.StartedOn
		}
		if _, err := p.consumption.UpdateProgress(ctx, userID, in); err != nil {
			return fail(item.Identifier, models.StepSeenHistoryConversion, err)
		}
	}

	for _, review := range item.Reviews {
		if err := p.postReview(ctx, userID, review, &md.ID, nil, nil, nil); err != nil {
			return fail(item.Identifier, models.StepDatabaseCommit, err)
		}
	}

	for _, name := range item.Collections {
		if err := p.addToCollection(ctx, userID, name, &md.ID, nil, nil, nil, nil, nil); err != nil {
			return fail(item.Identifier, models.StepDatabaseCommit, err)
		}
	}
	return nil
}

func (p *Processor) commitMetadataGroupItem(ctx context.Context, userID string, item *models.ImportOrExportMetadataGroupItem) error {
	grp, err := p.metadataGroup.CommitMetadataGroup(ctx, models.PartialMetadataGroup{
		Lot: item.Lot, Source: item.Source, Identifier: item.Identifier, Title: item.Title,
	})
	if err != nil {
		return fail(item.Identifier, models.StepDatabaseCommit, err)
	}
	for _, review := range item.Reviews {
		if err := p.postReview(ctx, userID, review, nil, &grp.ID, nil, nil); err != nil {
			return fail(item.Identifier, models.StepDatabaseCommit, err)
		}
	}
	for _, name := range item.Collections {
		if err := p.addToCollection(ctx, userID, name, nil, &grp.ID, nil, nil, nil, nil); err != nil {
			return fail(item.Identifier, models.StepDatabaseCommit, err)
		}
	}
	return nil
}

func (p *Processor) commitPersonItem(ctx context.Context, userID string, item *models.ImportOrExportPersonItem) error {
	person, err := p.person.CommitPerson(ctx, models.PartialPerson{
		Source: item.Source, Identifier: item.Identifier, Name: item.Name,
	})
	if err != nil {
		return fail(item.Identifier, models.StepDatabaseCommit, err)
	}
	for _, review := range item.Reviews {
		if err := p.postReview(ctx, userID, review, nil, nil, &person.ID, nil); err != nil {
			return fail(item.Identifier, models.StepDatabaseCommit, err)
		}
	}
	for _, name := range item.Collections {
		if err := p.addToCollection(ctx, userID, name, nil, nil, &person.ID, nil, nil, nil); err != nil {
			return fail(item.Identifier, models.StepDatabaseCommit, err)
		}
	}
	return nil
}

// commitExerciseItem auto-creates a custom exercise for a name the
// import source used but the catalog doesn't have (Strong App's
// behavior when a logged set names an unrecognized exercise). The id is
// deterministic over (name, lot, user) so re-running the same import
// never creates duplicates.
func (p *Processor) commitExerciseItem(ctx context.Context, userID string, item *models.ImportOrExportExerciseItem) error {
	existing, err := p.exercise.ByName(ctx, item.Name)
	if err == nil && existing != nil {
		return nil
	}
	ex := &models.Exercise{
		ID: models.PrefixExercise + deterministicExerciseUUID(item.Name, item.Lot, userID),
		Name: item.Name, Lot: item.Lot,
		Source: models.ExerciseSourceCustom, CreatedByUserID: &userID, CreatedOn: time.Now(),
	}
	if err := p.exercise.Create(ctx, ex); err != nil {
		return fail(item.Name, models.StepDatabaseCommit, err)
	}
	return nil
}

func (p *Processor) commitWorkout(ctx context.Context, userID string, w *models.Workout) error {
	w.UserID = userID
	if w.ID == "" {
		w.ID = models.NewID(models.PrefixWorkout)
	}
	if err := p.workout.Create(ctx, w); err != nil {
		return fail(w.Name, models.StepDatabaseCommit, err)
	}
	return nil
}

func (p *Processor) commitMeasurement(ctx context.Context, userID string, m *models.UserMeasurement) error {
	m.UserID = userID
	if err := p.measurement.Upsert(ctx, m); err != nil {
		return fail(m.Name, models.StepDatabaseCommit, err)
	}
	return nil
}

func (p *Processor) postReview(ctx context.Context, userID string, review models.ImportItemReview, metadataID, groupID, personID, exerciseID *string) error {
	rv := &models.Review{
		ID: models.NewID(models.PrefixReview), UserID: userID,
		MetadataID: metadataID, MetadataGroupID: groupID, PersonID: personID, ExerciseID: exerciseID,
		TextContent: review.Text, Visibility: models.VisibilityPublic,
		ShowExtra: review.ShowExtra, PodcastExtra: review.PodcastExtra,
		CreatedOn: review.PostedOn,
	}
	if review.Rating != nil {
		if d, err := decimal.NewFromString(*review.Rating); err == nil {
			rv.Rating = &d
		}
	}
	return p.reviews.Upsert(ctx, rv)
}

func (p *Processor) addToCollection(ctx context.Context, userID, name string, metadataID, groupID, personID, exerciseID, workoutID, templateID *string) error {
	col, err := p.collections.GetOrCreate(ctx, userID, name)
	if err != nil {
		return err
	}
	return p.collections.AddEntity(ctx, &models.CollectionToEntity{
		CollectionID: col.ID, MetadataID: metadataID, MetadataGroupID: groupID,
		PersonID: personID, ExerciseID: exerciseID, WorkoutID: workoutID, WorkoutTemplateID: templateID,
	})
}

func floatPtr(f float64) *float64 { return &f }
