// Package fitness implements the workout logging engine (C11):
// resolving exercises (catalog, by-name, or deterministic custom),
// deriving per-set statistics, marking personal bests, and merging
// duplicate exercises. It follows the same shape as services/consumption
// (per-key serialization via internal/keylock, a small local JobEnqueuer
// interface for C5 handoff) generalized from progress updates to workouts.
package fitness

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/shopspring/decimal"

	"ryotgo/internal/apperror"
	"ryotgo/internal/database"
	"ryotgo/internal/keylock"
	"ryotgo/models"
)

// Engine applies WorkoutInput mutations: create_or_update_user_workout
// and merge_exercise.
type Engine struct {
	exercises *database.ExerciseRepository
	workouts  *database.WorkoutRepository
	locks     *keylock.Locker
	jobs      JobEnqueuer
}

// JobEnqueuer is the subset of the job pipeline (C5) the engine needs.
type JobEnqueuer interface {
	EnqueueOnWorkoutComplete(ctx context.Context, userID, workoutID string) error
	EnqueueReEvaluateUserWorkouts(ctx context.Context, userID, exerciseID string) error
}

func New(exercises *database.ExerciseRepository, workouts *database.WorkoutRepository, jobs JobEnqueuer) *Engine {
	return &Engine{exercises: exercises, workouts: workouts, locks: keylock.New(), jobs: jobs}
}

// DeterministicCustomExerciseID derives a stable id for a user-named
// exercise so resolving the same (user, lot, name) twice always lands on
// the same row instead of creating duplicates.
func DeterministicCustomExerciseID(userID string, lot models.ExerciseLot, name string) string {
	sum := sha256.Sum256([]byte(userID + "\x00" + string(lot) + "\x00" + name))
	return models.PrefixExercise + hex.EncodeToString(sum[:])[:24]
}

// CreateOrUpdateWorkout resolves every exercise in in, computes derived
// set statistics and workout totals, marks personal bests against each
// exercise's stored lifetime stats, and persists the result. It follows
// spec §4.11's five-step algorithm: resolve, derive, total, mark PRs,
// persist+enqueue.
func (e *Engine) CreateOrUpdateWorkout(ctx context.Context, userID string, in models.WorkoutInput) (*models.Workout, error) {
	if len(in.Exercises) == 0 {
		return nil, apperror.New(apperror.KindInvalidInput, "workout must log at least one exercise")
	}

	w := &models.Workout{
		UserID:                userID,
		Name:                  in.Name,
		StartTime:             in.StartTime,
		EndTime:               in.EndTime,
		TemplateID:            in.TemplateID,
		RepeatedFromWorkoutID: in.RepeatedFromWorkoutID,
		Information:           models.WorkoutInformation{Assets: in.Assets},
	}
	if in.ID != nil {
		w.ID = *in.ID
	} else {
		w.ID = models.NewID(models.PrefixWorkout)
	}

	var total totals
	for _, exIn := range in.Exercises {
		exercise, err := e.resolveExercise(ctx, userID, exIn)
		if err != nil {
			return nil, err
		}

		unlock := e.locks.Lock(userID + ":" + exercise.ID)
		block, best, err := e.buildExerciseBlock(ctx, userID, w.ID, exercise, exIn)
		unlock()
		if err != nil {
			return nil, err
		}

		w.Information.Exercises = append(w.Information.Exercises, block)
		w.Summary = append(w.Summary, models.WorkoutSummaryExercise{
			ExerciseID: exercise.ID,
			NumSets:    len(block.Sets),
			BestSet:    best,
		})
		for _, s := range block.Sets {
			total.add(s)
		}
	}
	w.Statistics = total.statistics()

	if in.ID == nil {
		if err := e.workouts.Create(ctx, w); err != nil {
			return nil, fmt.Errorf("create workout: %w", err)
		}
	} else {
		if err := e.workouts.Update(ctx, w); err != nil {
			return nil, fmt.Errorf("update workout: %w", err)
		}
	}

	if e.jobs != nil {
		if err := e.jobs.EnqueueOnWorkoutComplete(ctx, userID, w.ID); err != nil {
			return nil, fmt.Errorf("enqueue on-workout-complete: %w", err)
		}
	}
	return w, nil
}

// resolveExercise finds the exercise an input block refers to, by id,
// by exact name, or by creating a new deterministic custom exercise.
func (e *Engine) resolveExercise(ctx context.Context, userID string, in models.WorkoutExerciseInput) (*models.Exercise, error) {
	if in.ExerciseID != nil {
		return e.exercises.Get(ctx, *in.ExerciseID)
	}
	if in.ExerciseName == "" {
		return nil, apperror.New(apperror.KindInvalidInput, "workout exercise needs an id or a name")
	}
	if existing, err := e.exercises.ByName(ctx, in.ExerciseName); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	id := DeterministicCustomExerciseID(userID, in.ExerciseLot, in.ExerciseName)
	if created, err := e.exercises.Get(ctx, id); err == nil {
		return created, nil
	}
	ex := &models.Exercise{
		ID:              id,
		Name:            in.ExerciseName,
		Lot:             in.ExerciseLot,
		Source:          models.ExerciseSourceCustom,
		CreatedByUserID: &userID,
	}
	if err := e.exercises.Create(ctx, ex); err != nil {
		return nil, fmt.Errorf("create custom exercise %q: %w", in.ExerciseName, err)
	}
	return ex, nil
}

// buildExerciseBlock computes every set's derived stats, applies
// personal-best tagging against the stored lifetime record, persists
// the updated lifetime record, and returns the block plus its best set
// (the one carrying the most personal bests, for the workout summary).
func (e *Engine) buildExerciseBlock(ctx context.Context, userID, workoutID string, exercise *models.Exercise, in models.WorkoutExerciseInput) (models.WorkoutExerciseInformation, *models.WorkoutSet, error) {
	extra, err := e.exercises.GetUserExerciseExtra(ctx, userID, exercise.ID)
	if err != nil {
		return models.WorkoutExerciseInformation{}, nil, err
	}

	block := models.WorkoutExerciseInformation{
		ExerciseID: exercise.ID,
		Notes:      in.Notes,
		Assets:     in.Assets,
		Supersets:  in.Supersets,
	}

	validKinds := models.ValidPersonalBests(exercise.Lot)
	var best *models.WorkoutSet
	bestPRCount := -1

	for i, setIn := range in.Sets {
		set, err := computeSet(exercise.Lot, setIn)
		if err != nil {
			return models.WorkoutExerciseInformation{}, nil, fmt.Errorf("exercise %s set %d: %w", exercise.Name, i, err)
		}
		e.addLifetime(extra, set)
		if set.Confirmed {
			applyPersonalBests(extra, validKinds, set, workoutID, i)
		}
		block.Sets = append(block.Sets, *set)
		if len(set.PersonalBests) > bestPRCount {
			bestPRCount = len(set.PersonalBests)
			best = set
		}
	}

	if err := e.exercises.UpsertUserExerciseExtra(ctx, userID, exercise.ID, extra); err != nil {
		return models.WorkoutExerciseInformation{}, nil, err
	}
	return block, best, nil
}

// computeSet validates a set's fields against what its exercise lot
// requires and fills in the decimal-derived stats (one-rep-max, volume,
// pace) that only apply to the relevant lots.
func computeSet(lot models.ExerciseLot, in models.WorkoutSetInput) (*models.WorkoutSet, error) {
	set := &models.WorkoutSet{
		Lot:             in.Lot,
		Reps:            in.Reps,
		Weight:          in.Weight,
		Distance:        in.Distance,
		Duration:        in.Duration,
		Confirmed:       in.Confirmed,
		RestTimeSeconds: in.RestTimeSeconds,
	}

	switch lot {
	case models.ExerciseReps:
		if in.Reps == nil {
			return nil, apperror.New(apperror.KindInvalidInput, "reps-only exercise requires reps")
		}
	case models.ExerciseRepsAndWeight:
		if in.Reps == nil || in.Weight == nil {
			return nil, apperror.New(apperror.KindInvalidInput, "reps-and-weight exercise requires reps and weight")
		}
		weight, err := decimal.NewFromString(*in.Weight)
		if err != nil {
			return nil, apperror.New(apperror.KindInvalidInput, "invalid weight: "+*in.Weight)
		}
		reps := decimal.NewFromInt(int64(*in.Reps))
		volume := weight.Mul(reps)
		v := volume.String()
		set.Volume = &v
		if *in.Reps > 0 {
			// Epley: one_rm = weight * (1 + reps/30)
			factor := decimal.NewFromInt(1).Add(reps.Div(decimal.NewFromInt(30)))
			oneRM := weight.Mul(factor).String()
			set.OneRM = &oneRM
		}
	case models.ExerciseDuration:
		if in.Duration == nil {
			return nil, apperror.New(apperror.KindInvalidInput, "duration exercise requires duration")
		}
	case models.ExerciseDistanceAndDuration:
		if in.Distance == nil || in.Duration == nil {
			return nil, apperror.New(apperror.KindInvalidInput, "distance-and-duration exercise requires distance and duration")
		}
		if *in.Duration > 0 {
			distance, err := decimal.NewFromString(*in.Distance)
			if err != nil {
				return nil, apperror.New(apperror.KindInvalidInput, "invalid distance: "+*in.Distance)
			}
			pace := distance.Div(decimal.NewFromInt(int64(*in.Duration))).String()
			set.Pace = &pace
		}
	case models.ExerciseRepsAndDuration:
		if in.Reps == nil || in.Duration == nil {
			return nil, apperror.New(apperror.KindInvalidInput, "reps-and-duration exercise requires reps and duration")
		}
	default:
		return nil, apperror.New(apperror.KindInvalidInput, "unknown exercise lot: "+string(lot))
	}
	return set, nil
}

// applyPersonalBests compares one confirmed set against the stored best
// for every PR kind valid for this exercise's lot, tagging and
// overwriting the record wherever this set is an improvement.
func applyPersonalBests(extra *models.UserExerciseExtraInfo, kinds []models.PersonalBestKind, set *models.WorkoutSet, workoutID string, setIndex int) {
	for _, kind := range kinds {
		value := setValueFor(set, kind)
		if value == nil {
			continue
		}
		cur, ok := extra.PersonalBests[kind]
		if ok {
			curValue, err := decimal.NewFromString(cur.Value)
			if err == nil && curValue.GreaterThanOrEqual(*value) {
				continue
			}
		}
		set.PersonalBests = append(set.PersonalBests, kind)
		extra.PersonalBests[kind] = models.PersonalBestEntry{WorkoutID: workoutID, SetIndex: setIndex, Value: value.String()}
	}
}

func setValueFor(set *models.WorkoutSet, kind models.PersonalBestKind) *decimal.Decimal {
	var raw *string
	switch kind {
	case models.PBWeight:
		raw = set.Weight
	case models.PBOneRM:
		raw = set.OneRM
	case models.PBVolume:
		raw = set.Volume
	case models.PBDistance:
		raw = set.Distance
	case models.PBPace:
		raw = set.Pace
	case models.PBReps:
		if set.Reps == nil {
			return nil
		}
		d := decimal.NewFromInt(int64(*set.Reps))
		return &d
	case models.PBDuration:
		if set.Duration == nil {
			return nil
		}
		d := decimal.NewFromInt(int64(*set.Duration))
		return &d
	}
	if raw == nil {
		return nil
	}
	d, err := decimal.NewFromString(*raw)
	if err != nil {
		return nil
	}
	return &d
}

// addLifetime folds one set's contribution into an exercise's all-time
// totals, used regardless of whether the set is confirmed: unconfirmed
// (planned, not-yet-performed) sets still count toward a template's
// shape, but callers mark only confirmed sets PR-eligible above.
func (e *Engine) addLifetime(extra *models.UserExerciseExtraInfo, set *models.WorkoutSet) {
	if set.Weight != nil && set.Reps != nil {
		w, err := decimal.NewFromString(*set.Weight)
		if err == nil {
			volume := w.Mul(decimal.NewFromInt(int64(*set.Reps)))
			cur, _ := decimal.NewFromString(extra.Lifetime.Weight)
			extra.Lifetime.Weight = cur.Add(volume).String()
		}
	}
	if set.Reps != nil {
		extra.Lifetime.Reps += *set.Reps
	}
	if set.Distance != nil {
		d, err := decimal.NewFromString(*set.Distance)
		if err == nil {
			cur, _ := decimal.NewFromString(extra.Lifetime.Distance)
			extra.Lifetime.Distance = cur.Add(d).String()
		}
	}
	if set.Duration != nil {
		extra.Lifetime.Duration += *set.Duration
	}
}

// totals accumulates a workout's statistics across every logged set.
type totals struct {
	volume   decimal.Decimal
	distance decimal.Decimal
	duration int
	reps     int
	prsHit   int
}

func (t *totals) add(s models.WorkoutSet) {
	if s.Volume != nil {
		if v, err := decimal.NewFromString(*s.Volume); err == nil {
			t.volume = t.volume.Add(v)
		}
	}
	if s.Distance != nil {
		if d, err := decimal.NewFromString(*s.Distance); err == nil {
			t.distance = t.distance.Add(d)
		}
	}
	if s.Duration != nil {
		t.duration += *s.Duration
	}
	if s.Reps != nil {
		t.reps += *s.Reps
	}
	t.prsHit += len(s.PersonalBests)
}

func (t *totals) statistics() models.WorkoutStatistics {
	return models.WorkoutStatistics{
		TotalVolume:           t.volume.String(),
		TotalDistance:         t.distance.String(),
		TotalDuration:         t.duration,
		TotalReps:             t.reps,
		PersonalBestsAchieved: t.prsHit,
	}
}

// MergeExercise rewrites every workout that logged from to reference
// into instead, then fully rebuilds into's UserExerciseExtraInfo from
// the merged history rather than patching it incrementally, per the
// spec's "the safe choice is to recompute" resolution: any incremental
// merge risks double-counting lifetime stats or keeping a stale PR that
// from's history alone would have beaten.
func (e *Engine) MergeExercise(ctx context.Context, userID, from, into string) error {
	if from == into {
		return apperror.New(apperror.KindInvalidInput, "cannot merge an exercise into itself")
	}
	unlockInto := e.locks.Lock(userID + ":" + into)
	defer unlockInto()
	unlockFrom := e.locks.Lock(userID + ":" + from)
	defer unlockFrom()

	workouts, err := e.workouts.ForExercise(ctx, userID, from)
	if err != nil {
		return fmt.Errorf("find workouts logging %s: %w", from, err)
	}
	for _, w := range workouts {
		changed := false
		for i := range w.Information.Exercises {
			if w.Information.Exercises[i].ExerciseID == from {
				w.Information.Exercises[i].ExerciseID = into
				changed = true
			}
		}
		for i := range w.Summary {
			if w.Summary[i].ExerciseID == from {
				w.Summary[i].ExerciseID = into
				changed = true
			}
		}
		if changed {
			if err := e.workouts.Update(ctx, w); err != nil {
				return fmt.Errorf("rewrite workout %s: %w", w.ID, err)
			}
		}
	}

	if err := e.recomputeExerciseExtra(ctx, userID, into); err != nil {
		return fmt.Errorf("recompute merged exercise extra: %w", err)
	}

	if e.jobs != nil {
		if err := e.jobs.EnqueueReEvaluateUserWorkouts(ctx, userID, into); err != nil {
			return fmt.Errorf("enqueue re-evaluate user workouts: %w", err)
		}
	}
	return nil
}

// ReEvaluateUserWorkouts is the KindReEvaluateUserWorkouts job handler's
// entry point: a thin exported wrapper around recomputeExerciseExtra so
// the job pipeline never needs to reach into the engine's unexported
// surface for what is, from the caller's side, a single idempotent
// rebuild of one exercise's personal-bests/history.
func (e *Engine) ReEvaluateUserWorkouts(ctx context.Context, userID, exerciseID string) error {
	return e.recomputeExerciseExtra(ctx, userID, exerciseID)
}

// recomputeExerciseExtra rescans every workout logging exerciseID from
// scratch and rebuilds its UserExerciseExtraInfo, instead of adjusting
// the existing record in place.
func (e *Engine) recomputeExerciseExtra(ctx context.Context, userID, exerciseID string) error {
	exercise, err := e.exercises.Get(ctx, exerciseID)
	if err != nil {
		return err
	}
	workouts, err := e.workouts.ForExercise(ctx, userID, exerciseID)
	if err != nil {
		return err
	}

	validKinds := models.ValidPersonalBests(exercise.Lot)
	extra := &models.UserExerciseExtraInfo{PersonalBests: map[models.PersonalBestKind]models.PersonalBestEntry{}}

	for _, w := range workouts {
		extra.HistoryWorkoutIDs = append(extra.HistoryWorkoutIDs, w.ID)
		for _, block := range w.Information.Exercises {
			if block.ExerciseID != exerciseID {
				continue
			}
			for i := range block.Sets {
				set := block.Sets[i]
				e.addLifetime(extra, &set)
				if set.Confirmed {
					set.PersonalBests = nil
					applyPersonalBests(extra, validKinds, &set, w.ID, i)
				}
			}
		}
	}
	return e.exercises.UpsertUserExerciseExtra(ctx, userID, exerciseID, extra)
}
