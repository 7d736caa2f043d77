package importer

import (
	"context"
	"io"
	"strconv"

	"ryotgo/internal/database"
	"ryotgo/models"
)

// HevyAdapter parses a Hevy workout-log CSV export. Rows sharing
// title+start_time belong to one workout; within a workout, rows keep
// their file order as the exercise and set order.
type HevyAdapter struct {
	r        io.Reader
	resolver *exerciseResolver
}

func NewHevyAdapter(r io.Reader, exercises *database.ExerciseRepository, userID string) *HevyAdapter {
	return &HevyAdapter{r: r, resolver: newExerciseResolver(exercises, userID)}
}

func (a *HevyAdapter) Source() models.ImportSource { return models.ImportHevy }

func (a *HevyAdapter) Import(ctx context.Context) (models.ImportResult, error) {
	var result models.ImportResult
	rows, err := readCSVRows(a.r)
	if err != nil {
		return result, err
	}

	workouts := map[string]*models.Workout{}
	var order []string
	exerciseOrder := map[string][]string{}

	for _, row := range rows {
		key := row["title"] + "|" + row["start_time"]
		w, ok := workouts[key]
		if !ok {
			start := parseCSVDate(row["start_time"])
			end := parseCSVDate(row["end_time"])
			w = &models.Workout{ID: models.NewID(models.PrefixWorkout), Name: row["title"]}
			if start != nil {
				w.StartTime = *start
			}
			if end != nil {
				w.EndTime = *end
			}
			workouts[key] = w
			order = append(order, key)
		}

		lot := hevySetLot(row["weight_kg"], row["distance_km"], row["duration_seconds"])
		exerciseID := a.resolver.resolve(ctx, row["exercise_title"], lot)

		idx := -1
		for i, eid := range exerciseOrder[key] {
			if eid == exerciseID {
				idx = i
				break
			}
		}
		if idx == -1 {
			w.Information.Exercises = append(w.Information.Exercises, models.WorkoutExerciseInformation{ExerciseID: exerciseID})
			exerciseOrder[key] = append(exerciseOrder[key], exerciseID)
			idx = len(w.Information.Exercises) - 1
		}

		set := models.WorkoutSet{Lot: hevySetType(row["set_type"]), Confirmed: true}
		if reps, err := strconv.Atoi(row["reps"]); err == nil {
			set.Reps = &reps
		}
		if row["weight_kg"] != "" && row["weight_kg"] != "0" {
			v := row["weight_kg"]
			set.Weight = &v
		}
		if row["distance_km"] != "" && row["distance_km"] != "0" {
			v := row["distance_km"]
			set.Distance = &v
		}
		if dur, err := strconv.Atoi(row["duration_seconds"]); err == nil && dur > 0 {
			set.Duration = &dur
		}
		w.Information.Exercises[idx].Sets = append(w.Information.Exercises[idx].Sets, set)
	}

	for _, item := range a.resolver.drainPending() {
		result.Completed = append(result.Completed, item)
	}
	for _, key := range order {
		result.Completed = append(result.Completed, models.ImportCompletedItem{
			Lot:     models.EntityWorkout,
			Workout: &models.ImportOrExportWorkoutItem{Workout: *workouts[key]},
		})
	}
	return result, nil
}

func hevySetLot(weight, distance, duration string) models.ExerciseLot {
	switch {
	case weight != "" && weight != "0":
		return models.ExerciseRepsAndWeight
	case distance != "" && distance != "0":
		return models.ExerciseDistanceAndDuration
	case duration != "" && duration != "0":
		return models.ExerciseDuration
	default:
		return models.ExerciseReps
	}
}

func hevySetType(setType string) models.SetLot {
	switch setType {
	case "warmup":
		return models.SetWarmup
	case "dropset":
		return models.SetDrop
	case "failure":
		return models.SetFailure
	default:
		return models.SetNormal
	}
}
