package importer

import (
	"context"
	"io"
	"strconv"

	"ryotgo/internal/database"
	"ryotgo/models"
)

// StrongAppAdapter parses a Strong app CSV export, grouping rows by
// Date+"Workout Name" into workouts. Strong's own distributable export
// bundles the workout CSV with an optional bodyweight-measurements CSV
// in a zip; measurementsCSV is nil when the caller only supplied the
// workout log.
type StrongAppAdapter struct {
	workoutCSV     io.Reader
	measurementCSV io.Reader
	resolver       *exerciseResolver
}

func NewStrongAppAdapter(workoutCSV, measurementCSV io.Reader, exercises *database.ExerciseRepository, userID string) *StrongAppAdapter {
	return &StrongAppAdapter{workoutCSV: workoutCSV, measurementCSV: measurementCSV, resolver: newExerciseResolver(exercises, userID)}
}

func (a *StrongAppAdapter) Source() models.ImportSource { return models.ImportStrongApp }

func (a *StrongAppAdapter) Import(ctx context.Context) (models.ImportResult, error) {
	var result models.ImportResult
	rows, err := readCSVRows(a.workoutCSV)
	if err != nil {
		return result, err
	}

	workouts := map[string]*models.Workout{}
	var order []string
	exerciseOrder := map[string][]string{}

	for _, row := range rows {
		key := row["Date"] + "|" + row["Workout Name"]
		w, ok := workouts[key]
		if !ok {
			w = &models.Workout{ID: models.NewID(models.PrefixWorkout), Name: row["Workout Name"]}
			if start := parseCSVDate(row["Date"]); start != nil {
				w.StartTime = *start
				w.EndTime = *start
			}
			workouts[key] = w
			order = append(order, key)
		}

		name := row["Exercise Name"]
		lot := strongSetLot(row["Weight"], row["Distance"], row["Seconds"])
		exerciseID := a.resolver.resolve(ctx, name, lot)

		idx := -1
		for i, eid := range exerciseOrder[key] {
			if eid == exerciseID {
				idx = i
				break
			}
		}
		if idx == -1 {
			info := models.WorkoutExerciseInformation{ExerciseID: exerciseID}
			if notes := row["Notes"]; notes != "" {
				info.Notes = []string{notes}
			}
			w.Information.Exercises = append(w.Information.Exercises, info)
			exerciseOrder[key] = append(exerciseOrder[key], exerciseID)
			idx = len(w.Information.Exercises) - 1
		}

		set := models.WorkoutSet{Lot: models.SetNormal, Confirmed: true}
		if reps, err := strconv.Atoi(row["Reps"]); err == nil {
			set.Reps = &reps
		}
		if row["Weight"] != "" && row["Weight"] != "0" {
			v := row["Weight"]
			set.Weight = &v
		}
		if row["Distance"] != "" && row["Distance"] != "0" {
			v := row["Distance"]
			set.Distance = &v
		}
		if dur, err := strconv.Atoi(row["Seconds"]); err == nil && dur > 0 {
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

	if a.measurementCSV != nil {
		mrows, err := readCSVRows(a.measurementCSV)
		if err != nil {
			appendFailure(&result, "measurements.csv", entityLot(models.EntityMeasurement), models.StepItemDetailsFromSource, err)
			return result, nil
		}
		for _, row := range mrows {
			ts := parseCSVDate(row["Date"])
			if ts == nil {
				continue
			}
			m := models.UserMeasurement{Timestamp: *ts}
			if v := row["Weight"]; v != "" {
				m.Stats = append(m.Stats, models.UserMeasurementStat{Name: "weight", Value: v})
			}
			if v := row["Bodyfat"]; v != "" {
				m.Stats = append(m.Stats, models.UserMeasurementStat{Name: "body_fat", Value: v})
			}
			if len(m.Stats) == 0 {
				continue
			}
			result.Completed = append(result.Completed, models.ImportCompletedItem{
				Lot:         models.EntityMeasurement,
				Measurement: &models.ImportOrExportMeasurementItem{Measurement: m},
			})
		}
	}
	return result, nil
}

func strongSetLot(weight, distance, seconds string) models.ExerciseLot {
	switch {
	case weight != "" && weight != "0":
		return models.ExerciseRepsAndWeight
	case distance != "" && distance != "0":
		return models.ExerciseDistanceAndDuration
	case seconds != "" && seconds != "0":
		return models.ExerciseDuration
	default:
		return models.ExerciseReps
	}
}
