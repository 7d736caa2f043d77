//go:build integration

package fitness_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"ryotgo/internal/database"
	"ryotgo/internal/testinfra"
	"ryotgo/models"
	"ryotgo/services/fitness"
)

type testDeps struct {
	engine    *fitness.Engine
	exercises *database.ExerciseRepository
	workouts  *database.WorkoutRepository
	userID    string
	jobs      *fitness.MockJobEnqueuer
}

func setupTestEngine(t *testing.T) testDeps {
	t.Helper()
	db := testinfra.OpenPostgres(t)
	users := database.NewUserRepository(db)
	exercises := database.NewExerciseRepository(db)
	workouts := database.NewWorkoutRepository(db)

	ctrl := gomock.NewController(t)
	jobs := fitness.NewMockJobEnqueuer(ctrl)
	jobs.EXPECT().EnqueueOnWorkoutComplete(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	jobs.EXPECT().EnqueueReEvaluateUserWorkouts(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	engine := fitness.New(exercises, workouts, jobs)

	ctx := context.Background()
	u := &models.User{Name: "lifter", Lot: models.UserLotNormal, Preferences: models.DefaultUserPreferences()}
	require.NoError(t, users.Create(ctx, u))

	return testDeps{engine: engine, exercises: exercises, workouts: workouts, userID: u.ID, jobs: jobs}
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestCreateOrUpdateWorkout_ComputesVolumeAndPersonalBest(t *testing.T) {
	deps := setupTestEngine(t)
	engine, userID := deps.engine, deps.userID
	ctx := context.Background()

	in := models.WorkoutInput{
		Name: "leg day",
		Exercises: []models.WorkoutExerciseInput{
			{
				ExerciseName: "Barbell Squat",
				ExerciseLot:  models.ExerciseRepsAndWeight,
				Sets: []models.WorkoutSetInput{
					{Lot: models.SetNormal, Reps: intPtr(5), Weight: strPtr("100"), Confirmed: true},
					{Lot: models.SetNormal, Reps: intPtr(5), Weight: strPtr("110"), Confirmed: true},
				},
			},
		},
	}

	w, err := engine.CreateOrUpdateWorkout(ctx, userID, in)
	require.NoError(t, err)
	require.NotEmpty(t, w.ID)
	require.Len(t, w.Information.Exercises, 1)

	sets := w.Information.Exercises[0].Sets
	require.Len(t, sets, 2)
	require.NotNil(t, sets[0].Volume)
	require.Equal(t, "500", *sets[0].Volume)
	require.NotNil(t, sets[1].Volume)
	require.Equal(t, "550", *sets[1].Volume)

	// the heavier set should be tagged with weight, one-rm, and volume PRs
	require.Contains(t, sets[1].PersonalBests, models.PBWeight)
	require.Contains(t, sets[1].PersonalBests, models.PBVolume)
	require.Equal(t, 2, w.Statistics.PersonalBestsAchieved)
}

func TestCreateOrUpdateWorkout_RejectsEmptyExerciseList(t *testing.T) {
	deps := setupTestEngine(t)

	_, err := deps.engine.CreateOrUpdateWorkout(context.Background(), deps.userID, models.WorkoutInput{Name: "empty"})
	require.Error(t, err)
}

func TestCreateOrUpdateWorkout_ReusesDeterministicCustomExercise(t *testing.T) {
	deps := setupTestEngine(t)
	engine, userID := deps.engine, deps.userID
	ctx := context.Background()

	in := models.WorkoutInput{
		Name: "bodyweight",
		Exercises: []models.WorkoutExerciseInput{{
			ExerciseName: "Garage Pull-ups",
			ExerciseLot:  models.ExerciseReps,
			Sets:         []models.WorkoutSetInput{{Lot: models.SetNormal, Reps: intPtr(8), Confirmed: true}},
		}},
	}

	first, err := engine.CreateOrUpdateWorkout(ctx, userID, in)
	require.NoError(t, err)
	second, err := engine.CreateOrUpdateWorkout(ctx, userID, in)
	require.NoError(t, err)

	require.Equal(t, first.Information.Exercises[0].ExerciseID, second.Information.Exercises[0].ExerciseID)
	require.Equal(t, fitness.DeterministicCustomExerciseID(userID, models.ExerciseReps, "Garage Pull-ups"),
		first.Information.Exercises[0].ExerciseID)
}

func TestMergeExercise_RejectsMergingIntoItself(t *testing.T) {
	deps := setupTestEngine(t)

	w, err := deps.engine.CreateOrUpdateWorkout(context.Background(), deps.userID, models.WorkoutInput{
		Name: "session",
		Exercises: []models.WorkoutExerciseInput{{
			ExerciseName: "Bench Press",
			ExerciseLot:  models.ExerciseRepsAndWeight,
			Sets:         []models.WorkoutSetInput{{Lot: models.SetNormal, Reps: intPtr(5), Weight: strPtr("80"), Confirmed: true}},
		}},
	})
	require.NoError(t, err)
	exerciseID := w.Information.Exercises[0].ExerciseID

	require.Error(t, deps.engine.MergeExercise(context.Background(), deps.userID, exerciseID, exerciseID))
}

func TestMergeExercise_RewritesWorkoutsAndRecomputesPersonalBests(t *testing.T) {
	deps := setupTestEngine(t)
	engine, userID := deps.engine, deps.userID
	ctx := context.Background()

	into := &models.Exercise{Name: "Bench Press (Dumbbell)", Lot: models.ExerciseRepsAndWeight, Source: models.ExerciseSourceCustom}
	require.NoError(t, deps.exercises.Create(ctx, into))

	w1, err := engine.CreateOrUpdateWorkout(ctx, userID, models.WorkoutInput{
		Name: "session 1",
		Exercises: []models.WorkoutExerciseInput{{
			ExerciseName: "Bench Press",
			ExerciseLot:  models.ExerciseRepsAndWeight,
			Sets:         []models.WorkoutSetInput{{Lot: models.SetNormal, Reps: intPtr(5), Weight: strPtr("80"), Confirmed: true}},
		}},
	})
	require.NoError(t, err)
	fromID := w1.Information.Exercises[0].ExerciseID

	w2, err := engine.CreateOrUpdateWorkout(ctx, userID, models.WorkoutInput{
		Name: "session 2",
		Exercises: []models.WorkoutExerciseInput{{
			ExerciseName: "Bench Press",
			ExerciseLot:  models.ExerciseRepsAndWeight,
			Sets:         []models.WorkoutSetInput{{Lot: models.SetNormal, Reps: intPtr(5), Weight: strPtr("100"), Confirmed: true}},
		}},
	})
	require.NoError(t, err)

	require.NoError(t, engine.MergeExercise(ctx, userID, fromID, into.ID))

	rewritten1, err := deps.workouts.Get(ctx, userID, w1.ID)
	require.NoError(t, err)
	require.Equal(t, into.ID, rewritten1.Information.Exercises[0].ExerciseID)

	rewritten2, err := deps.workouts.Get(ctx, userID, w2.ID)
	require.NoError(t, err)
	require.Equal(t, into.ID, rewritten2.Information.Exercises[0].ExerciseID)

	extra, err := deps.exercises.GetUserExerciseExtra(ctx, userID, into.ID)
	require.NoError(t, err)
	require.Len(t, extra.HistoryWorkoutIDs, 2)
	best, ok := extra.PersonalBests[models.PBWeight]
	require.True(t, ok)
	require.Equal(t, "100", best.Value)
	require.Equal(t, w2.ID, best.WorkoutID)
}
