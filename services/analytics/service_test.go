//go:build integration

package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ryotgo/internal/database"
	"ryotgo/internal/testinfra"
	"ryotgo/models"
	"ryotgo/services/analytics"
)

type testDeps struct {
	svc          *analytics.Service
	users        *database.UserRepository
	seen         *database.SeenRepository
	reviews      *database.ReviewRepository
	measurements *database.MeasurementRepository
	workouts     *database.WorkoutRepository
	metadata     *database.MetadataRepository
	exercises    *database.ExerciseRepository
	userID       string
}

func setupTestService(t *testing.T) testDeps {
	t.Helper()
	db := testinfra.OpenPostgres(t)
	users := database.NewUserRepository(db)
	seen := database.NewSeenRepository(db)
	reviews := database.NewReviewRepository(db)
	measurements := database.NewMeasurementRepository(db)
	workouts := database.NewWorkoutRepository(db)
	metadata := database.NewMetadataRepository(db)
	exercises := database.NewExerciseRepository(db)

	svc := analytics.New(database.NewActivityRepository(db), seen, reviews, measurements, workouts, metadata)

	ctx := context.Background()
	u := &models.User{Name: "tracker", Lot: models.UserLotNormal, Preferences: models.DefaultUserPreferences()}
	require.NoError(t, users.Create(ctx, u))

	return testDeps{
		svc: svc, users: users, seen: seen, reviews: reviews, measurements: measurements,
		workouts: workouts, metadata: metadata, exercises: exercises, userID: u.ID,
	}
}

func TestCalculateUserActivitiesAndSummary_FoldsSeenAndWorkouts(t *testing.T) {
	deps := setupTestService(t)
	ctx := context.Background()

	md, err := deps.metadata.CommitMetadata(ctx, models.PartialMetadata{
		Lot: models.LotAudioBook, Source: models.SourceAudible, Identifier: "B000TEST", Title: "A Long Book",
	})
	require.NoError(t, err)
	md.Specifics.AudioBook = &models.AudioBookSpecifics{Runtime: 600}
	require.NoError(t, deps.metadata.UpdateDetails(ctx, md))

	finished := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	require.NoError(t, deps.seen.Insert(ctx, &models.Seen{
		UserID: deps.userID, MetadataID: md.ID, State: models.SeenCompleted,
		FinishedOn: &finished, LastUpdatedOn: finished,
	}))

	ex := &models.Exercise{Name: "Deadlift", Lot: models.ExerciseRepsAndWeight, Source: models.ExerciseSourceCustom}
	require.NoError(t, deps.exercises.Create(ctx, ex))
	weight := "120"
	reps := 5
	_, err = (&dummyWorkoutBuilder{workouts: deps.workouts}).create(ctx, deps.userID, ex.ID, finished, weight, reps)
	require.NoError(t, err)

	require.NoError(t, deps.svc.CalculateUserActivitiesAndSummary(ctx, deps.userID, true))

	rows, err := deps.svc.GetDailyUserActivities(ctx, deps.userID,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), models.BucketDay)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 1, rows[0].AudioBookCount)
	require.Equal(t, 600*60, rows[0].AudioBookDurationSeconds)
	require.Equal(t, 1, rows[0].WorkoutCount)

	lifetime, err := deps.svc.LatestSummary(ctx, deps.userID)
	require.NoError(t, err)
	require.Equal(t, 1, lifetime.AudioBookCount)
	require.Equal(t, 1, lifetime.WorkoutCount)
}

func TestCalculateUserActivitiesAndSummary_IncrementalResumesFromLatest(t *testing.T) {
	deps := setupTestService(t)
	ctx := context.Background()

	require.NoError(t, deps.measurements.Upsert(ctx, &models.UserMeasurement{
		UserID: deps.userID, Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, deps.svc.CalculateUserActivitiesAndSummary(ctx, deps.userID, true))

	require.NoError(t, deps.measurements.Upsert(ctx, &models.UserMeasurement{
		UserID: deps.userID, Timestamp: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, deps.svc.CalculateUserActivitiesAndSummary(ctx, deps.userID, false))

	rows, err := deps.svc.GetDailyUserActivities(ctx, deps.userID,
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), models.BucketDay)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

// dummyWorkoutBuilder inserts a minimal completed workout directly
// through the repository, bypassing services/fitness's derivation so
// this test can exercise the rollup's own folding logic in isolation.
type dummyWorkoutBuilder struct {
	workouts *database.WorkoutRepository
}

func (b *dummyWorkoutBuilder) create(ctx context.Context, userID, exerciseID string, start time.Time, weight string, reps int) (*models.Workout, error) {
	v := "600"
	w := &models.Workout{
		UserID: userID, Name: "session", StartTime: start, EndTime: start.Add(time.Hour),
		Information: models.WorkoutInformation{Exercises: []models.WorkoutExerciseInformation{{
			ExerciseID: exerciseID,
			Sets:       []models.WorkoutSet{{Lot: models.SetNormal, Reps: &reps, Weight: &weight, Volume: &v, Confirmed: true}},
		}}},
		Summary:    []models.WorkoutSummaryExercise{{ExerciseID: exerciseID, NumSets: 1}},
		Statistics: models.WorkoutStatistics{TotalVolume: v, TotalReps: reps, TotalDuration: 3600},
	}
	return w, b.workouts.Create(ctx, w)
}
