package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"ryotgo/internal/apperror"
	"ryotgo/models"
)

// ExerciseRepository persists the exercise catalog (github-seeded and
// user-custom) and UserToEntity's fitness-extra slice.
type ExerciseRepository struct {
	db *DB
}

func NewExerciseRepository(db *DB) *ExerciseRepository {
	return &ExerciseRepository{db: db}
}

// Get fetches an exercise by ID.
func (r *ExerciseRepository) Get(ctx context.Context, id string) (*models.Exercise, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, lot, source, created_by_user_id, level, force, mechanic, equipment,
		       primary_muscles, secondary_muscles, instructions, images, created_on
		FROM exercise WHERE id = $1`, id)
	ex, err := scanExercise(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.New(apperror.KindNotFound, "exercise not found: "+id)
	}
	return ex, err
}

// ByName looks up a catalog exercise by exact name, used by Strong App
// import's auto-create-if-missing path.
func (r *ExerciseRepository) ByName(ctx context.Context, name string) (*models.Exercise, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, lot, source, created_by_user_id, level, force, mechanic, equipment,
		       primary_muscles, secondary_muscles, instructions, images, created_on
		FROM exercise WHERE name = $1 LIMIT 1`, name)
	ex, err := scanExercise(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return ex, err
}

// Create inserts a new exercise, catalog-seeded or user-custom.
func (r *ExerciseRepository) Create(ctx context.Context, ex *models.Exercise) error {
	if ex.ID == "" {
		ex.ID = models.NewID(models.PrefixExercise)
	}
	primaryJSON, _ := json.Marshal(ex.PrimaryMuscles)
	secondaryJSON, _ := json.Marshal(ex.SecondaryMuscles)
	instructionsJSON, _ := json.Marshal(ex.Instructions)
	imagesJSON, _ := json.Marshal(ex.Images)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO exercise (id, name, lot, source, created_by_user_id, level, force, mechanic,
		                       equipment, primary_muscles, secondary_muscles, instructions, images)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		ex.ID, ex.Name, ex.Lot, ex.Source, ex.CreatedByUserID, ex.Level, ex.Force, ex.Mechanic,
		ex.Equipment, primaryJSON, secondaryJSON, instructionsJSON, imagesJSON,
	)
	return err
}

func scanExercise(row rowScanner) (*models.Exercise, error) {
	var ex models.Exercise
	var level, force, mechanic, equipment sql.NullString
	var createdBy sql.NullString
	var primaryJSON, secondaryJSON, instructionsJSON, imagesJSON []byte
	err := row.Scan(&ex.ID, &ex.Name, &ex.Lot, &ex.Source, &createdBy, &level, &force,
		&mechanic, &equipment, &primaryJSON, &secondaryJSON, &instructionsJSON, &imagesJSON, &ex.CreatedOn)
	if err != nil {
		return nil, err
	}
	if createdBy.Valid {
		ex.CreatedByUserID = &createdBy.String
	}
	ex.Level, ex.Force, ex.Mechanic, ex.Equipment = level.String, force.String, mechanic.String, equipment.String
	_ = json.Unmarshal(primaryJSON, &ex.PrimaryMuscles)
	_ = json.Unmarshal(secondaryJSON, &ex.SecondaryMuscles)
	_ = json.Unmarshal(instructionsJSON, &ex.Instructions)
	_ = json.Unmarshal(imagesJSON, &ex.Images)
	return &ex, nil
}

// GetUserExerciseExtra fetches the fitness-extra payload for (userID,
// exerciseID), returning a zero-value struct if none exists yet.
func (r *ExerciseRepository) GetUserExerciseExtra(ctx context.Context, userID, exerciseID string) (*models.UserExerciseExtraInfo, error) {
	var extraJSON []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT exercise_extra FROM user_to_entity
		WHERE user_id = $1 AND entity_id = $2 AND entity_lot = $3`,
		userID, exerciseID, models.EntityExercise,
	).Scan(&extraJSON)
	if errors.Is(err, sql.ErrNoRows) || len(extraJSON) == 0 {
		return &models.UserExerciseExtraInfo{PersonalBests: map[models.PersonalBestKind]models.PersonalBestEntry{}}, nil
	}
	if err != nil {
		return nil, err
	}
	var extra models.UserExerciseExtraInfo
	if err := json.Unmarshal(extraJSON, &extra); err != nil {
		return nil, err
	}
	if extra.PersonalBests == nil {
		extra.PersonalBests = map[models.PersonalBestKind]models.PersonalBestEntry{}
	}
	return &extra, nil
}

// UpsertUserExerciseExtra persists the fitness-extra payload, creating
// the owning user_to_entity row if it doesn't exist yet.
func (r *ExerciseRepository) UpsertUserExerciseExtra(ctx context.Context, userID, exerciseID string, extra *models.UserExerciseExtraInfo) error {
	extraJSON, err := json.Marshal(extra)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO user_to_entity (user_id, entity_id, entity_lot, media_reasons, exercise_extra)
		VALUES ($1, $2, $3, '[]', $4)
		ON CONFLICT (user_id, entity_id, entity_lot) DO UPDATE SET
			exercise_extra = EXCLUDED.exercise_extra, last_updated_on = now()`,
		userID, exerciseID, models.EntityExercise, extraJSON,
	)
	return err
}

// WorkoutRepository persists performed training sessions and templates.
type WorkoutRepository struct {
	db *DB
}

func NewWorkoutRepository(db *DB) *WorkoutRepository {
	return &WorkoutRepository{db: db}
}

// Create inserts a completed Workout row.
func (r *WorkoutRepository) Create(ctx context.Context, w *models.Workout) error {
	if w.ID == "" {
		w.ID = models.NewID(models.PrefixWorkout)
	}
	infoJSON, err := json.Marshal(w.Information)
	if err != nil {
		return err
	}
	summaryJSON, err := json.Marshal(w.Summary)
	if err != nil {
		return err
	}
	statsJSON, err := json.Marshal(w.Statistics)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO workout (id, user_id, name, start_time, end_time, information, summary,
		                      statistics, template_id, repeated_from_workout_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		w.ID, w.UserID, w.Name, w.StartTime, w.EndTime, infoJSON, summaryJSON, statsJSON,
		w.TemplateID, w.RepeatedFromWorkoutID,
	)
	return err
}

// Get fetches a single workout by ID, scoped to its owner.
func (r *WorkoutRepository) Get(ctx context.Context, userID, id string) (*models.Workout, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, start_time, end_time, information, summary, statistics,
		       template_id, repeated_from_workout_id
		FROM workout WHERE id = $1 AND user_id = $2`, id, userID)
	w, err := scanWorkout(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.New(apperror.KindNotFound, "workout not found: "+id)
	}
	return w, err
}

// Recent returns a user's most recent workouts, newest first.
func (r *WorkoutRepository) Recent(ctx context.Context, userID string, limit int) ([]*models.Workout, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, start_time, end_time, information, summary, statistics,
		       template_id, repeated_from_workout_id
		FROM workout WHERE user_id = $1 ORDER BY start_time DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// ForExport returns one page of a user's completed workouts, oldest
// first, for the exporter's (C7) paginated streaming.
func (r *WorkoutRepository) ForExport(ctx context.Context, userID string, limit, offset int) ([]*models.Workout, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, start_time, end_time, information, summary, statistics,
		       template_id, repeated_from_workout_id
		FROM workout WHERE user_id = $1 ORDER BY start_time ASC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Since returns a user's workouts started at or after since, oldest
// first, used by the analytics rollup (C10) to fold workout counters.
func (r *WorkoutRepository) Since(ctx context.Context, userID string, since time.Time) ([]*models.Workout, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, start_time, end_time, information, summary, statistics,
		       template_id, repeated_from_workout_id
		FROM workout WHERE user_id = $1 AND start_time >= $2 ORDER BY start_time ASC`, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// ForExercise returns every workout in which userID logged exerciseID,
// oldest first, used by merge_exercise (C11) to rewrite the exercise id
// in place and to recompute personal bests across the merged history.
func (r *WorkoutRepository) ForExercise(ctx context.Context, userID, exerciseID string) ([]*models.Workout, error) {
	containment, err := json.Marshal([]map[string]string{{"exerciseId": exerciseID}})
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, start_time, end_time, information, summary, statistics,
		       template_id, repeated_from_workout_id
		FROM workout WHERE user_id = $1 AND summary @> $2::jsonb ORDER BY start_time ASC`,
		userID, containment)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Update overwrites a workout's exercise log, summary, and statistics in
// place, used by merge_exercise (C11) after rewriting an exercise id.
func (r *WorkoutRepository) Update(ctx context.Context, w *models.Workout) error {
	infoJSON, err := json.Marshal(w.Information)
	if err != nil {
		return err
	}
	summaryJSON, err := json.Marshal(w.Summary)
	if err != nil {
		return err
	}
	statsJSON, err := json.Marshal(w.Statistics)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE workout SET information=$1, summary=$2, statistics=$3 WHERE id=$4 AND user_id=$5`,
		infoJSON, summaryJSON, statsJSON, w.ID, w.UserID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.New(apperror.KindNotFound, "workout not found: "+w.ID)
	}
	return nil
}

func scanWorkout(row rowScanner) (*models.Workout, error) {
	var w models.Workout
	var infoJSON, summaryJSON, statsJSON []byte
	var templateID, repeatedFrom sql.NullString
	err := row.Scan(&w.ID, &w.UserID, &w.Name, &w.StartTime, &w.EndTime, &infoJSON,
		&summaryJSON, &statsJSON, &templateID, &repeatedFrom)
	if err != nil {
		return nil, err
	}
	if templateID.Valid {
		w.TemplateID = &templateID.String
	}
	if repeatedFrom.Valid {
		w.RepeatedFromWorkoutID = &repeatedFrom.String
	}
	_ = json.Unmarshal(infoJSON, &w.Information)
	_ = json.Unmarshal(summaryJSON, &w.Summary)
	_ = json.Unmarshal(statsJSON, &w.Statistics)
	return &w, nil
}
