package models

import "time"

// Exercise is a catalog entry (github-seeded or user-custom) describing a
// single movement, independent of any performed workout.
type Exercise struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Lot          ExerciseLot    `json:"lot"`
	Source       ExerciseSource `json:"source"`
	CreatedByUserID *string     `json:"createdByUserId,omitempty"` // set only when Source == custom
	Level        string         `json:"level,omitempty"`
	Force        string         `json:"force,omitempty"`
	Mechanic     string         `json:"mechanic,omitempty"`
	Equipment    string         `json:"equipment,omitempty"`
	PrimaryMuscles   []string   `json:"primaryMuscles,omitempty"`
	SecondaryMuscles []string   `json:"secondaryMuscles,omitempty"`
	Instructions []string       `json:"instructions,omitempty"`
	Images       []string       `json:"images,omitempty"`
	CreatedOn    time.Time      `json:"createdOn"`
}

// WorkoutSet is one set performed against one exercise within a workout.
type WorkoutSet struct {
	Lot             SetLot              `json:"lot"`
	Reps            *int                `json:"reps,omitempty"`
	Weight          *string             `json:"weight,omitempty"`   // decimal string
	Distance        *string             `json:"distance,omitempty"` // decimal string
	Duration        *int                `json:"duration,omitempty"` // seconds
	Confirmed       bool                `json:"confirmedAt"`
	PersonalBests   []PersonalBestKind  `json:"personalBests,omitempty"`
	RestTimeSeconds *int                `json:"restTimeSeconds,omitempty"`
	OneRM           *string             `json:"oneRm,omitempty"`   // decimal string, Epley estimate
	Volume          *string             `json:"volume,omitempty"`  // decimal string, reps*weight
	Pace            *string             `json:"pace,omitempty"`    // decimal string, distance/duration
}

// WorkoutSetInput is one set as submitted by a client, before the
// derived fields (one-rep-max, volume, pace) are computed.
type WorkoutSetInput struct {
	Lot             SetLot  `json:"lot"`
	Reps            *int    `json:"reps,omitempty"`
	Weight          *string `json:"weight,omitempty"`
	Distance        *string `json:"distance,omitempty"`
	Duration        *int    `json:"duration,omitempty"`
	Confirmed       bool    `json:"confirmedAt"`
	RestTimeSeconds *int    `json:"restTimeSeconds,omitempty"`
}

// WorkoutExerciseInput is one exercise block as submitted by a client.
// Either ExerciseID (an existing catalog or custom exercise) or
// ExerciseName (resolved by exact match, or else turned into a new
// user-owned custom exercise) must be set.
type WorkoutExerciseInput struct {
	ExerciseID   *string
	ExerciseName string
	ExerciseLot  ExerciseLot // used only when a new custom exercise must be created
	Notes        []string
	Sets         []WorkoutSetInput
	Assets       []string
	Supersets    []int
}

// WorkoutInput is create_or_update_user_workout's argument. Passing ID
// updates that workout in place if the caller owns it; otherwise a new
// workout is created with that exact ID (so clients that generate their
// own workout id up front, e.g. to support offline logging, still land
// on a stable row).
type WorkoutInput struct {
	ID                    *string
	Name                  string
	StartTime             time.Time
	EndTime               time.Time
	Exercises             []WorkoutExerciseInput
	Assets                []string
	TemplateID            *string
	RepeatedFromWorkoutID *string
}

// WorkoutExerciseInformation is one exercise block within a Workout, along
// with every set logged against it.
type WorkoutExerciseInformation struct {
	ExerciseID string       `json:"exerciseId"`
	Notes      []string     `json:"notes,omitempty"`
	Sets       []WorkoutSet `json:"sets"`
	Assets     []string     `json:"assets,omitempty"`
	Supersets  []int        `json:"supersetWith,omitempty"` // indices of other exercises in this workout
}

// WorkoutInformation is the full, ordered exercise log for a Workout.
type WorkoutInformation struct {
	Exercises []WorkoutExerciseInformation `json:"exercises"`
	Assets    []string                     `json:"assets,omitempty"`
}

// WorkoutSummaryExercise is the denormalized per-exercise roll-up kept on
// Workout.Summary so list views avoid re-reading full Information.
type WorkoutSummaryExercise struct {
	ExerciseID  string             `json:"exerciseId"`
	NumSets     int                `json:"numSets"`
	BestSet     *WorkoutSet        `json:"bestSet,omitempty"`
}

// WorkoutStatistics are the derived aggregates computed over
// WorkoutInformation at commit time: total volume, distance, duration,
// rep count, and personal-best count.
type WorkoutStatistics struct {
	TotalVolume      string `json:"totalVolume"` // decimal string, sum(weight*reps)
	TotalDistance    string `json:"totalDistance"`
	TotalDuration    int    `json:"totalDuration"` // seconds
	TotalReps        int    `json:"totalReps"`
	PersonalBestsAchieved int `json:"personalBestsAchieved"`
}

// Workout is a single completed training session.
type Workout struct {
	ID            string                   `json:"id"`
	UserID        string                   `json:"userId"`
	Name          string                   `json:"name"`
	StartTime     time.Time                `json:"startTime"`
	EndTime       time.Time                `json:"endTime"`
	Information   WorkoutInformation       `json:"information"`
	Summary       []WorkoutSummaryExercise `json:"summary"`
	Statistics    WorkoutStatistics        `json:"statistics"`
	TemplateID    *string                  `json:"templateId,omitempty"`
	RepeatedFromWorkoutID *string          `json:"repeatedFromWorkoutId,omitempty"`
}

// WorkoutTemplate is a reusable skeleton of exercises without performed
// set values, used to start a new Workout pre-populated.
type WorkoutTemplate struct {
	ID          string             `json:"id"`
	UserID      string             `json:"userId"`
	Name        string             `json:"name"`
	Information WorkoutInformation `json:"information"`
	CreatedOn   time.Time          `json:"createdOn"`
}
