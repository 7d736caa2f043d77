package models

import "time"

// FitnessPreferences carries unit and display settings for the fitness
// engine (C11).
type FitnessPreferences struct {
	WeightUnit   string `json:"weightUnit"`   // "kg" or "lb"
	DistanceUnit string `json:"distanceUnit"` // "km" or "mi"
}

// NotificationPreferences toggles which change kinds a user wants
// delivered, independent of per-entity monitoring subscriptions.
type NotificationPreferences struct {
	Enabled bool `json:"enabled"`
}

// DashboardPreferences controls the layout sections a user sees.
type DashboardPreferences struct {
	Sections []string `json:"sections,omitempty"`
}

// FeatureToggles enables/disables optional subsystems per user.
type FeatureToggles struct {
	Fitness bool `json:"fitness"`
	Reviews bool `json:"reviews"`
	Imports bool `json:"imports"`
}

// UserPreferences is the nested settings structure carried on User.
type UserPreferences struct {
	Features       FeatureToggles           `json:"features"`
	Notifications  NotificationPreferences  `json:"notifications"`
	Fitness        FitnessPreferences       `json:"fitness"`
	ReviewScale    RatingScale              `json:"reviewScale"`
	Dashboard      DashboardPreferences     `json:"dashboard"`
	ProviderLanguage map[MediaSource]string `json:"providerLanguage,omitempty"`
}

// DefaultUserPreferences returns the preferences a newly registered user
// starts with.
func DefaultUserPreferences() UserPreferences {
	return UserPreferences{
		Features:      FeatureToggles{Fitness: true, Reviews: true, Imports: true},
		Notifications: NotificationPreferences{Enabled: true},
		Fitness:       FitnessPreferences{WeightUnit: "kg", DistanceUnit: "km"},
		ReviewScale:   ScaleOutOfTen,
	}
}

// TwoFactorInformation holds TOTP enrollment state. TOTPSecretEncrypted
// is XOR-obfuscated at rest with the server's JWT secret (spec's stated
// minimum bar); the raw secret never appears in query results.
type TwoFactorInformation struct {
	TOTPSecretEncrypted []byte   `json:"-"`
	BackupCodesHashed   []string `json:"-"`
	IsEnabled           bool     `json:"isEnabled"`
}

// User is a registered account, administrative or normal.
type User struct {
	ID               string                `json:"id"`
	Name             string                `json:"name"`
	PasswordHash     string                `json:"-"`
	OIDCIssuerID     string                `json:"oidcIssuerId,omitempty"`
	Lot              UserLot               `json:"lot"`
	Preferences      UserPreferences       `json:"preferences"`
	TwoFactor        *TwoFactorInformation `json:"twoFactorInformation,omitempty"`
	IsDisabled       bool                  `json:"isDisabled"`
	SessionsInvalidatedAt *time.Time       `json:"-"`
	CreatedOn        time.Time             `json:"createdOn"`
}

// Collection is a named bucket a user places entities into.
type Collection struct {
	ID                   string          `json:"id"`
	UserID               string          `json:"userId"`
	Name                 string          `json:"name"`
	Description          string          `json:"description,omitempty"`
	InformationTemplate  map[string]any  `json:"informationTemplate,omitempty"`
	CreatedOn            time.Time       `json:"createdOn"`
}

// IsDefault reports whether name is one of the engine-maintained default
// collection names.
func IsDefaultCollection(name string) bool {
	switch name {
	case CollectionWatchlist, CollectionInProgress, CollectionCompleted,
		CollectionMonitoring, CollectionOwned, CollectionReminders:
		return true
	default:
		return false
	}
}

// CollectionToEntity is a polymorphic edge: exactly one of the entity ID
// fields is non-null, enforced by NewCollectionToEntity and mirrored by a
// DB CHECK constraint.
type CollectionToEntity struct {
	ID                string         `json:"id"`
	CollectionID      string         `json:"collectionId"`
	MetadataID        *string        `json:"metadataId,omitempty"`
	MetadataGroupID   *string        `json:"metadataGroupId,omitempty"`
	PersonID          *string        `json:"personId,omitempty"`
	ExerciseID        *string        `json:"exerciseId,omitempty"`
	WorkoutID         *string        `json:"workoutId,omitempty"`
	WorkoutTemplateID *string        `json:"workoutTemplateId,omitempty"`
	Rank              string         `json:"rank"` // fractional decimal key for reorder
	Information       map[string]any `json:"information,omitempty"`
	CreatedOn         time.Time      `json:"createdOn"`
	LastUpdatedOn     time.Time      `json:"lastUpdatedOn"`
}

// EntityID returns the single non-null entity foreign key.
func (c *CollectionToEntity) EntityID() string {
	switch {
	case c.MetadataID != nil:
		return *c.MetadataID
	case c.MetadataGroupID != nil:
		return *c.MetadataGroupID
	case c.PersonID != nil:
		return *c.PersonID
	case c.ExerciseID != nil:
		return *c.ExerciseID
	case c.WorkoutID != nil:
		return *c.WorkoutID
	case c.WorkoutTemplateID != nil:
		return *c.WorkoutTemplateID
	default:
		return ""
	}
}

// EntityLot returns the entity lot matching the single non-null entity
// foreign key.
func (c *CollectionToEntity) EntityLot() EntityLot {
	switch {
	case c.MetadataID != nil:
		return EntityMetadata
	case c.MetadataGroupID != nil:
		return EntityMetadataGroup
	case c.PersonID != nil:
		return EntityPerson
	case c.ExerciseID != nil:
		return EntityExercise
	case c.WorkoutID != nil:
		return EntityWorkout
	case c.WorkoutTemplateID != nil:
		return EntityWorkoutTemplate
	default:
		return ""
	}
}

// NewCollectionToEntity builds a CollectionToEntity, enforcing the
// exactly-one-entity-FK invariant the DB's CHECK constraint also
// enforces. In a language without generated columns this constructor is
// the computed-accessor equivalent the design notes call for.
func NewCollectionToEntity(collectionID string, entityID string, lot EntityLot) (*CollectionToEntity, error) {
	c := &CollectionToEntity{CollectionID: collectionID}
	switch lot {
	case EntityMetadata:
		c.MetadataID = &entityID
	case EntityMetadataGroup:
		c.MetadataGroupID = &entityID
	case EntityPerson:
		c.PersonID = &entityID
	case EntityExercise:
		c.ExerciseID = &entityID
	case EntityWorkout:
		c.WorkoutID = &entityID
	case EntityWorkoutTemplate:
		c.WorkoutTemplateID = &entityID
	default:
		return nil, InvalidEntityLotError{Lot: lot}
	}
	return c, nil
}

// InvalidEntityLotError is returned when NewCollectionToEntity is asked
// to build an edge for an unrecognized entity lot.
type InvalidEntityLotError struct{ Lot EntityLot }

func (e InvalidEntityLotError) Error() string {
	return "invalid entity lot for collection edge: " + string(e.Lot)
}

// UserToEntity is a per-user denormalization: one row per (user, entity).
type UserToEntity struct {
	UserID              string                   `json:"userId"`
	EntityID            string                   `json:"entityId"`
	EntityLot           EntityLot                `json:"entityLot"`
	MediaReasons        []MediaReason            `json:"mediaReasons"`
	ExerciseExtra       *UserExerciseExtraInfo    `json:"exerciseExtraInformation,omitempty"`
	LastUpdatedOn       time.Time                `json:"lastUpdatedOn"`
}

// MonitoredEntity records a user subscription to change notifications
// for a given collection-to-entity row.
type MonitoredEntity struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"userId"`
	EntityID             string    `json:"entityId"`
	EntityLot            EntityLot `json:"entityLot"`
	CollectionToEntityID string    `json:"collectionToEntityId"`
	CreatedOn            time.Time `json:"createdOn"`
}

