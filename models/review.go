package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Review is a user's rating and/or written comment on an entity, polymorphic
// over the same entity lots as CollectionToEntity.
type Review struct {
	ID                string          `json:"id"`
	UserID            string          `json:"userId"`
	MetadataID        *string         `json:"metadataId,omitempty"`
	MetadataGroupID   *string         `json:"metadataGroupId,omitempty"`
	PersonID          *string         `json:"personId,omitempty"`
	ExerciseID        *string         `json:"exerciseId,omitempty"`
	CollectionID      *string         `json:"collectionId,omitempty"`
	Rating            *decimal.Decimal `json:"rating,omitempty"` // normalized 0..100
	TextContent       string          `json:"textContent,omitempty"`
	Visibility        ReviewVisibility `json:"visibility"`
	Spoiler           bool            `json:"spoiler"`
	Comments          []ReviewComment `json:"comments,omitempty"`
	ShowExtra         *SeenShowExtra  `json:"showExtraInformation,omitempty"`
	PodcastExtra      *SeenPodcastExtra `json:"podcastExtraInformation,omitempty"`
	CreatedOn         time.Time       `json:"createdOn"`
	LastUpdatedOn     time.Time       `json:"lastUpdatedOn"`
}

// ReviewComment is a threaded reply on a Review, folding the spec's
// entity-to-entity relation concept into Review.Comments rather than a
// separate join table.
type ReviewComment struct {
	ID       string    `json:"id"`
	UserID   string    `json:"userId"`
	Text     string    `json:"text"`
	LikedBy  []string  `json:"likedBy,omitempty"`
	CreatedOn time.Time `json:"createdOn"`
}

// EntityID returns the single non-null entity foreign key this review
// targets.
func (r *Review) EntityID() string {
	switch {
	case r.MetadataID != nil:
		return *r.MetadataID
	case r.MetadataGroupID != nil:
		return *r.MetadataGroupID
	case r.PersonID != nil:
		return *r.PersonID
	case r.ExerciseID != nil:
		return *r.ExerciseID
	case r.CollectionID != nil:
		return *r.CollectionID
	default:
		return ""
	}
}

// EntityLot returns the entity lot matching the single non-null entity
// foreign key.
func (r *Review) EntityLot() EntityLot {
	switch {
	case r.MetadataID != nil:
		return EntityMetadata
	case r.MetadataGroupID != nil:
		return EntityMetadataGroup
	case r.PersonID != nil:
		return EntityPerson
	case r.ExerciseID != nil:
		return EntityExercise
	case r.CollectionID != nil:
		return EntityCollection
	default:
		return ""
	}
}

// NormalizeRating converts a rating given on scale to the stored 0..100
// representation.
func NormalizeRating(value decimal.Decimal, scale RatingScale) decimal.Decimal {
	switch scale {
	case ScaleOutOfFive:
		return value.Mul(decimal.NewFromInt(20))
	case ScaleOutOfTen:
		return value.Mul(decimal.NewFromInt(10))
	case ScaleThreePointSmiley:
		// 1 -> 0, 2 -> 50, 3 -> 100
		return value.Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(50))
	case ScaleOutOfHundred:
		fallthrough
	default:
		return value
	}
}

// DisplayRating converts a stored 0..100 rating to the user's preferred
// display scale.
func DisplayRating(stored decimal.Decimal, scale RatingScale) decimal.Decimal {
	switch scale {
	case ScaleOutOfFive:
		return stored.Div(decimal.NewFromInt(20))
	case ScaleOutOfTen:
		return stored.Div(decimal.NewFromInt(10))
	case ScaleThreePointSmiley:
		return stored.Div(decimal.NewFromInt(50)).Add(decimal.NewFromInt(1))
	case ScaleOutOfHundred:
		fallthrough
	default:
		return stored
	}
}
