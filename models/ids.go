package models

import "github.com/google/uuid"

// Identifier prefixes. IDs are opaque prefixed strings so the entity lot
// can be inferred without a table lookup.
const (
	PrefixMetadata      = "met_"
	PrefixMetadataGroup = "meg_"
	PrefixPerson        = "per_"
	PrefixCollection    = "col_"
	PrefixWorkout       = "wor_"
	PrefixExercise      = "ex_"
	PrefixUser          = "usr_"
	PrefixReview        = "rev_"
	PrefixSeen          = "see_"
	PrefixIntegration   = "int_"
	PrefixNotification  = "not_"
)

// NewID generates a new opaque identifier with the given prefix.
func NewID(prefix string) string {
	return prefix + uuid.NewString()
}
