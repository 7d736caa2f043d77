package models

import "time"

// UserMeasurementStat is a single named body-measurement reading, keyed
// by a free-form name (weight, body_fat, chest, waist, ...) so the set of
// tracked stats is extensible without a migration.
type UserMeasurementStat struct {
	Name  string `json:"name"`
	Value string `json:"value"` // decimal string
}

// UserMeasurement is one dated snapshot of a user's body measurements,
// imported (e.g. from Open Scale CSV) or entered manually.
type UserMeasurement struct {
	UserID    string                `json:"userId"`
	Timestamp time.Time             `json:"timestamp"`
	Name      string                `json:"name,omitempty"`
	Comment   string                `json:"comment,omitempty"`
	Stats     []UserMeasurementStat `json:"stats"`
}
