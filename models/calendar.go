package models

import "time"

// CalendarEvent is a single scheduled release-date entry, materialized by
// the calendar job from metadata specifics (episode publish dates,
// anime/manga chapter drops) so upcoming-release queries don't have to
// rescan every tracked entity's specifics on each request.
type CalendarEvent struct {
	ID              string     `json:"id"`
	MetadataID      string     `json:"metadataId"`
	Date            time.Time  `json:"date"`
	SeasonNumber    *int       `json:"seasonNumber,omitempty"`
	EpisodeNumber   *int       `json:"episodeNumber,omitempty"`
	Title           string     `json:"title"`
}
