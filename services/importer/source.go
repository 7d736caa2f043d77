// Package importer implements the import pipeline (C6): one Adapter per
// external source, each producing a models.ImportResult the Processor
// normalizes into canonical-store commits. This directory held the
// teacher's parallel NZB/RAR downloader (internal/importer/); that
// content moved to internal/importer and this package holds the fully
// rewritten source-adapter set instead.
package importer

import (
	"context"
	"fmt"
	"time"

	"ryotgo/models"
)

// Adapter pulls one external source's full enumeration and maps each row
// onto the common ImportCompletedItem/ImportFailedItem shape, deferring
// provider resolution to the processor where the source only carries a
// loose identifier (e.g. an ISBN, not a catalog id).
type Adapter interface {
	Source() models.ImportSource
	Import(ctx context.Context) (models.ImportResult, error)
}

// appendFailure records one row's failure with the pipeline step it
// failed at, the shared bookkeeping every adapter needs.
func appendFailure(result *models.ImportResult, identifier string, lot *models.EntityLot, step models.ImportFailStep, err error) {
	result.Failed = append(result.Failed, models.ImportFailedItem{
		Identifier: identifier,
		Lot:        lot,
		Step:       step,
		Error:      err.Error(),
	})
}

func entityLot(lot models.EntityLot) *models.EntityLot { return &lot }

// errString is a trivial constant error for sentinel failures that carry
// no dynamic detail.
type errString string

func (e errString) Error() string { return string(e) }

// ratingOutOfTen rescales a 1..10 rating (Trakt) to the store's 0..100
// scale.
func ratingOutOfTen(r float64) string {
	return fmt.Sprintf("%.4f", r*10)
}

// ratingOutOfFive rescales a 1..5 rating (MediaTracker) to the store's
// 0..100 scale.
func ratingOutOfFive(r float64) string {
	return fmt.Sprintf("%.4f", r*20)
}

// csvDateFormats are the layouts tried in order by parseCSVDate; CSV
// exports from different trackers disagree on date shape.
var csvDateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// parseCSVDate tries each of csvDateFormats in turn, returning nil if s
// is empty or matches none of them (a soft failure: callers treat a
// missing date as "not finished" rather than failing the whole row).
func parseCSVDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range csvDateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
