package importer

import (
	"context"
	"io"
	"strconv"

	"ryotgo/models"
)

// MovaryAdapter parses a Movary history-export CSV (one row per watch
// event, already keyed by tmdbId, unlike the ISBN-only book trackers).
type MovaryAdapter struct {
	r io.Reader
}

func NewMovaryAdapter(r io.Reader) *MovaryAdapter {
	return &MovaryAdapter{r: r}
}

func (a *MovaryAdapter) Source() models.ImportSource { return models.ImportMovary }

func (a *MovaryAdapter) Import(ctx context.Context) (models.ImportResult, error) {
	var result models.ImportResult
	rows, err := readCSVRows(a.r)
	if err != nil {
		return result, err
	}
	for _, row := range rows {
		tmdbID := row["tmdbId"]
		title := row["title"]
		if tmdbID == "" {
			appendFailure(&result, title, entityLot(models.EntityMetadata), models.StepInputTransformation, errString("movary row has no tmdbId"))
			continue
		}
		item := models.ImportOrExportMetadataItem{Lot: models.LotMovie, Source: models.SourceTMDB, Identifier: tmdbID}
		if watched := parseCSVDate(row["watchedAt"]); watched != nil {
			item.Seen = append(item.Seen, models.ImportItemSeen{Progress: 100, FinishedOn: watched})
		}
		if rating := row["userRating"]; rating != "" {
			if v, err := strconv.ParseFloat(rating, 64); err == nil && v > 0 {
				r := ratingOutOfTen(v)
				item.Reviews = append(item.Reviews, models.ImportItemReview{Rating: &r})
			}
		}
		if comment := row["comment"]; comment != "" {
			if len(item.Reviews) > 0 {
				item.Reviews[len(item.Reviews)-1].Text = comment
			} else {
				item.Reviews = append(item.Reviews, models.ImportItemReview{Text: comment})
			}
		}
		result.Completed = append(result.Completed, models.ImportCompletedItem{Lot: models.EntityMetadata, Metadata: &item})
	}
	return result, nil
}
