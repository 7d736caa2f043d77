package importer

import (
	"context"
	"io"
	"strconv"

	"ryotgo/models"
)

// StoryGraphAdapter parses a StoryGraph library export CSV, the same
// ISBN-keyed shape as Goodreads but with its own column names and a
// five-star rating scale.
type StoryGraphAdapter struct {
	r        io.Reader
	resolver *isbnResolver
}

func NewStoryGraphAdapter(r io.Reader, resolver *isbnResolver) *StoryGraphAdapter {
	return &StoryGraphAdapter{r: r, resolver: resolver}
}

func (a *StoryGraphAdapter) Source() models.ImportSource { return models.ImportStoryGraph }

func (a *StoryGraphAdapter) Import(ctx context.Context) (models.ImportResult, error) {
	var result models.ImportResult
	rows, err := readCSVRows(a.r)
	if err != nil {
		return result, err
	}
	for _, row := range rows {
		isbn := goodreadsISBN(row["ISBN/UID"])
		title := row["Title"]
		if isbn == "" {
			appendFailure(&result, title, entityLot(models.EntityMetadata), models.StepInputTransformation, errEmptyISBN)
			continue
		}
		source, identifier, err := a.resolver.resolve(ctx, isbn)
		if err != nil {
			appendFailure(&result, title, entityLot(models.EntityMetadata), models.StepMediaDetailsFromProvider, err)
			continue
		}
		item := models.ImportOrExportMetadataItem{Lot: models.LotBook, Source: source, Identifier: identifier}
		if row["Read Status"] == "read" {
			item.Collections = append(item.Collections, "Completed")
		} else if row["Read Status"] == "currently-reading" {
			item.Collections = append(item.Collections, "In Progress")
		} else if row["Read Status"] == "to-read" {
			item.Collections = append(item.Collections, "Watchlist")
		}
		if finished := parseCSVDate(row["Last Date Read"]); finished != nil {
			item.Seen = append(item.Seen, models.ImportItemSeen{Progress: 100, FinishedOn: finished})
		}
		if rating := row["Star Rating"]; rating != "" {
			if v, err := strconv.ParseFloat(rating, 64); err == nil {
				r := ratingOutOfFive(v)
				item.Reviews = append(item.Reviews, models.ImportItemReview{Rating: &r})
			}
		}
		result.Completed = append(result.Completed, models.ImportCompletedItem{Lot: models.EntityMetadata, Metadata: &item})
	}
	return result, nil
}
