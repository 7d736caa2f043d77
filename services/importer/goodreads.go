package importer

import (
	"context"
	"io"
	"strconv"
	"strings"

	"ryotgo/models"
)

// GoodreadsAdapter parses a Goodreads library export CSV. Every row
// only carries an ISBN, so each title is resolved to a catalog id via
// isbnResolver before being emitted as an ImportCompletedItem.
type GoodreadsAdapter struct {
	r        io.Reader
	resolver *isbnResolver
}

func NewGoodreadsAdapter(r io.Reader, resolver *isbnResolver) *GoodreadsAdapter {
	return &GoodreadsAdapter{r: r, resolver: resolver}
}

func (a *GoodreadsAdapter) Source() models.ImportSource { return models.ImportGoodreads }

func (a *GoodreadsAdapter) Import(ctx context.Context) (models.ImportResult, error) {
	var result models.ImportResult
	rows, err := readCSVRows(a.r)
	if err != nil {
		return result, err
	}
	for _, row := range rows {
		isbn := goodreadsISBN(row["ISBN13"])
		if isbn == "" {
			isbn = goodreadsISBN(row["ISBN"])
		}
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
		item := models.ImportOrExportMetadataItem{
			Lot: models.LotBook, Source: source, Identifier: identifier,
			Collections: []string{goodreadsShelf(row["Exclusive Shelf"])},
		}
		if finished := parseCSVDate(row["Date Read"]); finished != nil {
			item.Seen = append(item.Seen, models.ImportItemSeen{Progress: 100, FinishedOn: finished})
		}
		if rating := row["My Rating"]; rating != "" && rating != "0" {
			if v, err := strconv.ParseFloat(rating, 64); err == nil {
				r := ratingOutOfFive(v)
				item.Reviews = append(item.Reviews, models.ImportItemReview{Rating: &r})
			}
		}
		result.Completed = append(result.Completed, models.ImportCompletedItem{Lot: models.EntityMetadata, Metadata: &item})
	}
	return result, nil
}

// goodreadsISBN strips the ="..." Excel-formula wrapper Goodreads wraps
// ISBN columns in.
func goodreadsISBN(s string) string {
	s = strings.TrimPrefix(s, "=")
	s = strings.Trim(s, `"`)
	return strings.TrimSpace(s)
}

func goodreadsShelf(shelf string) string {
	switch shelf {
	case "read":
		return "Completed"
	case "currently-reading":
		return "In Progress"
	case "to-read":
		return "Watchlist"
	default:
		return shelf
	}
}

var errEmptyISBN = errString("row has no isbn")
