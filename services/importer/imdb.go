package importer

import (
	"context"
	"io"
	"strconv"
	"strings"

	"ryotgo/models"
)

// IMDBAdapter parses an IMDB "ratings export" CSV (columns: Const, Your
// Rating, Date Rated, Title, Title Type, ...). Const is the tt-prefixed
// IMDB id, used directly as the identifier since the system's TMDB
// provider can't resolve by IMDB id without an extra lookup this
// adapter doesn't perform; IMDB ids are carried as SourceTMDB's sibling
// only when a details-resolution job attaches a tmdb id later.
type IMDBAdapter struct {
	r io.Reader
}

func NewIMDBAdapter(r io.Reader) *IMDBAdapter {
	return &IMDBAdapter{r: r}
}

func (a *IMDBAdapter) Source() models.ImportSource { return models.ImportIMDB }

func (a *IMDBAdapter) Import(ctx context.Context) (models.ImportResult, error) {
	var result models.ImportResult
	rows, err := readCSVRows(a.r)
	if err != nil {
		return result, err
	}
	for _, row := range rows {
		ttID := strings.TrimSpace(row["Const"])
		title := row["Title"]
		if ttID == "" {
			appendFailure(&result, title, entityLot(models.EntityMetadata), models.StepInputTransformation, errString("imdb row has no tt id"))
			continue
		}
		lot := models.LotMovie
		if row["Title Type"] == "tvSeries" || row["Title Type"] == "tvMiniSeries" {
			lot = models.LotShow
		}
		item := models.ImportOrExportMetadataItem{Lot: lot, Source: models.SourceTMDB, Identifier: ttID}
		if rating := row["Your Rating"]; rating != "" {
			if v, err := strconv.ParseFloat(rating, 64); err == nil {
				r := ratingOutOfTen(v)
				review := models.ImportItemReview{Rating: &r}
				if d := parseCSVDate(row["Date Rated"]); d != nil {
					review.PostedOn = *d
				}
				item.Reviews = append(item.Reviews, review)
			}
		}
		result.Completed = append(result.Completed, models.ImportCompletedItem{Lot: models.EntityMetadata, Metadata: &item})
	}
	return result, nil
}
