package importer

import (
	"context"
	"io"

	"ryotgo/models"
)

// IGDBCSVAdapter parses a personal IGDB collection export CSV (distinct
// from the live IGDB provider adapter in services/providers, which
// serves catalog search/details rather than importing a user's list).
type IGDBCSVAdapter struct {
	r io.Reader
}

func NewIGDBCSVAdapter(r io.Reader) *IGDBCSVAdapter {
	return &IGDBCSVAdapter{r: r}
}

func (a *IGDBCSVAdapter) Source() models.ImportSource { return models.ImportIGDB }

func (a *IGDBCSVAdapter) Import(ctx context.Context) (models.ImportResult, error) {
	var result models.ImportResult
	rows, err := readCSVRows(a.r)
	if err != nil {
		return result, err
	}
	for _, row := range rows {
		id := row["igdb_id"]
		name := row["name"]
		if id == "" {
			appendFailure(&result, name, entityLot(models.EntityMetadata), models.StepInputTransformation, errString("igdb csv row has no igdb_id"))
			continue
		}
		item := models.ImportOrExportMetadataItem{Lot: models.LotVideoGame, Source: models.SourceIGDB, Identifier: id}
		if row["status"] != "" {
			item.Collections = append(item.Collections, igdbCSVStatus(row["status"]))
		}
		result.Completed = append(result.Completed, models.ImportCompletedItem{Lot: models.EntityMetadata, Metadata: &item})
	}
	return result, nil
}

func igdbCSVStatus(status string) string {
	switch status {
	case "completed":
		return "Completed"
	case "playing":
		return "In Progress"
	case "wishlist", "backlog":
		return "Watchlist"
	default:
		return status
	}
}
