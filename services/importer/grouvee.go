package importer

import (
	"context"
	"io"
	"regexp"

	"ryotgo/models"
)

// GrouveeAdapter parses a Grouvee library export CSV. Rows without a
// resolvable Giant Bomb id are unsupported (Grouvee's own catalog ids
// don't cross-reference any provider this system knows), matching the
// spec's note that giantbomb_id is required.
type GrouveeAdapter struct {
	r io.Reader
}

func NewGrouveeAdapter(r io.Reader) *GrouveeAdapter {
	return &GrouveeAdapter{r: r}
}

func (a *GrouveeAdapter) Source() models.ImportSource { return models.ImportGrouvee }

var grouveeGiantBombURLRe = regexp.MustCompile(`/games/3030-(\d+)`)

func (a *GrouveeAdapter) Import(ctx context.Context) (models.ImportResult, error) {
	var result models.ImportResult
	rows, err := readCSVRows(a.r)
	if err != nil {
		return result, err
	}
	for _, row := range rows {
		title := row["Game"]
		giantBombID := row["giantbomb_id"]
		if giantBombID == "" {
			if m := grouveeGiantBombURLRe.FindStringSubmatch(row["Giant Bomb URL"]); m != nil {
				giantBombID = m[1]
			}
		}
		if giantBombID == "" {
			appendFailure(&result, title, entityLot(models.EntityMetadata), models.StepInputTransformation, errString("grouvee row has no giantbomb_id"))
			continue
		}
		item := models.ImportOrExportMetadataItem{
			Lot: models.LotVideoGame, Source: models.SourceIGDB, Identifier: "3030-" + giantBombID,
			Collections: []string{grouveeShelf(row["Shelf"])},
		}
		result.Completed = append(result.Completed, models.ImportCompletedItem{Lot: models.EntityMetadata, Metadata: &item})
	}
	return result, nil
}

func grouveeShelf(shelf string) string {
	switch shelf {
	case "Played":
		return "Completed"
	case "Playing":
		return "In Progress"
	case "Wish List":
		return "Watchlist"
	default:
		return shelf
	}
}
