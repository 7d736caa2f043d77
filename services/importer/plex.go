package importer

import (
	"context"

	"ryotgo/models"
	"ryotgo/services/plex"
)

// PlexAdapter pulls a user's Plex watchlist, resolving each item's TMDB
// id out of its GUID set (GetItemDetails parses the plex://, imdb://,
// tmdb://, tvdb:// guid forms Plex returns).
type PlexAdapter struct {
	client    *plex.Client
	authToken string
}

func NewPlexAdapter(clientID, authToken string) *PlexAdapter {
	return &PlexAdapter{client: plex.NewClient(clientID), authToken: authToken}
}

func (a *PlexAdapter) Source() models.ImportSource { return models.ImportPlex }

func (a *PlexAdapter) Import(ctx context.Context) (models.ImportResult, error) {
	var result models.ImportResult
	items, err := a.client.GetWatchlist(a.authToken)
	if err != nil {
		return result, err
	}
	for _, it := range items {
		ids, err := a.client.GetItemDetails(a.authToken, it.RatingKey)
		if err != nil || ids["tmdb"] == "" {
			appendFailure(&result, it.Title, entityLot(models.EntityMetadata), models.StepMediaDetailsFromProvider, errString("plex item has no resolvable tmdb id"))
			continue
		}
		lot := models.LotMovie
		if it.Type == "show" {
			lot = models.LotShow
		}
		result.Completed = append(result.Completed, models.ImportCompletedItem{
			Lot: models.EntityMetadata,
			Metadata: &models.ImportOrExportMetadataItem{
				Lot: lot, Source: models.SourceTMDB, Identifier: ids["tmdb"],
				Collections: []string{"Watchlist"},
			},
		})
	}
	return result, nil
}
