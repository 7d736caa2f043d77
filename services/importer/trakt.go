package importer

import (
	"context"
	"strconv"
	"strings"

	"ryotgo/models"
	"ryotgo/services/trakt"
)

// TraktAdapter pulls a user's lists, then watchlist, then favorites,
// using the same client the integration layer (C8) uses for live
// scrobbling (services/trakt.Client). List names are Title-Cased for
// use as collection names; ratings on Trakt's 1..10 scale are rescaled
// to the store's 0..100 by ratingOutOfTen (Trakt carries no per-item
// rating in the list/watchlist/favorites endpoints, so this applies
// only if a caller later attaches one via a separate ratings pull).
type TraktAdapter struct {
	client      *trakt.Client
	accessToken string
}

func NewTraktAdapter(clientID, clientSecret, accessToken string) *TraktAdapter {
	return &TraktAdapter{client: trakt.NewClient(clientID, clientSecret), accessToken: accessToken}
}

func (a *TraktAdapter) Source() models.ImportSource { return models.ImportTrakt }

func (a *TraktAdapter) Import(ctx context.Context) (models.ImportResult, error) {
	var result models.ImportResult

	lists, err := a.client.GetUserLists(a.accessToken)
	if err != nil {
		appendFailure(&result, "user_lists", nil, models.StepItemDetailsFromSource, err)
	} else {
		for _, list := range lists {
			listID := list.IDs.Slug
			if listID == "" {
				listID = strconv.Itoa(list.IDs.Trakt)
			}
			items, err := a.client.GetAllListItems(a.accessToken, listID)
			if err != nil {
				appendFailure(&result, list.Name, nil, models.StepItemDetailsFromSource, err)
				continue
			}
			collectionName := titleCaseWords(list.Name)
			for _, it := range items {
				a.appendMediaItem(&result, it.Type, it.Movie, it.Show, collectionName)
			}
		}
	}

	watchlist, err := a.client.GetAllWatchlist(a.accessToken)
	if err != nil {
		appendFailure(&result, "watchlist", nil, models.StepItemDetailsFromSource, err)
	} else {
		for _, it := range watchlist {
			a.appendMediaItem(&result, it.Type, it.Movie, it.Show, "Watchlist")
		}
	}

	favorites, err := a.client.GetAllFavorites(a.accessToken)
	if err != nil {
		appendFailure(&result, "favorites", nil, models.StepItemDetailsFromSource, err)
	} else {
		for _, it := range favorites {
			a.appendMediaItem(&result, it.Type, it.Movie, it.Show, "Favorites")
		}
	}

	return result, nil
}

func (a *TraktAdapter) appendMediaItem(result *models.ImportResult, kind string, movie *trakt.Movie, show *trakt.Show, collection string) {
	var lot models.MediaLot
	var ids trakt.IDs
	switch kind {
	case "movie":
		if movie == nil {
			return
		}
		lot, ids = models.LotMovie, movie.IDs
	case "show":
		if show == nil {
			return
		}
		lot, ids = models.LotShow, show.IDs
	default:
		return
	}
	if ids.TMDB == 0 {
		appendFailure(result, ids.Slug, entityLot(models.EntityMetadata), models.StepInputTransformation, errString("trakt item has no tmdb id"))
		return
	}
	result.Completed = append(result.Completed, models.ImportCompletedItem{
		Lot: models.EntityMetadata,
		Metadata: &models.ImportOrExportMetadataItem{
			Lot: lot, Source: models.SourceTMDB, Identifier: strconv.Itoa(ids.TMDB),
			Collections: []string{collection},
		},
	})
}

// titleCaseWords matches the spec's Trakt note: capitalize list names to
// Title Case for use as collection names.
func titleCaseWords(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
