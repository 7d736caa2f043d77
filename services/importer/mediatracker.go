package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"ryotgo/models"
)

// MediaTrackerAdapter pulls a user's library from a self-hosted
// MediaTracker instance's REST export endpoint. Like the Jellyfin
// adapter this is a hand-rolled client (no Go SDK for MediaTracker
// exists anywhere in the retrieved corpus): a single authenticated GET
// against /api/user/{id}/items, access-token based like MediaTracker's
// own API.
type MediaTrackerAdapter struct {
	httpc   *http.Client
	baseURL string
	token   string
}

func NewMediaTrackerAdapter(baseURL, token string) *MediaTrackerAdapter {
	return &MediaTrackerAdapter{httpc: &http.Client{}, baseURL: baseURL, token: token}
}

func (a *MediaTrackerAdapter) Source() models.ImportSource { return models.ImportMediaTracker }

type mediaTrackerItem struct {
	MediaType    string `json:"mediaType"` // "book", "tv", "movie", ...
	Title        string `json:"title"`
	ExternalIds  struct {
		GoodreadsID   string `json:"goodreadsId"`
		OpenlibraryID string `json:"openlibraryId"`
		TMDBID        int    `json:"tmdbId"`
	} `json:"externalIds"`
	UserRating float64 `json:"userRating"` // 1..5
	Seen       []struct {
		Date string `json:"date"`
	} `json:"seenHistory"`
}

func (a *MediaTrackerAdapter) Import(ctx context.Context) (models.ImportResult, error) {
	var result models.ImportResult

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/api/items", nil)
	if err != nil {
		return result, err
	}
	req.Header.Set("Access-Token", a.token)
	resp, err := a.httpc.Do(req)
	if err != nil {
		return result, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return result, fmt.Errorf("media tracker items request failed: %s", resp.Status)
	}
	var items []mediaTrackerItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return result, err
	}

	for _, it := range items {
		lot, ok := mediaTrackerLot(it.MediaType)
		if !ok {
			continue
		}
		var source models.MediaSource
		var identifier string
		switch {
		case lot == models.LotBook && it.ExternalIds.GoodreadsID != "":
			appendFailure(&result, it.Title, entityLot(models.EntityMetadata), models.StepInputTransformation, errString("media tracker book identified only by goodreads_id is unsupported"))
			continue
		case lot == models.LotBook && it.ExternalIds.OpenlibraryID != "":
			source = models.SourceOpenlibrary
			identifier = strings.TrimPrefix(it.ExternalIds.OpenlibraryID, "/works/")
		case it.ExternalIds.TMDBID != 0:
			source = models.SourceTMDB
			identifier = strconv.Itoa(it.ExternalIds.TMDBID)
		default:
			appendFailure(&result, it.Title, entityLot(models.EntityMetadata), models.StepInputTransformation, errString("media tracker item has no resolvable external id"))
			continue
		}

		item := models.ImportOrExportMetadataItem{Lot: lot, Source: source, Identifier: identifier}
		for _, seen := range it.Seen {
			if finished := parseCSVDate(seen.Date); finished != nil {
				item.Seen = append(item.Seen, models.ImportItemSeen{Progress: 100, FinishedOn: finished})
			}
		}
		if it.UserRating > 0 {
			r := ratingOutOfFive(it.UserRating)
			item.Reviews = append(item.Reviews, models.ImportItemReview{Rating: &r})
		}
		result.Completed = append(result.Completed, models.ImportCompletedItem{Lot: models.EntityMetadata, Metadata: &item})
	}
	return result, nil
}

func mediaTrackerLot(mediaType string) (models.MediaLot, bool) {
	switch mediaType {
	case "book":
		return models.LotBook, true
	case "movie":
		return models.LotMovie, true
	case "tv":
		return models.LotShow, true
	default:
		return "", false
	}
}
