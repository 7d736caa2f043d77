package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"ryotgo/models"
	"ryotgo/services/providers"
)

// AudiobookshelfAdapter pulls a user's library items from a self-hosted
// Audiobookshelf server (hand-rolled REST client, matching the same
// no-SDK-available pattern as the Jellyfin and MediaTracker adapters).
// Per the spec's note: books resolve via ISBN, audiobooks via ASIN
// (through the Audible provider's catalog search), and podcasts
// traverse episodes, importing only the ones the server already marked
// finished, matched to an iTunes episode by title.
type AudiobookshelfAdapter struct {
	httpc    *http.Client
	baseURL  string
	apiKey   string
	resolver *isbnResolver
	audible  *providers.AudibleAdapter
	itunes   *providers.ITunesAdapter
}

func NewAudiobookshelfAdapter(baseURL, apiKey string, resolver *isbnResolver, audible *providers.AudibleAdapter, itunes *providers.ITunesAdapter) *AudiobookshelfAdapter {
	return &AudiobookshelfAdapter{httpc: &http.Client{}, baseURL: baseURL, apiKey: apiKey, resolver: resolver, audible: audible, itunes: itunes}
}

func (a *AudiobookshelfAdapter) Source() models.ImportSource { return models.ImportAudiobookshelf }

type absMediaMetadata struct {
	Title string `json:"title"`
	ISBN  string `json:"isbn"`
	ASIN  string `json:"asin"`
	ItunesID int  `json:"itunesId"`
}

type absLibraryItem struct {
	ID    string `json:"id"`
	Media struct {
		MediaType string           `json:"mediaType"` // "book" or "podcast"
		Metadata  absMediaMetadata `json:"metadata"`
		Episodes  []struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"episodes"`
	} `json:"media"`
	UserMediaProgress *struct {
		Progress   float64 `json:"progress"`
		IsFinished bool    `json:"isFinished"`
		EpisodeID  string  `json:"episodeId"`
	} `json:"userMediaProgress"`
}

func (a *AudiobookshelfAdapter) Import(ctx context.Context) (models.ImportResult, error) {
	var result models.ImportResult

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/api/me/items-in-progress", nil)
	if err != nil {
		return result, err
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	resp, err := a.httpc.Do(req)
	if err != nil {
		return result, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return result, fmt.Errorf("audiobookshelf items request failed: %s", resp.Status)
	}
	var parsed struct {
		LibraryItems []absLibraryItem `json:"libraryItems"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return result, err
	}

	for _, li := range parsed.LibraryItems {
		switch li.Media.MediaType {
		case "podcast":
			a.importPodcast(ctx, &result, li)
		default:
			a.importBook(ctx, &result, li)
		}
	}
	return result, nil
}

func (a *AudiobookshelfAdapter) importBook(ctx context.Context, result *models.ImportResult, li absLibraryItem) {
	meta := li.Media.Metadata
	var source models.MediaSource
	var identifier string
	var lot models.MediaLot
	switch {
	case meta.ASIN != "":
		if res, err := a.audible.SearchMetadata(ctx, meta.ASIN, 1, false); err == nil && len(res.Items) > 0 {
			source, identifier, lot = models.SourceAudible, res.Items[0].Identifier, models.LotAudioBook
		}
	case meta.ISBN != "":
		if s, id, err := a.resolver.resolve(ctx, meta.ISBN); err == nil {
			source, identifier, lot = s, id, models.LotBook
		}
	}
	if identifier == "" {
		appendFailure(result, meta.Title, entityLot(models.EntityMetadata), models.StepMediaDetailsFromProvider, errString("audiobookshelf item has no resolvable isbn/asin"))
		return
	}
	item := models.ImportOrExportMetadataItem{Lot: lot, Source: source, Identifier: identifier}
	if li.UserMediaProgress != nil {
		seen := models.ImportItemSeen{Progress: li.UserMediaProgress.Progress * 100}
		if li.UserMediaProgress.IsFinished {
			seen.Progress = 100
		}
		item.Seen = append(item.Seen, seen)
	}
	result.Completed = append(result.Completed, models.ImportCompletedItem{Lot: models.EntityMetadata, Metadata: &item})
}

func (a *AudiobookshelfAdapter) importPodcast(ctx context.Context, result *models.ImportResult, li absLibraryItem) {
	meta := li.Media.Metadata
	if meta.ItunesID == 0 {
		appendFailure(result, meta.Title, entityLot(models.EntityMetadata), models.StepMediaDetailsFromProvider, errString("audiobookshelf podcast has no itunes id"))
		return
	}
	details, err := a.itunes.MetadataDetails(ctx, strconv.Itoa(meta.ItunesID))
	if err != nil || details.Specifics.Podcast == nil {
		appendFailure(result, meta.Title, entityLot(models.EntityMetadata), models.StepMediaDetailsFromProvider, errString("audiobookshelf podcast could not be matched on itunes"))
		return
	}
	episodeNumberByTitle := map[string]int{}
	for _, ep := range details.Specifics.Podcast.Episodes {
		episodeNumberByTitle[ep.Title] = ep.EpisodeNumber
	}

	if li.UserMediaProgress == nil || !li.UserMediaProgress.IsFinished {
		return
	}
	for _, ep := range li.Media.Episodes {
		if ep.ID != li.UserMediaProgress.EpisodeID {
			continue
		}
		number, ok := episodeNumberByTitle[ep.Title]
		if !ok {
			appendFailure(result, ep.Title, entityLot(models.EntityMetadata), models.StepMediaDetailsFromProvider, errString("audiobookshelf episode has no itunes title match"))
			continue
		}
		item := models.ImportOrExportMetadataItem{
			Lot: models.LotPodcast, Source: models.SourceITunes, Identifier: details.Partial.Identifier,
			Seen: []models.ImportItemSeen{{Progress: 100, PodcastExtra: &models.SeenPodcastExtra{EpisodeNumber: number}}},
		}
		result.Completed = append(result.Completed, models.ImportCompletedItem{Lot: models.EntityMetadata, Metadata: &item})
	}
}
