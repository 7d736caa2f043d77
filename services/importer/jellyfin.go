package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"ryotgo/models"
)

// JellyfinAdapter pulls a user's played items from a self-hosted
// Jellyfin server's REST API directly (GET /Users/{id}/Items), the same
// hand-rolled-client approach the provider adapters use for catalogs
// with no dedicated Go client available to ground against in this
// package's retrieved reference set.
type JellyfinAdapter struct {
	httpc     *http.Client
	baseURL   string
	apiKey    string
	userID    string
}

func NewJellyfinAdapter(baseURL, apiKey, userID string) *JellyfinAdapter {
	return &JellyfinAdapter{httpc: &http.Client{}, baseURL: baseURL, apiKey: apiKey, userID: userID}
}

func (a *JellyfinAdapter) Source() models.ImportSource { return models.ImportJellyfin }

type jellyfinItem struct {
	Name          string            `json:"Name"`
	Type          string            `json:"Type"` // "Movie" or "Series"
	ProviderIds   map[string]string `json:"ProviderIds"`
	UserData      struct {
		Played        bool    `json:"Played"`
		PlaybackTicks int64   `json:"PlaybackPositionTicks"`
		LastPlayedAt  *string `json:"LastPlayedDate"`
	} `json:"UserData"`
}

type jellyfinItemsResponse struct {
	Items []jellyfinItem `json:"Items"`
}

func (a *JellyfinAdapter) Import(ctx context.Context) (models.ImportResult, error) {
	var result models.ImportResult

	q := url.Values{
		"IncludeItemTypes": {"Movie,Series"},
		"Recursive":        {"true"},
		"Filters":          {"IsPlayed"},
		"Fields":           {"ProviderIds"},
	}
	reqURL := fmt.Sprintf("%s/Users/%s/Items?%s", a.baseURL, a.userID, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return result, err
	}
	req.Header.Set("X-Emby-Token", a.apiKey)

	resp, err := a.httpc.Do(req)
	if err != nil {
		return result, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return result, fmt.Errorf("jellyfin items request failed: %s", resp.Status)
	}

	var parsed jellyfinItemsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return result, err
	}

	for _, it := range parsed.Items {
		tmdbID := it.ProviderIds["Tmdb"]
		if tmdbID == "" {
			appendFailure(&result, it.Name, entityLot(models.EntityMetadata), models.StepMediaDetailsFromProvider, errString("jellyfin item has no tmdb provider id"))
			continue
		}
		lot := models.LotMovie
		if it.Type == "Series" {
			lot = models.LotShow
		}
		item := models.ImportOrExportMetadataItem{Lot: lot, Source: models.SourceTMDB, Identifier: tmdbID}
		if it.UserData.Played {
			item.Seen = append(item.Seen, models.ImportItemSeen{Progress: 100})
		}
		result.Completed = append(result.Completed, models.ImportCompletedItem{Lot: models.EntityMetadata, Metadata: &item})
	}
	return result, nil
}
