package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"ryotgo/models"
)

// AnilistAdapter pulls a user's anime and manga list via the same
// GraphQL-over-HTTP POST pattern as services/providers' AnilistAdapter
// (one query, sent as {query, variables}), using MediaListCollection
// instead of the catalog Media search the provider adapter exposes.
type AnilistAdapter struct {
	httpc    *http.Client
	username string
}

func NewAnilistAdapter(username string, timeout time.Duration) *AnilistAdapter {
	return &AnilistAdapter{httpc: &http.Client{Timeout: timeout}, username: username}
}

func (a *AnilistAdapter) Source() models.ImportSource { return models.ImportAnilist }

const anilistListQuery = `
query ($name: String, $type: MediaType) {
  MediaListCollection(userName: $name, type: $type) {
    lists {
      name
      entries {
        status
        score(format: POINT_100)
        progress
        startedAt { year month day }
        completedAt { year month day }
        media { id type idMal }
      }
    }
  }
}`

type anilistFuzzyDate struct {
	Year  *int `json:"year"`
	Month *int `json:"month"`
	Day   *int `json:"day"`
}

func (d anilistFuzzyDate) toTime() *time.Time {
	if d.Year == nil || *d.Year == 0 {
		return nil
	}
	month, day := 1, 1
	if d.Month != nil {
		month = *d.Month
	}
	if d.Day != nil {
		day = *d.Day
	}
	t := time.Date(*d.Year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return &t
}

type anilistListEntry struct {
	Status      string            `json:"status"`
	Score       float64           `json:"score"`
	Progress    int               `json:"progress"`
	StartedAt   anilistFuzzyDate  `json:"startedAt"`
	CompletedAt anilistFuzzyDate  `json:"completedAt"`
	Media       struct {
		ID    int    `json:"id"`
		Type  string `json:"type"`
		IDMal int    `json:"idMal"`
	} `json:"media"`
}

type anilistListResponse struct {
	Data struct {
		MediaListCollection struct {
			Lists []struct {
				Name    string             `json:"name"`
				Entries []anilistListEntry `json:"entries"`
			} `json:"lists"`
		} `json:"MediaListCollection"`
	} `json:"data"`
}

func (a *AnilistAdapter) Import(ctx context.Context) (models.ImportResult, error) {
	var result models.ImportResult
	for _, mediaType := range []string{"ANIME", "MANGA"} {
		lists, err := a.fetchList(ctx, mediaType)
		if err != nil {
			appendFailure(&result, a.username+":"+mediaType, entityLot(models.EntityMetadata), models.StepItemDetailsFromSource, err)
			continue
		}
		lot := models.LotAnime
		if mediaType == "MANGA" {
			lot = models.LotManga
		}
		for _, list := range lists.Data.MediaListCollection.Lists {
			for _, entry := range list.Entries {
				item := models.ImportOrExportMetadataItem{
					Lot: lot, Source: models.SourceAnilist, Identifier: strconv.Itoa(entry.Media.ID),
					Collections: []string{list.Name},
				}
				if entry.Progress > 0 || entry.CompletedAt.toTime() != nil {
					seen := models.ImportItemSeen{Progress: 100, StartedOn: entry.StartedAt.toTime(), FinishedOn: entry.CompletedAt.toTime()}
					if entry.Status != "COMPLETED" {
						seen.Progress = 0
						seen.FinishedOn = nil
					}
					item.Seen = append(item.Seen, seen)
				}
				if entry.Score > 0 {
					r := ratingOutOfTen(entry.Score / 10)
					item.Reviews = append(item.Reviews, models.ImportItemReview{Rating: &r})
				}
				result.Completed = append(result.Completed, models.ImportCompletedItem{Lot: models.EntityMetadata, Metadata: &item})
			}
		}
	}
	return result, nil
}

func (a *AnilistAdapter) fetchList(ctx context.Context, mediaType string) (*anilistListResponse, error) {
	body, err := json.Marshal(map[string]any{
		"query":     anilistListQuery,
		"variables": map[string]any{"name": a.username, "type": mediaType},
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://graphql.anilist.co", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("anilist list request failed: %s", resp.Status)
	}
	var parsed anilistListResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}
