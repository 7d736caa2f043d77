package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"ryotgo/models"
)

const anilistEndpoint = "https://graphql.anilist.co"

// AnilistAdapter is a hand-rolled GraphQL-over-HTTP POST client, shaped
// like other_examples' Ithilias-anilistgo and Wraient-pair's tracker
// client: one constant query per operation, sent as a POST body with
// `query`/`variables`, no dedicated SDK in the retrieved corpus.
type AnilistAdapter struct {
	httpc *http.Client
	lot   models.MediaLot // LotAnime or LotManga; Anilist serves both through one schema
}

func NewAnilistAdapter(lot models.MediaLot, timeout time.Duration) *AnilistAdapter {
	return &AnilistAdapter{httpc: defaultHTTPClient(timeout), lot: lot}
}

func (a *AnilistAdapter) Source() models.MediaSource { return models.SourceAnilist }

func (a *AnilistAdapter) mediaType() string {
	if a.lot == models.LotManga {
		return "MANGA"
	}
	return "ANIME"
}

type anilistTitle struct {
	Romaji  string `json:"romaji"`
	English string `json:"english"`
	Native  string `json:"native"`
}

func (t anilistTitle) preferred() string {
	if t.English != "" {
		return t.English
	}
	if t.Romaji != "" {
		return t.Romaji
	}
	return t.Native
}

type anilistMedia struct {
	ID           int          `json:"id"`
	Title        anilistTitle `json:"title"`
	Description  string       `json:"description"`
	AverageScore int          `json:"averageScore"`
	Episodes     *int         `json:"episodes"`
	Chapters     *int         `json:"chapters"`
	Volumes      *int         `json:"volumes"`
	Status       string       `json:"status"`
	StartDate    struct {
		Year int `json:"year"`
	} `json:"startDate"`
	CoverImage struct {
		ExtraLarge string `json:"extraLarge"`
	} `json:"coverImage"`
	Genres []string `json:"genres"`
}

const anilistSearchQuery = `
query ($search: String, $type: MediaType, $page: Int, $perPage: Int) {
  Page(page: $page, perPage: $perPage) {
    pageInfo { hasNextPage }
    media(search: $search, type: $type) {
      id
      title { romaji english native }
      averageScore
      episodes
      chapters
      volumes
      startDate { year }
      coverImage { extraLarge }
    }
  }
}`

const anilistDetailsQuery = `
query ($id: Int) {
  Media(id: $id) {
    id
    title { romaji english native }
    description(asHtml: false)
    averageScore
    episodes
    chapters
    volumes
    status
    startDate { year }
    coverImage { extraLarge }
    genres
  }
}`

func (a *AnilistAdapter) post(ctx context.Context, query string, variables map[string]any, v any) error {
	body, err := json.Marshal(map[string]any{"query": query, "variables": variables})
	if err != nil {
		return Unavailable("anilist", err)
	}
	return httpPostJSON(ctx, a.httpc, "anilist", anilistEndpoint, nil, body, v)
}

func (a *AnilistAdapter) SearchMetadata(ctx context.Context, query string, page int, includeNSFW bool) (SearchResults[MetadataSearchItem], error) {
	var resp struct {
		Data struct {
			Page struct {
				PageInfo struct {
					HasNextPage bool `json:"hasNextPage"`
				} `json:"pageInfo"`
				Media []anilistMedia `json:"media"`
			} `json:"Page"`
		} `json:"data"`
	}
	vars := map[string]any{"search": query, "type": a.mediaType(), "page": page, "perPage": PageSize}
	if err := a.post(ctx, anilistSearchQuery, vars, &resp); err != nil {
		return SearchResults[MetadataSearchItem]{}, err
	}
	items := make([]MetadataSearchItem, 0, len(resp.Data.Page.Media))
	for _, m := range resp.Data.Page.Media {
		item := MetadataSearchItem{Identifier: strconv.Itoa(m.ID), Title: m.Title.preferred(), Image: m.CoverImage.ExtraLarge}
		if m.StartDate.Year > 0 {
			y := m.StartDate.Year
			item.PublishYear = &y
		}
		items = append(items, item)
	}
	var next *int
	if resp.Data.Page.PageInfo.HasNextPage {
		n := page + 1
		next = &n
	}
	return SearchResults[MetadataSearchItem]{Items: items, NextPage: next}, nil
}

func (a *AnilistAdapter) MetadataDetails(ctx context.Context, identifier string) (MetadataDetails, error) {
	id, err := strconv.Atoi(identifier)
	if err != nil {
		return MetadataDetails{}, NotFound("anilist", err)
	}
	var resp struct {
		Data struct {
			Media *anilistMedia `json:"Media"`
		} `json:"data"`
	}
	if err := a.post(ctx, anilistDetailsQuery, map[string]any{"id": id}, &resp); err != nil {
		return MetadataDetails{}, err
	}
	if resp.Data.Media == nil {
		return MetadataDetails{}, NotFound("anilist", fmt.Errorf("media %d not found", id))
	}
	m := *resp.Data.Media

	d := MetadataDetails{
		Partial: models.PartialMetadata{
			Lot: a.lot, Source: models.SourceAnilist,
			Identifier: strconv.Itoa(m.ID), Title: m.Title.preferred(),
		},
		Description:    m.Description,
		ProviderRating: decimal.NewFromInt(int64(m.AverageScore)).String(),
		Genres:         m.Genres,
	}
	if m.StartDate.Year > 0 {
		y := m.StartDate.Year
		d.PublishYear = &y
	}
	if m.CoverImage.ExtraLarge != "" {
		d.Assets.RemoteImages = append(d.Assets.RemoteImages, m.CoverImage.ExtraLarge)
	}
	switch m.Status {
	case "RELEASING":
		d.ProductionStatus = models.ProductionOngoing
	case "FINISHED":
		d.ProductionStatus = models.ProductionReleased
	case "NOT_YET_RELEASED":
		d.ProductionStatus = models.ProductionUpcoming
	case "CANCELLED":
		d.ProductionStatus = models.ProductionCancelled
	}

	if a.lot == models.LotAnime && m.Episodes != nil {
		d.Specifics.Anime = &models.AnimeSpecifics{Episodes: *m.Episodes}
	}
	if a.lot == models.LotManga {
		manga := &models.MangaSpecifics{}
		if m.Chapters != nil {
			manga.Chapters = decimal.NewFromInt(int64(*m.Chapters))
		}
		if m.Volumes != nil {
			manga.Volumes = *m.Volumes
		}
		d.Specifics.Manga = manga
	}
	return d, nil
}

