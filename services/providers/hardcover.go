package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"ryotgo/models"
)

// HardcoverAdapter is a hand-rolled GraphQL-over-HTTP POST client (no
// dedicated Go client exists in the retrieved corpus), shaped like the
// Anilist adapter in this package.
type HardcoverAdapter struct {
	httpc  *http.Client
	apiKey string
}

func NewHardcoverAdapter(apiKey string, timeout time.Duration) *HardcoverAdapter {
	return &HardcoverAdapter{httpc: defaultHTTPClient(timeout), apiKey: apiKey}
}

func (a *HardcoverAdapter) Source() models.MediaSource { return models.SourceHardcover }

const hardcoverSearchQuery = `
query ($query: String!, $page: Int!) {
  search(query: $query, query_type: "books", page: $page, per_page: 20) {
    results
  }
}`

const hardcoverBookQuery = `
query ($id: Int!) {
  books(where: {id: {_eq: $id}}) {
    id
    title
    description
    release_year
    image { url }
    cached_tags
  }
}`

type hardcoverBook struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ReleaseYear int    `json:"release_year"`
	Image       struct {
		URL string `json:"url"`
	} `json:"image"`
}

func (a *HardcoverAdapter) post(ctx context.Context, query string, variables map[string]any, v any) error {
	body, err := json.Marshal(map[string]any{"query": query, "variables": variables})
	if err != nil {
		return Unavailable("hardcover", err)
	}
	headers := map[string]string{"Authorization": "Bearer " + a.apiKey}
	return httpPostJSON(ctx, a.httpc, "hardcover", "https://api.hardcover.app/v1/graphql", headers, body, v)
}

func (a *HardcoverAdapter) SearchMetadata(ctx context.Context, query string, page int, includeNSFW bool) (SearchResults[MetadataSearchItem], error) {
	var resp struct {
		Data struct {
			Search struct {
				Results struct {
					Hits []struct {
						Document hardcoverBook `json:"document"`
					} `json:"hits"`
				} `json:"results"`
			} `json:"search"`
		} `json:"data"`
	}
	if err := a.post(ctx, hardcoverSearchQuery, map[string]any{"query": query, "page": page}, &resp); err != nil {
		return SearchResults[MetadataSearchItem]{}, err
	}
	items := make([]MetadataSearchItem, 0, len(resp.Data.Search.Results.Hits))
	for _, h := range resp.Data.Search.Results.Hits {
		b := h.Document
		item := MetadataSearchItem{Identifier: strconv.Itoa(b.ID), Title: b.Title, Image: b.Image.URL}
		if b.ReleaseYear > 0 {
			y := b.ReleaseYear
			item.PublishYear = &y
		}
		items = append(items, item)
	}
	var next *int
	if len(items) == PageSize {
		n := page + 1
		next = &n
	}
	return SearchResults[MetadataSearchItem]{Items: items, NextPage: next}, nil
}

func (a *HardcoverAdapter) MetadataDetails(ctx context.Context, identifier string) (MetadataDetails, error) {
	id, err := strconv.Atoi(identifier)
	if err != nil {
		return MetadataDetails{}, NotFound("hardcover", err)
	}
	var resp struct {
		Data struct {
			Books []hardcoverBook `json:"books"`
		} `json:"data"`
	}
	if err := a.post(ctx, hardcoverBookQuery, map[string]any{"id": id}, &resp); err != nil {
		return MetadataDetails{}, err
	}
	if len(resp.Data.Books) == 0 {
		return MetadataDetails{}, NotFound("hardcover", fmt.Errorf("book %d not found", id))
	}
	b := resp.Data.Books[0]

	d := MetadataDetails{
		Partial: models.PartialMetadata{
			Lot: models.LotBook, Source: models.SourceHardcover,
			Identifier: strconv.Itoa(b.ID), Title: b.Title,
		},
		Description: b.Description,
	}
	if b.ReleaseYear > 0 {
		y := b.ReleaseYear
		d.PublishYear = &y
	}
	if b.Image.URL != "" {
		d.Assets.RemoteImages = append(d.Assets.RemoteImages, b.Image.URL)
	}
	return d, nil
}
