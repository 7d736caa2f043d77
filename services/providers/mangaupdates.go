package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"ryotgo/models"
)

// MangaUpdatesAdapter is a hand-rolled REST client against the
// MangaUpdates v1 API (no dedicated Go client exists in the retrieved
// corpus). Search is POST (the API takes the query in the body rather
// than the query string); details are a plain GET.
type MangaUpdatesAdapter struct {
	httpc *http.Client
}

func NewMangaUpdatesAdapter(timeout time.Duration) *MangaUpdatesAdapter {
	return &MangaUpdatesAdapter{httpc: defaultHTTPClient(timeout)}
}

func (a *MangaUpdatesAdapter) Source() models.MediaSource { return models.SourceMangaUpdates }

type muSeriesStub struct {
	Record struct {
		SeriesID int64  `json:"series_id"`
		Title    string `json:"title"`
		Image    struct {
			URL struct {
				Original string `json:"original"`
			} `json:"url"`
		} `json:"image"`
		Year string `json:"year"`
	} `json:"record"`
}

type muSearchResponse struct {
	TotalHits int            `json:"total_hits"`
	Results   []muSeriesStub `json:"results"`
}

func (a *MangaUpdatesAdapter) SearchMetadata(ctx context.Context, query string, page int, includeNSFW bool) (SearchResults[MetadataSearchItem], error) {
	body, err := json.Marshal(map[string]any{"search": query, "page": page, "perpage": PageSize})
	if err != nil {
		return SearchResults[MetadataSearchItem]{}, Unavailable("manga_updates", err)
	}
	var resp muSearchResponse
	if err := httpPostJSON(ctx, a.httpc, "manga_updates", "https://api.mangaupdates.com/v1/series/search", nil, body, &resp); err != nil {
		return SearchResults[MetadataSearchItem]{}, err
	}
	items := make([]MetadataSearchItem, 0, len(resp.Results))
	for _, r := range resp.Results {
		item := MetadataSearchItem{
			Identifier: strconv.FormatInt(r.Record.SeriesID, 10),
			Title:      r.Record.Title,
			Image:      r.Record.Image.URL.Original,
		}
		if y, err := strconv.Atoi(r.Record.Year); err == nil && y > 0 {
			item.PublishYear = &y
		}
		items = append(items, item)
	}
	var next *int
	if (page-1)*PageSize+len(resp.Results) < resp.TotalHits {
		n := page + 1
		next = &n
	}
	return SearchResults[MetadataSearchItem]{Items: items, NextPage: next}, nil
}

type muSeriesDetails struct {
	SeriesID    int64  `json:"series_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Year        string `json:"year"`
	Image       struct {
		URL struct {
			Original string `json:"original"`
		} `json:"url"`
	} `json:"image"`
	Genres []struct {
		Genre string `json:"genre"`
	} `json:"genres"`
	LatestChapter int    `json:"latest_chapter"`
	Status        string `json:"status"`
	BayesianRating float64 `json:"bayesian_rating"`
}

func (a *MangaUpdatesAdapter) MetadataDetails(ctx context.Context, identifier string) (MetadataDetails, error) {
	var resp muSeriesDetails
	endpoint := "https://api.mangaupdates.com/v1/series/" + identifier
	if err := httpGetJSON(ctx, a.httpc, "manga_updates", endpoint, nil, nil, &resp); err != nil {
		return MetadataDetails{}, err
	}

	d := MetadataDetails{
		Partial: models.PartialMetadata{
			Lot: models.LotManga, Source: models.SourceMangaUpdates,
			Identifier: strconv.FormatInt(resp.SeriesID, 10), Title: resp.Title,
		},
		Description:    resp.Description,
		ProviderRating: strconv.FormatFloat(resp.BayesianRating, 'f', 4, 64),
		Specifics:      models.MetadataSpecifics{Manga: &models.MangaSpecifics{Chapters: decimal.NewFromInt(int64(resp.LatestChapter))}},
	}
	if resp.Image.URL.Original != "" {
		d.Assets.RemoteImages = append(d.Assets.RemoteImages, resp.Image.URL.Original)
	}
	for _, g := range resp.Genres {
		d.Genres = append(d.Genres, g.Genre)
	}
	if y, err := strconv.Atoi(resp.Year); err == nil && y > 0 {
		d.PublishYear = &y
	}
	switch resp.Status {
	case "Complete":
		d.ProductionStatus = models.ProductionReleased
	case "Ongoing":
		d.ProductionStatus = models.ProductionOngoing
	case "Cancelled", "Discontinued", "Hiatus":
		d.ProductionStatus = models.ProductionCancelled
	}
	return d, nil
}
