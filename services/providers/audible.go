package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ryotgo/models"
)

// AudibleAdapter is a hand-rolled REST client against Audible's
// undocumented catalog API (no dedicated Go client exists in the
// retrieved corpus), following the teacher's provider-client shape:
// one shared *http.Client, typed response structs.
type AudibleAdapter struct {
	httpc *http.Client
}

func NewAudibleAdapter(timeout time.Duration) *AudibleAdapter {
	return &AudibleAdapter{httpc: defaultHTTPClient(timeout)}
}

func (a *AudibleAdapter) Source() models.MediaSource { return models.SourceAudible }

type audibleProduct struct {
	ASIN        string `json:"asin"`
	Title       string `json:"title"`
	ProductImages struct {
		Size500 string `json:"500"`
	} `json:"product_images"`
	PublicationName string `json:"publication_name"`
	ReleaseDate     string `json:"release_date"`
	Summary         string `json:"merchandising_summary"`
	RuntimeMinutes  int    `json:"runtime_length_min"`
	Rating          struct {
		OverallDistribution struct {
			AverageRating float64 `json:"average_rating"`
		} `json:"overall_distribution"`
	} `json:"rating"`
	CategoryLadders []struct {
		Ladder []struct {
			Name string `json:"name"`
		} `json:"ladder"`
	} `json:"category_ladders"`
}

type audibleSearchResponse struct {
	Products []audibleProduct `json:"products"`
}

func (a *AudibleAdapter) SearchMetadata(ctx context.Context, query string, page int, includeNSFW bool) (SearchResults[MetadataSearchItem], error) {
	q := url.Values{
		"keywords":   {query},
		"num_results": {strconv.Itoa(PageSize)},
		"page":       {strconv.Itoa(page)},
		"response_groups": {"product_desc,media"},
	}
	var resp audibleSearchResponse
	if err := httpGetJSON(ctx, a.httpc, "audible", "https://api.audible.com/1.0/catalog/products", q, nil, &resp); err != nil {
		return SearchResults[MetadataSearchItem]{}, err
	}
	items := make([]MetadataSearchItem, 0, len(resp.Products))
	for _, p := range resp.Products {
		item := MetadataSearchItem{Identifier: p.ASIN, Title: p.Title, Image: p.ProductImages.Size500}
		if len(p.ReleaseDate) >= 4 {
			if y, err := strconv.Atoi(p.ReleaseDate[:4]); err == nil {
				item.PublishYear = &y
			}
		}
		items = append(items, item)
	}
	var next *int
	if len(resp.Products) == PageSize {
		n := page + 1
		next = &n
	}
	return SearchResults[MetadataSearchItem]{Items: items, NextPage: next}, nil
}

// audibleSimilarityTypes are the five relations the spec requires be
// queried and deduped into one suggestions list.
var audibleSimilarityTypes = []string{
	"InTheSameSeries", "ByTheSameNarrator", "RawSimilarities", "ByTheSameAuthor", "NextInSameSeries",
}

func (a *AudibleAdapter) MetadataDetails(ctx context.Context, identifier string) (MetadataDetails, error) {
	q := url.Values{"response_groups": {"product_desc,media,category_ladders,rating"}}
	var resp struct {
		Product audibleProduct `json:"product"`
	}
	endpoint := "https://api.audible.com/1.0/catalog/products/" + identifier
	if err := httpGetJSON(ctx, a.httpc, "audible", endpoint, q, nil, &resp); err != nil {
		return MetadataDetails{}, err
	}
	p := resp.Product

	d := MetadataDetails{
		Partial: models.PartialMetadata{
			Lot: models.LotAudioBook, Source: models.SourceAudible,
			Identifier: p.ASIN, Title: p.Title,
		},
		Description:    p.Summary,
		ProviderRating: strconv.FormatFloat(p.Rating.OverallDistribution.AverageRating*20, 'f', 4, 64),
		Specifics:      models.MetadataSpecifics{AudioBook: &models.AudioBookSpecifics{Runtime: p.RuntimeMinutes}},
	}
	if p.ProductImages.Size500 != "" {
		d.Assets.RemoteImages = append(d.Assets.RemoteImages, p.ProductImages.Size500)
	}
	if len(p.ReleaseDate) >= 4 {
		if y, err := strconv.Atoi(p.ReleaseDate[:4]); err == nil {
			d.PublishYear = &y
		}
	}
	for _, ladder := range p.CategoryLadders {
		for _, rung := range ladder.Ladder {
			for _, part := range strings.Split(rung.Name, " & ") {
				d.Genres = append(d.Genres, titleCase(strings.TrimSpace(part)))
			}
		}
	}

	seen := make(map[string]bool)
	for _, relType := range audibleSimilarityTypes {
		sq := url.Values{"response_groups": {"product_desc"}, "similarity_type": {relType}}
		var simResp audibleSearchResponse
		simEndpoint := fmt.Sprintf("https://api.audible.com/1.0/catalog/products/%s/sims", identifier)
		if err := httpGetJSON(ctx, a.httpc, "audible", simEndpoint, sq, nil, &simResp); err != nil {
			continue // a single similarity relation failing doesn't fail the whole details call
		}
		for _, s := range simResp.Products {
			if seen[s.ASIN] {
				continue
			}
			seen[s.ASIN] = true
			d.Suggestions = append(d.Suggestions, models.PartialMetadata{
				Lot: models.LotAudioBook, Source: models.SourceAudible, Identifier: s.ASIN, Title: s.Title, Image: s.ProductImages.Size500,
			})
		}
	}
	return d, nil
}
