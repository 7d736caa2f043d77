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

// VNDBAdapter is a hand-rolled client against VNDB's Kana API, which
// (uniquely among this package's providers) uses a POST-body query
// language rather than query-string filters. No dedicated Go client
// exists in the retrieved corpus.
type VNDBAdapter struct {
	httpc *http.Client
}

func NewVNDBAdapter(timeout time.Duration) *VNDBAdapter {
	return &VNDBAdapter{httpc: defaultHTTPClient(timeout)}
}

func (a *VNDBAdapter) Source() models.MediaSource { return models.SourceVNDB }

type vndbQuery struct {
	Filters interface{} `json:"filters"`
	Fields  string      `json:"fields"`
	Results int         `json:"results"`
	Page    int         `json:"page"`
}

type vndbVN struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Released      string  `json:"released"`
	Rating        float64 `json:"rating"`
	LengthMinutes int     `json:"length_minutes"`
	Devstatus     int     `json:"devstatus"`
	Image         struct {
		URL string `json:"url"`
	} `json:"image"`
	Tags []struct {
		Name string `json:"name"`
	} `json:"tags"`
}

type vndbResponse struct {
	Results []vndbVN `json:"results"`
	More    bool     `json:"more"`
}

func (a *VNDBAdapter) post(ctx context.Context, endpoint string, q vndbQuery, v any) error {
	body, err := json.Marshal(q)
	if err != nil {
		return Unavailable("vndb", err)
	}
	return httpPostJSON(ctx, a.httpc, "vndb", "https://api.vndb.org/kana/"+endpoint, nil, body, v)
}

func (a *VNDBAdapter) SearchMetadata(ctx context.Context, query string, page int, includeNSFW bool) (SearchResults[MetadataSearchItem], error) {
	var resp vndbResponse
	q := vndbQuery{
		Filters: []interface{}{"search", "=", query},
		Fields:  "title,image.url,released",
		Results: PageSize,
		Page:    page,
	}
	if err := a.post(ctx, "vn", q, &resp); err != nil {
		return SearchResults[MetadataSearchItem]{}, err
	}
	items := make([]MetadataSearchItem, 0, len(resp.Results))
	for _, v := range resp.Results {
		item := MetadataSearchItem{Identifier: v.ID, Title: v.Title, Image: v.Image.URL}
		if len(v.Released) >= 4 {
			if y, err := strconv.Atoi(v.Released[:4]); err == nil {
				item.PublishYear = &y
			}
		}
		items = append(items, item)
	}
	var next *int
	if resp.More {
		n := page + 1
		next = &n
	}
	return SearchResults[MetadataSearchItem]{Items: items, NextPage: next}, nil
}

// MetadataDetails implements the spec's VNDB note: only length_minutes
// is captured as specifics, and devstatus maps 0/1/2 to
// Finished/In development/Cancelled.
func (a *VNDBAdapter) MetadataDetails(ctx context.Context, identifier string) (MetadataDetails, error) {
	var resp vndbResponse
	q := vndbQuery{
		Filters: []interface{}{"id", "=", identifier},
		Fields:  "title,description,image.url,released,rating,length_minutes,devstatus,tags.name",
		Results: 1,
	}
	if err := a.post(ctx, "vn", q, &resp); err != nil {
		return MetadataDetails{}, err
	}
	if len(resp.Results) == 0 {
		return MetadataDetails{}, NotFound("vndb", fmt.Errorf("vn %s not found", identifier))
	}
	v := resp.Results[0]

	d := MetadataDetails{
		Partial: models.PartialMetadata{
			Lot: models.LotVisualNovel, Source: models.SourceVNDB,
			Identifier: v.ID, Title: v.Title,
		},
		Description:    v.Description,
		ProviderRating: strconv.FormatFloat(v.Rating, 'f', 4, 64),
		Specifics:      models.MetadataSpecifics{VisualNovel: &models.VisualNovelSpecifics{LengthMinutes: v.LengthMinutes}},
	}
	if v.Image.URL != "" {
		d.Assets.RemoteImages = append(d.Assets.RemoteImages, v.Image.URL)
	}
	for _, t := range v.Tags {
		d.Genres = append(d.Genres, t.Name)
	}
	if len(v.Released) >= 4 {
		if y, err := strconv.Atoi(v.Released[:4]); err == nil {
			d.PublishYear = &y
		}
	}
	switch v.Devstatus {
	case 0:
		d.ProductionStatus = models.ProductionReleased
	case 1:
		d.ProductionStatus = models.ProductionOngoing
	case 2:
		d.ProductionStatus = models.ProductionCancelled
	}
	return d, nil
}
