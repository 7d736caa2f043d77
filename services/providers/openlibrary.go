package providers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ryotgo/models"
)

// OpenlibraryAdapter is a hand-rolled REST client (no dedicated Go
// client exists in the retrieved corpus) requiring two calls per the
// spec's Openlibrary note for details.
type OpenlibraryAdapter struct {
	httpc *http.Client
}

func NewOpenlibraryAdapter(timeout time.Duration) *OpenlibraryAdapter {
	return &OpenlibraryAdapter{httpc: defaultHTTPClient(timeout)}
}

func (a *OpenlibraryAdapter) Source() models.MediaSource { return models.SourceOpenlibrary }

type olSearchDoc struct {
	Key            string `json:"key"`
	Title          string `json:"title"`
	CoverI         int    `json:"cover_i"`
	FirstPublishYear int  `json:"first_publish_year"`
}

type olSearchResponse struct {
	NumFound int           `json:"numFound"`
	Docs     []olSearchDoc `json:"docs"`
}

func (a *OpenlibraryAdapter) SearchMetadata(ctx context.Context, query string, page int, includeNSFW bool) (SearchResults[MetadataSearchItem], error) {
	q := url.Values{"q": {query}, "limit": {strconv.Itoa(PageSize)}, "offset": {strconv.Itoa((page - 1) * PageSize)}}
	var resp olSearchResponse
	if err := httpGetJSON(ctx, a.httpc, "openlibrary", "https://openlibrary.org/search.json", q, nil, &resp); err != nil {
		return SearchResults[MetadataSearchItem]{}, err
	}
	items := make([]MetadataSearchItem, 0, len(resp.Docs))
	for _, d := range resp.Docs {
		identifier := strings.TrimPrefix(d.Key, "/works/")
		item := MetadataSearchItem{Identifier: identifier, Title: d.Title}
		if d.CoverI > 0 {
			item.Image = "https://covers.openlibrary.org/b/id/" + strconv.Itoa(d.CoverI) + "-L.jpg"
		}
		if d.FirstPublishYear > 0 {
			y := d.FirstPublishYear
			item.PublishYear = &y
		}
		items = append(items, item)
	}
	var next *int
	if (page-1)*PageSize+len(resp.Docs) < resp.NumFound {
		n := page + 1
		next = &n
	}
	return SearchResults[MetadataSearchItem]{Items: items, NextPage: next}, nil
}

type olWork struct {
	Title       string `json:"title"`
	Description interface{} `json:"description"` // string or {value: string}
	Covers      []int  `json:"covers"`
	Subjects    []string `json:"subjects"`
}

func (w olWork) descriptionText() string {
	switch v := w.Description.(type) {
	case string:
		return v
	case map[string]interface{}:
		if s, ok := v["value"].(string); ok {
			return s
		}
	}
	return ""
}

type olEdition struct {
	PublishDate string `json:"publish_date"`
	NumberOfPages int  `json:"number_of_pages"`
}

type olEditionsResponse struct {
	Entries []olEdition `json:"entries"`
}

// MetadataDetails implements the spec's Openlibrary note: details
// require two calls (/works/{id} then /works/{id}/editions);
// publish_year is the minimum publish_date across editions, pages is
// the maximum across editions.
func (a *OpenlibraryAdapter) MetadataDetails(ctx context.Context, identifier string) (MetadataDetails, error) {
	var work olWork
	workEndpoint := "https://openlibrary.org/works/" + identifier + ".json"
	if err := httpGetJSON(ctx, a.httpc, "openlibrary", workEndpoint, nil, nil, &work); err != nil {
		return MetadataDetails{}, err
	}

	var editions olEditionsResponse
	editionsEndpoint := "https://openlibrary.org/works/" + identifier + "/editions.json"
	if err := httpGetJSON(ctx, a.httpc, "openlibrary", editionsEndpoint, nil, nil, &editions); err != nil {
		return MetadataDetails{}, err
	}

	minYear := 0
	maxPages := 0
	for _, e := range editions.Entries {
		if e.NumberOfPages > maxPages {
			maxPages = e.NumberOfPages
		}
		if len(e.PublishDate) < 4 {
			continue
		}
		y, err := parseTrailingYear(e.PublishDate)
		if err != nil || y == 0 {
			continue
		}
		if minYear == 0 || y < minYear {
			minYear = y
		}
	}

	d := MetadataDetails{
		Partial: models.PartialMetadata{
			Lot: models.LotBook, Source: models.SourceOpenlibrary,
			Identifier: identifier, Title: work.Title,
		},
		Description: work.descriptionText(),
		Specifics:   models.MetadataSpecifics{Book: &models.BookSpecifics{Pages: maxPages}},
		Genres:      work.Subjects,
	}
	if minYear > 0 {
		d.PublishYear = &minYear
	}
	if len(work.Covers) > 0 && work.Covers[0] > 0 {
		d.Assets.RemoteImages = append(d.Assets.RemoteImages, "https://covers.openlibrary.org/b/id/"+strconv.Itoa(work.Covers[0])+"-L.jpg")
	}
	return d, nil
}

// parseTrailingYear extracts the last 4-digit run in a free-text
// publish date ("March 2001", "2001-03-01", "2001") since editions
// don't share one date format.
func parseTrailingYear(s string) (int, error) {
	fields := strings.Fields(s)
	for i := len(fields) - 1; i >= 0; i-- {
		f := strings.Trim(fields[i], ",.")
		if len(f) >= 4 {
			if y, err := strconv.Atoi(f[:4]); err == nil && y > 1000 && y < 3000 {
				return y, nil
			}
		}
	}
	return 0, nil
}
