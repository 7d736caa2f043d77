package providers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"ryotgo/models"
)

// GoogleBooksAdapter is a hand-rolled REST client against the Google
// Books volumes API (no dedicated Go client exists in the retrieved
// corpus).
type GoogleBooksAdapter struct {
	httpc  *http.Client
	apiKey string
}

func NewGoogleBooksAdapter(apiKey string, timeout time.Duration) *GoogleBooksAdapter {
	return &GoogleBooksAdapter{httpc: defaultHTTPClient(timeout), apiKey: apiKey}
}

func (a *GoogleBooksAdapter) Source() models.MediaSource { return models.SourceGoogleBooks }

type gbVolume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title         string   `json:"title"`
		Description   string   `json:"description"`
		PublishedDate string   `json:"publishedDate"`
		PageCount     int      `json:"pageCount"`
		Categories    []string `json:"categories"`
		ImageLinks    struct {
			Thumbnail string `json:"thumbnail"`
		} `json:"imageLinks"`
		AverageRating float64 `json:"averageRating"`
	} `json:"volumeInfo"`
}

type gbSearchResponse struct {
	TotalItems int        `json:"totalItems"`
	Items      []gbVolume `json:"items"`
}

func (a *GoogleBooksAdapter) SearchMetadata(ctx context.Context, query string, page int, includeNSFW bool) (SearchResults[MetadataSearchItem], error) {
	q := url.Values{"q": {query}, "maxResults": {strconv.Itoa(PageSize)}, "startIndex": {strconv.Itoa((page - 1) * PageSize)}}
	if a.apiKey != "" {
		q.Set("key", a.apiKey)
	}
	var resp gbSearchResponse
	if err := httpGetJSON(ctx, a.httpc, "google_books", "https://www.googleapis.com/books/v1/volumes", q, nil, &resp); err != nil {
		return SearchResults[MetadataSearchItem]{}, err
	}
	items := make([]MetadataSearchItem, 0, len(resp.Items))
	for _, v := range resp.Items {
		item := MetadataSearchItem{Identifier: v.ID, Title: v.VolumeInfo.Title, Image: v.VolumeInfo.ImageLinks.Thumbnail}
		if len(v.VolumeInfo.PublishedDate) >= 4 {
			if y, err := strconv.Atoi(v.VolumeInfo.PublishedDate[:4]); err == nil {
				item.PublishYear = &y
			}
		}
		items = append(items, item)
	}
	var next *int
	if (page-1)*PageSize+len(resp.Items) < resp.TotalItems {
		n := page + 1
		next = &n
	}
	return SearchResults[MetadataSearchItem]{Items: items, NextPage: next}, nil
}

func (a *GoogleBooksAdapter) MetadataDetails(ctx context.Context, identifier string) (MetadataDetails, error) {
	q := url.Values{}
	if a.apiKey != "" {
		q.Set("key", a.apiKey)
	}
	var v gbVolume
	endpoint := "https://www.googleapis.com/books/v1/volumes/" + identifier
	if err := httpGetJSON(ctx, a.httpc, "google_books", endpoint, q, nil, &v); err != nil {
		return MetadataDetails{}, err
	}

	d := MetadataDetails{
		Partial: models.PartialMetadata{
			Lot: models.LotBook, Source: models.SourceGoogleBooks,
			Identifier: v.ID, Title: v.VolumeInfo.Title,
		},
		Description:    v.VolumeInfo.Description,
		ProviderRating: strconv.FormatFloat(v.VolumeInfo.AverageRating*20, 'f', 4, 64),
		Genres:         v.VolumeInfo.Categories,
		Specifics:      models.MetadataSpecifics{Book: &models.BookSpecifics{Pages: v.VolumeInfo.PageCount}},
	}
	if v.VolumeInfo.ImageLinks.Thumbnail != "" {
		d.Assets.RemoteImages = append(d.Assets.RemoteImages, v.VolumeInfo.ImageLinks.Thumbnail)
	}
	if len(v.VolumeInfo.PublishedDate) >= 4 {
		if y, err := strconv.Atoi(v.VolumeInfo.PublishedDate[:4]); err == nil {
			d.PublishYear = &y
		}
	}
	return d, nil
}
