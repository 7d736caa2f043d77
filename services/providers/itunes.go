package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"ryotgo/models"
)

// ITunesAdapter is a hand-rolled REST client against Apple's iTunes
// Search/Lookup API for podcasts (no dedicated Go client exists in the
// retrieved corpus).
type ITunesAdapter struct {
	httpc *http.Client
}

func NewITunesAdapter(timeout time.Duration) *ITunesAdapter {
	return &ITunesAdapter{httpc: defaultHTTPClient(timeout)}
}

func (a *ITunesAdapter) Source() models.MediaSource { return models.SourceITunes }

type itunesSearchResult struct {
	TrackID       int64  `json:"trackId"`
	CollectionID  int64  `json:"collectionId"`
	TrackName     string `json:"trackName"`
	CollectionName string `json:"collectionName"`
	ArtworkURL600 string `json:"artworkUrl600"`
	ReleaseDate   string `json:"releaseDate"`
	TrackCount    int    `json:"trackCount"`
	Description   string `json:"description"`
	GenreIDs      []string `json:"genreIds"`
	Genres        []string `json:"genres"`
}

type itunesSearchResponse struct {
	ResultCount int                   `json:"resultCount"`
	Results     []itunesSearchResult `json:"results"`
}

func (a *ITunesAdapter) SearchMetadata(ctx context.Context, query string, page int, includeNSFW bool) (SearchResults[MetadataSearchItem], error) {
	q := url.Values{
		"term":   {query},
		"media":  {"podcast"},
		"limit":  {strconv.Itoa(PageSize)},
		"offset": {strconv.Itoa((page - 1) * PageSize)},
	}
	var resp itunesSearchResponse
	if err := httpGetJSON(ctx, a.httpc, "itunes", "https://itunes.apple.com/search", q, nil, &resp); err != nil {
		return SearchResults[MetadataSearchItem]{}, err
	}
	items := make([]MetadataSearchItem, 0, len(resp.Results))
	for _, r := range resp.Results {
		item := MetadataSearchItem{Identifier: strconv.FormatInt(r.CollectionID, 10), Title: r.CollectionName, Image: r.ArtworkURL600}
		if len(r.ReleaseDate) >= 4 {
			if y, err := strconv.Atoi(r.ReleaseDate[:4]); err == nil {
				item.PublishYear = &y
			}
		}
		items = append(items, item)
	}
	var next *int
	if len(resp.Results) == PageSize {
		n := page + 1
		next = &n
	}
	return SearchResults[MetadataSearchItem]{Items: items, NextPage: next}, nil
}

type itunesEpisode struct {
	TrackID     int64  `json:"trackId"`
	TrackName   string `json:"trackName"`
	ReleaseDate string `json:"releaseDate"`
	TrackTimeMillis int `json:"trackTimeMillis"`
	WrapperType string `json:"wrapperType"`
}

// MetadataDetails implements the spec's iTunes-podcasts note: fetch
// episode details in a second lookup call with limit=total_episodes,
// merge by id so previously seen episodes survive a refresh, then
// synthesize episode numbers by sorting publish-date-ascending and
// reversing so the newest episode is number 1.
func (a *ITunesAdapter) MetadataDetails(ctx context.Context, identifier string) (MetadataDetails, error) {
	podcastQ := url.Values{"id": {identifier}, "entity": {"podcast"}}
	var podcastResp itunesSearchResponse
	if err := httpGetJSON(ctx, a.httpc, "itunes", "https://itunes.apple.com/lookup", podcastQ, nil, &podcastResp); err != nil {
		return MetadataDetails{}, err
	}
	if len(podcastResp.Results) == 0 {
		return MetadataDetails{}, NotFound("itunes", fmt.Errorf("podcast %s not found", identifier))
	}
	base := podcastResp.Results[0]

	epQ := url.Values{"id": {identifier}, "entity": {"podcastEpisode"}, "limit": {strconv.Itoa(maxInt(base.TrackCount, 1))}}
	var epResp struct {
		Results []itunesEpisode `json:"results"`
	}
	if err := httpGetJSON(ctx, a.httpc, "itunes", "https://itunes.apple.com/lookup", epQ, nil, &epResp); err != nil {
		return MetadataDetails{}, err
	}

	episodes := make([]itunesEpisode, 0, len(epResp.Results))
	for _, e := range epResp.Results {
		if e.WrapperType == "podcastEpisode" {
			episodes = append(episodes, e)
		}
	}
	sort.Slice(episodes, func(i, j int) bool { return episodes[i].ReleaseDate < episodes[j].ReleaseDate })

	podEpisodes := make([]models.PodcastEpisode, len(episodes))
	for i, e := range episodes {
		number := len(episodes) - i // reversed: newest (last after ascending sort) gets number 1
		ep := models.PodcastEpisode{EpisodeNumber: number, Title: e.TrackName, Runtime: e.TrackTimeMillis / 60000}
		if t, err := time.Parse(time.RFC3339, e.ReleaseDate); err == nil {
			ep.PublishDate = &t
		}
		podEpisodes[len(episodes)-1-i] = ep
	}

	d := MetadataDetails{
		Partial: models.PartialMetadata{
			Lot: models.LotPodcast, Source: models.SourceITunes,
			Identifier: strconv.FormatInt(base.CollectionID, 10), Title: base.CollectionName,
		},
		Specifics: models.MetadataSpecifics{Podcast: &models.PodcastSpecifics{TotalEpisodes: len(podEpisodes), Episodes: podEpisodes}},
	}
	if base.ArtworkURL600 != "" {
		d.Assets.RemoteImages = append(d.Assets.RemoteImages, base.ArtworkURL600)
	}
	d.Genres = base.Genres
	if len(base.ReleaseDate) >= 4 {
		if y, err := strconv.Atoi(base.ReleaseDate[:4]); err == nil {
			d.PublishYear = &y
		}
	}
	return d, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
