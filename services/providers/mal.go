package providers

import (
	"context"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"ryotgo/models"
)

// MALAdapter is a hand-rolled REST client shaped like other_examples'
// varoOP-go-myanimelist (same Anime/Picture/Genre/RelatedAnime response
// shapes), scoped to MAL API v2's public read endpoints which only need
// the client ID header rather than the full OAuth2 PKCE flow that
// library uses for list-mutating calls.
type MALAdapter struct {
	httpc    *http.Client
	clientID string
	lot      models.MediaLot // LotAnime or LotManga
}

func NewMALAdapter(clientID string, lot models.MediaLot, timeout time.Duration) *MALAdapter {
	return &MALAdapter{httpc: defaultHTTPClient(timeout), clientID: clientID, lot: lot}
}

func (a *MALAdapter) Source() models.MediaSource { return models.SourceMAL }

func (a *MALAdapter) endpointNoun() string {
	if a.lot == models.LotManga {
		return "manga"
	}
	return "anime"
}

func (a *MALAdapter) headers() map[string]string {
	return map[string]string{"X-MAL-CLIENT-ID": a.clientID}
}

type malPicture struct {
	Large string `json:"large"`
}

type malGenre struct {
	Name string `json:"name"`
}

type malNode struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	MainPicture malPicture `json:"main_picture"`
}

type malSearchResult struct {
	Data []struct {
		Node malNode `json:"node"`
	} `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
}

func (a *MALAdapter) SearchMetadata(ctx context.Context, query string, page int, includeNSFW bool) (SearchResults[MetadataSearchItem], error) {
	q := url.Values{"q": {query}, "limit": {strconv.Itoa(PageSize)}, "offset": {strconv.Itoa((page - 1) * PageSize)}}
	if includeNSFW {
		q.Set("nsfw", "true")
	}
	var resp malSearchResult
	endpoint := "https://api.myanimelist.net/v2/" + a.endpointNoun()
	if err := httpGetJSON(ctx, a.httpc, "myanimelist", endpoint, q, a.headers(), &resp); err != nil {
		return SearchResults[MetadataSearchItem]{}, err
	}
	items := make([]MetadataSearchItem, 0, len(resp.Data))
	for _, d := range resp.Data {
		items = append(items, MetadataSearchItem{
			Identifier: strconv.Itoa(d.Node.ID), Title: d.Node.Title, Image: d.Node.MainPicture.Large,
		})
	}
	var next *int
	if resp.Paging.Next != "" {
		n := page + 1
		next = &n
	}
	return SearchResults[MetadataSearchItem]{Items: items, NextPage: next}, nil
}

type malDetails struct {
	ID           int        `json:"id"`
	Title        string     `json:"title"`
	MainPicture  malPicture `json:"main_picture"`
	Synopsis     string     `json:"synopsis"`
	Mean         float64    `json:"mean"`
	NumEpisodes  int        `json:"num_episodes"`
	NumChapters  int        `json:"num_chapters"`
	NumVolumes   int        `json:"num_volumes"`
	Status       string     `json:"status"`
	NSFW         string     `json:"nsfw"`
	Genres       []malGenre `json:"genres"`
	StartDate    string     `json:"start_date"`
	RelatedAnime []struct {
		Node malNode `json:"node"`
	} `json:"related_anime"`
	RelatedManga []struct {
		Node malNode `json:"node"`
	} `json:"related_manga"`
	Recommendations []struct {
		Node malNode `json:"node"`
	} `json:"recommendations"`
}

// MetadataDetails implements the spec's MyAnimeList notes: related
// anime, related manga, and recommendations are combined into one
// suggestions list and shuffled (MAL returns them in a fixed,
// non-representative order), and nsfw="white" maps to is_nsfw=false.
func (a *MALAdapter) MetadataDetails(ctx context.Context, identifier string) (MetadataDetails, error) {
	fields := url.Values{"fields": {"id,title,main_picture,synopsis,mean,num_episodes,num_chapters,num_volumes,status,nsfw,genres,start_date,related_anime,related_manga,recommendations"}}
	var resp malDetails
	endpoint := "https://api.myanimelist.net/v2/" + a.endpointNoun() + "/" + identifier
	if err := httpGetJSON(ctx, a.httpc, "myanimelist", endpoint, fields, a.headers(), &resp); err != nil {
		return MetadataDetails{}, err
	}

	d := MetadataDetails{
		Partial: models.PartialMetadata{
			Lot: a.lot, Source: models.SourceMAL,
			Identifier: strconv.Itoa(resp.ID), Title: resp.Title,
		},
		Description:    resp.Synopsis,
		ProviderRating: decimal.NewFromFloat(resp.Mean * 10).String(),
	}
	if resp.MainPicture.Large != "" {
		d.Assets.RemoteImages = append(d.Assets.RemoteImages, resp.MainPicture.Large)
	}
	for _, g := range resp.Genres {
		d.Genres = append(d.Genres, g.Name)
	}
	if len(resp.StartDate) >= 4 {
		if y, err := strconv.Atoi(resp.StartDate[:4]); err == nil {
			d.PublishYear = &y
		}
	}
	switch resp.Status {
	case "finished_airing", "finished":
		d.ProductionStatus = models.ProductionReleased
	case "currently_airing", "currently_publishing":
		d.ProductionStatus = models.ProductionOngoing
	case "not_yet_aired", "not_yet_published":
		d.ProductionStatus = models.ProductionUpcoming
	}

	if a.lot == models.LotAnime && resp.NumEpisodes > 0 {
		d.Specifics.Anime = &models.AnimeSpecifics{Episodes: resp.NumEpisodes}
	}
	if a.lot == models.LotManga && (resp.NumChapters > 0 || resp.NumVolumes > 0) {
		d.Specifics.Manga = &models.MangaSpecifics{
			Chapters: decimal.NewFromInt(int64(resp.NumChapters)),
			Volumes:  resp.NumVolumes,
		}
	}

	var suggestions []models.PartialMetadata
	for _, r := range resp.RelatedAnime {
		suggestions = append(suggestions, models.PartialMetadata{Lot: models.LotAnime, Source: models.SourceMAL, Identifier: strconv.Itoa(r.Node.ID), Title: r.Node.Title, Image: r.Node.MainPicture.Large})
	}
	for _, r := range resp.RelatedManga {
		suggestions = append(suggestions, models.PartialMetadata{Lot: models.LotManga, Source: models.SourceMAL, Identifier: strconv.Itoa(r.Node.ID), Title: r.Node.Title, Image: r.Node.MainPicture.Large})
	}
	for _, r := range resp.Recommendations {
		suggestions = append(suggestions, models.PartialMetadata{Lot: a.lot, Source: models.SourceMAL, Identifier: strconv.Itoa(r.Node.ID), Title: r.Node.Title, Image: r.Node.MainPicture.Large})
	}
	rand.Shuffle(len(suggestions), func(i, j int) { suggestions[i], suggestions[j] = suggestions[j], suggestions[i] })
	d.Suggestions = suggestions

	return d, nil
}
