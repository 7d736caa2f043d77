package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"ryotgo/models"
)

// IGDBAdapter is a hand-rolled REST client (no dedicated Go client
// exists in the retrieved corpus) against IGDB's Apicalypse query
// language, authenticated via Twitch's OAuth2 client-credentials grant
// (golang.org/x/oauth2/clientcredentials), shaped like the teacher's
// other hand-rolled provider clients: one shared *http.Client, typed
// response structs, no persistence of its own.
type IGDBAdapter struct {
	httpc    *http.Client
	clientID string
}

func NewIGDBAdapter(ctx context.Context, clientID, clientSecret string, timeout time.Duration) *IGDBAdapter {
	cc := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     "https://id.twitch.tv/oauth2/token",
	}
	httpc := cc.Client(ctx)
	httpc.Timeout = timeout
	if httpc.Timeout <= 0 {
		httpc.Timeout = 30 * time.Second
	}
	return &IGDBAdapter{httpc: httpc, clientID: clientID}
}

func (a *IGDBAdapter) Source() models.MediaSource { return models.SourceIGDB }

func (a *IGDBAdapter) headers() map[string]string {
	return map[string]string{"Client-ID": a.clientID, "Accept": "application/json"}
}

type igdbGame struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Summary       string `json:"summary"`
	FirstReleaseDate int64 `json:"first_release_date"` // unix seconds
	Cover         struct {
		URL string `json:"url"`
	} `json:"cover"`
	AggregatedRating float64 `json:"aggregated_rating"`
	Genres           []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Platforms []struct {
		Name string `json:"name"`
	} `json:"platforms"`
	Status int `json:"status"` // 0=released,2=alpha,3=beta,4=early_access,5=offline,6=cancelled,7=rumored,8=delisted
}

// apicalypseSearch performs an IGDB multi-query POST body (the
// Apicalypse body format, sent as the raw request body rather than
// JSON-encoded).
func (a *IGDBAdapter) apicalypse(ctx context.Context, endpoint, body string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.igdb.com/v4/"+endpoint, strings.NewReader(body))
	if err != nil {
		return Unavailable("igdb", err)
	}
	req.Header.Set("Client-ID", a.clientID)
	req.Header.Set("Content-Type", "text/plain")
	resp, err := a.httpc.Do(req)
	if err != nil {
		return Unavailable("igdb", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return Unavailable("igdb", fmt.Errorf("igdb request failed: %s", resp.Status))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func (a *IGDBAdapter) SearchMetadata(ctx context.Context, query string, page int, includeNSFW bool) (SearchResults[MetadataSearchItem], error) {
	offset := (page - 1) * PageSize
	body := fmt.Sprintf(`search "%s"; fields id,name,cover.url,first_release_date; limit %d; offset %d;`, escapeApicalypse(query), PageSize, offset)
	var games []igdbGame
	if err := a.apicalypse(ctx, "games", body, &games); err != nil {
		return SearchResults[MetadataSearchItem]{}, err
	}
	items := make([]MetadataSearchItem, 0, len(games))
	for _, g := range games {
		item := MetadataSearchItem{Identifier: strconv.FormatInt(g.ID, 10), Title: g.Name, Image: igdbCoverURL(g.Cover.URL)}
		if g.FirstReleaseDate > 0 {
			y := time.Unix(g.FirstReleaseDate, 0).UTC().Year()
			item.PublishYear = &y
		}
		items = append(items, item)
	}
	var next *int
	if len(games) == PageSize {
		n := page + 1
		next = &n
	}
	return SearchResults[MetadataSearchItem]{Items: items, NextPage: next}, nil
}

func (a *IGDBAdapter) MetadataDetails(ctx context.Context, identifier string) (MetadataDetails, error) {
	body := fmt.Sprintf(`fields id,name,summary,first_release_date,cover.url,aggregated_rating,genres.name,platforms.name,status; where id = %s;`, identifier)
	var games []igdbGame
	if err := a.apicalypse(ctx, "games", body, &games); err != nil {
		return MetadataDetails{}, err
	}
	if len(games) == 0 {
		return MetadataDetails{}, NotFound("igdb", fmt.Errorf("game %s not found", identifier))
	}
	g := games[0]

	d := MetadataDetails{
		Partial: models.PartialMetadata{
			Lot: models.LotVideoGame, Source: models.SourceIGDB,
			Identifier: strconv.FormatInt(g.ID, 10), Title: g.Name,
		},
		Description:    g.Summary,
		ProviderRating: strconv.FormatFloat(g.AggregatedRating, 'f', 4, 64),
	}
	if img := igdbCoverURL(g.Cover.URL); img != "" {
		d.Assets.RemoteImages = append(d.Assets.RemoteImages, img)
	}
	if g.FirstReleaseDate > 0 {
		y := time.Unix(g.FirstReleaseDate, 0).UTC().Year()
		d.PublishYear = &y
	}
	for _, genre := range g.Genres {
		d.Genres = append(d.Genres, genre.Name)
	}
	var platforms []string
	for _, p := range g.Platforms {
		platforms = append(platforms, p.Name)
	}
	d.Specifics.VideoGame = &models.VideoGameSpecifics{Platforms: platforms}

	switch g.Status {
	case 0:
		d.ProductionStatus = models.ProductionReleased
	case 6:
		d.ProductionStatus = models.ProductionCancelled
	case 2, 3, 4, 7:
		d.ProductionStatus = models.ProductionUpcoming
	}
	return d, nil
}

func (a *IGDBAdapter) GenreNames(ctx context.Context) ([]string, error) {
	var genres []struct {
		Name string `json:"name"`
	}
	if err := a.apicalypse(ctx, "genres", "fields name; limit 500;", &genres); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(genres))
	for _, g := range genres {
		names = append(names, g.Name)
	}
	return names, nil
}

// igdbCoverURL upgrades IGDB's protocol-relative thumbnail URL to the
// larger cover_big rendition and adds the https scheme.
func igdbCoverURL(raw string) string {
	if raw == "" {
		return ""
	}
	url := strings.ReplaceAll(raw, "t_thumb", "t_cover_big")
	if strings.HasPrefix(url, "//") {
		return "https:" + url
	}
	return url
}

func escapeApicalypse(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
