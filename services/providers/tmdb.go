package providers

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	tmdb "github.com/cyruzin/golang-tmdb"

	"ryotgo/models"
)

const (
	tmdbPosterSize = "w780"
	tmdbProfileSize = "w276_and_h350_face"
)

// tmdbImage is the shape buildTMDBImage returns: a fully qualified
// asset URL plus a caller-supplied type tag ("poster", "backdrop", ...).
type tmdbImage struct {
	URL  string
	Type string
}

// TMDBAdapter wraps github.com/cyruzin/golang-tmdb the way teacher's
// tmdb_client.go wraps its own hand-rolled client: one shared client,
// one default language, movie and TV both funneled through the same
// metadata_search/details capability.
type TMDBAdapter struct {
	client   *tmdb.Client
	language string
}

// NewTMDBAdapter builds an adapter around a golang-tmdb client
// configured with apiKey. language is an ISO 639-1/region hint
// normalized the way the teacher's client does for its own requests.
func NewTMDBAdapter(apiKey, language string, timeout time.Duration) (*TMDBAdapter, error) {
	client, err := tmdb.Init(apiKey)
	if err != nil {
		return nil, fmt.Errorf("tmdb: init client: %w", err)
	}
	client.SetClientAutoRetry()
	return &TMDBAdapter{client: client, language: normalizeLanguage(language)}, nil
}

func (a *TMDBAdapter) Source() models.MediaSource { return models.SourceTMDB }

// normalizeLanguage matches teacher's tmdb_client.go: TMDB wants
// "xx-YY" (e.g. "en-US"); bare language codes get a default region.
func normalizeLanguage(lang string) string {
	lang = strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if lang == "" {
		return "en-US"
	}
	parts := strings.SplitN(lang, "-", 2)
	lower := strings.ToLower(parts[0])
	if len(parts) == 2 {
		return lower + "-" + strings.ToUpper(parts[1])
	}
	switch lower {
	case "en":
		return "en-US"
	case "es":
		return "es-US"
	case "pt":
		return "pt-BR"
	case "fr":
		return "fr-FR"
	case "de":
		return "de-DE"
	default:
		return lower + "-US"
	}
}

// buildTMDBImage returns nil for an empty path (TMDB returns "" when
// an asset is absent, never a placeholder URL).
func buildTMDBImage(path, size, kind string) *tmdbImage {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	return &tmdbImage{URL: "https://image.tmdb.org/t/p/" + size + path, Type: kind}
}

var tmdbYearPattern = regexp.MustCompile(`^(\d{4})-\d{2}-\d{2}$`)

// parseTMDBYear extracts the year from a movie's release_date or, if
// blank, a show's first_air_date; returns 0 if neither parses.
func parseTMDBYear(releaseDate, firstAirDate string) int {
	for _, d := range []string{releaseDate, firstAirDate} {
		if m := tmdbYearPattern.FindStringSubmatch(d); m != nil {
			y, err := strconv.Atoi(m[1])
			if err == nil {
				return y
			}
		}
	}
	return 0
}

func (a *TMDBAdapter) SearchMetadata(ctx context.Context, query string, page int, includeNSFW bool) (SearchResults[MetadataSearchItem], error) {
	opts := map[string]string{
		"page":          strconv.Itoa(page),
		"language":      a.language,
		"include_adult": strconv.FormatBool(includeNSFW),
	}
	res, err := a.client.GetSearchMulti(query, opts)
	if err != nil {
		return SearchResults[MetadataSearchItem]{}, Unavailable("tmdb", err)
	}
	items := make([]MetadataSearchItem, 0, len(res.Results))
	for _, r := range res.Results {
		if r.MediaType != "movie" && r.MediaType != "tv" {
			continue
		}
		title := r.Title
		if title == "" {
			title = r.Name
		}
		year := parseTMDBYear(r.ReleaseDate, r.FirstAirDate)
		item := MetadataSearchItem{Identifier: strconv.Itoa(int(r.ID)), Title: title}
		if year > 0 {
			item.PublishYear = &year
		}
		if img := buildTMDBImage(r.PosterPath, tmdbPosterSize, "poster"); img != nil {
			item.Image = img.URL
		}
		items = append(items, item)
	}
	var next *int
	if res.Page < res.TotalPages {
		n := res.Page + 1
		next = &n
	}
	return SearchResults[MetadataSearchItem]{Items: items, NextPage: next}, nil
}

// MetadataDetails resolves identifier against both TMDB movie and TV
// endpoints, since metadata_search/multi no longer tells the caller
// which one an identifier belongs to once it's been persisted and
// re-fetched later. Movie is tried first (cheaper, more common).
func (a *TMDBAdapter) MetadataDetails(ctx context.Context, identifier string) (MetadataDetails, error) {
	id, err := strconv.Atoi(identifier)
	if err != nil {
		return MetadataDetails{}, NotFound("tmdb", err)
	}
	opts := map[string]string{"language": a.language, "append_to_response": "credits,external_ids,watch/providers,keywords,recommendations"}

	if movie, err := a.client.GetMovieDetails(id, opts); err == nil {
		return a.movieToDetails(movie), nil
	}
	show, err := a.client.GetTVDetails(id, opts)
	if err != nil {
		return MetadataDetails{}, classifyTMDBError("tmdb", err)
	}
	return a.showToDetails(show), nil
}

func (a *TMDBAdapter) movieToDetails(m *tmdb.MovieDetails) MetadataDetails {
	year := parseTMDBYear(m.ReleaseDate, "")
	d := MetadataDetails{
		Partial: models.PartialMetadata{
			Lot: models.LotMovie, Source: models.SourceTMDB,
			Identifier: strconv.Itoa(int(m.ID)), Title: m.Title,
		},
		Description:      m.Overview,
		OriginalLanguage: m.OriginalLanguage,
		SourceURL:        fmt.Sprintf("https://www.themoviedb.org/movie/%d", m.ID),
		ProviderRating:   strconv.FormatFloat(m.VoteAverage*10, 'f', 4, 64),
	}
	if year > 0 {
		d.PublishYear = &year
	}
	if img := buildTMDBImage(m.PosterPath, tmdbPosterSize, "poster"); img != nil {
		d.Assets.RemoteImages = append(d.Assets.RemoteImages, img.URL)
	}
	if img := buildTMDBImage(m.BackdropPath, "original", "backdrop"); img != nil {
		d.Assets.RemoteImages = append(d.Assets.RemoteImages, img.URL)
	}
	for _, g := range m.Genres {
		d.Genres = append(d.Genres, g.Name)
	}
	switch m.Status {
	case "Released":
		d.ProductionStatus = models.ProductionReleased
	case "Post Production", "In Production", "Planned":
		d.ProductionStatus = models.ProductionUpcoming
	}
	return d
}

func (a *TMDBAdapter) showToDetails(s *tmdb.TVDetails) MetadataDetails {
	year := parseTMDBYear("", s.FirstAirDate)
	d := MetadataDetails{
		Partial: models.PartialMetadata{
			Lot: models.LotShow, Source: models.SourceTMDB,
			Identifier: strconv.Itoa(int(s.ID)), Title: s.Name,
		},
		Description:      s.Overview,
		OriginalLanguage: s.OriginalLanguage,
		SourceURL:        fmt.Sprintf("https://www.themoviedb.org/tv/%d", s.ID),
		ProviderRating:   strconv.FormatFloat(s.VoteAverage*10, 'f', 4, 64),
	}
	if year > 0 {
		d.PublishYear = &year
	}
	if img := buildTMDBImage(s.PosterPath, tmdbPosterSize, "poster"); img != nil {
		d.Assets.RemoteImages = append(d.Assets.RemoteImages, img.URL)
	}
	for _, g := range s.Genres {
		d.Genres = append(d.Genres, g.Name)
	}
	switch s.Status {
	case "Ended", "Canceled":
		d.ProductionStatus = models.ProductionReleased
	case "Returning Series":
		d.ProductionStatus = models.ProductionOngoing
	}

	seasons := make([]models.ShowSeason, 0, len(s.Seasons))
	for _, sn := range s.Seasons {
		seasons = append(seasons, models.ShowSeason{
			SeasonNumber: int(sn.SeasonNumber),
			Name:         sn.Name,
			Overview:     sn.Overview,
		})
	}
	d.Specifics.Show = &models.ShowSpecifics{Seasons: seasons}
	return d
}

func (a *TMDBAdapter) SearchPeople(ctx context.Context, query string, page int) (SearchResults[PersonSearchItem], error) {
	opts := map[string]string{"page": strconv.Itoa(page), "language": a.language}
	res, err := a.client.GetSearchPeople(query, opts)
	if err != nil {
		return SearchResults[PersonSearchItem]{}, Unavailable("tmdb", err)
	}
	items := make([]PersonSearchItem, 0, len(res.Results))
	for _, r := range res.Results {
		item := PersonSearchItem{Identifier: strconv.Itoa(int(r.ID)), Name: r.Name}
		if img := buildTMDBImage(r.ProfilePath, tmdbProfileSize, "profile"); img != nil {
			item.Image = img.URL
		}
		items = append(items, item)
	}
	var next *int
	if res.Page < res.TotalPages {
		n := res.Page + 1
		next = &n
	}
	return SearchResults[PersonSearchItem]{Items: items, NextPage: next}, nil
}

// PersonDetails implements the spec's "TMDB non-media" note: a
// person's combined_credits are split into cast/crew and re-unified
// as related_metadata, with role = job if present else "Actor", and
// media_type filtered down to {movie, tv} -> {Movie, Show}.
func (a *TMDBAdapter) PersonDetails(ctx context.Context, identifier string) (PersonDetails, error) {
	id, err := strconv.Atoi(identifier)
	if err != nil {
		return PersonDetails{}, NotFound("tmdb", err)
	}
	opts := map[string]string{"language": a.language, "append_to_response": "combined_credits"}
	p, err := a.client.GetPersonDetails(id, opts)
	if err != nil {
		return PersonDetails{}, classifyTMDBError("tmdb", err)
	}

	d := PersonDetails{
		Partial: models.PartialPerson{
			Source: models.SourceTMDB, Identifier: strconv.Itoa(int(p.ID)), Name: p.Name,
		},
		Description: p.Biography,
	}
	if img := buildTMDBImage(p.ProfilePath, tmdbProfileSize, "profile"); img != nil {
		d.Images = append(d.Images, img.URL)
	}

	for _, c := range p.CombinedCredits.Cast {
		if rel, ok := tmdbCreditToRelated(c.MediaType, c.ID, c.Title, c.Name, c.Character, "Actor"); ok {
			d.RelatedMetadata = append(d.RelatedMetadata, rel)
		}
	}
	for _, c := range p.CombinedCredits.Crew {
		role := c.Job
		if role == "" {
			role = "Actor"
		}
		if rel, ok := tmdbCreditToRelated(c.MediaType, c.ID, c.Title, c.Name, "", role); ok {
			d.RelatedMetadata = append(d.RelatedMetadata, rel)
		}
	}
	return d, nil
}

func tmdbCreditToRelated(mediaType string, id int64, movieTitle, tvName, character, role string) (RelatedMetadata, bool) {
	var lot models.MediaLot
	title := movieTitle
	switch mediaType {
	case "movie":
		lot = models.LotMovie
	case "tv":
		lot = models.LotShow
		title = tvName
	default:
		return RelatedMetadata{}, false
	}
	return RelatedMetadata{
		Role:      role,
		Character: character,
		Stub: models.PartialMetadata{
			Lot: lot, Source: models.SourceTMDB,
			Identifier: strconv.Itoa(int(id)), Title: title,
		},
	}, true
}

func (a *TMDBAdapter) GenreNames(ctx context.Context) ([]string, error) {
	movieGenres, err := a.client.GetGenreMovieList(map[string]string{"language": a.language})
	if err != nil {
		return nil, Unavailable("tmdb", err)
	}
	tvGenres, err := a.client.GetGenreTVList(map[string]string{"language": a.language})
	if err != nil {
		return nil, Unavailable("tmdb", err)
	}
	seen := make(map[string]bool)
	var names []string
	for _, g := range movieGenres.Genres {
		if !seen[g.Name] {
			seen[g.Name] = true
			names = append(names, g.Name)
		}
	}
	for _, g := range tvGenres.Genres {
		if !seen[g.Name] {
			seen[g.Name] = true
			names = append(names, g.Name)
		}
	}
	return names, nil
}

// classifyTMDBError maps golang-tmdb's error shape to the adapter
// error taxonomy: a 404 status is permanent, everything else is
// treated as transient.
func classifyTMDBError(provider string, err error) error {
	if strings.Contains(err.Error(), "404") {
		return NotFound(provider, err)
	}
	return Unavailable(provider, err)
}
