// Package catalog wires the provider adapters (C1) into the job
// pipeline (C5): Registry resolves a (source, lot) pair to the adapter
// that can refresh it, and Service drives metadata_details/
// person_details/metadata_group_details through whichever adapter
// Registry finds, diffing the result through notifications before
// persisting it. Nothing here talks to a provider directly; that stays
// in services/providers.
package catalog

import (
	"context"
	"fmt"

	"ryotgo/internal/config"
	"ryotgo/models"
	"ryotgo/services/providers"
)

// regKey pairs a source with the lot it was fetched for. Anilist and
// MAL serve two lots (anime, manga) under one source value, so a bare
// MediaSource isn't always enough to pick an adapter; every other
// source registers once under the zero-value Lot, which Lookup falls
// back to.
type regKey struct {
	source models.MediaSource
	lot    models.MediaLot
}

// Registry holds one MetadataCapable adapter per configured provider,
// built once at startup from whichever credentials internal/config.Providers
// carries. A provider with no credential (and no unauthenticated mode)
// is simply absent, not an error.
type Registry struct {
	metadata map[regKey]providers.MetadataCapable
	people   map[models.MediaSource]providers.PersonCapable
	groups   map[models.MediaSource]providers.GroupCapable
}

// NewRegistry builds the adapter set cfg's credentials support.
func NewRegistry(ctx context.Context, cfg config.Providers) (*Registry, error) {
	r := &Registry{
		metadata: make(map[regKey]providers.MetadataCapable),
		people:   make(map[models.MediaSource]providers.PersonCapable),
		groups:   make(map[models.MediaSource]providers.GroupCapable),
	}

	tmdb, err := providers.NewTMDBAdapter(cfg.TMDBToken, cfg.TMDBLanguage, cfg.HTTPTimeout)
	if err != nil {
		return nil, fmt.Errorf("building tmdb adapter: %w", err)
	}
	r.metadata[regKey{models.SourceTMDB, ""}] = tmdb
	r.groups[models.SourceTMDB] = tmdb
	r.people[models.SourceTMDB] = tmdb

	if cfg.TVDBToken != "" {
		tvdb := providers.NewTVDBAdapter(cfg.TVDBToken, cfg.TMDBLanguage, cfg.HTTPTimeout)
		r.metadata[regKey{models.SourceTVDB, ""}] = tvdb
	}

	if cfg.TwitchClientID != "" && cfg.TwitchClientSecret != "" {
		igdb := providers.NewIGDBAdapter(ctx, cfg.TwitchClientID, cfg.TwitchClientSecret, cfg.HTTPTimeout)
		r.metadata[regKey{models.SourceIGDB, ""}] = igdb
	}

	if cfg.ListennotesToken != "" {
		r.metadata[regKey{models.SourceListennotes, ""}] = providers.NewListennotesAdapter(cfg.ListennotesToken, cfg.HTTPTimeout)
	}

	if cfg.MALClientID != "" {
		r.metadata[regKey{models.SourceMAL, models.LotAnime}] = providers.NewMALAdapter(cfg.MALClientID, models.LotAnime, cfg.HTTPTimeout)
		r.metadata[regKey{models.SourceMAL, models.LotManga}] = providers.NewMALAdapter(cfg.MALClientID, models.LotManga, cfg.HTTPTimeout)
	}

	anilistAnime := providers.NewAnilistAdapter(models.LotAnime, cfg.HTTPTimeout)
	anilistManga := providers.NewAnilistAdapter(models.LotManga, cfg.HTTPTimeout)
	r.metadata[regKey{models.SourceAnilist, models.LotAnime}] = anilistAnime
	r.metadata[regKey{models.SourceAnilist, models.LotManga}] = anilistManga

	r.metadata[regKey{models.SourceVNDB, ""}] = providers.NewVNDBAdapter(cfg.HTTPTimeout)
	r.metadata[regKey{models.SourceITunes, ""}] = providers.NewITunesAdapter(cfg.HTTPTimeout)
	r.metadata[regKey{models.SourceAudible, ""}] = providers.NewAudibleAdapter(cfg.HTTPTimeout)
	r.metadata[regKey{models.SourceOpenlibrary, ""}] = providers.NewOpenlibraryAdapter(cfg.HTTPTimeout)
	r.metadata[regKey{models.SourceMangaUpdates, ""}] = providers.NewMangaUpdatesAdapter(cfg.HTTPTimeout)
	r.metadata[regKey{models.SourceGoogleBooks, ""}] = providers.NewGoogleBooksAdapter(cfg.GoogleBooksKey, cfg.HTTPTimeout)

	if cfg.HardcoverKey != "" {
		r.metadata[regKey{models.SourceHardcover, ""}] = providers.NewHardcoverAdapter(cfg.HardcoverKey, cfg.HTTPTimeout)
	}

	return r, nil
}

// Metadata resolves the adapter that can refresh a (source, lot) pair,
// falling back to the lot-agnostic registration most sources use.
func (r *Registry) Metadata(source models.MediaSource, lot models.MediaLot) (providers.MetadataCapable, bool) {
	if a, ok := r.metadata[regKey{source, lot}]; ok {
		return a, true
	}
	a, ok := r.metadata[regKey{source, ""}]
	return a, ok
}

// Group resolves the adapter that can refresh a metadata group for source.
func (r *Registry) Group(source models.MediaSource) (providers.GroupCapable, bool) {
	a, ok := r.groups[source]
	return a, ok
}

// Person resolves the adapter that can refresh a person for source.
func (r *Registry) Person(source models.MediaSource) (providers.PersonCapable, bool) {
	a, ok := r.people[source]
	return a, ok
}
