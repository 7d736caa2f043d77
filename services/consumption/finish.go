package consumption

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"ryotgo/models"
)

// handleAfterMetadataSeenTasks runs the default-collection maintenance
// that follows every successful progress-update mutation (SPEC_FULL
// §4.4): always drop Watchlist membership, then move between InProgress/
// Monitoring/Completed according to the new Seen state.
func (e *Engine) handleAfterMetadataSeenTasks(ctx context.Context, userID string, md *models.Metadata, s *models.Seen) error {
	if err := e.removeFromCollection(ctx, userID, models.CollectionWatchlist, md.ID); err != nil {
		return err
	}

	switch s.State {
	case models.SeenInProgress, models.SeenOnAHold:
		if err := e.addToCollection(ctx, userID, models.CollectionInProgress, md.ID); err != nil {
			return err
		}
		if err := e.addToCollection(ctx, userID, models.CollectionMonitoring, md.ID); err != nil {
			return err
		}
	case models.SeenDropped:
		if err := e.removeFromCollection(ctx, userID, models.CollectionInProgress, md.ID); err != nil {
			return err
		}
	case models.SeenCompleted:
		if !md.Lot.IsSerialized() {
			if err := e.addToCollection(ctx, userID, models.CollectionCompleted, md.ID); err != nil {
				return err
			}
			if err := e.removeFromCollection(ctx, userID, models.CollectionInProgress, md.ID); err != nil {
				return err
			}
			break
		}
		finished, err := e.IsMetadataFinishedByUser(ctx, userID, md)
		if err != nil {
			return err
		}
		if finished {
			if err := e.addToCollection(ctx, userID, models.CollectionCompleted, md.ID); err != nil {
				return err
			}
			if err := e.removeFromCollection(ctx, userID, models.CollectionInProgress, md.ID); err != nil {
				return err
			}
		} else {
			if err := e.addToCollection(ctx, userID, models.CollectionInProgress, md.ID); err != nil {
				return err
			}
			if err := e.addToCollection(ctx, userID, models.CollectionMonitoring, md.ID); err != nil {
				return err
			}
		}
	}

	return e.cache.InvalidateKind(ctx, models.CacheKeyCollectionContents)
}

func (e *Engine) addToCollection(ctx context.Context, userID, name, metadataID string) error {
	col, err := e.collections.ByName(ctx, userID, name)
	if err != nil {
		return err
	}
	cte, err := models.NewCollectionToEntity(col.ID, metadataID, models.EntityMetadata)
	if err != nil {
		return err
	}
	return e.collections.AddEntity(ctx, cte)
}

func (e *Engine) removeFromCollection(ctx context.Context, userID, name, metadataID string) error {
	col, err := e.collections.ByName(ctx, userID, name)
	if err != nil {
		return err
	}
	return e.collections.RemoveEntity(ctx, col.ID, metadataID, models.EntityMetadata)
}

// episodeKey is the canonical bucketing key for one unit of serialized
// consumption: a show episode, a podcast episode, an anime episode, or a
// manga chapter.
type episodeKey string

// IsMetadataFinishedByUser implements the spec's finished-by-user
// predicate. For serialized lots it enumerates the canonical episode/
// chapter set from the metadata's specifics, buckets the user's Seen
// rows by the same key, and requires every bucket to be non-empty with
// equal, nonzero counts. Non-serialized lots are finished iff any Seen
// row is completed.
func (e *Engine) IsMetadataFinishedByUser(ctx context.Context, userID string, md *models.Metadata) (bool, error) {
	history, err := e.seen.HistoryForMetadata(ctx, userID, md.ID)
	if err != nil {
		return false, err
	}

	if !md.Lot.IsSerialized() {
		for _, s := range history {
			if s.State == models.SeenCompleted {
				return true, nil
			}
		}
		return false, nil
	}

	canonical, err := canonicalEpisodeSet(md)
	if err != nil {
		return false, err
	}
	if len(canonical) == 0 {
		return false, nil
	}

	counts := map[episodeKey]int{}
	for _, s := range history {
		if s.State != models.SeenCompleted {
			continue
		}
		k, ok := seenEpisodeKey(md.Lot, s)
		if !ok {
			continue
		}
		counts[k]++
	}

	var want int
	for i, key := range canonical {
		c, ok := counts[key]
		if !ok || c == 0 {
			return false, nil
		}
		if i == 0 {
			want = c
		} else if c != want {
			return false, nil
		}
	}
	return true, nil
}

func canonicalEpisodeSet(md *models.Metadata) ([]episodeKey, error) {
	var keys []episodeKey
	switch md.Lot {
	case models.LotShow:
		if md.Specifics.Show == nil {
			return nil, nil
		}
		for _, season := range md.Specifics.Show.Seasons {
			if season.SeasonNumber == 0 {
				continue // specials are excluded
			}
			for _, ep := range season.Episodes {
				keys = append(keys, episodeKey(fmt.Sprintf("%d-%d", season.SeasonNumber, ep.EpisodeNumber)))
			}
		}
	case models.LotPodcast:
		if md.Specifics.Podcast == nil {
			return nil, nil
		}
		for _, ep := range md.Specifics.Podcast.Episodes {
			keys = append(keys, episodeKey(fmt.Sprintf("%d", ep.EpisodeNumber)))
		}
	case models.LotAnime:
		if md.Specifics.Anime == nil {
			return nil, nil
		}
		for i := 1; i <= md.Specifics.Anime.Episodes; i++ {
			keys = append(keys, episodeKey(fmt.Sprintf("%d", i)))
		}
	case models.LotManga:
		if md.Specifics.Manga == nil {
			return nil, nil
		}
		chapters := md.Specifics.Manga.Chapters.IntPart()
		for i := int64(1); i <= chapters; i++ {
			keys = append(keys, episodeKey(fmt.Sprintf("%d", i)))
		}
	}
	return keys, nil
}

func seenEpisodeKey(lot models.MediaLot, s *models.Seen) (episodeKey, bool) {
	switch lot {
	case models.LotShow:
		if s.ShowExtra == nil {
			return "", false
		}
		return episodeKey(fmt.Sprintf("%d-%d", s.ShowExtra.SeasonNumber, s.ShowExtra.EpisodeNumber)), true
	case models.LotPodcast:
		if s.PodcastExtra == nil {
			return "", false
		}
		return episodeKey(fmt.Sprintf("%d", s.PodcastExtra.EpisodeNumber)), true
	case models.LotAnime:
		if s.AnimeExtra == nil || s.AnimeExtra.Episode == nil {
			return "", false
		}
		return episodeKey(fmt.Sprintf("%d", *s.AnimeExtra.Episode)), true
	case models.LotManga:
		if s.MangaExtra == nil || s.MangaExtra.Chapter == nil {
			return "", false
		}
		d, err := decimal.NewFromString(*s.MangaExtra.Chapter)
		if err != nil {
			return "", false
		}
		return episodeKey(fmt.Sprintf("%d", d.IntPart())), true
	default:
		return "", false
	}
}
