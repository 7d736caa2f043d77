// Package consumption implements the consumption state engine (C4):
// progress updates against Seen rows and the default-collection
// maintenance that follows every successful update. It serializes all
// work per (user, metadata) through internal/keylock, the same striping
// primitive the teacher used ad hoc for inflight metadata fetches.
package consumption

import (
	"context"
	"fmt"
	"time"

	"ryotgo/internal/apperror"
	"ryotgo/internal/keylock"
	"ryotgo/internal/database"
	"ryotgo/models"
	"ryotgo/services/cache"
)

// Engine applies MetadataProgressUpdateInput mutations and the
// bookkeeping that must follow them.
type Engine struct {
	seen        *database.SeenRepository
	metadata    *database.MetadataRepository
	collections *database.CollectionRepository
	cache       *cache.Service
	locks       *keylock.Locker
	jobs        JobEnqueuer
}

// JobEnqueuer is the subset of the job pipeline (C5) the engine needs:
// enqueuing OnSeenComplete after a completed mutation.
type JobEnqueuer interface {
	EnqueueOnSeenComplete(ctx context.Context, seenID string) error
}

func New(seen *database.SeenRepository, metadata *database.MetadataRepository, collections *database.CollectionRepository, c *cache.Service, jobs JobEnqueuer) *Engine {
	return &Engine{seen: seen, metadata: metadata, collections: collections, cache: c, locks: keylock.New(), jobs: jobs}
}

// UpdateProgress applies one MetadataProgressUpdateInput for userID,
// serialized per (userID, metadataID) so two concurrent updates for the
// same title never race on which Seen row is "the open one".
func (e *Engine) UpdateProgress(ctx context.Context, userID string, in models.MetadataProgressUpdateInput) (*models.Seen, error) {
	unlock := e.locks.Lock(userID + ":" + in.MetadataID)
	defer unlock()

	md, err := e.metadata.Get(ctx, in.MetadataID)
	if err != nil {
		return nil, err
	}
	if err := validateAddressing(md, in); err != nil {
		return nil, err
	}

	var result *models.Seen
	switch in.Kind {
	case models.UpdateChangeLatestInProgress:
		result, err = e.changeLatestInProgress(ctx, userID, md, in)
	case models.UpdateCreateNewInProgress:
		result, err = e.createNewInProgress(ctx, userID, md, in)
	case models.UpdateCreateNewCompleted:
		result, err = e.createNewCompleted(ctx, userID, md, in)
	default:
		return nil, apperror.New(apperror.KindInvalidInput, "unknown progress update kind")
	}
	if err != nil {
		return nil, err
	}

	if err := e.handleAfterMetadataSeenTasks(ctx, userID, md, result); err != nil {
		return nil, fmt.Errorf("post-seen bookkeeping: %w", err)
	}
	return result, nil
}

func (e *Engine) changeLatestInProgress(ctx context.Context, userID string, md *models.Metadata, in models.MetadataProgressUpdateInput) (*models.Seen, error) {
	s, err := e.seen.LatestInProgress(ctx, userID, md.ID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, apperror.New(apperror.KindNoInProgress, "no in-progress seen row for "+md.ID)
	}
	if in.Progress != nil {
		s.Progress = *in.Progress
	}
	applyAddressing(s, in)

	if s.Progress >= 100 {
		s.Progress = 100
		s.State = models.SeenCompleted
		now := time.Now()
		s.FinishedOn = &now
	}
	if err := e.seen.Update(ctx, s); err != nil {
		return nil, err
	}
	if s.State == models.SeenCompleted && e.jobs != nil {
		if err := e.jobs.EnqueueOnSeenComplete(ctx, s.ID); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (e *Engine) createNewInProgress(ctx context.Context, userID string, md *models.Metadata, in models.MetadataProgressUpdateInput) (*models.Seen, error) {
	existing, err := e.seen.LatestInProgress(ctx, userID, md.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.New(apperror.KindInProgressAlreadyExists, "an in-progress seen row already exists for "+md.ID)
	}
	s := &models.Seen{
		UserID: userID, MetadataID: md.ID, State: models.SeenInProgress, Progress: 0,
		StartedOn: in.Date, ProviderWatchedOn: in.ProviderWatchedOn,
	}
	applyAddressing(s, in)
	if err := e.seen.Insert(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (e *Engine) createNewCompleted(ctx context.Context, userID string, md *models.Metadata, in models.MetadataProgressUpdateInput) (*models.Seen, error) {
	now := time.Now()
	s := &models.Seen{
		UserID: userID, MetadataID: md.ID, State: models.SeenCompleted, Progress: 100,
		FinishedOn: &now, ProviderWatchedOn: in.ProviderWatchedOn,
	}
	if in.Date != nil {
		s.StartedOn = in.Date
		s.FinishedOn = in.Date
	}
	applyAddressing(s, in)
	if err := e.seen.Insert(ctx, s); err != nil {
		return nil, err
	}
	if e.jobs != nil {
		if err := e.jobs.EnqueueOnSeenComplete(ctx, s.ID); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func applyAddressing(s *models.Seen, in models.MetadataProgressUpdateInput) {
	if in.ShowExtra != nil {
		s.ShowExtra = in.ShowExtra
	}
	if in.PodcastExtra != nil {
		s.PodcastExtra = in.PodcastExtra
	}
	if in.MangaExtra != nil {
		s.MangaExtra = in.MangaExtra
	}
	if in.AnimeExtra != nil {
		s.AnimeExtra = in.AnimeExtra
	}
}

// validateAddressing enforces that the addressing scheme on the input
// matches the metadata's lot and that show/podcast season-episode pairs
// actually exist in the metadata's specifics.
func validateAddressing(md *models.Metadata, in models.MetadataProgressUpdateInput) error {
	switch md.Lot {
	case models.LotShow:
		if in.ShowExtra == nil {
			return nil // CreateNewCompleted without addressing is allowed (whole-show mark)
		}
		if md.Specifics.Show == nil {
			return apperror.New(apperror.KindInvalidProgressAddressing, "metadata has no show specifics")
		}
		for _, season := range md.Specifics.Show.Seasons {
			if season.SeasonNumber != in.ShowExtra.SeasonNumber {
				continue
			}
			for _, ep := range season.Episodes {
				if ep.EpisodeNumber == in.ShowExtra.EpisodeNumber {
					return nil
				}
			}
		}
		return apperror.New(apperror.KindInvalidProgressAddressing, "season/episode not found in show specifics")
	case models.LotPodcast:
		if in.PodcastExtra == nil {
			return nil
		}
		if md.Specifics.Podcast == nil {
			return apperror.New(apperror.KindInvalidProgressAddressing, "metadata has no podcast specifics")
		}
		for _, ep := range md.Specifics.Podcast.Episodes {
			if ep.EpisodeNumber == in.PodcastExtra.EpisodeNumber {
				return nil
			}
		}
		return apperror.New(apperror.KindInvalidProgressAddressing, "episode not found in podcast specifics")
	case models.LotAnime, models.LotManga:
		return nil // episode/chapter numbers are open-ended, not validated against a fixed list
	default:
		if in.ShowExtra != nil || in.PodcastExtra != nil || in.MangaExtra != nil || in.AnimeExtra != nil {
			return apperror.New(apperror.KindInvalidProgressAddressing, "addressing given for a non-serialized lot")
		}
		return nil
	}
}
