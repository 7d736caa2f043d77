// Package analytics implements the activity rollup (C10):
// CalculateUserActivitiesAndSummary folds Seen, Review, Measurement, and
// Workout rows into per-day DailyUserActivity counters, plus one
// lifetime row under the millennium bucket. It mirrors the exporter's
// (services/exporter) shape of pulling from several repositories and
// normalizing into one target, inverted here from a streaming write
// into an in-memory fold followed by a batch of upserts.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ryotgo/internal/database"
	"ryotgo/models"
)

// Service computes and serves daily activity rollups.
type Service struct {
	activities   *database.ActivityRepository
	seen         *database.SeenRepository
	reviews      *database.ReviewRepository
	measurements *database.MeasurementRepository
	workouts     *database.WorkoutRepository
	metadata     *database.MetadataRepository
}

func New(
	activities *database.ActivityRepository,
	seen *database.SeenRepository,
	reviews *database.ReviewRepository,
	measurements *database.MeasurementRepository,
	workouts *database.WorkoutRepository,
	metadata *database.MetadataRepository,
) *Service {
	return &Service{
		activities:   activities,
		seen:         seen,
		reviews:      reviews,
		measurements: measurements,
		workouts:     workouts,
		metadata:     metadata,
	}
}

// CalculateUserActivitiesAndSummary implements spec.md §4.10's rollup
// operation. With fromScratch it purges every existing row for the user
// and rescans all history; otherwise it resumes from the latest day
// already computed, scanning only rows touched since. Bucketing is done
// in UTC: the data model carries no per-user timezone, so a day is
// midnight-to-midnight UTC rather than inventing a timezone field this
// rollup has no other reason to need.
func (s *Service) CalculateUserActivitiesAndSummary(ctx context.Context, userID string, fromScratch bool) error {
	var since time.Time
	if fromScratch {
		if err := s.activities.DeleteForUser(ctx, userID); err != nil {
			return fmt.Errorf("purge existing activity rows: %w", err)
		}
	} else {
		latest, err := s.activities.LatestComputedDate(ctx, userID)
		if err != nil {
			return fmt.Errorf("find latest computed date: %w", err)
		}
		if !latest.IsZero() {
			// the latest day is already folded into its row; resuming from
			// it inclusive would re-add its rows on top of themselves,
			// since Upsert merges by addition rather than overwriting.
			since = latest.AddDate(0, 0, 1)
		}
	}

	days := map[time.Time]*models.DailyUserActivity{}
	dayFor := func(t time.Time) *models.DailyUserActivity {
		d := t.UTC().Truncate(24 * time.Hour)
		a, ok := days[d]
		if !ok {
			a = &models.DailyUserActivity{UserID: userID, Date: d, Bucket: models.BucketDay}
			days[d] = a
		}
		return a
	}

	seenRows, err := s.seen.UpdatedSince(ctx, userID, since)
	if err != nil {
		return fmt.Errorf("scan seen rows: %w", err)
	}
	for _, sn := range seenRows {
		if sn.State != models.SeenCompleted {
			continue
		}
		md, err := s.metadata.Get(ctx, sn.MetadataID)
		if err != nil {
			return fmt.Errorf("resolve metadata %s: %w", sn.MetadataID, err)
		}
		date := sn.LastUpdatedOn
		if sn.FinishedOn != nil {
			date = *sn.FinishedOn
		}
		foldSeen(dayFor(date), md, sn)
	}

	reviewRows, err := s.reviews.CreatedSince(ctx, userID, since)
	if err != nil {
		return fmt.Errorf("scan reviews: %w", err)
	}
	for _, rv := range reviewRows {
		a := dayFor(rv.CreatedOn)
		switch rv.EntityLot() {
		case models.EntityMetadata:
			a.MetadataReviewCount++
		case models.EntityCollection:
			a.CollectionReviewCount++
		case models.EntityPerson:
			a.PersonReviewCount++
		case models.EntityMetadataGroup:
			a.MetadataGroupReviewCount++
		}
	}

	measurementRows, err := s.measurements.Since(ctx, userID, since)
	if err != nil {
		return fmt.Errorf("scan measurements: %w", err)
	}
	for _, m := range measurementRows {
		dayFor(m.Timestamp).MeasurementCount++
	}

	workoutRows, err := s.workouts.Since(ctx, userID, since)
	if err != nil {
		return fmt.Errorf("scan workouts: %w", err)
	}
	for _, w := range workoutRows {
		if err := foldWorkout(dayFor(w.StartTime), w); err != nil {
			return fmt.Errorf("fold workout %s: %w", w.ID, err)
		}
	}

	lifetime := &models.DailyUserActivity{UserID: userID, Date: models.MillenniumBucketDate(), Bucket: models.BucketMillennium}
	for _, a := range days {
		finalizeTotals(a)
		if err := s.activities.Upsert(ctx, a); err != nil {
			return fmt.Errorf("upsert day %s: %w", a.Date.Format("2006-01-02"), err)
		}

		lifetimeDelta := *a
		lifetimeDelta.Date = lifetime.Date
		lifetimeDelta.Bucket = lifetime.Bucket
		if err := s.activities.Upsert(ctx, &lifetimeDelta); err != nil {
			return fmt.Errorf("upsert millennium bucket: %w", err)
		}
	}
	return nil
}

// GetDailyUserActivities implements get_daily_user_activities: the
// adaptive bucketing is ActivityRepository.Range's job, this just binds
// the service's repository together for callers (resolvers) that
// shouldn't reach into internal/database directly.
func (s *Service) GetDailyUserActivities(ctx context.Context, userID string, from, to time.Time, group models.DailyUserActivityBucket) ([]*models.DailyUserActivity, error) {
	return s.activities.Range(ctx, userID, from, to, group)
}

// LatestSummary returns the all-time lifetime row, the "group by
// millennium" single-row summary the dashboard reads.
func (s *Service) LatestSummary(ctx context.Context, userID string) (*models.DailyUserActivity, error) {
	d := models.MillenniumBucketDate()
	rows, err := s.activities.Range(ctx, userID, d, d, models.BucketMillennium)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &models.DailyUserActivity{UserID: userID, Date: d, Bucket: models.BucketMillennium}, nil
	}
	return rows[0], nil
}

func foldSeen(a *models.DailyUserActivity, md *models.Metadata, sn *models.Seen) {
	switch md.Lot {
	case models.LotMovie:
		a.MovieCount++
		// no movie runtime is tracked anywhere in the data model, so a
		// completed movie contributes to the count but not the duration
		// total; see DESIGN.md for why this isn't extended.
	case models.LotShow:
		a.ShowCount++
		if sn.ShowExtra != nil && md.Specifics.Show != nil {
			a.ShowDurationSeconds += showEpisodeRuntimeSeconds(md.Specifics.Show, sn.ShowExtra)
		}
	case models.LotPodcast:
		a.PodcastCount++
		if sn.PodcastExtra != nil && md.Specifics.Podcast != nil {
			a.PodcastDurationSeconds += podcastEpisodeRuntimeSeconds(md.Specifics.Podcast, sn.PodcastExtra)
		}
	case models.LotAnime:
		a.AnimeCount++
	case models.LotManga:
		a.MangaCount++
		if sn.MangaExtra != nil && sn.MangaExtra.Chapter != nil {
			cur, _ := decimal.NewFromString(a.MangaChaptersRead)
			add, err := decimal.NewFromString(*sn.MangaExtra.Chapter)
			if err == nil {
				a.MangaChaptersRead = cur.Add(add).String()
			}
		}
	case models.LotBook:
		a.BookCount++
		if md.Specifics.Book != nil {
			a.BookPagesRead += md.Specifics.Book.Pages
		}
	case models.LotAudioBook:
		a.AudioBookCount++
		if md.Specifics.AudioBook != nil {
			a.AudioBookDurationSeconds += md.Specifics.AudioBook.Runtime * 60
		}
	case models.LotVideoGame:
		a.VideoGameCount++
		// no playtime is tracked on Metadata or Seen for video games;
		// duration contribution is 0 until a provider surfaces one.
	case models.LotVisualNovel:
		a.VisualNovelCount++
		if md.Specifics.VisualNovel != nil {
			a.VisualNovelDurationSeconds += md.Specifics.VisualNovel.LengthMinutes * 60
		}
	case models.LotMusic:
		a.MusicCount++
		if md.Specifics.Music != nil {
			a.MusicDurationSeconds += md.Specifics.Music.DurationSeconds
		}
	}
}

func showEpisodeRuntimeSeconds(specifics *models.ShowSpecifics, extra *models.SeenShowExtra) int {
	for _, season := range specifics.Seasons {
		if season.SeasonNumber != extra.SeasonNumber {
			continue
		}
		for _, ep := range season.Episodes {
			if ep.EpisodeNumber == extra.EpisodeNumber {
				return ep.Runtime * 60
			}
		}
	}
	return 0
}

func podcastEpisodeRuntimeSeconds(specifics *models.PodcastSpecifics, extra *models.SeenPodcastExtra) int {
	for _, ep := range specifics.Episodes {
		if ep.EpisodeNumber == extra.EpisodeNumber {
			return ep.Runtime * 60
		}
	}
	return 0
}

func foldWorkout(a *models.DailyUserActivity, w *models.Workout) error {
	a.WorkoutCount++
	a.WorkoutDurationSeconds += w.Statistics.TotalDuration
	a.WorkoutReps += w.Statistics.TotalReps
	a.WorkoutPersonalBests += w.Statistics.PersonalBestsAchieved

	if w.Statistics.TotalVolume != "" {
		cur, _ := decimal.NewFromString(a.WorkoutWeight)
		add, err := decimal.NewFromString(w.Statistics.TotalVolume)
		if err != nil {
			return fmt.Errorf("parse total volume: %w", err)
		}
		a.WorkoutWeight = cur.Add(add).String()
	}
	if w.Statistics.TotalDistance != "" {
		cur, _ := decimal.NewFromString(a.WorkoutDistance)
		add, err := decimal.NewFromString(w.Statistics.TotalDistance)
		if err != nil {
			return fmt.Errorf("parse total distance: %w", err)
		}
		a.WorkoutDistance = cur.Add(add).String()
	}
	for _, ex := range w.Information.Exercises {
		for _, set := range ex.Sets {
			if set.RestTimeSeconds != nil {
				a.WorkoutRestTimeSeconds += *set.RestTimeSeconds
			}
		}
	}
	return nil
}

func finalizeTotals(a *models.DailyUserActivity) {
	a.TotalMetadataCount = a.MovieCount + a.ShowCount + a.PodcastCount + a.AnimeCount + a.MangaCount +
		a.BookCount + a.AudioBookCount + a.VideoGameCount + a.VisualNovelCount + a.MusicCount
	a.TotalReviewCount = a.ReviewCount()
	a.TotalCount = a.TotalMetadataCount + a.TotalReviewCount + a.WorkoutCount + a.MeasurementCount
	a.TotalDurationSeconds = a.MovieDurationSeconds + a.ShowDurationSeconds + a.PodcastDurationSeconds +
		a.AudioBookDurationSeconds + a.MusicDurationSeconds + a.VisualNovelDurationSeconds +
		a.VideoGameDurationSeconds + a.WorkoutDurationSeconds
}
