// Package notifications implements monitoring and delivery (C9):
// diffing a refreshed Metadata row against its prior state to produce
// MediaStateChanged events, then fanning each one out to every
// subscriber's configured delivery channels. Grounded on the same
// diff-then-fan-out shape the teacher's internal/notifications package
// uses for Discord alerts, generalized here from a single fixed channel
// to the multi-platform table SPEC_FULL §4.9 describes.
package notifications

import (
	"strconv"
	"time"

	"ryotgo/models"
)

// DiffMetadata compares before and after (the same metadata row fetched
// before and after a provider refresh) and returns every
// UserNotificationContent the change set produces, per the ten
// MediaStateChange kinds in models.MediaStateChange.
func DiffMetadata(before, after *models.Metadata) []models.UserNotificationContent {
	if before == nil || after == nil {
		return nil
	}
	var out []models.UserNotificationContent
	add := func(change models.MediaStateChange, text string) {
		out = append(out, models.UserNotificationContent{
			Change: change, EntityLot: models.EntityMetadata, EntityID: after.ID,
			Title: after.Title, Text: text, ImageURL: firstImage(after),
		})
	}

	if before.IsPartial && !after.IsPartial {
		add(models.ChangeMetadataPublished, after.Title+" has been added to the catalog")
	}
	if before.ProductionStatus != after.ProductionStatus && after.ProductionStatus != "" {
		add(models.ChangeMetadataStatusChanged, after.Title+" status changed to "+string(after.ProductionStatus))
	}
	if publishDateChanged(before.PublishDate, after.PublishDate) {
		add(models.ChangeMetadataReleaseDateChanged, after.Title+"'s release date changed")
	}

	if after.Specifics.Show != nil {
		beforeSeasons := 0
		if before.Specifics.Show != nil {
			beforeSeasons = len(before.Specifics.Show.Seasons)
		}
		if len(after.Specifics.Show.Seasons) > beforeSeasons {
			add(models.ChangeMetadataNumberOfSeasonsChanged, after.Title+" has new seasons available")
		}
		out = append(out, diffEpisodes(before, after)...)
	}

	if after.Specifics.Manga != nil || after.Specifics.Anime != nil {
		if chaptersOrEpisodesChanged(before, after) {
			add(models.ChangeMetadataChaptersOrEpisodesChanged, after.Title+" has new chapters/episodes")
		}
	}

	return out
}

func firstImage(m *models.Metadata) string {
	if len(m.Assets.RemoteImages) > 0 {
		return m.Assets.RemoteImages[0]
	}
	if len(m.Assets.S3Images) > 0 {
		return m.Assets.S3Images[0]
	}
	return ""
}

func publishDateChanged(before, after *time.Time) bool {
	switch {
	case before == nil && after == nil:
		return false
	case before == nil || after == nil:
		return true
	default:
		return !before.Equal(*after)
	}
}

func chaptersOrEpisodesChanged(before, after *models.Metadata) bool {
	switch {
	case after.Specifics.Manga != nil:
		afterCh := after.Specifics.Manga.Chapters.String()
		beforeCh := ""
		if before.Specifics.Manga != nil {
			beforeCh = before.Specifics.Manga.Chapters.String()
		}
		return beforeCh != afterCh
	case after.Specifics.Anime != nil:
		beforeEp := 0
		if before.Specifics.Anime != nil {
			beforeEp = before.Specifics.Anime.Episodes
		}
		return after.Specifics.Anime.Episodes != beforeEp
	default:
		return false
	}
}

// diffEpisodes walks every season in after looking for episodes newly
// present, renamed, or with a new image set versus before, emitting the
// three per-episode change kinds MediaStateChange names.
func diffEpisodes(before, after *models.Metadata) []models.UserNotificationContent {
	var out []models.UserNotificationContent
	beforeEpisodes := map[[2]int]models.ShowEpisode{}
	if before.Specifics.Show != nil {
		for _, s := range before.Specifics.Show.Seasons {
			for _, e := range s.Episodes {
				beforeEpisodes[[2]int{s.SeasonNumber, e.EpisodeNumber}] = e
			}
		}
	}
	for _, s := range after.Specifics.Show.Seasons {
		for _, e := range s.Episodes {
			key := [2]int{s.SeasonNumber, e.EpisodeNumber}
			prior, existed := beforeEpisodes[key]
			content := models.UserNotificationContent{EntityLot: models.EntityMetadata, EntityID: after.ID, Title: after.Title, ImageURL: firstImage(after)}
			epLabel := "S" + strconv.Itoa(s.SeasonNumber) + "E" + strconv.Itoa(e.EpisodeNumber)
			switch {
			case !existed:
				content.Change = models.ChangeMetadataEpisodeReleased
				content.Text = after.Title + " " + epLabel + " is now available"
			case prior.Name != e.Name && e.Name != "":
				content.Change = models.ChangeMetadataEpisodeNameChanged
				content.Text = after.Title + " " + epLabel + " was renamed to " + e.Name
			case len(prior.Images) != len(e.Images):
				content.Change = models.ChangeMetadataEpisodeImagesChanged
				content.Text = after.Title + " " + epLabel + " has new images"
			default:
				continue
			}
			out = append(out, content)
		}
	}
	return out
}
