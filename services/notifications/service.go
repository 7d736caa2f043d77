package notifications

import (
	"context"

	"github.com/rs/zerolog"

	"ryotgo/internal/database"
	"ryotgo/models"
)

// Service ties together diffing, subscriber lookup, and delivery: the
// consumer of a MediaStateChanged event doesn't know or care which
// channels exist, only that NotifyUser/NotifyMonitors get it there.
type Service struct {
	notifications *database.NotificationRepository
	monitored     *database.MonitoredEntityRepository
	log           zerolog.Logger
}

func NewService(notifications *database.NotificationRepository, monitored *database.MonitoredEntityRepository, log zerolog.Logger) *Service {
	return &Service{notifications: notifications, monitored: monitored, log: log}
}

// NotifyMetadataRefresh diffs before/after and fans every resulting
// change out to the entity's monitors. Called from the C3 metadata
// refresh path once a provider update has been applied.
func (s *Service) NotifyMetadataRefresh(ctx context.Context, before, after *models.Metadata) {
	for _, content := range DiffMetadata(before, after) {
		s.fanOut(ctx, content)
	}
}

// NotifyReviewPosted fans a ChangeReviewPosted event out to the
// reviewed entity's monitors.
func (s *Service) NotifyReviewPosted(ctx context.Context, review *models.Review, entityTitle, posterName string) {
	s.fanOut(ctx, ReviewPostedContent(review, entityTitle, posterName))
}

// NotifyPersonMediaAssociated fans a ChangePersonMediaAssociated event
// out to the person's monitors.
func (s *Service) NotifyPersonMediaAssociated(ctx context.Context, personID, personName, mediaTitle string) {
	s.fanOut(ctx, PersonMediaAssociatedContent(personID, personName, mediaTitle))
}

// fanOut looks up every user monitoring content's entity, then every
// enabled platform of theirs subscribed to content.Change, and delivers
// to each. Delivery failures are logged, not retried: a missed push
// notification isn't worth the job-queue machinery C5 reserves for
// data-mutating work.
func (s *Service) fanOut(ctx context.Context, content models.UserNotificationContent) {
	monitors, err := s.monitored.SubscribersOf(ctx, content.EntityID, content.EntityLot)
	if err != nil {
		s.log.Error().Err(err).Str("entityId", content.EntityID).Msg("failed to look up monitors")
		return
	}
	for _, monitor := range monitors {
		platforms, err := s.notifications.ForUser(ctx, monitor.UserID)
		if err != nil {
			s.log.Error().Err(err).Str("userId", monitor.UserID).Msg("failed to look up notification platforms")
			continue
		}
		delivered := false
		for _, platform := range platforms {
			if !platform.Wants(content.Change) {
				continue
			}
			send, ok := senders[platform.Kind]
			if !ok {
				s.log.Warn().Str("kind", string(platform.Kind)).Msg("no sender registered for notification platform kind")
				continue
			}
			if err := send(ctx, platform.Settings, content); err != nil {
				s.log.Error().Err(err).Str("platformId", platform.ID).Str("kind", string(platform.Kind)).
					Msg("notification delivery failed")
				continue
			}
			delivered = true
		}
		if delivered && monitor.CollectionToEntityID != "" {
			if err := s.monitored.TouchLastUpdated(ctx, monitor.CollectionToEntityID); err != nil {
				s.log.Error().Err(err).Str("collectionToEntityId", monitor.CollectionToEntityID).
					Msg("failed to touch collection_to_entity.last_updated_on")
			}
		}
	}
}
