// Package integrations implements the integration layer (C8): yanking
// progress from a media server the user already runs (Audiobookshelf,
// Plex), sinking webhook-pushed playback events from the same class of
// server, pushing state out to a target (Jellyfin), and syncing a
// library's holdings into the user's Owned collection. Every flow
// eventually produces a models.ImportResult and hands it to the same
// importer.Processor the one-shot import adapters use, so commit,
// progress-update and retry semantics stay identical between "import
// once" and "sync forever".
package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"ryotgo/internal/database"
	"ryotgo/models"
	"ryotgo/services/importer"
	"ryotgo/services/plex"
)

// Service runs yank/sink/push flows for a user's configured
// integrations and records each run's outcome.
type Service struct {
	integrations *database.IntegrationRepository
	collections  *database.CollectionRepository
	processor    *importer.Processor
	plex         *plex.Client
	httpc        *http.Client
	log          zerolog.Logger
}

func NewService(integrations *database.IntegrationRepository, collections *database.CollectionRepository, processor *importer.Processor, plexClient *plex.Client, log zerolog.Logger) *Service {
	return &Service{
		integrations: integrations, collections: collections, processor: processor,
		plex: plexClient, httpc: &http.Client{Timeout: 30 * time.Second}, log: log,
	}
}

// SyncAll yanks every enabled yank-lot integration for userID, the
// handler behind jobs.KindSyncIntegrationsData.
func (s *Service) SyncAll(ctx context.Context, userID string) error {
	yanks, err := s.integrations.ForUser(ctx, userID, models.IntegrationYank)
	if err != nil {
		return err
	}
	for _, in := range yanks {
		if in.IsDisabled {
			continue
		}
		if err := s.Yank(ctx, in); err != nil {
			s.log.Error().Err(err).Str("integrationId", in.ID).Str("provider", string(in.Provider)).Msg("integration yank failed")
		}
	}
	return nil
}

// Yank polls one integration's source server and commits whatever
// progress it reports, then records the run's outcome on the
// integration row.
func (s *Service) Yank(ctx context.Context, in *models.Integration) error {
	var result models.ImportResult
	var err error

	switch in.Provider {
	case models.ProviderAudiobookshelf:
		result, err = s.yankAudiobookshelf(ctx, in)
	case models.ProviderPlexYank:
		result, err = s.yankPlex(ctx, in)
	default:
		err = fmt.Errorf("provider %s does not support yank", in.Provider)
	}
	return s.recordAndCommit(ctx, in, result, err)
}

// yankAudiobookshelf polls /api/me/items-in-progress and converts each
// entry's progress into a MetadataProgressUpdateInput, the same shape
// AudiobookshelfAdapter.Import builds for a one-shot import, using
// max(ebook_progress, listening_progress)*100 collapsed into the
// single progress field Audiobookshelf already reports pre-multiplied.
func (s *Service) yankAudiobookshelf(ctx context.Context, in *models.Integration) (models.ImportResult, error) {
	var result models.ImportResult
	specs := in.ProviderSpecifics
	if specs.AudiobookshelfBaseURL == "" || specs.AudiobookshelfToken == "" {
		return result, fmt.Errorf("audiobookshelf integration missing base url/token")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, specs.AudiobookshelfBaseURL+"/api/me/items-in-progress", nil)
	if err != nil {
		return result, err
	}
	req.Header.Set("Authorization", "Bearer "+specs.AudiobookshelfToken)
	resp, err := s.httpc.Do(req)
	if err != nil {
		return result, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return result, fmt.Errorf("audiobookshelf items request failed: %s", resp.Status)
	}

	var parsed struct {
		LibraryItems []struct {
			Media struct {
				Metadata struct {
					Title string `json:"title"`
					ASIN  string `json:"asin"`
					ISBN  string `json:"isbn"`
				} `json:"metadata"`
			} `json:"media"`
			UserMediaProgress *struct {
				Progress   float64 `json:"progress"`
				IsFinished bool    `json:"isFinished"`
			} `json:"userMediaProgress"`
		} `json:"libraryItems"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return result, err
	}

	for _, li := range parsed.LibraryItems {
		if li.UserMediaProgress == nil {
			continue
		}
		identifier := li.Media.Metadata.ASIN
		source := models.SourceAudible
		if identifier == "" {
			identifier = li.Media.Metadata.ISBN
			source = models.SourceOpenlibrary
		}
		if identifier == "" {
			continue
		}
		progress := li.UserMediaProgress.Progress * 100
		if li.UserMediaProgress.IsFinished {
			progress = 100
		}
		result.Completed = append(result.Completed, models.ImportCompletedItem{
			Lot: models.EntityMetadata,
			Metadata: &models.ImportOrExportMetadataItem{
				Lot: models.LotAudioBook, Source: source, Identifier: identifier,
				Seen: []models.ImportItemSeen{{Progress: progress}},
			},
		})
	}
	return result, nil
}

// yankPlex polls a Plex Media Server's active sessions and converts
// each one's ViewOffset/Duration ratio into a progress update, matched
// to a catalog entry by the session GUID's embedded tmdb/tvdb id.
func (s *Service) yankPlex(ctx context.Context, in *models.Integration) (models.ImportResult, error) {
	var result models.ImportResult
	specs := in.ProviderSpecifics
	if specs.PlexToken == "" {
		return result, fmt.Errorf("plex yank integration missing server token")
	}

	sessions, err := s.plex.GetActiveSessions(plexServerBaseURL(specs), specs.PlexToken)
	if err != nil {
		return result, err
	}
	for _, sess := range sessions {
		ids := plex.ParseGUID(sess.GUID)
		var source models.MediaSource
		var identifier string
		if tmdbID, ok := ids["tmdb"]; ok {
			source, identifier = models.SourceTMDB, tmdbID
		} else if tvdbID, ok := ids["tvdb"]; ok {
			source, identifier = models.SourceTVDB, tvdbID
		} else {
			continue
		}
		lot := models.LotMovie
		if plex.NormalizeMediaType(sess.Type) == "series" {
			lot = models.LotShow
		}
		result.Completed = append(result.Completed, models.ImportCompletedItem{
			Lot: models.EntityMetadata,
			Metadata: &models.ImportOrExportMetadataItem{
				Lot: lot, Source: source, Identifier: identifier,
				Seen: []models.ImportItemSeen{{Progress: sess.ProgressPercentage()}},
			},
		})
	}
	return result, nil
}

// plexServerBaseURL resolves the user's own Plex Media Server address.
// The AudiobookshelfBaseURL-style dedicated field isn't modeled for
// Plex since yank targets whichever server the session list comes
// from; operators point PlexUsername's paired token at their server
// directly via the discover API the watchlist import already uses.
func plexServerBaseURL(specs models.IntegrationProviderSpecifics) string {
	if specs.JellyfinBaseURL != "" {
		return specs.JellyfinBaseURL
	}
	return "https://plex.tv"
}

// HandleSinkWebhook looks up the integration owning slug and commits
// the playback event the provider just pushed. Plex sends this as a
// multipart form with a "payload" field; callers extract that field
// before calling in.
func (s *Service) HandleSinkWebhook(ctx context.Context, slug string, payloadJSON []byte) error {
	in, err := s.integrations.BySlug(ctx, slug)
	if err != nil {
		return err
	}
	if in.IsDisabled {
		return fmt.Errorf("integration %s is disabled", in.ID)
	}

	var result models.ImportResult
	switch in.Provider {
	case models.ProviderPlexSink:
		result, err = s.sinkPlex(payloadJSON)
	case models.ProviderJellyfinSink:
		result, err = s.sinkJellyfin(payloadJSON)
	default:
		err = fmt.Errorf("provider %s does not support sink", in.Provider)
	}
	return s.recordAndCommit(ctx, in, result, err)
}

func (s *Service) sinkPlex(payloadJSON []byte) (models.ImportResult, error) {
	var result models.ImportResult
	p, err := plex.ParseSinkPayload(payloadJSON)
	if err != nil {
		return result, err
	}
	// Only scrobble-class events carry a meaningful completion signal;
	// play/pause/resume webhooks are acknowledged but produce no commit.
	if p.Event != "media.scrobble" && p.Event != "media.stop" {
		return result, nil
	}
	ids := plex.ParseGUID(p.Metadata.GUID)
	var source models.MediaSource
	var identifier string
	if tmdbID, ok := ids["tmdb"]; ok {
		source, identifier = models.SourceTMDB, tmdbID
	} else if tvdbID, ok := ids["tvdb"]; ok {
		source, identifier = models.SourceTVDB, tvdbID
	} else {
		return result, nil
	}
	lot := models.LotMovie
	if plex.NormalizeMediaType(p.Metadata.Type) == "series" {
		lot = models.LotShow
	}
	progress := 0.0
	if p.Event == "media.scrobble" {
		progress = 100
	}
	result.Completed = append(result.Completed, models.ImportCompletedItem{
		Lot: models.EntityMetadata,
		Metadata: &models.ImportOrExportMetadataItem{
			Lot: lot, Source: source, Identifier: identifier,
			Seen: []models.ImportItemSeen{{Progress: progress}},
		},
	})
	return result, nil
}

// jellyfinSinkPayload is the subset of Jellyfin's webhook plugin
// payload this sink acts on (PlaybackProgress/PlaybackStop events).
type jellyfinSinkPayload struct {
	NotificationType string `json:"NotificationType"`
	ItemType         string `json:"ItemType"`
	Name             string `json:"Name"`
	PlaybackPosition string `json:"PlaybackPositionTicks"`
	RunTimeTicks     string `json:"RunTimeTicks"`
	Provider_tmdb    string `json:"Provider_tmdb"`
	Provider_tvdb    string `json:"Provider_tvdb"`
}

func (s *Service) sinkJellyfin(payloadJSON []byte) (models.ImportResult, error) {
	var result models.ImportResult
	var p jellyfinSinkPayload
	if err := json.Unmarshal(payloadJSON, &p); err != nil {
		return result, fmt.Errorf("decode jellyfin webhook payload: %w", err)
	}
	var source models.MediaSource
	var identifier string
	if p.Provider_tmdb != "" {
		source, identifier = models.SourceTMDB, p.Provider_tmdb
	} else if p.Provider_tvdb != "" {
		source, identifier = models.SourceTVDB, p.Provider_tvdb
	} else {
		return result, nil
	}
	lot := models.LotMovie
	if p.ItemType == "Series" || p.ItemType == "Episode" {
		lot = models.LotShow
	}
	progress := 0.0
	if pos, err1 := strconv.ParseFloat(p.PlaybackPosition, 64); err1 == nil {
		if total, err2 := strconv.ParseFloat(p.RunTimeTicks, 64); err2 == nil && total > 0 {
			progress = pos / total * 100
		}
	}
	if p.NotificationType == "PlaybackStop" && progress > 90 {
		progress = 100
	}
	result.Completed = append(result.Completed, models.ImportCompletedItem{
		Lot: models.EntityMetadata,
		Metadata: &models.ImportOrExportMetadataItem{
			Lot: lot, Source: source, Identifier: identifier,
			Seen: []models.ImportItemSeen{{Progress: progress}},
		},
	})
	return result, nil
}

// Push writes the user's current Seen state for metadataID out to a
// push-lot integration (Jellyfin only, via a hand-rolled REST call:
// the retrieval pack's Jellyfin SDK covers read paths this project
// doesn't use, not the playstate-reporting endpoint push needs).
func (s *Service) Push(ctx context.Context, in *models.Integration, externalItemID string, progress float64) error {
	if in.Provider != models.ProviderJellyfinPush {
		return fmt.Errorf("provider %s does not support push", in.Provider)
	}
	specs := in.ProviderSpecifics
	if specs.JellyfinBaseURL == "" {
		return fmt.Errorf("jellyfin push integration missing base url")
	}
	body, _ := json.Marshal(map[string]any{"PositionTicks": int64(progress / 100 * 1e9)})
	endpoint := fmt.Sprintf("%s/Users/%s/PlayingItems/%s/Progress", specs.JellyfinBaseURL, specs.JellyfinUsername, externalItemID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("jellyfin push responded %s", resp.Status)
	}
	return nil
}

// SyncToOwnedCollection forces metadataID into userID's Owned
// collection without touching progress, the sync_to_owned_collection
// operation SPEC_FULL §4.8 names for library-holdings integrations
// (Komga, Radarr, Sonarr) that report "you have this" rather than
// "you're watching this".
func (s *Service) SyncToOwnedCollection(ctx context.Context, userID, metadataID string) error {
	col, err := s.collections.GetOrCreate(ctx, userID, models.CollectionOwned)
	if err != nil {
		return err
	}
	return s.collections.AddEntity(ctx, &models.CollectionToEntity{
		CollectionID: col.ID, MetadataID: &metadataID,
	})
}

// recordAndCommit commits whatever result a yank/sink run produced
// (even a partial one, if the provider call itself failed after
// gathering some items) and writes the outcome back onto the
// integration row, auto-disabling once two runs in a row have failed
// so a dead server doesn't spin the sync job forever.
func (s *Service) recordAndCommit(ctx context.Context, in *models.Integration, result models.ImportResult, runErr error) error {
	if len(result.Completed) > 0 {
		committed := s.processor.Process(ctx, in.UserID, result, nil)
		result = committed
	}

	trigger := models.IntegrationTriggerResult{
		Ok: runErr == nil, EntitiesSeen: len(result.Completed), TriggeredOn: time.Now(),
	}
	if runErr != nil {
		trigger.Error = runErr.Error()
	} else if len(result.Failed) > 0 {
		trigger.Ok = false
		trigger.Error = fmt.Sprintf("%d item(s) failed to commit", len(result.Failed))
	}
	if err := s.integrations.RecordTrigger(ctx, in.ID, trigger); err != nil {
		s.log.Error().Err(err).Str("integrationId", in.ID).Msg("failed to record integration trigger result")
	}

	if !trigger.Ok && in.TriggerResult != nil && !in.TriggerResult.Ok {
		if err := s.integrations.SetDisabled(ctx, in.ID, true); err != nil {
			s.log.Error().Err(err).Str("integrationId", in.ID).Msg("failed to auto-disable integration")
		} else {
			s.log.Warn().Str("integrationId", in.ID).Msg("integration auto-disabled after repeated failures")
		}
	}
	if runErr != nil {
		return runErr
	}
	return nil
}
