package models

import "time"

// IntegrationProviderSpecifics carries the per-provider connection
// details an Integration needs. Exactly one sub-struct is populated,
// chosen by Provider; this mirrors MetadataSpecifics' one-lot-active
// shape rather than a separate table per provider.
type IntegrationProviderSpecifics struct {
	AudiobookshelfBaseURL string `json:"audiobookshelfBaseUrl,omitempty"`
	AudiobookshelfToken   string `json:"audiobookshelfToken,omitempty"`
	KomgaBaseURL          string `json:"komgaBaseUrl,omitempty"`
	KomgaUsername         string `json:"komgaUsername,omitempty"`
	KomgaPassword         string `json:"komgaPassword,omitempty"`
	PlexUsername          string `json:"plexUsername,omitempty"`
	PlexToken             string `json:"plexToken,omitempty"`
	JellyfinBaseURL       string `json:"jellyfinBaseUrl,omitempty"`
	JellyfinUsername      string `json:"jellyfinUsername,omitempty"`
	JellyfinPassword      string `json:"jellyfinPassword,omitempty"`
	RadarrBaseURL         string `json:"radarrBaseUrl,omitempty"`
	RadarrAPIKey          string `json:"radarrApiKey,omitempty"`
	RadarrProfileID       int    `json:"radarrProfileId,omitempty"`
	SonarrBaseURL         string `json:"sonarrBaseUrl,omitempty"`
	SonarrAPIKey          string `json:"sonarrApiKey,omitempty"`
	SonarrProfileID       int    `json:"sonarrProfileId,omitempty"`
}

// IntegrationTriggerResult is what a yank/push run (or a sink delivery)
// leaves on the integration row instead of an ImportReport: integrations
// are a standing connection, not a one-shot import, so their outcome is
// "ok, N entities touched" or "error, <cause>" rather than a full report.
type IntegrationTriggerResult struct {
	Ok           bool      `json:"ok"`
	EntitiesSeen int       `json:"entitiesSeen"`
	Error        string    `json:"error,omitempty"`
	TriggeredOn  time.Time `json:"triggeredOn"`
}

// Integration is a user's standing connection to an external media
// server or *arr instance (C8): yank polls it, sink receives webhooks
// from it, push writes to it.
type Integration struct {
	ID                string                        `json:"id"`
	UserID            string                        `json:"userId"`
	Lot               IntegrationLot                `json:"lot"`
	Provider          IntegrationProvider            `json:"provider"`
	ProviderSpecifics IntegrationProviderSpecifics   `json:"providerSpecifics"`
	Slug              string                        `json:"slug"` // sink webhook path segment
	IsDisabled        bool                          `json:"isDisabled"`
	LastPing          *time.Time                    `json:"lastPing,omitempty"`
	TriggerResult     *IntegrationTriggerResult      `json:"triggerResult,omitempty"`
	CreatedOn         time.Time                      `json:"createdOn"`
}
