package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShowSpecifics holds season/episode structure for LotShow.
type ShowSpecifics struct {
	Seasons []ShowSeason `json:"seasons"`
}

type ShowSeason struct {
	SeasonNumber int           `json:"seasonNumber"`
	Name         string        `json:"name"`
	Overview     string        `json:"overview,omitempty"`
	Episodes     []ShowEpisode `json:"episodes"`
	// specials carry SeasonNumber == 0 and are excluded from
	// is_metadata_finished_by_user's episode enumeration.
}

type ShowEpisode struct {
	EpisodeNumber int        `json:"episodeNumber"`
	Name          string     `json:"name"`
	Overview      string     `json:"overview,omitempty"`
	Runtime       int        `json:"runtime,omitempty"` // minutes
	PublishDate   *time.Time `json:"publishDate,omitempty"`
	Images        []string   `json:"images,omitempty"`
}

// PodcastSpecifics holds episode structure for LotPodcast.
type PodcastSpecifics struct {
	TotalEpisodes int              `json:"totalEpisodes"`
	Episodes      []PodcastEpisode `json:"episodes"`
}

type PodcastEpisode struct {
	EpisodeNumber int        `json:"episodeNumber"`
	Title         string     `json:"title"`
	Runtime       int        `json:"runtime,omitempty"` // minutes
	PublishDate   *time.Time `json:"publishDate,omitempty"`
}

// BookSpecifics holds page-count and related detail for LotBook.
type BookSpecifics struct {
	Pages int `json:"pages,omitempty"`
}

// AnimeSpecifics holds episode-count detail for LotAnime.
type AnimeSpecifics struct {
	Episodes int `json:"episodes,omitempty"`
}

// MangaSpecifics holds chapter/volume counts for LotManga.
type MangaSpecifics struct {
	Chapters decimal.Decimal `json:"chapters,omitempty"`
	Volumes  int             `json:"volumes,omitempty"`
}

// VideoGameSpecifics holds platform detail for LotVideoGame.
type VideoGameSpecifics struct {
	Platforms []string `json:"platforms,omitempty"`
}

// VisualNovelSpecifics holds length detail for LotVisualNovel.
type VisualNovelSpecifics struct {
	LengthMinutes int `json:"lengthMinutes,omitempty"`
}

// AudioBookSpecifics holds runtime detail for LotAudioBook.
type AudioBookSpecifics struct {
	Runtime int `json:"runtime,omitempty"` // minutes
}

// MusicSpecifics holds track/album detail for LotMusic.
type MusicSpecifics struct {
	ByVariousArtists bool `json:"byVariousArtists,omitempty"`
	DurationSeconds  int  `json:"durationSeconds,omitempty"`
}

// MetadataSpecifics is the tagged union of lot-specific structured data;
// exactly one field is populated, selected by the owning Metadata's Lot.
type MetadataSpecifics struct {
	Show        *ShowSpecifics        `json:"show,omitempty"`
	Podcast     *PodcastSpecifics     `json:"podcast,omitempty"`
	Book        *BookSpecifics        `json:"book,omitempty"`
	Anime       *AnimeSpecifics       `json:"anime,omitempty"`
	Manga       *MangaSpecifics       `json:"manga,omitempty"`
	VideoGame   *VideoGameSpecifics   `json:"videoGame,omitempty"`
	VisualNovel *VisualNovelSpecifics `json:"visualNovel,omitempty"`
	AudioBook   *AudioBookSpecifics   `json:"audioBook,omitempty"`
	Music       *MusicSpecifics       `json:"music,omitempty"`
}

// MetadataAssets groups the remote/local media attached to a Metadata row.
type MetadataAssets struct {
	RemoteImages []string `json:"remoteImages,omitempty"`
	RemoteVideos []string `json:"remoteVideos,omitempty"`
	S3Images     []string `json:"s3Images,omitempty"`
	S3Videos     []string `json:"s3Videos,omitempty"`
}

// WatchProvider is a streaming/rental availability entry.
type WatchProvider struct {
	Name     string   `json:"name"`
	Image    string   `json:"image,omitempty"`
	Language string   `json:"language,omitempty"`
	Sites    []string `json:"sites,omitempty"`
}

// Metadata is the generic catalog row: a book, movie, show, or any other
// tracked media lot, sourced from exactly one provider.
type Metadata struct {
	ID                 string            `json:"id"`
	Lot                MediaLot          `json:"lot"`
	Source             MediaSource       `json:"source"`
	Identifier         string            `json:"identifier"`
	Title              string            `json:"title"`
	Description        string            `json:"description,omitempty"`
	PublishYear        *int              `json:"publishYear,omitempty"`
	PublishDate        *time.Time        `json:"publishDate,omitempty"`
	IsNSFW             bool              `json:"isNsfw"`
	IsPartial          bool              `json:"isPartial"`
	ProviderRating     decimal.Decimal   `json:"providerRating,omitempty"`
	SourceURL          string            `json:"sourceUrl,omitempty"`
	OriginalLanguage   string            `json:"originalLanguage,omitempty"`
	ProductionStatus   ProductionStatus  `json:"productionStatus,omitempty"`
	Assets             MetadataAssets    `json:"assets"`
	Specifics          MetadataSpecifics `json:"specifics"`
	ExternalIdentifiers map[string]string `json:"externalIdentifiers,omitempty"`
	WatchProviders     []WatchProvider   `json:"watchProviders,omitempty"`
	FreeCreators       []string          `json:"freeCreators,omitempty"`
	CreatedOn          time.Time         `json:"createdOn"`
	LastUpdatedOn      time.Time         `json:"lastUpdatedOn"`
}

// MetadataGroup is a set of Metadata rows (trilogy, series arc) with the
// same (lot, source, identifier) uniqueness rule as Metadata.
type MetadataGroup struct {
	ID          string      `json:"id"`
	Lot         MediaLot    `json:"lot"`
	Source      MediaSource `json:"source"`
	Identifier  string      `json:"identifier"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Parts       int         `json:"parts"`
	CreatedOn   time.Time   `json:"createdOn"`
}

// Person is the identity of a creator, actor, or studio.
type Person struct {
	ID              string            `json:"id"`
	Source          MediaSource       `json:"source"`
	Identifier      string            `json:"identifier"`
	Name            string            `json:"name"`
	Description     string            `json:"description,omitempty"`
	SourceSpecifics map[string]string `json:"sourceSpecifics,omitempty"`
	Images          []string          `json:"images,omitempty"`
	Website         string            `json:"website,omitempty"`
	CreatedOn       time.Time         `json:"createdOn"`
}

// Genre is a string label, many-to-many with Metadata.
type Genre struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MetadataToPerson is an edge between Metadata and Person.
type MetadataToPerson struct {
	MetadataID string `json:"metadataId"`
	PersonID   string `json:"personId"`
	Role       string `json:"role"`
	Character  string `json:"character,omitempty"`
	Index      int    `json:"index"`
}

// MetadataGroupToPerson is an edge between MetadataGroup and Person.
type MetadataGroupToPerson struct {
	MetadataGroupID string `json:"metadataGroupId"`
	PersonID        string `json:"personId"`
	Role            string `json:"role"`
	Character       string `json:"character,omitempty"`
	Index           int    `json:"index"`
}

// PartialMetadata is the input shape to commit_metadata: enough to look
// up or insert a stub row, deferring full detail population.
type PartialMetadata struct {
	Lot        MediaLot
	Source     MediaSource
	Identifier string
	Title      string
	Image      string
}

// PartialPerson is the input shape to commit_person.
type PartialPerson struct {
	Source          MediaSource
	Identifier      string
	Name            string
	SourceSpecifics map[string]string
	Image           string
}

// PartialMetadataGroup is the input shape to commit_metadata_group.
type PartialMetadataGroup struct {
	Lot        MediaLot
	Source     MediaSource
	Identifier string
	Title      string
	Parts      int
}
