// Package providers implements the catalog-provider adapters (C1): one
// per external metadata source, each exposing a subset of a shared
// capability set. Adapters never write to the canonical store; they
// return values for the caller (internal/database's commit_* methods)
// to persist.
package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ryotgo/models"
)

// PageSize is the fixed search page size every adapter paginates by.
const PageSize = 20

// errUnavailable and errNotFound are the two sentinel causes every
// adapter wraps its failures in, mirroring the teacher's fileCache
// error style (a small fixed set of wrapped sentinels, not a grab bag
// of ad hoc error strings).
var (
	errUnavailable = errors.New("provider unavailable")
	errNotFound    = errors.New("provider item not found")
)

// Unavailable wraps cause as a transient failure (network, 5xx,
// rate-limit) a job handler should retry.
func Unavailable(provider string, cause error) error {
	return fmt.Errorf("%s: %w: %v", provider, errUnavailable, cause)
}

// NotFound wraps cause as a permanent failure (404, unparseable
// response) a job handler must not retry.
func NotFound(provider string, cause error) error {
	return fmt.Errorf("%s: %w: %v", provider, errNotFound, cause)
}

// IsUnavailable reports whether err (or a cause in its chain) was
// constructed with Unavailable.
func IsUnavailable(err error) bool { return errors.Is(err, errUnavailable) }

// IsNotFound reports whether err (or a cause in its chain) was
// constructed with NotFound.
func IsNotFound(err error) bool { return errors.Is(err, errNotFound) }

// SearchResults is one page of a metadata_search/group_search/
// people_search call.
type SearchResults[T any] struct {
	Items    []T
	NextPage *int
}

// MetadataSearchItem is one row of a metadata_search result: enough to
// render a picker and, if selected, call metadata_details.
type MetadataSearchItem struct {
	Identifier  string
	Title       string
	Image       string
	PublishYear *int
}

// PersonSearchItem is one row of a people_search result.
type PersonSearchItem struct {
	Identifier string
	Name       string
	Image      string
}

// MetadataGroupSearchItem is one row of a metadata_group_search result.
type MetadataGroupSearchItem struct {
	Identifier string
	Title      string
	Image      string
	Parts      int
}

// RelatedMetadata is one entry of a person's related_metadata list:
// their role (actor, director, writer, ...) on a stub of the work.
type RelatedMetadata struct {
	Role      string
	Character string
	Stub      models.PartialMetadata
}

// MetadataDetails is the fully populated shape metadata_details
// returns: the commit-able partial plus every specifics/assets field
// an adapter can source, plus partial-metadata suggestions.
type MetadataDetails struct {
	Partial          models.PartialMetadata
	Description      string
	PublishYear      *int
	PublishDate      *time.Time
	ProviderRating   string // decimal string; empty if unrated
	SourceURL        string
	OriginalLanguage string
	ProductionStatus models.ProductionStatus
	Assets           models.MetadataAssets
	Specifics        models.MetadataSpecifics
	Genres           []string
	People           []MetadataPersonCredit
	WatchProviders   []models.WatchProvider
	Suggestions      []models.PartialMetadata
}

// MetadataPersonCredit is one crew/cast credit surfaced by
// metadata_details, the inverse edge of RelatedMetadata.
type MetadataPersonCredit struct {
	Role      string
	Character string
	Person    models.PartialPerson
}

// PersonDetails is the fully populated shape person_details returns.
type PersonDetails struct {
	Partial         models.PartialPerson
	Description     string
	Website         string
	Images          []string
	RelatedMetadata []RelatedMetadata
}

// MetadataGroupDetails is the fully populated shape
// metadata_group_details returns.
type MetadataGroupDetails struct {
	Partial     models.PartialMetadataGroup
	Description string
	Parts       []models.PartialMetadata
}

// Translation is the result of a translate_* call: whichever of
// title/description the provider has for the requested language.
type Translation struct {
	Title       string
	Description string
}

// MetadataCapable is implemented by adapters that can search and
// resolve individual titles.
type MetadataCapable interface {
	SearchMetadata(ctx context.Context, query string, page int, includeNSFW bool) (SearchResults[MetadataSearchItem], error)
	MetadataDetails(ctx context.Context, identifier string) (MetadataDetails, error)
}

// PersonCapable is implemented by adapters that expose a people
// catalog (cast, crew, authors, studios).
type PersonCapable interface {
	SearchPeople(ctx context.Context, query string, page int) (SearchResults[PersonSearchItem], error)
	PersonDetails(ctx context.Context, identifier string) (PersonDetails, error)
}

// GroupCapable is implemented by adapters with a notion of a grouped
// work (franchise, trilogy, box set).
type GroupCapable interface {
	SearchMetadataGroup(ctx context.Context, query string, page int) (SearchResults[MetadataGroupSearchItem], error)
	MetadataGroupDetails(ctx context.Context, identifier string) (MetadataGroupDetails, error)
}

// GenreCapable is implemented by adapters with a fixed genre
// vocabulary they can enumerate up front.
type GenreCapable interface {
	GenreNames(ctx context.Context) ([]string, error)
}

// TranslateCapable is implemented by adapters that can fetch a
// localized title/description for an already-known identifier.
type TranslateCapable interface {
	TranslateMetadata(ctx context.Context, identifier, language string) (Translation, error)
}

// Source names the provider's MediaSource, used to tag every
// PartialMetadata/PartialPerson/PartialMetadataGroup it produces.
type Source interface {
	Source() models.MediaSource
}
