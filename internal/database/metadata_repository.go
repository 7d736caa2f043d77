package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"ryotgo/internal/apperror"
	"ryotgo/models"
)

// MetadataRepository persists the generic catalog row and its edges.
type MetadataRepository struct {
	db *DB
}

func NewMetadataRepository(db *DB) *MetadataRepository {
	return &MetadataRepository{db: db}
}

// CommitMetadata looks up an existing (lot, source, identifier) row or
// inserts a stub from partial, returning the row either way. This is the
// provider-aggregation layer's single entry point for turning a search
// result into a durable identity before attaching full details.
func (r *MetadataRepository) CommitMetadata(ctx context.Context, partial models.PartialMetadata) (*models.Metadata, error) {
	existing, err := r.getBySourceIdentifier(ctx, partial.Lot, partial.Source, partial.Identifier)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	id := models.NewID(models.PrefixMetadata)
	assets := models.MetadataAssets{}
	if partial.Image != "" {
		assets.RemoteImages = []string{partial.Image}
	}
	assetsJSON, _ := json.Marshal(assets)
	specificsJSON, _ := json.Marshal(models.MetadataSpecifics{})

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO metadata (id, lot, source, identifier, title, is_partial, assets, specifics)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6, $7)
		ON CONFLICT (lot, source, identifier) DO NOTHING`,
		id, partial.Lot, partial.Source, partial.Identifier, partial.Title, assetsJSON, specificsJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting partial metadata: %w", err)
	}
	return r.getBySourceIdentifier(ctx, partial.Lot, partial.Source, partial.Identifier)
}

func (r *MetadataRepository) getBySourceIdentifier(ctx context.Context, lot models.MediaLot, source models.MediaSource, identifier string) (*models.Metadata, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, lot, source, identifier, title, description, publish_year, publish_date,
		       is_nsfw, is_partial, provider_rating, source_url, original_language,
		       production_status, assets, specifics, external_identifiers, watch_providers,
		       free_creators, created_on, last_updated_on
		FROM metadata WHERE lot = $1 AND source = $2 AND identifier = $3`,
		lot, source, identifier,
	)
	return scanMetadata(row)
}

// Get fetches a metadata row by its opaque ID.
func (r *MetadataRepository) Get(ctx context.Context, id string) (*models.Metadata, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, lot, source, identifier, title, description, publish_year, publish_date,
		       is_nsfw, is_partial, provider_rating, source_url, original_language,
		       production_status, assets, specifics, external_identifiers, watch_providers,
		       free_creators, created_on, last_updated_on
		FROM metadata WHERE id = $1`, id,
	)
	m, err := scanMetadata(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.New(apperror.KindNotFound, "metadata not found: "+id)
	}
	return m, err
}

// IDsForUser returns one page of the distinct metadata entities a user
// has any seen history, review, or collection membership for, ordered
// for stable pagination. The exporter (C7) pages over this rather than
// individual seen/review rows so one item's full history never splits
// across a page boundary.
func (r *MetadataRepository) IDsForUser(ctx context.Context, userID string, limit, offset int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM (
			SELECT DISTINCT metadata_id AS id FROM seen WHERE user_id = $1
			UNION
			SELECT DISTINCT metadata_id AS id FROM review WHERE user_id = $1 AND metadata_id IS NOT NULL
			UNION
			SELECT DISTINCT cte.metadata_id AS id FROM collection_to_entity cte
				JOIN collection c ON c.id = cte.collection_id
				WHERE c.user_id = $1 AND cte.metadata_id IS NOT NULL
		) ids ORDER BY id LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// UpdateDetails overwrites the full detail payload fetched from a
// provider, clearing IsPartial.
func (r *MetadataRepository) UpdateDetails(ctx context.Context, m *models.Metadata) error {
	assetsJSON, err := json.Marshal(m.Assets)
	if err != nil {
		return err
	}
	specificsJSON, err := json.Marshal(m.Specifics)
	if err != nil {
		return err
	}
	externalJSON, err := json.Marshal(m.ExternalIdentifiers)
	if err != nil {
		return err
	}
	watchJSON, err := json.Marshal(m.WatchProviders)
	if err != nil {
		return err
	}
	creatorsJSON, err := json.Marshal(m.FreeCreators)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE metadata SET
			title = $2, description = $3, publish_year = $4, publish_date = $5,
			is_nsfw = $6, is_partial = FALSE, provider_rating = $7, source_url = $8,
			original_language = $9, production_status = $10, assets = $11, specifics = $12,
			external_identifiers = $13, watch_providers = $14, free_creators = $15,
			last_updated_on = now()
		WHERE id = $1`,
		m.ID, m.Title, m.Description, m.PublishYear, m.PublishDate, m.IsNSFW,
		decimalOrNil(m.ProviderRating), m.SourceURL, m.OriginalLanguage, m.ProductionStatus,
		assetsJSON, specificsJSON, externalJSON, watchJSON, creatorsJSON,
	)
	return err
}

// SearchByTitle performs a trigram-similarity search over titles,
// backed by the metadata.title_trgm generated column and its GIN index.
func (r *MetadataRepository) SearchByTitle(ctx context.Context, lot models.MediaLot, query string, limit int) ([]*models.Metadata, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, lot, source, identifier, title, description, publish_year, publish_date,
		       is_nsfw, is_partial, provider_rating, source_url, original_language,
		       production_status, assets, specifics, external_identifiers, watch_providers,
		       free_creators, created_on, last_updated_on
		FROM metadata
		WHERE lot = $1 AND title_trgm % lower($2)
		ORDER BY similarity(title_trgm, lower($2)) DESC
		LIMIT $3`, lot, query, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Metadata
	for rows.Next() {
		m, err := scanMetadata(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMetadata(row rowScanner) (*models.Metadata, error) {
	var m models.Metadata
	var assetsJSON, specificsJSON, externalJSON, watchJSON, creatorsJSON []byte
	var rating sql.NullString

	err := row.Scan(
		&m.ID, &m.Lot, &m.Source, &m.Identifier, &m.Title, &m.Description,
		&m.PublishYear, &m.PublishDate, &m.IsNSFW, &m.IsPartial, &rating,
		&m.SourceURL, &m.OriginalLanguage, &m.ProductionStatus, &assetsJSON,
		&specificsJSON, &externalJSON, &watchJSON, &creatorsJSON,
		&m.CreatedOn, &m.LastUpdatedOn,
	)
	if err != nil {
		return nil, err
	}
	if rating.Valid {
		m.ProviderRating, _ = decimal.NewFromString(rating.String)
	}
	_ = json.Unmarshal(assetsJSON, &m.Assets)
	_ = json.Unmarshal(specificsJSON, &m.Specifics)
	_ = json.Unmarshal(externalJSON, &m.ExternalIdentifiers)
	_ = json.Unmarshal(watchJSON, &m.WatchProviders)
	_ = json.Unmarshal(creatorsJSON, &m.FreeCreators)
	return &m, nil
}

func decimalOrNil(d decimal.Decimal) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}

// PersonRepository persists creator/actor/studio identities.
type PersonRepository struct {
	db *DB
}

func NewPersonRepository(db *DB) *PersonRepository {
	return &PersonRepository{db: db}
}

// CommitPerson looks up or inserts a stub Person row, mirroring
// CommitMetadata's identity-then-detail flow.
func (r *PersonRepository) CommitPerson(ctx context.Context, partial models.PartialPerson) (*models.Person, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, source, identifier, name, description, source_specifics, images, website, created_on
		FROM person WHERE source = $1 AND identifier = $2`, partial.Source, partial.Identifier)
	p, err := scanPerson(row)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	id := models.NewID(models.PrefixPerson)
	specificsJSON, _ := json.Marshal(partial.SourceSpecifics)
	var images []string
	if partial.Image != "" {
		images = []string{partial.Image}
	}
	imagesJSON, _ := json.Marshal(images)

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO person (id, source, identifier, name, source_specifics, images)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (source, identifier) DO NOTHING`,
		id, partial.Source, partial.Identifier, partial.Name, specificsJSON, imagesJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting partial person: %w", err)
	}
	row = r.db.QueryRowContext(ctx, `
		SELECT id, source, identifier, name, description, source_specifics, images, website, created_on
		FROM person WHERE source = $1 AND identifier = $2`, partial.Source, partial.Identifier)
	return scanPerson(row)
}

// UpdateDetails overwrites a previously-committed stub with the full
// detail shape person_details returns, the Person analogue of
// MetadataRepository.UpdateDetails.
func (r *PersonRepository) UpdateDetails(ctx context.Context, p *models.Person) error {
	specificsJSON, err := json.Marshal(p.SourceSpecifics)
	if err != nil {
		return err
	}
	imagesJSON, err := json.Marshal(p.Images)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE person SET
			name = $2, description = $3, source_specifics = $4, images = $5, website = $6
		WHERE id = $1`,
		p.ID, p.Name, p.Description, specificsJSON, imagesJSON, p.Website,
	)
	return err
}

// Get fetches a single person by ID.
func (r *PersonRepository) Get(ctx context.Context, id string) (*models.Person, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, source, identifier, name, description, source_specifics, images, website, created_on
		FROM person WHERE id = $1`, id)
	p, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.New(apperror.KindNotFound, "person not found: "+id)
	}
	return p, err
}

// IDsForUser returns one page of the distinct people a user has reviewed
// or added to a collection, for the exporter's (C7) paginated streaming.
func (r *PersonRepository) IDsForUser(ctx context.Context, userID string, limit, offset int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT p.id FROM person p
		WHERE EXISTS (SELECT 1 FROM review rv WHERE rv.person_id = p.id AND rv.user_id = $1)
		   OR EXISTS (
		       SELECT 1 FROM collection_to_entity cte
		       JOIN collection c ON c.id = cte.collection_id
		       WHERE cte.person_id = p.id AND c.user_id = $1
		   )
		ORDER BY p.id LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func scanPerson(row rowScanner) (*models.Person, error) {
	var p models.Person
	var specificsJSON, imagesJSON []byte
	err := row.Scan(&p.ID, &p.Source, &p.Identifier, &p.Name, &p.Description,
		&specificsJSON, &imagesJSON, &p.Website, &p.CreatedOn)
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal(specificsJSON, &p.SourceSpecifics)
	_ = json.Unmarshal(imagesJSON, &p.Images)
	return &p, nil
}

// MetadataGroupRepository persists group (series/trilogy) rows.
type MetadataGroupRepository struct {
	db *DB
}

func NewMetadataGroupRepository(db *DB) *MetadataGroupRepository {
	return &MetadataGroupRepository{db: db}
}

// CommitMetadataGroup looks up or inserts a stub MetadataGroup row.
func (r *MetadataGroupRepository) CommitMetadataGroup(ctx context.Context, partial models.PartialMetadataGroup) (*models.MetadataGroup, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, lot, source, identifier, title, description, parts, created_on
		FROM metadata_group WHERE lot = $1 AND source = $2 AND identifier = $3`,
		partial.Lot, partial.Source, partial.Identifier)
	g, err := scanMetadataGroup(row)
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	id := models.NewID(models.PrefixMetadataGroup)
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO metadata_group (id, lot, source, identifier, title, parts)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (lot, source, identifier) DO NOTHING`,
		id, partial.Lot, partial.Source, partial.Identifier, partial.Title, partial.Parts,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting partial metadata group: %w", err)
	}
	row = r.db.QueryRowContext(ctx, `
		SELECT id, lot, source, identifier, title, description, parts, created_on
		FROM metadata_group WHERE lot = $1 AND source = $2 AND identifier = $3`,
		partial.Lot, partial.Source, partial.Identifier)
	return scanMetadataGroup(row)
}

// Get fetches a single metadata group by ID.
func (r *MetadataGroupRepository) Get(ctx context.Context, id string) (*models.MetadataGroup, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, lot, source, identifier, title, description, parts, created_on
		FROM metadata_group WHERE id = $1`, id)
	g, err := scanMetadataGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.New(apperror.KindNotFound, "metadata group not found: "+id)
	}
	return g, err
}

// IDsForUser returns one page of the distinct metadata groups a user has
// reviewed or added to a collection, for the exporter's (C7) paginated
// streaming.
func (r *MetadataGroupRepository) IDsForUser(ctx context.Context, userID string, limit, offset int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT g.id FROM metadata_group g
		WHERE EXISTS (SELECT 1 FROM review rv WHERE rv.metadata_group_id = g.id AND rv.user_id = $1)
		   OR EXISTS (
		       SELECT 1 FROM collection_to_entity cte
		       JOIN collection c ON c.id = cte.collection_id
		       WHERE cte.metadata_group_id = g.id AND c.user_id = $1
		   )
		ORDER BY g.id LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func scanMetadataGroup(row rowScanner) (*models.MetadataGroup, error) {
	var g models.MetadataGroup
	err := row.Scan(&g.ID, &g.Lot, &g.Source, &g.Identifier, &g.Title, &g.Description, &g.Parts, &g.CreatedOn)
	if err != nil {
		return nil, err
	}
	return &g, nil
}
