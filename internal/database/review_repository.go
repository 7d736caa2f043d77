package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"ryotgo/internal/apperror"
	"ryotgo/models"
)

// ReviewRepository persists ratings and written reviews.
type ReviewRepository struct {
	db *DB
}

func NewReviewRepository(db *DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Upsert inserts a new review or, if the user already reviewed this
// entity, updates it in place (one review per user per entity).
func (r *ReviewRepository) Upsert(ctx context.Context, rv *models.Review) error {
	if rv.ID == "" {
		rv.ID = models.NewID(models.PrefixReview)
	}
	commentsJSON, err := json.Marshal(rv.Comments)
	if err != nil {
		return err
	}
	showJSON, _ := json.Marshal(rv.ShowExtra)
	podcastJSON, _ := json.Marshal(rv.PodcastExtra)

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO review
			(id, user_id, metadata_id, metadata_group_id, person_id, exercise_id, collection_id,
			 rating, text_content, visibility, spoiler, comments, show_extra, podcast_extra)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		rv.ID, rv.UserID, rv.MetadataID, rv.MetadataGroupID, rv.PersonID, rv.ExerciseID,
		rv.CollectionID, decimalPtrOrNil(rv.Rating), rv.TextContent, rv.Visibility, rv.Spoiler,
		commentsJSON, nullIfEmptyJSON(showJSON), nullIfEmptyJSON(podcastJSON),
	)
	return err
}

// Get loads a single review by id, the lookup the review_posted job
// handler needs to resolve what was posted before it can notify anyone.
func (r *ReviewRepository) Get(ctx context.Context, id string) (*models.Review, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, metadata_id, metadata_group_id, person_id, exercise_id, collection_id,
		       rating, text_content, visibility, spoiler, comments, show_extra, podcast_extra,
		       created_on, last_updated_on
		FROM review WHERE id = $1`, id)
	rv, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.New(apperror.KindNotFound, "review not found")
	}
	return rv, err
}

// ForEntity returns all public-or-own reviews for an entity.
func (r *ReviewRepository) ForEntity(ctx context.Context, entityID string, lot models.EntityLot) ([]*models.Review, error) {
	column, err := reviewEntityColumn(lot)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, metadata_id, metadata_group_id, person_id, exercise_id, collection_id,
		       rating, text_content, visibility, spoiler, comments, show_extra, podcast_extra,
		       created_on, last_updated_on
		FROM review WHERE `+column+` = $1
		ORDER BY created_on DESC`, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

// CreatedSince returns every review a user posted at or after since,
// used by the analytics rollup (C10) to fold the per-entity-kind
// review counters.
func (r *ReviewRepository) CreatedSince(ctx context.Context, userID string, since time.Time) ([]*models.Review, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, metadata_id, metadata_group_id, person_id, exercise_id, collection_id,
		       rating, text_content, visibility, spoiler, comments, show_extra, podcast_extra,
		       created_on, last_updated_on
		FROM review WHERE user_id = $1 AND created_on >= $2
		ORDER BY created_on ASC`, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

// Delete removes a review by ID, scoped to its owner.
func (r *ReviewRepository) Delete(ctx context.Context, userID, reviewID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM review WHERE id = $1 AND user_id = $2`, reviewID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.New(apperror.KindNotFound, "review not found or not owned: "+reviewID)
	}
	return nil
}

func reviewEntityColumn(lot models.EntityLot) (string, error) {
	switch lot {
	case models.EntityMetadata:
		return "metadata_id", nil
	case models.EntityMetadataGroup:
		return "metadata_group_id", nil
	case models.EntityPerson:
		return "person_id", nil
	case models.EntityExercise:
		return "exercise_id", nil
	case models.EntityCollection:
		return "collection_id", nil
	default:
		return "", apperror.New(apperror.KindInvalidInput, "no review edge column for entity lot: "+string(lot))
	}
}

func scanReview(row rowScanner) (*models.Review, error) {
	var rv models.Review
	var rating sql.NullString
	var commentsJSON, showJSON, podcastJSON []byte
	err := row.Scan(&rv.ID, &rv.UserID, &rv.MetadataID, &rv.MetadataGroupID, &rv.PersonID,
		&rv.ExerciseID, &rv.CollectionID, &rating, &rv.TextContent, &rv.Visibility, &rv.Spoiler,
		&commentsJSON, &showJSON, &podcastJSON, &rv.CreatedOn, &rv.LastUpdatedOn)
	if err != nil {
		return nil, err
	}
	if rating.Valid {
		d, err := decimal.NewFromString(rating.String)
		if err == nil {
			rv.Rating = &d
		}
	}
	_ = json.Unmarshal(commentsJSON, &rv.Comments)
	if len(showJSON) > 0 {
		_ = json.Unmarshal(showJSON, &rv.ShowExtra)
	}
	if len(podcastJSON) > 0 {
		_ = json.Unmarshal(podcastJSON, &rv.PodcastExtra)
	}
	return &rv, nil
}

func decimalPtrOrNil(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}
