package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"ryotgo/internal/apperror"
	"ryotgo/models"
)

// CollectionRepository persists collections and their polymorphic
// entity edges.
type CollectionRepository struct {
	db *DB
}

func NewCollectionRepository(db *DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

// EnsureDefaultCollections creates the six engine-maintained default
// collections for a newly registered user, matching the set in
// models.IsDefaultCollection. Idempotent: existing rows are left alone.
func (r *CollectionRepository) EnsureDefaultCollections(ctx context.Context, userID string) error {
	for _, name := range []string{
		models.CollectionWatchlist, models.CollectionInProgress, models.CollectionCompleted,
		models.CollectionMonitoring, models.CollectionOwned, models.CollectionReminders,
	} {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO collection (id, user_id, name) VALUES ($1, $2, $3)
			ON CONFLICT (user_id, name) DO NOTHING`,
			models.NewID(models.PrefixCollection), userID, name,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// ByName looks up a user's collection by name, the lookup path used
// whenever the consumption engine needs to reach a default collection.
func (r *CollectionRepository) ByName(ctx context.Context, userID, name string) (*models.Collection, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, description, information_template, created_on
		FROM collection WHERE user_id = $1 AND name = $2`, userID, name)
	c, err := scanCollection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.New(apperror.KindNotFound, "collection not found: "+name)
	}
	return c, err
}

func scanCollection(row rowScanner) (*models.Collection, error) {
	var c models.Collection
	var desc sql.NullString
	var tmplJSON []byte
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &desc, &tmplJSON, &c.CreatedOn)
	if err != nil {
		return nil, err
	}
	c.Description = desc.String
	if len(tmplJSON) > 0 {
		_ = json.Unmarshal(tmplJSON, &c.InformationTemplate)
	}
	return &c, nil
}

// GetOrCreate returns the user's collection named name, creating it with
// no description or template if it doesn't exist yet. Used by the import
// pipeline (C6) to land rows under arbitrary source-defined collection
// names (Trakt list titles, Goodreads shelves, ...) that aren't one of
// the six engine-maintained defaults.
func (r *CollectionRepository) GetOrCreate(ctx context.Context, userID, name string) (*models.Collection, error) {
	c, err := r.ByName(ctx, userID, name)
	if err == nil {
		return c, nil
	}
	if !apperror.Is(err, apperror.KindNotFound) {
		return nil, err
	}
	id := models.NewID(models.PrefixCollection)
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO collection (id, user_id, name) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, name) DO NOTHING`, id, userID, name)
	if err != nil {
		return nil, err
	}
	return r.ByName(ctx, userID, name)
}

// AddEntity inserts a CollectionToEntity edge, ignoring the call if the
// entity is already a member (add-to-collection is idempotent).
func (r *CollectionRepository) AddEntity(ctx context.Context, e *models.CollectionToEntity) error {
	if e.ID == "" {
		e.ID = models.NewID("cte_")
	}
	infoJSON, err := json.Marshal(e.Information)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO collection_to_entity
			(id, collection_id, metadata_id, metadata_group_id, person_id, exercise_id,
			 workout_id, workout_template_id, rank, information)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT DO NOTHING`,
		e.ID, e.CollectionID, e.MetadataID, e.MetadataGroupID, e.PersonID, e.ExerciseID,
		e.WorkoutID, e.WorkoutTemplateID, e.Rank, nullIfEmptyJSON(infoJSON),
	)
	return err
}

// RemoveEntity deletes the edge between a collection and an entity.
func (r *CollectionRepository) RemoveEntity(ctx context.Context, collectionID, entityID string, lot models.EntityLot) error {
	column, err := entityColumn(lot)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`DELETE FROM collection_to_entity WHERE collection_id = $1 AND `+column+` = $2`,
		collectionID, entityID,
	)
	return err
}

// IsEntityInCollection reports whether entityID already belongs to the
// named collection for userID, used by handle_after_metadata_seen_tasks
// to avoid duplicate default-collection membership.
func (r *CollectionRepository) IsEntityInCollection(ctx context.Context, userID, name, entityID string, lot models.EntityLot) (bool, error) {
	column, err := entityColumn(lot)
	if err != nil {
		return false, err
	}
	var exists bool
	err = r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM collection_to_entity cte
			JOIN collection c ON c.id = cte.collection_id
			WHERE c.user_id = $1 AND c.name = $2 AND cte.`+column+` = $3
		)`, userID, name, entityID).Scan(&exists)
	return exists, err
}

// NamesForEntity returns the names of every collection entityID belongs
// to for userID, the inverse of AddEntity, used by the exporter (C7) to
// embed each item's collection memberships.
func (r *CollectionRepository) NamesForEntity(ctx context.Context, userID, entityID string, lot models.EntityLot) ([]string, error) {
	column, err := entityColumn(lot)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.name FROM collection c
		JOIN collection_to_entity cte ON cte.collection_id = c.id
		WHERE c.user_id = $1 AND cte.`+column+` = $2
		ORDER BY c.name`, userID, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func entityColumn(lot models.EntityLot) (string, error) {
	switch lot {
	case models.EntityMetadata:
		return "metadata_id", nil
	case models.EntityMetadataGroup:
		return "metadata_group_id", nil
	case models.EntityPerson:
		return "person_id", nil
	case models.EntityExercise:
		return "exercise_id", nil
	case models.EntityWorkout:
		return "workout_id", nil
	case models.EntityWorkoutTemplate:
		return "workout_template_id", nil
	default:
		return "", apperror.New(apperror.KindInvalidInput, "no collection edge column for entity lot: "+string(lot))
	}
}
