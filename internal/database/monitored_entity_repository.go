package database

import (
	"context"

	"ryotgo/models"
)

// MonitoredEntityRepository persists per-user subscriptions to change
// notifications on a collection-to-entity row (C9).
type MonitoredEntityRepository struct {
	db *DB
}

func NewMonitoredEntityRepository(db *DB) *MonitoredEntityRepository {
	return &MonitoredEntityRepository{db: db}
}

// Subscribe records userID's interest in changes to (entityID, lot),
// idempotent on the (user, entity, lot) unique constraint.
func (r *MonitoredEntityRepository) Subscribe(ctx context.Context, m *models.MonitoredEntity) error {
	if m.ID == "" {
		m.ID = models.NewID("mon_")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO monitored_entity (id, user_id, entity_id, entity_lot, collection_to_entity_id)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (user_id, entity_id, entity_lot) DO NOTHING`,
		m.ID, m.UserID, m.EntityID, m.EntityLot, m.CollectionToEntityID,
	)
	return err
}

// Unsubscribe removes userID's subscription to (entityID, lot).
func (r *MonitoredEntityRepository) Unsubscribe(ctx context.Context, userID, entityID string, lot models.EntityLot) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM monitored_entity WHERE user_id = $1 AND entity_id = $2 AND entity_lot = $3`,
		userID, entityID, lot,
	)
	return err
}

// SubscribersOf returns every user monitoring (entityID, lot), the fan
// out list MonitoringService.NotifyChange walks on a diffed metadata
// refresh.
func (r *MonitoredEntityRepository) SubscribersOf(ctx context.Context, entityID string, lot models.EntityLot) ([]*models.MonitoredEntity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, entity_id, entity_lot, collection_to_entity_id, created_on
		FROM monitored_entity WHERE entity_id = $1 AND entity_lot = $2`, entityID, lot)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.MonitoredEntity
	for rows.Next() {
		var m models.MonitoredEntity
		if err := rows.Scan(&m.ID, &m.UserID, &m.EntityID, &m.EntityLot, &m.CollectionToEntityID, &m.CreatedOn); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// TouchLastUpdated refreshes the owning collection-to-entity row's
// last_updated_on after a successful delivery, per SPEC_FULL §4.9.
func (r *MonitoredEntityRepository) TouchLastUpdated(ctx context.Context, collectionToEntityID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE collection_to_entity SET last_updated_on = now() WHERE id = $1`, collectionToEntityID)
	return err
}

// DistinctMonitoredMetadataIDs returns every metadata id with at least
// one active subscriber, the candidate set the metadata-refresh cron
// sweeps: a title nobody monitors never needs a background refetch.
func (r *MonitoredEntityRepository) DistinctMonitoredMetadataIDs(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT entity_id FROM monitored_entity WHERE entity_lot = $1 LIMIT $2`,
		models.EntityMetadata, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
