package database

import (
	"context"
	"time"
)

// RevokedTokenRepository is the JWT denylist backing Session.Revoke: a
// JWT is otherwise stateless, so a single logged-out token is tracked
// here by its jti until its own expiry makes the row moot.
type RevokedTokenRepository struct {
	db *DB
}

func NewRevokedTokenRepository(db *DB) *RevokedTokenRepository {
	return &RevokedTokenRepository{db: db}
}

// Revoke records jti as no longer valid, even though its signature
// would otherwise still verify until expiresOn.
func (r *RevokedTokenRepository) Revoke(ctx context.Context, jti, userID string, expiresOn time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO revoked_token (jti, user_id, expires_on)
		VALUES ($1,$2,$3)
		ON CONFLICT (jti) DO NOTHING`,
		jti, userID, expiresOn,
	)
	return err
}

// IsRevoked reports whether jti has been explicitly revoked.
func (r *RevokedTokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM revoked_token WHERE jti = $1)`, jti).Scan(&exists)
	return exists, err
}

// PruneExpired deletes revocation rows for tokens that would now fail
// signature-expiry verification anyway, run periodically by
// KindPerformBackgroundTasks so the table doesn't grow unbounded.
func (r *RevokedTokenRepository) PruneExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM revoked_token WHERE expires_on < now()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
