package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"ryotgo/internal/apperror"
	"ryotgo/models"
)

// UserRepository persists accounts and their nested preferences.
type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user with default preferences.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = models.NewID(models.PrefixUser)
	}
	prefsJSON, err := json.Marshal(u.Preferences)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO "user" (id, name, password_hash, oidc_issuer_id, lot, preferences)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		u.ID, u.Name, nullIfEmpty(u.PasswordHash), nullIfEmpty(u.OIDCIssuerID), u.Lot, prefsJSON,
	)
	return err
}

// ByName looks a user up by their unique display name, used by the
// password login flow.
func (r *UserRepository) ByName(ctx context.Context, name string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, password_hash, oidc_issuer_id, lot, preferences, two_factor_information,
		       is_disabled, sessions_invalidated_at, created_on
		FROM "user" WHERE name = $1`, name)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.New(apperror.KindNotFound, "user not found: "+name)
	}
	return u, err
}

// Get fetches a user by ID.
func (r *UserRepository) Get(ctx context.Context, id string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, password_hash, oidc_issuer_id, lot, preferences, two_factor_information,
		       is_disabled, sessions_invalidated_at, created_on
		FROM "user" WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.New(apperror.KindNotFound, "user not found: "+id)
	}
	return u, err
}

// InvalidateSessions bumps sessions_invalidated_at to now, rejecting
// every JWT issued before this instant regardless of its own
// expiry — the bulk-revoke path a password change or "log out
// everywhere" action takes.
func (r *UserRepository) InvalidateSessions(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE "user" SET sessions_invalidated_at = now() WHERE id = $1`, userID)
	return err
}

// UpdatePreferences persists a modified UserPreferences document.
func (r *UserRepository) UpdatePreferences(ctx context.Context, userID string, prefs models.UserPreferences) error {
	prefsJSON, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `UPDATE "user" SET preferences = $2 WHERE id = $1`, userID, prefsJSON)
	return err
}

// UpdateTwoFactor persists TOTP enrollment state.
func (r *UserRepository) UpdateTwoFactor(ctx context.Context, userID string, tf *models.TwoFactorInformation) error {
	tfJSON, err := json.Marshal(tf)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `UPDATE "user" SET two_factor_information = $2 WHERE id = $1`, userID, tfJSON)
	return err
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var passwordHash, oidcIssuerID sql.NullString
	var prefsJSON, tfJSON []byte
	var invalidatedAt sql.NullTime
	err := row.Scan(&u.ID, &u.Name, &passwordHash, &oidcIssuerID, &u.Lot, &prefsJSON,
		&tfJSON, &u.IsDisabled, &invalidatedAt, &u.CreatedOn)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = passwordHash.String
	u.OIDCIssuerID = oidcIssuerID.String
	_ = json.Unmarshal(prefsJSON, &u.Preferences)
	if len(tfJSON) > 0 {
		_ = json.Unmarshal(tfJSON, &u.TwoFactor)
	}
	if invalidatedAt.Valid {
		t := invalidatedAt.Time
		u.SessionsInvalidatedAt = &t
	}
	return &u, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
