// Package sessions implements login session issuance and two-factor
// enrollment (C12): JWTs signed with golang-jwt/jwt/v5 replace the
// teacher's opaque file-backed token, and pquerna/otp drives TOTP
// enrollment/verification with argon2id-hashed backup codes, matching
// the two_factor_information column internal/database.UserRepository
// already persists.
package sessions

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base32"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/argon2"

	"ryotgo/internal/apperror"
	"ryotgo/internal/database"
	"ryotgo/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

const (
	// DefaultAccessTokenTTL matches the teacher's 30-day default session
	// lifetime.
	DefaultAccessTokenTTL = 30 * 24 * time.Hour
	// PersistentTokenTTL is the "remember me" lifetime, unchanged from
	// the teacher's 100-year effectively-permanent session.
	PersistentTokenTTL = 100 * 365 * 24 * time.Hour

	backupCodeCount = 10
)

// Claims is the JWT payload issued on login: the registered claims
// plus the two fields every authenticated request path needs.
type Claims struct {
	UserID  string `json:"uid"`
	IsAdmin bool   `json:"adm"`
	jwt.RegisteredClaims
}

// Service issues and validates session JWTs and manages TOTP
// enrollment for the users package.
type Service struct {
	secret  []byte
	revoked *database.RevokedTokenRepository
	users   *database.UserRepository
	issuer  string
}

func NewService(jwtSecret []byte, revoked *database.RevokedTokenRepository, users *database.UserRepository, issuer string) *Service {
	return &Service{secret: jwtSecret, revoked: revoked, users: users, issuer: issuer}
}

// Issue signs a new session JWT for user, valid for ttl (callers pass
// DefaultAccessTokenTTL or PersistentTokenTTL).
func (s *Service) Issue(user *models.User, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		UserID:  user.ID,
		IsAdmin: user.Lot == models.UserLotAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses and verifies a session JWT: signature, expiry,
// explicit per-token revocation, and the issuing user's bulk
// sessions_invalidated_at cutoff.
func (s *Service) Validate(ctx context.Context, tokenString string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperror.New(apperror.KindSessionExpired, "session expired")
		}
		return nil, ErrInvalidToken
	}

	if s.revoked != nil {
		revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, apperror.New(apperror.KindSessionExpired, "session revoked")
		}
	}

	if s.users != nil {
		user, err := s.users.Get(ctx, claims.UserID)
		if err != nil {
			return nil, err
		}
		if user.SessionsInvalidatedAt != nil && claims.IssuedAt != nil &&
			claims.IssuedAt.Time.Before(*user.SessionsInvalidatedAt) {
			return nil, apperror.New(apperror.KindSessionExpired, "session revoked")
		}
	}

	return &claims, nil
}

// Revoke denylists one token by its jti, honored even though the token
// would otherwise still verify until its own expiry.
func (s *Service) Revoke(ctx context.Context, tokenString string) error {
	var claims Claims
	_, _, err := jwt.NewParser().ParseUnverified(tokenString, &claims)
	if err != nil {
		return ErrInvalidToken
	}
	if claims.ExpiresAt == nil {
		return ErrInvalidToken
	}
	return s.revoked.Revoke(ctx, claims.ID, claims.UserID, claims.ExpiresAt.Time)
}

// RevokeAll invalidates every session issued to userID before now,
// the "log out everywhere" / post-password-change path.
func (s *Service) RevokeAll(ctx context.Context, userID string) error {
	return s.users.InvalidateSessions(ctx, userID)
}

// totpXORKey derives a fixed-length obfuscation key from the JWT
// secret so TwoFactorInformation.TOTPSecretEncrypted never stores a
// TOTP secret in the clear, without requiring a second secret to
// manage. This is obfuscation, not independent encryption: the spec's
// stated minimum bar is keeping the secret out of a bare column dump,
// not surviving a compromise of the server's own signing key.
func (s *Service) totpXORKey(n int) []byte {
	key := make([]byte, n)
	for i := range key {
		key[i] = s.secret[i%len(s.secret)]
	}
	return key
}

func (s *Service) xorTOTPSecret(secret []byte) []byte {
	key := s.totpXORKey(len(secret))
	out := make([]byte, len(secret))
	for i := range secret {
		out[i] = secret[i] ^ key[i]
	}
	return out
}

// EnrollTOTP generates a new TOTP secret and backup codes for userID
// and persists them disabled (IsEnabled stays false until
// ConfirmTOTP verifies the user actually captured the secret). Returns
// the provisioning URI for a QR code and the plaintext backup codes,
// the only time either value is ever visible again.
func (s *Service) EnrollTOTP(ctx context.Context, user *models.User) (provisioningURI string, backupCodes []string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: user.Name,
	})
	if err != nil {
		return "", nil, err
	}

	backupCodes, hashed, err := generateBackupCodes()
	if err != nil {
		return "", nil, err
	}

	tf := &models.TwoFactorInformation{
		TOTPSecretEncrypted: s.xorTOTPSecret([]byte(key.Secret())),
		BackupCodesHashed:   hashed,
		IsEnabled:           false,
	}
	if err := s.users.UpdateTwoFactor(ctx, user.ID, tf); err != nil {
		return "", nil, err
	}
	return key.URL(), backupCodes, nil
}

// ConfirmTOTP validates the first code generated off the freshly
// enrolled secret and flips IsEnabled, completing two-factor setup.
func (s *Service) ConfirmTOTP(ctx context.Context, user *models.User, code string) error {
	if user.TwoFactor == nil {
		return apperror.New(apperror.KindInvalidInput, "no pending two-factor enrollment")
	}
	secret := s.xorTOTPSecret(user.TwoFactor.TOTPSecretEncrypted)
	if !totp.Validate(code, string(secret)) {
		return apperror.New(apperror.KindTwoFactorInvalid, "invalid verification code")
	}
	enabled := *user.TwoFactor
	enabled.IsEnabled = true
	return s.users.UpdateTwoFactor(ctx, user.ID, &enabled)
}

// VerifyTOTP checks a login-time code against either the rolling TOTP
// window or, failing that, consumes a matching backup code (removing
// it so it can't be reused).
func (s *Service) VerifyTOTP(ctx context.Context, user *models.User, code string) (bool, error) {
	if user.TwoFactor == nil || !user.TwoFactor.IsEnabled {
		return false, apperror.New(apperror.KindInvalidInput, "two-factor is not enabled for this account")
	}
	secret := s.xorTOTPSecret(user.TwoFactor.TOTPSecretEncrypted)
	if totp.Validate(code, string(secret)) {
		return true, nil
	}

	for i, hashed := range user.TwoFactor.BackupCodesHashed {
		if verifyBackupCode(code, hashed) {
			remaining := *user.TwoFactor
			remaining.BackupCodesHashed = append(
				append([]string{}, user.TwoFactor.BackupCodesHashed[:i]...),
				user.TwoFactor.BackupCodesHashed[i+1:]...,
			)
			if err := s.users.UpdateTwoFactor(ctx, user.ID, &remaining); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, apperror.New(apperror.KindTwoFactorInvalid, "invalid two-factor code")
}

// DisableTOTP clears two-factor enrollment for userID.
func (s *Service) DisableTOTP(ctx context.Context, userID string) error {
	return s.users.UpdateTwoFactor(ctx, userID, &models.TwoFactorInformation{IsEnabled: false})
}

// generateBackupCodes returns backupCodeCount random 10-character
// backup codes plus their argon2id hashes (salt:hash, hex-encoded) for
// storage; the plaintext codes are returned once and never stored.
func generateBackupCodes() (plain []string, hashed []string, err error) {
	for i := 0; i < backupCodeCount; i++ {
		raw := make([]byte, 5)
		if _, err := rand.Read(raw); err != nil {
			return nil, nil, err
		}
		code := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw)
		plain = append(plain, code)
		hashed = append(hashed, hashBackupCode(code))
	}
	return plain, hashed, nil
}

const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2KeyLen  = 32
	argon2SaltLen = 16
)

// HashPassword argon2id-hashes a plaintext password using the same
// parameters and salt-prefixed encoding as backup codes; the KDF has no
// notion of what kind of secret it's hashing.
func HashPassword(password string) string {
	return hashBackupCode(password)
}

// VerifyPassword checks a plaintext password against a HashPassword digest.
func VerifyPassword(password, stored string) bool {
	return verifyBackupCode(password, stored)
}

func hashBackupCode(code string) string {
	salt := make([]byte, argon2SaltLen)
	_, _ = rand.Read(salt)
	digest := argon2.IDKey([]byte(code), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(digest)
}

func verifyBackupCode(code, stored string) bool {
	saltHex, digestHex, ok := splitOnce(stored, ':')
	if !ok {
		return false
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(digestHex)
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(code), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	return subtle.ConstantTimeCompare(got, want) == 1
}

func splitOnce(s string, sep byte) (before, after string, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}
