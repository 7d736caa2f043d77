package sessions

import (
	"context"
	"testing"
	"time"

	"ryotgo/models"
)

func testUser() *models.User {
	return &models.User{ID: "usr_abc123", Name: "vansh", Lot: models.UserLotNormal}
}

func TestIssue_ProducesValidatableToken(t *testing.T) {
	svc := NewService([]byte("test-secret"), nil, nil, "ryotgo")

	token, err := svc.Issue(testUser(), DefaultAccessTokenTTL)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := svc.Validate(context.Background(), token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.UserID != "usr_abc123" {
		t.Errorf("expected UserID usr_abc123, got %q", claims.UserID)
	}
	if claims.IsAdmin {
		t.Error("expected IsAdmin false for a normal user")
	}
}

func TestIssue_AdminClaim(t *testing.T) {
	svc := NewService([]byte("test-secret"), nil, nil, "ryotgo")

	admin := testUser()
	admin.Lot = models.UserLotAdmin
	token, err := svc.Issue(admin, DefaultAccessTokenTTL)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	claims, err := svc.Validate(context.Background(), token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !claims.IsAdmin {
		t.Error("expected IsAdmin true for an admin user")
	}
}

func TestValidate_WrongSecretRejected(t *testing.T) {
	issuer := NewService([]byte("secret-a"), nil, nil, "ryotgo")
	verifier := NewService([]byte("secret-b"), nil, nil, "ryotgo")

	token, err := issuer.Issue(testUser(), DefaultAccessTokenTTL)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := verifier.Validate(context.Background(), token); err == nil {
		t.Fatal("expected validation to fail against a different signing secret")
	}
}

func TestValidate_ExpiredTokenRejected(t *testing.T) {
	svc := NewService([]byte("test-secret"), nil, nil, "ryotgo")

	token, err := svc.Issue(testUser(), -1*time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := svc.Validate(context.Background(), token); err == nil {
		t.Fatal("expected validation to fail for an already-expired token")
	}
}

func TestValidate_MalformedTokenRejected(t *testing.T) {
	svc := NewService([]byte("test-secret"), nil, nil, "ryotgo")

	if _, err := svc.Validate(context.Background(), "not-a-jwt"); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRevoke_RequiresRevocationRepository(t *testing.T) {
	svc := NewService([]byte("test-secret"), nil, nil, "ryotgo")

	token, err := svc.Issue(testUser(), DefaultAccessTokenTTL)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// Revoke dereferences the (nil) revoked-token repository; this just
	// documents that Revoke requires one to be wired, exercised for
	// real against Postgres in service_integration_test.go.
	defer func() {
		if recover() == nil {
			t.Fatal("expected Revoke to panic with no revoked-token repository wired")
		}
	}()
	_ = svc.Revoke(context.Background(), token)
}

func TestBackupCodes_GenerateAndVerify(t *testing.T) {
	plain, hashed, err := generateBackupCodes()
	if err != nil {
		t.Fatalf("generateBackupCodes failed: %v", err)
	}
	if len(plain) != backupCodeCount || len(hashed) != backupCodeCount {
		t.Fatalf("expected %d codes, got %d plain / %d hashed", backupCodeCount, len(plain), len(hashed))
	}

	for i, code := range plain {
		if !verifyBackupCode(code, hashed[i]) {
			t.Errorf("code %d failed to verify against its own hash", i)
		}
	}
	if verifyBackupCode("wrong-code", hashed[0]) {
		t.Error("expected a mismatched code to fail verification")
	}
}

func TestBackupCodes_Unique(t *testing.T) {
	plain, _, err := generateBackupCodes()
	if err != nil {
		t.Fatalf("generateBackupCodes failed: %v", err)
	}
	seen := make(map[string]bool)
	for _, code := range plain {
		if seen[code] {
			t.Fatalf("duplicate backup code generated: %s", code)
		}
		seen[code] = true
	}
}

func TestXORTOTPSecret_RoundTrips(t *testing.T) {
	svc := NewService([]byte("test-secret-key"), nil, nil, "ryotgo")

	secret := []byte("JBSWY3DPEHPK3PXP")
	obfuscated := svc.xorTOTPSecret(secret)
	if string(obfuscated) == string(secret) {
		t.Fatal("expected obfuscated secret to differ from the original")
	}
	roundTripped := svc.xorTOTPSecret(obfuscated)
	if string(roundTripped) != string(secret) {
		t.Errorf("expected XOR round-trip to recover the original secret, got %q", roundTripped)
	}
}
