package auth

import (
	"testing"
	"time"
)

func TestPasswordHashAndVerify(t *testing.T) {
	pm := NewPasswordManager(4, 8) // low cost for tests

	hash, err := pm.HashPassword("Secret#Pass1")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "Secret#Pass1" {
		t.Fatal("hash must not equal the plaintext")
	}

	if !pm.VerifyPassword("Secret#Pass1", hash) {
		t.Error("correct password should verify")
	}
	if pm.VerifyPassword("wrong-password", hash) {
		t.Error("wrong password should not verify")
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	pm := NewPasswordManager(4, 8)

	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"strong password", "Secret#Pass1", false},
		{"too short", "Ab1#", true},
		{"single character class", "aaaaaaaaaa", true},
		{"two character classes", "aaaaaaa1", true},
		{"three character classes", "Password1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pm.ValidatePasswordStrength(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePasswordStrength(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret-at-least-32-bytes-long!!", 15*time.Minute, 7*24*time.Hour)

	claims := UserClaims{
		UserID:  "user-1",
		Email:   "admin@example.com",
		Role:    "admin",
		IsAdmin: true,
	}

	token, err := m.GenerateAccessToken(claims)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	got, err := m.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken() error = %v", err)
	}
	if got.UserID != claims.UserID || got.Email != claims.Email || got.Role != claims.Role || !got.IsAdmin {
		t.Errorf("claims round trip mismatch: got %+v", got)
	}
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	m1 := NewJWTManager("test-secret-at-least-32-bytes-long!!", 15*time.Minute, time.Hour)
	m2 := NewJWTManager("another-secret-of-sufficient-length!", 15*time.Minute, time.Hour)

	token, err := m1.GenerateAccessToken(UserClaims{UserID: "user-1"})
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	if _, err := m2.ValidateAccessToken(token); err == nil {
		t.Error("token signed with a different secret should be rejected")
	}
}

func TestHashRefreshTokenDeterministic(t *testing.T) {
	a := HashRefreshToken("refresh-token-value")
	b := HashRefreshToken("refresh-token-value")
	c := HashRefreshToken("other-token")

	if a != b {
		t.Error("same token should hash identically")
	}
	if a == c {
		t.Error("different tokens should hash differently")
	}
	if a == "refresh-token-value" {
		t.Error("hash must not equal the plaintext")
	}
}
