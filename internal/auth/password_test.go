package auth

import (
	"strings"
	"testing"
)

func TestHashPassword_VerifyRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret-password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if hash == "secret-password" {
		t.Fatal("hash should not equal the plain password")
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("hash should be in bcrypt format, got %q", hash)
	}

	if !VerifyPassword(hash, "secret-password") {
		t.Error("correct password should verify")
	}
	if VerifyPassword(hash, "wrong-password") {
		t.Error("wrong password should not verify")
	}
}

func TestHashPassword_DifferentHashesForSameInput(t *testing.T) {
	// bcryptはソルト付きのため同一入力でもハッシュは毎回異なる
	h1, err := HashPassword("secret-password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	h2, err := HashPassword("secret-password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if h1 == h2 {
		t.Error("two hashes of the same password should differ")
	}
}

func TestVerifyPassword_InvalidHash(t *testing.T) {
	if VerifyPassword("not-a-bcrypt-hash", "password") {
		t.Error("invalid hash should not verify")
	}
}
