package utils

import "testing"

func TestHashPassword_Deterministic(t *testing.T) {
	first := HashPassword("secret", "key")
	second := HashPassword("secret", "key")

	if first != second {
		t.Errorf("expected identical digests, got %q and %q", first, second)
	}
	if len(first) != 64 {
		t.Errorf("expected 64 hex chars for sha256, got %d", len(first))
	}
}

func TestHashPassword_DifferentPasswords(t *testing.T) {
	if HashPassword("secret", "key") == HashPassword("other", "key") {
		t.Error("expected different digests for different passwords")
	}
}

func TestHashPassword_DifferentKeys(t *testing.T) {
	if HashPassword("secret", "key-a") == HashPassword("secret", "key-b") {
		t.Error("expected different digests for different keys")
	}
}
