package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newFastPasswordService() *PasswordService {
	// MinCost keeps each hash in the microsecond range for tests.
	return NewPasswordServiceForTest(bcrypt.MinCost)
}

func TestHashAndVerify(t *testing.T) {
	ps := newFastPasswordService()

	hash, err := ps.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("Hash() returned the plaintext")
	}

	if err := ps.Verify(hash, "correct horse battery staple"); err != nil {
		t.Errorf("Verify() with correct password error = %v", err)
	}
	if err := ps.Verify(hash, "wrong password"); err == nil {
		t.Error("Verify() with wrong password should fail")
	}
}

func TestHash_RejectsOverlongPassword(t *testing.T) {
	ps := newFastPasswordService()

	_, err := ps.Hash(strings.Repeat("x", 73))
	if err == nil {
		t.Error("Hash() should reject passwords longer than 72 bytes")
	}
}

func TestHash_SamePasswordDifferentHashes(t *testing.T) {
	ps := newFastPasswordService()

	h1, err := ps.Hash("hunter2")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	h2, err := ps.Hash("hunter2")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	// Random salts mean identical passwords never hash identically.
	if h1 == h2 {
		t.Error("Hash() produced identical hashes for the same password")
	}
}
