package security

import "testing"

func TestHashAndVerifySecret(t *testing.T) {
	t.Parallel()

	encoded, err := HashSecret("ofertado-2024", DefaultArgonParams)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	ok, err := VerifySecret("ofertado-2024", encoded)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("correct secret should verify")
	}

	ok, err = VerifySecret("wrong", encoded)
	if err != nil {
		t.Fatalf("verify wrong: %v", err)
	}
	if ok {
		t.Fatal("wrong secret should not verify")
	}
}

func TestVerifySecretRejectsMalformedHash(t *testing.T) {
	t.Parallel()

	if _, err := VerifySecret("x", "not-a-hash"); err != ErrInvalidHash {
		t.Fatalf("expected ErrInvalidHash, got %v", err)
	}
}

func TestHashSecretRejectsEmpty(t *testing.T) {
	t.Parallel()

	if _, err := HashSecret("", DefaultArgonParams); err == nil {
		t.Fatal("empty secret should be rejected")
	}
}
