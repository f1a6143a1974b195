package line

import (
	"errors"
	"testing"
)

func TestVerifySignature_RoundTrip(t *testing.T) {
	secret := []byte("channel-secret")
	body := []byte(`{"events":[]}`)
	sig := Sign(secret, body)
	if err := VerifySignature(secret, body, sig); err != nil {
		t.Fatalf("VerifySignature() error: %v", err)
	}
}

func TestVerifySignature_TamperedBody(t *testing.T) {
	secret := []byte("channel-secret")
	body := []byte(`{"events":[]}`)
	sig := Sign(secret, body)
	tampered := []byte(`{"events":[{}]}`)
	if err := VerifySignature(secret, tampered, sig); !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("VerifySignature() error = %v, want ErrSignatureMismatch", err)
	}
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	body := []byte(`{"events":[]}`)
	sig := Sign([]byte("secret-a"), body)
	if err := VerifySignature([]byte("secret-b"), body, sig); !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("VerifySignature() error = %v, want ErrSignatureMismatch", err)
	}
}

func TestVerifySignature_MalformedBase64(t *testing.T) {
	err := VerifySignature([]byte("secret"), []byte("body"), "not base64 !!!")
	if !errors.Is(err, ErrSignatureMalformed) {
		t.Fatalf("VerifySignature() error = %v, want ErrSignatureMalformed", err)
	}
}

func TestVerifySignature_Empty(t *testing.T) {
	if err := VerifySignature([]byte("secret"), []byte("body"), ""); err == nil {
		t.Fatal("empty signature should not verify")
	}
}
