package event

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
)

func sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	secret := []byte("s3cret")
	body := []byte(`{"ref":"refs/heads/main"}`)

	if err := VerifySignature(secret, body, sign(secret, body)); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
}

func TestVerifySignature_SignRoundTrip(t *testing.T) {
	secret := []byte("s3cret")
	body := []byte("payload")
	if err := VerifySignature(secret, body, Sign(secret, body)); err != nil {
		t.Fatalf("Sign output rejected: %v", err)
	}
}

func TestVerifySignature_Missing(t *testing.T) {
	err := VerifySignature([]byte("s"), []byte("b"), "")
	if !errors.Is(err, ErrSignatureMissing) {
		t.Errorf("err = %v, want ErrSignatureMissing", err)
	}
}

func TestVerifySignature_Malformed(t *testing.T) {
	for _, header := range []string{
		"sha1=deadbeef",
		"deadbeef",
		"sha256=not-hex",
	} {
		err := VerifySignature([]byte("s"), []byte("b"), header)
		if !errors.Is(err, ErrSignatureMalformed) {
			t.Errorf("header %q: err = %v, want ErrSignatureMalformed", header, err)
		}
	}
}

func TestVerifySignature_TamperedBody(t *testing.T) {
	secret := []byte("s3cret")
	body := []byte(`{"ref":"refs/heads/main"}`)
	header := sign(secret, body)

	// Flip one byte of the body after signing.
	tampered := append([]byte(nil), body...)
	tampered[0] ^= 0x01

	err := VerifySignature(secret, tampered, header)
	if !errors.Is(err, ErrSignatureMismatch) {
		t.Errorf("err = %v, want ErrSignatureMismatch", err)
	}
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	body := []byte("body")
	err := VerifySignature([]byte("right"), body, sign([]byte("wrong"), body))
	if !errors.Is(err, ErrSignatureMismatch) {
		t.Errorf("err = %v, want ErrSignatureMismatch", err)
	}
}
