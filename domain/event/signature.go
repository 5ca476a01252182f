package event

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Signature verification errors. Callers reject the delivery on any of them;
// the distinction is for logging only.
var (
	ErrSignatureMissing   = errors.New("event: signature header missing")
	ErrSignatureMalformed = errors.New("event: signature header malformed")
	ErrSignatureMismatch  = errors.New("event: signature mismatch")
)

const signaturePrefix = "sha256="

// Sign computes the hex webhook signature for body, in header form.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks an HMAC-SHA256 webhook signature of the form
// "sha256=<hex>" over the raw request body. The comparison is constant-time.
func VerifySignature(secret, body []byte, header string) error {
	if header == "" {
		return ErrSignatureMissing
	}
	if !strings.HasPrefix(header, signaturePrefix) {
		return fmt.Errorf("%w: missing %q prefix", ErrSignatureMalformed, signaturePrefix)
	}
	got, err := hex.DecodeString(strings.TrimPrefix(header, signaturePrefix))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureMalformed, err)
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return ErrSignatureMismatch
	}
	return nil
}
