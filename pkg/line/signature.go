package line

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

var (
	// ErrSignatureMalformed means the presented signature was not valid
	// base64 and the MAC comparison never ran.
	ErrSignatureMalformed = errors.New("malformed signature")
	// ErrSignatureMismatch means the presented signature decoded fine but
	// does not match the body.
	ErrSignatureMismatch = errors.New("signature mismatch")
)

// Sign computes the base64 HMAC-SHA256 signature the platform attaches to
// webhook deliveries in the x-line-signature header.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a presented webhook signature against the body.
// The comparison is constant-time; any failure fails closed.
func VerifySignature(secret, body []byte, signature string) error {
	presented, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return ErrSignatureMalformed
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), presented) {
		return ErrSignatureMismatch
	}
	return nil
}
