package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifySignature recomputes the HMAC-SHA256 digest of the raw body with the
// shared signing key and compares it byte-exact against the hex-encoded
// signature supplied by the caller.
func VerifySignature(body []byte, signature, signingKey string) bool {
	if signature == "" || signingKey == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(signingKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

// ComputeSignature returns the hex-encoded HMAC-SHA256 digest of the body.
func ComputeSignature(body []byte, signingKey string) string {
	mac := hmac.New(sha256.New, []byte(signingKey))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
