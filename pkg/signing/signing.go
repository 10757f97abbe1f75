// Package signing implements the HMAC request signing scheme shared by
// the coordinator and its clients: lowercase hex HMAC-SHA256 over the
// exact raw request body. Because the signature covers the literal
// bytes, verification is independent of JSON field ordering or
// whitespace.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HowToSign is returned at registration so clients know the scheme.
const HowToSign = "hex(hmac_sha256(machine_key, raw_request_body))"

// Sign computes the signature of body under key.
func Sign(key string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares the supplied signature against the expected one in
// constant time.
func Verify(key string, body []byte, signature string) bool {
	expected := Sign(key, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
