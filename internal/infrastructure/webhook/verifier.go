// Package webhook holds the transport-level authenticity checks applied to
// incoming gateway notifications before any business processing runs.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/backoffice/backend/internal/domain/shared"
)

// SignatureVerifier decides whether an incoming notification is authentic.
// Implementations must be safe for concurrent use.
type SignatureVerifier interface {
	// Verify checks the signature header against the raw request body.
	// A nil return means the request may be processed.
	Verify(body []byte, signature string) error
}

// HMACVerifier verifies an HMAC-SHA256 hex signature computed over the raw
// request body with a shared secret.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

func (v *HMACVerifier) Verify(body []byte, signature string) error {
	if signature == "" {
		return shared.ErrUnauthorized
	}
	provided, err := hex.DecodeString(signature)
	if err != nil {
		return shared.ErrUnauthorized
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	expected := mac.Sum(nil)

	if !hmac.Equal(provided, expected) {
		return shared.ErrUnauthorized
	}
	return nil
}

// Sign computes the hex signature for a body. Used by tests and by tooling
// that replays captured notifications.
func (v *HMACVerifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// AllowAllVerifier accepts every request. Only for development environments
// where no webhook secret is configured.
type AllowAllVerifier struct{}

func (AllowAllVerifier) Verify(body []byte, signature string) error {
	return nil
}

// ForEnvironment returns the verifier appropriate for the environment.
// Production configs are validated to always carry a secret.
func ForEnvironment(env, secret string) SignatureVerifier {
	if secret == "" && env != "production" {
		return AllowAllVerifier{}
	}
	return NewHMACVerifier(secret)
}

var (
	_ SignatureVerifier = (*HMACVerifier)(nil)
	_ SignatureVerifier = AllowAllVerifier{}
)
