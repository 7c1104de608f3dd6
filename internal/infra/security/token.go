package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const (
	defaultTokenBytes = 32
	minTokenBytes     = 16
)

// RandomTokenGenerator issues the opaque bearer tokens that key sessions.
// A Size below 16 bytes falls back to 32.
type RandomTokenGenerator struct {
	Size int
}

func (g RandomTokenGenerator) NewToken() (string, error) {
	raw := make([]byte, g.size())
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("security: read session token entropy: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func (g RandomTokenGenerator) size() int {
	if g.Size >= minTokenBytes {
		return g.Size
	}
	return defaultTokenBytes
}
