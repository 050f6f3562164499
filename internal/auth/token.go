package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const minTokenLength = 16

// ValidateToken checks minimal API token requirements.
func ValidateToken(token string) error {
	if len(strings.TrimSpace(token)) < minTokenLength {
		return fmt.Errorf("api token must be at least %d characters", minTokenLength)
	}
	return nil
}

// HashToken hashes an API token for storage in config.
func HashToken(token string) (string, error) {
	if err := ValidateToken(token); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyTokenHash verifies a candidate token against a bcrypt hash.
func VerifyTokenHash(tokenHash, candidate string) bool {
	if strings.TrimSpace(tokenHash) == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(candidate)) == nil
}

// TokenVerifier checks bearer tokens against a plain token, a bcrypt hash, or both.
type TokenVerifier struct {
	plain string
	hash  string
}

// NewTokenVerifier returns a verifier. With neither value set, Enabled reports false.
func NewTokenVerifier(plain, hash string) *TokenVerifier {
	return &TokenVerifier{plain: strings.TrimSpace(plain), hash: strings.TrimSpace(hash)}
}

// Enabled reports whether any token is configured.
func (v *TokenVerifier) Enabled() bool {
	return v != nil && (v.plain != "" || v.hash != "")
}

// Verify reports whether candidate matches a configured token.
func (v *TokenVerifier) Verify(candidate string) bool {
	if !v.Enabled() || candidate == "" {
		return false
	}
	if v.plain != "" && subtle.ConstantTimeCompare([]byte(v.plain), []byte(candidate)) == 1 {
		return true
	}
	return VerifyTokenHash(v.hash, candidate)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
