package auth

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

const maxDisplayNameLength = 64

// NormalizeDisplayName trims raw and checks it is a usable display name.
// Names are case-sensitive.
func NormalizeDisplayName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", fmt.Errorf("name is required")
	}
	if utf8.RuneCountInString(name) > maxDisplayNameLength {
		return "", fmt.Errorf("name too long")
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return "", fmt.Errorf("name contains control characters")
		}
	}
	return name, nil
}

// AvatarURL derives the deterministic avatar URI for a display name.
func AvatarURL(baseURL, name string) string {
	q := url.Values{}
	q.Set("seed", name)
	return strings.TrimRight(baseURL, "?") + "?" + q.Encode()
}
