package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

var trackingParams = []string{
	"utm_source",
	"utm_medium",
	"utm_campaign",
	"utm_term",
	"utm_content",
	"gclid",
	"fbclid",
}

// Normalize returns a stable form of rawURL: fragment and tracking parameters
// removed, host lower-cased, query keys sorted. Unparseable or relative input
// is returned trimmed.
func Normalize(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)

	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return trimmed
	}

	u.Fragment = ""
	u.RawFragment = ""
	u.Host = strings.ToLower(u.Host)

	if (u.Scheme == "http" || u.Scheme == "https") && u.Path == "" && u.Opaque == "" {
		u.Path = "/"
	}

	query := u.Query()
	for _, param := range trackingParams {
		query.Del(param)
	}
	// Encode sorts by key and keeps the order of values within a key
	u.RawQuery = query.Encode()
	u.ForceQuery = false

	return u.String()
}

// ID is the hex SHA-256 of the normalized URL.
func ID(rawURL string) string {
	hash := sha256.Sum256([]byte(Normalize(rawURL)))
	return hex.EncodeToString(hash[:])
}
