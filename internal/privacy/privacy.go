// Package privacy masks personal data and credentials before text leaves
// the process in logs or telemetry.
package privacy

import (
	"net/url"
	"regexp"
	"strings"
)

// EmailPlaceholder replaces addresses found by ScrubMessage.
const EmailPlaceholder = "[EMAIL]"

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

	// userinfoPattern matches scheme://user[:password]@ in free text.
	userinfoPattern = regexp.MustCompile(`\b([a-z][a-z0-9+.\-]*://)[^/\s@]+@`)
)

// ScrubMessage masks email addresses and URL credentials in message.
// URL credentials go first so that user@host is not read as an address.
func ScrubMessage(message string) string {
	scrubbed := userinfoPattern.ReplaceAllString(message, "${1}[REDACTED]@")
	return emailPattern.ReplaceAllString(scrubbed, EmailPlaceholder)
}

// RedactURL drops the user and password of rawURL. Strings that do not
// parse as URLs are scrubbed as free text instead.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ScrubMessage(rawURL)
	}
	if u.User == nil {
		return u.String()
	}
	u.User = nil
	return u.Scheme + "://[REDACTED]@" + strings.TrimPrefix(u.String(), u.Scheme+"://")
}

// MaskEmail keeps the first character of the local part and the domain,
// a.b@example.org becomes a***@example.org. Values without an @ are fully
// masked.
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(strings.TrimSpace(email), "@")
	if !ok || local == "" || domain == "" {
		return "***"
	}
	return local[:1] + "***@" + domain
}
