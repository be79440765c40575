package logger

import (
	"regexp"
	"strings"
)

const redactedValue = "[REDACTED]"

// sensitiveDataPatterns match credentials embedded in free text
var sensitiveDataPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9\-._~+/]+=*)`),
	regexp.MustCompile(`(?i)((?:token|secret|passw(?:or)?d|uid)\s*[:=]\s*)([^;,&\s]{3,})`),
}

// sensitiveKeywords mark field keys whose string values are never logged
var sensitiveKeywords = []string{
	"password", "passwd", "secret", "token", "authorization", "uid", "dsn",
}

// RedactSensitiveData replaces credentials found in s with [REDACTED]
func RedactSensitiveData(s string) string {
	if s == "" {
		return s
	}
	for _, pattern := range sensitiveDataPatterns {
		s = pattern.ReplaceAllString(s, "${1}"+redactedValue)
	}
	return s
}

func isSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(keyLower, keyword) {
			return true
		}
	}
	return false
}
