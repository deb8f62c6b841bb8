// Package security redacts credentials from log output and validates step
// inputs before they reach the Jira API.
package security

import (
	"regexp"
	"strings"
)

// Common patterns for sensitive data
var (
	// HTTP authorization headers: basic credentials and Connect JWTs
	authHeaderPattern = regexp.MustCompile(`(?i)\b(basic|jwt)[[:space:]]+([a-zA-Z0-9_\-\.+/=]{8,})`)

	// Bearer tokens
	bearerTokenPattern = regexp.MustCompile(`(?i)bearer[[:space:]]+([a-zA-Z0-9_\-\.]+)`)

	// Generic API keys
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret|api[_-]?token|shared[_-]?secret)[[:space:]]*[:=][[:space:]]*['"` + "`" + `]?([a-zA-Z0-9_\-]{8,})`)

	// Passwords in key=value or key: value form
	passwordPattern = regexp.MustCompile(`(?i)(password|passwd|pwd)[[:space:]]*[:=][[:space:]]*['"]?([^[:space:]'",}]+)`)

	// Passwords in URLs
	urlPasswordPattern = regexp.MustCompile(`(?i)(https?)://[^:/@[:space:]]+:([^@[:space:]]+)@`)

	// JSON Web Tokens
	jwtPattern = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`)
)

// LogSanitizer provides methods for sanitizing logs
type LogSanitizer struct {
	customPatterns []*regexp.Regexp
	secrets        []string
}

// NewLogSanitizer creates a new log sanitizer
func NewLogSanitizer() *LogSanitizer {
	return &LogSanitizer{
		customPatterns: make([]*regexp.Regexp, 0),
	}
}

// AddCustomPattern adds a custom pattern to sanitize
func (ls *LogSanitizer) AddCustomPattern(pattern *regexp.Regexp) {
	ls.customPatterns = append(ls.customPatterns, pattern)
}

// AddSecret registers a literal value, such as the configured Jira
// password, that must never appear in output. Empty values are ignored.
func (ls *LogSanitizer) AddSecret(secret string) {
	if secret == "" {
		return
	}
	ls.secrets = append(ls.secrets, secret)
}

// Sanitize removes or masks sensitive information from log messages
func (ls *LogSanitizer) Sanitize(message string) string {
	// Literal secrets first so partial pattern matches cannot leave fragments
	for _, secret := range ls.secrets {
		message = strings.ReplaceAll(message, secret, "[REDACTED]")
	}

	message = jwtPattern.ReplaceAllString(message, "[REDACTED-JWT]")
	message = authHeaderPattern.ReplaceAllString(message, "${1} [REDACTED]")
	message = bearerTokenPattern.ReplaceAllString(message, "Bearer [REDACTED]")
	message = apiKeyPattern.ReplaceAllString(message, "${1}=[REDACTED]")
	message = passwordPattern.ReplaceAllString(message, "${1}=[REDACTED]")
	message = urlPasswordPattern.ReplaceAllString(message, "${1}://[REDACTED]@")

	for _, pattern := range ls.customPatterns {
		message = pattern.ReplaceAllString(message, "[REDACTED]")
	}

	return message
}

// SanitizeError sanitizes error messages that might contain sensitive info
func (ls *LogSanitizer) SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return ls.Sanitize(err.Error())
}

// SanitizeMap sanitizes all values in a map (useful for labels/metadata)
func (ls *LogSanitizer) SanitizeMap(m map[string]string) map[string]string {
	sanitized := make(map[string]string, len(m))
	for k, v := range m {
		value := ls.Sanitize(v)
		if isSensitiveKey(k) {
			value = "[REDACTED]"
		}
		sanitized[k] = value
	}
	return sanitized
}

// isSensitiveKey checks if a key name suggests sensitive content
func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	sensitiveKeywords := []string{
		"password", "passwd", "pwd",
		"secret", "token",
		"auth", "credential",
	}

	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lowerKey, keyword) {
			return true
		}
	}
	return false
}
