// Package redact scrubs sensitive material from strings before they reach
// logs or error responses. Errors bubbling up from the database driver, the
// JWT layer, or the mailer can embed connection strings, tokens, password
// hashes, and addresses; every log call site routes error text through here.
package redact

import "regexp"

// Redaction placeholders.
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
)

// pattern pairs a regex with its replacement. Order matters: connection
// strings go before the host pattern, emails before the host pattern, JWTs
// before the generic key pattern.
type pattern struct {
	re          *regexp.Regexp
	placeholder string
}

var patterns = []pattern{
	// Connection strings with inline credentials, e.g. the pgx DSN.
	{regexp.MustCompile(`(?i)(postgres|postgresql|mysql|smtp)://[^@\s]+@`), RedactedCredentialPlaceholder},

	// Three-part JWTs.
	{regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`), "[REDACTED_JWT]"},

	// Bcrypt hashes (cost-prefixed, fixed 53-char payload).
	{regexp.MustCompile(`\$2[aby]\$\d{2}\$[./A-Za-z0-9]{53}`), "[REDACTED_HASH]"},

	// Long hex blobs: reset tokens and their sha256 digests are 64 hex
	// characters. The 48 floor spares 32-char trace IDs, which must stay
	// readable for correlation.
	{regexp.MustCompile(`\b[0-9a-fA-F]{48,}\b`), "[REDACTED_TOKEN]"},

	// password=... / pwd: ... fragments.
	{regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`), RedactedCredentialPlaceholder},

	// key/token/secret assignments.
	{regexp.MustCompile(`(?i)(api[_-]?key|token|secret|auth)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`), RedactedKeyPlaceholder},

	// Email addresses.
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), "[REDACTED_EMAIL]"},

	// Filesystem paths.
	{regexp.MustCompile(`(/[\w.-]+){2,}`), RedactedPathPlaceholder},

	// SQL fragments echoed back by the driver.
	{regexp.MustCompile(
		`(?i)(SELECT|INSERT|UPDATE|DELETE|CREATE|ALTER|DROP)[\s\w,*()]+(?:FROM|INTO|SET|TABLE|DATABASE)(?:[\s\w,*()='"]+)?`,
	), "[REDACTED_SQL]"},

	// Bare host:port targets, e.g. from dial errors.
	{regexp.MustCompile(
		`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}(?::\d{1,5})?\b`,
	), "[REDACTED_HOST]"},
}

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, p := range patterns {
		result = p.re.ReplaceAllString(result, p.placeholder)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output.
// A nil error yields the empty string.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
