// Package redact masks secrets in code before it leaves the process in a
// model prompt. Static analysis always sees the original text; only the
// outbound copy is masked.
package redact

import "regexp"

var patterns = compile([]string{
	// AWS access key IDs
	`AKIA[0-9A-Z]{16}`,
	// AWS secret access keys (40 char base64 after common prefixes)
	`(?i)(aws_secret_access_key|aws_secret)\s*[:=]\s*[A-Za-z0-9/+=]{40}`,
	// Private key blocks
	`-----BEGIN [A-Z ]+PRIVATE KEY-----[\s\S]*?-----END [A-Z ]+PRIVATE KEY-----`,
	// Bearer tokens
	`Bearer\s+[A-Za-z0-9\-._~+/]+=*`,
	// GitHub tokens
	`gh[pousr]_[A-Za-z0-9]{20,}`,
	// Slack tokens
	`xox[baprs]-[A-Za-z0-9-]{10,}`,
	// Credentials embedded in connection URLs
	`(?i)[a-z][a-z0-9+.-]*://[^:/\s]+:[^@/\s]+@`,
	// Generic key/secret/token/password assignments
	`(?i)(api[_-]?key|api[_-]?secret|secret[_-]?key|token|password|passwd|credentials)\s*[:=]\s*\S+`,
})

func compile(raw []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(raw))
	for _, r := range raw {
		out = append(out, regexp.MustCompile(r))
	}
	return out
}

// Mask replaces secret patterns in text with [REDACTED].
func Mask(text string) string {
	for _, p := range patterns {
		text = p.ReplaceAllString(text, "[REDACTED]")
	}
	return text
}
