package redact

import (
	"fmt"
	"regexp"
	"sort"
)

// SecretPattern is a named regular expression for values that should not
// leave the machine inside an archived log.
type SecretPattern struct {
	Name  string
	Type  string // placeholder prefix, e.g. [EMAIL:1a2b]
	Regex *regexp.Regexp
}

var secretPatterns = map[string]SecretPattern{
	"ipv4": {
		Name:  "ipv4",
		Type:  "IPV4",
		Regex: regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4]\d|[01]?\d\d?)\.){3}(?:25[0-5]|2[0-4]\d|[01]?\d\d?)\b`),
	},
	"email": {
		Name:  "email",
		Type:  "EMAIL",
		Regex: regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
	},
	"api_key": {
		Name:  "api_key",
		Type:  "SECRET",
		Regex: regexp.MustCompile(`(?i)(?:api[_-]?key|apikey|token|secret|password|passwd|pwd)["\s]*[:=]["\s]*[a-zA-Z0-9_\-]{8,}`),
	},
	"aws_key": {
		Name:  "aws_key",
		Type:  "AWS_KEY",
		Regex: regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
	},
	"jwt": {
		Name:  "jwt",
		Type:  "JWT",
		Regex: regexp.MustCompile(`\beyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*\b`),
	},
	"private_key": {
		Name:  "private_key",
		Type:  "PRIVATE_KEY",
		Regex: regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`),
	},
	"mac_address": {
		Name:  "mac_address",
		Type:  "MAC",
		Regex: regexp.MustCompile(`\b(?:[0-9A-Fa-f]{2}[:-]){5}[0-9A-Fa-f]{2}\b`),
	},
	"uuid": {
		Name:  "uuid",
		Type:  "UUID",
		Regex: regexp.MustCompile(`\b[0-9a-fA-F]{8}-(?:[0-9a-fA-F]{4}-){3}[0-9a-fA-F]{12}\b`),
	},
}

// DefaultPatterns is used when secret scrubbing is enabled without an
// explicit pattern list.
func DefaultPatterns() []string {
	return []string{"ipv4", "email", "api_key", "aws_key", "jwt", "private_key"}
}

// PatternNames lists every built-in pattern name, sorted.
func PatternNames() []string {
	names := make([]string, 0, len(secretPatterns))
	for name := range secretPatterns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupPatterns resolves pattern names, keeping their order. Unknown names
// are an error so a typo in the config does not silently disable scrubbing.
func LookupPatterns(names []string) ([]SecretPattern, error) {
	patterns := make([]SecretPattern, 0, len(names))
	for _, name := range names {
		p, ok := secretPatterns[name]
		if !ok {
			return nil, fmt.Errorf("unknown redaction pattern %q (available: %v)", name, PatternNames())
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}
