package redact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SecretScrubber replaces secret values with placeholders derived from a hash
// of the value. Equal values get equal placeholders, so an archived log still
// shows that two lines mention the same address.
type SecretScrubber struct {
	patterns []SecretPattern
}

// NewSecretScrubber builds a scrubber for the named patterns. An empty list
// selects DefaultPatterns.
func NewSecretScrubber(names []string) (*SecretScrubber, error) {
	if len(names) == 0 {
		names = DefaultPatterns()
	}
	patterns, err := LookupPatterns(names)
	if err != nil {
		return nil, err
	}
	return &SecretScrubber{patterns: patterns}, nil
}

// Redact replaces every pattern match in line.
//
//	"login from 10.0.0.7" → "login from [IPV4:9f1c]"
func (s *SecretScrubber) Redact(line string) string {
	for _, p := range s.patterns {
		line = p.Regex.ReplaceAllStringFunc(line, func(match string) string {
			return placeholder(p.Type, match)
		})
	}
	return line
}

func placeholder(kind, value string) string {
	h := sha256.Sum256([]byte(value))
	return fmt.Sprintf("[%s:%s]", kind, hex.EncodeToString(h[:2]))
}
