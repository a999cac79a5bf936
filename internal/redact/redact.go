// Package redact scrubs sensitive text from log lines before they are
// archived.
//
// Two transforms are available:
//
//  1. Path redaction - removes the host's own data directory from every
//     line, leaving a "<Filepath purged>/" marker where it was
//  2. Secret scrubbing - replaces IPs, emails, keys and similar values with
//     correlation-preserving placeholders
//
// Configuration via ~/.logkeep.yaml:
//
//	redaction:
//	  paths: true
//	  enabled: true
//	  patterns:
//	    - ipv4
//	    - email
package redact

import "strings"

// LineRedactor transforms one log line.
type LineRedactor interface {
	Redact(line string) string
}

// Chain applies redactors in order.
type Chain []LineRedactor

// Redact runs the line through every redactor in the chain.
func (c Chain) Redact(line string) string {
	for _, r := range c {
		line = r.Redact(line)
	}
	return line
}

type counter interface {
	RedactAndCount(line string) (string, int)
}

// RedactAndCount runs the line through every redactor in the chain and
// returns how many purge markers the path redactors inserted.
func (c Chain) RedactAndCount(line string) (string, int) {
	total := 0
	for _, r := range c {
		rc, ok := r.(counter)
		if !ok {
			line = r.Redact(line)
			continue
		}
		var n int
		line, n = rc.RedactAndCount(line)
		total += n
	}
	return line, total
}

// Empty reports whether the chain would leave every line unchanged.
func (c Chain) Empty() bool {
	return len(c) == 0
}

// Options selects the transforms for New.
type Options struct {
	// SensitiveRoot is purged from lines when Paths is set.
	SensitiveRoot string
	Paths         bool

	// Secrets enables pattern scrubbing with the named patterns.
	Secrets  bool
	Patterns []string
}

// New builds the chain described by opts. Path redaction runs first so the
// scrubbers never see the root path.
func New(opts Options) (Chain, error) {
	var chain Chain
	if opts.Paths && strings.TrimSpace(opts.SensitiveRoot) != "" {
		chain = append(chain, NewPathRedactor(opts.SensitiveRoot))
	}
	if opts.Secrets {
		s, err := NewSecretScrubber(opts.Patterns)
		if err != nil {
			return nil, err
		}
		chain = append(chain, s)
	}
	return chain, nil
}
