// Package analyze checks structural invariants of captured frame sequences
// and matches them against expected frame lists.
package analyze

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// PayloadPattern is one payload predicate. Exactly the set fields apply:
// hex/ascii substring containment or a regular expression over the payload's
// hex or ascii rendering.
type PayloadPattern struct {
	ContainsHex   string `yaml:"contains_hex,omitempty"`
	ContainsASCII string `yaml:"contains_ascii,omitempty"`
	RegexHex      string `yaml:"regex_hex,omitempty"`
	RegexASCII    string `yaml:"regex_ascii,omitempty"`
}

// IsZero reports whether no predicate field is set.
func (p PayloadPattern) IsZero() bool {
	return p.ContainsHex == "" && p.ContainsASCII == "" && p.RegexHex == "" && p.RegexASCII == ""
}

type compiledPattern struct {
	containsHex   string
	containsASCII string
	regexHex      *regexp.Regexp
	regexASCII    *regexp.Regexp
}

type payloadMatcher struct {
	patterns []compiledPattern
}

func stripNonHex(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.Is(unicode.ASCII_Hex_Digit, r) {
			return r
		}
		return -1
	}, s)
}

// compilePatterns validates and compiles the pattern list once per analysis
// call. Regex syntax errors surface here, not per frame.
func compilePatterns(patterns []PayloadPattern) (*payloadMatcher, error) {
	m := &payloadMatcher{}
	for i, p := range patterns {
		c := compiledPattern{
			containsHex:   strings.ToLower(stripNonHex(p.ContainsHex)),
			containsASCII: p.ContainsASCII,
		}
		var err error
		if p.RegexHex != "" {
			if c.regexHex, err = regexp.Compile(p.RegexHex); err != nil {
				return nil, fmt.Errorf("pattern %d: bad hex regex: %w", i+1, err)
			}
		}
		if p.RegexASCII != "" {
			if c.regexASCII, err = regexp.Compile(p.RegexASCII); err != nil {
				return nil, fmt.Errorf("pattern %d: bad ascii regex: %w", i+1, err)
			}
		}
		m.patterns = append(m.patterns, c)
	}
	return m, nil
}

// match returns a human-readable reason for the first failing pattern, or
// ok=true when every pattern is satisfied.
func (m *payloadMatcher) match(payload []byte) (reason string, ok bool) {
	hexStr := hex.EncodeToString(payload)
	ascii := string(payload)

	for _, p := range m.patterns {
		if p.containsHex != "" && !strings.Contains(hexStr, p.containsHex) {
			return fmt.Sprintf("payload missing hex substring %q", p.containsHex), false
		}
		if p.containsASCII != "" && !strings.Contains(ascii, p.containsASCII) {
			return fmt.Sprintf("payload missing ascii substring %q", p.containsASCII), false
		}
		if p.regexHex != nil && !p.regexHex.MatchString(hexStr) {
			return fmt.Sprintf("payload hex regex %q not matched", p.regexHex), false
		}
		if p.regexASCII != nil && !p.regexASCII.MatchString(ascii) {
			return fmt.Sprintf("payload ascii regex %q not matched", p.regexASCII), false
		}
	}
	return "", true
}
