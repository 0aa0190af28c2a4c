package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// Calculator is an interface for computing script checksums.
// This abstraction allows for different checksum strategies and algorithms.
type Calculator interface {
	// CalculateRaw computes a checksum of the raw, unmodified content.
	CalculateRaw(content []byte) string

	// CalculateNormalized computes a checksum of normalized content.
	// Normalization makes checksums resilient to formatting changes.
	CalculateNormalized(content []byte) string
}

// SHA256 implements checksum calculation using SHA-256.
// Normalization follows three steps:
//  1. Convert to lowercase
//  2. Remove T-SQL comments (-- and /* */) while preserving string
//     literals and delimited identifiers
//  3. Collapse whitespace to single spaces
//
// SHA256 is a zero-size type and is safe for concurrent use by multiple goroutines.
// Using value semantics (pass by value) eliminates heap allocations.
type SHA256 struct{}

// New creates a new SHA-256 based calculator.
// Returns by value to avoid heap allocation (SHA256 is a zero-size type).
func New() SHA256 {
	return SHA256{}
}

// CalculateRaw computes SHA-256 of raw content.
func (c SHA256) CalculateRaw(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// CalculateNormalized computes SHA-256 of normalized content.
func (c SHA256) CalculateNormalized(content []byte) string {
	normalized := c.normalize(string(content))
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:])
}

// normalize applies the normalization rules to content.
// Uses strings.Builder for efficient string construction to avoid multiple allocations.
func (c SHA256) normalize(content string) string {
	cleaned := c.removeComments(content)

	var b strings.Builder
	b.Grow(len(cleaned))

	lastWasSpace := false
	for _, r := range cleaned {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				b.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			b.WriteRune(unicode.ToLower(r))
			lastWasSpace = false
		}
	}

	return strings.TrimSpace(b.String())
}

type commentState int

const (
	csNormal commentState = iota
	csLineComment
	csBlockComment
	csSingleQuote
	csBracketQuote
	csDoubleQuote
)

// removeComments removes T-SQL comments while preserving string literals
// and delimited identifiers. Handles single-quoted strings (with ''
// escaping), bracket-delimited identifiers ([Order -- Details], with ]]
// escaping), double-quoted identifiers (QUOTED_IDENTIFIER syntax), and
// nested block comments (/* /* */ */).
func (c SHA256) removeComments(content string) string {
	var b strings.Builder
	b.Grow(len(content))

	state := csNormal
	blockDepth := 0
	i := 0

	for i < len(content) {
		ch := content[i]
		var next byte
		if i+1 < len(content) {
			next = content[i+1]
		}

		switch state {
		case csNormal:
			if ch == '-' && next == '-' {
				state = csLineComment
				b.WriteByte(' ')
				i += 2
			} else if ch == '/' && next == '*' {
				state = csBlockComment
				blockDepth = 1
				b.WriteByte(' ')
				i += 2
			} else if ch == '\'' {
				state = csSingleQuote
				b.WriteByte(ch)
				i++
			} else if ch == '[' {
				state = csBracketQuote
				b.WriteByte(ch)
				i++
			} else if ch == '"' {
				state = csDoubleQuote
				b.WriteByte(ch)
				i++
			} else {
				b.WriteByte(ch)
				i++
			}

		case csLineComment:
			if ch == '\n' {
				b.WriteByte(ch)
				state = csNormal
				i++
			} else if ch == '\r' && next == '\n' {
				b.WriteByte(ch)
				b.WriteByte(next)
				state = csNormal
				i += 2
			} else {
				i++
			}

		case csBlockComment:
			if ch == '/' && next == '*' {
				blockDepth++
				i += 2
			} else if ch == '*' && next == '/' {
				blockDepth--
				i += 2
				if blockDepth == 0 {
					state = csNormal
				}
			} else {
				i++
			}

		case csSingleQuote:
			b.WriteByte(ch)
			if ch == '\'' {
				if next == '\'' {
					b.WriteByte(next)
					i += 2
				} else {
					state = csNormal
					i++
				}
			} else {
				i++
			}

		case csBracketQuote:
			b.WriteByte(ch)
			if ch == ']' {
				if next == ']' {
					b.WriteByte(next)
					i += 2
				} else {
					state = csNormal
					i++
				}
			} else {
				i++
			}

		case csDoubleQuote:
			b.WriteByte(ch)
			if ch == '"' {
				if next == '"' {
					b.WriteByte(next)
					i += 2
				} else {
					state = csNormal
					i++
				}
			} else {
				i++
			}
		}
	}

	return b.String()
}
