// Package splitter splits raw script text into executable batches along the
// SQL Server batch-delimiter convention.
//
// A batch boundary is a standalone line holding the token GO (any case) with
// optional surrounding whitespace and an optional trailing semicolon, the
// same convention sqlcmd and SSMS use. Delimiter lines are excluded from
// batch text; segments consisting only of whitespace are dropped.
//
// Matching is line-wise and unaware of string literals or comments: a GO on
// its own line inside a quoted literal still splits the batch. sqlcmd has
// the same behavior, so scripts that survive sqlcmd survive this splitter.
package splitter

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sozezzo/MSTools/pkg/mstools"
)

// DefaultDelimiterPattern matches a standalone batch separator line:
// optional whitespace, the token GO in any case, an optional trailing semicolon.
const DefaultDelimiterPattern = `(?i)^\s*go\s*;?\s*$`

// Splitter splits script text into ordered batches. Safe for concurrent use.
type Splitter struct {
	delimiter *regexp.Regexp
}

// New creates a Splitter using the default GO delimiter.
func New() *Splitter {
	return &Splitter{delimiter: regexp.MustCompile(DefaultDelimiterPattern)}
}

// NewWithDelimiter creates a Splitter with a custom delimiter pattern.
// The pattern is matched against whole lines.
func NewWithDelimiter(pattern string) (*Splitter, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("delimiter pattern %q does not compile: %v: %w", pattern, err, mstools.ErrInvalidScript)
	}
	return &Splitter{delimiter: re}, nil
}

// Split breaks script into batches in original order, 0-indexed. Each batch
// records the 1-based line where its segment begins, so execution errors can
// be attributed back to the script.
//
// Re-joining the returned batch texts with "\nGO\n" produces a script that
// splits back into the identical batch texts.
func (s *Splitter) Split(script string) ([]mstools.Batch, error) {
	if !utf8.ValidString(script) {
		return nil, fmt.Errorf("script is not valid UTF-8: %w", mstools.ErrInvalidScript)
	}

	lines := strings.Split(script, "\n")

	var batches []mstools.Batch
	var segment []string
	segmentStart := 0

	flush := func() {
		if len(segment) == 0 {
			return
		}
		text := strings.Join(segment, "\n")
		segment = segment[:0]
		if strings.TrimSpace(text) == "" {
			return
		}
		batches = append(batches, mstools.Batch{
			Index:     len(batches),
			Text:      text,
			StartLine: segmentStart,
			Status:    mstools.BatchPending,
		})
	}

	for i, line := range lines {
		if s.delimiter.MatchString(line) {
			flush()
			continue
		}
		if len(segment) == 0 {
			segmentStart = i + 1
		}
		segment = append(segment, line)
	}
	flush()

	return batches, nil
}
