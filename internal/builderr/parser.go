// Package builderr extracts a structured error from build and lint output.
//
// Output is tried against an ordered list of named matchers, each written for
// one failure format. The first matcher that recognizes the text wins.
package builderr

import (
	"regexp"
	"strings"

	"github.com/richhaase/agentic-site-builder/internal/domain"
)

// Matcher recognizes one build failure format.
type Matcher interface {
	// Name identifies the matcher in logs and records.
	Name() string
	// Match returns the parsed record, or nil when the format is not present.
	Match(output string) *domain.BuildErrorRecord
}

type matcherFunc struct {
	name string
	fn   func(string) *domain.BuildErrorRecord
}

func (m matcherFunc) Name() string { return m.name }

func (m matcherFunc) Match(output string) *domain.BuildErrorRecord {
	rec := m.fn(output)
	if rec != nil {
		rec.Matcher = m.name
	}
	return rec
}

// Parser runs matchers in order.
type Parser struct {
	matchers []Matcher
}

// NewParser returns a parser using matchers in the given order, or the
// default order when none are given.
func NewParser(matchers ...Matcher) *Parser {
	if len(matchers) == 0 {
		matchers = DefaultMatchers()
	}
	return &Parser{matchers: matchers}
}

// DefaultMatchers returns the built-in matchers in priority order. The
// module-not-found matcher runs first because its output also carries the
// generic banner and path lines the other matchers look for.
func DefaultMatchers() []Matcher {
	return []Matcher{
		ModuleNotFound,
		AdjacentLines,
		ErrorInPath,
		FrameworkBanner,
	}
}

// Matchers lists the matcher names in order.
func (p *Parser) Matchers() []string {
	names := make([]string, len(p.matchers))
	for i, m := range p.matchers {
		names[i] = m.Name()
	}
	return names
}

// Parse returns the first structured error found in output, or nil.
func (p *Parser) Parse(output string) *domain.BuildErrorRecord {
	clean := normalize(output)
	for _, m := range p.matchers {
		if rec := m.Match(clean); rec != nil {
			if rec.Line == "" {
				rec.Line = domain.DefaultPosition
			}
			if rec.Column == "" {
				rec.Column = domain.DefaultPosition
			}
			if rec.ErrorType == "" {
				rec.ErrorType = domain.ErrorKindGeneric
			}
			rec.ErrorMessage = strings.TrimSpace(rec.ErrorMessage)
			return rec
		}
	}
	return nil
}

var defaultParser = NewParser()

// Parse runs the default matchers over output.
func Parse(output string) *domain.BuildErrorRecord {
	return defaultParser.Parse(output)
}

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]`)

// normalize strips ANSI colour codes and carriage returns.
func normalize(s string) string {
	s = ansiEscape.ReplaceAllString(s, "")
	return strings.ReplaceAll(s, "\r", "")
}
