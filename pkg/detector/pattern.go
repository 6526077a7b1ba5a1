// Package detector matches a compiled pattern catalog against parsed
// source and scores each hit with context-sensitive confidence. It has
// no I/O: callers hand it a ParsedFile and get back ordered matches.
package detector

import (
	"regexp"
	"strings"

	"pqscan/pkg/errors"
	"pqscan/pkg/types"
)

// DefaultBaseScore is used when a catalog entry does not set its own.
const DefaultBaseScore = 0.7

// MatchKind selects how a pattern's Expr is interpreted. The set is
// closed: catalogs stay data, not plugins.
type MatchKind string

const (
	// MatchRegex interprets Expr as Go regexp syntax. Catalogs embed
	// the (?i) flag themselves so TOML round-trips stay faithful.
	MatchRegex MatchKind = "regex"
	// MatchSubstring interprets Expr as a case-insensitive literal.
	MatchSubstring MatchKind = "substring"
)

// Pattern is one entry of the detection catalog. An empty Kind means
// MatchRegex.
type Pattern struct {
	ID                string                `toml:"id"`
	Kind              MatchKind             `toml:"kind,omitempty"`
	Expr              string                `toml:"expr"`
	Severity          types.Severity        `toml:"severity"`
	Family            types.PrimitiveFamily `toml:"family"`
	Description       string                `toml:"description"`
	Recommendation    string                `toml:"recommendation"`
	QuantumVulnerable bool                  `toml:"quantum_vulnerable"`
	BaseScore         float64               `toml:"base_score"`
}

type compiledPattern struct {
	Pattern
	re     *regexp.Regexp
	needle string
}

// find returns the [start, end) byte offsets of the first occurrence in
// text, or nil.
func (p *compiledPattern) find(text string) []int {
	if p.re != nil {
		return p.re.FindStringIndex(text)
	}
	idx := strings.Index(strings.ToLower(text), p.needle)
	if idx < 0 {
		return nil
	}
	return []int{idx, idx + len(p.needle)}
}

func compilePatterns(patterns []Pattern) ([]compiledPattern, error) {
	if len(patterns) == 0 {
		return nil, errors.New(errors.CodeConfig, "pattern catalog is empty")
	}
	seen := make(map[string]bool, len(patterns))
	out := make([]compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		if p.ID == "" {
			return nil, errors.New(errors.CodeConfig, "pattern without id")
		}
		if seen[p.ID] {
			return nil, errors.AddContext(
				errors.New(errors.CodeConfig, "duplicate pattern id"),
				errors.CtxPattern, p.ID)
		}
		seen[p.ID] = true
		if !p.Severity.IsValid() {
			return nil, errors.AddContext(
				errors.New(errors.CodeConfig, "pattern has invalid severity"),
				errors.CtxPattern, p.ID)
		}
		if p.BaseScore == 0 {
			p.BaseScore = DefaultBaseScore
		}
		if p.BaseScore < 0 || p.BaseScore > 1 {
			return nil, errors.AddContext(
				errors.New(errors.CodeConfig, "pattern base score outside [0,1]"),
				errors.CtxPattern, p.ID)
		}
		if p.Expr == "" {
			return nil, errors.AddContext(
				errors.New(errors.CodeConfig, "pattern without expression"),
				errors.CtxPattern, p.ID)
		}

		cp := compiledPattern{Pattern: p}
		switch p.Kind {
		case MatchRegex, "":
			re, err := regexp.Compile(p.Expr)
			if err != nil {
				return nil, errors.AddContext(
					errors.Wrap(err, errors.CodeConfig, "pattern regex does not compile"),
					errors.CtxPattern, p.ID)
			}
			cp.re = re
		case MatchSubstring:
			cp.needle = strings.ToLower(p.Expr)
		default:
			return nil, errors.AddContext(
				errors.New(errors.CodeConfig, "unknown pattern match kind"),
				errors.CtxPattern, p.ID)
		}
		out = append(out, cp)
	}
	return out, nil
}

// Match is a single scored hit. Line and Column are 1-based.
type Match struct {
	Pattern    Pattern
	Line       int
	Column     int
	Text       string
	Snippet    string
	Severity   types.Severity
	Confidence float64
	KeySize    int
}
