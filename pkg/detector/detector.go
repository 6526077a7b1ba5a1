package detector

import (
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"pqscan/internal/observability"
	"pqscan/pkg/types"
)

// cryptoFunctionName marks enclosing functions whose name suggests
// cryptographic intent, which raises confidence in a hit inside them.
var cryptoFunctionName = regexp.MustCompile(`(?i)(key|crypt|sign|verif|hash|digest|cipher|tls|ssl|auth|token|cert)`)

// rsaKeySize pulls the modulus size out of a line that already matched
// an integer-factorization pattern.
var rsaKeySize = regexp.MustCompile(`(?i)rsa[^0-9]*\b(512|768|1024|1536|2048|3072|4096|8192)\b`)

// importHints maps each family to module-name fragments that, when
// present among the file's imports, corroborate a hit of that family.
var importHints = map[types.PrimitiveFamily][]string{
	types.FamilyIntegerFactorization: {"rsa", "dsa", "crypto", "ssl", "security", "forge"},
	types.FamilyEllipticCurve:        {"ec", "elliptic", "crypto", "ssl", "security"},
	types.FamilyKeyExchange:          {"ecdh", "dh", "crypto", "ssl", "security"},
	types.FamilyBrokenHash:           {"hashlib", "md5", "sha", "digest", "crypto", "security"},
	types.FamilyDeprecatedCipher:     {"des", "rc4", "cipher", "crypto", "ssl", "security"},
}

// Detector holds a compiled catalog plus the context weights applied
// to every match. A Detector is immutable after New and safe for
// concurrent use.
type Detector struct {
	patterns []compiledPattern
	weights  types.ContextWeights

	// SkipComments drops matches on lines the parser marked as
	// comments. On by default; flip it to audit commented-out code.
	SkipComments bool
}

func New(patterns []Pattern, weights types.ContextWeights) (*Detector, error) {
	compiled, err := compilePatterns(patterns)
	if err != nil {
		return nil, err
	}
	if weights == (types.ContextWeights{}) {
		weights = types.DefaultContextWeights()
	}
	return &Detector{
		patterns:     compiled,
		weights:      weights,
		SkipComments: true,
	}, nil
}

// Detect scans every non-comment line of file against the catalog. At
// most one match per pattern per line is reported, at the pattern's
// first occurrence. Results are ordered by line, column, pattern id.
func (d *Detector) Detect(file *types.ParsedFile) []Match {
	start := time.Now()
	imported := d.corroboratedFamilies(file)

	var matches []Match
	for i := range file.Lines {
		line := &file.Lines[i]
		if line.Text == "" || (d.SkipComments && line.IsComment) {
			continue
		}
		matches = append(matches, d.detectLine(file, line, imported)...)
	}

	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.Pattern.ID < b.Pattern.ID
	})

	observability.DetectionDuration.Observe(time.Since(start).Seconds())
	return matches
}

func (d *Detector) detectLine(file *types.ParsedFile, line *types.Line, imported map[types.PrimitiveFamily]bool) []Match {
	var out []Match
	for i := range d.patterns {
		p := &d.patterns[i]
		m, ok := d.matchPattern(p, file, line, imported)
		if ok {
			out = append(out, m)
		}
	}
	return out
}

// matchPattern is isolated so a pathological pattern cannot take down
// the whole scan; a panic is counted and the pattern skipped for this
// line.
func (d *Detector) matchPattern(p *compiledPattern, file *types.ParsedFile, line *types.Line, imported map[types.PrimitiveFamily]bool) (match Match, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			observability.PatternErrorsTotal.Inc()
			slog.Error("pattern evaluation panicked",
				"pattern", p.ID, "line", line.Number, "panic", r)
			ok = false
		}
	}()

	loc := p.find(line.Text)
	if loc == nil {
		return Match{}, false
	}

	severity := p.Severity
	keySize := 0
	if p.Family == types.FamilyIntegerFactorization {
		if m := rsaKeySize.FindStringSubmatch(line.Text); m != nil {
			keySize, _ = strconv.Atoi(m[1])
		}
		if keySize > 0 && keySize < 2048 {
			severity = types.SeverityCritical
		}
	}

	return Match{
		Pattern:    p.Pattern,
		Line:       line.Number,
		Column:     loc[0] + 1,
		Text:       line.Text[loc[0]:loc[1]],
		Snippet:    strings.TrimSpace(line.Text),
		Severity:   severity,
		Confidence: d.confidence(p, file, line, loc[0], imported),
		KeySize:    keySize,
	}, true
}

// confidence starts from the pattern's base score and applies the
// context multipliers: a crypto-named enclosing function and a
// corroborating import raise it, a hit inside a string literal lowers
// it. The result is clamped to [0,1].
func (d *Detector) confidence(p *compiledPattern, file *types.ParsedFile, line *types.Line, col int, imported map[types.PrimitiveFamily]bool) float64 {
	score := p.BaseScore

	if fn, ok := file.FunctionAt(line.Number); ok && cryptoFunctionName.MatchString(fn.Name) {
		score *= d.weights.CryptoFunction
	}
	if imported[p.Family] {
		score *= d.weights.ImportCorroboration
	}
	if insideStringLiteral(line.Text, col) {
		score *= d.weights.StringLiteral
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func (d *Detector) corroboratedFamilies(file *types.ParsedFile) map[types.PrimitiveFamily]bool {
	out := make(map[types.PrimitiveFamily]bool, len(importHints))
	for _, imp := range file.Imports {
		module := strings.ToLower(imp.Module)
		for family, hints := range importHints {
			if out[family] {
				continue
			}
			for _, hint := range hints {
				if strings.Contains(module, hint) {
					out[family] = true
					break
				}
			}
		}
	}
	return out
}

// insideStringLiteral reports whether byte offset col sits inside an
// open quote. Escapes are honored; nesting across lines is not, which
// matches the line-oriented scan.
func insideStringLiteral(text string, col int) bool {
	var inSingle, inDouble, inBack bool
	for i := 0; i < col && i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case '\'':
			if !inDouble && !inBack {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle && !inBack {
				inDouble = !inDouble
			}
		case '`':
			if !inSingle && !inDouble {
				inBack = !inBack
			}
		}
	}
	return inSingle || inDouble || inBack
}
