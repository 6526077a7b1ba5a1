// Package types holds the shared data model for the audit engine: the
// language/severity/family enums, the parsed-file representation handed
// from the parser to the detector, and the report structures returned to
// embedding hosts. Everything here is plain data; all logic lives in the
// parser, detector, and audit packages.
package types

import (
	"fmt"
	"path"
	"strings"
)

// Version is reported in AuditReport metadata.
const Version = "0.4.0"

// Language identifies the source language of a scanned file. It drives
// which comment, import, and string syntax the parser applies.
type Language string

const (
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguageGo         Language = "go"
	LanguageJava       Language = "java"
	// LanguageRust covers Rust and the C family; they share comment and
	// call syntax closely enough for line-level detection.
	LanguageRust    Language = "rust"
	LanguageUnknown Language = "unknown"
)

var languageAliases = map[string]Language{
	"python":     LanguagePython,
	"py":         LanguagePython,
	"javascript": LanguageJavaScript,
	"js":         LanguageJavaScript,
	"typescript": LanguageTypeScript,
	"ts":         LanguageTypeScript,
	"go":         LanguageGo,
	"golang":     LanguageGo,
	"java":       LanguageJava,
	"rust":       LanguageRust,
	"rs":         LanguageRust,
	"c":          LanguageRust,
	"cpp":        LanguageRust,
	"c++":        LanguageRust,
}

var languageExtensions = map[string]Language{
	".py":   LanguagePython,
	".pyw":  LanguagePython,
	".js":   LanguageJavaScript,
	".mjs":  LanguageJavaScript,
	".cjs":  LanguageJavaScript,
	".jsx":  LanguageJavaScript,
	".ts":   LanguageTypeScript,
	".tsx":  LanguageTypeScript,
	".go":   LanguageGo,
	".java": LanguageJava,
	".rs":   LanguageRust,
	".c":    LanguageRust,
	".h":    LanguageRust,
	".cc":   LanguageRust,
	".cpp":  LanguageRust,
	".hpp":  LanguageRust,
}

// LanguageFromHint resolves an explicit language name or alias.
func LanguageFromHint(hint string) (Language, bool) {
	lang, ok := languageAliases[strings.ToLower(strings.TrimSpace(hint))]
	return lang, ok
}

// LanguageFromPath resolves a language from a file extension.
func LanguageFromPath(p string) Language {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(p)))
	if lang, ok := languageExtensions[ext]; ok {
		return lang
	}
	return LanguageUnknown
}

// ResolveLanguage tries an explicit hint first, then the extension, and
// degrades to LanguageUnknown.
func ResolveLanguage(pathOrHint string) Language {
	if lang, ok := LanguageFromHint(pathOrHint); ok {
		return lang
	}
	return LanguageFromPath(pathOrHint)
}

// Severity orders findings from informational to critical.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSeverity accepts the lowercase names emitted by String.
func ParseSeverity(value string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "info":
		return SeverityInfo, nil
	case "low":
		return SeverityLow, nil
	case "medium":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	case "critical":
		return SeverityCritical, nil
	}
	return SeverityInfo, fmt.Errorf("unknown severity %q", value)
}

// IsValid reports whether s is one of the five defined levels.
func (s Severity) IsValid() bool {
	return s >= SeverityInfo && s <= SeverityCritical
}

// PrimitiveFamily is a class of cryptographic algorithm rather than one
// named algorithm.
type PrimitiveFamily string

const (
	// FamilyIntegerFactorization covers RSA/DSA style public-key schemes
	// broken by Shor's algorithm over factoring or discrete logs.
	FamilyIntegerFactorization PrimitiveFamily = "integer-factorization-public-key"
	FamilyEllipticCurve        PrimitiveFamily = "elliptic-curve-public-key"
	FamilyKeyExchange          PrimitiveFamily = "key-exchange"
	FamilyBrokenHash           PrimitiveFamily = "broken-hash"
	FamilyDeprecatedCipher     PrimitiveFamily = "deprecated-block-cipher"
)

// IsValid reports whether f names a known family.
func (f PrimitiveFamily) IsValid() bool {
	switch f {
	case FamilyIntegerFactorization, FamilyEllipticCurve, FamilyKeyExchange,
		FamilyBrokenHash, FamilyDeprecatedCipher:
		return true
	}
	return false
}

// Location points at one matched spot in scanned source.
type Location struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Snippet string `json:"snippet,omitempty"`
}

// Line is one source line annotated by the parser. Numbers are 1-based
// and contiguous.
type Line struct {
	Number    int    `json:"number"`
	Text      string `json:"text"`
	IsComment bool   `json:"is_comment"`
	Indent    int    `json:"indent"`
}

// Import records one module/package reference, verbatim, unresolved.
type Import struct {
	Module string `json:"module"`
	Line   int    `json:"line"`
}

// FunctionInfo is a best-effort function boundary. Boundaries are
// ordered and non-overlapping but not guaranteed exact.
type FunctionInfo struct {
	Name      string `json:"name"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// ParsedFile is the parser's output: a line-indexed, comment-aware view
// of one source file. It is immutable after construction and owned by
// the audit call that produced it.
type ParsedFile struct {
	Path      string         `json:"path"`
	Language  Language       `json:"language"`
	Lines     []Line         `json:"lines"`
	Imports   []Import       `json:"imports"`
	Functions []FunctionInfo `json:"functions"`
	// Degraded is set when the structured parse fell back to plain line
	// scanning (unknown language, lossy decoding, or grammar failure).
	Degraded bool `json:"degraded,omitempty"`
}

// FunctionAt returns the innermost function whose boundary covers line.
func (p *ParsedFile) FunctionAt(line int) (FunctionInfo, bool) {
	best := FunctionInfo{}
	found := false
	for _, fn := range p.Functions {
		if line < fn.StartLine || line > fn.EndLine {
			continue
		}
		if !found || fn.StartLine >= best.StartLine {
			best = fn
			found = true
		}
	}
	return best, found
}

// ContextWeights is the tunable confidence multiplier table. Values are
// multiplicative against the pattern's base score and the result is
// clamped to [0, 1].
type ContextWeights struct {
	// CryptoFunction applies when the match sits inside a function whose
	// name suggests cryptographic purpose. Expected >= 1.
	CryptoFunction float64 `json:"crypto_function" toml:"crypto_function"`
	// ImportCorroboration applies when an import in the file corroborates
	// the pattern's primitive family. Expected >= 1.
	ImportCorroboration float64 `json:"import_corroboration" toml:"import_corroboration"`
	// StringLiteral applies when the match appears to sit inside a quoted
	// string used as a label. Expected <= 1.
	StringLiteral float64 `json:"string_literal" toml:"string_literal"`
}

// DefaultContextWeights returns the stock multiplier table.
func DefaultContextWeights() ContextWeights {
	return ContextWeights{
		CryptoFunction:      1.25,
		ImportCorroboration: 1.2,
		StringLiteral:       0.6,
	}
}

// AuditConfig is supplied by the caller and validated once at engine
// construction.
type AuditConfig struct {
	// SeverityThreshold drops findings below this level from the report.
	SeverityThreshold Severity `json:"severity_threshold"`
	// IncludePatterns / ExcludePatterns are glob allow/deny lists over
	// pattern ids. An empty include list allows every pattern.
	IncludePatterns []string `json:"include_patterns,omitempty"`
	ExcludePatterns []string `json:"exclude_patterns,omitempty"`
	// MaxInputSize caps one file's byte size. 0 selects the default.
	MaxInputSize int `json:"max_input_size"`
	// MaxLines caps one file's line count. 0 selects the default.
	MaxLines int `json:"max_lines"`
	// StripComments skips comment lines during detection.
	StripComments bool           `json:"strip_comments"`
	Weights       ContextWeights `json:"weights"`
	// CacheCapacity bounds the parsed-file reuse arena. 0 selects the
	// default; negative disables caching.
	CacheCapacity int `json:"cache_capacity"`
	// MaxFilesPerSecond paces AuditMany for embedded hosts. 0 disables
	// pacing.
	MaxFilesPerSecond float64 `json:"max_files_per_second"`
	// GeneratedAt is copied verbatim into report metadata; the engine
	// never reads a clock.
	GeneratedAt string `json:"generated_at,omitempty"`
}

// DefaultConfig returns the stock configuration: everything reported,
// comments stripped, 10MB / 500k-line input caps.
func DefaultConfig() AuditConfig {
	return AuditConfig{
		SeverityThreshold: SeverityInfo,
		MaxInputSize:      DefaultMaxInputSize,
		MaxLines:          DefaultMaxLines,
		StripComments:     true,
		Weights:           DefaultContextWeights(),
		CacheCapacity:     DefaultCacheCapacity,
	}
}

const (
	DefaultMaxInputSize  = 10 * 1024 * 1024
	DefaultMaxLines      = 500_000
	DefaultCacheCapacity = 128
)

// Finding is the audit-facing unit: one confidence-scored pattern match
// at one location. Findings are never mutated after creation.
type Finding struct {
	// ID is stable across runs: identical input yields identical ids.
	ID                string          `json:"id"`
	PatternID         string          `json:"pattern_id"`
	Severity          Severity        `json:"severity"`
	Family            PrimitiveFamily `json:"primitive_family"`
	Location          Location        `json:"location"`
	Description       string          `json:"description"`
	Recommendation    string          `json:"recommendation"`
	Confidence        float64         `json:"confidence"`
	QuantumVulnerable bool            `json:"quantum_vulnerable"`
	// KeySize is the extracted key size in bits when the line carries
	// one, else 0.
	KeySize int `json:"key_size,omitempty"`
}

// RiskLevel is the four-bucket discretization of the normalized score.
type RiskLevel string

const (
	RiskCatastrophic RiskLevel = "catastrophic"
	RiskHigh         RiskLevel = "high"
	RiskMedium       RiskLevel = "medium"
	RiskLow          RiskLevel = "low"
)

// LevelForScore buckets a normalized total. Boundaries resolve upward
// exclusive so every value lands in exactly one bucket.
func LevelForScore(total float64) RiskLevel {
	switch {
	case total > 8.0:
		return RiskCatastrophic
	case total >= 5.0:
		return RiskHigh
	case total >= 2.0:
		return RiskMedium
	}
	return RiskLow
}

// SeverityCounts tallies findings per severity level.
type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Info     int `json:"info"`
}

// Add increments the tally for one severity.
func (c *SeverityCounts) Add(s Severity) {
	switch s {
	case SeverityCritical:
		c.Critical++
	case SeverityHigh:
		c.High++
	case SeverityMedium:
		c.Medium++
	case SeverityLow:
		c.Low++
	case SeverityInfo:
		c.Info++
	}
}

// RiskScore is derived from a report's post-filter finding set.
type RiskScore struct {
	Total  float64        `json:"total"`
	Counts SeverityCounts `json:"counts"`
	Level  RiskLevel      `json:"level"`
}

// SkippedFile records one file of a batch that could not be analyzed.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// ReportSummary carries the aggregate counters of a scan.
type ReportSummary struct {
	FilesScanned int `json:"files_scanned"`
	LinesScanned int `json:"lines_scanned"`
	// QuantumVulnerableFamilies and DeprecatedFamilies list the distinct
	// primitive families seen, sorted, split by quantum vulnerability.
	QuantumVulnerableFamilies []PrimitiveFamily `json:"quantum_vulnerable_families"`
	DeprecatedFamilies        []PrimitiveFamily `json:"deprecated_families"`
}

// ReportMetadata identifies the producing tool and records soft per-file
// failures of a batch.
type ReportMetadata struct {
	ToolVersion string        `json:"tool_version"`
	GeneratedAt string        `json:"generated_at,omitempty"`
	Skipped     []SkippedFile `json:"skipped,omitempty"`
}

// AuditReport is the terminal artifact of an audit call. Immutable once
// returned; intended for serialization by the caller.
type AuditReport struct {
	Findings        []Finding      `json:"findings"`
	RiskScore       RiskScore      `json:"risk_score"`
	Summary         ReportSummary  `json:"summary"`
	Recommendations []string       `json:"recommendations,omitempty"`
	Metadata        ReportMetadata `json:"metadata"`
}
