// Package audit orchestrates the parse and detect stages into complete
// reports. The engine performs no file or network I/O: hosts hand it
// raw bytes and embed the returned report however they like.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pqscan/internal/observability"
	"pqscan/internal/util"
	"pqscan/pkg/detector"
	"pqscan/pkg/errors"
	"pqscan/pkg/parser"
	"pqscan/pkg/types"
)

// findingNamespace fixes the UUIDv5 namespace for finding ids so the
// same match always yields the same id across processes and versions.
var findingNamespace = uuid.MustParse("e3f1a7d2-9c44-5b18-8a02-4d6f0b7c3e91")

// File is one member of a batch audit.
type File struct {
	Path    string
	Content []byte
}

// Engine is the audit orchestrator. Construct it once with New and
// share it: all state after construction is either immutable or
// internally synchronized.
type Engine struct {
	cfg     types.AuditConfig
	parser  *parser.Parser
	det     *detector.Detector
	filter  *patternFilter
	cache   *parseCache
	limiter *util.Limiter
}

// New builds an engine over the built-in catalog.
func New(cfg types.AuditConfig) (*Engine, error) {
	return NewWithCatalog(cfg, detector.DefaultCatalog())
}

// NewWithCatalog builds an engine over a caller-supplied catalog, for
// hosts that load their own TOML rules.
func NewWithCatalog(cfg types.AuditConfig, patterns []detector.Pattern) (*Engine, error) {
	cfg, err := normalizeConfig(cfg)
	if err != nil {
		return nil, err
	}
	filter, err := compileFilter(cfg.IncludePatterns, cfg.ExcludePatterns)
	if err != nil {
		return nil, err
	}
	det, err := detector.New(patterns, cfg.Weights)
	if err != nil {
		return nil, err
	}
	det.SkipComments = cfg.StripComments

	e := &Engine{
		cfg:    cfg,
		parser: parser.New(),
		det:    det,
		filter: filter,
	}
	if cfg.CacheCapacity > 0 {
		e.cache = newParseCache(cfg.CacheCapacity)
	}
	if cfg.MaxFilesPerSecond > 0 {
		burst := int(cfg.MaxFilesPerSecond)
		if burst < 1 {
			burst = 1
		}
		e.limiter = util.NewLimiter(cfg.MaxFilesPerSecond, burst)
	}
	return e, nil
}

// AuditOne analyzes a single source buffer. pathOrLang is either an
// explicit language name or a path whose extension selects the
// language; it is also used verbatim in finding locations.
func (e *Engine) AuditOne(ctx context.Context, content []byte, pathOrLang string) (*types.AuditReport, error) {
	ctx, span := observability.Tracer.Start(ctx, "audit.one")
	defer span.End()
	start := time.Now()

	findings, lines, err := e.auditFile(ctx, content, pathOrLang)
	if err != nil {
		return nil, err
	}

	report := e.buildReport(findings, 1, lines, nil)
	observability.AuditDuration.WithLabelValues("one").Observe(time.Since(start).Seconds())
	return report, nil
}

// AuditMany analyzes a batch concurrently and merges the results into
// one report. A file that fails validation is recorded under
// Metadata.Skipped instead of failing the batch; only context
// cancellation aborts the whole call.
func (e *Engine) AuditMany(ctx context.Context, files []File) (*types.AuditReport, error) {
	ctx, span := observability.Tracer.Start(ctx, "audit.many")
	defer span.End()
	start := time.Now()

	type result struct {
		findings []types.Finding
		lines    int
		skipped  *types.SkippedFile
	}

	results := make([]result, len(files))
	jobs := make(chan int)

	workers := runtime.NumCPU()
	if workers > len(files) {
		workers = len(files)
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			skip := func(i int, err error) {
				slog.Warn("skipping file in batch audit",
					"path", files[i].Path, "error", err)
				observability.FilesSkippedTotal.Inc()
				results[i] = result{skipped: &types.SkippedFile{
					Path:   files[i].Path,
					Reason: err.Error(),
				}}
			}
			for i := range jobs {
				f := files[i]
				if e.limiter != nil {
					// Wait can also fail before cancellation when the
					// deadline cannot accommodate the next token; that
					// file is skipped, not silently dropped.
					if err := e.limiter.Wait(ctx, 1); err != nil {
						if ctx.Err() != nil {
							return
						}
						skip(i, err)
						continue
					}
				}
				findings, lines, err := e.auditFile(ctx, f.Content, f.Path)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					skip(i, err)
					continue
				}
				results[i] = result{findings: findings, lines: lines}
			}
		}()
	}

feed:
	for i := range files {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "batch audit canceled")
	}

	var findings []types.Finding
	var skipped []types.SkippedFile
	scanned := 0
	totalLines := 0
	for _, r := range results {
		if r.skipped != nil {
			skipped = append(skipped, *r.skipped)
			continue
		}
		findings = append(findings, r.findings...)
		totalLines += r.lines
		scanned++
	}

	report := e.buildReport(findings, scanned, totalLines, skipped)
	observability.AuditDuration.WithLabelValues("many").Observe(time.Since(start).Seconds())
	return report, nil
}

// hasTraversalSegment reports whether path contains a ".." segment.
// Consecutive dots inside a name, as in "v1..2.py", are fine.
func hasTraversalSegment(path string) bool {
	for _, seg := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return true
		}
	}
	return false
}

// auditFile runs parse, detect, filter, convert for one buffer.
func (e *Engine) auditFile(ctx context.Context, content []byte, pathOrLang string) ([]types.Finding, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if hasTraversalSegment(pathOrLang) {
		return nil, 0, errors.AddContext(
			errors.New(errors.CodeInvalidInput, "path must not contain traversal segments"),
			errors.CtxPath, pathOrLang)
	}

	file, err := e.parseCached(content, pathOrLang)
	if err != nil {
		return nil, 0, err
	}
	if len(file.Lines) > e.cfg.MaxLines {
		err := errors.New(errors.CodeInputTooLarge, "content exceeds max line count")
		return nil, 0, errors.AddContext(err, errors.CtxPath, pathOrLang)
	}

	observability.FilesScannedTotal.Inc()
	observability.LinesScannedTotal.Add(float64(len(file.Lines)))

	var findings []types.Finding
	for _, m := range e.det.Detect(file) {
		if !e.filter.allow(m.Pattern.ID) {
			continue
		}
		if m.Severity < e.cfg.SeverityThreshold {
			continue
		}
		f := toFinding(m, pathOrLang)
		observability.FindingsTotal.WithLabelValues(f.Severity.String()).Inc()
		findings = append(findings, f)
	}
	return findings, len(file.Lines), nil
}

// parseCached reuses a previous parse of identical bytes under the same
// language. The cached structure is shared read-only; locations are
// rebound to the caller's path at finding conversion.
func (e *Engine) parseCached(content []byte, pathOrLang string) (*types.ParsedFile, error) {
	if e.cache == nil {
		return e.parser.Parse(content, pathOrLang, e.cfg.MaxInputSize)
	}

	key := cacheKey(content, types.ResolveLanguage(pathOrLang))
	if file, ok := e.cache.get(key); ok {
		observability.ParseCacheHitsTotal.Inc()
		return file, nil
	}
	file, err := e.parser.Parse(content, pathOrLang, e.cfg.MaxInputSize)
	if err != nil {
		return nil, err
	}
	e.cache.put(key, file)
	return file, nil
}

func toFinding(m detector.Match, path string) types.Finding {
	seed := fmt.Sprintf("%s:%d:%d:%s", path, m.Line, m.Column, m.Pattern.ID)
	return types.Finding{
		ID:        uuid.NewSHA1(findingNamespace, []byte(seed)).String(),
		PatternID: m.Pattern.ID,
		Severity:  m.Severity,
		Family:    m.Pattern.Family,
		Location: types.Location{
			File:    path,
			Line:    m.Line,
			Column:  m.Column,
			Snippet: m.Snippet,
		},
		Description:       m.Pattern.Description,
		Recommendation:    m.Pattern.Recommendation,
		Confidence:        m.Confidence,
		QuantumVulnerable: m.Pattern.QuantumVulnerable,
		KeySize:           m.KeySize,
	}
}

func (e *Engine) buildReport(findings []types.Finding, filesScanned, totalLines int, skipped []types.SkippedFile) *types.AuditReport {
	sort.Slice(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Location.File != b.Location.File {
			return a.Location.File < b.Location.File
		}
		if a.Location.Line != b.Location.Line {
			return a.Location.Line < b.Location.Line
		}
		if a.Location.Column != b.Location.Column {
			return a.Location.Column < b.Location.Column
		}
		return a.PatternID < b.PatternID
	})
	sort.Slice(skipped, func(i, j int) bool { return skipped[i].Path < skipped[j].Path })

	return &types.AuditReport{
		Findings:        findings,
		RiskScore:       scoreFindings(findings, totalLines),
		Summary:         summarize(findings, filesScanned, totalLines),
		Recommendations: recommendations(findings),
		Metadata: types.ReportMetadata{
			ToolVersion: types.Version,
			GeneratedAt: e.cfg.GeneratedAt,
			Skipped:     skipped,
		},
	}
}
