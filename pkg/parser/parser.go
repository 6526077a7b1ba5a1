// Package parser turns raw source bytes plus a language tag into a
// line-indexed, comment-aware ParsedFile with extracted imports and
// best-effort function boundaries. Known languages go through
// tree-sitter grammars; anything else, and any grammar failure,
// degrades to plain line scanning rather than erroring.
package parser

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"pqscan/internal/observability"
	"pqscan/pkg/errors"
	"pqscan/pkg/types"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

type Parser struct {
	languages  map[types.Language]*sitter.Language
	extractors map[types.Language]*extractorEngine
}

// New builds a parser with every supported grammar loaded. Grammars are
// immutable and shared by all Parse calls, so one Parser instance can
// serve concurrent files.
func New() *Parser {
	p := &Parser{
		languages: map[types.Language]*sitter.Language{
			types.LanguagePython:     sitter.NewLanguage(tree_sitter_python.Language()),
			types.LanguageGo:         sitter.NewLanguage(tree_sitter_go.Language()),
			types.LanguageJava:       sitter.NewLanguage(tree_sitter_java.Language()),
			types.LanguageJavaScript: sitter.NewLanguage(tree_sitter_javascript.Language()),
			types.LanguageTypeScript: sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
			types.LanguageRust:       sitter.NewLanguage(tree_sitter_rust.Language()),
		},
		extractors: map[types.Language]*extractorEngine{
			types.LanguagePython:     newExtractorEngine(pythonHandlers()),
			types.LanguageGo:         newExtractorEngine(goHandlers()),
			types.LanguageJava:       newExtractorEngine(javaHandlers()),
			types.LanguageJavaScript: newExtractorEngine(javascriptHandlers()),
			types.LanguageTypeScript: newExtractorEngine(javascriptHandlers()),
			types.LanguageRust:       newExtractorEngine(rustHandlers()),
		},
	}
	return p
}

// Parse converts content into a ParsedFile. pathOrLang may be an
// explicit language name ("python") or a file path whose extension is
// used. The only error condition is content exceeding maxBytes; every
// other problem degrades to a best-effort result because partial
// structure is still useful downstream.
func (p *Parser) Parse(content []byte, pathOrLang string, maxBytes int) (*types.ParsedFile, error) {
	if maxBytes > 0 && len(content) > maxBytes {
		err := errors.New(errors.CodeInputTooLarge, "content exceeds max input size")
		return nil, errors.AddContext(err, errors.CtxPath, pathOrLang)
	}

	start := time.Now()
	lang := types.ResolveLanguage(pathOrLang)
	lines, lossy := buildLines(content)

	file := &types.ParsedFile{
		Path:     pathOrLang,
		Language: lang,
		Lines:    lines,
		Degraded: lossy,
	}

	if len(lines) > 0 && lang != types.LanguageUnknown {
		if !p.extractStructured(file, content, lang) {
			file.Degraded = true
			scanLines(file, lang)
		}
	}
	normalizeFunctions(file)

	observability.ParsingDuration.WithLabelValues(string(lang)).Observe(time.Since(start).Seconds())
	return file, nil
}

// extractStructured runs the tree-sitter pipeline. Returns false when
// the grammar is unavailable or the parse failed, so the caller can
// fall back to line scanning.
func (p *Parser) extractStructured(file *types.ParsedFile, content []byte, lang types.Language) (ok bool) {
	grammar := p.languages[lang]
	engine := p.extractors[lang]
	if grammar == nil || engine == nil {
		return false
	}

	// A grammar bug must degrade the file, never abort the audit.
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	tree := parser.Parse(content, nil)
	if tree == nil {
		return false
	}
	defer tree.Close()

	ctx := &extractionContext{source: content, file: file}
	engine.walk(ctx, tree.RootNode())
	markCommentLines(file, ctx.comments)
	return true
}

// buildLines splits content into annotated lines. Line numbers are
// 1-based and the count matches the input's logical line count: a
// trailing newline does not create an empty extra line, and empty
// content has zero lines. Invalid UTF-8 is repaired lossily.
func buildLines(content []byte) ([]types.Line, bool) {
	if len(content) == 0 {
		return nil, false
	}
	raw := strings.Split(string(content), "\n")
	if len(raw) > 1 && raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}

	lossy := false
	lines := make([]types.Line, len(raw))
	for i, text := range raw {
		text = strings.TrimSuffix(text, "\r")
		if !utf8.ValidString(text) {
			text = strings.ToValidUTF8(text, "�")
			lossy = true
		}
		lines[i] = types.Line{
			Number: i + 1,
			Text:   text,
			Indent: indentDepth(text),
		}
	}
	return lines, lossy
}

func indentDepth(text string) int {
	depth := 0
	for _, r := range text {
		if r != ' ' && r != '\t' {
			break
		}
		depth++
	}
	return depth
}

// commentSpan is a half-open region reported by the grammar, rows and
// columns 0-based in bytes.
type commentSpan struct {
	startRow, startCol int
	endRow, endCol     int
}

// markCommentLines flags every line whose non-whitespace content is
// entirely covered by a comment node. A trailing comment after code
// does not flag the line.
func markCommentLines(file *types.ParsedFile, spans []commentSpan) {
	for _, span := range spans {
		for row := span.startRow; row <= span.endRow && row < len(file.Lines); row++ {
			line := &file.Lines[row]
			contentStart := line.Indent
			contentEnd := len(strings.TrimRight(line.Text, " \t"))
			if contentEnd <= contentStart {
				continue
			}
			coversStart := row > span.startRow || span.startCol <= contentStart
			coversEnd := row < span.endRow || span.endCol >= contentEnd
			if coversStart && coversEnd {
				line.IsComment = true
			}
		}
	}
}

// normalizeFunctions sorts boundaries and enforces the ordered,
// non-overlapping invariant. When a nested definition starts inside an
// enclosing one, the enclosing boundary is truncated just before it;
// boundaries are heuristic annotations, not structural guarantees.
func normalizeFunctions(file *types.ParsedFile) {
	fns := file.Functions
	if len(fns) == 0 {
		return
	}
	sort.SliceStable(fns, func(i, j int) bool {
		if fns[i].StartLine != fns[j].StartLine {
			return fns[i].StartLine < fns[j].StartLine
		}
		return fns[i].EndLine > fns[j].EndLine
	})

	out := fns[:0]
	for _, fn := range fns {
		if fn.EndLine < fn.StartLine {
			fn.EndLine = fn.StartLine
		}
		if n := len(out); n > 0 {
			prev := &out[n-1]
			if fn.StartLine <= prev.EndLine {
				if fn.StartLine <= prev.StartLine {
					// Duplicate boundary on the same line; keep the first.
					continue
				}
				prev.EndLine = fn.StartLine - 1
			}
		}
		out = append(out, fn)
	}
	file.Functions = out
}
