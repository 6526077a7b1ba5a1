package parser

import (
	"regexp"
	"strings"

	"pqscan/pkg/types"
)

// The line scanner backs up the grammar pipeline. It marks comment
// lines with a prefix and block state machine and pulls imports and
// function starts out with regular expressions. Results are coarser
// than tree-sitter's but good enough for context scoring.

type commentStyle struct {
	linePrefix string
	blockStart string
	blockEnd   string
}

var commentStyles = map[types.Language]commentStyle{
	types.LanguagePython:     {linePrefix: "#"},
	types.LanguageGo:         {linePrefix: "//", blockStart: "/*", blockEnd: "*/"},
	types.LanguageJavaScript: {linePrefix: "//", blockStart: "/*", blockEnd: "*/"},
	types.LanguageTypeScript: {linePrefix: "//", blockStart: "/*", blockEnd: "*/"},
	types.LanguageJava:       {linePrefix: "//", blockStart: "/*", blockEnd: "*/"},
	types.LanguageRust:       {linePrefix: "//", blockStart: "/*", blockEnd: "*/"},
}

var (
	pythonImportRe   = regexp.MustCompile(`^\s*(?:from\s+([\w.]+)\s+import|import\s+([\w.]+))`)
	pythonFuncRe     = regexp.MustCompile(`^\s*(?:async\s+)?def\s+(\w+)`)
	goSingleImportRe = regexp.MustCompile(`^\s*import\s+(?:\w+\s+|\.\s+|_\s+)?"([^"]+)"`)
	goBlockImportRe  = regexp.MustCompile(`^\s*(?:\w+\s+|\.\s+|_\s+)?"([^"]+)"`)
	goFuncRe         = regexp.MustCompile(`^func\s+(?:\([^)]*\)\s*)?(\w+)`)
	jsImportFromRe   = regexp.MustCompile(`import\s+.*?from\s+['"]([^'"]+)['"]`)
	jsBareImportRe   = regexp.MustCompile(`^\s*import\s+['"]([^'"]+)['"]`)
	jsRequireRe      = regexp.MustCompile(`require\s*\(\s*['"]([^'"]+)['"]`)
	jsFuncRe         = regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?function\s*\*?\s*(\w+)`)
	javaImportRe     = regexp.MustCompile(`^\s*import\s+(?:static\s+)?([\w.]+)`)
	rustUseRe        = regexp.MustCompile(`^\s*(?:pub\s+)?use\s+([\w:]+)`)
	rustFuncRe       = regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?(?:unsafe\s+)?fn\s+(\w+)`)
)

func scanLines(file *types.ParsedFile, lang types.Language) {
	markCommentsByPrefix(file, commentStyles[lang])

	inGoImportBlock := false
	for i := range file.Lines {
		line := &file.Lines[i]
		if line.IsComment || strings.TrimSpace(line.Text) == "" {
			continue
		}
		text := line.Text

		switch lang {
		case types.LanguagePython:
			if m := pythonImportRe.FindStringSubmatch(text); m != nil {
				module := m[1]
				if module == "" {
					module = m[2]
				}
				appendImport(file, module, line.Number)
			}
			if m := pythonFuncRe.FindStringSubmatch(text); m != nil {
				end := pythonBlockEnd(file.Lines, i)
				appendFunction(file, m[1], line.Number, end)
			}
		case types.LanguageGo:
			trimmed := strings.TrimSpace(text)
			switch {
			case inGoImportBlock:
				if trimmed == ")" {
					inGoImportBlock = false
				} else if m := goBlockImportRe.FindStringSubmatch(text); m != nil {
					appendImport(file, m[1], line.Number)
				}
			case strings.HasPrefix(trimmed, "import ("):
				inGoImportBlock = true
			default:
				if m := goSingleImportRe.FindStringSubmatch(text); m != nil {
					appendImport(file, m[1], line.Number)
				}
			}
			if m := goFuncRe.FindStringSubmatch(text); m != nil {
				appendFunction(file, m[1], line.Number, braceBlockEnd(file.Lines, i))
			}
		case types.LanguageJavaScript, types.LanguageTypeScript:
			if m := jsImportFromRe.FindStringSubmatch(text); m != nil {
				appendImport(file, m[1], line.Number)
			} else if m := jsBareImportRe.FindStringSubmatch(text); m != nil {
				appendImport(file, m[1], line.Number)
			}
			if m := jsRequireRe.FindStringSubmatch(text); m != nil {
				appendImport(file, m[1], line.Number)
			}
			if m := jsFuncRe.FindStringSubmatch(text); m != nil {
				appendFunction(file, m[1], line.Number, braceBlockEnd(file.Lines, i))
			}
		case types.LanguageJava:
			if m := javaImportRe.FindStringSubmatch(text); m != nil {
				appendImport(file, m[1], line.Number)
			}
		case types.LanguageRust:
			if m := rustUseRe.FindStringSubmatch(text); m != nil {
				appendImport(file, m[1], line.Number)
			}
			if m := rustFuncRe.FindStringSubmatch(text); m != nil {
				appendFunction(file, m[1], line.Number, braceBlockEnd(file.Lines, i))
			}
		}
	}
}

func markCommentsByPrefix(file *types.ParsedFile, style commentStyle) {
	if style.linePrefix == "" && style.blockStart == "" {
		return
	}
	inBlock := false
	for i := range file.Lines {
		line := &file.Lines[i]
		trimmed := strings.TrimSpace(line.Text)
		if trimmed == "" {
			continue
		}

		if inBlock {
			idx := strings.Index(trimmed, style.blockEnd)
			if idx < 0 {
				line.IsComment = true
				continue
			}
			inBlock = false
			if strings.TrimSpace(trimmed[idx+len(style.blockEnd):]) == "" {
				line.IsComment = true
			}
			continue
		}

		if style.linePrefix != "" && strings.HasPrefix(trimmed, style.linePrefix) {
			line.IsComment = true
			continue
		}

		if style.blockStart != "" && strings.HasPrefix(trimmed, style.blockStart) {
			rest := trimmed[len(style.blockStart):]
			idx := strings.Index(rest, style.blockEnd)
			if idx < 0 {
				inBlock = true
				line.IsComment = true
			} else if strings.TrimSpace(rest[idx+len(style.blockEnd):]) == "" {
				line.IsComment = true
			}
		}
	}
}

func appendImport(file *types.ParsedFile, module string, lineNum int) {
	module = strings.TrimSpace(module)
	if module == "" {
		return
	}
	file.Imports = append(file.Imports, types.Import{Module: module, Line: lineNum})
}

func appendFunction(file *types.ParsedFile, name string, start, end int) {
	if end < start {
		end = start
	}
	file.Functions = append(file.Functions, types.FunctionInfo{
		Name:      name,
		StartLine: start,
		EndLine:   end,
	})
}

// pythonBlockEnd finds the last line of an indentation-delimited block
// starting at defIdx. Blank and comment lines inside the block do not
// terminate it.
func pythonBlockEnd(lines []types.Line, defIdx int) int {
	base := lines[defIdx].Indent
	end := lines[defIdx].Number
	for i := defIdx + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i].Text) == "" {
			continue
		}
		if lines[i].Indent <= base {
			break
		}
		end = lines[i].Number
	}
	return end
}

// braceBlockEnd tracks brace depth from a declaration line to the line
// where it closes. Braces inside strings are not accounted for; the
// result is a heuristic boundary.
func braceBlockEnd(lines []types.Line, declIdx int) int {
	depth := 0
	opened := false
	for i := declIdx; i < len(lines); i++ {
		for _, r := range lines[i].Text {
			switch r {
			case '{':
				depth++
				opened = true
			case '}':
				depth--
			}
		}
		if opened && depth <= 0 {
			return lines[i].Number
		}
	}
	return lines[len(lines)-1].Number
}
