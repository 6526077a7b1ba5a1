package parser

import (
	"strings"

	"pqscan/pkg/types"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// nodeHandler processes a node during the tree walk.
// Returns true if it has consumed the node's children and the walker should stop.
type nodeHandler func(ctx *extractionContext, node *sitter.Node) bool

// extractionContext carries shared state and helpers used by all handler tables.
type extractionContext struct {
	source   []byte
	file     *types.ParsedFile
	comments []commentSpan
}

// extractorEngine walks the syntax tree and dispatches node handlers by kind.
type extractorEngine struct {
	handlers map[string]nodeHandler
}

func newExtractorEngine(handlers map[string]nodeHandler) *extractorEngine {
	return &extractorEngine{handlers: handlers}
}

func (e *extractorEngine) walk(ctx *extractionContext, node *sitter.Node) {
	if node == nil {
		return
	}

	kind := node.Kind()
	if strings.Contains(kind, "comment") {
		ctx.comments = append(ctx.comments, commentSpan{
			startRow: int(node.StartPosition().Row),
			startCol: int(node.StartPosition().Column),
			endRow:   int(node.EndPosition().Row),
			endCol:   int(node.EndPosition().Column),
		})
		return
	}

	stop := false
	if handler, ok := e.handlers[kind]; ok {
		stop = handler(ctx, node)
	}

	if !stop {
		for i := uint(0); i < node.ChildCount(); i++ {
			e.walk(ctx, node.Child(i))
		}
	}
}

func (c *extractionContext) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(c.source[node.StartByte():node.EndByte()])
}

func (c *extractionContext) line(node *sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

func (c *extractionContext) addImport(module string, node *sitter.Node) {
	module = strings.TrimSpace(module)
	if module == "" {
		return
	}
	c.file.Imports = append(c.file.Imports, types.Import{
		Module: module,
		Line:   c.line(node),
	})
}

func (c *extractionContext) addFunction(node *sitter.Node) {
	name := c.text(node.ChildByFieldName("name"))
	if name == "" {
		return
	}
	c.file.Functions = append(c.file.Functions, types.FunctionInfo{
		Name:      name,
		StartLine: c.line(node),
		EndLine:   int(node.EndPosition().Row) + 1,
	})
}

func trimQuoted(value string) string {
	value = strings.TrimSpace(value)
	return strings.Trim(value, "\"'`")
}

func pythonHandlers() map[string]nodeHandler {
	return map[string]nodeHandler{
		"import_statement":      pythonImport,
		"import_from_statement": pythonFromImport,
		"function_definition":   recordFunction,
	}
}

func pythonImport(ctx *extractionContext, node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "dotted_name", "identifier":
			ctx.addImport(ctx.text(child), child)
		case "aliased_import":
			for j := uint(0); j < child.ChildCount(); j++ {
				sub := child.Child(j)
				if sub.Kind() == "dotted_name" || sub.Kind() == "identifier" {
					ctx.addImport(ctx.text(sub), sub)
					break
				}
			}
		}
	}
	return true
}

func pythonFromImport(ctx *extractionContext, node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "dotted_name", "identifier":
			ctx.addImport(ctx.text(child), node)
			return true
		case "relative_import":
			ctx.addImport(strings.TrimLeft(ctx.text(child), "."), node)
			return true
		}
	}
	return true
}

func goHandlers() map[string]nodeHandler {
	return map[string]nodeHandler{
		"import_declaration":   goImport,
		"function_declaration": recordFunction,
		"method_declaration":   recordFunction,
	}
}

func goImport(ctx *extractionContext, node *sitter.Node) bool {
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n.Kind() == "import_spec" {
			for i := uint(0); i < n.ChildCount(); i++ {
				child := n.Child(i)
				kind := child.Kind()
				if kind == "interpreted_string_literal" || kind == "raw_string_literal" {
					ctx.addImport(trimQuoted(ctx.text(child)), child)
				}
			}
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			visit(n.Child(i))
		}
	}
	visit(node)
	return true
}

func javascriptHandlers() map[string]nodeHandler {
	return map[string]nodeHandler{
		"import_statement":               jsImport,
		"call_expression":                jsRequire,
		"function_declaration":           recordFunction,
		"generator_function_declaration": recordFunction,
		"method_definition":              recordFunction,
	}
}

func jsImport(ctx *extractionContext, node *sitter.Node) bool {
	if source := node.ChildByFieldName("source"); source != nil {
		ctx.addImport(trimQuoted(ctx.text(source)), source)
		return true
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "string" {
			ctx.addImport(trimQuoted(ctx.text(child)), child)
			return true
		}
	}
	return true
}

func jsRequire(ctx *extractionContext, node *sitter.Node) bool {
	fn := node.ChildByFieldName("function")
	if fn == nil || ctx.text(fn) != "require" {
		return false
	}
	args := node.ChildByFieldName("arguments")
	if args == nil {
		return false
	}
	for i := uint(0); i < args.ChildCount(); i++ {
		child := args.Child(i)
		if child.Kind() == "string" {
			ctx.addImport(trimQuoted(ctx.text(child)), child)
			break
		}
	}
	return false
}

func javaHandlers() map[string]nodeHandler {
	return map[string]nodeHandler{
		"import_declaration":      javaImport,
		"method_declaration":      recordFunction,
		"constructor_declaration": recordFunction,
	}
}

func javaImport(ctx *extractionContext, node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "scoped_identifier", "identifier":
			ctx.addImport(ctx.text(child), child)
			return true
		}
	}
	return true
}

func rustHandlers() map[string]nodeHandler {
	return map[string]nodeHandler{
		"use_declaration": rustUse,
		"function_item":   recordFunction,
	}
}

func rustUse(ctx *extractionContext, node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		kind := child.Kind()
		if kind == "use" || kind == ";" {
			continue
		}
		ctx.addImport(ctx.text(child), child)
		return true
	}
	return true
}

// recordFunction handles every definition kind that carries a name field.
// It returns false so nested definitions are still discovered.
func recordFunction(ctx *extractionContext, node *sitter.Node) bool {
	ctx.addFunction(node)
	return false
}
