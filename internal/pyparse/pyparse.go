// Package pyparse builds a structural view of Python source on top of the
// tree-sitter Python grammar.
package pyparse

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ParseError is a syntax error at a 1-based line.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Module is a successfully parsed source file.
type Module struct {
	src  []byte
	root *sitter.Node
}

// Parse parses src. A tree containing error or missing nodes is reported
// as a *ParseError located at the first such node.
func Parse(ctx context.Context, src []byte) (*Module, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	root := tree.RootNode()
	if root.HasError() {
		return nil, firstError(root, src)
	}
	if perr := firstRejected(root); perr != nil {
		return nil, perr
	}

	return &Module{src: src, root: root}, nil
}

func firstError(root *sitter.Node, src []byte) *ParseError {
	var found *ParseError
	walk(root, func(n *sitter.Node) bool {
		if found != nil {
			return false
		}
		switch {
		case n.IsMissing():
			found = &ParseError{
				Line: int(n.StartPoint().Row) + 1,
				Msg:  fmt.Sprintf("expected %q", n.Type()),
			}
			return false
		case n.Type() == "ERROR":
			found = &ParseError{
				Line: int(n.StartPoint().Row) + 1,
				Msg:  "invalid syntax" + near(n.Content(src)),
			}
			return false
		}
		return n.HasError()
	})
	if found == nil {
		found = &ParseError{Line: int(root.StartPoint().Row) + 1, Msg: "invalid syntax"}
	}
	return found
}

// firstRejected finds constructs the grammar accepts but Python 3 does
// not: Python 2 print and exec statements, del of a non-target and
// misaligned statements.
func firstRejected(root *sitter.Node) *ParseError {
	var found *ParseError
	keep := func(perr *ParseError) {
		if perr != nil && (found == nil || perr.Line < found.Line) {
			found = perr
		}
	}
	walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "print_statement":
			keep(&ParseError{Line: startLine(n), Msg: "missing parentheses in call to 'print'"})
		case "exec_statement":
			keep(&ParseError{Line: startLine(n), Msg: "missing parentheses in call to 'exec'"})
		case "delete_statement":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				target := n.NamedChild(i)
				if !isCode(target) {
					continue
				}
				if bad := badDeleteTarget(target); bad != nil {
					keep(&ParseError{Line: startLine(bad), Msg: "cannot delete " + strings.ReplaceAll(bad.Type(), "_", " ")})
				}
			}
		case "module":
			keep(misaligned(n, 0))
		case "block":
			keep(misaligned(n, -1))
		}
		return true
	})
	return found
}

// misaligned checks that every statement opening a line in body starts at
// the same column. A negative col takes the first statement's column.
func misaligned(body *sitter.Node, col int) *ParseError {
	prevEnd := -1
	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		if !isCode(stmt) {
			continue
		}
		start := stmt.StartPoint()
		opensLine := int(start.Row) != prevEnd
		prevEnd = int(stmt.EndPoint().Row)
		if !opensLine {
			continue
		}
		if col < 0 {
			col = int(start.Column)
			continue
		}
		switch {
		case int(start.Column) > col:
			return &ParseError{Line: startLine(stmt), Msg: "unexpected indent"}
		case int(start.Column) < col:
			return &ParseError{Line: startLine(stmt), Msg: "unindent does not match any outer indentation level"}
		}
	}
	return nil
}

func isCode(n *sitter.Node) bool {
	return n.Type() != "comment" && !n.IsExtra()
}

// badDeleteTarget returns the first part of a del target that is not a
// name, attribute, subscript or a sequence of those.
func badDeleteTarget(n *sitter.Node) *sitter.Node {
	switch n.Type() {
	case "identifier", "attribute", "subscript":
		return nil
	case "expression_list", "tuple", "list", "parenthesized_expression":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if !isCode(child) {
				continue
			}
			if bad := badDeleteTarget(child); bad != nil {
				return bad
			}
		}
		return nil
	}
	return n
}

func near(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	if text == "" {
		return ""
	}
	if len(text) > 30 {
		text = text[:30] + "..."
	}
	return fmt.Sprintf(" near %q", text)
}

// Function is a def statement, at any nesting level.
type Function struct {
	Name      string
	Line      int
	EndLine   int
	Params    int
	Docstring bool

	node *sitter.Node
}

// Class is a class statement, at any nesting level.
type Class struct {
	Name      string
	Line      int
	Methods   int
	Docstring bool
}

// Handler is an except clause.
type Handler struct {
	Line int
	Bare bool
}

// Functions returns every function definition in source order.
func (m *Module) Functions() []Function {
	var fns []Function
	walk(m.root, func(n *sitter.Node) bool {
		if n.Type() == "function_definition" {
			fns = append(fns, Function{
				Name:      m.text(n.ChildByFieldName("name")),
				Line:      startLine(n),
				EndLine:   endLine(n),
				Params:    countParams(n.ChildByFieldName("parameters")),
				Docstring: m.hasDocstring(n.ChildByFieldName("body")),
				node:      n,
			})
		}
		return true
	})
	return fns
}

// Classes returns every class definition in source order.
func (m *Module) Classes() []Class {
	var classes []Class
	walk(m.root, func(n *sitter.Node) bool {
		if n.Type() == "class_definition" {
			body := n.ChildByFieldName("body")
			classes = append(classes, Class{
				Name:      m.text(n.ChildByFieldName("name")),
				Line:      startLine(n),
				Methods:   countMethods(body),
				Docstring: m.hasDocstring(body),
			})
		}
		return true
	})
	return classes
}

// Handlers returns every except clause in source order.
func (m *Module) Handlers() []Handler {
	var handlers []Handler
	walk(m.root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "except_clause":
			handlers = append(handlers, Handler{Line: startLine(n), Bare: isBareExcept(n)})
		case "except_group_clause":
			handlers = append(handlers, Handler{Line: startLine(n)})
		}
		return true
	})
	return handlers
}

// Complexity is 1, plus one per branch, loop and except clause, plus one
// per extra operand of each and/or chain, counted over the whole body.
func (m *Module) Complexity(fn Function) int {
	complexity := 1
	walk(fn.node, func(n *sitter.Node) bool {
		switch n.Type() {
		case "if_statement", "elif_clause", "for_statement", "while_statement",
			"except_clause", "except_group_clause":
			complexity++
		case "boolean_operator":
			// Chains nest as binary nodes, so each node adds one operand.
			complexity++
		}
		return true
	})
	return complexity
}

func (m *Module) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(m.src)
}

func (m *Module) hasDocstring(body *sitter.Node) bool {
	if body == nil {
		return false
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		if stmt.Type() == "comment" {
			continue
		}
		if stmt.Type() != "expression_statement" || stmt.NamedChildCount() != 1 {
			return false
		}
		return m.isDocString(stmt.NamedChild(0))
	}
	return false
}

func (m *Module) isDocString(n *sitter.Node) bool {
	parts := []*sitter.Node{n}
	switch n.Type() {
	case "string":
	case "concatenated_string":
		parts = parts[:0]
		for i := 0; i < int(n.NamedChildCount()); i++ {
			parts = append(parts, n.NamedChild(i))
		}
	default:
		return false
	}

	empty := true
	for _, part := range parts {
		if !m.isPlainString(part) {
			return false
		}
		if strings.TrimSpace(stripQuotes(part.Content(m.src))) != "" {
			empty = false
		}
	}
	return !empty
}

// isPlainString rejects f-strings and bytes literals.
func (m *Module) isPlainString(n *sitter.Node) bool {
	if n.Type() != "string" {
		return false
	}
	text := n.Content(m.src)
	quote := strings.IndexAny(text, `"'`)
	if quote < 0 {
		return false
	}
	prefix := strings.ToLower(text[:quote])
	return !strings.ContainsAny(prefix, "fb")
}

func stripQuotes(literal string) string {
	s := strings.TrimLeft(literal, "rRuU")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}

// countParams counts the ordinary positional-or-keyword parameters: those
// after a "/" and before "*", "*args" or "**kwargs".
func countParams(params *sitter.Node) int {
	if params == nil {
		return 0
	}
	n := 0
	for i := 0; i < int(params.NamedChildCount()); i++ {
		param := params.NamedChild(i)
		switch param.Type() {
		case "positional_separator":
			n = 0
		case "keyword_separator", "list_splat_pattern", "dictionary_splat_pattern":
			return n
		case "identifier", "typed_parameter", "default_parameter", "typed_default_parameter":
			if isSplat(param) {
				return n
			}
			n++
		}
	}
	return n
}

// isSplat catches annotated *args / **kwargs.
func isSplat(n *sitter.Node) bool {
	if n.Type() != "typed_parameter" || n.NamedChildCount() == 0 {
		return false
	}
	switch n.NamedChild(0).Type() {
	case "list_splat_pattern", "dictionary_splat_pattern":
		return true
	}
	return false
}

func countMethods(body *sitter.Node) int {
	if body == nil {
		return 0
	}
	n := 0
	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		switch stmt.Type() {
		case "function_definition":
			n++
		case "decorated_definition":
			if def := stmt.ChildByFieldName("definition"); def != nil && def.Type() == "function_definition" {
				n++
			}
		}
	}
	return n
}

func isBareExcept(n *sitter.Node) bool {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		switch n.NamedChild(i).Type() {
		case "block", "comment":
		default:
			return false
		}
	}
	return true
}

func startLine(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

// endLine is the last line holding text of the node.
func endLine(n *sitter.Node) int {
	end := n.EndPoint()
	line := int(end.Row) + 1
	if end.Column == 0 && end.Row > n.StartPoint().Row {
		line--
	}
	return line
}

// walk visits n and its descendants in source order. Returning false from
// fn skips the children of the current node.
func walk(n *sitter.Node, fn func(*sitter.Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		walk(n.Child(i), fn)
	}
}
