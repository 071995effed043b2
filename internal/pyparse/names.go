package pyparse

import sitter "github.com/smacker/go-tree-sitter"

type nameContext int

const (
	ctxLoad nameContext = iota
	ctxStore
	ctxSkip
)

// Locals returns the names bound by plain `name = value` statements inside
// fn, in order of first assignment, and the set of names read anywhere in
// fn. Nested definitions are included in both.
func (m *Module) Locals(fn Function) (assigned []string, read map[string]bool) {
	read = make(map[string]bool)
	seen := make(map[string]bool)

	body := fn.node.ChildByFieldName("body")
	m.collect(body, ctxLoad, func(n *sitter.Node, ctx nameContext) {
		if n.Type() == "assignment" && n.ChildByFieldName("type") == nil {
			if left := n.ChildByFieldName("left"); left != nil && left.Type() == "identifier" {
				name := m.text(left)
				if !seen[name] {
					seen[name] = true
					assigned = append(assigned, name)
				}
			}
			return
		}
		if n.Type() == "identifier" && ctx == ctxLoad {
			read[m.text(n)] = true
		}
	})

	// Default values and annotations are evaluated in the enclosing scope
	// but still count as reads of the function node.
	if params := fn.node.ChildByFieldName("parameters"); params != nil {
		m.collect(params, ctxLoad, func(n *sitter.Node, ctx nameContext) {
			if n.Type() == "identifier" && ctx == ctxLoad {
				read[m.text(n)] = true
			}
		})
	}

	return assigned, read
}

// collect walks n, tracking whether each identifier is read, bound, or not
// a variable reference at all.
func (m *Module) collect(n *sitter.Node, ctx nameContext, visit func(*sitter.Node, nameContext)) {
	if n == nil {
		return
	}
	visit(n, ctx)

	field := func(name string, c nameContext) {
		m.collect(n.ChildByFieldName(name), c, visit)
	}

	switch n.Type() {
	case "assignment", "augmented_assignment":
		field("left", ctxStore)
		field("type", ctxLoad)
		field("right", ctxLoad)
	case "for_statement", "for_in_clause":
		field("left", ctxStore)
		field("right", ctxLoad)
		field("body", ctxLoad)
		field("alternative", ctxLoad)
	case "named_expression":
		field("name", ctxStore)
		field("value", ctxLoad)
	case "attribute":
		field("object", ctxLoad)
	case "subscript":
		m.collectChildren(n, ctxLoad, visit)
	case "keyword_argument":
		field("value", ctxLoad)
	case "function_definition":
		field("parameters", ctxLoad)
		field("return_type", ctxLoad)
		field("body", ctxLoad)
	case "class_definition":
		field("superclasses", ctxLoad)
		field("body", ctxLoad)
	case "lambda":
		field("parameters", ctxLoad)
		field("body", ctxLoad)
	case "parameters", "lambda_parameters":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() == "identifier" {
				m.collect(child, ctxSkip, visit)
				continue
			}
			m.collect(child, ctxLoad, visit)
		}
	case "default_parameter", "typed_default_parameter":
		field("name", ctxSkip)
		field("type", ctxLoad)
		field("value", ctxLoad)
	case "typed_parameter":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if i == 0 {
				m.collect(child, ctxSkip, visit)
				continue
			}
			m.collect(child, ctxLoad, visit)
		}
	case "list_splat_pattern", "dictionary_splat_pattern":
		c := ctx
		if c == ctxLoad {
			// *args / **kwargs in a parameter list
			if p := n.Parent(); p != nil && (p.Type() == "parameters" || p.Type() == "lambda_parameters" || p.Type() == "typed_parameter") {
				c = ctxSkip
			}
		}
		m.collectChildren(n, c, visit)
	case "import_statement", "import_from_statement", "future_import_statement",
		"global_statement", "nonlocal_statement", "dotted_name", "aliased_import":
		// names here are declarations, not reads
	case "as_pattern":
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(i)
			if !child.IsNamed() {
				continue
			}
			if n.FieldNameForChild(i) == "alias" {
				m.collect(child, ctxStore, visit)
				continue
			}
			m.collect(child, ctxLoad, visit)
		}
	case "except_clause":
		afterAs := false
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(i)
			if !child.IsNamed() {
				afterAs = child.Type() == "as"
				continue
			}
			if afterAs {
				m.collect(child, ctxStore, visit)
				afterAs = false
				continue
			}
			m.collect(child, ctxLoad, visit)
		}
	case "pattern_list", "tuple_pattern", "list_pattern", "tuple", "list",
		"parenthesized_expression", "expression_list":
		m.collectChildren(n, ctx, visit)
	default:
		c := ctx
		if c == ctxStore {
			c = ctxLoad
		}
		m.collectChildren(n, c, visit)
	}
}

func (m *Module) collectChildren(n *sitter.Node, ctx nameContext, visit func(*sitter.Node, nameContext)) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		m.collect(n.NamedChild(i), ctx, visit)
	}
}
