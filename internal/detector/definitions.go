package detector

import "github.com/ppiankov/pyspectre/internal/pyparse"

type defKind int

const (
	kindFunction defKind = iota
	kindClass
)

func (k defKind) String() string {
	if k == kindClass {
		return "Class"
	}
	return "Function"
}

// definition is a function or class, for passes that visit both.
type definition struct {
	kind      defKind
	name      string
	line      int
	docstring bool

	fn    pyparse.Function
	class pyparse.Class
}

// definitions merges the functions and classes of m into source order.
func definitions(m *pyparse.Module) []definition {
	fns := m.Functions()
	classes := m.Classes()
	defs := make([]definition, 0, len(fns)+len(classes))

	i, j := 0, 0
	for i < len(fns) || j < len(classes) {
		if j >= len(classes) || (i < len(fns) && fns[i].Line < classes[j].Line) {
			fn := fns[i]
			defs = append(defs, definition{kind: kindFunction, name: fn.Name, line: fn.Line, docstring: fn.Docstring, fn: fn})
			i++
			continue
		}
		c := classes[j]
		defs = append(defs, definition{kind: kindClass, name: c.Name, line: c.Line, docstring: c.Docstring, class: c})
		j++
	}
	return defs
}
