// Package syntax holds the module syntax tree the transform pipeline hands
// to rewrite engines, together with the comment store shared between them.
//
// The tree only models what the actions rewrite needs: the directive
// prologue and top-level function declarations. Every other top-level
// statement is kept verbatim.
package syntax

// Pos is a 1-based byte offset into the original source. Pos 0 is reserved
// for synthesized, program-level nodes and comments.
type Pos uint32

const ProgramStart Pos = 0

type Directive struct {
	Value string
	Pos   Pos
}

type ItemKind uint8

const (
	ItemRaw ItemKind = iota
	ItemImport
	ItemFunction
	ItemReference
	ItemRegistration
)

func (k ItemKind) String() string {
	switch k {
	case ItemRaw:
		return "raw"
	case ItemImport:
		return "import"
	case ItemFunction:
		return "function"
	case ItemReference:
		return "reference"
	case ItemRegistration:
		return "registration"
	}
	return "unknown"
}

// Item is one top-level statement.
type Item struct {
	Kind ItemKind
	Pos  Pos

	// Raw and Import items.
	Text     string
	Exported bool
	TypeOnly bool
	Decl     string // declaration node type of an exported raw statement

	// Function items.
	Default    bool
	Async      bool
	Arrow      bool
	Keyword    string // const|let for arrow and expression forms
	Name       string
	TypeParams string // `<T>` including brackets, TypeScript only
	Params     string
	ReturnType string
	Body       string
	BodyDirs   []string

	// Reference and Registration items.
	ActionID string
	Local    string
}

// ExportName is the name other modules import the item by.
func (it *Item) ExportName() string {
	if it.Default {
		return "default"
	}
	return it.Name
}

// HasBodyDirective reports whether the function body prologue carries d.
func (it *Item) HasBodyDirective(d string) bool {
	for _, v := range it.BodyDirs {
		if v == d {
			return true
		}
	}
	return false
}

type Program struct {
	Path       string
	Directives []Directive
	Items      []*Item
	End        Pos
}

func (p *Program) HasDirective(d string) bool {
	for _, v := range p.Directives {
		if v.Value == d {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (p *Program) Clone() *Program {
	out := &Program{Path: p.Path, End: p.End}
	out.Directives = append([]Directive(nil), p.Directives...)
	out.Items = make([]*Item, len(p.Items))
	for i, it := range p.Items {
		cp := *it
		cp.BodyDirs = append([]string(nil), it.BodyDirs...)
		out.Items[i] = &cp
	}
	return out
}
