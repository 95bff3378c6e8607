package sem

import (
	"io"

	"github.com/dekarrin/pike/internal/lex"
	"github.com/dekarrin/pike/internal/listing"
)

// Symbol is one symbol table entry: the declared type of an identifier and
// the token it was declared at.
type Symbol struct {
	Name string
	Type Value
	Decl *lex.Token

	// IsVar distinguishes variables from formal parameters.
	IsVar bool
}

// Scope is one node of the scope tree. Each scope owns its local symbol
// table, a growing listing of emitted code lines, and a fully qualified label
// computed from the path to the root.
type Scope struct {
	ID     string
	FullID string

	Parent   *Scope
	Children []*Scope

	Symbols map[string]*Symbol
	Code    *listing.Listing
}

func newScope(id string, parent *Scope) *Scope {
	return &Scope{
		ID:      id,
		Parent:  parent,
		Symbols: map[string]*Symbol{},
		Code:    listing.New(),
	}
}

// Lookup finds the symbol in this scope or any enclosing one.
func (s *Scope) Lookup(name string) *Symbol {
	for sc := s; sc != nil; sc = sc.Parent {
		if sym, ok := sc.Symbols[name]; ok {
			return sym
		}
	}
	return nil
}

// Local finds the symbol in this scope only.
func (s *Scope) Local(name string) *Symbol {
	return s.Symbols[name]
}

// Declare adds or updates the symbol in this scope.
func (s *Scope) Declare(name string, typ Value, decl *lex.Token, isVar bool) *Symbol {
	sym, ok := s.Symbols[name]
	if !ok {
		sym = &Symbol{Name: name, IsVar: isVar}
		s.Symbols[name] = sym
	}
	sym.Type = typ
	sym.Decl = decl
	return sym
}

// FindProc searches for a procedure scope with the given name, checking this
// scope and its children, then each enclosing scope and its children in turn.
func (s *Scope) FindProc(name string) *Scope {
	for sc := s; sc != nil; sc = sc.Parent {
		if sc.ID == name {
			return sc
		}
		for _, child := range sc.Children {
			if child.ID == name {
				return child
			}
		}
	}
	return nil
}

// scopedLabel computes the fully qualified label of the scope from its root
// path: a double underscore, then the path components joined with single
// underscores.
func (s *Scope) scopedLabel() string {
	var parts []string
	for sc := s; sc != nil; sc = sc.Parent {
		if sc.ID != "" {
			parts = append([]string{sc.ID}, parts...)
		}
	}
	label := "_"
	for _, part := range parts {
		label += "_" + part
	}
	return label
}

// WriteCode serializes the emitted code of the scope tree rooted here to w in
// a post-order walk: each child subtree in declaration order, then this
// scope's own lines.
func (s *Scope) WriteCode(w io.Writer) error {
	for _, child := range s.Children {
		if err := child.WriteCode(w); err != nil {
			return err
		}
	}
	return s.Code.RenderBare(w)
}

// pushScope enters a new child scope of the current one, computing its fully
// qualified label.
func (e *Engine) pushScope(name string) *Scope {
	child := newScope(name, e.Curr)
	child.FullID = child.scopedLabel()
	e.Curr.Children = append(e.Curr.Children, child)
	e.Curr = child
	e.depth++
	return child
}

// popScope returns to the enclosing scope.
func (e *Engine) popScope() {
	if e.Curr.Parent != nil {
		e.Curr = e.Curr.Parent
		e.depth--
	}
}

// Depth returns how many scopes deep evaluation currently is. It must be
// zero by the time emitted code is written out.
func (e *Engine) Depth() int {
	return e.depth
}
