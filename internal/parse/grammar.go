// Package parse implements the parser generator. It reads a Backus-Naur form
// specification into a grammar table, computes FIRST and FOLLOW sets, builds
// an LL(1) parse table, and drives a predictive parse over a lexical token
// stream.
package parse

import (
	"fmt"

	"github.com/dekarrin/pike/internal/lex"
	"github.com/dekarrin/pike/internal/util"
)

// PNode is one symbol position inside a production body, linked to its
// neighbors.
type PNode struct {
	Tok  *lex.Token
	Next *PNode
	Prev *PNode
}

// Production is one alternative of a nonterminal: the linked sequence of
// symbol positions plus the annotation token stream that forms its semantic
// program, if any.
type Production struct {
	Start *PNode

	// Annot is the head of the semantics token stream attached to this
	// production, or nil when the production carries no annotation.
	Annot *lex.Token
}

// String renders the production body for diagnostics.
func (p *Production) String() string {
	out := ""
	for iter := p.Start; iter != nil; iter = iter.Next {
		if out != "" {
			out += " "
		}
		out += iter.Tok.Lexeme
	}
	return out
}

// IsEpsilon reports whether the production is a lone epsilon.
func (p *Production) IsEpsilon() bool {
	return p.Start != nil && p.Start.Tok.Kind == lex.KindEpsilon && p.Start.Next == nil
}

// TokenSet is a set of terminals keyed by lexeme, each remembering a token
// that carries its kind information.
type TokenSet = util.SVSet[*lex.Token]

// PDA is the grammar record for one nonterminal: its defining token, its
// ordered productions, and, once computed, its FIRST and FOLLOW sets.
type PDA struct {
	NTerm       *lex.Token
	Productions []*Production

	Firsts  TokenSet
	Follows TokenSet
}

// Grammar is the table of all nonterminals of a BNF specification. The first
// nonterminal declared is the start symbol.
type Grammar struct {
	start *PDA
	pdas  map[string]*PDA
	order []string
}

// NewGrammar creates an empty grammar table.
func NewGrammar() *Grammar {
	return &Grammar{pdas: map[string]*PDA{}}
}

// Start returns the start symbol's PDA.
func (g *Grammar) Start() *PDA {
	return g.start
}

// PDA returns the grammar record for the named nonterminal, or nil when it
// was never defined. The name includes its angle brackets.
func (g *Grammar) PDA(name string) *PDA {
	return g.pdas[name]
}

// NonTerminals returns the nonterminal names in declaration order.
func (g *Grammar) NonTerminals() []string {
	return g.order
}

// addPDA registers a new nonterminal. Redefinition is a hard error.
func (g *Grammar) addPDA(tok *lex.Token) (*PDA, error) {
	if _, ok := g.pdas[tok.Lexeme]; ok {
		return nil, fmt.Errorf("line %d: redefinition of production %s", tok.Line, tok.Lexeme)
	}
	pda := &PDA{NTerm: tok}
	g.pdas[tok.Lexeme] = pda
	g.order = append(g.order, tok.Lexeme)
	if g.start == nil {
		g.start = pda
	}
	return pda, nil
}

// addProduction appends a fresh empty production to the PDA.
func (pda *PDA) addProduction() *Production {
	p := &Production{}
	pda.Productions = append(pda.Productions, p)
	return p
}

// Terminals collects every distinct terminal lexeme used in any production
// body, mapped to a representative token.
func (g *Grammar) Terminals() TokenSet {
	terms := util.NewSVSet[*lex.Token]()
	for _, name := range g.order {
		pda := g.pdas[name]
		for _, prod := range pda.Productions {
			for iter := prod.Start; iter != nil; iter = iter.Next {
				if iter.Tok.Kind != lex.KindNonterm && iter.Tok.Kind != lex.KindEpsilon {
					terms.Set(iter.Tok.Lexeme, iter.Tok)
				}
			}
		}
	}
	return terms
}

// ResolveKinds reconciles every terminal token in the grammar's productions
// with the lexer: a terminal whose lexeme names a machine adopts that
// machine's kind; otherwise a keyword table hit supplies kind and attribute.
// Terminals that match neither stay KindError and surface at first use.
func (g *Grammar) ResolveKinds(lx *lex.Lexer) {
	for _, name := range g.order {
		pda := g.pdas[name]
		for _, prod := range pda.Productions {
			for iter := prod.Start; iter != nil; iter = iter.Next {
				tok := iter.Tok
				if tok.Kind != lex.KindTerm {
					continue
				}
				if mach := lx.Machine(tok.Lexeme); mach != nil {
					tok.Kind = mach.Tok.Kind
					continue
				}
				if lookup := lx.Keywords().Lookup(tok.Lexeme); lookup.Found {
					tok.Kind = lookup.TData.Kind
					tok.Attr = lookup.TData.Attr
					continue
				}
				tok.Kind = lex.KindError
			}
		}
	}
}
