package parse

import (
	"fmt"

	"github.com/dekarrin/pike/internal/lex"
	"github.com/dekarrin/pike/internal/listing"
	"github.com/dekarrin/pike/internal/util"
)

// Node is one occurrence of a grammar symbol in the parse: the matched
// terminal token for terminal positions, or the child instance for
// nonterminal positions. Each occurrence carries an inherited and a
// synthesized attribute map, filled in by the attribute engine.
type Node struct {
	// Sym is the grammar symbol position this occurrence instantiates.
	Sym *PNode

	// Tok is the matched source token, set for terminal positions.
	Tok *lex.Token

	// Child is the production instance this occurrence expanded to, set for
	// nonterminal positions.
	Child *NodeSet

	// Matched reports whether the occurrence was completed by the parse.
	Matched bool

	// In and Syn map attribute names to values. The maps are owned by the
	// attribute engine; values are its tagged variants.
	In  map[string]any
	Syn map[string]any
}

// Lexeme returns the grammar symbol lexeme of the occurrence.
func (n *Node) Lexeme() string {
	return n.Sym.Tok.Lexeme
}

// NodeSet is the instance of one production chosen during the parse for one
// nonterminal occurrence: the pda and production it instantiates, plus one
// Node per symbol of the production body.
type NodeSet struct {
	PDA  *PDA
	Prod *Production

	// Owner is the nonterminal occurrence this instance expands. The root
	// instance has a synthetic owner.
	Owner *Node

	Nodes []*Node
}

// Token finds the index-th occurrence (1-based) of the named grammar symbol
// among the instance's nodes. Both terminals and nonterminals are found.
func (ns *NodeSet) Token(lexeme string, index int) *Node {
	j := 1
	for _, n := range ns.Nodes {
		if n.Lexeme() == lexeme {
			if j == index {
				return n
			}
			j++
		}
	}
	return nil
}

// Parser drives a predictive parse using a grammar and its LL(1) table,
// attaching syntax diagnostics to the listing.
type Parser struct {
	g     *Grammar
	table *Table
	lst   *listing.Listing

	// colForKind maps a token kind to the grammar terminal lexeme that
	// addresses the parse table column for it.
	colForKind map[uint16]string
}

// maxSkips bounds panic-mode recovery so a badly broken input cannot loop.
const maxSkips = 200

// NewParser creates a parser over a grammar whose FIRST and FOLLOW sets are
// already computed and whose table is already built.
func NewParser(g *Grammar, table *Table, lst *listing.Listing) *Parser {
	p := &Parser{
		g:     g,
		table: table,
		lst:   lst,
		colForKind: map[uint16]string{
			lex.KindEOF: "$",
		},
	}
	terms := g.Terminals()
	for _, name := range terms.Elements() {
		tok := terms.Get(name)
		p.colForKind[tok.Kind] = name
	}
	return p
}

// Parse runs the predictive parse over the token stream, constructing the
// parse-node instance tree as it descends. It returns the root instance and
// whether the input was accepted without a syntax error.
func (p *Parser) Parse(tokens *lex.Token) (*NodeSet, bool) {
	ok := true
	look := tokens
	skips := 0

	startSym := &PNode{Tok: p.g.start.NTerm}
	root := &Node{Sym: startSym}

	var stack util.Stack[*Node]
	stack.Push(root)

	for !stack.Empty() {
		if look == nil {
			ok = false
			break
		}
		node := stack.Peek()

		if node.Sym.Tok.Kind == lex.KindEpsilon {
			node.Matched = true
			stack.Pop()
			continue
		}

		if node.Sym.Tok.Kind != lex.KindNonterm {
			// terminal position: match against lookahead
			if node.Sym.Tok.Kind == look.Kind {
				node.Tok = look
				node.Matched = true
				stack.Pop()
				look = look.Next
			} else {
				p.syntaxError(look, fmt.Sprintf("expected %q but got %q", node.Sym.Tok.Lexeme, look.Lexeme))
				ok = false
				if look.Kind == lex.KindEOF {
					stack.Pop()
					continue
				}
				look = look.Next
				if skips++; skips > maxSkips {
					break
				}
			}
			continue
		}

		// nonterminal position: consult the table
		pda := p.g.PDA(node.Sym.Tok.Lexeme)
		if pda == nil {
			p.syntaxError(look, fmt.Sprintf("use of undefined nonterminal %s", node.Sym.Tok.Lexeme))
			ok = false
			stack.Pop()
			continue
		}

		col := p.colForKind[look.Kind]
		prod := p.table.Get(pda.NTerm.Lexeme, col)
		if prod == nil {
			p.syntaxError(look, fmt.Sprintf("unexpected %q", look.Lexeme))
			ok = false
			// panic mode: skip input until the lookahead is in FOLLOW of
			// the current nonterminal, then give up on it
			for look.Kind != lex.KindEOF && !pda.Follows.Has(p.colForKind[look.Kind]) {
				look = look.Next
				if skips++; skips > maxSkips {
					return root.Child, false
				}
			}
			stack.Pop()
			continue
		}

		ns := &NodeSet{PDA: pda, Prod: prod, Owner: node}
		for iter := prod.Start; iter != nil; iter = iter.Next {
			ns.Nodes = append(ns.Nodes, &Node{Sym: iter})
		}
		node.Child = ns
		node.Matched = true

		stack.Pop()
		for i := len(ns.Nodes) - 1; i >= 0; i-- {
			stack.Push(ns.Nodes[i])
		}
	}

	if look != nil && look.Kind != lex.KindEOF && ok {
		p.syntaxError(look, fmt.Sprintf("unexpected %q after end of program", look.Lexeme))
		ok = false
	}

	return root.Child, ok
}

func (p *Parser) syntaxError(at *lex.Token, msg string) {
	if p.lst == nil || at == nil {
		return
	}
	p.lst.AddError(at.Line, fmt.Sprintf("Syntax Error: at line: %d: %s", at.Line, msg))
}
