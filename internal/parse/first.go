package parse

import (
	"github.com/dekarrin/pike/internal/lex"
	"github.com/dekarrin/pike/internal/util"
)

// firstState memoizes FIRST computation per PDA and breaks cycles with an
// in-progress marker.
type firstState struct {
	g          *Grammar
	done       map[*PDA]TokenSet
	inProgress map[*PDA]bool
}

// ComputeFirsts fills in the FIRST set of every nonterminal in the grammar.
// An epsilon-only production contributes EPSILON; a production whose prefix
// can derive epsilon extends FIRST through the next symbol.
func (g *Grammar) ComputeFirsts() {
	fs := &firstState{
		g:          g,
		done:       map[*PDA]TokenSet{},
		inProgress: map[*PDA]bool{},
	}
	for _, name := range g.order {
		pda := g.pdas[name]
		pda.Firsts = fs.first(pda)
	}
}

func (fs *firstState) first(pda *PDA) TokenSet {
	if set, ok := fs.done[pda]; ok {
		return set
	}
	if fs.inProgress[pda] {
		return util.NewSVSet[*lex.Token]()
	}
	fs.inProgress[pda] = true
	defer func() { fs.inProgress[pda] = false }()

	set := util.NewSVSet[*lex.Token]()
	for _, prod := range pda.Productions {
		if prod.IsEpsilon() {
			set.Set(prod.Start.Tok.Lexeme, prod.Start.Tok)
			continue
		}
		iter := prod.Start
		for iter != nil {
			if iter.Tok.Kind == lex.KindNonterm {
				sub := fs.g.PDA(iter.Tok.Lexeme)
				if sub == nil {
					break
				}
				subFirst := fs.first(sub)
				for _, k := range subFirst.Elements() {
					if k != "EPSILON" {
						set.Set(k, subFirst.Get(k))
					}
				}
				if !fs.hasEpsilon(sub) {
					break
				}
				// the prefix so far derives epsilon; FIRST extends through
				// the next symbol
				iter = iter.Next
				if iter == nil {
					set.Set("EPSILON", makeEpsilonToken())
				}
				continue
			}
			set.Set(iter.Tok.Lexeme, iter.Tok)
			break
		}
	}

	fs.done[pda] = set
	return set
}

// hasEpsilon reports whether the PDA has an epsilon-only production.
func (fs *firstState) hasEpsilon(pda *PDA) bool {
	for _, prod := range pda.Productions {
		if prod.IsEpsilon() {
			return true
		}
	}
	return false
}

// derivesEpsilon reports whether the symbol at pnode can derive epsilon: it
// must be a nonterminal with an epsilon-only production.
func (g *Grammar) derivesEpsilon(pnode *PNode) bool {
	if pnode == nil || pnode.Tok.Kind != lex.KindNonterm {
		return false
	}
	pda := g.PDA(pnode.Tok.Lexeme)
	if pda == nil {
		return false
	}
	for _, prod := range pda.Productions {
		if prod.IsEpsilon() {
			return true
		}
	}
	return false
}

func makeEpsilonToken() *lex.Token {
	return &lex.Token{Kind: lex.KindEpsilon, Lexeme: "EPSILON"}
}

func makeEOFToken() *lex.Token {
	return &lex.Token{Kind: lex.KindEOF, Lexeme: "$"}
}
