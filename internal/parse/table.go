package parse

import (
	"fmt"

	"github.com/dekarrin/rosed"

	"github.com/dekarrin/pike/internal/lex"
)

// tableKey addresses one parse table cell: a nonterminal row and a terminal
// column.
type tableKey struct {
	nt   string
	term string
}

// Table is the LL(1) parse table: rows indexed by nonterminal, columns by
// terminal lexeme, each occupied cell holding the production to predict.
type Table struct {
	cells map[tableKey]*Production
	terms []string
	nts   []string
}

// BuildTable constructs the LL(1) parse table from the computed FIRST and
// FOLLOW sets. For each production A -> alpha: every terminal in
// FIRST(alpha) minus EPSILON selects the production; when EPSILON is in
// FIRST(alpha), every terminal in FOLLOW(A) selects it. Two productions
// landing in the same cell is a hard error naming both.
func (g *Grammar) BuildTable() (*Table, error) {
	t := &Table{cells: map[tableKey]*Production{}}

	termSet := g.Terminals()
	t.terms = termSet.OrderedElements()
	t.terms = append(t.terms, "$")
	t.nts = append(t.nts, g.order...)

	for _, name := range g.order {
		pda := g.pdas[name]
		for _, prod := range pda.Productions {
			first := g.productionFirst(prod)
			hasEpsilon := false
			for _, term := range first.Elements() {
				if term == "EPSILON" {
					hasEpsilon = true
					continue
				}
				if err := t.set(name, term, prod); err != nil {
					return nil, err
				}
			}
			if hasEpsilon {
				for _, term := range pda.Follows.Elements() {
					if err := t.set(name, term, prod); err != nil {
						return nil, err
					}
				}
			}
		}
	}
	return t, nil
}

// productionFirst computes FIRST of a production body from the already
// computed per-nonterminal FIRST sets.
func (g *Grammar) productionFirst(prod *Production) TokenSet {
	set := TokenSet{}
	if prod.IsEpsilon() {
		set.Set("EPSILON", prod.Start.Tok)
		return set
	}
	iter := prod.Start
	for iter != nil {
		if iter.Tok.Kind == lex.KindNonterm {
			sub := g.PDA(iter.Tok.Lexeme)
			if sub == nil {
				break
			}
			for _, k := range sub.Firsts.Elements() {
				if k != "EPSILON" {
					set.Set(k, sub.Firsts.Get(k))
				}
			}
			if !g.derivesEpsilon(iter) {
				break
			}
			iter = iter.Next
			if iter == nil {
				set.Set("EPSILON", makeEpsilonToken())
			}
			continue
		}
		set.Set(iter.Tok.Lexeme, iter.Tok)
		break
	}
	return set
}

// set fills one cell, rejecting conflicts.
func (t *Table) set(nt, term string, prod *Production) error {
	key := tableKey{nt: nt, term: term}
	if existing, ok := t.cells[key]; ok && existing != prod {
		return fmt.Errorf("grammar is not LL(1): table cell [%s, %s] selects both %q and %q",
			nt, term, existing.String(), prod.String())
	}
	t.cells[key] = prod
	return nil
}

// Get returns the production for the cell, or nil when the cell is empty
// (a syntax error at parse time).
func (t *Table) Get(nt, term string) *Production {
	return t.cells[tableKey{nt: nt, term: term}]
}

// NonTerminals returns the table's rows in declaration order.
func (t *Table) NonTerminals() []string {
	return t.nts
}

// Terminals returns the table's columns, alphabetized with "$" last.
func (t *Table) Terminals() []string {
	return t.terms
}

// String renders the table for inspection output.
func (t *Table) String() string {
	data := [][]string{}
	header := append([]string{""}, t.terms...)
	data = append(data, header)

	for _, nt := range t.nts {
		row := []string{nt}
		for _, term := range t.terms {
			if prod := t.Get(nt, term); prod != nil {
				row = append(row, prod.String())
			} else {
				row = append(row, "")
			}
		}
		data = append(data, row)
	}

	return rosed.
		Edit("").
		InsertTableOpts(0, data, 10*len(header), rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
}
