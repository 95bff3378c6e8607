package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/pike/internal/lex"
	"github.com/dekarrin/pike/internal/listing"
)

func buildTable(t *testing.T, bnf string) (*Grammar, *Table) {
	t.Helper()
	g := mustGrammar(t, bnf)
	g.ComputeFirsts()
	g.ComputeFollows()
	table, err := g.BuildTable()
	if err != nil {
		t.Fatalf("building parse table: %v", err)
	}
	return g, table
}

func Test_BuildTable_cells(t *testing.T) {
	assert := assert.New(t)

	g, table := buildTable(t, "<s> => <a> b | c\n<a> => a | ε\n$")

	s := g.PDA("<s>")
	a := g.PDA("<a>")

	assert.Same(s.Productions[0], table.Get("<s>", "a"))
	assert.Same(s.Productions[0], table.Get("<s>", "b"))
	assert.Same(s.Productions[1], table.Get("<s>", "c"))
	assert.Nil(table.Get("<s>", "$"))

	assert.Same(a.Productions[0], table.Get("<a>", "a"))
	// epsilon production fills the FOLLOW(<a>) columns
	assert.Same(a.Productions[1], table.Get("<a>", "b"))
}

func Test_BuildTable_conflictIsError(t *testing.T) {
	assert := assert.New(t)

	g := mustGrammar(t, "<s> => a b | a c\n$")
	g.ComputeFirsts()
	g.ComputeFollows()

	_, err := g.BuildTable()
	assert.Error(err)
	assert.Contains(err.Error(), "not LL(1)")
}

// lexAndResolve builds a lexer for the driver tests and resolves the grammar
// against it.
func lexAndResolve(t *testing.T, g *Grammar) *lex.Lexer {
	t.Helper()
	lx, err := lex.BuildLexer("\n<id> {idtype} => <letter>+\n<letter> {composite} => a|b|c|x|y|z\n")
	if err != nil {
		t.Fatalf("building lexer: %v", err)
	}
	g.ResolveKinds(lx)
	return lx
}

func Test_Parse_buildsNodeTree(t *testing.T) {
	assert := assert.New(t)

	g := mustGrammar(t, "<s> => id <rest>\n<rest> => id <rest> | ε\n$")
	lx := lexAndResolve(t, g)
	g.ComputeFirsts()
	g.ComputeFollows()
	table, err := g.BuildTable()
	assert.NoError(err)

	lst := listing.New()
	res := lx.Tokenize("xy ab", 1, lst)

	parser := NewParser(g, table, lst)
	root, ok := parser.Parse(res.Tokens.Head)

	assert.True(ok)
	assert.Equal(0, lst.ErrorCount())
	assert.NotNil(root)
	assert.Equal("<s>", root.PDA.NTerm.Lexeme)

	idNode := root.Token("id", 1)
	assert.NotNil(idNode)
	assert.True(idNode.Matched)
	assert.Equal("xy", idNode.Tok.Lexeme)

	restNode := root.Token("<rest>", 1)
	assert.NotNil(restNode)
	assert.NotNil(restNode.Child)
	assert.Equal("ab", restNode.Child.Token("id", 1).Tok.Lexeme)
}

func Test_Parse_syntaxErrorIsReportedAndRecovered(t *testing.T) {
	assert := assert.New(t)

	g := mustGrammar(t, "<s> => a <s> | b\n$")
	lx := lexAndResolve2(t, g)
	g.ComputeFirsts()
	g.ComputeFollows()
	table, err := g.BuildTable()
	assert.NoError(err)

	lst := listing.New()
	lst.AddLine("")
	res := lx.Tokenize("a c b", 1, lst)

	parser := NewParser(g, table, lst)
	_, ok := parser.Parse(res.Tokens.Head)

	assert.False(ok)
	assert.NotZero(lst.ErrorCount())
}

// lexAndResolve2 is lexAndResolve with single-letter keywords so terminals
// a, b, and c each resolve to their own kind.
func lexAndResolve2(t *testing.T, g *Grammar) *lex.Lexer {
	t.Helper()
	lx, err := lex.BuildLexer("a\nb\nc\n\n<id> {idtype} => <letter>+\n<letter> {composite} => x|y|z\n")
	if err != nil {
		t.Fatalf("building lexer: %v", err)
	}
	g.ResolveKinds(lx)
	return lx
}
