package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/pike/internal/lex"
)

// annLexer is a throwaway decoration lexer for tests whose grammars carry no
// annotations.
func annLexer(t *testing.T) *lex.Lexer {
	t.Helper()
	lx, err := lex.BuildLexer("\n<id> => <letter>+\n<letter> {composite} => a|b|c|x|y|z\n")
	if err != nil {
		t.Fatalf("building annotation lexer: %v", err)
	}
	return lx
}

func mustGrammar(t *testing.T, bnf string) *Grammar {
	t.Helper()
	g, err := BuildGrammar(bnf, annLexer(t))
	if err != nil {
		t.Fatalf("building grammar: %v", err)
	}
	return g
}

func Test_BuildGrammar_structure(t *testing.T) {
	assert := assert.New(t)

	g := mustGrammar(t, "<s> => a <t> | b\n<t> => c\n$")

	assert.Equal([]string{"<s>", "<t>"}, g.NonTerminals())
	assert.Equal("<s>", g.Start().NTerm.Lexeme)

	s := g.PDA("<s>")
	assert.Len(s.Productions, 2)
	assert.Equal("a <t>", s.Productions[0].String())
	assert.Equal("b", s.Productions[1].String())
}

func Test_BuildGrammar_redefinitionIsError(t *testing.T) {
	assert := assert.New(t)

	_, err := BuildGrammar("<s> => a\n<s> => b\n$", annLexer(t))
	assert.Error(err)
}

func Test_BuildGrammar_epsilonProduction(t *testing.T) {
	assert := assert.New(t)

	g := mustGrammar(t, "<s> => a | ε\n$")

	s := g.PDA("<s>")
	assert.False(s.Productions[0].IsEpsilon())
	assert.True(s.Productions[1].IsEpsilon())
}

func Test_BuildGrammar_attachesAnnotations(t *testing.T) {
	assert := assert.New(t)

	g := mustGrammar(t, "<s> => a { x y } | b\n$")

	s := g.PDA("<s>")
	assert.NotNil(s.Productions[0].Annot)
	assert.Nil(s.Productions[1].Annot)
	assert.Equal("x", s.Productions[0].Annot.Lexeme)
}

func Test_ResolveKinds(t *testing.T) {
	assert := assert.New(t)

	lx, err := lex.BuildLexer("if\n\n<id> {idtype} => <letter>+\n<letter> {composite} => a|b|c\n")
	assert.NoError(err)

	g := mustGrammar(t, "<s> => if id | glub\n$")
	g.ResolveKinds(lx)

	s := g.PDA("<s>")
	ifTok := s.Productions[0].Start.Tok
	idTok := s.Productions[0].Start.Next.Tok
	unknownTok := s.Productions[1].Start.Tok

	assert.Equal(lx.Keywords().Lookup("if").TData.Kind, ifTok.Kind)
	assert.Equal(lx.Machine("id").Tok.Kind, idTok.Kind)
	assert.Equal(lex.KindError, unknownTok.Kind)
}

func Test_Firsts_nullablePrefix(t *testing.T) {
	assert := assert.New(t)

	g := mustGrammar(t, "<s> => <a> b | c\n<a> => a | ε\n$")
	g.ComputeFirsts()

	s := g.PDA("<s>")
	assert.ElementsMatch([]string{"a", "b", "c"}, s.Firsts.Elements())

	a := g.PDA("<a>")
	assert.ElementsMatch([]string{"a", "EPSILON"}, a.Firsts.Elements())
}

func Test_Firsts_secondComputationIsIdentical(t *testing.T) {
	assert := assert.New(t)

	g := mustGrammar(t, "<s> => <a> b | c\n<a> => a | ε\n$")
	g.ComputeFirsts()
	before := g.PDA("<s>").Firsts.Copy()

	g.ComputeFirsts()
	assert.True(before.Equal(g.PDA("<s>").Firsts))
}

func Test_Follows_inheritance(t *testing.T) {
	assert := assert.New(t)

	g := mustGrammar(t, "<s> => <a> <b>\n<a> => a | ε\n<b> => b | ε\n$")
	g.ComputeFirsts()
	g.ComputeFollows()

	a := g.PDA("<a>")
	b := g.PDA("<b>")
	assert.ElementsMatch([]string{"b", "$"}, a.Follows.Elements())
	assert.ElementsMatch([]string{"$"}, b.Follows.Elements())
}

func Test_Follows_epsilonNeverAMember(t *testing.T) {
	assert := assert.New(t)

	g := mustGrammar(t, "<s> => <a> <b>\n<a> => a | ε\n<b> => b | ε\n$")
	g.ComputeFirsts()
	g.ComputeFollows()

	for _, name := range g.NonTerminals() {
		assert.False(g.PDA(name).Follows.Has("EPSILON"), "FOLLOW(%s) contains EPSILON", name)
	}
}

func Test_Follows_secondComputationIsIdentical(t *testing.T) {
	assert := assert.New(t)

	g := mustGrammar(t, "<s> => <a> <b>\n<a> => a | ε\n<b> => b | ε\n$")
	g.ComputeFirsts()
	g.ComputeFollows()
	before := g.PDA("<a>").Follows.Copy()

	g.ComputeFollows()
	assert.True(before.Equal(g.PDA("<a>").Follows))
}
