package sem

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/pike/internal/lex"
)

// The semantics kind constants are only correct if they line up with the
// kinds the decoration lexer actually assigns, which depend on the order of
// the keyword block and the machine declarations in DecorationsSpec. This
// test pins the correspondence down.
func Test_DecorationKindsLineUp(t *testing.T) {
	assert := assert.New(t)

	lx, err := NewDecorationsLexer()
	assert.NoError(err)

	keywords := []struct {
		lexeme string
		kind   uint16
	}{
		{"if", semIf},
		{"then", semThen},
		{"else", semElse},
		{"end", semEnd},
		{"not", semNot},
		{"(", semOpenParen},
		{")", semCloseParen},
		{".", semDot},
		{",", semComma},
		{";", semSemicolon},
		{"[", semOpenBracket},
		{"]", semCloseBracket},
		{"elif", semElif},
	}
	for _, kw := range keywords {
		lookup := lx.Keywords().Lookup(kw.lexeme)
		assert.True(lookup.Found, "keyword %q missing", kw.lexeme)
		assert.Equal(kw.kind, lookup.TData.Kind, "keyword %q kind", kw.lexeme)
	}

	machines := []struct {
		name string
		kind uint16
	}{
		{"relop", semRelop},
		{"assignop", semAssignOp},
		{"addop", semAddOp},
		{"mulop", semMulOp},
		{"num", semNum},
		{"nonterm", semNonterm},
		{"id", semID},
	}
	for _, m := range machines {
		mach := lx.Machine(m.name)
		assert.NotNil(mach, "machine %q missing", m.name)
		assert.Equal(m.kind, mach.Tok.Kind, "machine %q kind", m.name)
	}
}

func Test_DecorationsLexer_tokenizesStatements(t *testing.T) {
	assert := assert.New(t)

	lx, err := NewDecorationsLexer()
	assert.NoError(err)

	res := lx.Tokenize("<expr>[1].val := newtemp + 4.13 'goto'", 1, nil)

	var kinds []uint16
	for tok := res.Tokens.Head; tok != nil; tok = tok.Next {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal([]uint16{
		semNonterm,
		semOpenBracket,
		semNum,
		semCloseBracket,
		semDot,
		semID,
		semAssignOp,
		semID,
		semAddOp,
		semNum,
		lex.KindCode,
	}, kinds[:11])
}

func Test_DecorationsLexer_numAttributes(t *testing.T) {
	assert := assert.New(t)

	lx, err := NewDecorationsLexer()
	assert.NoError(err)

	res := lx.Tokenize("28 4.13", 1, nil)
	var toks []struct {
		lexeme string
		attr   int
	}
	for tok := res.Tokens.Head; tok != nil; tok = tok.Next {
		toks = append(toks, struct {
			lexeme string
			attr   int
		}{tok.Lexeme, tok.Attr})
	}
	assert.Equal("28", toks[0].lexeme)
	assert.Equal(0, toks[0].attr)
	assert.Equal("4.13", toks[1].lexeme)
	assert.Equal(1, toks[1].attr)
}

func Test_DecorationsLexer_relopAttributes(t *testing.T) {
	testCases := []struct {
		input  string
		expect int
	}{
		{"=", attEq},
		{"<>", attNe},
		{"<", attLess},
		{"<=", attLessEq},
		{">=", attGreaterEq},
		{">", attGreater},
	}

	lx, err := NewDecorationsLexer()
	if err != nil {
		t.Fatalf("building decorations lexer: %v", err)
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert := assert.New(t)
			res := lx.Tokenize(tc.input, 1, nil)
			tok := res.Tokens.Head
			assert.Equal(semRelop, tok.Kind)
			assert.Equal(tc.expect, tok.Attr)
		})
	}
}
