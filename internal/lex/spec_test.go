package lex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_TokenizeSpec_kinds(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		expect []uint16
	}{
		{
			name:   "regex operators",
			input:  "( a | b ) * + ?",
			expect: []uint16{KindOpenParen, KindTerm, KindUnion, KindTerm, KindCloseParen, KindKleene, KindPositive, KindOptional, KindEOF},
		},
		{
			name:   "epsilon codepoint",
			input:  "ε",
			expect: []uint16{KindEpsilon, KindEOF},
		},
		{
			name:   "nonterminal and production symbol",
			input:  "<id> => x",
			expect: []uint16{KindEOL, KindNonterm, KindProdSym, KindTerm, KindEOF},
		},
		{
			name:   "unclosed angle becomes a terminal",
			input:  "<id",
			expect: []uint16{KindTerm, KindEOF},
		},
		{
			name:   "escaped metacharacter is a terminal",
			input:  "\\+",
			expect: []uint16{KindTerm, KindEOF},
		},
		{
			name:   "end of input marker",
			input:  "a $",
			expect: []uint16{KindTerm, KindEOF},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			list, err := TokenizeSpec(tc.input, RegexAnnotate)
			assert.NoError(err)

			var actual []uint16
			for tok := list.Head; tok != nil; tok = tok.Next {
				actual = append(actual, tok.Kind)
			}
			assert.Equal(tc.expect, actual)
		})
	}
}

func Test_TokenizeSpec_dropsPlainEOLs(t *testing.T) {
	assert := assert.New(t)

	list, err := TokenizeSpec("kw\n\n<m> => a\n<n> => b\n", RegexAnnotate)
	assert.NoError(err)

	var eols int
	for tok := list.Head; tok != nil; tok = tok.Next {
		if tok.Kind == KindEOL {
			eols++
			assert.Equal(AttrNewProd, tok.Attr)
		}
	}
	// one definition separator per "=>" line
	assert.Equal(2, eols)
}

func Test_TokenizeSpec_annotationTokens(t *testing.T) {
	assert := assert.New(t)

	list, err := TokenizeSpec("a {attribute=2, length = 10}", RegexAnnotate)
	assert.NoError(err)

	var lexemes []string
	var attrs []int
	for tok := list.Head; tok != nil; tok = tok.Next {
		if tok.Kind == KindAnnotate {
			lexemes = append(lexemes, tok.Lexeme)
			attrs = append(attrs, tok.Attr)
		}
	}
	assert.Equal([]string{"attribute", "=", "2", ",", "length", "=", "10", "$"}, lexemes)
	assert.Equal([]int{AnnWord, AnnEqu, AnnNum, AnnComma, AnnWord, AnnEqu, AnnNum, AnnFakeEOF}, attrs)
}

func Test_TokenizeSpec_roundTrip(t *testing.T) {
	assert := assert.New(t)

	input := "if\nthen\n\n<id> {idtype} => <letter> ( <letter> | <digit> )*\n<digit> {composite} => 0|1\n<letter> {composite} => a|b\n"

	first, err := TokenizeSpec(input, RegexAnnotate)
	assert.NoError(err)
	second, err := TokenizeSpec(input, RegexAnnotate)
	assert.NoError(err)

	tok1, tok2 := first.Head, second.Head
	for tok1 != nil && tok2 != nil {
		assert.Equal(tok1.Kind, tok2.Kind)
		assert.Equal(tok1.Lexeme, tok2.Lexeme)
		assert.Equal(tok1.Attr, tok2.Attr)
		tok1, tok2 = tok1.Next, tok2.Next
	}
	assert.Nil(tok1)
	assert.Nil(tok2)
}

func Test_BuildLexer_annotationErrors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{
			name:  "unknown machine key",
			input: "\n<m> {glubglub} => a\n",
		},
		{
			name:  "double assignment of attribute",
			input: "\n<m> => a {attribute=1, attribute=2}\n",
		},
		{
			name:  "double assignment of length",
			input: "\n<m> => a {length=1, length=2}\n",
		},
		{
			name:  "attcount conflicts with attribute",
			input: "\n<m> => a {attribute=1, attcount}\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			_, err := BuildLexer(tc.input)
			assert.Error(err)
		})
	}
}

func Test_BuildLexer_machineFlags(t *testing.T) {
	assert := assert.New(t)

	lx, err := BuildLexer("\n<id> {idtype, length=10} => a\n<frag> {composite} => b\n<num> {typecount} => c\n")
	assert.NoError(err)

	id := lx.Machine("id")
	assert.NotNil(id)
	assert.True(id.AttrID)
	assert.Equal(10, id.LexLen)

	frag := lx.Machine("frag")
	assert.NotNil(frag)
	assert.True(frag.Composite)

	num := lx.Machine("num")
	assert.NotNil(num)
	assert.True(num.TypeCount)
}

func Test_BuildLexer_idtypeAndCompositeOverwrite(t *testing.T) {
	assert := assert.New(t)

	lx, err := BuildLexer("\n<m> {idtype, composite} => a\n")
	assert.NoError(err)

	m := lx.Machine("m")
	assert.True(m.Composite)
	assert.False(m.AttrID)
}
