package parse

import (
	"fmt"

	"github.com/dekarrin/pike/internal/lex"
)

// BuildGrammar reads BNF specification text into a grammar table. Annotation
// blocks that trail a production body are re-tokenized through annLexer (the
// semantics decoration lexer) and the resulting token stream is attached to
// the production.
func BuildGrammar(text string, annLexer *lex.Lexer) (*Grammar, error) {
	annotate := func(tl *lex.TokenList, blockText string, lineno *int) (int, error) {
		return bnfAnnotate(tl, blockText, lineno, annLexer)
	}

	list, err := lex.TokenizeSpec(text, annotate)
	if err != nil {
		return nil, err
	}

	g := NewGrammar()
	cur := list.Head
	if err := g.parseNonterminal(&cur); err != nil {
		return nil, err
	}
	for {
		if cur == nil {
			return g, nil
		}
		switch cur.Kind {
		case lex.KindEOL:
			cur = cur.Next
			if err := g.parseNonterminal(&cur); err != nil {
				return nil, err
			}
		case lex.KindEOF:
			return g, nil
		default:
			return nil, fmt.Errorf("line %d: expected EOL or $ but got %q", cur.Line, cur.Lexeme)
		}
	}
}

// bnfAnnotate consumes a `{ ... }` semantic program. The block contents are
// run through the decoration lexer and chained onto the token stream as a
// single annotation-start marker followed by the semantics tokens. Quoted
// code fragments may contain braces, so the closing brace scan respects
// quotes.
func bnfAnnotate(tl *lex.TokenList, text string, lineno *int, annLexer *lex.Lexer) (int, error) {
	end := 1
	inQuote := false
	for end < len(text) && (text[end] != '}' || inQuote) {
		if text[end] == '\'' {
			inQuote = !inQuote
		}
		end++
	}
	if end >= len(text) {
		return 0, fmt.Errorf("line %d: unterminated annotation block", *lineno)
	}

	tl.Add("{", *lineno, lex.KindAnnotate, lex.AttrDefault)
	res := annLexer.Tokenize(text[1:end], *lineno, nil)
	*lineno = res.Lines
	tl.Append(res.Tokens.Head)
	return end + 1, nil
}

// parseNonterminal consumes one `nonterminal => production ( '|' production )*`
// definition, including any trailing semantic program.
func (g *Grammar) parseNonterminal(cur **lex.Token) error {
	if (*cur).Kind == lex.KindEOL {
		*cur = (*cur).Next
	}
	if (*cur).Kind != lex.KindNonterm {
		return fmt.Errorf("line %d: expected nonterminal but got %q", (*cur).Line, (*cur).Lexeme)
	}
	pda, err := g.addPDA(*cur)
	if err != nil {
		return err
	}
	*cur = (*cur).Next

	if (*cur).Kind != lex.KindProdSym {
		return fmt.Errorf("line %d: expected '=>' but got %q", (*cur).Line, (*cur).Lexeme)
	}
	*cur = (*cur).Next

	if err := g.parseProduction(cur, pda); err != nil {
		return err
	}
	return g.parseProductions(cur, pda)
}

// parseProductions consumes the remaining '|'-separated alternatives of one
// definition.
func (g *Grammar) parseProductions(cur **lex.Token, pda *PDA) error {
	switch (*cur).Kind {
	case lex.KindUnion:
		*cur = (*cur).Next
		if err := g.parseProduction(cur, pda); err != nil {
			return err
		}
		return g.parseProductions(cur, pda)
	case lex.KindNonterm, lex.KindEOL, lex.KindEOF:
		return nil
	default:
		return fmt.Errorf("line %d: expected '|', nonterminal, EOL, or $ but got %q", (*cur).Line, (*cur).Lexeme)
	}
}

// parseProduction consumes one production body plus its optional annotation.
func (g *Grammar) parseProduction(cur **lex.Token, pda *PDA) error {
	switch (*cur).Kind {
	case lex.KindTerm, lex.KindNonterm, lex.KindEpsilon:
		prod := pda.addProduction()
		prod.Start = &PNode{Tok: *cur}
		*cur = (*cur).Next
		rest, err := g.parseTokens(cur)
		if err != nil {
			return err
		}
		prod.Start.Next = rest
		if rest != nil {
			rest.Prev = prod.Start
		}
		g.parseDecoration(cur, prod)
		return nil
	default:
		return fmt.Errorf("line %d: expected token but got %q", (*cur).Line, (*cur).Lexeme)
	}
}

// parseTokens consumes the remaining symbols of a production body.
func (g *Grammar) parseTokens(cur **lex.Token) (*PNode, error) {
	switch (*cur).Kind {
	case lex.KindTerm, lex.KindNonterm, lex.KindEpsilon:
		pnode := &PNode{Tok: *cur}
		*cur = (*cur).Next
		rest, err := g.parseTokens(cur)
		if err != nil {
			return nil, err
		}
		if rest != nil {
			pnode.Next = rest
			rest.Prev = pnode
		}
		return pnode, nil
	case lex.KindAnnotate, lex.KindUnion, lex.KindEOL, lex.KindEOF:
		return nil, nil
	default:
		return nil, fmt.Errorf("line %d: expected token, annotation, '|', EOL, or $ but got %q", (*cur).Line, (*cur).Lexeme)
	}
}

// parseDecoration attaches the semantics token stream of a production. The
// stream begins after the annotation-start marker and runs through its EOF
// token; the cursor is advanced past all of it.
func (g *Grammar) parseDecoration(cur **lex.Token, prod *Production) {
	if (*cur).Kind != lex.KindAnnotate {
		return
	}
	prod.Annot = (*cur).Next
	iter := *cur
	for iter != nil && iter.Kind != lex.KindEOF {
		iter = iter.Next
	}
	if iter != nil {
		// the semantics stream keeps its own EOF as terminator; the grammar
		// parse resumes after it
		*cur = iter.Next
	} else {
		*cur = nil
	}
}
