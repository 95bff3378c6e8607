package lex

import (
	"fmt"
	"strconv"
)

// AnnotationFunc handles a brace-delimited annotation block found by the
// spec tokenizer. It receives the text beginning at the opening brace and
// must append whatever tokens it produces to tl, returning the total number
// of bytes it consumed including both braces.
type AnnotationFunc func(tl *TokenList, text string, lineno *int) (int, error)

// TokenizeSpec reads a regex or BNF specification into a token stream over
// the spec alphabet: regex operators, EOL, epsilon, the production symbol,
// angle-bracketed nonterminals, terminals, and annotation blocks (delegated
// to annotate). A backslash escapes the character after it. Plain EOL tokens
// are dropped after the scan; only the EOL separating two definitions
// survives, marked AttrNewProd.
func TokenizeSpec(text string, annotate AnnotationFunc) (*TokenList, error) {
	var list TokenList
	lineno := 1

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch c {
		case '|':
			list.Add("|", lineno, KindUnion, AttrDefault)
		case '(':
			list.Add("(", lineno, KindOpenParen, AttrDefault)
		case ')':
			list.Add(")", lineno, KindCloseParen, AttrDefault)
		case '*':
			list.Add("*", lineno, KindKleene, AttrDefault)
		case '+':
			list.Add("+", lineno, KindPositive, AttrDefault)
		case '?':
			list.Add("?", lineno, KindOptional, AttrDefault)
		case '$':
			list.Add("$", lineno, KindEOF, AttrDefault)
		case '\n':
			lineno++
			list.Add("EOL", lineno, KindEOL, AttrDefault)
		case 0xCE:
			// U+03B5 GREEK SMALL LETTER EPSILON
			if i+1 < len(text) && text[i+1] == 0xB5 {
				i++
				list.Add("EPSILON", lineno, KindEpsilon, AttrDefault)
			}
		case '{':
			if annotate == nil {
				return nil, fmt.Errorf("line %d: unexpected annotation block", lineno)
			}
			consumed, err := annotate(&list, text[i:], &lineno)
			if err != nil {
				return nil, err
			}
			i += consumed - 1
		case '=':
			if i+1 < len(text) && text[i+1] == '>' {
				markNewProd(&list)
				list.Add("=>", lineno, KindProdSym, AttrDefault)
				i++
			} else {
				var adv int
				adv, lineno = scanTerm(&list, text, i, lineno)
				i = adv
			}
		case '<':
			adv, ok := scanNonterm(&list, text, i, lineno)
			if ok {
				i = adv
			} else {
				adv, lineno = scanTerm(&list, text, i, lineno)
				i = adv
			}
		default:
			if c <= ' ' {
				break
			}
			var adv int
			adv, lineno = scanTerm(&list, text, i, lineno)
			i = adv
		}
	}
	if list.Tail == nil || list.Tail.Kind != KindEOF {
		list.Add("$", lineno, KindEOF, AttrDefault)
	}

	// drop the EOLs that separate nothing
	tok := list.Head
	for tok != nil {
		next := tok.Next
		if tok.Kind == KindEOL && tok.Attr == AttrDefault {
			list.Remove(tok)
		}
		tok = next
	}
	return &list, nil
}

// markNewProd flags the EOL most recently added to the list as a definition
// separator. A definition on the very first line gets a synthetic separator
// inserted at the head.
func markNewProd(list *TokenList) {
	for p := list.Tail; p != nil; p = p.Prev {
		if p.Kind == KindEOL {
			p.Attr = AttrNewProd
			return
		}
	}
	eol := &Token{Kind: KindEOL, Attr: AttrNewProd, Lexeme: "EOL", Line: 1}
	if list.Head == nil {
		list.Append(eol)
		return
	}
	eol.Next = list.Head
	list.Head.Prev = eol
	list.Head = eol
}

// scanNonterm reads an angle-bracketed name starting at text[i] ('<'). It
// reports the index of the last consumed byte and whether a closing '>' was
// found; without one the caller rescans the text as a terminal.
func scanNonterm(list *TokenList, text string, i, lineno int) (int, bool) {
	j := i + 1
	for j < len(text) && (isAlnum(text[j]) || text[j] == '_' || text[j] == '\'') {
		j++
	}
	if j == i+1 || j >= len(text) || text[j] != '>' {
		return i, false
	}
	lexeme := text[i : j+1]
	if len(lexeme) > MaxLexLen {
		list.Add(lexeme[:MaxLexLen], lineno, KindError, AttrTooLong)
		return j, true
	}
	list.Add(lexeme, lineno, KindNonterm, AttrDefault)
	return j, true
}

// scanTerm reads a bare terminal starting at text[i], stopping at whitespace
// or a regex metacharacter. A backslash escapes the byte after it.
func scanTerm(list *TokenList, text string, i, lineno int) (int, int) {
	var lexeme []byte
	j := i
	for j < len(text) && text[j] > ' ' {
		switch text[j] {
		case '(', ')', '*', '+', '?', '|', '{', '$':
			if len(lexeme) > 0 {
				list.Add(string(lexeme), lineno, KindTerm, AttrDefault)
			}
			return j - 1, lineno
		}
		if text[j] == '\\' && j+1 < len(text) {
			j++
		}
		lexeme = append(lexeme, text[j])
		if len(lexeme) > MaxLexLen {
			list.Add(string(lexeme[:MaxLexLen]), lineno, KindError, AttrTooLong)
			return j, lineno
		}
		j++
	}
	if len(lexeme) > 0 {
		list.Add(string(lexeme), lineno, KindTerm, AttrDefault)
	}
	return j - 1, lineno
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// RegexAnnotate is the AnnotationFunc for regex specifications. The block
// contents are a comma-separated list of `key [= number]` entries, lexed here
// into KindAnnotate tokens and terminated with a synthetic end marker.
func RegexAnnotate(tl *TokenList, text string, lineno *int) (int, error) {
	i := 1
	for {
		for i < len(text) && text[i] <= ' ' {
			if text[i] == '\n' {
				*lineno++
			}
			i++
		}
		if i >= len(text) {
			return 0, fmt.Errorf("line %d: unterminated annotation block", *lineno)
		}
		if text[i] == '}' {
			break
		}

		switch {
		case isAlpha(text[i]) || text[i] == '<':
			j := i + 1
			for j < len(text) && (isAlpha(text[j]) || text[j] == '>') {
				if text[j] == '>' {
					j++
					break
				}
				j++
			}
			tl.Add(text[i:j], *lineno, KindAnnotate, AnnWord)
			i = j
		case isDigit(text[i]):
			j := i + 1
			for j < len(text) && isDigit(text[j]) {
				j++
			}
			tl.Add(text[i:j], *lineno, KindAnnotate, AnnNum)
			i = j
		case text[i] == '=':
			tl.Add("=", *lineno, KindAnnotate, AnnEqu)
			i++
		case text[i] == ',':
			tl.Add(",", *lineno, KindAnnotate, AnnComma)
			i++
		default:
			return 0, fmt.Errorf("line %d: illegal character %q in annotation", *lineno, text[i])
		}
	}
	tl.Add("$", *lineno, KindAnnotate, AnnFakeEOF)
	return i + 1, nil
}

// BuildLexer parses regex specification text and compiles it into a Lexer: a
// leading keyword list, one keyword per line, then one machine definition
// per line of the shape `<name> {annotation}? => expression`.
func BuildLexer(text string) (*Lexer, error) {
	lx := newLexer()

	list, err := TokenizeSpec(text, RegexAnnotate)
	if err != nil {
		return nil, err
	}
	cur := list.Head
	if err := lx.parseSpec(&cur); err != nil {
		return nil, err
	}
	return lx, nil
}

// parseSpec consumes the token stream of a regex spec: the keyword block, an
// EOL, then the machine definitions.
func (lx *Lexer) parseSpec(cur **Token) error {
	for (*cur).Kind == KindTerm {
		lx.addKeyword((*cur).Lexeme)
		*cur = (*cur).Next
	}
	// reserve a kind between the keyword space and the machine space
	lx.nextKind++

	if (*cur).Kind != KindEOL {
		return fmt.Errorf("line %d: expected EOL but got %q", (*cur).Line, (*cur).Lexeme)
	}
	*cur = (*cur).Next

	if err := lx.parseMachine(cur); err != nil {
		return err
	}
	for (*cur).Kind == KindEOL {
		*cur = (*cur).Next
		if err := lx.parseMachine(cur); err != nil {
			return err
		}
	}
	if (*cur).Kind != KindEOF {
		return fmt.Errorf("line %d: expected $ but got %q", (*cur).Line, (*cur).Lexeme)
	}
	return nil
}

// parseMachine consumes one `<name> {annotation}? => expression` definition.
func (lx *Lexer) parseMachine(cur **Token) error {
	if (*cur).Kind != KindNonterm {
		return fmt.Errorf("line %d: expected nonterminal <...> but got %q", (*cur).Line, (*cur).Lexeme)
	}
	mach := lx.addMachine(*cur)
	*cur = (*cur).Next

	if (*cur).Kind == KindAnnotate {
		if err := parseMachineAnnotation(cur, mach); err != nil {
			return err
		}
	}

	if (*cur).Kind != KindProdSym {
		return fmt.Errorf("line %d: expected '=>' but got %q", (*cur).Line, (*cur).Lexeme)
	}
	*cur = (*cur).Next

	var unfa, concat *NFA
	nfa, err := lx.expression(cur, &unfa, &concat)
	if err != nil {
		return err
	}
	if unfa != nil {
		nfa = unfa
	}
	mach.NFA = nfa
	return nil
}

// expression parses `term closure* ( '|' expression )?` and builds the NFA
// for it. Union operators fuse into an existing union frame held in unfa
// rather than nesting; concat holds the most recent branch so further
// concatenation can splice into it.
func (lx *Lexer) expression(cur **Token, unfa, concat **NFA) (*NFA, error) {
	term, err := lx.term(cur, unfa, concat)
	if err != nil {
		return nil, err
	}

	switch closure(cur) {
	case closKleene:
		clos := newNFA()
		clos.Start = newState()
		clos.Final = newState()
		addEdge(clos.Start, newEdge(makeEpsilon(), term.Start))
		addEdge(clos.Start, newEdge(makeEpsilon(), clos.Final))
		addEdge(term.Final, newEdge(makeEpsilon(), clos.Final))
		addEdge(term.Final, newEdge(makeEpsilon(), term.Start))
		term = clos
	case closPositive:
		clos := newNFA()
		clos.Start = newState()
		clos.Final = newState()
		addEdge(clos.Start, newEdge(makeEpsilon(), term.Start))
		addEdge(term.Final, newEdge(makeEpsilon(), clos.Final))
		addEdge(term.Final, newEdge(makeEpsilon(), term.Start))
		term = clos
	case closOptional:
		addEdge(term.Start, newEdge(makeEpsilon(), term.Final))
	}

	op, rest, err := lx.expressionTail(cur, unfa, concat)
	if err != nil {
		return nil, err
	}
	switch op {
	case opUnion:
		if *unfa != nil {
			addEdge((*unfa).Start, newEdge(makeEpsilon(), term.Start))
			addEdge(term.Final, newEdge(makeEpsilon(), (*unfa).Final))
		} else {
			un := newNFA()
			un.Start = newState()
			un.Final = newState()
			addEdge(un.Start, newEdge(makeEpsilon(), term.Start))
			addEdge(un.Start, newEdge(makeEpsilon(), rest.Start))
			addEdge(term.Final, newEdge(makeEpsilon(), un.Final))
			addEdge(rest.Final, newEdge(makeEpsilon(), un.Final))
			*unfa = un
		}
		*concat = term
	case opConcat:
		if *unfa != nil {
			insertAtBranch(*unfa, *concat, term)
			*concat = term
		} else {
			reparent(term.Final, rest.Start)
			term.Final = rest.Final
		}
	}
	return term, nil
}

type regexOp int

const (
	opNone regexOp = iota
	opConcat
	opUnion
)

// expressionTail decides whether the expression continues with a union
// branch, a concatenation, or nothing.
func (lx *Lexer) expressionTail(cur **Token, unfa, concat **NFA) (regexOp, *NFA, error) {
	if (*cur).Kind == KindUnion {
		*cur = (*cur).Next
		switch (*cur).Kind {
		case KindOpenParen, KindTerm, KindNonterm, KindEpsilon:
			nfa, err := lx.expression(cur, unfa, concat)
			return opUnion, nfa, err
		default:
			return opNone, nil, fmt.Errorf("line %d: expected '(', terminal, or nonterminal but got %q", (*cur).Line, (*cur).Lexeme)
		}
	}
	switch (*cur).Kind {
	case KindOpenParen, KindTerm, KindNonterm, KindEpsilon:
		nfa, err := lx.expression(cur, unfa, concat)
		return opConcat, nfa, err
	default:
		return opNone, nil, nil
	}
}

// term parses a parenthesized subexpression or a single atom, attaching any
// edge annotation that follows the atom.
func (lx *Lexer) term(cur **Token, unfa, concat **NFA) (*NFA, error) {
	switch (*cur).Kind {
	case KindOpenParen:
		*cur = (*cur).Next
		backup := *unfa
		var innerU, innerC *NFA
		nfa, err := lx.expression(cur, &innerU, &innerC)
		if err != nil {
			return nil, err
		}
		if (*cur).Kind != KindCloseParen {
			return nil, fmt.Errorf("line %d: expected ')' but got %q", (*cur).Line, (*cur).Lexeme)
		}
		*cur = (*cur).Next
		*unfa = backup
		if innerU != nil {
			*concat = innerU
			return innerU, nil
		}
		*concat = nfa
		return nfa, nil

	case KindTerm, KindNonterm, KindEpsilon:
		nfa := newNFA()
		nfa.Start = newState()
		nfa.Final = newState()
		edge := newEdge(*cur, nfa.Final)
		addEdge(nfa.Start, edge)
		*cur = (*cur).Next

		if (*cur).Kind == KindAnnotate {
			if err := parseEdgeAnnotation(cur, edge); err != nil {
				return nil, err
			}
		}

		op, rest, err := lx.expressionTail(cur, unfa, concat)
		if err != nil {
			return nil, err
		}
		switch op {
		case opUnion:
			if *unfa != nil {
				addEdge((*unfa).Start, newEdge(makeEpsilon(), nfa.Start))
				addEdge(nfa.Final, newEdge(makeEpsilon(), (*unfa).Final))
			} else {
				un := newNFA()
				un.Start = newState()
				un.Final = newState()
				addEdge(un.Start, newEdge(makeEpsilon(), nfa.Start))
				addEdge(un.Start, newEdge(makeEpsilon(), rest.Start))
				addEdge(nfa.Final, newEdge(makeEpsilon(), un.Final))
				addEdge(rest.Final, newEdge(makeEpsilon(), un.Final))
				*unfa = un
			}
			*concat = nfa
		case opConcat:
			if *unfa != nil {
				insertAtBranch(*unfa, *concat, nfa)
				*concat = nfa
			} else {
				reparent(nfa.Final, rest.Start)
				nfa.Final = rest.Final
			}
		}
		return nfa, nil

	default:
		return nil, fmt.Errorf("line %d: expected '(', terminal, or nonterminal but got %q", (*cur).Line, (*cur).Lexeme)
	}
}

type closType int

const (
	closNone closType = iota
	closKleene
	closPositive
	closOptional
)

// closure consumes any run of closure operators. The first one wins; the
// rest are absorbed.
func closure(cur **Token) closType {
	var typ closType
	switch (*cur).Kind {
	case KindKleene:
		typ = closKleene
	case KindPositive:
		typ = closPositive
	case KindOptional:
		typ = closOptional
	default:
		return closNone
	}
	*cur = (*cur).Next
	closure(cur)
	return typ
}

// parseMachineAnnotation applies a machine header annotation: a
// comma-separated list over the keys typecount, idtype, composite, and
// length. idtype and composite are mutually exclusive and overwrite one
// another. Assigning any key twice is a hard error.
func parseMachineAnnotation(cur **Token, mach *Machine) error {
	seen := map[string]bool{}
	for {
		if (*cur).Kind != KindAnnotate || (*cur).Attr != AnnWord {
			return fmt.Errorf("line %d: expected annotation key but got %q", (*cur).Line, (*cur).Lexeme)
		}
		key := lowercase((*cur).Lexeme)
		if seen[key] {
			return fmt.Errorf("line %d: annotation value assigned more than once", (*cur).Line)
		}
		seen[key] = true
		*cur = (*cur).Next
		switch key {
		case "typecount":
			mach.TypeCount = true
		case "idtype":
			mach.AttrID = true
			mach.Composite = false
		case "composite":
			mach.Composite = true
			mach.AttrID = false
		case "length":
			val, err := annotationValue(cur)
			if err != nil {
				return err
			}
			mach.LexLen = val
		default:
			return fmt.Errorf("line %d: unknown machine annotation key %q", (*cur).Line, key)
		}

		if (*cur).Kind == KindAnnotate && (*cur).Attr == AnnComma {
			*cur = (*cur).Next
			continue
		}
		break
	}
	if (*cur).Kind != KindAnnotate || (*cur).Attr != AnnFakeEOF {
		return fmt.Errorf("line %d: expected '}' but got %q", (*cur).Line, (*cur).Lexeme)
	}
	*cur = (*cur).Next
	return nil
}

// parseEdgeAnnotation applies an edge annotation: a comma-separated list of
// `attribute = n`, `length = n`, a bare number (shorthand for attribute), or
// the bare flag attcount. Assigning any key twice is a hard error.
func parseEdgeAnnotation(cur **Token, edge *Edge) error {
	for {
		if (*cur).Kind != KindAnnotate {
			return fmt.Errorf("line %d: expected annotation but got %q", (*cur).Line, (*cur).Lexeme)
		}
		switch (*cur).Attr {
		case AnnNum:
			val, err := strconv.Atoi((*cur).Lexeme)
			if err != nil {
				return fmt.Errorf("line %d: bad annotation number %q", (*cur).Line, (*cur).Lexeme)
			}
			if err := setAnnValue(&edge.Ann.Attribute, val, *cur); err != nil {
				return err
			}
			*cur = (*cur).Next
		case AnnWord:
			key := lowercase((*cur).Lexeme)
			*cur = (*cur).Next
			switch key {
			case "attcount":
				if edge.Ann.AttCount {
					return fmt.Errorf("line %d: annotation value assigned more than once", (*cur).Line)
				}
				if edge.Ann.Attribute != -1 {
					return fmt.Errorf("line %d: incompatible attribute type combination", (*cur).Line)
				}
				edge.Ann.AttCount = true
			case "attribute":
				val, err := annotationValue(cur)
				if err != nil {
					return err
				}
				if err := setAnnValue(&edge.Ann.Attribute, val, *cur); err != nil {
					return err
				}
			case "length":
				val, err := annotationValue(cur)
				if err != nil {
					return err
				}
				if err := setAnnValue(&edge.Ann.Length, val, *cur); err != nil {
					return err
				}
			default:
				return fmt.Errorf("line %d: unknown edge annotation key %q", (*cur).Line, key)
			}
		default:
			return fmt.Errorf("line %d: expected annotation key but got %q", (*cur).Line, (*cur).Lexeme)
		}

		if (*cur).Kind == KindAnnotate && (*cur).Attr == AnnComma {
			*cur = (*cur).Next
			continue
		}
		break
	}
	if (*cur).Kind != KindAnnotate || (*cur).Attr != AnnFakeEOF {
		return fmt.Errorf("line %d: expected '}' but got %q", (*cur).Line, (*cur).Lexeme)
	}
	*cur = (*cur).Next
	return nil
}

// annotationValue consumes `= number` and returns the number.
func annotationValue(cur **Token) (int, error) {
	if (*cur).Kind != KindAnnotate || (*cur).Attr != AnnEqu {
		return 0, fmt.Errorf("line %d: expected '=' but got %q", (*cur).Line, (*cur).Lexeme)
	}
	*cur = (*cur).Next
	if (*cur).Kind != KindAnnotate || (*cur).Attr != AnnNum {
		return 0, fmt.Errorf("line %d: expected number but got %q", (*cur).Line, (*cur).Lexeme)
	}
	val, err := strconv.Atoi((*cur).Lexeme)
	if err != nil {
		return 0, fmt.Errorf("line %d: bad annotation number %q", (*cur).Line, (*cur).Lexeme)
	}
	*cur = (*cur).Next
	return val, nil
}

// setAnnValue stores an annotation value, rejecting double assignment.
func setAnnValue(loc *int, value int, at *Token) error {
	if *loc != -1 {
		return fmt.Errorf("line %d: annotation value assigned more than once", at.Line)
	}
	*loc = value
	return nil
}

func lowercase(s string) string {
	b := []byte(s)
	for i := range b {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}
