package lex

import (
	"fmt"
	"strings"

	"github.com/dekarrin/pike/internal/listing"
)

// Machine is one named token definition from a regex spec: a compiled NFA
// plus the flags given in its header annotation.
type Machine struct {
	// Name is the machine's name without the angle brackets.
	Name string

	// Tok is the defining <name> token. Its kind is the kind assigned to
	// every token this machine matches.
	Tok *Token

	NFA *NFA

	// AttrID marks a machine whose distinct matched lexemes are interned
	// into the identifier table, each receiving a fresh attribute.
	AttrID bool

	// Composite machines may only be invoked by other machines; they do not
	// participate in top-level matching.
	Composite bool

	// TypeCount marks a type-defining machine: its name becomes the
	// structural type of the tokens it matches.
	TypeCount bool

	// LexLen is the hard upper bound on the length of any lexeme this
	// machine matches.
	LexLen int
}

// Lexer is a compiled lexical analyzer: the keyword table, the identifier
// table, and the token machines from a regex specification, in declaration
// order.
type Lexer struct {
	machines  []*Machine
	byName    map[string]*Machine
	keywords  *Trie
	ids       *Trie
	kindNames map[uint16]string
	nextKind  uint16
	idAttrs   int
}

func newLexer() *Lexer {
	return &Lexer{
		byName:    map[string]*Machine{},
		keywords:  NewTrie(),
		ids:       NewTrie(),
		kindNames: map[uint16]string{KindEOF: "$"},
		nextKind:  KindFirstDynamic,
	}
}

// Keywords returns the keyword table.
func (lx *Lexer) Keywords() *Trie {
	return lx.keywords
}

// IDs returns the identifier table.
func (lx *Lexer) IDs() *Trie {
	return lx.ids
}

// Machines returns the machines in declaration order.
func (lx *Lexer) Machines() []*Machine {
	return lx.machines
}

// Machine returns the machine with the given name, or nil if there is none.
// The name may be given with or without its angle brackets.
func (lx *Lexer) Machine(name string) *Machine {
	name = strings.TrimSuffix(strings.TrimPrefix(name, "<"), ">")
	return lx.byName[name]
}

// KindsEnd returns the first kind value past all kinds this lexer has
// assigned.
func (lx *Lexer) KindsEnd() uint16 {
	return lx.nextKind
}

// KindName returns a human-readable name for a kind value assigned by this
// lexer.
func (lx *Lexer) KindName(kind uint16) string {
	if name, ok := lx.kindNames[kind]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", kind)
}

// addKeyword reserves the next dynamic kind for the keyword.
func (lx *Lexer) addKeyword(lexeme string) {
	kind := lx.nextKind
	lx.nextKind++
	lx.keywords.Insert(lexeme, TData{Kind: kind})
	lx.kindNames[kind] = lexeme
}

// addMachine registers a new machine defined by tok, assigning it the next
// dynamic kind.
func (lx *Lexer) addMachine(tok *Token) *Machine {
	kind := lx.nextKind
	lx.nextKind++
	tok.Kind = kind

	m := &Machine{
		Name:   strings.TrimSuffix(strings.TrimPrefix(tok.Lexeme, "<"), ">"),
		Tok:    tok,
		LexLen: MaxLexLen,
	}
	lx.machines = append(lx.machines, m)
	lx.byName[m.Name] = m
	lx.kindNames[kind] = m.Name
	return m
}

// Result is the outcome of tokenizing a piece of text: the token stream and
// the number of the line the tokenizer stopped on.
type Result struct {
	Tokens *TokenList
	Lines  int
}

// Tokenize runs every non-composite machine against text by maximal-munch
// matching and produces the token stream. Whitespace separates tokens; each
// newline bumps the line counter and, when lst is non-nil, appends the
// completed source line to the listing. Lexical failures produce error
// tokens and diagnostics but never abort the scan.
//
// Matched lexemes are first looked up in the keyword table. A lexeme matched
// by an AttrID machine is interned into the identifier table with a fresh
// attribute on first sight.
func (lx *Lexer) Tokenize(text string, startLine int, lst *listing.Listing) Result {
	var toks TokenList

	lineno := startLine
	if lineno < 1 {
		lineno = 1
	}

	lineStart := 0
	flushLine := func(end int) {
		if lst != nil {
			lst.AddLine(strings.TrimRight(text[lineStart:end], "\r"))
		}
	}

	i := 0
	for i < len(text) {
		// skip whitespace, counting lines
		for i < len(text) && text[i] <= ' ' {
			if text[i] == '\n' {
				flushLine(i)
				lineStart = i + 1
				lineno++
			}
			i++
		}
		if i >= len(text) {
			break
		}

		// quoted code fragment: reserved kind, bypasses the machines
		if text[i] == '\'' {
			end := i + 1
			for end < len(text) && text[end] != '\'' {
				end++
			}
			if end < len(text) {
				toks.Add(text[i:end+1], lineno, KindCode, AttrDefault)
				i = end + 1
				continue
			}
		}

		best := matchResult{}
		var bmach *Machine
		for _, mach := range lx.machines {
			if mach.Composite {
				continue
			}
			res := lx.matchNFA(mach.NFA, mach.NFA.Start, text[i:])
			if res.ok && res.n > best.n {
				best = res
				bmach = mach
			}
		}

		if best.ok && best.n > 0 {
			lexeme := text[i : i+best.n]
			if best.n <= bmach.LexLen {
				tok := lx.classify(&toks, lexeme, lineno, bmach, best.attribute)
				if bmach.TypeCount {
					tok.SType = bmach.Name
				}
			} else {
				toks.Add(lexeme[:1], lineno, KindError, AttrTooLong)
				if lst != nil {
					lst.AddError(lineno, fmt.Sprintf("Lexical Error: at line: %d: Token too long: %s", lineno, lexeme))
				}
			}
			i += best.n
		} else {
			// no machine accepted anything here; a lone character that is a
			// keyword still becomes a token, anything else is an error
			c := text[i : i+1]
			lookup := lx.keywords.Lookup(c)
			if lookup.Found {
				toks.Add(c, lineno, lookup.TData.Kind, AttrDefault)
			} else {
				toks.Add(c, lineno, KindError, AttrDefault)
				if lst != nil {
					lst.AddError(lineno, fmt.Sprintf("Lexical Error: at line: %d: Unknown Character: %s", lineno, c))
				}
			}
			i++
		}
	}
	if lst != nil && lineStart < len(text) {
		flushLine(len(text))
	}

	toks.Add("$", lineno, KindEOF, AttrDefault)
	return Result{Tokens: &toks, Lines: lineno}
}

// classify turns a successfully matched lexeme into a token: keywords first,
// then known identifiers, then interning for AttrID machines, then the plain
// machine kind.
func (lx *Lexer) classify(toks *TokenList, lexeme string, lineno int, bmach *Machine, attribute int) *Token {
	if lookup := lx.keywords.Lookup(lexeme); lookup.Found {
		return toks.Add(lexeme, lineno, lookup.TData.Kind, lookup.TData.Attr)
	}
	if lookup := lx.ids.Lookup(lexeme); lookup.Found {
		return toks.Add(lexeme, lineno, lookup.TData.Kind, lookup.TData.Attr)
	}
	if bmach.AttrID {
		lx.idAttrs++
		lx.ids.Insert(lexeme, TData{Kind: bmach.Tok.Kind, Attr: lx.idAttrs})
		return toks.Add(lexeme, lineno, bmach.Tok.Kind, lx.idAttrs)
	}
	return toks.Add(lexeme, lineno, bmach.Tok.Kind, attribute)
}

// GetType lexes a single lexeme in isolation and reports the kind and
// structural type it would receive. It backs the semantic engine's type
// dispatch.
func (lx *Lexer) GetType(lexeme string) (kind uint16, stype string) {
	res := lx.Tokenize(lexeme, 1, nil)
	kind = KindError
	for iter := res.Tokens.Head; iter != nil; iter = iter.Next {
		if iter.Kind == KindError || iter.Kind == KindEOF {
			continue
		}
		kind = iter.Kind
		stype = iter.SType
	}
	return kind, stype
}

// MatchInfo is the result of running a single named machine against a
// lexeme.
type MatchInfo struct {
	Matched   bool
	Attribute int
}

// MatchMachine runs only the named machine against the full lexeme and
// reports whether it matches all of it, along with the match attribute.
func (lx *Lexer) MatchMachine(name, lexeme string) MatchInfo {
	mach := lx.Machine(name)
	if mach == nil {
		return MatchInfo{}
	}
	res := lx.matchNFA(mach.NFA, mach.NFA.Start, lexeme)
	if !res.ok || res.n != len(lexeme) {
		return MatchInfo{}
	}
	return MatchInfo{Matched: true, Attribute: res.attribute}
}
