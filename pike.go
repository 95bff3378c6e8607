// Package pike is a table-driven compiler front end for a small imperative
// language. The language itself is not fixed: a regular-expression
// specification defines the tokens, a BNF specification annotated with
// attribute-evaluation programs defines the syntax and semantics, and pike
// compiles source programs against the two, producing an annotated listing
// and three-address code per lexical scope.
package pike

import (
	"fmt"
	"io"
	"strings"

	"github.com/dekarrin/pike/internal/lex"
	"github.com/dekarrin/pike/internal/listing"
	"github.com/dekarrin/pike/internal/parse"
	"github.com/dekarrin/pike/internal/sem"
)

// Options configures a Frontend.
type Options struct {
	// RegexSpec is the text of the regular-expression specification that
	// defines the token machines.
	RegexSpec string

	// CFGSpec is the text of the annotated BNF specification.
	CFGSpec string

	// DecorationsSpec optionally overrides the built-in regex spec for the
	// semantics token language.
	DecorationsSpec string

	// Debug receives print() output from attribute programs. Defaults to
	// discarding it.
	Debug io.Writer
}

// Frontend is a compiled compiler front end: the lexer generated from the
// regex spec and the grammar, parse table, and semantic programs generated
// from the BNF spec. A Frontend is built once and can compile any number of
// source programs.
type Frontend struct {
	Lexer       *lex.Lexer
	Decorations *lex.Lexer
	Grammar     *parse.Grammar
	Table       *parse.Table

	debug io.Writer
}

// New builds a Frontend from spec text. Spec errors - bad regex syntax,
// duplicate productions, LL(1) conflicts - are fatal and returned here.
func New(opts Options) (*Frontend, error) {
	lx, err := lex.BuildLexer(opts.RegexSpec)
	if err != nil {
		return nil, fmt.Errorf("regex spec: %w", err)
	}

	decSpec := opts.DecorationsSpec
	if decSpec == "" {
		decSpec = sem.DecorationsSpec
	}
	decorations, err := lex.BuildLexer(decSpec)
	if err != nil {
		return nil, fmt.Errorf("decorations spec: %w", err)
	}

	g, err := parse.BuildGrammar(opts.CFGSpec, decorations)
	if err != nil {
		return nil, fmt.Errorf("cfg spec: %w", err)
	}
	g.ResolveKinds(lx)
	g.ComputeFirsts()
	g.ComputeFollows()

	table, err := g.BuildTable()
	if err != nil {
		return nil, fmt.Errorf("cfg spec: %w", err)
	}

	return &Frontend{
		Lexer:       lx,
		Decorations: decorations,
		Grammar:     g,
		Table:       table,
		debug:       opts.Debug,
	}, nil
}

// Result is the outcome of compiling one source program.
type Result struct {
	// Listing is the numbered source listing with diagnostics interleaved.
	Listing string

	// TAC is the emitted three-address code, serialized scope by scope.
	TAC string

	// Clean reports whether the program compiled without any lexical,
	// syntactic, or semantic diagnostic.
	Clean bool
}

// Compile runs a source program through the full front end: tokenize, parse,
// and multi-pass attribute evaluation.
func (f *Frontend) Compile(source string) (Result, error) {
	lst := listing.New()

	lexed := f.Lexer.Tokenize(source, 1, lst)

	parser := parse.NewParser(f.Grammar, f.Table, lst)
	root, _ := parser.Parse(lexed.Tokens.Head)

	eng := sem.NewEngine(f.Lexer, f.Grammar, lst, f.debug)
	if err := eng.Run(root); err != nil {
		return Result{}, err
	}

	var lb, tb strings.Builder
	if err := lst.Render(&lb); err != nil {
		return Result{}, err
	}
	if err := eng.Root.WriteCode(&tb); err != nil {
		return Result{}, err
	}

	return Result{
		Listing: lb.String(),
		TAC:     tb.String(),
		Clean:   lst.ErrorCount() == 0,
	}, nil
}
