package sem

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/pike/internal/lex"
	"github.com/dekarrin/pike/internal/listing"
	"github.com/dekarrin/pike/internal/parse"
)

// testRegex is the token definition for the little declaration language the
// engine tests compile.
const testRegex = "var\n" +
	"procedure\n" +
	"call\n" +
	"begin\n" +
	"end\n" +
	"integer\n" +
	"real\n" +
	":\n" +
	";\n" +
	",\n" +
	"\\(\n" +
	"\\)\n" +
	"\n" +
	"<id> {idtype} => <letter> ( <letter> | <digit> )*\n" +
	"<intnum> {typecount} => <digit>+\n" +
	"<realnum> {typecount} => <digit>+ \\. <digit>+\n" +
	"<letter> {composite} => a|b|c|d|e|f|g|h|i|j|k|l|m|n|o|p|q|r|s|t|u|v|w|x|y|z\n" +
	"<digit> {composite} => 0|1|2|3|4|5|6|7|8|9\n"

// testCFG declares variables, procedures with formal lists, and calls that
// are checked against the declared formals.
const testCFG = "<prog> => <items>\n" +
	"<items> => <item> <items> | ε\n" +
	"<item> => <decl> | <proc> | <call>\n" +
	"<decl> => var id : <type> ; { addtype(id, <type>.t) }\n" +
	"<type> => integer { <type>.t := integer } | real { <type>.t := real }\n" +
	"<proc> => procedure id \\( <formals> \\) ; { addtype(id, <formals>.list) }\n" +
	"<formals> => id : <type> <frest> { <frest>.acc := makelistf(<type>.t) <formals>.list := <frest>.list }\n" +
	"<frest> => , id : <type> <frest> { listappend(<frest>.acc, <type>.t) <frest>[1].acc := <frest>.acc <frest>.list := <frest>[1].list } | ε { <frest>.list := <frest>.acc }\n" +
	"<call> => call id \\( <actuals> \\) ; { if lookup(id) = <actuals>.list then <call>.ok := 1 end }\n" +
	"<actuals> => <arg> <arest> { <arest>.acc := makelista(<arg>.t) <actuals>.list := <arest>.list }\n" +
	"<arest> => , <arg> <arest> { listappend(<arest>.acc, <arg>.t) <arest>[1].acc := <arest>.acc <arest>.list := <arest>[1].list } | ε { <arest>.list := <arest>.acc }\n" +
	"<arg> => intnum { <arg>.t := integer } | realnum { <arg>.t := real }\n" +
	"$"

// buildFrontend compiles a regex and BNF spec pair the way the root package
// does, returning everything the engine needs.
func buildFrontend(t *testing.T, regexSpec, cfgSpec string) (*lex.Lexer, *parse.Grammar, *parse.Table) {
	t.Helper()

	lx, err := lex.BuildLexer(regexSpec)
	if err != nil {
		t.Fatalf("building lexer: %v", err)
	}
	decorations, err := NewDecorationsLexer()
	if err != nil {
		t.Fatalf("building decorations lexer: %v", err)
	}
	g, err := parse.BuildGrammar(cfgSpec, decorations)
	if err != nil {
		t.Fatalf("building grammar: %v", err)
	}
	g.ResolveKinds(lx)
	g.ComputeFirsts()
	g.ComputeFollows()
	table, err := g.BuildTable()
	if err != nil {
		t.Fatalf("building table: %v", err)
	}
	return lx, g, table
}

// compile runs source through the full pipeline and returns the engine, the
// listing, and the parse-node instance tree.
func compile(t *testing.T, regexSpec, cfgSpec, source string) (*Engine, *listing.Listing, *parse.NodeSet) {
	t.Helper()

	lx, g, table := buildFrontend(t, regexSpec, cfgSpec)
	lst := listing.New()
	res := lx.Tokenize(source, 1, lst)

	parser := parse.NewParser(g, table, lst)
	root, ok := parser.Parse(res.Tokens.Head)
	if !ok {
		t.Fatalf("parse failed: %v", lst.Errors())
	}

	eng := NewEngine(lx, g, lst, nil)
	if err := eng.Run(root); err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	return eng, lst, root
}

func Test_Engine_declaration(t *testing.T) {
	assert := assert.New(t)

	eng, lst, _ := compile(t, testRegex, testCFG, "var x : integer ;\n")

	assert.Equal(0, lst.ErrorCount())
	sym := eng.Root.Lookup("x")
	assert.NotNil(sym)
	assert.Equal(Ident, sym.Type.Kind)
	assert.Equal("integer", sym.Type.S)
}

func Test_Engine_redeclaration(t *testing.T) {
	assert := assert.New(t)

	_, lst, _ := compile(t, testRegex, testCFG, "var x : integer ;\nvar x : real ;\n")

	assert.Equal(1, lst.ErrorCount())
	assert.True(lst.HasError(2, lst.Errors()[0]))
	assert.Contains(lst.Errors()[0], "Redeclaration of identifier")
	assert.Contains(lst.Errors()[0], "at token x")
}

func Test_Engine_procedureFormals(t *testing.T) {
	assert := assert.New(t)

	eng, lst, _ := compile(t, testRegex, testCFG, "procedure foo ( a : integer , b : real ) ;\n")

	assert.Equal(0, lst.ErrorCount())
	sym := eng.Root.Lookup("foo")
	assert.NotNil(sym)
	assert.Equal(FormalArgs, sym.Type.Kind)
	assert.Equal(2, sym.Type.List.Len())
	assert.Equal("integer", sym.Type.List.Of[0].S)
	assert.Equal("real", sym.Type.List.Of[1].S)
}

func Test_Engine_callMatchesFormals(t *testing.T) {
	assert := assert.New(t)

	source := "procedure foo ( a : integer , b : real ) ;\ncall foo ( 1 , 2.5 ) ;\n"
	_, lst, _ := compile(t, testRegex, testCFG, source)

	assert.Equal(0, lst.ErrorCount())
}

func Test_Engine_callNotEnoughArguments(t *testing.T) {
	assert := assert.New(t)

	source := "procedure foo ( a : integer , b : real ) ;\ncall foo ( 1 ) ;\n"
	_, lst, _ := compile(t, testRegex, testCFG, source)

	assert.NotZero(lst.ErrorCount())
	found := false
	for _, e := range lst.Errors() {
		if strings.Contains(e, "Not Enough Arguments") {
			found = true
		}
	}
	assert.True(found, "expected a Not Enough Arguments diagnostic, got: %v", lst.Errors())
}

func Test_Engine_callExcessParameters(t *testing.T) {
	assert := assert.New(t)

	source := "procedure foo ( a : integer ) ;\ncall foo ( 1 , 2 ) ;\n"
	_, lst, _ := compile(t, testRegex, testCFG, source)

	found := false
	for _, e := range lst.Errors() {
		if strings.Contains(e, "Excess Parameters") {
			found = true
		}
	}
	assert.True(found, "expected an Excess Parameters diagnostic, got: %v", lst.Errors())
}

func Test_Engine_callTypeMismatch(t *testing.T) {
	assert := assert.New(t)

	source := "procedure foo ( a : integer ) ;\ncall foo ( 2.5 ) ;\n"
	_, lst, _ := compile(t, testRegex, testCFG, source)

	found := false
	for _, e := range lst.Errors() {
		if strings.Contains(e, "Expected integer") {
			found = true
		}
	}
	assert.True(found, "expected a type mismatch diagnostic, got: %v", lst.Errors())
}

// scopeCFG exercises pushscope, popscope, labelf emission, resettemps, and
// newtemp memoization.
const scopeCFG = "<prog> => <blocks>\n" +
	"<blocks> => <block> <blocks> | ε\n" +
	"<block> => <head> <body> ; { popscope() }\n" +
	"<head> => begin id ; { pushscope(id.entry) resettemps() emit(labelf, id.entry, ':') }\n" +
	"<body> => var id ; { emit('load ', id.entry, ' into ', newtemp) }\n" +
	"$"

func Test_Engine_scopesAndEmission(t *testing.T) {
	assert := assert.New(t)

	source := "begin foo ;\nvar x ;\n;\nbegin bar ;\nvar y ;\n;\n"
	eng, lst, _ := compile(t, testRegex, scopeCFG, source)

	assert.Equal(0, lst.ErrorCount())
	assert.Equal(0, eng.Depth())

	var sb strings.Builder
	assert.NoError(eng.Root.WriteCode(&sb))

	expect := "__foo:\n" +
		"\tload x into _t0\n" +
		"__bar:\n" +
		"\tload y into _t0\n"
	assert.Equal(expect, sb.String())
}

func Test_Engine_extraPassesAreNoOps(t *testing.T) {
	assert := assert.New(t)

	source := "begin foo ;\nvar x ;\n;\n"
	eng, lst, root := compile(t, testRegex, scopeCFG, source)

	var before strings.Builder
	assert.NoError(eng.Root.WriteCode(&before))
	errsBefore := lst.ErrorCount()

	// re-walking the converged tree must not emit or report anything new
	assert.NoError(eng.Run(root))

	var after strings.Builder
	assert.NoError(eng.Root.WriteCode(&after))
	assert.Equal(before.String(), after.String())
	assert.Equal(errsBefore, lst.ErrorCount())
}
