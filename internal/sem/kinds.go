// Package sem implements the attribute evaluator. It interprets the small
// expression language embedded in BNF production annotations: statements that
// read inherited attributes, compute synthesized attributes, and invoke
// built-in actions against the symbol table, the scope tree, and the code
// listing, iterated until a fixpoint is reached across multiple passes.
package sem

import "github.com/dekarrin/pike/internal/lex"

// DecorationsSpec is the regex specification for the semantics token
// language. Annotation blocks in the BNF are re-tokenized with a lexer built
// from this spec (or from a user override). The keyword block and the machine
// declarations are in a fixed order: the kind constants below line up with
// them, starting immediately after the reserved lexer kinds.
const DecorationsSpec = "if\n" +
	"then\n" +
	"else\n" +
	"end\n" +
	"not\n" +
	"\\(\n" +
	"\\)\n" +
	".\n" +
	",\n" +
	";\n" +
	"[\n" +
	"]\n" +
	"elif\n" +
	"\n" +
	"<relop> => = | \\<\\> {attribute=1} | \\< {attribute=2} | \\<= {attribute=3} | \\>= {attribute=4} | \\> {attribute=5}\n" +
	"<assignop> => :=\n" +
	"<addop> => \\+ | - {attribute=1} | or {attribute=2}\n" +
	"<mulop> => \\* | / {attribute=1} | and {attribute=2}\n" +
	"<num> => <digit>+ ( \\. {attribute=1} <digit>+ )?\n" +
	"<nonterm> => \\< <word> \\>\n" +
	"<id> => <word>\n" +
	"<word> {composite} => <letter>(<letter>|<digit>)*\n" +
	"<letter> {composite} => a|b|c|d|e|f|g|h|i|j|k|l|m|n|o|p|q|r|s|t|u|v|w|x|y|z|A|B|C|D|E|F|G|H|I|J|K|L|M|N|O|P|Q|R|S|T|U|V|W|X|Y|Z|_\n" +
	"<digit> {composite} => 0|1|2|3|4|5|6|7|8|9\n"

// Kinds of the semantics token space. These are reserved beginning
// immediately after the last lexer-reserved kind; the decoration lexer
// assigns them in this order to its keywords and machines, which
// Test_DecorationKindsLineUp pins down.
const (
	semIf = lex.KindFirstDynamic + iota
	semThen
	semElse
	semEnd
	semNot
	semOpenParen
	semCloseParen
	semDot
	semComma
	semSemicolon
	semOpenBracket
	semCloseBracket
	semElif

	_ // partition marker between the keyword space and the machine space

	semRelop
	semAssignOp
	semAddOp
	semMulOp
	semNum
	semNonterm
	semID
)

// Attributes carried by relop tokens, in the order the decoration spec
// assigns them.
const (
	attEq = iota
	attNe
	attLess
	attLessEq
	attGreaterEq
	attGreater
)

// Attributes carried by addop and mulop tokens.
const (
	attAdd = iota
	attSub
	attOr
)

const (
	attMult = iota
	attDiv
	attAnd
)

// NewDecorationsLexer compiles the built-in semantics token lexer.
func NewDecorationsLexer() (*lex.Lexer, error) {
	return lex.BuildLexer(DecorationsSpec)
}
