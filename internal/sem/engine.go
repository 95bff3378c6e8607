package sem

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dekarrin/pike/internal/lex"
	"github.com/dekarrin/pike/internal/listing"
	"github.com/dekarrin/pike/internal/parse"
	"github.com/dekarrin/pike/internal/util"
)

// maxPasses bounds the fixpoint loop against an attribute program that never
// converges.
const maxPasses = 50

// Engine evaluates the semantic programs attached to grammar productions
// over a parse-node instance tree. All of the state the actions mutate - the
// scope tree, the temp and label counters, the memoization stack, the emit
// destination - lives here and is passed explicitly.
type Engine struct {
	Lexer   *lex.Lexer
	Grammar *parse.Grammar
	Listing *listing.Listing

	// Debug receives print() output.
	Debug io.Writer

	Root *Scope
	Curr *Scope

	depth      int
	tempCount  int
	labelCount int

	// fired memoizes mutating actions and the newtemp/newlabel forms by
	// statement identity, guaranteeing at-most-once execution across every
	// pass of the run. The key pairs the statement's token with the
	// production instance evaluating it, since instances of one production
	// share their annotation tokens.
	fired map[stmtKey]*Value

	// scopes remembers the scope each pushscope statement created so later
	// passes re-enter it instead of creating another.
	scopes map[stmtKey]*Scope

	// frames is the per-pass memoization stack: one frame is pushed at pass
	// start and popped at pass end, making a statement evaluated twice
	// within the same pass a no-op.
	frames util.Stack[map[stmtKey]bool]

	pass    int
	final   bool
	changed bool
	halted  bool
	evalErr error
}

// stmtKey identifies one statement of one production instance: the
// statement's position in the shared annotation token stream plus the
// instance evaluating it.
type stmtKey struct {
	ns  *parse.NodeSet
	tok *lex.Token
}

// NewEngine creates an attribute engine over a compiled frontend.
func NewEngine(lx *lex.Lexer, g *parse.Grammar, lst *listing.Listing, debug io.Writer) *Engine {
	root := newScope("", nil)
	root.FullID = "_"
	if debug == nil {
		debug = io.Discard
	}
	return &Engine{
		Lexer:   lx,
		Grammar: g,
		Listing: lst,
		Debug:   debug,
		Root:    root,
		Curr:    root,
		fired:   map[stmtKey]*Value{},
		scopes:  map[stmtKey]*Scope{},
	}
}

// Run evaluates the attribute programs of the whole instance tree until a
// fixpoint: no new attribute defined and no new side effect fired. One more
// pass then runs flagged final, which arms the error reporting for
// conditions that should never survive to the end, such as an undeclared
// identifier.
func (e *Engine) Run(root *parse.NodeSet) error {
	if root == nil {
		return nil
	}
	for e.pass = 1; e.pass <= maxPasses; e.pass++ {
		e.changed = false
		e.runPass(root)
		if e.evalErr != nil {
			return e.evalErr
		}
		if e.halted {
			return fmt.Errorf("halt() called during pass %d", e.pass)
		}
		if !e.changed {
			break
		}
	}

	e.final = true
	e.changed = false
	e.runPass(root)
	if e.evalErr != nil {
		return e.evalErr
	}
	if e.halted {
		return fmt.Errorf("halt() called during final pass")
	}
	if e.depth != 0 {
		return fmt.Errorf("scope stack depth is %d after evaluation; pushscope and popscope are unbalanced", e.depth)
	}
	return nil
}

// runPass pushes a fresh per-pass frame and walks the tree once.
func (e *Engine) runPass(root *parse.NodeSet) {
	e.frames.Push(map[stmtKey]bool{})
	e.Curr = e.Root
	e.depth = 0
	e.evalSet(root)
	e.frames.Pop()
}

// evalSet descends into the instance's children in body order, then runs the
// production's own semantic program. Children-first ordering is what lets a
// pushscope buried in a head production take effect before the siblings that
// emit into the new scope, with the production that owns them closing it
// afterwards; attribute flows that need the parent first simply resolve on a
// later pass.
func (e *Engine) evalSet(ns *parse.NodeSet) {
	if ns == nil || e.halted || e.evalErr != nil {
		return
	}
	for _, node := range ns.Nodes {
		if node.Child != nil {
			e.evalSet(node.Child)
		}
	}
	if ns.Prod.Annot != nil {
		ev := &evaluator{e: e, ns: ns, cur: ns.Prod.Annot}
		ev.statements(Test{Evaluated: true, Result: true})
	}
}

// stmtOnce reports whether the statement identified by (ns, tok) already ran
// in the current pass, marking it as run.
func (e *Engine) stmtOnce(ns *parse.NodeSet, tok *lex.Token) bool {
	frame := e.frames.Peek()
	key := stmtKey{ns: ns, tok: tok}
	if frame[key] {
		return true
	}
	frame[key] = true
	return false
}

// onceEver reports whether the action identified by (ns, tok) has already
// fired in any pass. When it has not, the caller is expected to fire it and
// record the result with recordFired.
func (e *Engine) onceEver(ns *parse.NodeSet, tok *lex.Token) (*Value, bool) {
	v, ok := e.fired[stmtKey{ns: ns, tok: tok}]
	return v, ok
}

// recordFired records an action's at-most-once execution and its result.
func (e *Engine) recordFired(ns *parse.NodeSet, tok *lex.Token, v *Value) {
	e.fired[stmtKey{ns: ns, tok: tok}] = v
	e.changed = true
}

// getAttr reads an attribute from a map set, trying the inherited map first
// and falling back to synthesized.
func getAttr(in, syn map[string]any, name string) Value {
	if in != nil {
		if v, ok := in[name]; ok {
			return v.(Value)
		}
	}
	if syn != nil {
		if v, ok := syn[name]; ok {
			return v.(Value)
		}
	}
	return NotEval()
}

// setAttr stores an attribute value into the map, allocating it on first
// use. Null and not-evaluated values are not stored; a store of a new name
// marks the pass as changed.
func (e *Engine) setAttr(m *map[string]any, name string, v Value) {
	if v.Kind == NotEvaluated || v.Kind == Null {
		return
	}
	if *m == nil {
		*m = map[string]any{}
	}
	if _, ok := (*m)[name]; !ok {
		e.changed = true
	}
	(*m)[name] = v
}

// semError attaches a semantics diagnostic to the listing at the token's
// line.
func (e *Engine) semError(tok *lex.Token, message string) {
	if tok == nil {
		return
	}
	e.Listing.AddError(tok.Line,
		fmt.Sprintf("Semantics Error at line %d: %s at token %s", tok.Line, message, tok.Lexeme))
}

// typeError reports an operand type problem. It only lands on the listing
// during the final pass, since earlier passes may be operating on attributes
// that are not evaluated yet. Not every semantic diagnostic waits like this:
// redeclarations and invalid ranges are attached on the pass that detects
// them, and the listing drops repeats.
func (e *Engine) typeError(tok *lex.Token, message string) {
	if e.final {
		e.semError(tok, message)
	}
}

// newTemp yields a fresh _tN name, memoized by statement identity so that
// repeated evaluation in later passes returns the same name.
func (e *Engine) newTemp(ns *parse.NodeSet, tok *lex.Token) Value {
	if v, ok := e.onceEver(ns, tok); ok {
		return *v
	}
	v := Value{Kind: Temp, S: "_t" + strconv.Itoa(e.tempCount), Tok: tok}
	e.tempCount++
	e.recordFired(ns, tok, &v)
	return v
}

// newLabel yields a fresh _LN name, memoized like newTemp.
func (e *Engine) newLabel(ns *parse.NodeSet, tok *lex.Token) Value {
	if v, ok := e.onceEver(ns, tok); ok {
		return *v
	}
	v := Value{Kind: Label, S: "_L" + strconv.Itoa(e.labelCount), Tok: tok}
	e.labelCount++
	e.recordFired(ns, tok, &v)
	return v
}

// typeOfToken maps a matched source token to its value for the .type
// suffix and the gettype action: the declared type of a known identifier,
// the canonical operator text of an operator token, the type names
// themselves, or a plain identifier value.
func (e *Engine) typeOfToken(tok *lex.Token) Value {
	if sym := e.Curr.Lookup(tok.Lexeme); sym != nil {
		v := sym.Type
		v.Tok = tok
		return v
	}

	opTexts := map[string][]string{
		"addop": {"+", "-", "OR"},
		"mulop": {"*", "/", "AND"},
		"relop": {"=", "<>", "<", "<=", ">=", ">"},
	}
	for _, name := range []string{"addop", "mulop", "relop"} {
		if m := e.Lexer.MatchMachine(name, tok.Lexeme); m.Matched {
			if texts := opTexts[name]; m.Attribute >= 0 && m.Attribute < len(texts) {
				return Value{Kind: Code, S: "'" + texts[m.Attribute] + "'", Tok: tok}
			}
		}
	}

	switch tok.SType {
	case "integer":
		return Value{Kind: Ident, S: "integer", Tok: tok}
	case "real":
		return Value{Kind: Ident, S: "real", Tok: tok}
	}
	switch tok.Lexeme {
	case "integer", "real":
		return Value{Kind: Ident, S: tok.Lexeme, Tok: tok}
	}
	return Value{Kind: Ident, S: tok.Lexeme, Tok: tok}
}
