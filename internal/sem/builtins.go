package sem

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dekarrin/pike/internal/lex"
	"github.com/dekarrin/pike/internal/util"
)

// actionID tags each built-in action so dispatch is an exhaustive switch.
// The name table exists only for parsing.
type actionID int

const (
	actAddArg actionID = iota
	actAddType
	actArray
	actEmit
	actError
	actGetArray
	actGetType
	actHalt
	actListAppend
	actLookup
	actLow
	actMakeListA
	actMakeListF
	actPopScope
	actPrint
	actPushScope
	actResetTemps
	actResolveProc
	actWidth
)

// actionTable maps built-in names to their tags. It must stay alphabetized;
// lookup is a case-insensitive binary search.
var actionTable = []struct {
	name string
	id   actionID
}{
	{"addarg", actAddArg},
	{"addtype", actAddType},
	{"array", actArray},
	{"emit", actEmit},
	{"error", actError},
	{"getarray", actGetArray},
	{"gettype", actGetType},
	{"halt", actHalt},
	{"listappend", actListAppend},
	{"lookup", actLookup},
	{"low", actLow},
	{"makelista", actMakeListA},
	{"makelistf", actMakeListF},
	{"popscope", actPopScope},
	{"print", actPrint},
	{"pushscope", actPushScope},
	{"resettemps", actResetTemps},
	{"resolveproc", actResolveProc},
	{"width", actWidth},
}

// findAction resolves a built-in name, case-insensitively.
func findAction(name string) (actionID, bool) {
	name = strings.ToLower(name)
	i := sort.Search(len(actionTable), func(i int) bool {
		return actionTable[i].name >= name
	})
	if i < len(actionTable) && actionTable[i].name == name {
		return actionTable[i].id, true
	}
	return 0, false
}

// callAction dispatches one built-in call. Mutating actions consult the
// engine's memoization so that they fire at most once per statement identity
// over the full multi-pass run.
func (ev *evaluator) callAction(name string, callTok *lex.Token, params paramsRes, eval bool) Value {
	id, ok := findAction(name)
	if !ok {
		ev.fail(fmt.Sprintf("call of undefined function %q", name))
		return Value{Kind: ErrorVal}
	}
	if !params.ready || !eval {
		return NotEval()
	}

	switch id {
	case actAddType:
		return ev.actDeclare(callTok, params, true)
	case actAddArg:
		return ev.actDeclare(callTok, params, false)
	case actArray:
		return ev.actArray(params)
	case actEmit:
		return ev.actEmit(callTok, params)
	case actError:
		return ev.actError(callTok, params)
	case actGetArray:
		return ev.actGetArray(params)
	case actGetType:
		return ev.actGetType(params)
	case actHalt:
		ev.e.halted = true
		return Value{Kind: Void}
	case actListAppend:
		return ev.actListAppend(callTok, params)
	case actLookup:
		return ev.actLookup(params)
	case actLow:
		return ev.actLow(params)
	case actMakeListA:
		return ev.actMakeList(callTok, params, ActualArgs)
	case actMakeListF:
		return ev.actMakeList(callTok, params, FormalArgs)
	case actPopScope:
		ev.e.popScope()
		return Value{Kind: Void}
	case actPrint:
		for i := range params.vals {
			if i > 0 {
				fmt.Fprint(ev.e.Debug, " ")
			}
			fmt.Fprint(ev.e.Debug, params.vals[i].String())
		}
		fmt.Fprintln(ev.e.Debug)
		return Value{Kind: Void}
	case actPushScope:
		return ev.actPushScope(callTok, params)
	case actResetTemps:
		ev.e.tempCount = 0
		return Value{Kind: Void}
	case actResolveProc:
		return ev.actResolveProc(params)
	case actWidth:
		return ev.actWidth(params)
	default:
		return Value{Kind: ErrorVal}
	}
}

// resolveIDParam resolves a parameter naming a grammar symbol to the actual
// matched identifier: its text and its source token. A parameter that names
// no symbol of the instance is taken literally.
func (ev *evaluator) resolveIDParam(v Value) (string, *lex.Token, bool) {
	if node := ev.ns.Token(v.S, 1); node != nil {
		if !node.Matched || node.Tok == nil {
			return "", nil, false
		}
		return node.Tok.Lexeme, node.Tok, true
	}
	return v.S, v.Tok, v.S != ""
}

// concreteType reports whether a declared type is usable for redeclaration
// checking.
func concreteType(v Value) bool {
	return v.Kind != Null && v.Kind != NotEvaluated
}

// actDeclare implements addtype and addarg: declare the identifier in the
// current scope with the given type, erroring if it is already declared with
// a concrete type. addarg marks the symbol as a formal parameter instead of
// a variable.
func (ev *evaluator) actDeclare(callTok *lex.Token, params paramsRes, isVar bool) Value {
	e := ev.e
	if _, done := e.onceEver(ev.ns, callTok); done {
		return Value{Kind: Void}
	}
	if len(params.vals) < 2 {
		ev.fail("two arguments to addtype/addarg")
		return Value{Kind: ErrorVal}
	}
	idVal, typeVal := params.vals[0], params.vals[1]
	name, tok, ok := ev.resolveIDParam(idVal)
	if !ok {
		return NotEval()
	}

	if existing := e.Curr.Local(name); existing != nil && concreteType(existing.Type) {
		e.semError(tok, "Redeclaration of identifier")
		e.recordFired(ev.ns, callTok, nil)
		return Value{Kind: Void}
	}
	e.Curr.Declare(name, typeVal, tok, isVar)
	if concreteType(typeVal) {
		e.recordFired(ev.ns, callTok, nil)
	}
	return Value{Kind: Void}
}

// actLookup implements lookup: the declared type of the identifier, or null
// when it is not in any reachable scope. On the final pass an absent
// identifier is an error.
func (ev *evaluator) actLookup(params paramsRes) Value {
	e := ev.e
	if len(params.vals) < 1 {
		ev.fail("one argument to lookup")
		return Value{Kind: ErrorVal}
	}
	name, tok, ok := ev.resolveIDParam(params.vals[0])
	if !ok {
		return NotEval()
	}
	sym := e.Curr.Lookup(name)
	if sym == nil || !concreteType(sym.Type) {
		if e.final {
			e.semError(tok, "undeclared identifier")
		}
		return Value{Kind: Null, Tok: tok}
	}
	v := sym.Type
	v.Tok = tok
	return v
}

// actGetType implements gettype: the type value of the symbol's matched
// token, dispatched through the lexer's type machines.
func (ev *evaluator) actGetType(params paramsRes) Value {
	if len(params.vals) < 1 {
		ev.fail("one argument to gettype")
		return Value{Kind: ErrorVal}
	}
	name, tok, ok := ev.resolveIDParam(params.vals[0])
	if !ok {
		return NotEval()
	}
	if tok != nil && tok.SType == "" {
		// token carries no structural type; classify the text itself
		_, stype := ev.e.Lexer.GetType(name)
		probe := *tok
		probe.SType = stype
		return ev.e.typeOfToken(&probe)
	}
	if tok == nil {
		tok = &lex.Token{Lexeme: name}
	}
	return ev.e.typeOfToken(tok)
}

// actGetArray implements getarray: the element type of an identifier that
// must be declared as an array.
func (ev *evaluator) actGetArray(params paramsRes) Value {
	e := ev.e
	if len(params.vals) < 1 {
		ev.fail("one argument to getarray")
		return Value{Kind: ErrorVal}
	}
	name, tok, ok := ev.resolveIDParam(params.vals[0])
	if !ok {
		return NotEval()
	}
	sym := e.Curr.Lookup(name)
	if sym == nil || !concreteType(sym.Type) {
		if e.final {
			e.semError(tok, "undeclared identifier")
		}
		return Value{Kind: Null, Tok: tok}
	}
	if sym.Type.Kind != Array {
		if e.final {
			e.semError(tok, "attempt to index non-array identifier")
		}
		return Value{Kind: Null, Tok: tok}
	}
	return Value{Kind: Ident, S: sym.Type.S, Tok: tok}
}

// actArray implements array: construct an array type from an element type
// and a range.
func (ev *evaluator) actArray(params paramsRes) Value {
	if len(params.vals) < 2 {
		ev.fail("two arguments to array")
		return Value{Kind: ErrorVal}
	}
	elem, rng := params.vals[0], params.vals[1]
	if rng.Kind != Range {
		return NotEval()
	}
	return Value{Kind: Array, S: elem.S, Low: rng.Low, High: rng.High, Tok: elem.Tok}
}

// widthOfType is the storage width of a declared type in TAC address units.
func widthOfType(v Value) int64 {
	switch v.Kind {
	case Array:
		elem := int64(4)
		if v.S == "real" {
			elem = 8
		}
		return (v.High - v.Low + 1) * elem
	case Ident:
		if v.S == "real" {
			return 8
		}
		return 4
	default:
		return 4
	}
}

// actWidth implements width: the storage width of the identifier's declared
// type.
func (ev *evaluator) actWidth(params paramsRes) Value {
	if len(params.vals) < 1 {
		ev.fail("one argument to width")
		return Value{Kind: ErrorVal}
	}
	name, tok, ok := ev.resolveIDParam(params.vals[0])
	if !ok {
		return NotEval()
	}
	sym := ev.e.Curr.Lookup(name)
	if sym == nil || !concreteType(sym.Type) {
		return Value{Kind: Null, Tok: tok}
	}
	return Value{Kind: Int, I: widthOfType(sym.Type), Tok: tok}
}

// actLow implements low: the lower bound of an array declaration, zero for
// non-arrays, null for unknown identifiers.
func (ev *evaluator) actLow(params paramsRes) Value {
	if len(params.vals) < 1 {
		ev.fail("one argument to low")
		return Value{Kind: ErrorVal}
	}
	name, tok, ok := ev.resolveIDParam(params.vals[0])
	if !ok {
		return NotEval()
	}
	sym := ev.e.Curr.Lookup(name)
	if sym == nil || !concreteType(sym.Type) {
		return Value{Kind: Null, Tok: tok}
	}
	if sym.Type.Kind == Array {
		return Value{Kind: Int, I: sym.Type.Low, Tok: tok}
	}
	return Value{Kind: Int, I: 0, Tok: tok}
}

// actMakeList implements makelistf and makelista: start an argument list
// queue containing the one value. The constructed list is memoized so every
// pass sees the same queue.
func (ev *evaluator) actMakeList(callTok *lex.Token, params paramsRes, kind VKind) Value {
	e := ev.e
	if prior, done := e.onceEver(ev.ns, callTok); done && prior != nil {
		return *prior
	}
	if len(params.vals) < 1 {
		ev.fail("one argument to makelistf/makelista")
		return Value{Kind: ErrorVal}
	}
	first := params.vals[0]
	list := Value{Kind: kind, List: newValueQueue(), Tok: first.Tok}
	list.List.Enqueue(&first)
	e.recordFired(ev.ns, callTok, &list)
	return list
}

// actListAppend implements listappend: append the value to the list's
// queue, at most once per statement identity.
func (ev *evaluator) actListAppend(callTok *lex.Token, params paramsRes) Value {
	e := ev.e
	if _, done := e.onceEver(ev.ns, callTok); done {
		return Value{Kind: Void}
	}
	if len(params.vals) < 2 {
		ev.fail("two arguments to listappend")
		return Value{Kind: ErrorVal}
	}
	list, arg := params.vals[0], params.vals[1]
	if list.Kind != FormalArgs && list.Kind != ActualArgs {
		ev.e.typeError(list.Tok, "listappend on a non-list value")
		return Value{Kind: ErrorVal}
	}
	arg2 := arg
	list.List.Enqueue(&arg2)
	e.recordFired(ev.ns, callTok, nil)
	return Value{Kind: Void}
}

// actPushScope implements pushscope: enter a child scope named by the
// parameter, computing its fully qualified label. The scope is created at
// most once; later passes re-enter the same scope so that emission that
// only becomes ready later still lands in the right code listing.
func (ev *evaluator) actPushScope(callTok *lex.Token, params paramsRes) Value {
	e := ev.e
	if len(params.vals) < 1 {
		ev.fail("one argument to pushscope")
		return Value{Kind: ErrorVal}
	}
	name, tok, ok := ev.resolveIDParam(params.vals[0])
	if !ok {
		return NotEval()
	}

	key := stmtKey{ns: ev.ns, tok: callTok}
	if sc, done := e.scopes[key]; done {
		e.Curr = sc
		e.depth++
		return Value{Kind: Void}
	}

	if existing := e.Curr.Local(name); existing != nil && concreteType(existing.Type) {
		e.semError(tok, "Redeclaration of identifier as procedure")
	}
	sc := e.pushScope(name)
	e.scopes[key] = sc
	e.changed = true
	return Value{Kind: Void}
}

// actResolveProc implements resolveproc: look up a procedure scope and
// substitute its fully qualified label.
func (ev *evaluator) actResolveProc(params paramsRes) Value {
	if len(params.vals) < 1 {
		ev.fail("one argument to resolveproc")
		return Value{Kind: ErrorVal}
	}
	name, _, ok := ev.resolveIDParam(params.vals[0])
	if !ok {
		return NotEval()
	}
	sc := ev.e.Curr.FindProc(name)
	if sc == nil {
		return Value{Kind: Null}
	}
	v := params.vals[0]
	v.S = sc.FullID
	return v
}

// actEmit implements emit: append one TAC line to the current scope's code
// listing, at most once per statement identity. The first-argument keywords
// labelf and label control labeling: labelf substitutes the active scope
// label for the next name argument, and label keeps the line unindented.
// Lines starting with either keyword begin at column zero; every other line
// is indented.
func (ev *evaluator) actEmit(callTok *lex.Token, params paramsRes) Value {
	e := ev.e
	if _, done := e.onceEver(ev.ns, callTok); done {
		return Value{Kind: Void}
	}

	var line strings.Builder
	gotFirst := false
	labelfPending := false
	for i := range params.vals {
		v := params.vals[i]
		if !gotFirst {
			gotFirst = true
			if v.Kind == Ident && v.S == "labelf" {
				labelfPending = true
				continue
			}
			if v.Kind == Ident && v.S == "label" {
				continue
			}
			line.WriteString("\t")
		}

		switch v.Kind {
		case Code:
			text := v.S
			if len(text) >= 2 && text[0] == '\'' && text[len(text)-1] == '\'' {
				text = text[1 : len(text)-1]
			}
			line.WriteString(text)
		case Int, Real:
			line.WriteString(v.String())
		case Ident, Temp, Label:
			if labelfPending {
				line.WriteString(e.Curr.FullID)
				labelfPending = false
			} else {
				line.WriteString(v.S)
			}
		}
	}
	e.Curr.Code.AddLine(line.String())
	e.recordFired(ev.ns, callTok, nil)
	return Value{Kind: Void}
}

// actError implements error: attach the message to the identifier's source
// line, at most once per statement identity.
func (ev *evaluator) actError(callTok *lex.Token, params paramsRes) Value {
	e := ev.e
	if _, done := e.onceEver(ev.ns, callTok); done {
		return Value{Kind: Void}
	}
	if len(params.vals) < 2 {
		ev.fail("two arguments to error")
		return Value{Kind: ErrorVal}
	}
	idVal, msgVal := params.vals[0], params.vals[1]
	msg := strings.Trim(msgVal.S, "'")
	_, tok, ok := ev.resolveIDParam(idVal)
	if !ok || tok == nil {
		tok = ev.anchor()
	}
	e.semError(tok, msg)
	e.recordFired(ev.ns, callTok, nil)
	return Value{Kind: Void}
}

func newValueQueue() *util.Queue[*Value] {
	return &util.Queue[*Value]{}
}
