package sem

import (
	"fmt"
	"strconv"

	"github.com/dekarrin/pike/internal/lex"
	"github.com/dekarrin/pike/internal/parse"
)

// evaluator interprets the semantic program of one production instance. It
// is a recursive descent over the annotation token stream; evaluation is
// guarded so that statements under an undecided or false condition are still
// parsed but take no effect.
type evaluator struct {
	e   *Engine
	ns  *parse.NodeSet
	cur *lex.Token
	err error

	anchorTok *lex.Token
}

func (ev *evaluator) next() {
	if ev.cur != nil {
		ev.cur = ev.cur.Next
	}
}

func (ev *evaluator) kind() uint16 {
	if ev.cur == nil {
		return lex.KindEOF
	}
	return ev.cur.Kind
}

// fail records an annotation syntax error. Annotation programs are part of
// the grammar spec, so these are hard errors that abort evaluation.
func (ev *evaluator) fail(expected string) {
	if ev.err != nil {
		return
	}
	got := "end of annotation"
	line := 0
	if ev.cur != nil {
		got = fmt.Sprintf("%q", ev.cur.Lexeme)
		line = ev.cur.Line
	}
	ev.err = fmt.Errorf("annotation line %d: expected %s but got %s", line, expected, got)
	ev.e.evalErr = ev.err
}

func (ev *evaluator) match(kind uint16) bool {
	if ev.kind() == kind {
		ev.next()
		return true
	}
	ev.fail(fmt.Sprintf("token kind %d", kind))
	return false
}

// anchor is the token diagnostics attach to when a value has no better
// source position: the first matched terminal of the instance.
func (ev *evaluator) anchor() *lex.Token {
	if ev.anchorTok != nil {
		return ev.anchorTok
	}
	ev.anchorTok = firstMatched(ev.ns)
	if ev.anchorTok == nil {
		ev.anchorTok = ev.ns.PDA.NTerm
	}
	return ev.anchorTok
}

func firstMatched(ns *parse.NodeSet) *lex.Token {
	if ns == nil {
		return nil
	}
	for _, n := range ns.Nodes {
		if n.Tok != nil {
			return n.Tok
		}
		if n.Child != nil {
			if tok := firstMatched(n.Child); tok != nil {
				return tok
			}
		}
	}
	return nil
}

// statements runs statement after statement until a closer token.
func (ev *evaluator) statements(evaluate Test) {
	for ev.err == nil {
		switch ev.kind() {
		case semIf, semNonterm, semID:
			ev.statement(evaluate)
		case semEnd, semElse, semElif, lex.KindEOF:
			return
		default:
			ev.fail("'if', nonterminal, identifier, 'end', 'else', 'elif', or $")
			return
		}
	}
}

// statement handles one of the three statement forms: an attribute
// assignment, a conditional, or a built-in action call.
func (ev *evaluator) statement(evaluate Test) {
	switch ev.kind() {
	case semNonterm:
		ntermTok := ev.cur
		ev.next()
		suffix := ev.idSuffix(evaluate.Evaluated && evaluate.Result)
		ev.match(semAssignOp)
		value := ev.expression(evaluate.Evaluated && evaluate.Result)

		if evaluate.Evaluated && evaluate.Result && value.Kind != NotEvaluated {
			if ntermTok.Lexeme == ev.ns.PDA.NTerm.Lexeme && !suffix.indexSet {
				ev.e.setAttr(&ev.ns.Owner.Syn, suffix.dotID, value)
			} else if node := ev.ns.Token(ntermTok.Lexeme, suffix.index); node != nil {
				ev.e.setAttr(&node.In, suffix.dotID, value)
			}
		}

	case semIf:
		ev.next()
		cond := ev.expression(evaluate.Evaluated && evaluate.Result)
		ev.match(semThen)
		test := TestOf(cond)
		ev.statements(Test{
			Evaluated: test.Evaluated && evaluate.Evaluated,
			Result:    test.Result && evaluate.Result,
		})
		evaluate.Evaluated = evaluate.Evaluated && test.Evaluated
		ev.elsePart(evaluate, test.Result)

	case semID:
		callTok := ev.cur
		name := callTok.Lexeme
		ev.next()
		ev.match(semOpenParen)
		params := ev.paramList(evaluate.Evaluated && evaluate.Result)
		ev.match(semCloseParen)
		if evaluate.Evaluated && evaluate.Result && params.ready && !ev.e.stmtOnce(ev.ns, callTok) {
			ev.callAction(name, callTok, params, true)
		}

	default:
		ev.fail("nonterminal, 'if', or identifier")
	}
}

// elsePart closes a conditional: an else branch, a chained elif, or a bare
// end.
func (ev *evaluator) elsePart(evaluate Test, elprev bool) {
	switch ev.kind() {
	case semElse:
		ev.next()
		ev.statements(Test{
			Evaluated: evaluate.Evaluated && evaluate.Result,
			Result:    !elprev,
		})
		ev.match(semEnd)
	case semEnd:
		ev.next()
	case semElif:
		ev.elifPart(evaluate, elprev)
	default:
		ev.fail("'else', 'elif', or 'end'")
	}
}

func (ev *evaluator) elifPart(evaluate Test, elprev bool) {
	ev.match(semElif)
	cond := ev.expression(evaluate.Evaluated && evaluate.Result)
	ev.match(semThen)
	test := TestOf(cond)
	ev.statements(Test{
		Evaluated: test.Evaluated && evaluate.Evaluated,
		Result:    evaluate.Result && test.Result && !elprev,
	})
	ev.elsePart(Test{
		Evaluated: test.Evaluated && evaluate.Evaluated,
		Result:    evaluate.Result,
	}, test.Result || elprev)
}

// expression is `simple ( relop simple )?`.
func (ev *evaluator) expression(eval bool) Value {
	simple := ev.simpleExpression(eval)
	op, rhs := ev.expressionTail(eval)
	result := ev.e.Op(ev.anchor(), simple, rhs, op)
	if result.Tok == nil {
		result.Tok = simple.Tok
	}
	return result
}

func (ev *evaluator) expressionTail(eval bool) (int, Value) {
	switch ev.kind() {
	case semRelop:
		op := toRelop(ev.cur.Attr)
		ev.next()
		return op, ev.simpleExpression(eval)
	case semComma, semEnd, semElse, semThen, semIf, semNonterm, semCloseParen,
		semCloseBracket, semID, semElif, lex.KindEOF:
		return OpNop, Value{Kind: Void}
	default:
		ev.fail("relop or end of expression")
		return OpNop, Value{Kind: Void}
	}
}

// simpleExpression is `('+'|'-')? term ( addop term )*`.
func (ev *evaluator) simpleExpression(eval bool) Value {
	switch ev.kind() {
	case semAddOp:
		neg := ev.cur.Attr == attSub
		ev.next()
		value := ev.simpleExpression(eval)
		if neg {
			value = ev.e.Negate(value)
		}
		return value
	case semNot, semNum, semID, semNonterm, semOpenParen, lex.KindCode:
		accum := ev.term(eval)
		ev.simpleExpressionTail(&accum, eval)
		return accum
	default:
		ev.fail("'+', '-', 'not', number, identifier, nonterminal, '(', or code literal")
		return Value{Kind: ErrorVal}
	}
}

func (ev *evaluator) simpleExpressionTail(accum *Value, eval bool) {
	switch ev.kind() {
	case semAddOp:
		op := toAddop(ev.cur.Attr)
		ev.next()
		t := ev.term(eval)
		*accum = ev.e.Op(ev.anchor(), *accum, t, op)
		ev.simpleExpressionTail(accum, eval)
	case semComma, semRelop, semEnd, semElse, semThen, semIf, semNonterm,
		semCloseParen, semCloseBracket, semID, semElif, lex.KindEOF:
		// end of the additive chain
	default:
		ev.fail("addop or end of expression")
	}
}

// term is `factor ( mulop factor )*`.
func (ev *evaluator) term(eval bool) Value {
	accum := ev.factor(eval)
	ev.termTail(&accum, eval)
	return accum
}

func (ev *evaluator) termTail(accum *Value, eval bool) {
	switch ev.kind() {
	case semMulOp:
		op := toMulop(ev.cur.Attr)
		ev.next()
		f := ev.factor(eval)
		*accum = ev.e.Op(ev.anchor(), *accum, f, op)
		ev.termTail(accum, eval)
	case semComma, semAddOp, semRelop, semEnd, semElse, semThen, semIf,
		semNonterm, semCloseParen, semCloseBracket, semID, semElif, lex.KindEOF:
		// end of the multiplicative chain
	default:
		ev.fail("mulop or end of expression")
	}
}

// factor handles numbers, code literals, identifier references with all of
// their suffix forms, parenthesized subexpressions, and logical not.
func (ev *evaluator) factor(eval bool) Value {
	switch ev.kind() {
	case semID:
		idTok := ev.cur
		ev.next()
		suffix := ev.idSuffix(eval)
		return ev.idFactor(idTok, suffix, eval)

	case semNonterm:
		ntermTok := ev.cur
		ev.next()
		suffix := ev.idSuffix(eval)
		if suffix.dotID == "" {
			return Value{Kind: Ident, S: ntermTok.Lexeme, Tok: ntermTok}
		}
		if ntermTok.Lexeme == ev.ns.PDA.NTerm.Lexeme && !suffix.indexSet {
			v := getAttr(ev.ns.Owner.In, ev.ns.Owner.Syn, suffix.dotID)
			if v.Tok == nil {
				v.Tok = ev.anchor()
			}
			return v
		}
		node := ev.ns.Token(ntermTok.Lexeme, suffix.index)
		if node == nil {
			return NotEval()
		}
		v := getAttr(nil, node.Syn, suffix.dotID)
		if v.Kind == NotEvaluated {
			v = getAttr(node.In, nil, suffix.dotID)
		}
		return v

	case semNum:
		tok := ev.cur
		ev.next()
		if tok.Attr == 0 {
			i, _ := strconv.ParseInt(tok.Lexeme, 10, 64)
			return Value{Kind: Int, I: i, Tok: ev.anchor()}
		}
		r, _ := strconv.ParseFloat(tok.Lexeme, 64)
		return Value{Kind: Real, R: r, Tok: ev.anchor()}

	case lex.KindCode:
		tok := ev.cur
		ev.next()
		return Value{Kind: Code, S: tok.Lexeme, Tok: ev.anchor()}

	case semNot:
		ev.next()
		return ev.e.Not(ev.factor(eval))

	case semOpenParen:
		ev.next()
		v := ev.expression(eval)
		ev.match(semCloseParen)
		return v

	default:
		ev.fail("identifier, nonterminal, number, code literal, 'not', or '('")
		return Value{Kind: ErrorVal}
	}
}

// idFactor resolves an identifier factor once its suffix is known: a
// parse-node access via .entry/.val/.type, a built-in call, one of the
// special names, or the identifier itself as a value.
func (ev *evaluator) idFactor(idTok *lex.Token, suffix idSuffix, eval bool) Value {
	if suffix.dotID != "" {
		switch suffix.dotID {
		case "entry":
			node := ev.ns.Token(idTok.Lexeme, suffix.index)
			if node == nil || !node.Matched || node.Tok == nil {
				return NotEval()
			}
			if suffix.rng.isSet {
				return ev.rangeValue(node, suffix, eval)
			}
			return Value{Kind: Ident, S: node.Tok.Lexeme, Tok: node.Tok}

		case "val":
			node := ev.ns.Token(idTok.Lexeme, suffix.index)
			if node == nil || !node.Matched || node.Tok == nil {
				return NotEval()
			}
			if suffix.rng.isSet {
				return ev.rangeValue(node, suffix, eval)
			}
			switch node.Tok.SType {
			case "integer":
				i, _ := strconv.ParseInt(node.Tok.Lexeme, 10, 64)
				return Value{Kind: Int, I: i, Tok: node.Tok}
			case "real":
				r, _ := strconv.ParseFloat(node.Tok.Lexeme, 64)
				return Value{Kind: Real, R: r, Tok: node.Tok}
			default:
				return Value{Kind: Null, Tok: node.Tok}
			}

		case "type":
			node := ev.ns.Token(idTok.Lexeme, 1)
			if node == nil || !node.Matched || node.Tok == nil {
				return NotEval()
			}
			return ev.e.typeOfToken(node.Tok)

		default:
			return Value{Kind: Ident, S: idTok.Lexeme, Tok: idTok}
		}
	}

	if suffix.hasParams {
		if !suffix.params.ready || !eval {
			return NotEval()
		}
		v := ev.callAction(idTok.Lexeme, idTok, suffix.params, eval)
		if v.Tok == nil {
			v.Tok = ev.anchor()
		}
		return v
	}

	switch idTok.Lexeme {
	case "null":
		return Value{Kind: Null, S: "null", Tok: ev.anchor()}
	case "void":
		return Value{Kind: Void, S: "void", Tok: ev.anchor()}
	case "newtemp":
		return ev.e.newTemp(ev.ns, idTok)
	case "newlabel":
		return ev.e.newLabel(ev.ns, idTok)
	default:
		return Value{Kind: Ident, S: idTok.Lexeme, Tok: ev.anchor()}
	}
}

// rangeValue builds a range value from a matched low-bound token and the
// resolved upper bound of a `..` suffix.
func (ev *evaluator) rangeValue(node *parse.Node, suffix idSuffix, eval bool) Value {
	if !suffix.rng.isReady {
		return NotEval()
	}
	low, _ := strconv.ParseInt(node.Tok.Lexeme, 10, 64)
	v := Value{Kind: Range, Low: low, High: suffix.rng.value, Tok: node.Tok}
	if eval && v.High-v.Low < 0 {
		ev.e.semError(node.Tok, "Invalid array range. Upper bound is less than lower bound.")
	}
	return v
}

// idSuffix is everything that can trail an identifier reference: an index,
// an attribute access with an optional range, or a parameter list.
type idSuffix struct {
	indexSet bool
	index    int
	dotID    string
	rng      rangeSuffix
	hasParams bool
	params    paramsRes
}

type rangeSuffix struct {
	isSet   bool
	isReady bool
	value   int64
}

func (ev *evaluator) idSuffix(eval bool) idSuffix {
	var suffix idSuffix
	suffix.index = 1

	switch ev.kind() {
	case semOpenParen:
		ev.next()
		suffix.hasParams = true
		suffix.params = ev.paramList(eval)
		ev.match(semCloseParen)
		return suffix

	case semOpenBracket:
		ev.next()
		idx := ev.expression(eval)
		ev.match(semCloseBracket)
		suffix.indexSet = true
		if idx.Kind == Int && idx.I >= 1 {
			suffix.index = int(idx.I)
		}
		suffix.dotID, suffix.rng = ev.dotSuffix(eval)
		return suffix

	case semNum:
		// bare index form
		idx, _ := strconv.Atoi(ev.cur.Lexeme)
		ev.next()
		suffix.indexSet = true
		if idx >= 1 {
			suffix.index = idx
		}
		suffix.dotID, suffix.rng = ev.dotSuffix(eval)
		return suffix

	default:
		suffix.dotID, suffix.rng = ev.dotSuffix(eval)
		return suffix
	}
}

// dotSuffix reads `.attr` and its optional `..id[n].id` range tail.
func (ev *evaluator) dotSuffix(eval bool) (string, rangeSuffix) {
	if ev.kind() != semDot {
		return "", rangeSuffix{isReady: true, value: 1}
	}
	ev.next()
	if ev.kind() != semID {
		ev.fail("attribute name")
		return "", rangeSuffix{}
	}
	id := ev.cur.Lexeme
	ev.next()
	return id, ev.rangeTail(eval)
}

// rangeTail reads `..id[n].id`, resolving the upper bound through the
// current instance's matched tokens.
func (ev *evaluator) rangeTail(eval bool) rangeSuffix {
	if ev.kind() != semDot {
		return rangeSuffix{isReady: true, value: 1}
	}
	ev.next()
	ev.match(semDot)
	if ev.kind() != semID {
		ev.fail("identifier")
		return rangeSuffix{}
	}
	boundSym := ev.cur.Lexeme
	ev.next()
	ev.match(semOpenBracket)
	index := 1
	if ev.kind() == semNum {
		index, _ = strconv.Atoi(ev.cur.Lexeme)
	}
	ev.match(semNum)
	ev.match(semCloseBracket)
	ev.match(semDot)
	if ev.kind() != semID {
		ev.fail("identifier")
		return rangeSuffix{}
	}
	ev.next()

	rng := rangeSuffix{isSet: true}
	if node := ev.ns.Token(boundSym, index); node != nil && node.Matched && node.Tok != nil {
		rng.value, _ = strconv.ParseInt(node.Tok.Lexeme, 10, 64)
		rng.isReady = true
	}
	return rng
}

// paramsRes is a parsed actual-parameter list. It is ready only when every
// parameter evaluated to a usable value.
type paramsRes struct {
	ready bool
	vals  []Value
}

func (ev *evaluator) paramList(eval bool) paramsRes {
	params := paramsRes{ready: true}
	switch ev.kind() {
	case semAddOp, lex.KindCode, semNot, semNum, semOpenParen, semID, semNonterm:
		v := ev.expression(eval)
		if v.Kind == NotEvaluated || v.Kind == Null {
			params.ready = false
		} else {
			params.vals = append(params.vals, v)
		}
		ev.paramListTail(&params, eval)
	case semCloseParen:
		// empty list
	default:
		ev.fail("parameter or ')'")
	}
	return params
}

func (ev *evaluator) paramListTail(params *paramsRes, eval bool) {
	for ev.err == nil && ev.kind() == semComma {
		ev.next()
		v := ev.expression(eval)
		if v.Kind == NotEvaluated || v.Kind == Null {
			params.ready = false
		} else if params.ready {
			params.vals = append(params.vals, v)
		}
	}
	if ev.err == nil && ev.kind() != semCloseParen {
		ev.fail("',' or ')'")
	}
}

func toAddop(att int) int {
	switch att {
	case attAdd:
		return OpAdd
	case attSub:
		return OpSub
	default:
		return OpOr
	}
}

func toMulop(att int) int {
	switch att {
	case attMult:
		return OpMult
	case attDiv:
		return OpDiv
	default:
		return OpAnd
	}
}

func toRelop(att int) int {
	switch att {
	case attEq:
		return OpEq
	case attNe:
		return OpNe
	case attLess:
		return OpLess
	case attLessEq:
		return OpLessEq
	case attGreaterEq:
		return OpGreaterEq
	default:
		return OpGreater
	}
}
