package sem

import (
	"fmt"
	"strconv"

	"github.com/dekarrin/pike/internal/lex"
	"github.com/dekarrin/pike/internal/util"
)

// VKind discriminates the shapes an attribute value can take.
type VKind int

const (
	Null VKind = iota
	Int
	Real
	Ident
	Code
	Range
	Array
	FormalArgs
	ActualArgs
	Temp
	Label
	Void
	NotEvaluated
	ErrorVal
)

func (k VKind) String() string {
	switch k {
	case Null:
		return "null"
	case Int:
		return "integer"
	case Real:
		return "real"
	case Ident:
		return "identifier"
	case Code:
		return "code"
	case Range:
		return "range"
	case Array:
		return "array"
	case FormalArgs:
		return "formal arg list"
	case ActualArgs:
		return "actual arg list"
	case Temp:
		return "temp"
	case Label:
		return "label"
	case Void:
		return "void"
	case NotEvaluated:
		return "not evaluated"
	default:
		return "error"
	}
}

// Value is one attribute value: a tagged variant over every shape the
// annotation language works with. Values keep a pointer back to the token
// that produced them so diagnostics can name a source position.
type Value struct {
	Kind VKind

	I int64
	R float64

	// S is the text of Ident, Code, Temp, and Label values, and the element
	// type name of Array values.
	S string

	// Low and High are the bounds of Range and Array values.
	Low  int64
	High int64

	// List is the queue behind FormalArgs and ActualArgs values.
	List *util.Queue[*Value]

	Tok *lex.Token
}

// Operator codes for Op.
const (
	OpNop = iota
	OpMult
	OpDiv
	OpAdd
	OpSub
	OpLess
	OpGreater
	OpLessEq
	OpGreaterEq
	OpEq
	OpNe
	OpOr
	OpAnd
)

// NotEval returns a fresh not-evaluated value.
func NotEval() Value {
	return Value{Kind: NotEvaluated}
}

// NullVal returns a fresh null value.
func NullVal() Value {
	return Value{Kind: Null}
}

// IntVal returns an integer value.
func IntVal(i int64) Value {
	return Value{Kind: Int, I: i}
}

// RealVal returns a real value.
func RealVal(r float64) Value {
	return Value{Kind: Real, R: r}
}

// IdentVal returns an identifier value.
func IdentVal(s string) Value {
	return Value{Kind: Ident, S: s}
}

// String renders the value for print() output and debugging.
func (v Value) String() string {
	switch v.Kind {
	case Int:
		return strconv.FormatInt(v.I, 10)
	case Real:
		return strconv.FormatFloat(v.R, 'f', -1, 64)
	case Ident, Code, Temp, Label:
		return v.S
	case Range:
		return fmt.Sprintf("%d..%d", v.Low, v.High)
	case Array:
		return fmt.Sprintf("array[%d..%d] of type %s", v.Low, v.High, v.S)
	case FormalArgs, ActualArgs:
		return "arg list"
	case Null:
		return "null"
	case Void:
		return "void"
	case NotEvaluated:
		return "not evaluated"
	default:
		return "error"
	}
}

// Num returns the value as a float64, coercing integers.
func (v Value) Num() float64 {
	if v.Kind == Int {
		return float64(v.I)
	}
	return v.R
}

// IsNumeric reports whether the value is an Int or Real.
func (v Value) IsNumeric() bool {
	return v.Kind == Int || v.Kind == Real
}

// isTexty reports whether the value compares by its text.
func (v Value) isTexty() bool {
	return v.Kind == Ident || v.Kind == Code || v.Kind == Void || v.Kind == Temp || v.Kind == Label
}

// Test classifies a value as a condition: whether it can be decided yet, and
// whether it is truthy.
type Test struct {
	Evaluated bool
	Result    bool
}

// TestOf evaluates a value as an if-condition. Null and not-evaluated values
// are undecidable; everything else is truthy when any of its numeric or text
// members is set.
func TestOf(v Value) Test {
	if v.Kind == NotEvaluated || v.Kind == Null {
		return Test{}
	}
	return Test{Evaluated: true, Result: v.I != 0 || v.R != 0 || v.S != ""}
}

// quoteEq compares a quoted code fragment to a bare string.
func quoteEq(code, bare string) bool {
	if len(code) >= 2 && code[0] == '\'' && code[len(code)-1] == '\'' {
		return code[1:len(code)-1] == bare
	}
	return code == bare
}

// textEq compares two texty values, unwrapping code quoting when exactly one
// side is a code literal.
func textEq(v1, v2 Value) bool {
	if v1.Kind == Code && v2.Kind != Code {
		return quoteEq(v1.S, v2.S)
	}
	if v2.Kind == Code && v1.Kind != Code {
		return quoteEq(v2.S, v1.S)
	}
	return v1.S == v2.S
}

// Op applies a binary operator to two values with implicit numeric coercion:
// int op real gives real. Comparing anything to null with = or <> is an
// explicit null test; any other operation involving null yields null, and any
// operation with a not-evaluated operand stays not evaluated. OpNop passes v1
// through unchanged, which also covers the code-literal operand shape.
func (e *Engine) Op(tok *lex.Token, v1, v2 Value, op int) Value {
	var result Value
	if op != OpNop {
		if v1.Kind == Null || v2.Kind == Null {
			if op == OpEq || op == OpNe {
				other := v2
				if v2.Kind == Null {
					other = v1
				}
				isNullish := other.Kind == Null || other.Kind == NotEvaluated
				result = IntVal(0)
				if (op == OpEq) == isNullish {
					result.I = 1
				}
				result.Tok = tok
				return result
			}
			if v1.Kind == NotEvaluated || v2.Kind == NotEvaluated {
				return Value{Kind: NotEvaluated, Tok: tok}
			}
			return Value{Kind: Null, Tok: tok}
		}
		if v1.Kind == NotEvaluated || v2.Kind == NotEvaluated {
			return Value{Kind: NotEvaluated, Tok: tok}
		}
	}

	switch op {
	case OpMult, OpDiv, OpAdd, OpSub:
		result = e.arith(tok, v1, v2, op)
	case OpLess, OpGreater, OpLessEq, OpGreaterEq:
		result = e.compare(tok, v1, v2, op)
	case OpEq, OpNe:
		result = e.equality(tok, v1, v2, op)
	case OpOr, OpAnd:
		if !v1.IsNumeric() || !v2.IsNumeric() {
			e.typeError(tok, "logical operator applied to non-numeric operand")
			return Value{Kind: ErrorVal, Tok: tok}
		}
		result = IntVal(0)
		a := v1.Num() != 0
		b := v2.Num() != 0
		if (op == OpOr && (a || b)) || (op == OpAnd && a && b) {
			result.I = 1
		}
	case OpNop:
		result = v1
	default:
		result = Value{Kind: ErrorVal}
	}
	result.Tok = tok
	return result
}

// arith performs +, -, *, /. Division of two integers truncates and the
// result is promoted to real.
func (e *Engine) arith(tok *lex.Token, v1, v2 Value, op int) Value {
	if !v1.IsNumeric() || !v2.IsNumeric() {
		e.typeError(tok, "arithmetic on non-numeric operand")
		return Value{Kind: ErrorVal}
	}

	if op == OpDiv {
		if v1.Kind == Int && v2.Kind == Int {
			if v2.I == 0 {
				e.typeError(tok, "division by zero")
				return Value{Kind: ErrorVal}
			}
			return RealVal(float64(v1.I / v2.I))
		}
		return RealVal(v1.Num() / v2.Num())
	}

	if v1.Kind == Int && v2.Kind == Int {
		switch op {
		case OpMult:
			return IntVal(v1.I * v2.I)
		case OpAdd:
			return IntVal(v1.I + v2.I)
		default:
			return IntVal(v1.I - v2.I)
		}
	}
	switch op {
	case OpMult:
		return RealVal(v1.Num() * v2.Num())
	case OpAdd:
		return RealVal(v1.Num() + v2.Num())
	default:
		return RealVal(v1.Num() - v2.Num())
	}
}

// compare performs the ordering relops over numerics.
func (e *Engine) compare(tok *lex.Token, v1, v2 Value, op int) Value {
	if !v1.IsNumeric() || !v2.IsNumeric() {
		e.typeError(tok, "comparison of non-numeric operand")
		return Value{Kind: ErrorVal}
	}
	a, b := v1.Num(), v2.Num()
	var r bool
	switch op {
	case OpLess:
		r = a < b
	case OpGreater:
		r = a > b
	case OpLessEq:
		r = a <= b
	default:
		r = a >= b
	}
	result := IntVal(0)
	if r {
		result.I = 1
	}
	return result
}

// equality performs = and <> over every comparable shape: text-like values by
// text (unwrapping code quotes), numerics across int and real, arrays by
// element type and bounds, and arg lists by the structural compatibility
// check.
func (e *Engine) equality(tok *lex.Token, v1, v2 Value, op int) Value {
	var eq bool
	switch {
	case v1.isTexty() && v2.isTexty():
		eq = textEq(v1, v2)
	case v1.IsNumeric() && v2.IsNumeric():
		eq = v1.Num() == v2.Num()
	case v1.Kind == Array || v2.Kind == Array:
		eq = v1.Kind == Array && v2.Kind == Array &&
			v1.S == v2.S && v1.Low == v2.Low && v1.High == v2.High
	case v1.Kind == FormalArgs || v1.Kind == ActualArgs ||
		v2.Kind == FormalArgs || v2.Kind == ActualArgs:
		if v1.Kind == FormalArgs {
			eq = e.arglistCompare(tok, v1, v2)
		} else {
			eq = e.arglistCompare(tok, v2, v1)
		}
	case v1.Kind == Range && v2.Kind == Range:
		eq = v1.Low == v2.Low && v1.High == v2.High
	default:
		eq = false
	}
	result := IntVal(0)
	if eq == (op == OpEq) {
		result.I = 1
	}
	return result
}

// Negate applies unary minus. Negating an identifier value is a type error.
func (e *Engine) Negate(v Value) Value {
	switch v.Kind {
	case Int:
		v.I = -v.I
	case Real:
		v.R = -v.R
	case NotEvaluated, Null:
		// stays undecided
	default:
		e.typeError(v.Tok, "cannot negate non-numeric value")
	}
	return v
}

// Not applies logical not. The result of not over a real collapses to an
// integer truth value.
func (e *Engine) Not(v Value) Value {
	switch v.Kind {
	case Int:
		if v.I == 0 {
			v.I = 1
		} else {
			v.I = 0
		}
	case Real:
		var i int64
		if v.R == 0 {
			i = 1
		}
		v = Value{Kind: Int, I: i, Tok: v.Tok}
	case Null, NotEvaluated:
		// stays undecided
	default:
		e.typeError(v.Tok, "cannot apply logical not to non-numeric value")
	}
	return v
}
