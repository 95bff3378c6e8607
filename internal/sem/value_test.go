package sem

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/pike/internal/lex"
	"github.com/dekarrin/pike/internal/listing"
)

func testEngine() *Engine {
	return NewEngine(nil, nil, listing.New(), nil)
}

func Test_Op_arithmetic(t *testing.T) {
	testCases := []struct {
		name   string
		v1     Value
		v2     Value
		op     int
		expect Value
	}{
		{
			name:   "int plus int stays int",
			v1:     IntVal(2),
			v2:     IntVal(3),
			op:     OpAdd,
			expect: IntVal(5),
		},
		{
			name:   "int plus real coerces to real",
			v1:     IntVal(2),
			v2:     RealVal(0.5),
			op:     OpAdd,
			expect: RealVal(2.5),
		},
		{
			name:   "int minus int",
			v1:     IntVal(2),
			v2:     IntVal(5),
			op:     OpSub,
			expect: IntVal(-3),
		},
		{
			name:   "int times real",
			v1:     IntVal(4),
			v2:     RealVal(0.25),
			op:     OpMult,
			expect: RealVal(1.0),
		},
		{
			name: "int division truncates then promotes to real",
			v1:   IntVal(7),
			v2:   IntVal(2),
			op:   OpDiv,
			// truncating integer division promoted to real
			expect: RealVal(3.0),
		},
		{
			name:   "real division",
			v1:     RealVal(1.0),
			v2:     RealVal(4.0),
			op:     OpDiv,
			expect: RealVal(0.25),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			e := testEngine()

			actual := e.Op(nil, tc.v1, tc.v2, tc.op)
			assert.Equal(tc.expect.Kind, actual.Kind)
			assert.Equal(tc.expect.I, actual.I)
			assert.Equal(tc.expect.R, actual.R)
		})
	}
}

func Test_Op_comparisons(t *testing.T) {
	testCases := []struct {
		name   string
		v1     Value
		v2     Value
		op     int
		expect int64
	}{
		{"int less int", IntVal(1), IntVal(2), OpLess, 1},
		{"int less real cross type", IntVal(3), RealVal(2.5), OpLess, 0},
		{"eq across numeric types", IntVal(2), RealVal(2.0), OpEq, 1},
		{"ne across numeric types", IntVal(2), RealVal(2.0), OpNe, 0},
		{"identifier equality by text", IdentVal("integer"), IdentVal("integer"), OpEq, 1},
		{"identifier inequality by text", IdentVal("integer"), IdentVal("real"), OpNe, 1},
		{"code literal equals bare text", Value{Kind: Code, S: "'integer'"}, IdentVal("integer"), OpEq, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			e := testEngine()

			actual := e.Op(nil, tc.v1, tc.v2, tc.op)
			assert.Equal(Int, actual.Kind)
			assert.Equal(tc.expect, actual.I)
		})
	}
}

func Test_Op_arrayEquality(t *testing.T) {
	assert := assert.New(t)
	e := testEngine()

	a1 := Value{Kind: Array, S: "integer", Low: 1, High: 10}
	a2 := Value{Kind: Array, S: "integer", Low: 1, High: 10}
	a3 := Value{Kind: Array, S: "integer", Low: 0, High: 10}

	assert.Equal(int64(1), e.Op(nil, a1, a2, OpEq).I)
	assert.Equal(int64(0), e.Op(nil, a1, a3, OpEq).I)
	assert.Equal(int64(1), e.Op(nil, a1, a3, OpNe).I)
}

func Test_Op_nullTests(t *testing.T) {
	assert := assert.New(t)
	e := testEngine()

	// = against null is an explicit null test
	assert.Equal(int64(1), e.Op(nil, NullVal(), NullVal(), OpEq).I)
	assert.Equal(int64(1), e.Op(nil, NotEval(), NullVal(), OpEq).I)
	assert.Equal(int64(0), e.Op(nil, IntVal(1), NullVal(), OpEq).I)
	assert.Equal(int64(1), e.Op(nil, IntVal(1), NullVal(), OpNe).I)

	// any other operation involving null stays null
	assert.Equal(Null, e.Op(nil, IntVal(1), NullVal(), OpAdd).Kind)

	// not-evaluated operands stay not evaluated
	assert.Equal(NotEvaluated, e.Op(nil, NotEval(), IntVal(1), OpAdd).Kind)
}

func Test_Op_nopPassesThrough(t *testing.T) {
	assert := assert.New(t)
	e := testEngine()

	code := Value{Kind: Code, S: "'goto _L0'"}
	actual := e.Op(nil, code, Value{Kind: Void}, OpNop)
	assert.Equal(Code, actual.Kind)
	assert.Equal("'goto _L0'", actual.S)
}

func Test_Negate(t *testing.T) {
	assert := assert.New(t)
	e := testEngine()

	assert.Equal(int64(-2), e.Negate(IntVal(2)).I)
	assert.Equal(-2.5, e.Negate(RealVal(2.5)).R)

	// negating an identifier is a type error, reported on the final pass
	e.final = true
	e.Listing.AddLine("x")
	ident := IdentVal("x")
	ident.Tok = &lex.Token{Lexeme: "x", Line: 1}
	e.Negate(ident)
	assert.NotZero(e.Listing.ErrorCount())
}

func Test_Not(t *testing.T) {
	assert := assert.New(t)
	e := testEngine()

	assert.Equal(int64(0), e.Not(IntVal(1)).I)
	assert.Equal(int64(1), e.Not(IntVal(0)).I)

	// not over a real collapses to an integer truth value
	notted := e.Not(RealVal(0.0))
	assert.Equal(Int, notted.Kind)
	assert.Equal(int64(1), notted.I)
}

func Test_TestOf(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(Test{Evaluated: true, Result: true}, TestOf(IntVal(1)))
	assert.Equal(Test{Evaluated: true, Result: false}, TestOf(IntVal(0)))
	assert.Equal(Test{Evaluated: true, Result: true}, TestOf(IdentVal("x")))
	assert.Equal(Test{}, TestOf(NullVal()))
	assert.Equal(Test{}, TestOf(NotEval()))
}
