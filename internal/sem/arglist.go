package sem

import "github.com/dekarrin/pike/internal/lex"

// arglistCompare performs the structural type-compatibility check between a
// formal argument list and an actual argument list: per-position type
// checks, array shape checks, and a length match. Diagnostics land on the
// listing only during the final pass, per position where possible.
func (e *Engine) arglistCompare(tok *lex.Token, formal, actual Value) bool {
	at := func(v *Value) *lex.Token {
		if v != nil && v.Tok != nil {
			return v.Tok
		}
		return tok
	}

	if actual.Kind != ActualArgs {
		e.typeError(at(&actual), "Improper assignment involving procedure type")
		return false
	}
	if formal.Kind != FormalArgs {
		e.typeError(at(&actual), "Attempt to call non-procedure object")
		return false
	}

	ok := true
	fArgs := formal.List.Of
	aArgs := actual.List.Of

	n := len(fArgs)
	if len(aArgs) < n {
		n = len(aArgs)
	}
	for i := 0; i < n; i++ {
		f, a := fArgs[i], aArgs[i]
		switch f.Kind {
		case Ident:
			switch a.Kind {
			case Ident:
				if f.S == "real" {
					if a.S != "real" && a.S != "integer" {
						e.typeError(at(a), "Expected real or integer but got different type")
						ok = false
					}
				} else if f.S == "integer" {
					if a.S != "integer" {
						e.typeError(at(a), "Expected integer but got different type")
						ok = false
					}
				}
			case Array:
				e.typeError(at(a), "Expected real or integer but got array")
				ok = false
			default:
				e.typeError(at(a), "Expected real or integer but got different type")
				ok = false
			}
		case Array:
			switch a.Kind {
			case Array:
				if f.S != a.S {
					e.typeError(at(a), "Array types mismatch")
					ok = false
				}
				if f.Low != a.Low || f.High != a.High {
					e.typeError(at(a), "Array bounds mismatch")
					ok = false
				}
			case Ident:
				e.typeError(at(a), "Expected array type but got numeric type")
				ok = false
			default:
				e.typeError(at(a), "Expected array type but got other type")
				ok = false
			}
		}
	}

	if len(aArgs) > len(fArgs) {
		e.typeError(at(aArgs[len(fArgs)]), "Excess Parameters Used in function call")
		ok = false
	} else if len(fArgs) > len(aArgs) {
		var last *Value
		if len(aArgs) > 0 {
			last = aArgs[len(aArgs)-1]
		}
		e.typeError(at(last), "Not Enough Arguments Used in function call")
		ok = false
	}
	return ok
}
