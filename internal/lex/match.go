package lex

// matchResult carries the state of one NFA match attempt: the number of
// characters consumed by the best path found so far, the attribute collected
// along it, and whether a length cap was blown.
type matchResult struct {
	n         int
	attribute int
	ok        bool
	overflow  bool
}

// tokMatch reports how many characters of buf the literal terminal tok
// consumes, or -1 when it does not match.
func tokMatch(buf string, tok *Token) int {
	if len(tok.Lexeme) > len(buf) {
		return -1
	}
	if buf[:len(tok.Lexeme)] != tok.Lexeme {
		return -1
	}
	return len(tok.Lexeme)
}

// matchNFA matches buf against nfa beginning at state. It is a depth-first
// search over the outgoing edges that keeps the longest successful match. An
// edge's length cap applies to the total characters consumed by its subtree;
// exceeding it turns success into failure. The attribute returned is the
// first nonzero annotation encountered along the winning path.
func (lx *Lexer) matchNFA(nfa *NFA, state *State, buf string) matchResult {
	curr := matchResult{}
	if state == nfa.Final {
		curr.ok = true
	}
	// take records a successful edge only when it beats the best path so far;
	// on equal length the earlier edge keeps the win.
	take := func(n, attribute int) {
		if !curr.ok || n > curr.n {
			curr.ok = true
			curr.n = n
			curr.attribute = attribute
		}
	}
	for _, edge := range state.Edges {
		switch edge.Tok.Kind {
		case KindEpsilon:
			result := lx.matchNFA(nfa, edge.State, buf)
			if edge.Ann.Length > -1 && result.n > edge.Ann.Length {
				result.ok = false
				curr.overflow = true
			}
			if result.ok {
				take(result.n, edgeAttribute(edge, result.attribute, result.n))
			}

		case KindNonterm:
			sub := lx.Machine(edge.Tok.Lexeme)
			if sub == nil {
				continue
			}
			result := lx.matchNFA(sub.NFA, sub.NFA.Start, buf)
			if edge.Ann.Length > -1 && result.n > edge.Ann.Length {
				result.ok = false
				curr.overflow = true
			}
			if result.ok {
				subN := result.n
				deeper := result.attribute
				result = lx.matchNFA(nfa, edge.State, buf[subN:])
				if result.ok {
					if deeper <= 0 {
						deeper = result.attribute
					}
					take(result.n+subN, edgeAttribute(edge, deeper, subN))
				}
			}

		default: // literal terminal
			tmatch := tokMatch(buf, edge.Tok)
			if tmatch > 0 {
				result := lx.matchNFA(nfa, edge.State, buf[tmatch:])
				if edge.Ann.Length > -1 && result.n+tmatch > edge.Ann.Length {
					result.ok = false
					curr.overflow = true
				}
				if result.ok {
					take(result.n+tmatch, edgeAttribute(edge, result.attribute, result.n+tmatch))
				}
			}
		}
	}
	return curr
}

// edgeAttribute resolves the attribute to propagate upward past edge: the
// edge's own annotation when set, the count of consumed characters when the
// edge is flagged attcount, and otherwise whatever the deeper match already
// collected.
func edgeAttribute(edge *Edge, deeper int, consumed int) int {
	if edge.Ann.AttCount {
		return consumed
	}
	if edge.Ann.Attribute > 0 {
		return edge.Ann.Attribute
	}
	return deeper
}
