package lex

// Annotation is the metadata attached to a single NFA edge. Attribute is
// returned on a successful traversal of the edge; Length caps the total
// number of characters the edge's subtree may consume; AttCount makes the
// count of consumed characters itself the returned attribute. A value of -1
// means unset.
type Annotation struct {
	Attribute int
	Length    int
	AttCount  bool
}

// NFA is a nondeterministic finite automaton with a single start state and a
// single accepting state.
type NFA struct {
	Start *State
	Final *State
}

// State is one NFA state. Edges are tried in insertion order by the matcher.
type State struct {
	Edges []*Edge
}

// Edge is a transition between two states. Tok classifies the transition: an
// epsilon marker, a literal terminal to match, or a nonterminal reference
// that invokes another named machine.
type Edge struct {
	Tok   *Token
	Ann   Annotation
	State *State
}

func newNFA() *NFA {
	return &NFA{}
}

func newState() *State {
	return &State{}
}

// newEdge creates an edge to dest classified by tok, with an unset
// annotation.
func newEdge(tok *Token, dest *State) *Edge {
	return &Edge{
		Tok:   tok,
		State: dest,
		Ann:   Annotation{Attribute: -1, Length: -1},
	}
}

// addEdge appends an outgoing edge to a state.
func addEdge(start *State, e *Edge) {
	start.Edges = append(start.Edges, e)
}

// reparent moves every outgoing edge of oldParent onto parent. It is the
// concatenation step of the Thompson construction: the final state of the
// left NFA absorbs the start state of the right one.
func reparent(parent, oldParent *State) {
	parent.Edges = append(parent.Edges, oldParent.Edges...)
	oldParent.Edges = nil
}

// insertAtBranch splices insert into the union NFA unfa in place of the
// branch currently rooted at concat. Successive concatenations inside one
// alternative of a fused union attach this way instead of nesting a new
// union frame.
func insertAtBranch(unfa, concat, insert *NFA) {
	for i := len(unfa.Start.Edges) - 1; i >= 0; i-- {
		if unfa.Start.Edges[i].State == concat.Start {
			reparent(insert.Final, concat.Start)
			insert.Final = concat.Final
			unfa.Start.Edges[i].State = insert.Start
			return
		}
	}
}
