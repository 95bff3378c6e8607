package parse

import (
	"sync"

	"github.com/dekarrin/pike/internal/lex"
	"github.com/dekarrin/pike/internal/util"
)

// followWorker is the per-nonterminal record used by the parallel FOLLOW
// computation. Each worker fills only its own follows set and its own
// inherit-edge list, so the fill phase needs no locking beyond the start
// barrier.
type followWorker struct {
	pda     *PDA
	index   int
	follows TokenSet

	// inherit holds the indexes of the workers whose FOLLOW this worker
	// inherits (A <- B: everything in FOLLOW(B) belongs in FOLLOW(A)).
	inherit []int
}

// ComputeFollows fills in the FOLLOW set of every nonterminal. One worker
// runs per nonterminal; all of them block on a single start barrier that is
// released once every worker record is registered. Workers record
// inheritance as edges instead of chasing it; after the join, a
// single-threaded closure pass pulls follows through the edges in
// declaration order, so the observable sets are deterministic despite the
// parallel fill.
func (g *Grammar) ComputeFollows() {
	workers := make([]*followWorker, len(g.order))
	index := map[*PDA]int{}
	for i, name := range g.order {
		pda := g.pdas[name]
		workers[i] = &followWorker{
			pda:     pda,
			index:   i,
			follows: util.NewSVSet[*lex.Token](),
		}
		index[pda] = i
	}

	var mu sync.Mutex
	ready := false
	cond := sync.NewCond(&mu)

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(w *followWorker) {
			defer wg.Done()

			mu.Lock()
			for !ready {
				cond.Wait()
			}
			mu.Unlock()

			g.fillFollows(w, index)
		}(workers[i])
	}

	mu.Lock()
	ready = true
	cond.Broadcast()
	mu.Unlock()

	wg.Wait()

	// single-threaded inheritance closure, in declaration order
	for i := range workers {
		var stack []int
		workers[i].follows = closeFollows(workers, i, stack)
	}
	for i := range workers {
		workers[i].pda.Follows = workers[i].follows
	}
}

// fillFollows scans every production in which the worker's nonterminal
// occurs on the right-hand side. Terminals immediately after the occurrence
// contribute themselves; nonterminals contribute their FIRST minus EPSILON;
// when the rest of the body can derive epsilon (or the occurrence is last),
// the producing nonterminal's FOLLOW is inherited by edge.
func (g *Grammar) fillFollows(w *followWorker, index map[*PDA]int) {
	if w.pda == g.start {
		w.follows.Set("$", makeEOFToken())
	}

	for _, name := range g.order {
		pda := g.pdas[name]
		for _, prod := range pda.Productions {
			for iter := prod.Start; iter != nil; iter = iter.Next {
				if iter.Tok.Kind != lex.KindNonterm || g.PDA(iter.Tok.Lexeme) != w.pda {
					continue
				}

				after := iter.Next
				for {
					if after == nil {
						w.addInherit(index[pda])
						break
					}
					if after.Tok.Kind != lex.KindNonterm {
						if after.Tok.Kind != lex.KindEpsilon {
							w.follows.Set(after.Tok.Lexeme, after.Tok)
							break
						}
						// an explicit epsilon position is transparent
						after = after.Next
						continue
					}

					sub := g.PDA(after.Tok.Lexeme)
					if sub == nil {
						break
					}
					for _, k := range sub.Firsts.Elements() {
						if k != "EPSILON" {
							w.follows.Set(k, sub.Firsts.Get(k))
						}
					}
					if !g.derivesEpsilon(after) {
						break
					}
					after = after.Next
				}
			}
		}
	}
}

// addInherit records an inherit edge, deduplicated.
func (w *followWorker) addInherit(from int) {
	if from == w.index {
		return
	}
	for _, existing := range w.inherit {
		if existing == from {
			return
		}
	}
	w.inherit = append(w.inherit, from)
}

// closeFollows resolves worker i's FOLLOW set through its inherit edges. The
// visited stack breaks inheritance cycles.
func closeFollows(workers []*followWorker, i int, stack []int) TokenSet {
	for _, v := range stack {
		if v == i {
			return nil
		}
	}
	stack = append(stack, i)

	w := workers[i]
	for _, from := range w.inherit {
		inherited := closeFollows(workers, from, stack)
		for _, k := range inherited.Elements() {
			if k == "EPSILON" {
				continue
			}
			if !w.follows.Has(k) {
				w.follows.Set(k, inherited.Get(k))
			}
		}
	}
	return w.follows
}
