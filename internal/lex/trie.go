package lex

import "sort"

// TData is the classification stored for an entry in a Trie: the token kind
// it maps to and the attribute returned with it.
type TData struct {
	Kind uint16
	Attr int
}

// TLookup is the result of a Trie lookup.
type TLookup struct {
	Found bool
	TData TData
}

type trieNode struct {
	c        byte
	terminal bool
	tdat     TData
	children []*trieNode
}

// Trie is a character-keyed lookup table used for the keyword table and the
// identifier table. Children of each node are kept sorted so lookup is a
// binary search per character.
type Trie struct {
	root *trieNode
	n    int
}

// NewTrie creates an empty Trie.
func NewTrie() *Trie {
	return &Trie{root: &trieNode{}}
}

// Len returns the number of entries in the trie.
func (tr *Trie) Len() int {
	return tr.n
}

func (node *trieNode) find(c byte) (int, bool) {
	idx := sort.Search(len(node.children), func(i int) bool {
		return node.children[i].c >= c
	})
	if idx < len(node.children) && node.children[idx].c == c {
		return idx, true
	}
	return idx, false
}

// Insert adds str to the trie with the given data. Inserting a string that is
// already present overwrites its data.
func (tr *Trie) Insert(str string, tdat TData) {
	node := tr.root
	for i := 0; i < len(str); i++ {
		idx, ok := node.find(str[i])
		if !ok {
			child := &trieNode{c: str[i]}
			node.children = append(node.children, nil)
			copy(node.children[idx+1:], node.children[idx:])
			node.children[idx] = child
		}
		node = node.children[idx]
	}
	if !node.terminal {
		tr.n++
	}
	node.terminal = true
	node.tdat = tdat
}

// Lookup finds str in the trie.
func (tr *Trie) Lookup(str string) TLookup {
	node := tr.root
	for i := 0; i < len(str); i++ {
		idx, ok := node.find(str[i])
		if !ok {
			return TLookup{}
		}
		node = node.children[idx]
	}
	if !node.terminal {
		return TLookup{}
	}
	return TLookup{Found: true, TData: node.tdat}
}

// Walk calls fn for every entry in the trie in lexicographic order.
func (tr *Trie) Walk(fn func(str string, tdat TData)) {
	var rec func(node *trieNode, prefix []byte)
	rec = func(node *trieNode, prefix []byte) {
		if node.terminal {
			fn(string(prefix), node.tdat)
		}
		for _, child := range node.children {
			rec(child, append(prefix, child.c))
		}
	}
	rec(tr.root, nil)
}
