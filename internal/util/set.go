package util

import (
	"fmt"
	"sort"
	"strings"
)

// StringSet is a map[string]bool with methods added to make set operations
// convenient.
type StringSet map[string]bool

func NewStringSet(of ...map[string]bool) StringSet {
	s := StringSet{}
	for _, m := range of {
		for k := range m {
			s.Add(k)
		}
	}
	return s
}

func (s StringSet) Has(value string) bool {
	_, has := s[value]
	return has
}

// Add adds the given element to the set. If the element is already in the set,
// no effect occurs.
func (s StringSet) Add(value string) {
	s[value] = true
}

func (s StringSet) Remove(value string) {
	delete(s, value)
}

func (s StringSet) Len() int {
	return len(s)
}

func (s StringSet) Empty() bool {
	return s.Len() == 0
}

func (s StringSet) AddAll(s2 StringSet) {
	for k := range s2 {
		s.Add(k)
	}
}

// Copy returns a new StringSet with the same elements as s.
func (s StringSet) Copy() StringSet {
	newS := NewStringSet()
	for k := range s {
		newS[k] = true
	}
	return newS
}

// Equal returns whether two sets have the same items. This does not compare
// ordering, as sets have none.
func (s StringSet) Equal(o StringSet) bool {
	if s.Len() != o.Len() {
		return false
	}
	for k := range s {
		if !o.Has(k) {
			return false
		}
	}
	return true
}

// Elements returns the elements of s as a slice. No particular order is
// guaranteed nor should it be relied on.
func (s StringSet) Elements() []string {
	if s == nil {
		return nil
	}
	sl := make([]string, 0)
	for item := range s {
		sl = append(sl, item)
	}
	return sl
}

// StringOrdered shows the contents of the set. Items are guaranteed to be
// alphabetized.
func (s StringSet) StringOrdered() string {
	convs := []string{}
	for k := range s {
		convs = append(convs, fmt.Sprintf("%v", k))
	}
	sort.Strings(convs)

	var sb strings.Builder
	sb.WriteRune('{')
	for i := range convs {
		sb.WriteString(convs[i])
		if i+1 < len(convs) {
			sb.WriteRune(',')
			sb.WriteRune(' ')
		}
	}
	sb.WriteRune('}')
	return sb.String()
}

// String shows the contents of the set. Items are not guaranteed to be in any
// particular order.
func (s StringSet) String() string {
	return s.StringOrdered()
}

func StringSetOf(sl []string) StringSet {
	s := StringSet{}
	for i := range sl {
		s.Add(sl[i])
	}
	return s
}

// SVSet is a set that uses strings as its item type and maps each item to a
// stored data value.
type SVSet[V any] map[string]V

func NewSVSet[V any](of ...map[string]V) SVSet[V] {
	bs := SVSet[V](map[string]V{})
	for _, m := range of {
		for k := range m {
			bs.Set(k, m[k])
		}
	}
	return bs
}

// Add adds an element. Has no effect if it's already there.
func (s SVSet[V]) Add(idx string) {
	if _, ok := s[idx]; !ok {
		newRef := new(V)
		s[idx] = *newRef
	}
}

// Set assigns the value of the element. The element is added if it isn't
// already in the set.
func (s SVSet[V]) Set(idx string, val V) {
	s[idx] = val
}

// Get retrieves the value of an element. The zero-value for V is returned if
// the element does not exist.
func (s SVSet[V]) Get(idx string) V {
	return s[idx]
}

func (s SVSet[V]) Has(idx string) bool {
	_, ok := s[idx]
	return ok
}

func (s SVSet[V]) Remove(idx string) {
	delete(s, idx)
}

func (s SVSet[V]) Len() int {
	return len(s)
}

func (s SVSet[V]) Empty() bool {
	return s.Len() == 0
}

func (s SVSet[V]) Copy() SVSet[V] {
	return NewSVSet(s)
}

// AddAll adds all elements of s2 to the set, along with their values.
func (s SVSet[V]) AddAll(s2 SVSet[V]) {
	for k := range s2 {
		s.Set(k, s2.Get(k))
	}
}

func (s SVSet[V]) Elements() []string {
	elems := []string{}
	for k := range s {
		elems = append(elems, k)
	}
	return elems
}

// OrderedElements returns the elements of s sorted alphabetically.
func (s SVSet[V]) OrderedElements() []string {
	elems := s.Elements()
	sort.Strings(elems)
	return elems
}

// Equal returns whether two sets have the same items. It does NOT compare the
// mapped values.
func (s SVSet[V]) Equal(o SVSet[V]) bool {
	if s.Len() != o.Len() {
		return false
	}
	for k := range s {
		if !o.Has(k) {
			return false
		}
	}
	return true
}

// StringOrdered shows the contents of the set, alphabetized.
func (s SVSet[V]) StringOrdered() string {
	convs := s.OrderedElements()

	var sb strings.Builder
	sb.WriteRune('{')
	for i := range convs {
		sb.WriteString(convs[i])
		if i+1 < len(convs) {
			sb.WriteRune(',')
			sb.WriteRune(' ')
		}
	}
	sb.WriteRune('}')
	return sb.String()
}
