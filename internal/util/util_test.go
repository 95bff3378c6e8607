package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Stack(t *testing.T) {
	assert := assert.New(t)

	var s Stack[int]
	assert.True(s.Empty())

	s.Push(1)
	s.Push(2)
	s.Push(3)

	assert.Equal(3, s.Len())
	assert.Equal(3, s.Peek())
	assert.Equal(3, s.Pop())
	assert.Equal(2, s.Pop())
	assert.Equal(1, s.Pop())
	assert.True(s.Empty())
}

func Test_Queue(t *testing.T) {
	assert := assert.New(t)

	var q Queue[string]
	assert.True(q.Empty())

	q.Enqueue("a")
	q.Enqueue("b")

	assert.Equal(2, q.Len())
	assert.Equal("a", q.Dequeue())
	assert.Equal("b", q.Dequeue())
	assert.True(q.Empty())
}

func Test_StringSet(t *testing.T) {
	assert := assert.New(t)

	s := NewStringSet()
	s.Add("b")
	s.Add("a")
	s.Add("a")

	assert.Equal(2, s.Len())
	assert.True(s.Has("a"))
	assert.False(s.Has("c"))
	assert.Equal("{a, b}", s.StringOrdered())

	s2 := s.Copy()
	assert.True(s.Equal(s2))
	s2.Add("c")
	assert.False(s.Equal(s2))
}

func Test_SVSet(t *testing.T) {
	assert := assert.New(t)

	s := NewSVSet[int]()
	s.Set("x", 28)
	s.Set("y", 413)

	assert.True(s.Has("x"))
	assert.Equal(28, s.Get("x"))
	assert.Equal([]string{"x", "y"}, s.OrderedElements())

	s2 := s.Copy()
	assert.True(s.Equal(s2))
	s2.Remove("y")
	assert.False(s.Equal(s2))
}

func Test_MakeTextList(t *testing.T) {
	testCases := []struct {
		name   string
		items  []string
		expect string
	}{
		{
			name:   "empty",
			items:  nil,
			expect: "",
		},
		{
			name:   "one item",
			items:  []string{"a"},
			expect: "a",
		},
		{
			name:   "two items",
			items:  []string{"a", "b"},
			expect: "a or b",
		},
		{
			name:   "three items get an oxford comma",
			items:  []string{"a", "b", "c"},
			expect: "a, b, or c",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			actual := MakeTextList(tc.items, "or")
			assert.Equal(tc.expect, actual)
		})
	}
}
