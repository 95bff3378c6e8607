package listing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Listing_AddLine(t *testing.T) {
	assert := assert.New(t)

	l := New()
	assert.Equal(1, l.AddLine("var x : integer ;"))
	assert.Equal(2, l.AddLine("var y : real ;"))
	assert.Equal(2, l.Len())
	assert.Equal("var y : real ;", l.Line(2))
	assert.Equal("", l.Line(3))
}

func Test_Listing_AddError_deduplicates(t *testing.T) {
	assert := assert.New(t)

	l := New()
	l.AddLine("x := y")
	l.AddError(1, "undeclared identifier")
	l.AddError(1, "undeclared identifier")
	l.AddError(1, "type mismatch")

	assert.Equal(2, l.ErrorCount())
	assert.True(l.HasError(1, "undeclared identifier"))
	assert.False(l.HasError(2, "undeclared identifier"))
}

func Test_Listing_AddError_pastEnd(t *testing.T) {
	assert := assert.New(t)

	l := New()
	l.AddError(3, "late error")

	assert.Equal(3, l.Len())
	assert.True(l.HasError(3, "late error"))
}

func Test_Listing_Render(t *testing.T) {
	assert := assert.New(t)

	l := New()
	l.AddLine("begin")
	l.AddLine("end")
	l.AddError(2, "Syntax Error: something is off")

	var sb strings.Builder
	err := l.Render(&sb)
	assert.NoError(err)

	expect := "    1  begin\n" +
		"    2  end\n" +
		"       Syntax Error: something is off\n"
	assert.Equal(expect, sb.String())
}

func Test_Listing_RenderBare(t *testing.T) {
	assert := assert.New(t)

	l := New()
	l.AddLine("\tt0 := a + b")
	l.AddLine("\tx := t0")
	l.AddError(1, "should not appear")

	var sb strings.Builder
	err := l.RenderBare(&sb)
	assert.NoError(err)

	assert.Equal("\tt0 := a + b\n\tx := t0\n", sb.String())
}
