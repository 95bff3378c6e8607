// Package listing holds the line table that the compiler builds as it reads
// source text. Each line of input keeps the diagnostics raised against it so
// the final output can interleave source and errors.
package listing

import (
	"fmt"
	"io"
)

type lineRec struct {
	text   string
	errors []string
}

// Listing is an append-only table of source lines and the diagnostics attached
// to each. Lines are 1-indexed. The zero value is not usable; create one with
// New.
type Listing struct {
	lines []lineRec
}

// New creates an empty Listing.
func New() *Listing {
	return &Listing{}
}

// AddLine appends a line of text to the listing and returns its line number.
func (l *Listing) AddLine(text string) int {
	l.lines = append(l.lines, lineRec{text: text})
	return len(l.lines)
}

// Len returns the number of lines in the listing.
func (l *Listing) Len() int {
	return len(l.lines)
}

// Line returns the text of the 1-indexed line number, or the empty string if
// the line does not exist.
func (l *Listing) Line(lineno int) string {
	if lineno < 1 || lineno > len(l.lines) {
		return ""
	}
	return l.lines[lineno-1].text
}

// AddError attaches a diagnostic message to the given 1-indexed line. A
// message identical to one already attached to the same line is silently
// discarded so that multi-pass evaluation does not double-report. If lineno is
// past the end of the table, empty lines are added up to it.
func (l *Listing) AddError(lineno int, message string) {
	if lineno < 1 {
		lineno = 1
	}
	for len(l.lines) < lineno {
		l.lines = append(l.lines, lineRec{})
	}
	rec := &l.lines[lineno-1]
	for _, e := range rec.errors {
		if e == message {
			return
		}
	}
	rec.errors = append(rec.errors, message)
}

// HasError returns whether the exact message is already attached to the line.
func (l *Listing) HasError(lineno int, message string) bool {
	if lineno < 1 || lineno > len(l.lines) {
		return false
	}
	for _, e := range l.lines[lineno-1].errors {
		if e == message {
			return true
		}
	}
	return false
}

// ErrorCount returns the total number of diagnostics attached to all lines.
func (l *Listing) ErrorCount() int {
	var n int
	for i := range l.lines {
		n += len(l.lines[i].errors)
	}
	return n
}

// Errors returns all diagnostics in line order.
func (l *Listing) Errors() []string {
	var all []string
	for i := range l.lines {
		all = append(all, l.lines[i].errors...)
	}
	return all
}

// Render writes the listing to w with each line prefixed by its line number
// and followed by its diagnostics, indented.
func (l *Listing) Render(w io.Writer) error {
	for i := range l.lines {
		if _, err := fmt.Fprintf(w, "%5d  %s\n", i+1, l.lines[i].text); err != nil {
			return err
		}
		for _, e := range l.lines[i].errors {
			if _, err := fmt.Fprintf(w, "       %s\n", e); err != nil {
				return err
			}
		}
	}
	return nil
}

// RenderBare writes only the line text to w, with no line numbers and no
// diagnostics. It is used to serialize emitted code tables.
func (l *Listing) RenderBare(w io.Writer) error {
	for i := range l.lines {
		if _, err := fmt.Fprintf(w, "%s\n", l.lines[i].text); err != nil {
			return err
		}
	}
	return nil
}
