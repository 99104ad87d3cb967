// Package emit writes indented, scoped source text. It knows nothing of
// reflection graphs; callers describe each scope with a Tag and release
// it through the Guard returned by Open.
package emit

import (
	"fmt"
	"io"
	"strings"
)

// Indent is the text of one indentation level.
const Indent = "    "

// Writer writes lines at an integer indentation level. The first write
// error is kept and every later write becomes a no-op.
type Writer struct {
	w     io.Writer
	level int
	err   error
}

// NewWriter creates a Writer at level zero.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Err returns the first write error, if any.
func (w *Writer) Err() error {
	return w.err
}

// Level returns the current indentation level.
func (w *Writer) Level() int {
	return w.level
}

func (w *Writer) write(s string) {
	if w.err != nil {
		return
	}
	_, w.err = io.WriteString(w.w, s)
}

// Line writes s at the current indentation followed by a newline. An
// empty s writes a bare newline.
func (w *Writer) Line(s string) *Writer {
	if s == "" {
		w.write("\n")
		return w
	}
	w.write(strings.Repeat(Indent, w.level) + s + "\n")
	return w
}

// Linef formats a line.
func (w *Writer) Linef(format string, args ...any) *Writer {
	return w.Line(fmt.Sprintf(format, args...))
}

// Field writes a struct field.
func (w *Writer) Field(name, typ string) *Writer {
	return w.Line(name + ": " + typ + ",")
}

// Variant writes an enum variant.
func (w *Writer) Variant(name string) *Writer {
	return w.Line(name + ",")
}

// Indent raises the level by one.
func (w *Writer) Indent() {
	w.level++
}

// Undent lowers the level by one.
func (w *Writer) Undent() {
	if w.level > 0 {
		w.level--
	}
}

// Open writes the header of t and enters its body.
func (w *Writer) Open(t Tag) *Guard {
	g := &Guard{w: w, level: w.level, closer: t.closer}
	w.Line(t.header)
	w.level++
	return g
}

// Scope opens t, runs body and closes t whether or not body fails.
func (w *Writer) Scope(t Tag, body func() error) (err error) {
	g := w.Open(t)
	defer func() {
		if cerr := g.Close(); err == nil {
			err = cerr
		}
	}()
	return body()
}

// Guard closes one open scope.
type Guard struct {
	w      *Writer
	level  int
	closer string
	closed bool
}

// Close writes the closer at the scope's own level. A scope closed at
// level zero is followed by a blank line. Close is idempotent.
func (g *Guard) Close() error {
	if g.closed {
		return g.w.err
	}
	g.closed = true
	g.w.level = g.level
	g.w.Line(g.closer)
	if g.level == 0 {
		g.w.Line("")
	}
	return g.w.err
}

// Else ends the current branch and opens the next, e.g. "else" or
// "else if x".
func (g *Guard) Else(header string) *Writer {
	g.w.level = g.level
	g.w.Line("} " + header + " {")
	g.w.level++
	return g.w
}
