package trigger

import "strings"

// Position is a 0-indexed cursor position; Character counts runes.
type Position struct {
	Line      int
	Character int
}

// Document gives line access to the buffer being edited.
type Document interface {
	// LineAt returns the text of line i without its terminator, or "" when i is out of range.
	LineAt(i int) string
	// LineCount returns the number of lines in the document.
	LineCount() int
}

// Window is a slice of a document starting at line First.
// Editors only need to send the cursor line and the lookback lines above it.
type Window struct {
	First int
	Lines []string
}

// NewWindow splits text into lines starting at document line first.
func NewWindow(first int, text string) *Window {
	return &Window{First: first, Lines: SplitLines(text)}
}

// LineAt implements Document.
func (w *Window) LineAt(i int) string {
	i -= w.First
	if i < 0 || i >= len(w.Lines) {
		return ""
	}
	return w.Lines[i]
}

// LineCount implements Document.
func (w *Window) LineCount() int {
	return w.First + len(w.Lines)
}

// SplitLines splits text on newlines and strips carriage returns.
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
