// Package cli handles cmd line queries against one inferred file for DBG and testing.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bastiangx/hintserve/pkg/resolve"
	"github.com/bastiangx/hintserve/pkg/trigger"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var annotationStyle = lipgloss.NewStyle().Bold(true).
	Foreground(lipgloss.AdaptiveColor{Light: "#286983", Dark: "#9ccfd8"})

var slotStyle = lipgloss.NewStyle().Italic(true).
	Foreground(lipgloss.AdaptiveColor{Light: "#797593", Dark: "#908caa"})

var cursorStyle = lipgloss.NewStyle().Reverse(true)

// Query is one parsed cursor query.
type Query struct {
	// Line is 0-indexed.
	Line int
	// Col is the number of runes left of the cursor; -1 means end of line.
	Col     int
	Trigger string
}

// ParseQuery reads "LINE[:COL[:TRIGGER]]" with a 1-indexed LINE.
// Without COL the cursor goes to the end of the line.
func ParseQuery(s string) (Query, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 3)
	line, err := strconv.Atoi(parts[0])
	if err != nil || line < 1 {
		return Query{}, fmt.Errorf("invalid line %q", parts[0])
	}
	q := Query{Line: line - 1, Col: -1}

	if len(parts) > 1 && parts[1] != "" {
		col, err := strconv.Atoi(parts[1])
		if err != nil || col < 0 {
			return Query{}, fmt.Errorf("invalid column %q", parts[1])
		}
		q.Col = col
	}
	if len(parts) > 2 {
		switch parts[2] {
		case trigger.ParamTrigger, trigger.ReturnTrigger:
			q.Trigger = parts[2]
		case "":
			// a bare trailing ":" means the param trigger
			q.Trigger = trigger.ParamTrigger
		default:
			return Query{}, fmt.Errorf("invalid trigger %q", parts[2])
		}
	}
	return q, nil
}

// InputHandler reads cursor queries from stdin and prints the candidates
// the resolver offers at each one.
type InputHandler struct {
	resolver       *resolve.Resolver
	path           string
	doc            *trigger.Window
	defaultTrigger string
	in             io.Reader
	logger         *log.Logger
}

// NewInputHandler handles initialization of the InputHandler for one source file.
func NewInputHandler(resolver *resolve.Resolver, path, source, defaultTrigger string) *InputHandler {
	h := &InputHandler{
		resolver:       resolver,
		path:           path,
		doc:            trigger.NewWindow(0, source),
		defaultTrigger: defaultTrigger,
	}
	h.SetIO(os.Stdin, os.Stderr)
	return h
}

// SetIO replaces stdin and the output stream.
func (h *InputHandler) SetIO(in io.Reader, out io.Writer) {
	h.in = in
	h.logger = log.NewWithOptions(out, log.Options{ReportTimestamp: false})
}

// Start begins the query loop and returns nil once input ends or "q" is read.
func (h *InputHandler) Start() error {
	h.logger.Print("hintserve CLI [BETA]")
	h.logger.Printf("%s: %d lines", h.path, h.doc.LineCount())
	h.logger.Print("enter LINE[:COL[:TRIGGER]] to see the candidates, q to quit:")

	reader := bufio.NewReader(h.in)
	for {
		input, err := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input == "q" || input == "quit" {
			return nil
		}
		if input != "" {
			h.handleInput(input)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// handleInput resolves one query and prints the ranked candidates.
func (h *InputHandler) handleInput(input string) {
	q, err := ParseQuery(input)
	if err != nil {
		h.logger.Errorf("%v", err)
		return
	}
	if q.Line >= h.doc.LineCount() {
		h.logger.Errorf("Line %d is past the end of the file (%d lines)", q.Line+1, h.doc.LineCount())
		return
	}

	text := h.doc.LineAt(q.Line)
	col := q.Col
	if col < 0 || col > len([]rune(text)) {
		col = len([]rune(text))
	}
	trig := q.Trigger
	if trig == "" {
		trig = trigger.TriggerAt(text, col)
	}
	if trig == "" {
		trig = h.defaultTrigger
	}

	runes := []rune(text)
	h.logger.Printf("%4d | %s%s%s", q.Line+1, string(runes[:col]), cursorStyle.Render(" "), string(runes[col:]))

	start := time.Now()
	candidates := h.resolver.Resolve(context.Background(), resolve.Request{
		Path:    h.path,
		Doc:     h.doc,
		Pos:     trigger.Position{Line: q.Line, Character: col},
		Trigger: trig,
	})
	log.Debugf("Took [ %v ] for %d:%d trigger %q", time.Since(start), q.Line+1, col, trig)

	if len(candidates) == 0 {
		h.logger.Warnf("No candidates at %d:%d (trigger %q)", q.Line+1, col, trig)
		return
	}

	h.logger.Printf("Found %d candidates:", len(candidates))
	for _, c := range candidates {
		h.logger.Printf("%2d. %-32s %s", c.Rank, annotationStyle.Render(c.Annotation),
			slotStyle.Render(fmt.Sprintf("%s %s", c.Slot, c.Identifier)))
	}
}
