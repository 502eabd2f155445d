package trigger

import (
	"fmt"
	"strings"

	"github.com/bastiangx/hintserve/internal/utils"
)

const (
	// ParamTrigger fires parameter and variable classification.
	ParamTrigger = ":"
	// ReturnTrigger fires return type classification; it completes "->".
	ReturnTrigger = ">"
	// DefaultLookback is how many lines above the cursor are searched for an open def.
	DefaultLookback = 4
)

// Slot is an annotation site kind.
type Slot int

const (
	Parameter Slot = iota
	ReturnType
	Variable
)

func (s Slot) String() string {
	switch s {
	case Parameter:
		return "parameter"
	case ReturnType:
		return "return"
	case Variable:
		return "variable"
	default:
		return fmt.Sprintf("slot(%d)", int(s))
	}
}

// ParseSlot maps a slot name back to its Slot.
func ParseSlot(name string) (Slot, error) {
	switch name {
	case "parameter":
		return Parameter, nil
	case "return":
		return ReturnType, nil
	case "variable":
		return Variable, nil
	}
	return 0, fmt.Errorf("unknown slot %q", name)
}

// Classifier runs the site rules. The zero value is not usable; use NewClassifier.
type Classifier struct {
	lookback int
}

// NewClassifier returns a classifier scanning up to lookback lines above the cursor.
// Non-positive values fall back to DefaultLookback.
func NewClassifier(lookback int) *Classifier {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return &Classifier{lookback: lookback}
}

// Lookback returns the number of lines searched above the cursor.
func (c *Classifier) Lookback() int {
	return c.lookback
}

// IsParameterSite reports whether the cursor sits right after a parameter name
// inside the open parameter list of the nearest def.
func (c *Classifier) IsParameterSite(doc Document, pos Position) bool {
	if pos.Character <= 0 || pos.Line < 0 || pos.Line >= doc.LineCount() {
		return false
	}

	preceding := PrecedingText(doc.LineAt(pos.Line), pos.Character)
	if utils.ContainsComment(preceding) {
		return false
	}
	if ParamSameLineRule.Match(preceding) {
		return true
	}
	return ParamLookbackRule.Match(c.lookbackText(doc, pos))
}

// IsReturnSite reports whether the cursor closes "->" in an empty return annotation slot.
func (c *Classifier) IsReturnSite(line string, pos Position) bool {
	if pos.Character < 2 {
		return false
	}
	if utils.RunesBefore(line, pos.Character, 2) != "->" {
		return false
	}
	return ReturnSlotRule.Match(line)
}

// IsVariableSite reports whether the trigger colon just before the cursor starts
// an annotated assignment ": =".
func (c *Classifier) IsVariableSite(line string, pos Position) bool {
	if pos.Character <= 0 {
		return false
	}
	return VariableSlotRule.Match(utils.FromColumn(line, pos.Character-1))
}

// Classify returns the slots recognised at pos for the given trigger character.
func (c *Classifier) Classify(trigger string, doc Document, pos Position) []Slot {
	var slots []Slot
	line := doc.LineAt(pos.Line)

	switch trigger {
	case ParamTrigger:
		if c.IsParameterSite(doc, pos) {
			slots = append(slots, Parameter)
		}
		if c.IsVariableSite(line, pos) {
			slots = append(slots, Variable)
		}
	case ReturnTrigger:
		if c.IsReturnSite(line, pos) {
			slots = append(slots, ReturnType)
		}
	}
	return slots
}

// TriggerAt returns the trigger character immediately left of col, or "".
func TriggerAt(line string, col int) string {
	switch before := utils.RunesBefore(line, col, 1); before {
	case ParamTrigger, ReturnTrigger:
		return before
	}
	return ""
}

// lookbackText joins up to c.lookback lines above pos with the current line cut at the cursor.
func (c *Classifier) lookbackText(doc Document, pos Position) string {
	n := c.lookback
	if pos.Line < n {
		n = pos.Line
	}

	lines := make([]string, 0, n+1)
	for i := pos.Line - n; i < pos.Line; i++ {
		lines = append(lines, doc.LineAt(i))
	}
	lines = append(lines, utils.BeforeColumn(doc.LineAt(pos.Line), pos.Character))
	return strings.Join(lines, "\n")
}
