/*
Package trigger decides, from the text around the cursor, whether a type hint
completion makes sense at all.

No parser is involved. Each annotation site is recognised by a small set of
named lexical rules run over the current line and a few lines of lookback:

	ParamSameLineRule    "def f(x:"            parameter on the def line
	ParamLookbackRule    "def f(a,\n    b:"    still inside an open parameter list
	ReturnSlotRule       "def f(x) ->"         empty return annotation slot
	VariableSlotRule     "name: = 1"           annotated assignment being typed

The rules favour missing a valid site over popping up where no annotation
belongs.
*/
package trigger

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/dlclark/regexp2"
)

// ruleTimeout bounds a single match; rules run on every keystroke.
const ruleTimeout = 50 * time.Millisecond

// Rule is a named lexical pattern.
type Rule struct {
	Name string
	re   *regexp2.Regexp
}

func newRule(name, pattern string, opts regexp2.RegexOptions) *Rule {
	re := regexp2.MustCompile(pattern, opts)
	re.MatchTimeout = ruleTimeout
	return &Rule{Name: name, re: re}
}

// Match reports whether the rule matches anywhere in s.
// A timed out match counts as no match.
func (r *Rule) Match(s string) bool {
	ok, err := r.re.MatchString(s)
	if err != nil {
		log.Debugf("rule %s: %v", r.Name, err)
		return false
	}
	return ok
}

var (
	// ParamSameLineRule matches text before the cursor that opens with a def on the same line.
	ParamSameLineRule = newRule("param-same-line", `^[ \t]*(def |async *def )`, regexp2.None)

	// ParamLookbackRule matches a def line that is not followed by "):" or "-> T:" anywhere
	// up to the cursor, i.e. its parameter list is still open.
	ParamLookbackRule = newRule("param-lookback", `^[ \t]*(async *)?def(?![\s\S]+(\):|-> *[^:\s]+:))`, regexp2.Multiline)

	// ReturnSlotRule matches a line ending in ") ->" with nothing typed after the arrow
	// except spaces or the closing colon.
	ReturnSlotRule = newRule("return-slot", `\) *->[: ]*$`, regexp2.None)

	// VariableSlotRule matches the remainder of a line starting at the trigger colon
	// when it reads ": =".
	VariableSlotRule = newRule("variable-slot", `^\s*:\s*=`, regexp2.None)
)
