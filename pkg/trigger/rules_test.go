package trigger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRules(t *testing.T) {
	testCases := []struct {
		rule     *Rule
		input    string
		expected bool
	}{
		{ParamSameLineRule, "def f(x", true},
		{ParamSameLineRule, "async def f(x", true},
		{ParamSameLineRule, "define(x", false},
		{ParamSameLineRule, "x = def_value(", false},

		{ParamLookbackRule, "def f(a,\n    b:", true},
		{ParamLookbackRule, "def f(a):\n    b:", false},
		{ParamLookbackRule, "def f(a) -> Dict:\n    b:", false},
		{ParamLookbackRule, "def f(a) -> \n    b:", true},
		{ParamLookbackRule, "    x = 1\n    y:", false},

		{ReturnSlotRule, "def f() ->", true},
		{ReturnSlotRule, "def f() ->  ", true},
		{ReturnSlotRule, "def f() -> :", true},
		{ReturnSlotRule, "def f() -> int", false},

		{VariableSlotRule, ": = 3", true},
		{VariableSlotRule, ":=3", true},
		{VariableSlotRule, ": int = 3", false},
		{VariableSlotRule, "x: = 3", false},
	}

	for _, tc := range testCases {
		t.Run(tc.rule.Name+"/"+strings.ReplaceAll(tc.input, "\n", `\n`), func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.rule.Match(tc.input))
		})
	}
}

func TestRules_LongInputBounded(t *testing.T) {
	// pathological input must not stall; a timeout reads as no match
	long := "def f(" + strings.Repeat("a, ", 5000)
	assert.True(t, ParamLookbackRule.Match(long))
	assert.False(t, ReturnSlotRule.Match(strings.Repeat(")", 10000)))
}
