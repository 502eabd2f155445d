package trigger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cursorDoc builds a document from text holding a single "|" marking the cursor.
func cursorDoc(t *testing.T, text string) (*Window, Position) {
	t.Helper()
	lines := SplitLines(text)
	for i, l := range lines {
		if col := strings.Index(l, "|"); col >= 0 {
			lines[i] = l[:col] + l[col+1:]
			return &Window{Lines: lines}, Position{Line: i, Character: len([]rune(l[:col]))}
		}
	}
	require.FailNow(t, "no cursor marker", text)
	return nil, Position{}
}

func TestIsParameterSite(t *testing.T) {
	c := NewClassifier(DefaultLookback)

	testCases := []struct {
		text        string
		expected    bool
		description string
	}{
		{"def f(x:|", true, "first param on def line"},
		{"def f(x: |", true, "cursor after colon space"},
		{"    def method(self, value:|", true, "indented method"},
		{"async def fetch(url:|", true, "async def"},
		{"async  def fetch(url:|", true, "async with extra spaces"},
		{"def f(a,\n      b:|", true, "continuation line"},
		{"def f(\n    a,\n    b,\n    c,\n    d:|", true, "def exactly four lines up"},
		{"def f(\n    a,\n    b,\n    c,\n    d,\n    e:|", false, "def beyond lookback"},
		{"def f(a):\n    d = {key:|", false, "inside body after ):"},
		{"def f(a) -> int:\n    d = {key:|", false, "inside body after return annotation"},
		{"def g(a):\n    pass\ndef h(b,\n      c:|", true, "nearest open def wins"},
		{"x = {key:|", false, "dict literal"},
		{"def f(x, # note:|", false, "comment before cursor"},
		{"# def f(x:|", false, "commented out def"},
		{"|:", false, "column zero"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			doc, pos := cursorDoc(t, tc.text)
			assert.Equal(t, tc.expected, c.IsParameterSite(doc, pos), "%q", tc.text)
		})
	}
}

func TestIsParameterSite_Bounds(t *testing.T) {
	c := NewClassifier(0)
	assert.Equal(t, DefaultLookback, c.Lookback())

	doc := &Window{Lines: []string{"def f(x:"}}
	assert.False(t, c.IsParameterSite(doc, Position{Line: 3, Character: 8}))
	assert.False(t, c.IsParameterSite(doc, Position{Line: -1, Character: 8}))
	// column past the end is clamped
	assert.True(t, c.IsParameterSite(doc, Position{Line: 0, Character: 80}))
}

func TestIsParameterSite_Window(t *testing.T) {
	c := NewClassifier(2)

	// editor only sent lines 40..42
	doc := &Window{First: 40, Lines: []string{"def run(self,", "        retries,", "        delay:"}}
	assert.True(t, c.IsParameterSite(doc, Position{Line: 42, Character: 14}))

	short := NewClassifier(1)
	assert.False(t, short.IsParameterSite(doc, Position{Line: 42, Character: 14}))
}

func TestIsReturnSite(t *testing.T) {
	c := NewClassifier(DefaultLookback)

	testCases := []struct {
		text        string
		expected    bool
		description string
	}{
		{"def f(x) ->|", true, "bare arrow"},
		{"def f(x)->|", true, "no space before arrow"},
		{"def f(x) ->|:", true, "closing colon already typed"},
		{"def f(x) ->| :", true, "space then colon"},
		{"    async def f(x) ->|", true, "indented async"},
		{"def f(x) -X|", false, "not an arrow"},
		{"def f(x) >|", false, "single >"},
		{"def f(x) ->| int:", false, "slot already filled"},
		{"y = a ->|", false, "no closing paren"},
		{">|", false, "column one"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			doc, pos := cursorDoc(t, tc.text)
			assert.Equal(t, tc.expected, c.IsReturnSite(doc.LineAt(pos.Line), pos), "%q", tc.text)
		})
	}
}

func TestIsVariableSite(t *testing.T) {
	c := NewClassifier(DefaultLookback)

	testCases := []struct {
		text        string
		expected    bool
		description string
	}{
		{"name:| = 1", true, "annotated assignment"},
		{"name :|= 1", true, "space before colon"},
		{"    self.count:| = 0", true, "attribute"},
		{"name:|", false, "nothing after"},
		{"d = {key:| 1}", false, "dict literal"},
		{"if x == y:|", false, "block colon"},
		{"|name = 1", false, "column zero"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			doc, pos := cursorDoc(t, tc.text)
			assert.Equal(t, tc.expected, c.IsVariableSite(doc.LineAt(pos.Line), pos), "%q", tc.text)
		})
	}
}

func TestClassify(t *testing.T) {
	c := NewClassifier(DefaultLookback)

	doc, pos := cursorDoc(t, "def f(count:|")
	assert.Equal(t, []Slot{Parameter}, c.Classify(ParamTrigger, doc, pos))
	assert.Empty(t, c.Classify(ReturnTrigger, doc, pos))

	doc, pos = cursorDoc(t, "def f(count) ->|")
	assert.Equal(t, []Slot{ReturnType}, c.Classify(ReturnTrigger, doc, pos))

	doc, pos = cursorDoc(t, "total:| = 0")
	assert.Equal(t, []Slot{Variable}, c.Classify(ParamTrigger, doc, pos))

	assert.Empty(t, c.Classify("(", doc, pos))
}

func TestSlot(t *testing.T) {
	for _, s := range []Slot{Parameter, ReturnType, Variable} {
		parsed, err := ParseSlot(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	_, err := ParseSlot("class")
	assert.Error(t, err)
}

func TestTriggerAt(t *testing.T) {
	assert.Equal(t, ParamTrigger, TriggerAt("def f(x:", 8))
	assert.Equal(t, ReturnTrigger, TriggerAt("def f() ->", 10))
	assert.Equal(t, "", TriggerAt("def f(x", 7))
	assert.Equal(t, "", TriggerAt(":", 0))
	assert.Equal(t, ParamTrigger, TriggerAt("größe:", 6))
}
