package resolve

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/bastiangx/hintserve/pkg/inference"
	"github.com/bastiangx/hintserve/pkg/trigger"
	"github.com/bastiangx/hintserve/pkg/typestore"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePath = "/work/tally.py"

// sampleSource lines are 1-indexed in the comments.
var sampleSource = []string{
	"import os",                  // 1
	"",                           // 2
	"class Counter:",             // 3
	"    label: = 'c'",           // 4
	"    def tally(self, count:", // 5
	"              step:",        // 6
	"              ) ->",         // 7
	"        total: = 0",         // 8
	"        return total",       // 9
	"",                           // 10
	"def other(count:",           // 11
	"    pass",                   // 12
	"total: = 3",                 // 13
}

func sampleStore() *typestore.Store {
	store := typestore.New()
	store.Put(samplePath, &inference.FileData{
		Functions: []inference.FunctionRecord{
			{
				Name:        "tally",
				Lines:       inference.LineRange{First: 5, Last: 10},
				ReturnTypes: []string{"int", "Optional[int]"},
				Params: map[string][]string{
					"count": {"int", "float"},
					"step":  {"int"},
				},
			},
			{
				Name:        "other",
				Lines:       inference.LineRange{First: 11, Last: 12},
				ReturnTypes: []string{inference.NoReturnType},
				Params:      map[string][]string{"count": {"str"}},
			},
		},
		Variables: []inference.VariableRecord{
			{Name: "label", Lines: inference.LineRange{First: 4, Last: 4}, Annotations: []string{"str"}},
			{Name: "total", Lines: inference.LineRange{First: 8, Last: 8}, Annotations: []string{"int", "float"}},
			{Name: "total", Lines: inference.LineRange{First: 13, Last: 13}, Annotations: []string{"List[int]"}},
		},
		SessionID: "sess-1",
	})
	return store
}

func newTestResolver(store *typestore.Store) *Resolver {
	return NewResolver(store, trigger.NewClassifier(trigger.DefaultLookback), DefaultFormat())
}

// request builds a request with the cursor right after the first occurrence of marker on line (1-indexed).
func request(t *testing.T, line int, marker, trig string) Request {
	t.Helper()
	text := sampleSource[line-1]
	idx := strings.Index(text, marker)
	require.GreaterOrEqual(t, idx, 0, "marker %q not on line %d", marker, line)
	return Request{
		Path:    samplePath,
		Doc:     &trigger.Window{Lines: sampleSource},
		Pos:     trigger.Position{Line: line - 1, Character: idx + len(marker)},
		Trigger: trig,
	}
}

func annotations(candidates []Candidate) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.Annotation)
	}
	return out
}

func TestResolve_ParameterEndToEnd(t *testing.T) {
	resolver := newTestResolver(sampleStore())

	candidates := resolver.Resolve(context.Background(), request(t, 5, "count:", trigger.ParamTrigger))
	require.Len(t, candidates, 2)
	assert.Equal(t, []string{"int", "float"}, annotations(candidates))

	first := candidates[0]
	assert.Equal(t, " int", first.Label)
	assert.Equal(t, "00000", first.SortText)
	assert.Equal(t, uint16(1), first.Rank)
	assert.Equal(t, trigger.Parameter, first.Slot)
	assert.Equal(t, "count", first.Identifier)
	assert.Equal(t, 5, first.Line)
	assert.Equal(t, uint16(2), candidates[1].Rank)
}

func TestResolve_ParameterOnContinuationLine(t *testing.T) {
	resolver := newTestResolver(sampleStore())
	candidates := resolver.Resolve(context.Background(), request(t, 6, "step:", trigger.ParamTrigger))
	assert.Equal(t, []string{"int"}, annotations(candidates))
}

func TestResolve_DisjointFunctions(t *testing.T) {
	resolver := newTestResolver(sampleStore())
	candidates := resolver.Resolve(context.Background(), request(t, 11, "count:", trigger.ParamTrigger))
	assert.Equal(t, []string{"str"}, annotations(candidates))
}

func TestResolve_Return(t *testing.T) {
	resolver := newTestResolver(sampleStore())
	candidates := resolver.Resolve(context.Background(), request(t, 7, "->", trigger.ReturnTrigger))
	require.Len(t, candidates, 2)
	assert.Equal(t, []string{"int", "Optional[int]"}, annotations(candidates))
	assert.Equal(t, "tally", candidates[0].Identifier)
	assert.Equal(t, trigger.ReturnType, candidates[0].Slot)
}

func TestResolve_Variables(t *testing.T) {
	resolver := newTestResolver(sampleStore())

	t.Run("function scope", func(t *testing.T) {
		candidates := resolver.Resolve(context.Background(), request(t, 8, "total:", trigger.ParamTrigger))
		assert.Equal(t, []string{"int", "float"}, annotations(candidates))
		require.NotEmpty(t, candidates)
		assert.Equal(t, trigger.Variable, candidates[0].Slot)
	})

	t.Run("module scope same name", func(t *testing.T) {
		candidates := resolver.Resolve(context.Background(), request(t, 13, "total:", trigger.ParamTrigger))
		assert.Equal(t, []string{"List[int]"}, annotations(candidates))
	})

	t.Run("class scope", func(t *testing.T) {
		candidates := resolver.Resolve(context.Background(), request(t, 4, "label:", trigger.ParamTrigger))
		assert.Equal(t, []string{"str"}, annotations(candidates))
	})
}

func TestResolve_NoData(t *testing.T) {
	t.Run("file never inferred", func(t *testing.T) {
		resolver := newTestResolver(typestore.New())
		assert.Empty(t, resolver.Resolve(context.Background(), request(t, 5, "count:", trigger.ParamTrigger)))
	})

	t.Run("param without predictions", func(t *testing.T) {
		store := sampleStore()
		resolver := newTestResolver(store)
		req := request(t, 5, "count:", trigger.ParamTrigger)
		req.Doc = &trigger.Window{Lines: []string{"", "", "", "", "    def tally(self, unknown:"}}
		req.Pos.Character = len("    def tally(self, unknown:")
		assert.Empty(t, resolver.Resolve(context.Background(), req))
	})

	t.Run("wrong trigger", func(t *testing.T) {
		resolver := newTestResolver(sampleStore())
		assert.Empty(t, resolver.Resolve(context.Background(), request(t, 5, "count:", trigger.ReturnTrigger)))
		assert.Empty(t, resolver.Resolve(context.Background(), request(t, 7, "->", trigger.ParamTrigger)))
	})

	t.Run("line outside every function", func(t *testing.T) {
		store := typestore.New()
		store.Put(samplePath, &inference.FileData{})
		resolver := newTestResolver(store)
		assert.Empty(t, resolver.Resolve(context.Background(), request(t, 7, "->", trigger.ReturnTrigger)))
	})
}

func TestResolve_Cancelled(t *testing.T) {
	resolver := newTestResolver(sampleStore())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Empty(t, resolver.Resolve(ctx, request(t, 5, "count:", trigger.ParamTrigger)))

	p := NewParamProvider(sampleStore(), trigger.NewClassifier(0), DefaultFormat())
	assert.Empty(t, p.Provide(ctx, request(t, 5, "count:", trigger.ParamTrigger)))
}

func TestResolverWith(t *testing.T) {
	store := sampleStore()
	classifier := trigger.NewClassifier(0)
	resolver := NewResolverWith(NewReturnProvider(store, classifier, Format{}))

	assert.Empty(t, resolver.Resolve(context.Background(), request(t, 5, "count:", trigger.ParamTrigger)))
	candidates := resolver.Resolve(context.Background(), request(t, 7, "->", trigger.ReturnTrigger))
	require.Len(t, candidates, 2)
	assert.Equal(t, "int", candidates[0].Label)
}

func TestFormat_Candidates(t *testing.T) {
	f := Format{LabelPrefix: "", MaxCandidates: 2}
	candidates := f.Candidates([]string{"a", "b", "c"}, trigger.Variable, "v", 3)
	require.Len(t, candidates, 2)
	assert.Equal(t, []string{"a", "b"}, annotations(candidates))

	assert.Empty(t, DefaultFormat().Candidates(nil, trigger.Variable, "v", 3))
	assert.Less(t, SortText(9), SortText(10))
}

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)

	candidate := Candidate{Annotation: "int", Rank: 2, Slot: trigger.Parameter, Identifier: "count", Line: 5}

	NewLogReporter(logger, false).Report(Accepted(candidate, "sess-1"))
	assert.Empty(t, buf.String())

	reporter := NewLogReporter(logger, true)
	reporter.Report(Accepted(candidate, "sess-1"))
	assert.Contains(t, buf.String(), "accepted")
	assert.Contains(t, buf.String(), "rank=2")
	assert.Contains(t, buf.String(), "slot=parameter")

	buf.Reset()
	dismissed := Dismissed(trigger.ReturnType, "tally", 7, "sess-1")
	assert.True(t, dismissed.IsDismissed())
	reporter.Report(dismissed)
	assert.Contains(t, buf.String(), "dismissed")
	assert.NotContains(t, buf.String(), "rank=")
}
