/*
Package server implements msgpack IPC for type hint completion.

Editors spawn the process and talk to it over stdin/stdout. Every message is a
msgpack map carrying an "id" echoed in the reply and an "action" selecting the
operation:

	{"id": "1", "action": "infer", "path": "/work/app.py", "src": "def f(x): ..."}
	{"id": "1", "status": "ok", "session": "b5d3", "funcs": 3, "vars": 2, "t": 8123}

	{"id": "2", "action": "complete", "path": "/work/app.py",
	 "first": 8, "lines": ["def f(a,", "      x:"], "line": 9, "col": 8}
	{"id": "2", "s": [{"a": "int", "l": " int", "r": 1, "k": "parameter", "n": "x"}], "c": 1, "t": 41}

Positions are 0-indexed and columns count Unicode code points (runes). LSP
style hosts that send UTF-16 offsets must convert them: every character
outside the Basic Multilingual Plane left of the cursor takes two UTF-16 units
but one column here.

"lines" only needs the cursor line and the few lines above it, starting at
document line "first". When "trig" is empty the character left of the cursor
is used.

Only the newest infer, load or forget for a path decides what is stored. An
infer result that arrives after a newer request for the same path is dropped
and answered with status "superseded".

A completion that finds nothing is not an error: it answers an empty list.
Errors are reserved for broken requests and failed inference:

	{"id": "3", "e": "Cannot infer type annotations for empty files.", "c": 400}

The server first writes {"status": "ready"} so clients know when to start.
*/
package server

// Status values of InferResponse and StatusResponse.
const (
	StatusOK         = "ok"
	StatusSuperseded = "superseded"
)

const (
	ActionInfer    = "infer"
	ActionLoad     = "load"
	ActionComplete = "complete"
	ActionFeedback = "feedback"
	ActionForget   = "forget"
	ActionStats    = "stats"
)

// envelope is decoded first to pick the concrete request type.
type envelope struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"action"`
}

// InferRequest asks the prediction service about a source file.
type InferRequest struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"action"`
	Path   string `msgpack:"path"`
	Source string `msgpack:"src"`
}

// LoadRequest stores a payload the client already fetched.
type LoadRequest struct {
	ID      string `msgpack:"id"`
	Action  string `msgpack:"action"`
	Path    string `msgpack:"path"`
	Payload []byte `msgpack:"payload"`
}

// InferResponse reports what was stored for a file.
type InferResponse struct {
	ID        string `msgpack:"id"`
	Status    string `msgpack:"status"`
	Session   string `msgpack:"session,omitempty"`
	Functions int    `msgpack:"funcs"`
	Variables int    `msgpack:"vars"`
	TimeTaken int64  `msgpack:"t"`
}

// CompleteRequest asks for candidates at a cursor.
type CompleteRequest struct {
	ID      string   `msgpack:"id"`
	Action  string   `msgpack:"action"`
	Path    string   `msgpack:"path"`
	First   int      `msgpack:"first,omitempty"`
	Lines   []string `msgpack:"lines"`
	Line    int      `msgpack:"line"`
	Col     int      `msgpack:"col"`
	Trigger string   `msgpack:"trig,omitempty"`
}

// Suggestion is one candidate on the wire.
type Suggestion struct {
	Annotation string `msgpack:"a"`
	Label      string `msgpack:"l"`
	Rank       uint16 `msgpack:"r"`
	Slot       string `msgpack:"k"`
	Identifier string `msgpack:"n"`
}

// CompleteResponse - completion response
type CompleteResponse struct {
	ID          string       `msgpack:"id"`
	Suggestions []Suggestion `msgpack:"s"`
	Count       int          `msgpack:"c"`
	TimeTaken   int64        `msgpack:"t"`
}

// FeedbackRequest reports an accepted or dismissed candidate.
type FeedbackRequest struct {
	ID         string `msgpack:"id"`
	Action     string `msgpack:"action"`
	Path       string `msgpack:"path"`
	Slot       string `msgpack:"k"`
	Identifier string `msgpack:"n"`
	// Line is the 1-indexed slot line.
	Line       int    `msgpack:"ln"`
	Rank       int    `msgpack:"r"`
	Annotation string `msgpack:"a,omitempty"`
	Dismissed  bool   `msgpack:"x,omitempty"`
}

// ForgetRequest drops stored predictions for one path, or every path inside the folder Prefix.
type ForgetRequest struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"action"`
	Path   string `msgpack:"path,omitempty"`
	Prefix string `msgpack:"prefix,omitempty"`
}

// StatusResponse acknowledges requests without a payload.
type StatusResponse struct {
	ID      string `msgpack:"id"`
	Status  string `msgpack:"status"`
	Removed int    `msgpack:"removed,omitempty"`
}

// StatsRequest asks for store counts, optionally listing the paths under Prefix.
type StatsRequest struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"action"`
	List   bool   `msgpack:"list,omitempty"`
	Prefix string `msgpack:"prefix,omitempty"`
}

// StatsResponse describes the store.
type StatsResponse struct {
	ID        string   `msgpack:"id"`
	Files     int      `msgpack:"files"`
	Functions int      `msgpack:"funcs"`
	Variables int      `msgpack:"vars"`
	Paths     []string `msgpack:"paths,omitempty"`
}

// ErrorResponse holds basic error information with an HTTP like code.
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
