/*
Package inference holds the wire format spoken by the type prediction service
and turns it into the flat per-file model the completion providers query.

The service answers an inference request with a JSON payload:

	{"response": {"funcs": [...], "classes": [...], "variables_p": {...},
	              "mod_var_ln": {...}, "session_id": "..."}}

or, on failure:

	{"error": "Could not infer types for the given file"}

Only the richest revision of the schema is supported (classes, variables and
a session id). Older revisions still decode because the collections they lack
are simply empty.
*/
package inference

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// EmptyPayloadMessage is shown to users when the service answered with neither data nor an error.
const EmptyPayloadMessage = "The received response was empty."

var (
	// ErrEmptyPayload is returned when a payload has no response and no error.
	ErrEmptyPayload = errors.New(EmptyPayloadMessage)
	// ErrMalformed is returned when the payload is not valid JSON of the expected shape.
	ErrMalformed = errors.New("malformed inference payload")
)

// ServiceError carries an error string reported by the prediction service.
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Prediction is one ranked [typeString, confidence] tuple.
type Prediction struct {
	Type       string
	Confidence float64
}

// UnmarshalJSON decodes the two element tuple form.
func (p *Prediction) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("%w: prediction: %v", ErrMalformed, err)
	}
	if len(tuple) != 2 {
		return fmt.Errorf("%w: prediction has %d elements, want 2", ErrMalformed, len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &p.Type); err != nil {
		return fmt.Errorf("%w: prediction type: %v", ErrMalformed, err)
	}
	if err := json.Unmarshal(tuple[1], &p.Confidence); err != nil {
		return fmt.Errorf("%w: prediction confidence: %v", ErrMalformed, err)
	}
	return nil
}

// MarshalJSON encodes the tuple form back, mostly for fixtures.
func (p Prediction) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.Type, p.Confidence})
}

// PredictionMap maps a parameter or variable name to its ranked predictions.
type PredictionMap map[string][]Prediction

// Locations maps a variable name to [[firstLine, firstCol], [lastLine, lastCol]].
type Locations map[string][][]int

// Function is a function or method entry of the response.
type Function struct {
	Name       string            `json:"name"`
	FnLc       [][]int           `json:"fn_lc"`
	Params     map[string]string `json:"params"`
	ParamsP    PredictionMap     `json:"params_p"`
	RetTypeP   []Prediction      `json:"ret_type_p,omitempty"`
	VariablesP PredictionMap     `json:"variables_p"`
	Variables  map[string]string `json:"variables"`
	FnVarLn    Locations         `json:"fn_var_ln"`
}

// Class groups methods and class level variables.
type Class struct {
	Name       string            `json:"name"`
	Funcs      []Function        `json:"funcs"`
	VariablesP PredictionMap     `json:"variables_p"`
	Variables  map[string]string `json:"variables"`
	ClsVarLn   Locations         `json:"cls_var_ln"`
}

// Response is the module level body of a successful payload.
type Response struct {
	Funcs      []Function        `json:"funcs"`
	Classes    []Class           `json:"classes"`
	VariablesP PredictionMap     `json:"variables_p"`
	Variables  map[string]string `json:"variables"`
	ModVarLn   Locations         `json:"mod_var_ln"`
	SessionID  string            `json:"session_id"`
}

// Payload is the envelope returned by the service.
type Payload struct {
	Response *Response `json:"response,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Result returns the response body, or the error the payload stands for.
func (p *Payload) Result() (*Response, error) {
	if p == nil {
		return nil, ErrEmptyPayload
	}
	if p.Response != nil {
		return p.Response, nil
	}
	if p.Error != "" {
		return nil, &ServiceError{Message: p.Error}
	}
	return nil, ErrEmptyPayload
}

// Decode reads a payload envelope from r.
func Decode(r io.Reader) (*Payload, error) {
	var payload Payload
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		if errors.Is(err, ErrMalformed) {
			return nil, err
		}
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyPayload
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &payload, nil
}

// span reads the first and last line out of a two row location array.
// Only the row components are used; columns are ignored.
func span(loc [][]int) (LineRange, bool) {
	if len(loc) < 2 || len(loc[0]) < 1 || len(loc[1]) < 1 {
		return LineRange{}, false
	}
	r := LineRange{First: loc[0][0], Last: loc[1][0]}
	if r.First < 0 || r.Last < r.First {
		return LineRange{}, false
	}
	return r, true
}
