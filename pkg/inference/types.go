package inference

// NoReturnType is offered as the only return annotation when the service predicted none.
const NoReturnType = "None"

// LineRange is an inclusive, 1-indexed [First, Last] span of source lines.
type LineRange struct {
	First int
	Last  int
}

// Contains reports whether line lies within the range, bounds included.
func (r LineRange) Contains(line int) bool {
	return line >= r.First && line <= r.Last
}

// FunctionRecord holds predictions for one function or method.
type FunctionRecord struct {
	Name  string
	Lines LineRange
	// ReturnTypes is ordered most confident first and never empty.
	ReturnTypes []string
	// Params maps parameter name to its ordered annotations.
	Params map[string][]string
}

// VariableRecord holds predictions for one variable in one scope.
type VariableRecord struct {
	Name        string
	Lines       LineRange
	Annotations []string
}

// FileData is the normalized inference result for a single source file.
// It is built once and never mutated afterwards.
type FileData struct {
	Functions []FunctionRecord
	Variables []VariableRecord
	SessionID string
}
