package trigger

import (
	"strings"

	"github.com/bastiangx/hintserve/internal/utils"
)

// PrecedingText returns the text left of col with surrounding whitespace and the
// trigger colon removed, so "def f(x: " and "def f(x:" both give "def f(x".
func PrecedingText(line string, col int) string {
	s := strings.TrimRight(utils.BeforeColumn(line, col), " \t")
	s = strings.TrimSuffix(s, ParamTrigger)
	return strings.TrimSpace(s)
}

// ParamName extracts the parameter about to be annotated from the preceding text.
//
// The last segment after a comma, an opening paren or an unpacking star is taken.
// Anything that is not a bare identifier after trimming, such as a default value
// expression, yields no name.
func ParamName(preceding string) (string, bool) {
	name := preceding
	if i := strings.LastIndexAny(preceding, ",(*"); i >= 0 {
		name = preceding[i+1:]
	}
	name = strings.TrimSpace(name)
	if !utils.IsBareIdentifier(name) {
		return "", false
	}
	return name, true
}

// VariableName extracts the assignment target of an annotated assignment line.
// One annotated assignment per line is assumed; multi-line targets are not supported.
func VariableName(line string) (string, bool) {
	target, _, _ := strings.Cut(line, "=")
	target = strings.Replace(target, ":", "", 1)
	target = strings.Replace(target, "self.", "", 1)
	target = strings.TrimSpace(target)
	return target, target != ""
}
