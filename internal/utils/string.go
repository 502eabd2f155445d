package utils

// Editor columns are counted in runes so non-ASCII identifiers keep their positions.

// ClampColumn keeps col inside [0, len(runes)].
func ClampColumn(runes []rune, col int) int {
	if col < 0 {
		return 0
	}
	if col > len(runes) {
		return len(runes)
	}
	return col
}

// BeforeColumn returns the text of line left of col.
func BeforeColumn(line string, col int) string {
	runes := []rune(line)
	return string(runes[:ClampColumn(runes, col)])
}

// FromColumn returns the text of line from col to the end.
func FromColumn(line string, col int) string {
	runes := []rune(line)
	return string(runes[ClampColumn(runes, col):])
}

// RunesBefore returns the n runes immediately left of col, or "" if there are fewer.
func RunesBefore(line string, col, n int) string {
	runes := []rune(line)
	col = ClampColumn(runes, col)
	if col < n {
		return ""
	}
	return string(runes[col-n : col])
}
