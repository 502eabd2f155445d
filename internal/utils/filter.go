package utils

import (
	"strings"
)

// identifierBlacklist holds characters that never appear in a bare Python identifier
// as typed in a parameter list: punctuation, brackets, quotes, operators and whitespace.
const identifierBlacklist = "!:?/\\{}.+=)'\";@&£%¤|<>$^~¨ -\t\r\n\v\f"

// IsBareIdentifier checks if s can stand alone as a parameter or variable name.
// Returns false for empty strings or strings holding any blacklisted character.
func IsBareIdentifier(s string) bool {
	if len(s) == 0 {
		return false
	}
	return !strings.ContainsAny(s, identifierBlacklist)
}

// ContainsComment checks if s holds a Python comment marker
func ContainsComment(s string) bool {
	return strings.ContainsRune(s, '#')
}
