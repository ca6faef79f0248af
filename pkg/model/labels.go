package model

import (
	"strings"
	"unicode"
)

// DefaultLabeler turns a control key such as "confirmPassword", "zip_code"
// or "first-name" into "Confirm Password", "Zip Code", "First Name".
func DefaultLabeler(name string) string {
	var words []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			words = append(words, capitalise(string(current)))
			current = current[:0]
		}
	}

	runes := []rune(strings.TrimSpace(name))
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			flush()
			continue
		case i > 0 && startsWord(runes[i-1], r):
			flush()
		}
		current = append(current, r)
	}
	flush()
	return strings.Join(words, " ")
}

func startsWord(prev, r rune) bool {
	return (unicode.IsLower(prev) && unicode.IsUpper(r)) ||
		(unicode.IsLetter(prev) && unicode.IsDigit(r)) ||
		(unicode.IsDigit(prev) && unicode.IsLetter(r))
}

func capitalise(word string) string {
	runes := []rune(strings.ToLower(word))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
