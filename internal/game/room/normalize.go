package room

import (
	"strings"
	"unicode"
)

// strippedPunct is the fixed punctuation set removed before guess judging:
// common ASCII marks plus the full-width CJK marks clients type on IME
// keyboards.
const strippedPunct = `,.;:!?'-_/\()[]{}` + "，。；：！？（）【】"

var punctSet = func() map[rune]bool {
	set := make(map[rune]bool, len(strippedPunct))
	for _, r := range strippedPunct {
		set[r] = true
	}
	return set
}()

// Normalize canonicalizes guess and word text for comparison: lowercase with
// all whitespace and the fixed punctuation set removed. Normalize is
// idempotent.
//
// Postcondition: Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	lowered := strings.ToLower(text)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || punctSet[r] {
			return -1
		}
		return r
	}, lowered)
}
