// Package naming converts model and field identifiers to engine field names.
package naming

import (
	"strings"
	"unicode"
)

// ToSnake converts a camelCase or PascalCase identifier to lower snake_case.
//
// An underscore goes between a lowercase letter or digit and a following
// uppercase letter, and before the last letter of an uppercase run that is
// followed by a lowercase letter, so acronyms stay together:
// orderID -> order_id, userIDNumber -> user_id_number.
func ToSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)

	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			switch {
			case unicode.IsLower(prev), unicode.IsDigit(prev):
				b.WriteByte('_')
			case unicode.IsUpper(prev) && nextLower:
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
