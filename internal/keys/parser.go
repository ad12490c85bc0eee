// Package keys turns keystroke expressions such as "ctrl+shift+t" into the
// ordered list of keys an input backend has to press.
package keys

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidKey is returned for an empty or unrecognized expression segment.
var ErrInvalidKey = errors.New("invalid key")

// Delimiter separates the keys of one expression.
const Delimiter = "+"

// Parse splits expr on "+" and resolves every segment through the alias table.
//
// Segments are trimmed and matched case-insensitively. The result keeps the
// order of the input: "a+ctrl" yields [A, LeftControl]. The first segment that
// does not resolve stops parsing.
func Parse(expr string) (Combo, error) {
	segments := strings.Split(expr, Delimiter)
	combo := make(Combo, 0, len(segments))
	for _, segment := range segments {
		tok, err := Lookup(segment)
		if err != nil {
			return nil, err
		}
		combo = append(combo, tok)
	}
	return combo, nil
}

// Lookup resolves a single key name.
func Lookup(name string) (Token, error) {
	normalized := normalize(name)
	if normalized == "" {
		return KeyNone, fmt.Errorf("%w: Empty string", ErrInvalidKey)
	}
	tok, ok := aliases[normalized]
	if !ok {
		return KeyNone, fmt.Errorf("%w: %q", ErrInvalidKey, strings.TrimSpace(name))
	}
	return tok, nil
}

// normalize lower-cases name and collapses inner whitespace runs, so
// " Page   Up " and "page up" match the same alias.
func normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
