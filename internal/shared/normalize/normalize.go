// Package normalize canonicalizes the natural keys users type into chat.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Name returns the canonical form of a player or alliance name: surrounding
// whitespace removed and lower-cased, so "Foo" and " foo" are one identity.
func Name(name string) string {
	// cases.Caser keeps state and is not safe for concurrent use.
	return cases.Lower(language.Und).String(strings.TrimSpace(name))
}
