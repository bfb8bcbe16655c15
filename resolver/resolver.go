// Package resolver maps free-text item phrases to catalog entries.
//
// Matching runs in fixed stages, first hit wins: exact canonical name,
// containment in either direction, then a 3-character prefix scan that yields
// suggestions for the user to pick from instead of auto-selecting.
package resolver

import (
	"strings"

	"github.com/arozco/mesero/catalog"
	"github.com/arozco/mesero/internal/strutil"
)

// Kind classifies how a phrase was (or was not) matched.
type Kind string

const (
	// KindExact means the phrase matched a canonical name directly.
	KindExact Kind = "exact"
	// KindFuzzy means a containment match selected the first catalog item
	// in iteration order. Catalog order is deterministic, so so is this.
	KindFuzzy Kind = "fuzzy"
	// KindSuggestion means nothing matched outright but the prefix scan
	// collected candidates the user must disambiguate.
	KindSuggestion Kind = "suggestion"
	// KindNone means the phrase is unresolvable.
	KindNone Kind = "none"
)

const (
	prefixLen      = 3
	maxSuggestions = 3
)

// Resolution is the outcome of resolving one phrase.
type Resolution struct {
	Kind        Kind
	Item        catalog.Item // valid for KindExact and KindFuzzy
	Suggestions []string     // valid for KindSuggestion
}

// Matched reports whether the resolution selected a single item.
func (r Resolution) Matched() bool {
	return r.Kind == KindExact || r.Kind == KindFuzzy
}

// Normalize converts a phrase to the canonical matching form: lowercase,
// ASCII only, single-spaced, trimmed.
func Normalize(phrase string) string {
	return strutil.NormalizeASCII(phrase)
}

// irregularPlurals maps plural forms that the suffix rules get wrong.
var irregularPlurals = map[string]string{
	"fries":  "fry",
	"loaves": "loaf",
	"halves": "half",
	"leaves": "leaf",
}

// Singularize converts the last word of a normalized phrase to its singular
// form. Users order "fries"/"fry" inconsistently while the catalog stores one
// canonical form, so the resolver tries the singular when the catalog holds
// it (see Resolve).
func Singularize(phrase string) string {
	words := strings.Split(phrase, " ")
	last := words[len(words)-1]
	words[len(words)-1] = singularWord(last)
	return strings.Join(words, " ")
}

func singularWord(w string) string {
	if s, ok := irregularPlurals[w]; ok {
		return s
	}
	switch {
	case len(w) > 3 && strings.HasSuffix(w, "ies"):
		return w[:len(w)-3] + "y"
	case len(w) > 4 && (strings.HasSuffix(w, "ches") || strings.HasSuffix(w, "shes")):
		return w[:len(w)-2]
	case len(w) > 3 && (strings.HasSuffix(w, "ses") || strings.HasSuffix(w, "xes") || strings.HasSuffix(w, "zes") || strings.HasSuffix(w, "oes")):
		return w[:len(w)-2]
	case len(w) > 2 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss"):
		return w[:len(w)-1]
	}
	return w
}

// Resolve matches a user-supplied item phrase against the catalog.
// It is a pure function over the supplied catalog.
func Resolve(phrase string, c *catalog.Catalog) Resolution {
	work := Normalize(phrase)
	if work == "" {
		return Resolution{Kind: KindNone}
	}

	// A plural is "recognized" when its singular form exists in the catalog;
	// only then does it replace the phrase for the remaining stages.
	if singular := Singularize(work); singular != work {
		if _, ok := c.Get(singular); ok {
			work = singular
		}
	}

	if it, ok := c.Get(work); ok {
		return Resolution{Kind: KindExact, Item: it}
	}

	for _, it := range c.Items() {
		if strings.Contains(it.Name, work) || strings.Contains(work, it.Name) {
			return Resolution{Kind: KindFuzzy, Item: it}
		}
	}

	// Phrases shorter than the prefix carry too little signal to suggest from.
	if len(work) < prefixLen {
		return Resolution{Kind: KindNone}
	}
	prefix := work[:prefixLen]
	var suggestions []string
	for _, it := range c.Items() {
		if strings.HasPrefix(it.Name, prefix) {
			suggestions = append(suggestions, it.Name)
			if len(suggestions) == maxSuggestions {
				break
			}
		}
	}
	if len(suggestions) > 0 {
		return Resolution{Kind: KindSuggestion, Suggestions: suggestions}
	}
	return Resolution{Kind: KindNone}
}
