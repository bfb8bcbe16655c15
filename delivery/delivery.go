// Package delivery holds the read-only set of serviceable localities.
package delivery

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/arozco/mesero/internal/strutil"
)

// Area is the set of localities the restaurant delivers to.
// Immutable after New; safe for concurrent readers.
type Area struct {
	set   map[string]struct{}
	names []string // sorted, for stable listings
}

// New builds an Area from locality names. Names are normalized to lowercase
// ASCII; duplicates collapse. An empty set is an error so a failed ingest
// cannot silently answer "no" to every delivery question.
func New(localities []string) (*Area, error) {
	a := &Area{set: make(map[string]struct{}, len(localities))}
	for _, loc := range localities {
		name := strutil.NormalizeASCII(loc)
		if name == "" {
			continue
		}
		if _, ok := a.set[name]; ok {
			continue
		}
		a.set[name] = struct{}{}
		a.names = append(a.names, name)
	}
	if len(a.names) == 0 {
		return nil, errors.New("delivery: no localities")
	}
	sort.Strings(a.names)
	return a, nil
}

// Covers reports whether the locality is serviceable. Matching is
// deliberately permissive: besides exact equality, a containment match in
// either direction counts, so "springfield" is covered by an area that only
// lists "west springfield". This mirrors how people abbreviate locality
// names in chat and is intended behavior, not a bug.
func (a *Area) Covers(locality string) bool {
	return len(a.Candidates(locality)) > 0
}

// Candidates returns every locality that matches the query under the
// containment policy, sorted. Callers surface the full list when the match
// is ambiguous rather than guessing which locality was meant.
func (a *Area) Candidates(locality string) []string {
	q := strutil.NormalizeASCII(locality)
	if q == "" {
		return nil
	}
	if _, ok := a.set[q]; ok {
		return []string{q}
	}
	var out []string
	for _, name := range a.names {
		if strings.Contains(name, q) || strings.Contains(q, name) {
			out = append(out, name)
		}
	}
	return out
}

// Localities returns all locality names, sorted. The slice is a copy.
func (a *Area) Localities() []string {
	out := make([]string, len(a.names))
	copy(out, a.names)
	return out
}

// Len returns the number of localities.
func (a *Area) Len() int {
	return len(a.names)
}
