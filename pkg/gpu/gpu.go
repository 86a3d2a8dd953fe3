// Package gpu matches user queries such as "3070" or "a100 sxm" against the
// RunPod GPU type catalog.
package gpu

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"

	rperrors "github.com/gpuctl/rpctl/pkg/errors"
	"github.com/gpuctl/rpctl/pkg/runpod"
)

// DefaultSuggestions is the number of suggestions offered when nothing matches.
const DefaultSuggestions = 3

// normalize lower-cases s and drops whitespace and punctuation so that
// "RTX-3070", "rtx 3070" and "rtx3070" compare equal.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsExact reports whether query names t exactly by ID or display name, ignoring case.
func IsExact(t runpod.GPUType, query string) bool {
	q := strings.TrimSpace(query)
	return strings.EqualFold(t.ID, q) || strings.EqualFold(t.DisplayName, q)
}

// Matches reports whether query is contained in t's ID or display name.
func Matches(t runpod.GPUType, query string) bool {
	q := normalize(query)
	if q == "" {
		return false
	}
	return strings.Contains(normalize(t.ID), q) || strings.Contains(normalize(t.DisplayName), q)
}

// Find returns the GPU types matching query. Exact matches come first,
// then larger memory, then display name.
func Find(types []runpod.GPUType, query string) []runpod.GPUType {
	out := make([]runpod.GPUType, 0)
	for _, t := range types {
		if Matches(t, query) {
			out = append(out, t)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		ei, ej := IsExact(out[i], query), IsExact(out[j], query)
		if ei != ej {
			return ei
		}
		if out[i].MemoryInGB != out[j].MemoryInGB {
			return out[i].MemoryInGB > out[j].MemoryInGB
		}
		return out[i].DisplayName < out[j].DisplayName
	})

	return out
}

// Suggest returns up to n display names closest to query by edit distance.
func Suggest(types []runpod.GPUType, query string, n int) []string {
	if n <= 0 || len(types) == 0 {
		return nil
	}

	q := normalize(query)

	type scored struct {
		name string
		dist int
	}
	all := make([]scored, 0, len(types))
	for _, t := range types {
		d := levenshtein.ComputeDistance(q, normalize(t.DisplayName))
		if alt := levenshtein.ComputeDistance(q, normalize(t.ID)); alt < d {
			d = alt
		}
		name := t.DisplayName
		if name == "" {
			name = t.ID
		}
		all = append(all, scored{name: name, dist: d})
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].dist != all[j].dist {
			return all[i].dist < all[j].dist
		}
		return all[i].name < all[j].name
	})

	if n > len(all) {
		n = len(all)
	}
	out := make([]string, 0, n)
	for _, s := range all[:n] {
		out = append(out, s.name)
	}
	return out
}

// Resolve picks the single GPU type named by query.
//
// An exact ID or display-name match wins even if the query also matches other
// types. A query matching nothing returns NOT_FOUND with suggestions; a query
// matching several types without an exact hit returns INVALID_REQUEST listing them.
func Resolve(types []runpod.GPUType, query string) (*runpod.GPUType, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, rperrors.New(rperrors.ErrCodeInvalidRequest, "gpu type is required")
	}

	for i := range types {
		if IsExact(types[i], query) {
			return &types[i], nil
		}
	}

	matches := Find(types, query)
	switch len(matches) {
	case 0:
		suggestions := Suggest(types, query, DefaultSuggestions)
		msg := fmt.Sprintf("no gpu type matches %q", query)
		if len(suggestions) > 0 {
			msg += fmt.Sprintf(", did you mean: %s?", strings.Join(suggestions, ", "))
		}
		return nil, rperrors.NewWithContext(rperrors.ErrCodeNotFound, msg,
			map[string]any{"query": query, "suggestions": suggestions})
	case 1:
		return &matches[0], nil
	default:
		ids := make([]string, 0, len(matches))
		for _, m := range matches {
			ids = append(ids, m.ID)
		}
		return nil, rperrors.NewWithContext(rperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("gpu type %q is ambiguous, candidates: %s", query, strings.Join(ids, ", ")),
			map[string]any{"query": query, "candidates": ids})
	}
}
