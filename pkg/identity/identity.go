// Package identity resolves raw git author strings to canonical contributor
// identities using per-group alias tables.
package identity

import "strings"

// GlobalGroup is the alias-table key consulted when a group-specific table
// has no entry for an author.
const GlobalGroup = "global"

// Resolver maps raw author names to canonical identities and answers
// exclusion queries. Resolution is total: an author with no alias entry
// resolves to its own normalized name.
type Resolver struct {
	aliases         map[string]map[string]string
	excluded        map[string]struct{}
	excludedByGroup map[string]map[string]struct{}
}

// Option is a functional option for configuring Resolver.
type Option func(*Resolver)

// WithAliases sets the alias tables, keyed by group label. The GlobalGroup
// key holds the fallback table. Alias keys are normalized on load.
func WithAliases(tables map[string]map[string]string) Option {
	return func(r *Resolver) {
		for group, table := range tables {
			normalized := make(map[string]string, len(table))
			for alias, canonical := range table {
				normalized[Normalize(alias)] = Normalize(canonical)
			}
			r.aliases[group] = normalized
		}
	}
}

// WithExcluded sets canonical identities excluded in every group.
func WithExcluded(names []string) Option {
	return func(r *Resolver) {
		for _, n := range names {
			r.excluded[Normalize(n)] = struct{}{}
		}
	}
}

// WithExcludedByGroup sets canonical identities excluded in specific groups.
func WithExcludedByGroup(byGroup map[string][]string) Option {
	return func(r *Resolver) {
		for group, names := range byGroup {
			set := make(map[string]struct{}, len(names))
			for _, n := range names {
				set[Normalize(n)] = struct{}{}
			}
			r.excludedByGroup[group] = set
		}
	}
}

// NewResolver creates a resolver. Without options every author resolves to
// its normalized self and nothing is excluded.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		aliases:         make(map[string]map[string]string),
		excluded:        make(map[string]struct{}),
		excludedByGroup: make(map[string]map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Normalize trims surrounding whitespace and case-folds a raw author name.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Resolve returns the canonical identity for a raw author name within a
// group, and whether an alias entry matched. The group table takes
// precedence over the global table; unmatched names pass through normalized.
func (r *Resolver) Resolve(group, raw string) (string, bool) {
	name := Normalize(raw)
	if table, ok := r.aliases[group]; ok {
		if canonical, ok := table[name]; ok {
			return canonical, true
		}
	}
	if table, ok := r.aliases[GlobalGroup]; ok {
		if canonical, ok := table[name]; ok {
			return canonical, true
		}
	}
	return name, false
}

// IsExcluded reports whether a canonical identity is excluded globally or
// for the given group.
func (r *Resolver) IsExcluded(group, canonical string) bool {
	name := Normalize(canonical)
	if _, ok := r.excluded[name]; ok {
		return true
	}
	if set, ok := r.excludedByGroup[group]; ok {
		if _, ok := set[name]; ok {
			return true
		}
	}
	return false
}

// HasAliases reports whether any alias table applies to the group. Used to
// decide whether an unmatched author is worth warning about.
func (r *Resolver) HasAliases(group string) bool {
	if len(r.aliases[group]) > 0 {
		return true
	}
	return len(r.aliases[GlobalGroup]) > 0
}
