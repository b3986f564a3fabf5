// Package diff decides whether a freshly fetched snapshot differs from the
// last published one in a way the dashboard cares about.
//
// Comparison is keyed by record identity, so server reordering alone never
// counts as a change. Only the significant fields named by a Schema are
// compared; everything else on a record is ignored. Functions never mutate
// their inputs.
package diff

import (
	"reflect"
	"sort"
)

// Field names one significant attribute of a record.
type Field[T any] struct {
	Name  string
	Value func(T) any
}

// Schema describes how to identify and compare records of type T.
type Schema[T any] struct {
	ID     func(T) string
	Fields []Field[T]
}

// Report lists the identifiers that changed between two snapshots.
type Report struct {
	LengthChanged bool
	Added         []string
	Removed       []string
	Modified      []string
}

// Changed reports whether anything in the report warrants publishing.
func (r Report) Changed() bool {
	return r.LengthChanged || len(r.Added) > 0 || len(r.Removed) > 0 || len(r.Modified) > 0
}

// Compare computes the difference between prev and next.
// Identifier lists are sorted for stable output.
func (s Schema[T]) Compare(prev, next []T) Report {
	report := Report{LengthChanged: len(prev) != len(next)}

	before := make(map[string]T, len(prev))
	for _, rec := range prev {
		before[s.ID(rec)] = rec
	}
	seen := make(map[string]struct{}, len(next))
	for _, rec := range next {
		id := s.ID(rec)
		seen[id] = struct{}{}
		old, ok := before[id]
		if !ok {
			report.Added = append(report.Added, id)
			continue
		}
		if !s.sameFields(old, rec) {
			report.Modified = append(report.Modified, id)
		}
	}
	for id := range before {
		if _, ok := seen[id]; !ok {
			report.Removed = append(report.Removed, id)
		}
	}

	sort.Strings(report.Added)
	sort.Strings(report.Removed)
	sort.Strings(report.Modified)
	return report
}

// Changed is shorthand for Compare(prev, next).Changed().
func (s Schema[T]) Changed(prev, next []T) bool {
	if len(prev) != len(next) {
		return true
	}
	return s.Compare(prev, next).Changed()
}

func (s Schema[T]) sameFields(a, b T) bool {
	for _, f := range s.Fields {
		if !reflect.DeepEqual(f.Value(a), f.Value(b)) {
			return false
		}
	}
	return true
}

// Counters compares fixed-shape records field by field using the named
// accessors. It returns the names of the counters whose values differ.
func Counters[T any](fields []Field[T], prev, next T) []string {
	var changed []string
	for _, f := range fields {
		if !reflect.DeepEqual(f.Value(prev), f.Value(next)) {
			changed = append(changed, f.Name)
		}
	}
	return changed
}

// Value compares opaque decoded values by deep structural equality.
func Value[T any](prev, next T) bool {
	return !reflect.DeepEqual(prev, next)
}
