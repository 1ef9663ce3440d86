package store

import "fmt"

// Query narrows a List call. Queries passed together are ANDed.
type Query struct {
	Attribute string
	Values    []any
}

// Equal matches documents whose attribute equals any of values.
func Equal(attribute string, values ...any) Query {
	return Query{Attribute: attribute, Values: values}
}

// Matches reports whether fields satisfy the query. Values are compared by
// their formatted form so that a JSON round trip does not change the outcome.
func (q Query) Matches(fields map[string]any) bool {
	got, ok := fields[q.Attribute]
	if !ok || got == nil {
		return false
	}
	for _, want := range q.Values {
		if fmt.Sprint(got) == fmt.Sprint(want) {
			return true
		}
	}
	return false
}

func (q Query) String() string {
	return fmt.Sprintf("equal(%q, %v)", q.Attribute, q.Values)
}

// MatchAll reports whether fields satisfy every query.
func MatchAll(fields map[string]any, queries []Query) bool {
	for _, q := range queries {
		if !q.Matches(fields) {
			return false
		}
	}
	return true
}
