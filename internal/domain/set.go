package domain

import (
	"sort"

	"github.com/goccy/go-json"
)

// Set is an immutable, sorted set of strings. The zero value is empty and
// ready to use. Every mutating operation returns a new Set.
type Set struct {
	items []string
}

// NewSet builds a set from values, dropping duplicates and empty strings.
func NewSet(values ...string) Set {
	if len(values) == 0 {
		return Set{}
	}
	items := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		items = append(items, v)
	}
	sort.Strings(items)
	return Set{items: items}
}

// Len returns the number of members.
func (s Set) Len() int {
	return len(s.items)
}

// Has reports whether v is a member.
func (s Set) Has(v string) bool {
	i := sort.SearchStrings(s.items, v)
	return i < len(s.items) && s.items[i] == v
}

// Values returns the members in ascending order. The slice is a copy.
func (s Set) Values() []string {
	return append([]string(nil), s.items...)
}

// With returns a set that also contains v.
func (s Set) With(v string) Set {
	if v == "" || s.Has(v) {
		return s
	}
	return NewSet(append(s.Values(), v)...)
}

// Without returns a set that does not contain v.
func (s Set) Without(v string) Set {
	if !s.Has(v) {
		return s
	}
	out := make([]string, 0, len(s.items)-1)
	for _, item := range s.items {
		if item != v {
			out = append(out, item)
		}
	}
	return Set{items: out}
}

// Toggle removes v if present, otherwise adds it.
func (s Set) Toggle(v string) Set {
	if s.Has(v) {
		return s.Without(v)
	}
	return s.With(v)
}

// MarshalJSON encodes the set as a JSON array.
func (s Set) MarshalJSON() ([]byte, error) {
	if s.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.items)
}

// UnmarshalJSON decodes a JSON array into a set.
func (s *Set) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*s = NewSet(values...)
	return nil
}
