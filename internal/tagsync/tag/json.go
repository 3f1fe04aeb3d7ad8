package tag

import "encoding/json"

// MarshalJSON renders the set as a sorted JSON array of tag strings,
// matching the baseline file format of spec.md §6.
func (s Set) MarshalJSON() ([]byte, error) {
	sorted := s.Sorted()
	names := make([]string, len(sorted))
	for i, t := range sorted {
		names[i] = t.value
	}
	if names == nil {
		names = []string{}
	}
	return json.Marshal(names)
}

// UnmarshalJSON parses a JSON array of tag strings. Invalid entries
// are dropped silently: a malformed baseline entry should not abort
// loading the whole file (spec.md §7, "deserialization failure —
// recoverable").
func (s *Set) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}

	out := NewSet()
	for _, name := range names {
		if t, err := New(name); err == nil {
			out.Insert(t)
		}
	}
	*s = out
	return nil
}
