package domain

import (
	"encoding/json"
	"sort"
)

// ProcessedSet is the set of post IDs that have been terminally handled
// (skipped or published). It only ever grows: an ID, once present, is
// never reprocessed in this run or any later one.
type ProcessedSet struct {
	ids map[string]struct{}
}

// NewProcessedSet returns an empty set.
func NewProcessedSet() *ProcessedSet {
	return &ProcessedSet{ids: make(map[string]struct{})}
}

func (s *ProcessedSet) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *ProcessedSet) Add(id string) {
	s.ids[id] = struct{}{}
}

func (s *ProcessedSet) Len() int { return len(s.ids) }

// IDs returns the members sorted, so serialized state is stable across runs.
func (s *ProcessedSet) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the set as a plain JSON array of strings.
func (s *ProcessedSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

// UnmarshalJSON decodes a JSON array of strings; duplicates collapse silently.
func (s *ProcessedSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	s.ids = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return nil
}

// ProcessedStore persists a ProcessedSet across runs. The access pattern is
// strictly load-at-start, mutate-in-memory, save-at-end; no concurrent
// writers are assumed.
type ProcessedStore interface {
	// Load returns the previously persisted set, or an empty set when no
	// prior state exists. Malformed prior state is an error, not an empty
	// set.
	Load() (*ProcessedSet, error)

	// Save overwrites the persisted state in full with the given set.
	Save(set *ProcessedSet) error
}
