// Package bookmarks keeps the user's marked companies and projects them in
// the order of the current view.
package bookmarks

import (
	"encoding/json"
	"sort"

	"torncorp-analyzer/internal/models"
)

// UnrankedSentinel orders marked companies missing from the view last.
const UnrankedSentinel = 999999

// Set is a set of company ids. The zero value is ready to use.
type Set struct {
	ids map[int64]struct{}
}

func NewSet(ids ...int64) *Set {
	s := &Set{}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s *Set) Add(id int64) {
	if s.ids == nil {
		s.ids = make(map[int64]struct{})
	}
	s.ids[id] = struct{}{}
}

func (s *Set) Remove(id int64) {
	delete(s.ids, id)
}

// Toggle flips membership and reports whether id is now marked.
func (s *Set) Toggle(id int64) bool {
	if s.Has(id) {
		s.Remove(id)
		return false
	}
	s.Add(id)
	return true
}

func (s *Set) Has(id int64) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *Set) Len() int {
	return len(s.ids)
}

// IDs returns the members in ascending order.
func (s *Set) IDs() []int64 {
	out := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns an independent copy.
func (s *Set) Clone() *Set {
	return NewSet(s.IDs()...)
}

func (s *Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

func (s *Set) UnmarshalJSON(data []byte) error {
	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	s.ids = nil
	for _, id := range ids {
		s.Add(id)
	}
	return nil
}

// Project returns the marked companies of the full batch ordered by their
// rank in rankIndex, then by id. Companies absent from the index sort last.
func Project(all []models.EnrichedCompany, marked *Set, rankIndex map[int64]int) []models.EnrichedCompany {
	out := make([]models.EnrichedCompany, 0, marked.Len())
	for _, c := range all {
		if marked.Has(c.ID) {
			out = append(out, c)
		}
	}

	rankOf := func(id int64) int {
		if r, ok := rankIndex[id]; ok {
			return r
		}
		return UnrankedSentinel
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := rankOf(out[i].ID), rankOf(out[j].ID)
		if ri != rj {
			return ri < rj
		}
		return out[i].ID < out[j].ID
	})
	return out
}
