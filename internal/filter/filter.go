package filter

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/assetboard/assetboard/pkg/types"
)

// Category names one filterable asset field.
type Category string

// The eight filter categories.
const (
	Type   Category = "type"
	OS     Category = "os"
	CPU    Category = "cpu"
	Memory Category = "memory"
	GPU    Category = "gpu"
	HDD1   Category = "hdd1"
	HDD2   Category = "hdd2"
	Dept   Category = "dept"
)

// Categories lists every category in display order.
var Categories = []Category{Type, OS, CPU, Memory, GPU, HDD1, HDD2, Dept}

// ErrUnknownCategory is returned when a category name is not one of Categories.
var ErrUnknownCategory = errors.New("filter: unknown category")

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if c.valid() {
		return c, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownCategory, s)
}

func (c Category) valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// Value returns the asset field c refers to.
func (c Category) Value(a types.Asset) string {
	switch c {
	case Type:
		return a.Type
	case OS:
		return a.OS
	case CPU:
		return a.CPU
	case Memory:
		return a.Memory
	case GPU:
		return a.GPU
	case HDD1:
		return a.HDD1
	case HDD2:
		return a.HDD2
	case Dept:
		return a.Dept
	default:
		return ""
	}
}

// State is the set of accepted values per category. The zero value accepts
// everything. State is not safe for concurrent mutation; it belongs to the
// session that drives it.
type State struct {
	sets map[Category]map[string]struct{}
}

// NewState returns an empty State.
func NewState() *State {
	return &State{sets: make(map[Category]map[string]struct{})}
}

// Toggle adds value to the category's set, or removes it if already present.
// It reports whether the value is selected afterwards.
func (s *State) Toggle(c Category, value string) (bool, error) {
	if !c.valid() {
		return false, fmt.Errorf("%w %q", ErrUnknownCategory, c)
	}
	if s.sets == nil {
		s.sets = make(map[Category]map[string]struct{})
	}

	set := s.sets[c]
	if _, ok := set[value]; ok {
		delete(set, value)
		if len(set) == 0 {
			delete(s.sets, c)
		}
		return false, nil
	}
	if set == nil {
		set = make(map[string]struct{})
		s.sets[c] = set
	}
	set[value] = struct{}{}
	return true, nil
}

// Selected returns the accepted values for c, sorted.
func (s *State) Selected(c Category) []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.sets[c]))
	for v := range s.sets[c] {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Empty reports whether no category carries a constraint.
func (s *State) Empty() bool {
	return s == nil || len(s.sets) == 0
}

// Accepts reports whether a passes every category.
func (s *State) Accepts(a types.Asset) bool {
	if s == nil {
		return true
	}
	for c, set := range s.sets {
		if len(set) == 0 {
			continue
		}
		if _, ok := set[c.Value(a)]; !ok {
			return false
		}
	}
	return true
}

// FromQuery builds a State from repeated query parameters, e.g.
// ?os=Windows+11+Pro&os=Windows+10+Pro&dept=IT. Parameters that are not
// category names are ignored.
func FromQuery(q url.Values) *State {
	s := NewState()
	for _, c := range Categories {
		for _, v := range q[string(c)] {
			if s.sets[c] == nil {
				s.sets[c] = make(map[string]struct{})
			}
			s.sets[c][v] = struct{}{}
		}
	}
	return s
}

// MatchesSearch reports whether term occurs, case-insensitively, in the
// asset's user, computer name or asset tag. An empty term matches.
func MatchesSearch(a types.Asset, term string) bool {
	if term == "" {
		return true
	}
	t := strings.ToLower(term)
	return strings.Contains(strings.ToLower(a.User), t) ||
		strings.Contains(strings.ToLower(a.ComputerName), t) ||
		strings.Contains(strings.ToLower(a.ID), t)
}

// Apply returns the assets that match search and are accepted by state, in
// their original order. assets is not modified.
func Apply(assets []types.Asset, search string, state *State) []types.Asset {
	out := make([]types.Asset, 0, len(assets))
	for _, a := range assets {
		if MatchesSearch(a, search) && state.Accepts(a) {
			out = append(out, a)
		}
	}
	return out
}
