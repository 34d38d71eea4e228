// Package labels defines the mapping from mask label ids to display names
// and overlay colors.
package labels

import (
	"errors"
	"fmt"
	"sort"

	"ctoverlay/internal/models"
)

// ErrInvalidLabel is wrapped by every label validation failure other than
// a color of the wrong arity, which is reported as a shape mismatch.
var ErrInvalidLabel = errors.New("invalid label")

// RGB is an 8-bit color triple
type RGB [3]uint8

// Label binds a mask value to a region name and its overlay color
type Label struct {
	ID    int32
	Name  string
	Color RGB
}

// Set is a validated, immutable collection of labels ordered by ascending id
type Set struct {
	labels []Label
	byID   map[int32]int
}

// New validates labels and returns them as a Set. Ids must be positive
// (0 is background) and unique; names must be non-empty and unique.
func New(labels ...Label) (*Set, error) {
	s := &Set{
		labels: make([]Label, len(labels)),
		byID:   make(map[int32]int, len(labels)),
	}
	copy(s.labels, labels)
	sort.SliceStable(s.labels, func(i, j int) bool { return s.labels[i].ID < s.labels[j].ID })

	names := make(map[string]bool, len(labels))
	for i, l := range s.labels {
		if l.ID <= 0 {
			return nil, fmt.Errorf("%w: id %d for %q must be positive", ErrInvalidLabel, l.ID, l.Name)
		}
		if l.Name == "" {
			return nil, fmt.Errorf("%w: id %d has no name", ErrInvalidLabel, l.ID)
		}
		if _, dup := s.byID[l.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrInvalidLabel, l.ID)
		}
		if names[l.Name] {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidLabel, l.Name)
		}
		s.byID[l.ID] = i
		names[l.Name] = true
	}
	return s, nil
}

// Default returns the ggo / consolidation / effusion labelling.
// Every call builds a fresh Set.
func Default() *Set {
	s, err := New(
		Label{ID: 1, Name: "ggo", Color: RGB{255, 0, 0}},
		Label{ID: 2, Name: "consolidation", Color: RGB{0, 255, 0}},
		Label{ID: 3, Name: "effusion", Color: RGB{0, 0, 255}},
	)
	if err != nil {
		panic(err)
	}
	return s
}

// ParseColor converts a loosely typed triple (as read from configuration)
// into an RGB. Anything other than 3 components is a shape mismatch.
func ParseColor(components []int) (RGB, error) {
	if len(components) != 3 {
		return RGB{}, &models.ShapeMismatchError{
			Op:   "label color",
			Want: "3 components",
			Got:  fmt.Sprintf("%d components", len(components)),
		}
	}
	var c RGB
	for i, v := range components {
		if v < 0 || v > 255 {
			return RGB{}, fmt.Errorf("%w: color component %d out of range [0, 255]", ErrInvalidLabel, v)
		}
		c[i] = uint8(v)
	}
	return c, nil
}

// Labels returns a copy of the labels in ascending id order
func (s *Set) Labels() []Label {
	out := make([]Label, len(s.labels))
	copy(out, s.labels)
	return out
}

// Len returns the number of labels
func (s *Set) Len() int {
	return len(s.labels)
}

// Lookup returns the label with the given id
func (s *Set) Lookup(id int32) (Label, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Label{}, false
	}
	return s.labels[i], true
}

// ByName returns the label with the given name
func (s *Set) ByName(name string) (Label, bool) {
	for _, l := range s.labels {
		if l.Name == name {
			return l, true
		}
	}
	return Label{}, false
}
