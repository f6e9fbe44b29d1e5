// Package labels loads the ordered class names a detector was trained on.
package labels

import (
	"errors"
	"fmt"
	"os"
	"strings"

	errs "igvision/pkg/errors"
)

// Set is an immutable, index-addressable list of class names. The index of
// a name is the class ID the detector reports for it.
type Set struct {
	names []string
	index map[string]int
}

// New builds a Set from names, rejecting empty and duplicate entries
func New(names ...string) (*Set, error) {
	if len(names) == 0 {
		return nil, errors.New("label set is empty")
	}

	s := &Set{
		names: make([]string, len(names)),
		index: make(map[string]int, len(names)),
	}
	for i, name := range names {
		if name == "" {
			return nil, fmt.Errorf("label %d is blank", i)
		}
		if prev, ok := s.index[name]; ok {
			return nil, fmt.Errorf("label %q appears at lines %d and %d", name, prev+1, i+1)
		}
		s.names[i] = name
		s.index[name] = i
	}
	return s, nil
}

// Load reads a newline-separated names file. Surrounding whitespace of the
// whole file is ignored; line order defines class IDs.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.ConfigLoad(path, err)
	}

	content := strings.TrimSpace(string(data))
	if content == "" {
		return nil, errs.ConfigLoad(path, errors.New("names file is empty"))
	}

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, "\r")
	}

	set, err := New(lines...)
	if err != nil {
		return nil, errs.ConfigLoad(path, err)
	}
	return set, nil
}

// Len returns the number of labels
func (s *Set) Len() int {
	return len(s.names)
}

// Name returns the label for a class ID
func (s *Set) Name(id int) (string, bool) {
	if id < 0 || id >= len(s.names) {
		return "", false
	}
	return s.names[id], true
}

// Names returns a copy of the labels in class ID order
func (s *Set) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}
