package models

import (
	"database/sql/driver"
	"slices"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

var (
	ErrTabExists   = errors.New("tab already exists")
	ErrTabNotFound = errors.New("tab not found")
)

// SavedBooks maps a tab name to the ids of the books saved under it. It is
// stored as a JSON object in users.saved_books.
type SavedBooks map[string][]int

func (s SavedBooks) Value() (driver.Value, error) {
	if s == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string][]int(s))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return string(b), nil
}

func (s *SavedBooks) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = SavedBooks{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return errors.Errorf("unsupported saved_books type %T", src)
	}

	doc := map[string][]int{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return errors.Wrap(err, "decode saved_books")
		}
	}
	for tab, ids := range doc {
		if ids == nil {
			doc[tab] = []int{}
		}
	}
	*s = doc
	return nil
}

// Clone returns a deep copy of the document.
func (s SavedBooks) Clone() SavedBooks {
	out := make(SavedBooks, len(s))
	for tab, ids := range s {
		out[tab] = append([]int{}, ids...)
	}
	return out
}

func (s SavedBooks) HasTab(tab string) bool {
	_, ok := s[tab]
	return ok
}

func (s SavedBooks) CreateTab(tab string) error {
	if s.HasTab(tab) {
		return ErrTabExists
	}
	s[tab] = []int{}
	return nil
}

func (s SavedBooks) DeleteTab(tab string) error {
	if !s.HasTab(tab) {
		return ErrTabNotFound
	}
	delete(s, tab)
	return nil
}

// AddBook appends bookID to tab, creating the tab when it is missing. It
// reports whether the document changed.
func (s SavedBooks) AddBook(tab string, bookID int) bool {
	ids, ok := s[tab]
	if ok && slices.Contains(ids, bookID) {
		return false
	}
	s[tab] = append(ids, bookID)
	return true
}

// RemoveBook drops bookID from an existing tab. It reports whether the
// document changed.
func (s SavedBooks) RemoveBook(tab string, bookID int) (bool, error) {
	ids, ok := s[tab]
	if !ok {
		return false, ErrTabNotFound
	}
	i := slices.Index(ids, bookID)
	if i < 0 {
		return false, nil
	}
	s[tab] = slices.Delete(ids, i, i+1)
	return true, nil
}
