package fertilizer

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"krushi/entities"
)

var (
	ErrUnknownField = errors.New("unknown fertilizer field")
	ErrInvalidDate  = errors.New("invalid fertilizer date")
)

// IDSource hands out millisecond-timestamp ids that strictly increase, even
// when several rows are added within the same millisecond.
type IDSource struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewIDSource(now func() time.Time) *IDSource {
	if now == nil {
		now = time.Now
	}
	return &IDSource{now: now}
}

func (s *IDSource) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.now().UnixMilli()
	if id <= s.last {
		id = s.last + 1
	}
	s.last = id
	return id
}

// Editor performs copy-on-write edits over an ordered fertilizer list. None of
// its methods mutate the slice they are given or reorder surviving rows.
type Editor struct{ ids *IDSource }

func NewEditor(ids *IDSource) *Editor {
	if ids == nil {
		ids = NewIDSource(nil)
	}
	return &Editor{ids: ids}
}

// Add appends an empty row and returns the new list with the row's id.
func (e *Editor) Add(list []entities.FertilizerRecord) ([]entities.FertilizerRecord, int64) {
	id := e.ids.Next()
	out := make([]entities.FertilizerRecord, len(list), len(list)+1)
	copy(out, list)
	return append(out, entities.FertilizerRecord{ID: id}), id
}

// Remove drops the row with id. An unknown id returns an equal copy.
func Remove(list []entities.FertilizerRecord, id int64) []entities.FertilizerRecord {
	out := make([]entities.FertilizerRecord, 0, len(list))
	for _, f := range list {
		if f.ID != id {
			out = append(out, f)
		}
	}
	return out
}

// Update applies ch to the row with id. An unknown id returns an equal copy.
func Update(list []entities.FertilizerRecord, id int64, ch Change) []entities.FertilizerRecord {
	out := make([]entities.FertilizerRecord, len(list))
	for i, f := range list {
		if f.ID == id {
			ch.apply(&f)
		}
		out[i] = f
	}
	return out
}

// Change is an edit to one column of a row. The id column has no Change.
type Change interface{ apply(*entities.FertilizerRecord) }

type SetType string

func (c SetType) apply(f *entities.FertilizerRecord) { f.Type = string(c) }

type SetQuantity string

func (c SetQuantity) apply(f *entities.FertilizerRecord) { f.Quantity = string(c) }

// SetDate sets the application date; a nil Date clears it.
type SetDate struct{ Date *time.Time }

func (c SetDate) apply(f *entities.FertilizerRecord) {
	if c.Date == nil {
		f.Date = nil
		return
	}
	d := *c.Date
	f.Date = &d
}

// ParseChange maps a column name and its raw text to a Change. Dates use
// YYYY-MM-DD; an empty date clears the column.
func ParseChange(field, value string) (Change, error) {
	switch field {
	case "type":
		return SetType(value), nil
	case "quantity":
		return SetQuantity(value), nil
	case "date":
		value = strings.TrimSpace(value)
		if value == "" {
			return SetDate{}, nil
		}
		d, err := time.Parse("2006-01-02", value)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidDate, value, err)
		}
		return SetDate{Date: &d}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
}
