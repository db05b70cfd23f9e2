package dataset

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// ErrColumnNotFound is returned whenever a referenced column is absent
// from a Table. It is always wrapped with the column name.
var ErrColumnNotFound = errors.New("column not found")

// ErrLength is returned when a column does not match the table length.
var ErrLength = errors.New("column length mismatch")

// Kind identifies the storage type of a column.
type Kind int

const (
	KindFloat Kind = iota
	KindTime
	KindClock
	KindLabel
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindTime:
		return "time"
	case KindClock:
		return "clock"
	case KindLabel:
		return "label"
	case KindText:
		return "text"
	}
	return "unknown"
}

// Table is an in-memory trade table with named, typed columns.
//
// Missing values are NaN for floats, the zero time for dates, a negative
// duration for clock values and LabelUnknown for labels. A Table is never
// mutated by the stats package; Select returns a copy.
type Table struct {
	n     int
	order []string
	kinds map[string]Kind

	floats map[string][]float64
	times  map[string][]time.Time
	clocks map[string][]time.Duration
	labels map[string][]Label
	texts  map[string][]string
}

// New returns an empty table that will hold n rows.
func New(n int) *Table {
	return &Table{
		n:      n,
		kinds:  map[string]Kind{},
		floats: map[string][]float64{},
		times:  map[string][]time.Time{},
		clocks: map[string][]time.Duration{},
		labels: map[string][]Label{},
		texts:  map[string][]string{},
	}
}

// Len is the number of rows.
func (t *Table) Len() int { return t.n }

// Columns returns column names in insertion order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Has reports whether the named column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.kinds[name]
	return ok
}

// KindOf returns the kind of the named column.
func (t *Table) KindOf(name string) (Kind, error) {
	k, ok := t.kinds[name]
	if !ok {
		return 0, missing(name)
	}
	return k, nil
}

func missing(name string) error {
	return fmt.Errorf("%w: %q", ErrColumnNotFound, name)
}

func (t *Table) add(name string, k Kind, n int) error {
	if name == "" {
		return fmt.Errorf("column name is required")
	}
	if n != t.n {
		return fmt.Errorf("%w: %q has %d rows, table has %d", ErrLength, name, n, t.n)
	}
	if _, ok := t.kinds[name]; !ok {
		t.order = append(t.order, name)
	}
	t.kinds[name] = k
	return nil
}

// SetFloat stores a numeric column.
func (t *Table) SetFloat(name string, v []float64) error {
	if err := t.add(name, KindFloat, len(v)); err != nil {
		return err
	}
	t.floats[name] = v
	return nil
}

// SetTime stores a date/timestamp column.
func (t *Table) SetTime(name string, v []time.Time) error {
	if err := t.add(name, KindTime, len(v)); err != nil {
		return err
	}
	t.times[name] = v
	return nil
}

// SetClock stores a time-of-day column as offsets from midnight.
func (t *Table) SetClock(name string, v []time.Duration) error {
	if err := t.add(name, KindClock, len(v)); err != nil {
		return err
	}
	t.clocks[name] = v
	return nil
}

// SetLabel stores a normalized win/loss column.
func (t *Table) SetLabel(name string, v []Label) error {
	if err := t.add(name, KindLabel, len(v)); err != nil {
		return err
	}
	t.labels[name] = v
	return nil
}

// SetText stores a free-form text column such as ticker.
func (t *Table) SetText(name string, v []string) error {
	if err := t.add(name, KindText, len(v)); err != nil {
		return err
	}
	t.texts[name] = v
	return nil
}

// Float returns the numeric column. The returned slice must not be modified.
func (t *Table) Float(name string) ([]float64, error) {
	v, ok := t.floats[name]
	if !ok {
		return nil, missing(name)
	}
	return v, nil
}

// Time returns the date column.
func (t *Table) Time(name string) ([]time.Time, error) {
	v, ok := t.times[name]
	if !ok {
		return nil, missing(name)
	}
	return v, nil
}

// Clock returns the time-of-day column.
func (t *Table) Clock(name string) ([]time.Duration, error) {
	v, ok := t.clocks[name]
	if !ok {
		return nil, missing(name)
	}
	return v, nil
}

// Label returns the win/loss column.
func (t *Table) Label(name string) ([]Label, error) {
	v, ok := t.labels[name]
	if !ok {
		return nil, missing(name)
	}
	return v, nil
}

// Text returns the text column.
func (t *Table) Text(name string) ([]string, error) {
	v, ok := t.texts[name]
	if !ok {
		return nil, missing(name)
	}
	return v, nil
}

// Select returns a new table holding rows idx, in that order.
func (t *Table) Select(idx []int) *Table {
	out := New(len(idx))
	out.order = append(out.order, t.order...)
	for k, v := range t.kinds {
		out.kinds[k] = v
	}
	for name, col := range t.floats {
		out.floats[name] = pick(col, idx)
	}
	for name, col := range t.times {
		out.times[name] = pick(col, idx)
	}
	for name, col := range t.clocks {
		out.clocks[name] = pick(col, idx)
	}
	for name, col := range t.labels {
		out.labels[name] = pick(col, idx)
	}
	for name, col := range t.texts {
		out.texts[name] = pick(col, idx)
	}
	return out
}

func pick[T any](col []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = col[j]
	}
	return out
}

// Timestamps combines a date column with an optional time-of-day column.
// Either name may be empty. Rows without a date return the zero time.
func (t *Table) Timestamps(dateCol, timeCol string) ([]time.Time, error) {
	out := make([]time.Time, t.n)
	var dates []time.Time
	var clocks []time.Duration
	var err error

	if dateCol != "" {
		if dates, err = t.Time(dateCol); err != nil {
			return nil, err
		}
	}
	if timeCol != "" {
		if clocks, err = t.Clock(timeCol); err != nil {
			return nil, err
		}
	}

	for i := 0; i < t.n; i++ {
		var ts time.Time
		switch {
		case dates != nil:
			d := dates[i]
			if d.IsZero() {
				continue
			}
			ts = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
			if clocks != nil && clocks[i] >= 0 {
				ts = ts.Add(clocks[i])
			} else if clocks == nil {
				ts = d
			}
		case clocks != nil:
			if clocks[i] < 0 {
				continue
			}
			ts = time.Time{}.Add(clocks[i])
		}
		out[i] = ts
	}
	return out, nil
}

// ChronologicalOrder returns the row permutation that sorts the table by
// date and time. Rows without a timestamp go last; ties keep input order.
// With no date or time column the identity order is returned.
func (t *Table) ChronologicalOrder(dateCol, timeCol string) ([]int, error) {
	idx := make([]int, t.n)
	for i := range idx {
		idx[i] = i
	}
	if dateCol == "" && timeCol == "" {
		return idx, nil
	}

	ts, err := t.Timestamps(dateCol, timeCol)
	if err != nil {
		return nil, err
	}
	present := make([]bool, t.n)
	if dateCol != "" {
		for i := range ts {
			present[i] = !ts[i].IsZero()
		}
	} else {
		clocks, _ := t.Clock(timeCol)
		for i := range clocks {
			present[i] = clocks[i] >= 0
		}
	}
	hasTS := func(i int) bool { return present[i] }

	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		ha, hb := hasTS(ia), hasTS(ib)
		if ha != hb {
			return ha
		}
		if !ha {
			return false
		}
		return ts[ia].Before(ts[ib])
	})
	return idx, nil
}

// Valid returns the indices of rows where the named float column is not NaN.
func (t *Table) Valid(name string) ([]int, error) {
	col, err := t.Float(name)
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(col))
	for i, v := range col {
		if !math.IsNaN(v) {
			out = append(out, i)
		}
	}
	return out, nil
}
