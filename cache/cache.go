// Package cache holds host-owned analysis results keyed by a content hash
// of the inputs. The stats package never touches a cache; callers decide
// when to consult and fill one.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rustyeddy/tradestats/dataset"
	"github.com/rustyeddy/tradestats/stats"
)

// Key is the hex sha256 of a table's content plus the calculation options.
type Key string

// Entry is one cached calculation. Years is nil when no breakdown was
// requested.
type Entry struct {
	RunID   string                         `json:"run_id"`
	Created time.Time                      `json:"created"`
	Result  stats.Result                   `json:"result"`
	Years   map[string]stats.PeriodMetrics `json:"years,omitempty"`
}

// Cache is implemented by Memory and by journal.SQLite.
type Cache interface {
	Get(ctx context.Context, key Key) (Entry, bool, error)
	Put(ctx context.Context, key Key, e Entry) error
}

// KeyOf hashes every column of t, in name order, together with the JSON
// form of opts. Equal tables with equal options always give equal keys.
func KeyOf(t *dataset.Table, opts any) (Key, error) {
	h := sha256.New()

	names := t.Columns()
	sort.Strings(names)
	fmt.Fprintf(h, "rows=%d\n", t.Len())
	for _, name := range names {
		if err := hashColumn(h, t, name); err != nil {
			return "", err
		}
	}

	b, err := json.Marshal(opts)
	if err != nil {
		return "", fmt.Errorf("encode options: %w", err)
	}
	h.Write(b)
	return Key(hex.EncodeToString(h.Sum(nil))), nil
}

func hashColumn(h hash.Hash, t *dataset.Table, name string) error {
	kind, err := t.KindOf(name)
	if err != nil {
		return err
	}
	fmt.Fprintf(h, "%s:%s\n", name, kind)

	var buf [8]byte
	put := func(u uint64) {
		binary.LittleEndian.PutUint64(buf[:], u)
		h.Write(buf[:])
	}

	switch kind {
	case dataset.KindFloat:
		col, _ := t.Float(name)
		for _, v := range col {
			if math.IsNaN(v) {
				v = math.NaN() // one NaN payload
			}
			put(math.Float64bits(v))
		}
	case dataset.KindTime:
		col, _ := t.Time(name)
		for _, v := range col {
			if v.IsZero() {
				put(0)
				continue
			}
			put(uint64(v.UnixNano()))
		}
	case dataset.KindClock:
		col, _ := t.Clock(name)
		for _, v := range col {
			put(uint64(v))
		}
	case dataset.KindLabel:
		col, _ := t.Label(name)
		for _, v := range col {
			h.Write([]byte{byte(v)})
		}
	case dataset.KindText:
		col, _ := t.Text(name)
		for _, v := range col {
			fmt.Fprintf(h, "%d:%s", len(v), v)
		}
	}
	return nil
}

// Memory is an in-process Cache bounded to a number of entries. The oldest
// entry is evicted first.
type Memory struct {
	mu      sync.Mutex
	limit   int
	entries map[Key]Entry
	order   []Key
}

// NewMemory returns a Memory cache. limit <= 0 means unbounded.
func NewMemory(limit int) *Memory {
	return &Memory{limit: limit, entries: map[Key]Entry{}}
}

func (m *Memory) Get(_ context.Context, key Key) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	return e, ok, nil
}

func (m *Memory) Put(_ context.Context, key Key, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[key]; !ok {
		m.order = append(m.order, key)
	}
	m.entries[key] = e

	for m.limit > 0 && len(m.order) > m.limit {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.entries, oldest)
	}
	return nil
}
