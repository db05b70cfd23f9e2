// Package id mints run identifiers. A ULID sorts by creation time, so
// cached reports and journal rows come back in the order they were made.
package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator yields monotonic ULIDs from one entropy source.
type Generator struct {
	mu      sync.Mutex
	now     func() time.Time
	entropy io.Reader
}

// NewGenerator seeds a PRNG from crypto/rand. IDs made in the same
// millisecond stay strictly increasing.
func NewGenerator() *Generator {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		now:     time.Now,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0),
	}
}

// Next returns a new ULID string.
func (g *Generator) Next() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(g.now().UTC()), g.entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

var std = NewGenerator()

// New returns a ULID from the package generator. It panics only if the
// entropy source fails, which crypto seeding rules out in practice.
func New() string {
	s, err := std.Next()
	if err != nil {
		panic(err)
	}
	return s
}

// Time extracts the creation time encoded in a ULID string.
func Time(s string) (time.Time, error) {
	u, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()).UTC(), nil
}
