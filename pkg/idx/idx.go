package idx

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID is a ULID used for session and request identifiers.
type ID string

// Zero is the empty ID.
const Zero ID = ""

// ErrInvalid reports a malformed ULID string.
var ErrInvalid = errors.New("idx: invalid ulid")

var (
	globalOnce sync.Once
	global     *generator
)

// generator hands out monotonic ULIDs; the entropy source is not safe for
// concurrent use on its own.
type generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func (g *generator) newAt(t time.Time) ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	return ID(ulid.MustNew(ulid.Timestamp(t), g.entropy).String())
}

func gen() *generator {
	globalOnce.Do(func() {
		global = &generator{entropy: ulid.Monotonic(rand.Reader, 0)}
	})
	return global
}

// New returns a lexicographically sortable ID for the current time.
func New() ID { return gen().newAt(time.Now().UTC()) }

// NewAt generates an ID at t. Mostly useful in tests.
func NewAt(t time.Time) ID { return gen().newAt(t.UTC()) }

// Parse validates s as a ULID. Lowercase input is accepted and normalised.
func Parse(s string) (ID, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Zero, ErrInvalid
	}
	if _, err := ulid.ParseStrict(s); err != nil {
		return Zero, ErrInvalid
	}
	return ID(s), nil
}

// MustParse parses or panics. Useful for hard-coded IDs in tests.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ID) IsZero() bool   { return id == Zero }
func (id ID) String() string { return string(id) }

// Time extracts the embedded timestamp, or the zero time for invalid IDs.
func (id ID) Time() time.Time {
	u, err := ulid.ParseStrict(id.String())
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time())
}
