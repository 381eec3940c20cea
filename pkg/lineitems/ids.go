package lineitems

import (
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator mints opaque row ids.
type IDGenerator interface {
	NewID() string
}

// IDFunc adapts a function into an IDGenerator.
type IDFunc func() string

// NewID calls fn.
func (fn IDFunc) NewID() string {
	return fn()
}

// Counter issues prefix-1, prefix-2, ... and is safe for concurrent use.
type Counter struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// NewCounter returns a deterministic generator, mostly for tests and
// replays.
func NewCounter(prefix string) *Counter {
	return &Counter{prefix: prefix}
}

// NewID returns the next id.
func (c *Counter) NewID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	return c.prefix + "-" + strconv.Itoa(c.next)
}

type uuidGenerator struct{}

// NewUUIDs returns a generator of random UUIDv4 ids.
func NewUUIDs() IDGenerator {
	return uuidGenerator{}
}

func (uuidGenerator) NewID() string {
	return uuid.NewString()
}
