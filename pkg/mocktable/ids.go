package mocktable

import (
	"fmt"

	"github.com/google/uuid"
)

// IDGenerator produces identifiers for environment, route and response
// entries. Injected so compilation can be made reproducible in tests.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator generates random UUIDs, matching what Mockoon itself
// uses.
type UUIDGenerator struct{}

// NewID implements IDGenerator.
func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// SequentialGenerator generates deterministic identifiers. Test use
// only.
type SequentialGenerator struct {
	n int
}

// NewID implements IDGenerator.
func (g *SequentialGenerator) NewID() string {
	g.n++
	return fmt.Sprintf("id-%04d", g.n)
}
