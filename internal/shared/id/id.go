// Package id provides centralized ID generation for the shell.
//
// Every platform handle the shell hands out or records is a prefixed ULID:
//   - Lexicographic sortability: iteration over tokens is deterministic
//   - Prefixed types: tok_*, srf_*, emb_* make logs readable
//   - Type safety: separate types prevent passing a surface where a
//     container token is expected
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ============================================================================
// Type-Safe ID Wrappers
// ============================================================================

// Token identifies a window container (a region or an embedded task) when
// issuing bounds and visibility commands.
type Token string

// SurfaceID identifies a render surface (the "leash" geometry is applied to).
type SurfaceID string

// EmbeddingID identifies an embedded task handle. It doubles as the launch
// cookie attached to activities the shell starts itself.
type EmbeddingID string

// SubscriberID identifies a broadcast stream subscriber.
type SubscriberID string

// ============================================================================
// ID Prefixes (for debugging and type identification)
// ============================================================================

const (
	TokenPrefix      = "tok"
	SurfacePrefix    = "srf"
	EmbeddingPrefix  = "emb"
	SubscriberPrefix = "sub"
)

// ============================================================================
// ULID Generator
// ============================================================================

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator
func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source.
// Useful for testing with deterministic entropy.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// ============================================================================
// Typed ID Generators
// ============================================================================

// NewToken generates a new container token
func NewToken() Token {
	return Token(Default().GenerateWithPrefix(TokenPrefix))
}

// NewSurfaceID generates a new surface ID
func NewSurfaceID() SurfaceID {
	return SurfaceID(Default().GenerateWithPrefix(SurfacePrefix))
}

// NewEmbeddingID generates a new embedded task ID
func NewEmbeddingID() EmbeddingID {
	return EmbeddingID(Default().GenerateWithPrefix(EmbeddingPrefix))
}

// NewSubscriberID generates a new subscriber ID
func NewSubscriberID() SubscriberID {
	return SubscriberID(Default().GenerateWithPrefix(SubscriberPrefix))
}

func (t Token) String() string        { return string(t) }
func (s SurfaceID) String() string    { return string(s) }
func (e EmbeddingID) String() string  { return string(e) }
func (s SubscriberID) String() string { return string(s) }

// ============================================================================
// Validation
// ============================================================================

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// IsValidPrefixed checks a "prefix_ulid" string against the expected prefix.
func IsValidPrefixed(s, prefix string) bool {
	rest, ok := strings.CutPrefix(s, prefix+"_")
	return ok && IsValid(rest)
}

// Timestamp extracts the timestamp from a prefixed or bare ULID
func Timestamp(s string) (time.Time, error) {
	if i := strings.LastIndexByte(s, '_'); i >= 0 {
		s = s[i+1:]
	}
	parsed, err := ulid.Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
