package engine

import "github.com/google/uuid"

// TokenGenerator produces unique tokens identifying component binding
// instances in logs and traces. Implemented by UUIDv7Generator (production)
// and testutil.SequenceTokenGenerator (tests).
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 binding tokens.
//
// UUIDv7 embeds a timestamp in the most significant bits, so tokens sort by
// instance creation time, which is helpful when reading traces of deep
// mounts.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
