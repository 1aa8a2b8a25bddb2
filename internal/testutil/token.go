package testutil

import (
	"fmt"
	"sync"
)

// SequenceTokenGenerator mints binding tokens from a fixed prefix and a
// counter instead of UUIDv7 values.
//
// This enables deterministic test execution and golden snapshot comparison:
// the same scenario with the same SequenceTokenGenerator produces
// byte-identical traces. Every binding still receives a distinct token, so
// dedupe and unmount bookkeeping behave exactly as in production.
//
// Thread-safety: Generate is safe for concurrent use via internal mutex.
type SequenceTokenGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceTokenGenerator creates a generator with the given prefix.
//
// If prefix is empty, "binding" is used. The first token generated is
// "<prefix>-001".
func NewSequenceTokenGenerator(prefix string) *SequenceTokenGenerator {
	if prefix == "" {
		prefix = "binding"
	}
	return &SequenceTokenGenerator{prefix: prefix}
}

// Generate returns the next token in sequence.
//
// Implements engine.TokenGenerator.
func (g *SequenceTokenGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%03d", g.prefix, g.n)
}

// Reset restarts the sequence. The next token is "<prefix>-001" again.
func (g *SequenceTokenGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
