package reconcile

import (
	"errors"
	"fmt"
)

// DuplicateKeyError reports that the same key appeared more than once in the
// new sequence of a single pass. Duplicate keys would make the map fallback
// silently overwrite one of the entries, so the pass is rejected instead.
type DuplicateKeyError struct {
	// Key is the duplicated key.
	Key string

	// First and Second are the positions of the two occurrences in the
	// new sequence.
	First  int
	Second int
}

// Error implements the error interface.
func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key %q in keyed sequence (positions %d and %d)", e.Key, e.First, e.Second)
}

// IsDuplicateKey returns true if err is (or wraps) a DuplicateKeyError.
func IsDuplicateKey(err error) bool {
	var dk *DuplicateKeyError
	return errors.As(err, &dk)
}
