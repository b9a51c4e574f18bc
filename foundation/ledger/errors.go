package ledger

import (
	"errors"
	"fmt"
)

// ErrSerialization is returned when a payload contains values that
// cannot be canonically serialized, such as channels or functions.
var ErrSerialization = errors.New("payload cannot be canonically serialized")

// ErrMalformedHash is returned when a hash string is not a well
// formed digest of 64 lowercase hex characters.
var ErrMalformedHash = errors.New("hash is not a well-formed digest")

// =============================================================================

// Check identifies which integrity check failed during validation.
type Check string

// The set of checks validation performs on every block.
const (
	CheckLinkage  Check = "previous-hash mismatch"
	CheckSelfHash Check = "self-hash mismatch"
)

// IntegrityError reports the first block that failed validation, the
// check it failed, and the digests that disagreed. Callers are
// expected to branch on it rather than treat it as a fault.
type IntegrityError struct {
	Index int
	Check Check
	Got   string
	Exp   string
}

// Error implements the error interface.
func (ie *IntegrityError) Error() string {
	return fmt.Sprintf("integrity failure at block %d: %s: got %s, exp %s", ie.Index, ie.Check, ie.Got, ie.Exp)
}
