// Package ledger implements an append-only, hash-linked event ledger.
// Each event is sealed into an immutable block whose hash covers the
// block content and the hash of its predecessor, so any later change
// to a recorded event is detectable by Validate. The package is a
// single-writer, in-memory integrity primitive. It performs no
// persistence, networking, or signing.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// ZeroHash represents the previous hash of the genesis block.
const ZeroHash = "0000000000000000000000000000000000000000000000000000000000000000"

// hashLength is the number of hex characters in a block hash.
const hashLength = 64

// EventTypeGenesis labels the fixed first block of every ledger.
const EventTypeGenesis = "GENESIS"

// =============================================================================

// Payload carries the caller supplied event data. Values must be
// representable in JSON.
type Payload map[string]any

// Block represents a single sealed event in the ledger. Blocks use
// value semantics and the identity fields are never recomputed after
// sealing.
type Block struct {
	TimeStamp     int64   // Seconds since epoch, captured at seal time.
	EventType     string  // Label identifying the domain event kind.
	Payload       Payload // Caller supplied event data.
	PrevBlockHash string  // Hash of the previous block in the chain.
	BlockHash     string  // Hash over the block content, computed once at seal time.
}

// content is the canonical hashing form of a block. The fields are
// declared in lexicographic order of their JSON names so the encoder
// emits them in the order the canonical form requires. Keys inside
// the payload are sorted by the encoder at every nesting depth.
type content struct {
	EventType     string  `json:"event_type"`
	Payload       Payload `json:"payload"`
	PrevBlockHash string  `json:"previous_hash"`
	TimeStamp     int64   `json:"timestamp"`
}

// =============================================================================

// Seal constructs a new immutable Block for the specified event,
// linked to the block identified by prevBlockHash. The wall clock is
// read once for the timestamp. The block hash is the lowercase hex
// SHA-256 digest over the compact JSON canonical form of
// {event_type, payload, previous_hash, timestamp}. The payload is
// cloned through the canonical encoder so the caller's map cannot
// alias sealed state.
func Seal(eventType string, payload Payload, prevBlockHash string) (Block, error) {
	return sealAt(time.Now().Unix(), eventType, payload, prevBlockHash)
}

// sealAt is the wall clock independent sealing path. Validation and
// reconstruction use it to recompute hashes from a block's recorded
// timestamp, since seal time is part of the hashed content.
func sealAt(timeStamp int64, eventType string, payload Payload, prevBlockHash string) (Block, error) {
	if err := checkHash(prevBlockHash); err != nil {
		return Block{}, fmt.Errorf("previous hash: %w", err)
	}

	payload, err := clonePayload(payload)
	if err != nil {
		return Block{}, err
	}

	hash, err := hashContent(content{
		EventType:     eventType,
		Payload:       payload,
		PrevBlockHash: prevBlockHash,
		TimeStamp:     timeStamp,
	})
	if err != nil {
		return Block{}, err
	}

	b := Block{
		TimeStamp:     timeStamp,
		EventType:     eventType,
		Payload:       payload,
		PrevBlockHash: prevBlockHash,
		BlockHash:     hash,
	}

	return b, nil
}

// =============================================================================

// hashContent returns the lowercase hex SHA-256 digest over the
// canonical form of the block content.
func hashContent(c content) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

// clonePayload deep copies the payload through the canonical encoder.
// The round trip proves the payload is canonically serializable and
// detaches the sealed copy from the caller's map. The clone encodes
// to the same canonical bytes as the original, so the hash is always
// computed over the clone that is actually stored.
func clonePayload(payload Payload) (Payload, error) {
	if payload == nil {
		return nil, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	var clone Payload
	if err := json.Unmarshal(data, &clone); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	return clone, nil
}

// checkHash validates a hash is a well formed digest string of 64
// lowercase hex characters. Nothing is hashed against a hash that
// fails this check.
func checkHash(hash string) error {
	if len(hash) != hashLength {
		return fmt.Errorf("%w: got length %d, exp %d", ErrMalformedHash, len(hash), hashLength)
	}

	for i := 0; i < len(hash); i++ {
		c := hash[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return fmt.Errorf("%w: invalid character %q at index %d", ErrMalformedHash, c, i)
		}
	}

	return nil
}
