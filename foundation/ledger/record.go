package ledger

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/trustlabs/ledger/foundation/validate"
)

// Record is the flat serialization of a sealed block for exchange
// with storage, transport, and display collaborators. The field
// names and value encodings are part of the hashing contract: any
// collaborator that persists or transmits records must preserve them
// exactly or digests recomputed elsewhere will not match.
// Only the hash fields carry format constraints. An empty event type
// and an epoch-zero timestamp are both sealable, so they must round
// trip through export and replay untouched.
type Record struct {
	TimeStamp     int64   `json:"timestamp"`
	EventType     string  `json:"event_type"`
	Payload       Payload `json:"payload"`
	PrevBlockHash string  `json:"previous_hash" validate:"required,len=64,hexadecimal,lowercase"`
	BlockHash     string  `json:"block_hash" validate:"required,len=64,hexadecimal,lowercase"`
}

// NewRecord constructs the export form of a sealed block.
func NewRecord(block Block) Record {
	return Record{
		TimeStamp:     block.TimeStamp,
		EventType:     block.EventType,
		Payload:       block.Payload,
		PrevBlockHash: block.PrevBlockHash,
		BlockHash:     block.BlockHash,
	}
}

// Block converts the record back into a block value. The recorded
// hashes are carried as-is; Reconstruct decides whether they hold.
func (r Record) Block() Block {
	return Block{
		TimeStamp:     r.TimeStamp,
		EventType:     r.EventType,
		Payload:       r.Payload,
		PrevBlockHash: r.PrevBlockHash,
		BlockHash:     r.BlockHash,
	}
}

// Records returns the export form of the whole chain.
func (l *Ledger) Records() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()

	records := make([]Record, len(l.blocks))
	for i, block := range l.blocks {
		records[i] = NewRecord(block)
	}

	return records
}

// =============================================================================

// Reconstruct rebuilds a ledger from records previously produced by
// Records. Hash fields are format checked before any hashing is
// attempted, then every record is replayed through the sealer with
// its recorded timestamp. The reconstructed chain therefore carries
// exactly the digests the records claim, or the reconstruction
// fails: a malformed digest as ErrMalformedHash, a digest that does
// not hold as *IntegrityError.
func Reconstruct(cfg Config, records []Record) (*Ledger, error) {
	ev := safeHandler(cfg.EvHandler)

	if len(records) == 0 {
		return nil, errors.New("no records to reconstruct from")
	}

	for i, record := range records {
		if err := validate.Check(record); err != nil {
			return nil, fmt.Errorf("record %d: %w: %v", i, ErrMalformedHash, err)
		}

		// The hexadecimal tag tolerates a 0x prefix, which is not a
		// valid digest form here.
		if err := checkHash(record.PrevBlockHash); err != nil {
			return nil, fmt.Errorf("record %d: previous hash: %w", i, err)
		}
		if err := checkHash(record.BlockHash); err != nil {
			return nil, fmt.Errorf("record %d: block hash: %w", i, err)
		}
	}

	if records[0].PrevBlockHash != ZeroHash {
		return nil, &IntegrityError{Index: 0, Check: CheckLinkage, Got: records[0].PrevBlockHash, Exp: ZeroHash}
	}

	blocks := make([]Block, len(records))
	for i, record := range records {
		blocks[i] = record.Block()
	}

	if err := validateBlocks(blocks, ev); err != nil {
		return nil, err
	}

	l := Ledger{
		id:        uuid.New().String(),
		evHandler: ev,
		blocks:    blocks,
	}

	ev("ledger: reconstruct: id[%s]: blocks[%d]: tail[%s]", l.id, len(blocks), blocks[len(blocks)-1].BlockHash)

	return &l, nil
}
