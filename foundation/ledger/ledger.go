package ledger

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// EventHandler defines a function that is called when events occur
// in the processing of the ledger. Rendering is left entirely to the
// caller; the ledger itself never writes to a console or log.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to construct a ledger.
type Config struct {
	EvHandler EventHandler
}

// Ledger manages an append-only chain of sealed blocks. Index 0 is
// always the genesis block. A mutex serializes appends so two
// writers can never seal against the same tail. The zero value is
// not usable; construct with New or Reconstruct.
type Ledger struct {
	mu        sync.RWMutex
	id        string
	evHandler EventHandler
	blocks    []Block
}

// New constructs a ledger containing exactly the genesis block.
func New(cfg Config) (*Ledger, error) {
	ev := safeHandler(cfg.EvHandler)

	genesis, err := Seal(EventTypeGenesis, Payload{"message": "Ledger initialized"}, ZeroHash)
	if err != nil {
		return nil, fmt.Errorf("sealing genesis block: %w", err)
	}

	l := Ledger{
		id:        uuid.New().String(),
		evHandler: ev,
		blocks:    []Block{genesis},
	}

	ev("ledger: new: id[%s]: genesis[%s]", l.id, genesis.BlockHash)

	return &l, nil
}

// ID returns the unique id assigned to this ledger instance. The id
// exists for log correlation only and is not part of any hash.
func (l *Ledger) ID() string {
	return l.id
}

// =============================================================================

// Append seals the specified event against the current tail and
// stores the resulting block as the new tail. The appended block is
// returned. Append is atomic: either a fully sealed block is added
// or the chain is left untouched.
func (l *Ledger) Append(eventType string, payload Payload) (Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tail := l.blocks[len(l.blocks)-1]

	block, err := Seal(eventType, payload, tail.BlockHash)
	if err != nil {
		return Block{}, err
	}

	l.blocks = append(l.blocks, block)

	l.evHandler("ledger: append: id[%s]: blk[%d]: type[%s]: hash[%s]", l.id, len(l.blocks)-1, eventType, block.BlockHash)

	return block, nil
}

// Validate checks every block's linkage to its predecessor and the
// consistency of every block's stored hash against a recomputation
// from its recorded content, genesis included. Recorded timestamps
// are reused, so no wall clock is involved and the result is
// reproducible. The first failure is returned as a *IntegrityError;
// nil means the chain is intact. The chain is never mutated.
func (l *Ledger) Validate() error {
	l.mu.RLock()
	blocks := make([]Block, len(l.blocks))
	copy(blocks, l.blocks)
	l.mu.RUnlock()

	l.evHandler("ledger: validate: id[%s]: blocks[%d]", l.id, len(blocks))

	return validateBlocks(blocks, l.evHandler)
}

// validateBlocks runs the linkage and self-hash checks over a
// sequence of sealed blocks. A block's recorded content is only
// re-hashed after the seam to its successor has been checked, so a
// rewritten block hash surfaces as a linkage failure at the
// successor rather than a content failure on the rewritten block.
func validateBlocks(blocks []Block, ev EventHandler) error {
	if len(blocks) == 0 {
		return nil
	}

	selfCheck := func(i int) error {
		block := blocks[i]

		ev("ledger: validate: blk[%d]: check: stored hash matches recorded content", i)

		reseal, err := sealAt(block.TimeStamp, block.EventType, block.Payload, block.PrevBlockHash)
		if err != nil {
			return fmt.Errorf("resealing block %d: %w", i, err)
		}

		if reseal.BlockHash != block.BlockHash {
			return &IntegrityError{Index: i, Check: CheckSelfHash, Got: block.BlockHash, Exp: reseal.BlockHash}
		}

		return nil
	}

	for i := 1; i < len(blocks); i++ {
		ev("ledger: validate: blk[%d]: check: previous hash matches parent block", i)

		if blocks[i].PrevBlockHash != blocks[i-1].BlockHash {
			return &IntegrityError{Index: i, Check: CheckLinkage, Got: blocks[i].PrevBlockHash, Exp: blocks[i-1].BlockHash}
		}

		if err := selfCheck(i - 1); err != nil {
			return err
		}
	}

	return selfCheck(len(blocks) - 1)
}

// =============================================================================

// Blocks returns a copy of the chain's block sequence. The payload
// maps are shared with the chain on purpose: a holder can rewrite a
// recorded payload in place and only Validate will tell. Use Records
// for a fully detached export.
func (l *Ledger) Blocks() []Block {
	l.mu.RLock()
	defer l.mu.RUnlock()

	blocks := make([]Block, len(l.blocks))
	copy(blocks, l.blocks)

	return blocks
}

// LatestBlock returns the current tail of the chain.
func (l *Ledger) LatestBlock() Block {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.blocks[len(l.blocks)-1]
}

// Genesis returns the fixed first block of the chain.
func (l *Ledger) Genesis() Block {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.blocks[0]
}

// Length returns the number of blocks in the chain, genesis included.
func (l *Ledger) Length() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.blocks)
}

// =============================================================================

// safeHandler wraps the configured event handler so the ledger can
// call it without nil checks at every site.
func safeHandler(handler EventHandler) EventHandler {
	return func(v string, args ...any) {
		if handler != nil {
			handler(v, args...)
		}
	}
}
