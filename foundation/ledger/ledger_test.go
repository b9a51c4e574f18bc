package ledger_test

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/trustlabs/ledger/foundation/ledger"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// hexHash matches a well formed block hash.
var hexHash = regexp.MustCompile(`^[0-9a-f]{64}$`)

// =============================================================================

func TestGenesis(t *testing.T) {
	t.Log("Given the need to validate a freshly constructed ledger.")
	{
		t.Log("\tTest 0:\tWhen constructing a new ledger.")
		{
			ldgr, err := ledger.New(ledger.Config{})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct a ledger: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to construct a ledger.", success)

			if length := ldgr.Length(); length != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould have exactly the genesis block: got %d.", failed, length)
			}
			t.Logf("\t%s\tTest 0:\tShould have exactly the genesis block.", success)

			genesis := ldgr.Genesis()

			if genesis.EventType != ledger.EventTypeGenesis {
				t.Errorf("\t%s\tTest 0:\tShould have the genesis event type: got %q.", failed, genesis.EventType)
			} else {
				t.Logf("\t%s\tTest 0:\tShould have the genesis event type.", success)
			}

			if genesis.PrevBlockHash != ledger.ZeroHash {
				t.Errorf("\t%s\tTest 0:\tShould link genesis to the zero sentinel: got %q.", failed, genesis.PrevBlockHash)
			} else {
				t.Logf("\t%s\tTest 0:\tShould link genesis to the zero sentinel.", success)
			}

			if !hexHash.MatchString(genesis.BlockHash) {
				t.Errorf("\t%s\tTest 0:\tShould have a 64 char lowercase hex hash: got %q.", failed, genesis.BlockHash)
			} else {
				t.Logf("\t%s\tTest 0:\tShould have a 64 char lowercase hex hash.", success)
			}

			if msg := genesis.Payload["message"]; msg != "Ledger initialized" {
				t.Errorf("\t%s\tTest 0:\tShould carry the genesis message: got %v.", failed, msg)
			} else {
				t.Logf("\t%s\tTest 0:\tShould carry the genesis message.", success)
			}

			if err := ldgr.Validate(); err != nil {
				t.Errorf("\t%s\tTest 0:\tShould pass validation: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 0:\tShould pass validation.", success)
			}
		}
	}
}

func TestAppendLinkage(t *testing.T) {
	t.Log("Given the need to validate appended blocks link to their predecessor.")
	{
		t.Log("\tTest 0:\tWhen appending a run of events.")
		{
			ldgr, err := ledger.New(ledger.Config{})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct a ledger: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to construct a ledger.", success)

			const appends = 5
			for i := 0; i < appends; i++ {
				if _, err := ldgr.Append("AUDIT_EVENT", ledger.Payload{"seq": i}); err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to append event %d: %v", failed, i, err)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould be able to append %d events.", success, appends)

			blocks := ldgr.Blocks()
			if len(blocks) != appends+1 {
				t.Fatalf("\t%s\tTest 0:\tShould have %d blocks: got %d.", failed, appends+1, len(blocks))
			}
			t.Logf("\t%s\tTest 0:\tShould have %d blocks.", success, appends+1)

			for i := 1; i < len(blocks); i++ {
				if blocks[i].PrevBlockHash != blocks[i-1].BlockHash {
					t.Fatalf("\t%s\tTest 0:\tShould link block %d to block %d.", failed, i, i-1)
				}
				if !hexHash.MatchString(blocks[i].BlockHash) {
					t.Fatalf("\t%s\tTest 0:\tShould have a well formed hash at block %d: got %q.", failed, i, blocks[i].BlockHash)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould link every block to its predecessor.", success)

			if tail := ldgr.LatestBlock(); tail.BlockHash != blocks[len(blocks)-1].BlockHash {
				t.Errorf("\t%s\tTest 0:\tShould report the last appended block as the tail.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould report the last appended block as the tail.", success)
			}

			if err := ldgr.Validate(); err != nil {
				t.Errorf("\t%s\tTest 0:\tShould pass validation: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 0:\tShould pass validation.", success)
			}
		}
	}
}

func TestEndToEndTamper(t *testing.T) {
	t.Log("Given the need to detect an in-place rewrite of recorded history.")
	{
		t.Log("\tTest 0:\tWhen rewriting an account event after sealing.")
		{
			ldgr, err := ledger.New(ledger.Config{})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct a ledger: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to construct a ledger.", success)

			if _, err := ldgr.Append("ACCOUNT_CREATED", ledger.Payload{"account_id": "U456", "initial_balance": 0.0}); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to append ACCOUNT_CREATED: %v", failed, err)
			}
			if _, err := ldgr.Append("DEPOSIT_MADE", ledger.Payload{"account_id": "U456", "amount": 100.0, "source": "ATM"}); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to append DEPOSIT_MADE: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to append the account events.", success)

			if length := ldgr.Length(); length != 3 {
				t.Fatalf("\t%s\tTest 0:\tShould have 3 blocks: got %d.", failed, length)
			}
			t.Logf("\t%s\tTest 0:\tShould have 3 blocks.", success)

			if err := ldgr.Validate(); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould pass validation before tampering: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould pass validation before tampering.", success)

			// The payload maps are shared with the chain on purpose.
			blocks := ldgr.Blocks()
			blocks[1].Payload["amount"] = 50000.0

			err = ldgr.Validate()

			var ierr *ledger.IntegrityError
			if !errors.As(err, &ierr) {
				t.Fatalf("\t%s\tTest 0:\tShould fail validation after tampering: got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould fail validation after tampering.", success)

			if ierr.Index != 1 {
				t.Errorf("\t%s\tTest 0:\tShould report the failure at block 1: got %d.", failed, ierr.Index)
			} else {
				t.Logf("\t%s\tTest 0:\tShould report the failure at block 1.", success)
			}

			if ierr.Check != ledger.CheckSelfHash {
				t.Errorf("\t%s\tTest 0:\tShould report a self-hash mismatch: got %q.", failed, ierr.Check)
			} else {
				t.Logf("\t%s\tTest 0:\tShould report a self-hash mismatch.", success)
			}
		}
	}
}

func TestSerializationError(t *testing.T) {
	t.Log("Given the need to reject payloads that cannot be canonically encoded.")
	{
		t.Log("\tTest 0:\tWhen appending a payload holding a channel.")
		{
			ldgr, err := ledger.New(ledger.Config{})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct a ledger: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to construct a ledger.", success)

			_, err = ldgr.Append("BROKEN", ledger.Payload{"ch": make(chan int)})
			if !errors.Is(err, ledger.ErrSerialization) {
				t.Fatalf("\t%s\tTest 0:\tShould fail with a serialization error: got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould fail with a serialization error.", success)

			if length := ldgr.Length(); length != 1 {
				t.Errorf("\t%s\tTest 0:\tShould leave the chain untouched: got %d blocks.", failed, length)
			} else {
				t.Logf("\t%s\tTest 0:\tShould leave the chain untouched.", success)
			}

			if err := ldgr.Validate(); err != nil {
				t.Errorf("\t%s\tTest 0:\tShould still pass validation: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 0:\tShould still pass validation.", success)
			}
		}
	}
}

func TestMalformedPreviousHash(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"short", "abc123"},
		{"empty", ""},
		{"uppercase", strings.Repeat("A", 64)},
		{"nonhex", strings.Repeat("z", 64)},
		{"prefixed", "0x" + strings.Repeat("0", 62)},
	}

	t.Log("Given the need to reject malformed previous hashes before sealing.")
	{
		for testID, tst := range tests {
			t.Logf("\tTest %d:\tWhen sealing against a %s previous hash.", testID, tst.name)
			{
				f := func(t *testing.T) {
					_, err := ledger.Seal("EVT", ledger.Payload{"a": 1}, tst.hash)
					if !errors.Is(err, ledger.ErrMalformedHash) {
						t.Fatalf("\t%s\tTest %d:\tShould fail with a malformed hash error: got %v.", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould fail with a malformed hash error.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}
