package events_test

import (
	"testing"

	"github.com/trustlabs/ledger/foundation/events"
	"github.com/trustlabs/ledger/foundation/ledger"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func TestNarrationFanOut(t *testing.T) {
	t.Log("Given the need to fan ledger narration out to reporters.")
	{
		t.Log("\tTest 0:\tWhen wiring a hub as the ledger's narration hook.")
		{
			evts := events.New()
			defer evts.Shutdown()

			ch := evts.Acquire("reporter")

			// The hub's Send is the narration hook; no adapter closure
			// should be needed.
			var _ ledger.EventHandler = evts.Send

			ldgr, err := ledger.New(ledger.Config{EvHandler: evts.Send})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct a ledger: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to construct a ledger.", success)

			select {
			case msg := <-ch:
				if msg == "" {
					t.Errorf("\t%s\tTest 0:\tShould receive a formatted narration message.", failed)
				} else {
					t.Logf("\t%s\tTest 0:\tShould receive a formatted narration message.", success)
				}
			default:
				t.Errorf("\t%s\tTest 0:\tShould have narration buffered for the reporter.", failed)
			}

			if _, err := ldgr.Append("AUDIT_EVENT", ledger.Payload{"seq": 1}); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to append an event: %v", failed, err)
			}

			drained := 0
			for len(ch) > 0 {
				<-ch
				drained++
			}
			if drained == 0 {
				t.Errorf("\t%s\tTest 0:\tShould fan append narration out to the reporter.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould fan append narration out to the reporter.", success)
			}
		}

		t.Log("\tTest 1:\tWhen formatting arguments through Send.")
		{
			evts := events.New()
			defer evts.Shutdown()

			ch := evts.Acquire("reporter")

			evts.Send("ledger: validate: blk[%d]: %s", 2, "ok")

			select {
			case msg := <-ch:
				if msg != "ledger: validate: blk[2]: ok" {
					t.Errorf("\t%s\tTest 1:\tShould format the message: got %q.", failed, msg)
				} else {
					t.Logf("\t%s\tTest 1:\tShould format the message.", success)
				}
			default:
				t.Errorf("\t%s\tTest 1:\tShould have the message buffered.", failed)
			}
		}
	}
}
