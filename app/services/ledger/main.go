// This program drives a trust ledger through the scripted banking
// scenario: a handful of account events are appended, the chain is
// verified, and a recorded payload is then rewritten in place to
// show that verification pins down the exact tampered block. All
// ledger narration is fanned out through the events hub and rendered
// as structured logs.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/ardanlabs/conf/v3"
	"github.com/trustlabs/ledger/foundation/events"
	"github.com/trustlabs/ledger/foundation/ledger"
	"github.com/trustlabs/ledger/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("LEDGER")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Demo struct {
			Tamper     bool `conf:"default:true"`
			ExportFile string
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "hash-linked event ledger driver",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "LEDGER"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting driver", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Ledger Support

	// The hub's Send takes the ledger's narration signature, so it is
	// wired in directly below and the raw messages fan out to every
	// registered reporter. The core never decides how they render.
	evts := events.New()

	const reporterID = "driver"
	ch := evts.Acquire(reporterID)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for msg := range ch {
			log.Infow("ledger", "event", msg)
		}
	}()

	ldgr, err := ledger.New(ledger.Config{EvHandler: evts.Send})
	if err != nil {
		return fmt.Errorf("constructing ledger: %w", err)
	}

	// =========================================================================
	// Banking Scenario

	scenario := []struct {
		eventType string
		payload   ledger.Payload
	}{
		{"ACCOUNT_CREATED", ledger.Payload{"account_id": "U456", "initial_balance": 0.0}},
		{"DEPOSIT_MADE", ledger.Payload{"account_id": "U456", "amount": 100.0, "source": "ATM"}},
		{"WITHDRAWAL_ATTEMPT", ledger.Payload{"account_id": "U456", "amount": 50.0, "success": true}},
	}

	for _, step := range scenario {
		block, err := ldgr.Append(step.eventType, step.payload)
		if err != nil {
			return fmt.Errorf("appending %s: %w", step.eventType, err)
		}
		log.Infow("event appended", "type", step.eventType, "hash", block.BlockHash)
	}

	if err := ldgr.Validate(); err != nil {
		return fmt.Errorf("freshly built chain failed validation: %w", err)
	}
	log.Infow("chain verified", "blocks", ldgr.Length(), "tail", ldgr.LatestBlock().BlockHash)

	// =========================================================================
	// Export

	if cfg.Demo.ExportFile != "" {
		data, err := json.MarshalIndent(ldgr.Records(), "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling records: %w", err)
		}
		if err := os.WriteFile(cfg.Demo.ExportFile, data, 0644); err != nil {
			return fmt.Errorf("writing records: %w", err)
		}
		log.Infow("records exported", "file", cfg.Demo.ExportFile, "records", ldgr.Length())
	}

	// =========================================================================
	// Tamper Walkthrough

	if cfg.Demo.Tamper {

		// Rewrite the recorded deposit in place. The payload maps
		// returned by Blocks are shared with the chain, so this is
		// exactly the kind of mutation only Validate can catch.
		blocks := ldgr.Blocks()
		blocks[2].Payload["amount"] = 50000.0
		log.Infow("tampering", "block", 2, "field", "amount", "value", 50000.0)

		err := ldgr.Validate()

		var ierr *ledger.IntegrityError
		if !errors.As(err, &ierr) {
			return errors.New("tampering went undetected")
		}

		log.Infow("tamper detected", "block", ierr.Index, "check", ierr.Check, "got", ierr.Got, "exp", ierr.Exp)
	}

	evts.Shutdown()
	wg.Wait()

	return nil
}
