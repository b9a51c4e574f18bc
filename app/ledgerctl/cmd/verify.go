package cmd

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/trustlabs/ledger/foundation/ledger"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [records file]",
	Short: "Reconstruct a ledger from exported records and verify it.",
	Args:  cobra.ExactArgs(1),
	Run:   verifyRun,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func verifyRun(cmd *cobra.Command, args []string) {
	data, err := os.ReadFile(args[0])
	if err != nil {
		pterm.Fatal.Printfln("Reading records: %v", err)
	}

	var records []ledger.Record
	if err := json.Unmarshal(data, &records); err != nil {
		pterm.Fatal.Printfln("Decoding records: %v", err)
	}

	spinner, _ := pterm.DefaultSpinner.Start("Replaying records through the sealer...")

	ldgr, err := ledger.Reconstruct(ledger.Config{}, records)
	if err != nil {
		spinner.Fail("Reconstruction failed.")
		reportFailure(err)
		os.Exit(1)
	}

	spinner.Success("Every recorded digest holds.")
	pterm.Success.Printfln("Chain intact: %d blocks. Tail: %s...", ldgr.Length(), ldgr.LatestBlock().BlockHash[:10])
}

// reportFailure renders a reconstruction failure with enough detail
// to locate the offending record.
func reportFailure(err error) {
	var ierr *ledger.IntegrityError

	switch {
	case errors.As(err, &ierr):
		pterm.Error.Printfln("Integrity failure at block %d: %s.", ierr.Index, ierr.Check)
		pterm.Error.Printfln("  stored:     %s", ierr.Got)
		pterm.Error.Printfln("  recomputed: %s", ierr.Exp)

	case errors.Is(err, ledger.ErrMalformedHash):
		pterm.Error.Printfln("Malformed record: %v", err)

	default:
		pterm.Error.Printfln("%v", err)
	}
}
