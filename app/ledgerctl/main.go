package main

import "github.com/trustlabs/ledger/app/ledgerctl/cmd"

func main() {
	cmd.Execute()
}
