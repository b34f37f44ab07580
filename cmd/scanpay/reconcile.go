package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Retry payouts for settled payments whose payout failed",
	Args:  cobra.NoArgs,
	RunE:  runReconcile,
}

func runReconcile(cmd *cobra.Command, args []string) error {
	api, err := newAPIStore()
	if err != nil {
		return err
	}

	rep, err := api.Reconcile(cmd.Context())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Scanned:   %d\n", rep.Scanned)
	fmt.Fprintf(w, "Recovered: %d\n", rep.Recovered)
	fmt.Fprintf(w, "Pending:   %d\n", rep.Pending)
	fmt.Fprintf(w, "Failed:    %d\n", rep.Failed)
	fmt.Fprintf(w, "Skipped:   %d\n", rep.Skipped)
	fmt.Fprintf(w, "Errors:    %d\n", rep.Errors)
	return nil
}
