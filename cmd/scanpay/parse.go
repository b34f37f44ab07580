package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"scanpay/internal/services/qr"

	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse <uri>",
	Short: "Parse and validate a UPI payment URI",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func runParse(cmd *cobra.Command, args []string) error {
	res := qr.ParseAndValidate(args[0])

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	if !res.IsValid {
		return errors.New("invalid payment URI")
	}
	return nil
}
