package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"scanpay/internal/services/payment"
	"scanpay/internal/services/qr"

	"github.com/spf13/cobra"
)

var (
	payAmount  string
	payYes     bool
	payRedis   bool
	payTimeout time.Duration
)

var payCmd = &cobra.Command{
	Use:   "pay <uri>",
	Short: "Pay a UPI payment URI in USDC",
	Long: `Quote, confirm and pay a UPI payment URI.

A fixed amount in the URI always wins over --amount. Without either the
amount is read from stdin. The quote is shown and must be confirmed
unless --yes is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runPay,
}

func init() {
	addPayFlags(payCmd)
}

func addPayFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&payAmount, "amount", "", "INR amount when the code has none")
	cmd.Flags().BoolVarP(&payYes, "yes", "y", false, "pay without asking for confirmation")
	cmd.Flags().BoolVar(&payRedis, "redis", false, "share the submission guard and quote cache through Redis")
	cmd.Flags().DurationVar(&payTimeout, "timeout", 2*time.Minute, "overall payment timeout")
}

func runPay(cmd *cobra.Command, args []string) error {
	res := qr.ParseAndValidate(args[0])
	return pay(cmd, payment.Scan{Raw: args[0], Result: res, ScannedAt: time.Now()})
}

// pay runs one attempt from quote to outcome.
func pay(cmd *cobra.Command, scan payment.Scan) error {
	if !scan.Result.IsValid {
		return fmt.Errorf("invalid payment code: %s", strings.Join(scan.Result.Errors, "; "))
	}

	ctx, cancel := withTimeout(cmd.Context(), payTimeout)
	defer cancel()

	svc, done, err := buildPayment(ctx, payRedis)
	if err != nil {
		return err
	}
	defer done()

	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	amount := payAmount
	if scan.Result.Data.Amount == "" && amount == "" {
		if amount, err = prompt(in, out, "Amount (INR): "); err != nil {
			return err
		}
	}

	attempt, err := svc.Prepare(ctx, scan, amount, chainID)
	if err != nil {
		return err
	}

	d := attempt.State().Data()
	q := attempt.Quote()
	fmt.Fprintf(out, "Pay to:   %s", d.Record.PayeeAddress)
	if d.Record.PayeeName != "" {
		fmt.Fprintf(out, " (%s)", d.Record.PayeeName)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Amount:   ₹%s\n", q.FiatAmount.StringFixed(2))
	fmt.Fprintf(out, "Rate:     %s USDC/INR\n", q.ExchangeRate.String())
	fmt.Fprintf(out, "Fee:      %s USDC\n", q.NetworkFee.String())
	fmt.Fprintf(out, "Total:    %s USDC on %s\n", q.TotalUSDCAmount.String(), q.NetworkName)

	if !payYes {
		answer, err := prompt(in, out, "Confirm payment? [y/N]: ")
		if err != nil {
			return err
		}
		if a := strings.ToLower(answer); a != "y" && a != "yes" {
			if err := attempt.Cancel(); err != nil {
				return err
			}
			fmt.Fprintln(out, "Payment cancelled.")
			return nil
		}
	}

	outcome, err := attempt.Confirm(ctx)
	if outcome != nil {
		printOutcome(out, outcome)
	}
	return err
}

func printOutcome(w io.Writer, o *payment.Outcome) {
	d := o.State.Data()
	fmt.Fprintf(w, "Status:   %s\n", o.State.Step())
	if o.RecordID != "" {
		fmt.Fprintf(w, "Record:   %s\n", o.RecordID)
	}
	if d.TxHash != "" {
		fmt.Fprintf(w, "Tx hash:  %s\n", d.TxHash)
	}
	if d.TransferID != "" {
		fmt.Fprintf(w, "Transfer: %s (%s)\n", d.TransferID, d.PayoutStatus)
	}
	if o.PartialFailure {
		fmt.Fprintln(w, "USDC was sent but the payout failed; it will be retried by reconciliation.")
	}
	if !o.Audited {
		fmt.Fprintln(w, "Warning: the transaction record could not be fully updated.")
	}
}

func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
