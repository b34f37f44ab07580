// Command scanpay scans UPI payment codes and pays them in USDC through the
// scanpay API.
package main

import (
	"fmt"
	"os"

	"scanpay/internal/config"
	"scanpay/internal/logger"

	"github.com/spf13/cobra"
)

var Version = "dev"

var (
	cfg      *config.Config
	log      *logger.ZapLogger
	apiURL   string
	chainID  int64
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:           "scanpay",
	Short:         "Scan UPI QR codes and pay them with USDC",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !cmd.Flags().Changed("api") {
			apiURL = cfg.APIBaseURL
		}
		if !cmd.Flags().Changed("chain") {
			chainID = cfg.ChainID
		}
		if !cmd.Flags().Changed("log-level") {
			logLevel = "warn"
		}
		log = logger.NewZapLogger(logLevel)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	config.LoadEnv()
	cfg = config.Load()

	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "scanpay API base URL (default API_BASE_URL)")
	rootCmd.PersistentFlags().Int64Var(&chainID, "chain", 0, "chain id to settle on (default CHAIN_ID)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(payCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
