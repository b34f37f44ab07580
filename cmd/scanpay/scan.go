package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scanpay/internal/camera"
	"scanpay/internal/metrics"
	"scanpay/internal/services/payment"
	"scanpay/internal/services/qr"
	"scanpay/internal/services/scanner"
	"scanpay/internal/utils/httpclient"

	"github.com/spf13/cobra"
)

var (
	scanFrames      string
	scanWait        time.Duration
	scanRemote      bool
	scanDetectOnly  bool
	scanRetryPeriod time.Duration
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a payment code from camera frames, then pay it",
	Long: `Scan a UPI payment code and pay it.

--frames points at a directory with one subdirectory per camera. Each
camera directory holds image frames (png, jpeg, gif) read in name order.
A rear-facing camera is preferred when its label says so.`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanFrames, "frames", "", "directory of camera frame folders")
	scanCmd.Flags().DurationVar(&scanWait, "wait", 30*time.Second, "how long to scan before giving up")
	scanCmd.Flags().BoolVar(&scanRemote, "remote", false, "interpret codes through the API instead of locally")
	scanCmd.Flags().BoolVar(&scanDetectOnly, "detect-only", false, "print the detected code and stop")
	scanCmd.Flags().DurationVar(&scanRetryPeriod, "retry-delay", 0, "pause between frames without a code (default SCAN_RETRY_DELAY)")
	_ = scanCmd.MarkFlagRequired("frames")
	addPayFlags(scanCmd)
}

type detection struct {
	raw string
	res *qr.Result
}

func runScan(cmd *cobra.Command, args []string) error {
	interp, err := newInterpreter()
	if err != nil {
		return err
	}

	retry := scanRetryPeriod
	if retry <= 0 {
		retry = cfg.ScanRetryDelay
	}
	svc := scanner.NewService(
		camera.NewDirDevices(scanFrames),
		camera.NewReader(scanFrames),
		interp,
		log,
		metrics.NoopRecorder{},
		scanner.WithRetryDelay(retry),
	)
	defer func() { _ = svc.Dispose() }()

	detected := make(chan detection, 1)
	failed := make(chan string, 1)
	svc.OnDetected(func(raw string, res *qr.Result) {
		select {
		case detected <- detection{raw: raw, res: res}:
		default:
		}
	})
	unsubscribe := svc.Subscribe(func(st scanner.State) {
		if st.Error != "" && !st.IsLoading && !st.IsScanning {
			select {
			case failed <- st.Error:
			default:
			}
		}
	})
	defer unsubscribe()

	ctx, cancel := context.WithTimeout(cmd.Context(), scanWait)
	defer cancel()

	sink := &camera.LastFrameSink{}
	if err := svc.StartScanning(ctx, sink); err != nil {
		return fmt.Errorf("start scanning: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Scanning...")

	select {
	case d := <-detected:
		_, frames := sink.Last()
		log.Info("payment code detected", map[string]any{"frames": frames, "qrType": d.res.QRType})
		return afterDetect(cmd, d)
	case msg := <-failed:
		return errors.New(msg)
	case <-ctx.Done():
		_ = svc.StopScanning()
		_, frames := sink.Last()
		return fmt.Errorf("no payment code found after %d frames", frames)
	}
}

func afterDetect(cmd *cobra.Command, d detection) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Detected: %s\n", d.raw)
	if scanDetectOnly {
		return nil
	}
	return pay(cmd, payment.Scan{Raw: d.raw, Result: *d.res, ScannedAt: time.Now()})
}

func newInterpreter() (scanner.Interpreter, error) {
	if !scanRemote {
		return qr.NewService(log, metrics.NoopRecorder{}), nil
	}
	client := httpclient.New("qr", apiURL, cfg.HTTPTimeout)
	return qr.NewHTTPInterpreter(client), nil
}
