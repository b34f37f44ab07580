// Package camera provides file-backed implementations of the scanner's camera
// contracts. Each subdirectory of the root is a device and the images inside
// it are its frames, read in name order.
package camera

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"scanpay/internal/services/scanner"
)

// LabelFile, when present in a device directory, holds the device label.
const LabelFile = "label"

var frameExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true}

type DirDevices struct {
	Root string
}

func NewDirDevices(root string) *DirDevices {
	return &DirDevices{Root: root}
}

type stream struct{}

func (stream) Close() error { return nil }

// RequestStream succeeds when the root directory is readable.
func (d *DirDevices) RequestStream(ctx context.Context) (scanner.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(d.Root)
	if err != nil {
		return nil, fmt.Errorf("open camera root: %w", err)
	}
	defer f.Close()
	if _, err := f.Readdirnames(1); err != nil {
		return nil, fmt.Errorf("read camera root: %w", err)
	}
	return stream{}, nil
}

func (d *DirDevices) Devices(ctx context.Context) ([]scanner.Device, error) {
	entries, err := os.ReadDir(d.Root)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	var devices []scanner.Device
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		label := e.Name()
		if b, err := os.ReadFile(filepath.Join(d.Root, e.Name(), LabelFile)); err == nil {
			if l := strings.TrimSpace(string(b)); l != "" {
				label = l
			}
		}
		devices = append(devices, scanner.Device{ID: e.Name(), Label: label})
	}
	return devices, nil
}

func listFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var frames []string
	for _, e := range entries {
		if e.IsDir() || !frameExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		frames = append(frames, filepath.Join(dir, e.Name()))
	}
	sort.Strings(frames)
	return frames, nil
}
