package scanner

import (
	"context"
	"image"

	"scanpay/internal/services/qr"
)

// Stream is a raw media stream opened only to probe camera permission.
type Stream interface {
	Close() error
}

type MediaDevices interface {
	RequestStream(ctx context.Context) (Stream, error)
	Devices(ctx context.Context) ([]Device, error)
}

// VideoSink is the preview surface. It receives every frame handed to the decoder.
type VideoSink interface {
	Show(frame image.Image)
}

// Reader decodes a single frame from a device. It returns ErrNotFound when
// the frame holds no code and must return promptly once ctx is done.
type Reader interface {
	DecodeOnce(ctx context.Context, deviceID string, sink VideoSink) (string, error)
	Reset()
}

// Interpreter re-validates scanned text, usually on the API server.
type Interpreter interface {
	Interpret(ctx context.Context, raw string) (*qr.Result, error)
}

type Service interface {
	State() State
	Subscribe(fn Listener) (unsubscribe func())
	OnDetected(fn DetectFunc)

	RequestPermission(ctx context.Context) (bool, error)
	StartScanning(ctx context.Context, sink VideoSink) error
	StopScanning() error
	ToggleScanning(ctx context.Context, sink VideoSink) error
	Reset() error
	ResetAndRestart(ctx context.Context, sink VideoSink) error
	Dispose() error
}
