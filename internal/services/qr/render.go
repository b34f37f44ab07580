package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultRenderSize is the PNG edge length in pixels.
const DefaultRenderSize = 256

// RenderPNG encodes the record as a payment URI inside a QR code image.
func RenderPNG(rec *Record, size int) ([]byte, error) {
	if rec == nil || rec.PayeeAddress == "" {
		return nil, fmt.Errorf("render: %s", MsgPayeeAddressMandatory)
	}
	if size <= 0 {
		size = DefaultRenderSize
	}
	png, err := qrcode.Encode(Build(rec), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return png, nil
}
