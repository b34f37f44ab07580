package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sync"

	"scanpay/internal/services/scanner"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// Reader decodes QR codes from a device's frame files with gozxing. Frames
// are consumed in order and wrap around.
type Reader struct {
	root string

	mu     sync.Mutex
	cursor map[string]int
	hints  map[gozxing.DecodeHintType]interface{}
}

func NewReader(root string) *Reader {
	return &Reader{
		root:   root,
		cursor: make(map[string]int),
		hints:  map[gozxing.DecodeHintType]interface{}{gozxing.DecodeHintType_TRY_HARDER: true},
	}
}

func (r *Reader) DecodeOnce(ctx context.Context, deviceID string, sink scanner.VideoSink) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := r.nextFrame(deviceID)
	if err != nil {
		return "", err
	}
	img, err := loadImage(path)
	if err != nil {
		return "", err
	}
	if sink != nil {
		sink.Show(img)
	}
	return r.decode(img)
}

// Reset rewinds every device to its first frame.
func (r *Reader) Reset() {
	r.mu.Lock()
	r.cursor = make(map[string]int)
	r.mu.Unlock()
}

func (r *Reader) nextFrame(deviceID string) (string, error) {
	frames, err := listFrames(filepath.Join(r.root, deviceID))
	if err != nil {
		return "", fmt.Errorf("device %s: %w", deviceID, err)
	}
	if len(frames) == 0 {
		return "", scanner.ErrNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.cursor[deviceID] % len(frames)
	r.cursor[deviceID] = i + 1
	return frames[i], nil
}

func (r *Reader) decode(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("binarize frame: %w", err)
	}
	res, err := qrcode.NewQRCodeReader().Decode(bmp, r.hints)
	if err != nil {
		var re gozxing.ReaderException
		if errors.As(err, &re) {
			return "", scanner.ErrNotFound
		}
		return "", err
	}
	return res.GetText(), nil
}

// DecodeImage decodes a single image outside of a scan session.
func DecodeImage(img image.Image) (string, error) {
	return NewReader("").decode(img)
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode frame %s: %w", filepath.Base(path), err)
	}
	return img, nil
}
