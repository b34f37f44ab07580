package camera

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"scanpay/internal/services/scanner"

	skipqr "github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const payload = "upi://pay?pa=merchant@bank&pn=Test%20Store&am=850.00&cu=INR&mc=1234&tr=TXN1"

func writeBlank(t *testing.T, path string) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(0, 0, color.Black)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func setupRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	back := filepath.Join(root, "cam0")
	require.NoError(t, os.MkdirAll(back, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(back, LabelFile), []byte("Back Camera\n"), 0o644))
	writeBlank(t, filepath.Join(back, "001.png"))
	require.NoError(t, skipqr.WriteFile(payload, skipqr.Medium, 256, filepath.Join(back, "002.png")))

	front := filepath.Join(root, "cam1")
	require.NoError(t, os.MkdirAll(front, 0o755))
	return root
}

func TestDirDevices(t *testing.T) {
	root := setupRoot(t)
	d := NewDirDevices(root)

	s, err := d.RequestStream(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	devices, err := d.Devices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []scanner.Device{{ID: "cam0", Label: "Back Camera"}, {ID: "cam1", Label: "cam1"}}, devices)

	_, err = NewDirDevices(filepath.Join(root, "missing")).RequestStream(context.Background())
	assert.Error(t, err)
}

func TestReader_DecodesFramesInOrder(t *testing.T) {
	root := setupRoot(t)
	r := NewReader(root)
	sink := &LastFrameSink{}

	_, err := r.DecodeOnce(context.Background(), "cam0", sink)
	assert.ErrorIs(t, err, scanner.ErrNotFound)

	text, err := r.DecodeOnce(context.Background(), "cam0", sink)
	require.NoError(t, err)
	assert.Equal(t, payload, text)

	last, n := sink.Last()
	assert.NotNil(t, last)
	assert.Equal(t, 2, n)

	// Frames wrap around; Reset rewinds.
	r.Reset()
	_, err = r.DecodeOnce(context.Background(), "cam0", sink)
	assert.ErrorIs(t, err, scanner.ErrNotFound)
}

func TestReader_EmptyDeviceIsNotFound(t *testing.T) {
	root := setupRoot(t)
	_, err := NewReader(root).DecodeOnce(context.Background(), "cam1", nil)
	assert.ErrorIs(t, err, scanner.ErrNotFound)
}

func TestReader_MissingDeviceIsDeviceError(t *testing.T) {
	root := setupRoot(t)
	_, err := NewReader(root).DecodeOnce(context.Background(), "cam9", nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, scanner.ErrNotFound)
}

func TestReader_HonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewReader(setupRoot(t)).DecodeOnce(ctx, "cam0", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
