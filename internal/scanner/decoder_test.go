// file: internal/scanner/decoder_test.go
// version: 1.0.0
// guid: 9d3f5b7a-1c6e-4f0a-8b2d-4e6a8c0f2b71

package scanner

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ean13Image renders code as an EAN-13 barcode.
func ean13Image(t *testing.T, code string) image.Image {
	t.Helper()
	img, err := oned.NewEAN13Writer().Encode(code, gozxing.BarcodeFormat_EAN_13, 400, 120, nil)
	require.NoError(t, err)
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func TestZXingDecoderEAN13(t *testing.T) {
	dec := NewZXingDecoder()
	code, err := dec.DecodeSingle(context.Background(), ean13Image(t, DefaultSimulateISBN))
	require.NoError(t, err)
	assert.Equal(t, DefaultSimulateISBN, code)
}

func TestZXingDecoderBlankImage(t *testing.T) {
	blank := image.NewGray(image.Rect(0, 0, 200, 80))
	for i := range blank.Pix {
		blank.Pix[i] = 0xff
	}
	_, err := NewZXingDecoder().DecodeSingle(context.Background(), blank)
	assert.ErrorIs(t, err, ErrNoCode)
}

func TestDecodeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.png")
	writePNG(t, path, ean13Image(t, DefaultSimulateISBN))

	code, err := DecodeFile(context.Background(), NewZXingDecoder(), path)
	require.NoError(t, err)
	assert.Equal(t, DefaultSimulateISBN, code)

	_, err = DecodeReader(context.Background(), NewZXingDecoder(), bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestOfferDropsWhenFull(t *testing.T) {
	out := make(chan Detection, 1)
	assert.True(t, Offer(out, Detection{Code: "a"}))
	assert.False(t, Offer(out, Detection{Code: "b"}))
	assert.Equal(t, "a", (<-out).Code)
}

func TestFolderStreamFeedsController(t *testing.T) {
	dir := t.TempDir()
	c, lr, fr := newTestController(t)
	stream := NewFolderStream(dir, NewZXingDecoder())
	stream.Debounce = 50 * time.Millisecond
	c.SetStream(stream)
	require.NoError(t, c.Start())

	writePNG(t, filepath.Join(dir, "IMG_0001.png"), ean13Image(t, DefaultSimulateISBN))

	require.Eventually(t, func() bool {
		return len(lr.calledWith()) == 1
	}, 3*time.Second, 10*time.Millisecond)
	c.Wait()

	assert.Equal(t, []string{DefaultSimulateISBN}, lr.calledWith())
	assert.Len(t, fr.all(), 1)
	assert.Equal(t, StateIdle, c.Status().State)
	assert.NoError(t, stream.Stop())
}

func TestFolderStreamRequiresDecoder(t *testing.T) {
	s := NewFolderStream(t.TempDir(), nil)
	assert.Error(t, s.Start(context.Background(), make(chan Detection, 1)))
}
