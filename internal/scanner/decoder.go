// file: internal/scanner/decoder.go
// version: 1.0.0
// guid: 2f6a8c0e-4b3d-4d1f-a7e9-1c5b3d7f9a82

package scanner

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
)

// ZXingDecoder reads book barcodes (EAN-13, EAN-8, UPC-A, UPC-E, Code 128)
// from still images.
type ZXingDecoder struct {
	readers []namedReader
	hints   map[gozxing.DecodeHintType]interface{}
}

type namedReader struct {
	format string
	reader gozxing.Reader
}

// NewZXingDecoder creates a decoder trying each supported symbology in turn.
func NewZXingDecoder() *ZXingDecoder {
	return &ZXingDecoder{
		readers: []namedReader{
			{"EAN_13", oned.NewEAN13Reader()},
			{"EAN_8", oned.NewEAN8Reader()},
			{"UPC_A", oned.NewUPCAReader()},
			{"UPC_E", oned.NewUPCEReader()},
			{"CODE_128", oned.NewCode128Reader()},
		},
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

// DecodeSingle returns the text of the first barcode found in img.
func (d *ZXingDecoder) DecodeSingle(ctx context.Context, img image.Image) (string, error) {
	code, _, err := d.decode(ctx, img)
	return code, err
}

func (d *ZXingDecoder) decode(ctx context.Context, img image.Image) (string, string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", "", fmt.Errorf("prepare image: %w", err)
	}
	for _, r := range d.readers {
		if err := ctx.Err(); err != nil {
			return "", "", err
		}
		result, err := r.reader.Decode(bmp, d.hints)
		if err != nil {
			continue
		}
		if text := result.GetText(); text != "" {
			return text, r.format, nil
		}
	}
	return "", "", ErrNoCode
}

// DecodeReader decodes an encoded image (JPEG, PNG or GIF) with dec.
func DecodeReader(ctx context.Context, dec Decoder, r io.Reader) (string, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	return dec.DecodeSingle(ctx, img)
}

// DecodeFile decodes the image file at path with dec.
func DecodeFile(ctx context.Context, dec Decoder, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return DecodeReader(ctx, dec, f)
}

// LoadImage reads an encoded image from r.
func LoadImage(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return img, nil
}
