// Package qrscan reads the text of a QR code from an uploaded image.
package qrscan

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// ErrInvalidImage is returned when the bytes are not a PNG, JPEG or GIF image.
var ErrInvalidImage = errors.New("qrscan: invalid image")

// QRScanner decodes the first QR code found in an image.
type QRScanner interface {
	Scan(img []byte) (text string, found bool, err error)
}

// Scanner implements QRScanner with the zxing QR reader.
type Scanner struct {
	hints map[gozxing.DecodeHintType]any
}

// New returns a Scanner that tries harder on noisy photos.
func New() *Scanner {
	return &Scanner{
		hints: map[gozxing.DecodeHintType]any{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

// Scan decodes img and returns the text of the first QR code in it. found is
// false, with a nil error, when the image holds no readable QR code.
func (s *Scanner) Scan(img []byte) (string, bool, error) {
	decoded, _, err := image.Decode(bytes.NewReader(img))
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(decoded)
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}

	// A fresh reader per call; zxing readers keep per-decode state.
	result, err := qrcode.NewQRCodeReader().Decode(bmp, s.hints)
	if err != nil {
		return "", false, nil //nolint:nilerr // not found, checksum and format failures all mean no usable code
	}

	return result.GetText(), true, nil
}
