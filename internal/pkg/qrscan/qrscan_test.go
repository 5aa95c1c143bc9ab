package qrscan_test

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/qrscan"
)

func TestScanner_Scan(t *testing.T) {
	t.Parallel()

	texts := []string{
		"otpauth://totp/Example:alice@example.com?secret=JBSWY3DPEHPK3PXP&issuer=Example",
		"otpauth-migration://offline?data=CjEKCkhlbGxvId6tvu8SGGFsaWNlQGV4YW1wbGUuY29tGgdFeGFtcGxlIAEoATACEAE",
	}

	scanner := qrscan.New()
	for _, text := range texts {
		img, err := qrcode.Encode(text, qrcode.Medium, 512)
		require.NoError(t, err)

		got, found, err := scanner.Scan(img)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, text, got)
	}
}

func TestScanner_Scan_JPEG(t *testing.T) {
	t.Parallel()

	text := "otpauth://totp/bob?secret=GEZDGNBVGY3TQOJQ"
	q, err := qrcode.New(text, qrcode.High)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, q.Image(400), &jpeg.Options{Quality: 90}))

	got, found, err := qrscan.New().Scan(buf.Bytes())
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, text, got)
}

func TestScanner_Scan_NoCode(t *testing.T) {
	t.Parallel()

	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for x := range 64 {
		for y := range 64 {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	got, found, err := qrscan.New().Scan(buf.Bytes())
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, got)
}

func TestScanner_Scan_InvalidImage(t *testing.T) {
	t.Parallel()

	for _, in := range [][]byte{nil, []byte("not an image"), {0x89, 'P', 'N', 'G'}} {
		_, found, err := qrscan.New().Scan(in)
		assert.ErrorIs(t, err, qrscan.ErrInvalidImage)
		assert.False(t, found)
	}
}
