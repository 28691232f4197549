package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDownscale_ResizesWideImages(t *testing.T) {
	out, format, err := Downscale(encodePNG(t, 400, 200), 100)
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}

func TestDownscale_KeepsSmallImages(t *testing.T) {
	out, format, err := Downscale(encodePNG(t, 40, 20), 100)
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	cfg, err := png.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Width)
}

func TestDownscale_JPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 300, 300)), nil))

	out, format, err := Downscale(buf.Bytes(), 150)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 150, cfg.Width)
}

func TestDownscale_NotAnImage(t *testing.T) {
	_, _, err := Downscale([]byte("definitely not an image"), 100)
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestHash(t *testing.T) {
	hash := Hash([]byte("abc"))

	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", hash)
	assert.Equal(t, hash, Hash([]byte("abc")))
	assert.NotEqual(t, hash, Hash([]byte("abd")))
}
