package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 构造一张带渐变的彩色测试图
func testScreenshot(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessForEInkProducesQuantizedGray(t *testing.T) {
	out, err := ProcessForEInk(testScreenshot(t))
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	gray, ok := decoded.(*image.Gray)
	require.True(t, ok, "output should be 8-bit grayscale")
	assert.Equal(t, image.Rect(0, 0, 32, 32), gray.Bounds())

	// 所有像素都落在 16 级均匀灰度调色板上（步长 17）
	for _, v := range gray.Pix {
		assert.Zero(t, int(v)%17, "pixel value %d not on the 16-level palette", v)
	}
}

func TestProcessForEInkRejectsGarbage(t *testing.T) {
	_, err := ProcessForEInk([]byte("not an image"))
	assert.Error(t, err)
}

func TestEInkPaletteShape(t *testing.T) {
	p := einkPalette()
	require.Len(t, p, grayLevels)
	assert.Equal(t, color.Gray{Y: 0}, p[0])
	assert.Equal(t, color.Gray{Y: 255}, p[grayLevels-1])
}
