package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/makeworld-the-better-one/dither/v2"
)

// 墨水屏支持的灰度级数
const grayLevels = 16

// einkPalette 16 级均匀灰度调色板
func einkPalette() []color.Color {
	palette := make([]color.Color, grayLevels)
	for i := 0; i < grayLevels; i++ {
		v := uint8(i * 255 / (grayLevels - 1))
		palette[i] = color.Gray{Y: v}
	}
	return palette
}

// ProcessForEInk 把截图处理成墨水屏可用的帧：
// 16 级灰度调色板量化 + Floyd-Steinberg 误差扩散抖动，再编码为灰度 PNG
func ProcessForEInk(input []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}

	d := dither.NewDitherer(einkPalette())
	d.Matrix = dither.FloydSteinberg
	dithered := d.Dither(src)
	if dithered == nil {
		// 可原地修改的图像会被就地抖动并返回 nil，此时结果就在 src 里
		dithered = src
	}

	// 统一转成 8 位灰度帧
	bounds := dithered.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, dithered, bounds.Min, draw.Src)

	var out bytes.Buffer
	if err := png.Encode(&out, gray); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return out.Bytes(), nil
}
