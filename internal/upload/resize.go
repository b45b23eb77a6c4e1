// AngelaMos | 2026
// resize.go

package upload

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

const (
	jpegQuality  = 85
	scaleStep    = 0.8
	minDimension = 64
)

// encodeWithinBudget re-encodes img as JPEG, downscaling by steps until
// the output fits maxBytes. Small images pass through a single encode.
func encodeWithinBudget(img image.Image, maxBytes int) ([]byte, error) {
	current := img

	for {
		var buf bytes.Buffer
		err := jpeg.Encode(&buf, current, &jpeg.Options{Quality: jpegQuality})
		if err != nil {
			return nil, fmt.Errorf("encode image: %w", err)
		}

		if buf.Len() <= maxBytes {
			return buf.Bytes(), nil
		}

		bounds := current.Bounds()
		w := int(float64(bounds.Dx()) * scaleStep)
		h := int(float64(bounds.Dy()) * scaleStep)
		if w < minDimension || h < minDimension {
			return nil, fmt.Errorf(
				"image cannot be reduced to %d bytes", maxBytes,
			)
		}

		current = scale(current, w, h)
	}
}

func scale(src image.Image, w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}
