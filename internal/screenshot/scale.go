package screenshot

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// DefaultPixelBudget is the largest width*height sent without downscaling (1366x768).
const DefaultPixelBudget = 1366 * 768

// ScaledSize returns the dimensions an image of width x height is sent at.
//
// Above the budget both sides are multiplied by sqrt(budget/(width*height))
// and floored independently, which can shift the aspect ratio by under a pixel.
func ScaledSize(width, height, budget int) (int, int, bool) {
	pixels := width * height
	if budget <= 0 || pixels <= budget {
		return width, height, false
	}
	factor := math.Sqrt(float64(budget) / float64(pixels))
	newWidth := int(math.Floor(float64(width) * factor))
	newHeight := int(math.Floor(float64(height) * factor))
	return max(newWidth, 1), max(newHeight, 1), true
}

// resize scales img to width x height with Catmull-Rom interpolation.
func resize(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}
