package render

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// Fit scales img to width x height. Images already at that size are
// returned unchanged.
func Fit(img image.Image, width, height int) image.Image {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// Flatten composites layers bottom to top onto a width x height image.
// Nil layers are skipped.
func Flatten(width, height int, layers ...image.Image) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	for _, layer := range layers {
		if layer == nil {
			continue
		}
		fitted := Fit(layer, width, height)
		xdraw.Draw(dst, dst.Bounds(), fitted, fitted.Bounds().Min, xdraw.Over)
	}
	return dst
}
