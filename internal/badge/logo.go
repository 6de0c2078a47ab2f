package badge

import (
	"image"
	"image/color"
	"sync"
)

var (
	brandColor = color.RGBA{R: 0x79, G: 0x58, B: 0x9f, A: 0xff}

	builtinLogoOnce sync.Once
	builtinLogo     *image.RGBA
)

// defaultLogo is used when no logo file is configured. It is built once and
// only read afterwards.
func defaultLogo() image.Image {
	builtinLogoOnce.Do(func() {
		builtinLogo = drawDefaultLogo(logoWidth, int(logoWidth*defaultLogoRatio))
	})
	return builtinLogo
}

// drawDefaultLogo draws a rounded brand-coloured tile with three bars.
func drawDefaultLogo(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	radius := h / 5
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if insideRounded(x, y, w, h, radius) {
				img.SetRGBA(x, y, brandColor)
			}
		}
	}

	barH := h / 9
	gap := barH
	left := w / 3
	top := (h - 3*barH - 2*gap) / 2
	for i, width := range []int{w / 3, w / 4, w / 6} {
		y0 := top + i*(barH+gap)
		for y := y0; y < y0+barH; y++ {
			for x := left; x < left+width; x++ {
				img.SetRGBA(x, y, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
			}
		}
	}
	return img
}

func insideRounded(x, y, w, h, r int) bool {
	cx, cy := x, y
	switch {
	case x < r:
		cx = r
	case x >= w-r:
		cx = w - r - 1
	}
	switch {
	case y < r:
		cy = r
	case y >= h-r:
		cy = h - r - 1
	}
	dx, dy := x-cx, y-cy
	return dx*dx+dy*dy <= r*r
}
