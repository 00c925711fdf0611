package render

import (
	"image"
	"math"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// CoverRect returns the centered source crop that fills a dstW x dstH box
// without distortion (CSS object-fit: cover).
func CoverRect(srcW, srcH int, dstW, dstH float64) image.Rectangle {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return image.Rect(0, 0, max(srcW, 0), max(srcH, 0))
	}
	srcAspect := float64(srcW) / float64(srcH)
	dstAspect := dstW / dstH

	if srcAspect > dstAspect {
		// Source is wider: crop left and right.
		w := int(math.Round(float64(srcH) * dstAspect))
		w = min(max(w, 1), srcW)
		x := (srcW - w) / 2
		return image.Rect(x, 0, x+w, srcH)
	}
	h := int(math.Round(float64(srcW) / dstAspect))
	h = min(max(h, 1), srcH)
	y := (srcH - h) / 2
	return image.Rect(0, y, srcW, y+h)
}

// drawCover draws img cover-fit into the box at (x, y).
func drawCover(dc *gg.Context, img image.Image, x, y, w, h float64) {
	buf := gg.ImageBufFromImage(img)
	srcW, srcH := buf.Bounds()
	src := CoverRect(srcW, srcH, w, h)
	dc.DrawImageEx(buf, gg.DrawImageOptions{
		X:             x,
		Y:             y,
		DstWidth:      w,
		DstHeight:     h,
		SrcRect:       &src,
		Interpolation: gg.InterpBilinear,
		Opacity:       1,
		BlendMode:     gg.BlendNormal,
	})
}

// drawRaster draws img centered on (cx, cy) at its native size.
func drawRaster(dc *gg.Context, img image.Image, cx, cy, opacity float64) {
	b := img.Bounds()
	dc.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{
		X:             cx - float64(b.Dx())/2,
		Y:             cy - float64(b.Dy())/2,
		Interpolation: gg.InterpBilinear,
		Opacity:       opacity,
		BlendMode:     gg.BlendNormal,
	})
}

// transformRaster scales and rotates src about its center into a new RGBA
// image large enough to hold the result. degrees rotate clockwise.
func transformRaster(src image.Image, scale, degrees float64) *image.RGBA {
	b := src.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	theta := degrees * math.Pi / 180
	sin, cos := math.Sin(theta), math.Cos(theta)

	// Right angles leave sin or cos off zero by ~1e-16; snap before Ceil.
	dstW := int(math.Ceil(scale*(math.Abs(w*cos)+math.Abs(h*sin)) - 1e-9))
	dstH := int(math.Ceil(scale*(math.Abs(w*sin)+math.Abs(h*cos)) - 1e-9))
	dst := image.NewRGBA(image.Rect(0, 0, max(dstW, 1), max(dstH, 1)))

	a, bb := scale*cos, -scale*sin
	d, e := scale*sin, scale*cos
	scx := float64(b.Min.X) + w/2
	scy := float64(b.Min.Y) + h/2
	dcx, dcy := float64(dst.Bounds().Dx())/2, float64(dst.Bounds().Dy())/2

	m := f64.Aff3{
		a, bb, dcx - (a*scx + bb*scy),
		d, e, dcy - (d*scx + e*scy),
	}
	draw.BiLinear.Transform(dst, m, src, b, draw.Over, nil)
	return dst
}

// drawHeart fills a heart centered on (cx, cy) with the given width.
func drawHeart(dc *gg.Context, cx, cy, size float64, hex string) {
	s := size / 2
	top := cy - s*0.45
	dc.NewSubPath()
	dc.MoveTo(cx, top+s*0.35)
	dc.CubicTo(cx, top, cx-s*0.5, top-s*0.35, cx-s*0.85, top)
	dc.CubicTo(cx-s*1.2, top+s*0.35, cx-s, top+s*0.9, cx, cy+s*0.8)
	dc.CubicTo(cx+s, top+s*0.9, cx+s*1.2, top+s*0.35, cx+s*0.85, top)
	dc.CubicTo(cx+s*0.5, top-s*0.35, cx, top, cx, top+s*0.35)
	dc.ClosePath()
	dc.SetHexColor(hex)
	_ = dc.Fill()
}

// drawShadow fills a soft offset silhouette under a rounded box.
func drawShadow(dc *gg.Context, x, y, w, h, radius float64) {
	for i, alpha := range []float64{0.05, 0.07, 0.09} {
		spread := float64(3 - i)
		dc.SetRGBA(0, 0, 0, alpha)
		dc.DrawRoundedRectangle(x-spread+2, y-spread+6, w+2*spread, h+2*spread, radius+spread)
		_ = dc.Fill()
	}
}

// setHexAlpha sets a theme color with an explicit alpha.
func setHexAlpha(dc *gg.Context, hex string, alpha float64) {
	c := gg.Hex(hex)
	dc.SetRGBA(c.R, c.G, c.B, alpha)
}
