package pipeline

import (
	"image"
	"math"
)

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func lerpPoint(a, b point, t float64) point {
	return point{lerp(a.x, b.x, t), lerp(a.y, b.y, t)}
}

func lerpSkeleton(a, b skeleton, t float64) skeleton {
	return skeleton{
		head: lerpPoint(a.head, b.head, t), neck: lerpPoint(a.neck, b.neck, t), hip: lerpPoint(a.hip, b.hip, t),
		lElbow: lerpPoint(a.lElbow, b.lElbow, t), rElbow: lerpPoint(a.rElbow, b.rElbow, t),
		lHand: lerpPoint(a.lHand, b.lHand, t), rHand: lerpPoint(a.rHand, b.rHand, t),
		lKnee: lerpPoint(a.lKnee, b.lKnee, t), rKnee: lerpPoint(a.rKnee, b.rKnee, t),
		lFoot: lerpPoint(a.lFoot, b.lFoot, t), rFoot: lerpPoint(a.rFoot, b.rFoot, t),
	}
}

type canvas struct {
	img  *image.Paletted
	w, h float64
}

func drawSkeleton(w, h int, s skeleton) *image.Paletted {
	c := canvas{img: image.NewPaletted(image.Rect(0, 0, w, h), posePalette), w: float64(w), h: float64(h)}
	unit := math.Min(c.w, c.h)
	stroke := math.Max(1, unit/60)

	c.segment(point{0.15, 0.91}, point{0.85, 0.91}, stroke*1.5, matIndex)

	c.segment(s.neck, s.hip, stroke, figureIndex)
	c.segment(s.neck, s.lElbow, stroke, figureIndex)
	c.segment(s.lElbow, s.lHand, stroke, figureIndex)
	c.segment(s.neck, s.rElbow, stroke, figureIndex)
	c.segment(s.rElbow, s.rHand, stroke, figureIndex)
	c.segment(s.hip, s.lKnee, stroke, figureIndex)
	c.segment(s.lKnee, s.lFoot, stroke, figureIndex)
	c.segment(s.hip, s.rKnee, stroke, figureIndex)
	c.segment(s.rKnee, s.rFoot, stroke, figureIndex)
	c.disc(s.head, unit*0.06, figureIndex)
	return c.img
}

// segment draws a thick line between two unit-space points.
func (c canvas) segment(a, b point, width float64, idx uint8) {
	ax, ay := a.x*c.w, a.y*c.h
	bx, by := b.x*c.w, b.y*c.h
	steps := int(math.Ceil(math.Hypot(bx-ax, by-ay)))
	r := width / 2
	for i := 0; i <= steps; i++ {
		t := 0.0
		if steps > 0 {
			t = float64(i) / float64(steps)
		}
		c.dot(lerp(ax, bx, t), lerp(ay, by, t), r, idx)
	}
}

func (c canvas) disc(center point, radius float64, idx uint8) {
	c.dot(center.x*c.w, center.y*c.h, radius, idx)
}

func (c canvas) dot(cx, cy, r float64, idx uint8) {
	b := c.img.Bounds()
	x0 := max(b.Min.X, int(math.Floor(cx-r)))
	x1 := min(b.Max.X-1, int(math.Ceil(cx+r)))
	y0 := max(b.Min.Y, int(math.Floor(cy-r)))
	y1 := min(b.Max.Y-1, int(math.Ceil(cy+r)))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			if dx*dx+dy*dy <= r*r+0.25 {
				c.img.SetColorIndex(x, y, idx)
			}
		}
	}
}
