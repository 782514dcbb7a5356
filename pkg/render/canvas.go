package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/utkarsh5026/tangleview/pkg/layout"
)

// kappa places cubic control points for a quarter circle
const kappa = 0.5522847498

// Align is the horizontal anchor of a text run.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
)

// transform maps a point p to p*scale + offset.
type transform struct {
	scale  float64
	offset layout.Vec
}

func (t transform) apply(p layout.Vec) layout.Vec {
	return p.Scale(t.scale).Add(t.offset)
}

func (t transform) invert(p layout.Vec) layout.Vec {
	return p.Sub(t.offset).Scale(1 / t.scale)
}

// Canvas is a raster drawing surface with a stack of uniform-scale
// transforms. Coordinates passed to drawing calls are in the space of the
// current transform; the base transform maps device units to pixels.
type Canvas struct {
	img   *image.RGBA
	ras   *vector.Rasterizer
	cur   transform
	stack []transform
	font  *opentype.Font
	faces map[int]font.Face
}

// NewCanvas creates a width×height pixel canvas. scale is the number of
// pixels per device unit.
func NewCanvas(width, height int, scale float64) *Canvas {
	if scale <= 0 {
		scale = 1
	}
	return &Canvas{
		img:   image.NewRGBA(image.Rect(0, 0, width, height)),
		ras:   vector.NewRasterizer(width, height),
		cur:   transform{scale: scale},
		faces: make(map[int]font.Face),
	}
}

// Image returns the backing image.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

// Size returns the canvas size in pixels.
func (c *Canvas) Size() (int, int) {
	b := c.img.Bounds()
	return b.Dx(), b.Dy()
}

// Scale returns the current pixels-per-unit factor.
func (c *Canvas) Scale() float64 {
	return c.cur.scale
}

// Save pushes the current transform.
func (c *Canvas) Save() {
	c.stack = append(c.stack, c.cur)
}

// Restore pops the last saved transform.
func (c *Canvas) Restore() {
	if len(c.stack) == 0 {
		return
	}
	c.cur = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

// Translate moves the origin by d in current units.
func (c *Canvas) Translate(d layout.Vec) {
	c.cur.offset = c.cur.offset.Add(d.Scale(c.cur.scale))
}

// Zoom scales the current units by k.
func (c *Canvas) Zoom(k float64) {
	if k > 0 {
		c.cur.scale *= k
	}
}

// Clear fills every pixel with col, ignoring the transform.
func (c *Canvas) Clear(col color.Color) {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
}

// FillRect fills an axis-aligned rectangle.
func (c *Canvas) FillRect(x, y, w, h float64, col color.Color) {
	a := c.cur.apply(layout.Vec{X: x, Y: y})
	b := c.cur.apply(layout.Vec{X: x + w, Y: y + h})

	c.begin()
	c.moveTo(a)
	c.lineTo(layout.Vec{X: b.X, Y: a.Y})
	c.lineTo(b)
	c.lineTo(layout.Vec{X: a.X, Y: b.Y})
	c.ras.ClosePath()
	c.fill(col)
}

// ShadeRect paints a rectangle pixel by pixel. shade receives the position
// of each pixel center in current units.
func (c *Canvas) ShadeRect(x, y, w, h float64, shade func(p layout.Vec) color.Color) {
	a := c.cur.apply(layout.Vec{X: x, Y: y})
	b := c.cur.apply(layout.Vec{X: x + w, Y: y + h})

	r := image.Rect(
		int(math.Floor(a.X)), int(math.Floor(a.Y)),
		int(math.Ceil(b.X)), int(math.Ceil(b.Y)),
	).Intersect(c.img.Bounds())

	for py := r.Min.Y; py < r.Max.Y; py++ {
		for px := r.Min.X; px < r.Max.X; px++ {
			p := c.cur.invert(layout.Vec{X: float64(px) + 0.5, Y: float64(py) + 0.5})
			c.img.Set(px, py, shade(p))
		}
	}
}

// FillCircle fills a disk.
func (c *Canvas) FillCircle(center layout.Vec, r float64, col color.Color) {
	if r <= 0 {
		return
	}
	c.begin()
	c.circle(c.cur.apply(center), r*c.cur.scale, false)
	c.fill(col)
}

// StrokeCircle draws a ring of the given width centered on the circle.
func (c *Canvas) StrokeCircle(center layout.Vec, r, width float64, col color.Color) {
	if r <= 0 || width <= 0 {
		return
	}
	dc := c.cur.apply(center)
	outer := (r + width/2) * c.cur.scale
	inner := (r - width/2) * c.cur.scale

	c.begin()
	c.circle(dc, outer, false)
	if inner > 0 {
		c.circle(dc, inner, true)
	}
	c.fill(col)
}

// Line draws a straight segment of the given width.
func (c *Canvas) Line(from, to layout.Vec, width float64, col color.Color) {
	a := c.cur.apply(from)
	b := c.cur.apply(to)
	d := b.Sub(a)
	l := d.Len()
	if l == 0 || width <= 0 {
		return
	}

	half := math.Max(width*c.cur.scale, 0.75) / 2
	n := layout.Vec{X: -d.Y / l * half, Y: d.X / l * half}

	c.begin()
	c.moveTo(a.Add(n))
	c.lineTo(b.Add(n))
	c.lineTo(b.Sub(n))
	c.lineTo(a.Sub(n))
	c.ras.ClosePath()
	c.fill(col)
}

// Text draws s with its baseline at p. size is in current units.
func (c *Canvas) Text(s string, p layout.Vec, size float64, col color.Color, align Align) {
	face := c.face(size * c.cur.scale)
	if face == nil {
		return
	}

	dot := c.cur.apply(p)
	if align == AlignCenter {
		dot.X -= float64(font.MeasureString(face, s)) / 64 / 2
	}

	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.Int26_6(dot.X * 64), Y: fixed.Int26_6(dot.Y * 64)},
	}
	d.DrawString(s)
}

// face returns a Go Mono face of the given pixel size, or nil when the
// size is too small to be legible.
func (c *Canvas) face(px float64) font.Face {
	size := int(math.Round(px))
	if size < 4 {
		return nil
	}
	if f, ok := c.faces[size]; ok {
		return f
	}

	if c.font == nil {
		f, err := opentype.Parse(gomono.TTF)
		if err != nil {
			return nil
		}
		c.font = f
	}

	face, err := opentype.NewFace(c.font, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil
	}
	c.faces[size] = face
	return face
}

func (c *Canvas) begin() {
	w, h := c.Size()
	c.ras.Reset(w, h)
}

func (c *Canvas) fill(col color.Color) {
	c.ras.DrawOp = draw.Over
	c.ras.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{})
}

func (c *Canvas) moveTo(p layout.Vec) {
	c.ras.MoveTo(float32(p.X), float32(p.Y))
}

func (c *Canvas) lineTo(p layout.Vec) {
	c.ras.LineTo(float32(p.X), float32(p.Y))
}

// circle appends a closed circle in pixel space. Reversed circles wind the
// other way and cut holes.
func (c *Canvas) circle(center layout.Vec, r float64, reverse bool) {
	k := r * kappa
	cx, cy := center.X, center.Y
	f := func(v float64) float32 { return float32(v) }

	if !reverse {
		c.ras.MoveTo(f(cx+r), f(cy))
		c.ras.CubeTo(f(cx+r), f(cy+k), f(cx+k), f(cy+r), f(cx), f(cy+r))
		c.ras.CubeTo(f(cx-k), f(cy+r), f(cx-r), f(cy+k), f(cx-r), f(cy))
		c.ras.CubeTo(f(cx-r), f(cy-k), f(cx-k), f(cy-r), f(cx), f(cy-r))
		c.ras.CubeTo(f(cx+k), f(cy-r), f(cx+r), f(cy-k), f(cx+r), f(cy))
	} else {
		c.ras.MoveTo(f(cx+r), f(cy))
		c.ras.CubeTo(f(cx+r), f(cy-k), f(cx+k), f(cy-r), f(cx), f(cy-r))
		c.ras.CubeTo(f(cx-k), f(cy-r), f(cx-r), f(cy-k), f(cx-r), f(cy))
		c.ras.CubeTo(f(cx-r), f(cy+k), f(cx-k), f(cy+r), f(cx), f(cy+r))
		c.ras.CubeTo(f(cx+k), f(cy+r), f(cx+r), f(cy+k), f(cx+r), f(cy))
	}
	c.ras.ClosePath()
}
