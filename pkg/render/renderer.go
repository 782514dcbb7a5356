package render

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/utkarsh5026/tangleview/pkg/interact"
	"github.com/utkarsh5026/tangleview/pkg/layout"
	"github.com/utkarsh5026/tangleview/pkg/tangle"
)

// Drawing constants in simulation units unless noted
const (
	GridSpacing   = 40.0
	EdgeWidth     = 2.0
	MarkerRadius  = 3.0
	MarkerAt      = 0.7
	PulseAmp      = 10.0
	PulseWidth    = 3.0
	LabelSize     = 10.0
	LabelDrop     = 3.0
	ShadowOffset  = 2.0
	SelectedWidth = 3.0
	BorderWidth   = 1.0

	// HUD geometry in device units
	HUDX, HUDY, HUDW, HUDH = 10.0, 10.0, 120.0, 60.0
	HUDTextSize            = 12.0
)

// Options toggles optional layers.
type Options struct {
	// Labels draws the short id on every node
	Labels bool

	// HUD draws the zoom/pan box in the top-left corner
	HUD bool

	// Legend draws the air quality legend in the bottom-left corner
	Legend bool
}

// DefaultOptions draws labels and the HUD. The legend is off because
// interactive hosts show it beside the canvas.
func DefaultOptions() Options {
	return Options{Labels: true, HUD: true, Legend: false}
}

// Frame is everything needed to paint one picture.
type Frame struct {
	Store    *layout.Store
	View     interact.Viewport
	Selected string
	Now      time.Time
}

// Renderer paints frames onto a Canvas. It never advances the simulation.
type Renderer struct {
	opts Options
}

// NewRenderer creates a renderer
func NewRenderer(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

// Options returns the renderer options.
func (r *Renderer) Options() Options {
	return r.opts
}

// SetOptions replaces the renderer options.
func (r *Renderer) SetOptions(opts Options) {
	r.opts = opts
}

// Draw paints f onto c: background, edges and nodes under the viewport
// transform, then the overlays in device space.
func (r *Renderer) Draw(c *Canvas, f Frame) {
	params := f.Store.Params()

	c.Clear(backgroundOuter)

	c.Save()
	c.Translate(f.View.Pan)
	c.Zoom(zoomOf(f.View))

	r.drawBackground(c, params)
	r.drawEdges(c, f)
	r.drawNodes(c, f)

	c.Restore()

	if r.opts.HUD {
		r.drawHUD(c, f.View)
	}
	if r.opts.Legend {
		r.drawLegend(c)
	}
}

func (r *Renderer) drawBackground(c *Canvas, p layout.Params) {
	center := p.Center()
	radius := math.Max(p.Width, p.Height)

	c.ShadeRect(0, 0, p.Width, p.Height, func(pt layout.Vec) color.Color {
		return lerp(backgroundInner, backgroundOuter, pt.Dist(center)/radius)
	})

	for x := 0.0; x <= p.Width; x += GridSpacing {
		c.Line(layout.Vec{X: x, Y: 0}, layout.Vec{X: x, Y: p.Height}, 1, gridColor)
	}
	for y := 0.0; y <= p.Height; y += GridSpacing {
		c.Line(layout.Vec{X: 0, Y: y}, layout.Vec{X: p.Width, Y: y}, 1, gridColor)
	}
}

func (r *Renderer) drawEdges(c *Canvas, f Frame) {
	ms := float64(f.Now.UnixMilli())

	for _, e := range f.Store.Edges() {
		from, okFrom := f.Store.Node(e.From)
		to, okTo := f.Store.Node(e.To)
		if !okFrom || !okTo {
			continue
		}

		var col color.Color = edgeStatic
		if e.Animated {
			col = edgeAnimated(ms)
		}
		c.Line(from.Pos, to.Pos, EdgeWidth, col)

		d := to.Pos.Sub(from.Pos)
		if d.Len() > 0 {
			c.FillCircle(from.Pos.Add(d.Scale(MarkerAt)), MarkerRadius, edgeMarker)
		}
	}
}

func (r *Renderer) drawNodes(c *Canvas, f Frame) {
	for _, n := range f.Store.Nodes() {
		shadow := n.Pos.Add(layout.Vec{X: ShadowOffset, Y: ShadowOffset})
		c.FillCircle(shadow, n.Radius+2, rgba(0, 0, 0, 0.1))
		c.FillCircle(shadow, n.Radius, shadowColor)

		c.FillCircle(n.Pos, n.Radius, n.Color)

		if n.IsNew {
			ring := n.Radius + PulseAmp*math.Sin(n.PulsePhase)
			if ring > 0 {
				c.StrokeCircle(n.Pos, ring, PulseWidth, pulseRing(n.PulsePhase))
			}
		}

		if n.ID == f.Selected {
			c.StrokeCircle(n.Pos, n.Radius, SelectedWidth, borderSelected)
		} else {
			c.StrokeCircle(n.Pos, n.Radius, BorderWidth, borderNormal)
		}

		if r.opts.Labels {
			c.Text(tangle.ShortID(n.ID), n.Pos.Add(layout.Vec{Y: LabelDrop}), LabelSize, labelColor, AlignCenter)
		}
	}
}

func (r *Renderer) drawHUD(c *Canvas, v interact.Viewport) {
	c.FillRect(HUDX, HUDY, HUDW, HUDH, hudBackground)
	zoom, pan := HUDLines(v)
	c.Text(zoom, layout.Vec{X: 20, Y: 30}, HUDTextSize, hudText, AlignLeft)
	c.Text(pan, layout.Vec{X: 20, Y: 50}, HUDTextSize, hudText, AlignLeft)
}

func (r *Renderer) drawLegend(c *Canvas) {
	_, h := c.Size()
	height := float64(h) / c.Scale()

	items := layout.Legend()
	boxH := 16.0*float64(len(items)) + 12
	top := height - boxH - 10

	c.FillRect(10, top, 120, boxH, hudBackground)
	for i, q := range items {
		y := top + 14 + 16*float64(i)
		c.FillCircle(layout.Vec{X: 24, Y: y - 4}, 5, q.Color())
		c.Text(q.String(), layout.Vec{X: 36, Y: y}, HUDTextSize, hudText, AlignLeft)
	}
}

// HUDLines formats the zoom and pan readouts.
func HUDLines(v interact.Viewport) (string, string) {
	return fmt.Sprintf("Zoom: %d%%", v.Percent()),
		fmt.Sprintf("Pan: %.0f, %.0f", v.Pan.X, v.Pan.Y)
}

func zoomOf(v interact.Viewport) float64 {
	if v.Zoom == 0 {
		return 1
	}
	return v.Zoom
}
