package render

import (
	"fmt"
	"image/color"
	"math"
)

// Scene colors
var (
	backgroundInner = rgb(0x1e, 0x29, 0x3b)
	backgroundOuter = rgb(0x0f, 0x17, 0x2a)
	gridColor       = rgba(148, 163, 184, 0.1)
	edgeStatic      = rgba(148, 163, 184, 0.3)
	edgeMarker      = rgba(59, 130, 246, 0.6)
	shadowColor     = rgba(0, 0, 0, 0.3)
	borderSelected  = rgb(0x3b, 0x82, 0xf6)
	borderNormal    = rgba(255, 255, 255, 0.5)
	labelColor      = rgb(0xff, 0xff, 0xff)
	hudBackground   = rgba(30, 41, 59, 0.8)
	hudText         = rgb(0xff, 0xff, 0xff)
)

// edgeAnimated returns the pulsing color of an edge into a new node.
func edgeAnimated(ms float64) color.NRGBA {
	return rgba(59, 130, 246, 0.3+0.3*math.Sin(ms*0.005))
}

// pulseRing returns the color of a new node's pulse ring.
func pulseRing(phase float64) color.NRGBA {
	return rgba(34, 197, 94, 0.5*math.Sin(phase))
}

func rgb(r, g, b uint8) color.NRGBA {
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}

func rgba(r, g, b uint8, alpha float64) color.NRGBA {
	alpha = math.Max(0, math.Min(alpha, 1))
	return color.NRGBA{R: r, G: g, B: b, A: uint8(math.Round(alpha * 255))}
}

// lerp mixes two opaque colors; t=0 is a, t=1 is b.
func lerp(a, b color.NRGBA, t float64) color.NRGBA {
	t = math.Max(0, math.Min(t, 1))
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.NRGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

// Hex formats a color as #rrggbb, dropping alpha.
func Hex(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
}
