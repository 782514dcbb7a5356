package layout

import (
	"image/color"

	"github.com/utkarsh5026/tangleview/pkg/tangle"
)

// AirQuality classifies a record by its pm25 reading.
type AirQuality int

const (
	QualityUnknown AirQuality = iota
	QualityExcellent
	QualityGood
	QualityModerate
	QualityPoor
)

// pm25 thresholds in µg/m³; a reading strictly above a threshold falls
// into the worse class
const (
	PoorAbove     = 35.0
	ModerateAbove = 25.0
	GoodAbove     = 15.0
)

// Node fill colors
var (
	ColorPoor      = color.NRGBA{R: 0xef, G: 0x44, B: 0x44, A: 0xff}
	ColorModerate  = color.NRGBA{R: 0xf5, G: 0x9e, B: 0x0b, A: 0xff}
	ColorGood      = color.NRGBA{R: 0xea, G: 0xb3, B: 0x08, A: 0xff}
	ColorExcellent = color.NRGBA{R: 0x10, G: 0xb9, B: 0x81, A: 0xff}
	ColorUnknown   = color.NRGBA{R: 0x64, G: 0x74, B: 0x8b, A: 0xff}
)

// String returns the legend label of the class.
func (q AirQuality) String() string {
	switch q {
	case QualityExcellent:
		return "Excellent"
	case QualityGood:
		return "Good"
	case QualityModerate:
		return "Moderate"
	case QualityPoor:
		return "Poor"
	default:
		return "Unknown"
	}
}

// Color returns the node fill color of the class.
func (q AirQuality) Color() color.NRGBA {
	switch q {
	case QualityExcellent:
		return ColorExcellent
	case QualityGood:
		return ColorGood
	case QualityModerate:
		return ColorModerate
	case QualityPoor:
		return ColorPoor
	default:
		return ColorUnknown
	}
}

// Legend lists the known classes from best to worst.
func Legend() []AirQuality {
	return []AirQuality{QualityExcellent, QualityGood, QualityModerate, QualityPoor}
}

// QualityOf classifies a payload. A missing or non-numeric pm25 reading is
// QualityUnknown.
func QualityOf(p tangle.Payload) AirQuality {
	pm25, ok := p.Number(tangle.KeyPM25)
	if !ok {
		return QualityUnknown
	}

	switch {
	case pm25 > PoorAbove:
		return QualityPoor
	case pm25 > ModerateAbove:
		return QualityModerate
	case pm25 > GoodAbove:
		return QualityGood
	default:
		return QualityExcellent
	}
}

// RadiusFor derives a node radius from the payload size: two units per
// key on top of the minimum, never leaving [MinRadius, MaxRadius].
func (p Params) RadiusFor(payload tangle.Payload) float64 {
	r := p.MinRadius + 2*float64(payload.Len())
	if r > p.MaxRadius {
		r = p.MaxRadius
	}
	if r < p.MinRadius {
		r = p.MinRadius
	}
	return r
}

// ColorFor derives a node fill color from the payload.
func ColorFor(payload tangle.Payload) color.NRGBA {
	return QualityOf(payload).Color()
}
