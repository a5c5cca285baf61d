package charts

import (
	"fmt"
	"math"

	"findash/internal/core"
)

type rgb struct{ r, g, b uint8 }

func (c rgb) String() string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.r, c.g, c.b)
}

// Qualitative palette for pie slices and line series (ColorBrewer Set2).
var set2 = []rgb{
	{102, 194, 165}, {252, 141, 98}, {141, 160, 203}, {231, 138, 195},
	{166, 216, 84}, {255, 217, 47}, {229, 196, 148}, {179, 179, 179},
}

// Sequential ramps for bar magnitude (ColorBrewer YlGn and OrRd).
var (
	ylGn = []rgb{
		{255, 255, 229}, {247, 252, 185}, {217, 240, 163}, {173, 221, 142}, {120, 198, 121},
		{65, 171, 93}, {35, 132, 67}, {0, 104, 55}, {0, 69, 41},
	}
	orRd = []rgb{
		{255, 247, 236}, {254, 232, 200}, {253, 212, 158}, {253, 187, 132}, {252, 141, 89},
		{239, 101, 72}, {215, 48, 31}, {179, 0, 0}, {127, 0, 0},
	}
)

// QualitativeColor returns the i-th categorical color, cycling the palette.
func QualitativeColor(i int) string {
	if i < 0 {
		i = -i
	}
	return set2[i%len(set2)].String()
}

func rampFor(label core.Label) []rgb {
	if label == core.Income {
		return ylGn
	}
	return orRd
}

// RampColors lists the stops of the sequential ramp used for label.
func RampColors(label core.Label) []string {
	ramp := rampFor(label)
	out := make([]string, len(ramp))
	for i, c := range ramp {
		out[i] = c.String()
	}
	return out
}

// rampColor interpolates linearly along ramp at position t in [0,1].
func rampColor(ramp []rgb, t float64) rgb {
	if math.IsNaN(t) || t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	pos := t * float64(len(ramp)-1)
	i := int(math.Floor(pos))
	if i >= len(ramp)-1 {
		return ramp[len(ramp)-1]
	}
	frac := pos - float64(i)
	lerp := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + (float64(b)-float64(a))*frac))
	}
	a, b := ramp[i], ramp[i+1]
	return rgb{lerp(a.r, b.r), lerp(a.g, b.g), lerp(a.b, b.b)}
}

// scaleColor maps v within [lo, hi] onto the label's ramp. A degenerate
// range maps to the middle of the ramp.
func scaleColor(label core.Label, v, lo, hi float64) string {
	t := 0.5
	if hi > lo {
		t = (v - lo) / (hi - lo)
	}
	return rampColor(rampFor(label), t).String()
}
