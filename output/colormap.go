package output

// RdYlGn diverging ramp (ColorBrewer 11-class): red for dry pixels through
// yellow to green for moist ones.
type rampColor struct {
	R, G, B uint8
}

var rdYlGn = []rampColor{
	{165, 0, 38},
	{215, 48, 39},
	{244, 109, 67},
	{253, 174, 97},
	{254, 224, 139},
	{255, 255, 191},
	{217, 239, 139},
	{166, 217, 106},
	{102, 189, 99},
	{26, 152, 80},
	{0, 104, 55},
}

// colorFor interpolates the ramp for v on the [vmin, vmax] scale, clamping
// values outside it. Components come back in [0, 1] for gg.SetRGB.
func colorFor(v, vmin, vmax float64) (float64, float64, float64) {
	t := (v - vmin) / (vmax - vmin)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}

	pos := t * float64(len(rdYlGn)-1)
	i := int(pos)
	if i >= len(rdYlGn)-1 {
		last := rdYlGn[len(rdYlGn)-1]
		return float64(last.R) / 255, float64(last.G) / 255, float64(last.B) / 255
	}

	f := pos - float64(i)
	c0 := rdYlGn[i]
	c1 := rdYlGn[i+1]
	r := (float64(c0.R) + (float64(c1.R)-float64(c0.R))*f) / 255
	g := (float64(c0.G) + (float64(c1.G)-float64(c0.G))*f) / 255
	b := (float64(c0.B) + (float64(c1.B)-float64(c0.B))*f) / 255
	return r, g, b
}
