package grid

import (
	"fmt"
	"math"
)

// Grid is a row-major 2D band of float64 samples. Masked pixels (outside the
// parcel cutline or flagged as nodata by the source) hold NaN.
type Grid struct {
	data   [][]float64
	width  int
	height int
}

func New(data [][]float64) (*Grid, error) {
	if len(data) == 0 || len(data[0]) == 0 {
		return nil, fmt.Errorf("grid has no data")
	}
	width := len(data[0])
	for y := range data {
		if len(data[y]) != width {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", y, len(data[y]), width)
		}
	}
	return &Grid{data: data, width: width, height: len(data)}, nil
}

// FromBuffer wraps a flat pixel buffer as returned by a raster band read.
func FromBuffer(buf []float64, width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid grid size %dx%d", width, height)
	}
	if len(buf) != width*height {
		return nil, fmt.Errorf("buffer has %d samples, expected %d", len(buf), width*height)
	}
	data := make([][]float64, height)
	for y := range data {
		data[y] = buf[y*width : (y+1)*width]
	}
	return &Grid{data: data, width: width, height: len(data)}, nil
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

func (g *Grid) Value(x, y int) float64 {
	return g.data[y][x]
}

// Masked reports whether the pixel at (x, y) holds no usable sample.
func (g *Grid) Masked(x, y int) bool {
	return math.IsNaN(g.data[y][x])
}

// NormalizedDifference computes (a-b)/(a+b) per pixel. Pixels where either
// input is masked, or where the denominator is zero, come out masked.
func NormalizedDifference(a, b *Grid) (*Grid, error) {
	if a.width != b.width || a.height != b.height {
		return nil, fmt.Errorf("grid size mismatch: %dx%d vs %dx%d", a.width, a.height, b.width, b.height)
	}
	data := make([][]float64, a.height)
	for y := range data {
		data[y] = make([]float64, a.width)
		for x := range data[y] {
			av := a.data[y][x]
			bv := b.data[y][x]
			denominator := av + bv
			if math.IsNaN(av) || math.IsNaN(bv) || denominator == 0 {
				data[y][x] = math.NaN()
				continue
			}
			data[y][x] = (av - bv) / denominator
		}
	}
	return &Grid{data: data, width: a.width, height: a.height}, nil
}

// Mean averages the unmasked pixels. Returns NaN when every pixel is masked.
func (g *Grid) Mean() float64 {
	sum := 0.0
	count := 0
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			v := g.data[y][x]
			if math.IsNaN(v) {
				continue
			}
			sum += v
			count++
		}
	}
	if count == 0 {
		return math.NaN()
	}
	return sum / float64(count)
}
