package output

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/nandanaasingh09/NDMI-Calculator/internal/grid"
)

const (
	imageWidth  = 800
	imageHeight = 1000

	mapLeft   = 60.0
	mapTop    = 80.0
	mapWidth  = 560.0
	mapHeight = 860.0

	barLeft   = 660.0
	barWidth  = 25.0
	barShrink = 0.4
)

var colorbarTicks = []float64{-1, -0.5, 0, 0.5, 1}

// CreateNDMIImage renders the grid with the RdYlGn ramp on a fixed [-1, 1]
// scale and writes <outputDir>/ndmi_<date>.png. Masked pixels stay white.
func CreateNDMIImage(g *grid.Grid, date, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(outputDir, fmt.Sprintf("ndmi_%s.png", date))

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	drawTitle(dc, date, g.Mean())
	drawMap(dc, g)
	drawColorbar(dc)

	if err := dc.SavePNG(outputPath); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	return outputPath, nil
}

func drawTitle(dc *gg.Context, date string, mean float64) {
	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored(fmt.Sprintf("NDMI - %s", date), imageWidth/2, 35, 0.5, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("Mean NDMI: %.2f", mean), imageWidth/2, 55, 0.5, 0.5)
}

// drawMap scales the grid into the map area with nearest-neighbor sampling,
// keeping the pixel aspect ratio.
func drawMap(dc *gg.Context, g *grid.Grid) {
	scale := math.Min(mapWidth/float64(g.Width()), mapHeight/float64(g.Height()))
	drawnWidth := int(scale * float64(g.Width()))
	drawnHeight := int(scale * float64(g.Height()))
	offsetX := int(mapLeft + (mapWidth-float64(drawnWidth))/2)
	offsetY := int(mapTop + (mapHeight-float64(drawnHeight))/2)

	for py := 0; py < drawnHeight; py++ {
		y := int(float64(py) / scale)
		if y >= g.Height() {
			y = g.Height() - 1
		}
		for px := 0; px < drawnWidth; px++ {
			x := int(float64(px) / scale)
			if x >= g.Width() {
				x = g.Width() - 1
			}
			if g.Masked(x, y) {
				continue
			}
			r, gc, b := colorFor(g.Value(x, y), -1, 1)
			dc.SetRGB(r, gc, b)
			dc.SetPixel(offsetX+px, offsetY+py)
		}
	}
}

func drawColorbar(dc *gg.Context) {
	barHeight := mapHeight * barShrink
	barTop := mapTop + (mapHeight-barHeight)/2

	for i := 0; i < int(barHeight); i++ {
		// Top of the bar is +1.
		v := 1 - 2*float64(i)/barHeight
		r, g, b := colorFor(v, -1, 1)
		dc.SetRGB(r, g, b)
		dc.DrawRectangle(barLeft, barTop+float64(i), barWidth, 1)
		dc.Fill()
	}

	dc.SetRGB(0, 0, 0)
	for _, tick := range colorbarTicks {
		y := barTop + (1-(tick+1)/2)*barHeight
		dc.DrawLine(barLeft+barWidth, y, barLeft+barWidth+5, y)
		dc.Stroke()
		dc.DrawStringAnchored(fmt.Sprintf("%.1f", tick), barLeft+barWidth+10, y, 0, 0.5)
	}

	labelX := barLeft + barWidth + 55
	labelY := barTop + barHeight/2
	dc.Push()
	dc.RotateAbout(-math.Pi/2, labelX, labelY)
	dc.DrawStringAnchored("NDMI", labelX, labelY, 0.5, 0.5)
	dc.Pop()
}
