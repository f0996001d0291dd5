package raster

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/airbusgeo/godal"
	"github.com/airbusgeo/osio"
	"github.com/nandanaasingh09/NDMI-Calculator/internal/grid"
)

// Setup routes https:// opens through a block-cached range reader and
// registers the GDAL drivers. Band windows are then pulled straight from
// remote COGs instead of downloading whole files.
func Setup(ctx context.Context, blockSize string, cachedBlocks int) error {
	httph, err := osio.HTTPHandle(ctx)
	if err != nil {
		return fmt.Errorf("failed to create HTTP handler: %w", err)
	}
	adapter, err := osio.NewAdapter(httph, osio.BlockSize(blockSize), osio.NumCachedBlocks(cachedBlocks))
	if err != nil {
		return fmt.Errorf("osio.new: %w", err)
	}
	if err := godal.RegisterVSIHandler("https://", adapter); err != nil {
		return fmt.Errorf("register osio: %w", err)
	}
	godal.RegisterAll()
	return nil
}

// GDAL chatters warnings on remote Sentinel-2 COGs; only real failures
// should surface.
func suppressWarnings(ec godal.ErrorCategory, code int, msg string) error {
	if ec >= godal.CE_Failure {
		return errors.New(msg)
	}
	return nil
}

// Band is a single-band raster backed by a GDAL dataset, either a remote COG
// or an in-memory warp result.
type Band struct {
	ds *godal.Dataset
}

func OpenBand(href string) (*Band, error) {
	ds, err := godal.Open(href, godal.ErrLogger(suppressWarnings))
	if err != nil {
		return nil, fmt.Errorf("failed to open raster %s: %w", href, err)
	}
	return &Band{ds: ds}, nil
}

func (b *Band) Close() error {
	if b.ds == nil {
		return nil
	}
	err := b.ds.Close()
	b.ds = nil
	return err
}

func (b *Band) Width() int  { return b.ds.Structure().SizeX }
func (b *Band) Height() int { return b.ds.Structure().SizeY }

// Clip cuts the band to the outline in cutlinePath, an EPSG:4326 vector file.
// The warper transforms the cutline into the raster's own CRS, so the pixels
// themselves never leave it. Output pixels are Float64 with everything
// outside the outline (and any source nodata) set to NaN.
func (b *Band) Clip(cutlinePath string) (*Band, error) {
	switches := []string{
		"-of", "MEM",
		"-cutline", cutlinePath,
		"-crop_to_cutline",
		"-ot", "Float64",
		"-dstnodata", "nan",
	}
	warped, err := b.ds.Warp("", switches, godal.ErrLogger(suppressWarnings))
	if err != nil {
		return nil, fmt.Errorf("failed to clip raster: %w", err)
	}
	return &Band{ds: warped}, nil
}

func (b *Band) SameCRS(other *Band) bool {
	sr := b.ds.SpatialRef()
	defer sr.Close()
	otherSR := other.ds.SpatialRef()
	defer otherSR.Close()
	return sr.IsSame(otherSR)
}

// ReprojectTo warps the band onto the exact grid of ref (CRS, extent and
// size) so both read out pixel-aligned.
func (b *Band) ReprojectTo(ref *Band) (*Band, error) {
	geoTransform, err := ref.ds.GeoTransform()
	if err != nil {
		return nil, fmt.Errorf("failed to get reference geotransform: %w", err)
	}
	width := ref.ds.Structure().SizeX
	height := ref.ds.Structure().SizeY

	xMin := geoTransform[0]
	yMax := geoTransform[3]
	xMax := xMin + geoTransform[1]*float64(width)
	yMin := yMax + geoTransform[5]*float64(height)

	switches := []string{
		"-of", "MEM",
		"-t_srs", ref.ds.Projection(),
		"-te", formatFloat(xMin), formatFloat(yMin), formatFloat(xMax), formatFloat(yMax),
		"-ts", strconv.Itoa(width), strconv.Itoa(height),
		"-ot", "Float64",
		"-dstnodata", "nan",
	}
	warped, err := b.ds.Warp("", switches, godal.ErrLogger(suppressWarnings))
	if err != nil {
		return nil, fmt.Errorf("failed to reproject raster: %w", err)
	}
	return &Band{ds: warped}, nil
}

// Read pulls the whole band into a grid, masking any declared nodata value.
func (b *Band) Read() (*grid.Grid, error) {
	bands := b.ds.Bands()
	if len(bands) == 0 {
		return nil, fmt.Errorf("raster has no bands")
	}
	band := bands[0]

	width := b.ds.Structure().SizeX
	height := b.ds.Structure().SizeY
	data := make([]float64, width*height)
	if err := band.Read(0, 0, data, width, height); err != nil {
		return nil, fmt.Errorf("failed to read raster data: %w", err)
	}

	if nodata, ok := band.NoData(); ok && !math.IsNaN(nodata) {
		for i, v := range data {
			if v == nodata {
				data[i] = math.NaN()
			}
		}
	}

	return grid.FromBuffer(data, width, height)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
