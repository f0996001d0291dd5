package ndmi

import (
	"fmt"
	"strings"

	"github.com/nandanaasingh09/NDMI-Calculator/internal/grid"
	"github.com/nandanaasingh09/NDMI-Calculator/internal/parcel"
	"github.com/nandanaasingh09/NDMI-Calculator/internal/raster"
	"github.com/nandanaasingh09/NDMI-Calculator/internal/stac"
)

// Sentinel-2 L2A asset keys for the two NDMI inputs: B11 (SWIR) and B8A
// (narrow NIR), both 20m.
const (
	SWIRAsset = "swir16"
	NIRAsset  = "nir08"
)

// MissingAssetError marks a scene that lacks one or both required bands.
type MissingAssetError struct {
	ItemID  string
	Missing []string
}

func (e *MissingAssetError) Error() string {
	return fmt.Sprintf("item %s is missing required assets: %s", e.ItemID, strings.Join(e.Missing, ", "))
}

// Compute derives the NDMI grid (NIR - SWIR) / (NIR + SWIR) for one scene,
// clipped to the parcel. Asset presence is verified before anything is
// fetched.
func Compute(item stac.Item, p *parcel.Parcel) (*grid.Grid, error) {
	var missing []string
	swirAsset, ok := item.Assets[SWIRAsset]
	if !ok {
		missing = append(missing, SWIRAsset)
	}
	nirAsset, ok := item.Assets[NIRAsset]
	if !ok {
		missing = append(missing, NIRAsset)
	}
	if len(missing) > 0 {
		return nil, &MissingAssetError{ItemID: item.ID, Missing: missing}
	}

	swirBand, err := raster.OpenBand(swirAsset.Href)
	if err != nil {
		return nil, fmt.Errorf("failed to open SWIR band: %w", err)
	}
	defer swirBand.Close()

	nirBand, err := raster.OpenBand(nirAsset.Href)
	if err != nil {
		return nil, fmt.Errorf("failed to open NIR band: %w", err)
	}
	defer nirBand.Close()

	swirClipped, err := swirBand.Clip(p.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to clip SWIR band: %w", err)
	}
	defer swirClipped.Close()

	nirClipped, err := nirBand.Clip(p.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to clip NIR band: %w", err)
	}
	defer nirClipped.Close()

	if !swirClipped.SameCRS(nirClipped) {
		aligned, err := swirClipped.ReprojectTo(nirClipped)
		if err != nil {
			return nil, fmt.Errorf("failed to align SWIR band: %w", err)
		}
		defer aligned.Close()
		swirClipped = aligned
	}

	nir, err := nirClipped.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read NIR band: %w", err)
	}
	swir, err := swirClipped.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read SWIR band: %w", err)
	}

	result, err := grid.NormalizedDifference(nir, swir)
	if err != nil {
		return nil, fmt.Errorf("failed to compute NDMI: %w", err)
	}
	return result, nil
}
