package parcel

import (
	"fmt"
	"math"

	"github.com/airbusgeo/godal"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Parcel is the farm polygon a run operates on. Bbox and Centroid are always
// EPSG:4326 regardless of the source CRS. Path is reused as the cutline when
// clipping scenes, so clipping covers every feature in the file while the
// search bbox comes from the first polygonal one.
type Parcel struct {
	Path     string
	Bbox     [4]float64
	Centroid orb.Point
}

// Load opens the parcel file and derives the catalog bbox and centroid from
// its first polygonal feature.
func Load(path string) (*Parcel, error) {
	ds, err := godal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parcel file %s: %w", path, err)
	}
	defer ds.Close()

	layers := ds.Layers()
	if len(layers) == 0 {
		return nil, fmt.Errorf("parcel file %s has no vector layers", path)
	}

	layer := layers[0]
	for {
		feat := layer.NextFeature()
		if feat == nil {
			break
		}

		geom := feat.Geometry()
		if geom == nil {
			feat.Close()
			continue
		}

		geomJSON, err := geom.GeoJSON()
		if err != nil {
			feat.Close()
			return nil, fmt.Errorf("failed to export parcel geometry: %w", err)
		}
		orbGeom, err := geojson.UnmarshalGeometry([]byte(geomJSON))
		if err != nil {
			feat.Close()
			return nil, fmt.Errorf("failed to parse parcel geometry: %w", err)
		}

		switch orbGeom.Coordinates.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			feat.Close()
			continue
		}
		defer feat.Close()

		centroid, area := planar.CentroidArea(orbGeom.Coordinates)
		if area <= 0 {
			return nil, fmt.Errorf("parcel geometry in %s has no area", path)
		}

		bound := orbGeom.Coordinates.Bound()
		bbox := [4]float64{bound.Min.X(), bound.Min.Y(), bound.Max.X(), bound.Max.Y()}

		// Catalog bboxes are geographic, so parcels in a projected CRS
		// need their coordinates brought back to WGS84 first.
		sr := geom.SpatialRef()
		if sr != nil {
			wgs84, err := godal.NewSpatialRefFromEPSG(4326)
			if err != nil {
				return nil, fmt.Errorf("failed to create EPSG:4326 reference: %w", err)
			}
			defer wgs84.Close()
			if !sr.IsSame(wgs84) {
				bbox, centroid, err = toWGS84(sr, wgs84, bbox, centroid)
				if err != nil {
					return nil, err
				}
			}
		}

		return &Parcel{Path: path, Bbox: bbox, Centroid: centroid}, nil
	}

	return nil, fmt.Errorf("parcel file %s has no polygonal feature", path)
}

func toWGS84(src, dst *godal.SpatialRef, bbox [4]float64, centroid orb.Point) ([4]float64, orb.Point, error) {
	tr, err := godal.NewTransform(src, dst)
	if err != nil {
		return bbox, centroid, fmt.Errorf("failed to create coordinate transform: %w", err)
	}
	defer tr.Close()

	xs := []float64{bbox[0], bbox[2], bbox[0], bbox[2], centroid.X()}
	ys := []float64{bbox[1], bbox[1], bbox[3], bbox[3], centroid.Y()}
	if err := tr.TransformEx(xs, ys, nil, nil); err != nil {
		return bbox, centroid, fmt.Errorf("transform error: %w", err)
	}

	out := [4]float64{
		math.Min(math.Min(xs[0], xs[1]), math.Min(xs[2], xs[3])),
		math.Min(math.Min(ys[0], ys[1]), math.Min(ys[2], ys[3])),
		math.Max(math.Max(xs[0], xs[1]), math.Max(xs[2], xs[3])),
		math.Max(math.Max(ys[0], ys[1]), math.Max(ys[2], ys[3])),
	}
	return out, orb.Point{xs[4], ys[4]}, nil
}
