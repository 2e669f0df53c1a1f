// Package reproject transforms feature coordinates to WGS84 with PROJ.
//
// It is the only package that links against libproj (through cgo), so the
// rest of the pipeline can be built and tested without it.
package reproject

import (
	"fmt"
	"math"

	"github.com/twpayne/go-proj/v10"

	"github.com/fixkaro/map-data-converter/internal/types"
)

// PROJ reprojects feature sets with the PROJ library.
type PROJ struct {
	// Target is the destination system. Default: EPSG:4326.
	Target string
}

// New returns a PROJ reprojector targeting WGS84.
func New() *PROJ {
	return &PROJ{Target: types.WGS84}
}

// Reproject transforms every coordinate of fs from fs.CRS to the target
// system in place and updates fs.CRS. Output axis order is always
// longitude/latitude (x/y) regardless of the CRS's official axis order.
func (p *PROJ) Reproject(fs *types.FeatureSet) error {
	if fs.CRS == nil {
		return fmt.Errorf("feature set has no source CRS")
	}

	target := p.Target
	if target == "" {
		target = types.WGS84
	}

	ctx := proj.NewContext()
	defer ctx.Destroy()

	pj, err := ctx.NewCRSToCRS(fs.CRS.Definition, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create transformation from %s to %s: %w", fs.CRS, target, err)
	}
	defer pj.Destroy()

	normalized, err := pj.NormalizeForVisualization()
	if err != nil {
		return fmt.Errorf("failed to normalize axis order: %w", err)
	}
	defer normalized.Destroy()

	for i, feature := range fs.Features {
		g := feature.Geometry
		if g == nil {
			continue
		}

		flat, stride := g.FlatCoords(), g.Stride()
		if err := normalized.ForwardFlatCoords(flat, stride, -1, -1); err != nil {
			return fmt.Errorf("failed to transform feature %d: %w", i, err)
		}

		// PROJ reports points it cannot transform as HUGE_VAL.
		for j := 0; j+1 < len(flat); j += stride {
			if !finite(flat[j]) || !finite(flat[j+1]) {
				return fmt.Errorf("feature %d has a coordinate outside the domain of %s", i, fs.CRS)
			}
		}
	}

	fs.CRS = &types.CRS{
		Definition: target,
		Kind:       types.CRSGeographic,
		Name:       "WGS 84",
		Datum:      "WGS_1984",
		Authority:  target,
	}

	return nil
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}
