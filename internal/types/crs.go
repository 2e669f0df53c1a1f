package types

import (
	"strings"
)

// CRSKind distinguishes geographic from projected coordinate systems.
type CRSKind string

const (
	CRSGeographic CRSKind = "geographic"
	CRSProjected  CRSKind = "projected"
	CRSUnknown    CRSKind = "unknown"
)

// WGS84 is the target system of every conversion.
const WGS84 = "EPSG:4326"

// CRS is the coordinate reference system declared for a whole FeatureSet.
type CRS struct {
	// Definition is the raw definition handed to PROJ: the WKT from the .prj
	// file or a configured string such as "EPSG:32644".
	Definition string

	// Kind is the root of the WKT tree (GEOGCS/PROJCS and their WKT2 forms).
	Kind CRSKind

	// Name is the quoted name of the root node.
	Name string

	// Datum is the datum name, if present.
	Datum string

	// Authority is the "EPSG:n" code of the root node, if present.
	Authority string
}

// IsWGS84 reports whether coordinates in this system are already WGS84
// longitude/latitude, so that no transformation is needed.
func (c *CRS) IsWGS84() bool {
	if c == nil {
		return false
	}
	if c.Authority == WGS84 {
		return true
	}
	if c.Kind != CRSGeographic {
		return false
	}
	return isWGS84Name(c.Datum) || isWGS84Name(c.Name)
}

// String returns the most readable identifier available.
func (c *CRS) String() string {
	switch {
	case c == nil:
		return "none"
	case c.Authority != "":
		return c.Authority
	case c.Name != "":
		return c.Name
	default:
		return c.Definition
	}
}

func isWGS84Name(name string) bool {
	n := strings.ToUpper(strings.NewReplacer("_", "", " ", "", "-", "").Replace(name))
	switch n {
	case "WGS84", "WGS1984", "GCSWGS1984", "DWGS1984", "WORLDGEODETICSYSTEM1984":
		return true
	}
	return false
}
