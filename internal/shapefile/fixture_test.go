package shapefile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/require"

	"github.com/fixkaro/map-data-converter/internal/shapefile/shptest"
)

// WGS 84 as ESRI writes it, without an authority.
const esriWGS84 = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

const utm44N = `PROJCS["WGS 84 / UTM zone 44N",GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563,AUTHORITY["EPSG","7030"]],AUTHORITY["EPSG","6326"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4326"]],PROJECTION["Transverse_Mercator"],PARAMETER["latitude_of_origin",0],PARAMETER["central_meridian",81],PARAMETER["scale_factor",0.9996],PARAMETER["false_easting",500000],PARAMETER["false_northing",0],UNIT["metre",1,AUTHORITY["EPSG","9001"]],AXIS["Easting",EAST],AXIS["Northing",NORTH],AUTHORITY["EPSG","32644"]]`

// fixture describes a shapefile to write in tests.
type fixture struct {
	name   string
	kind   shp.ShapeType
	fields []shp.Field
	shapes []shp.Shape
	rows   [][]interface{}
	prj    string
	cpg    string
}

// write creates the shapefile in dir and returns the .shp path.
func (f fixture) write(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, f.name+".shp")
	w, err := shp.Create(path, f.kind)
	require.NoError(t, err)
	require.NoError(t, w.SetFields(f.fields))

	for i, shape := range f.shapes {
		row := int(w.Write(shape))
		for j, value := range f.rows[i] {
			require.NoError(t, w.WriteAttribute(row, j, value))
		}
	}
	shptest.Close(t, w, path)

	if f.prj != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f.name+".prj"), []byte(f.prj), 0o644))
	}
	if f.cpg != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f.name+".cpg"), []byte(f.cpg), 0o644))
	}

	return path
}

// square returns a clockwise (outer) ring from (x, y) with side size.
func square(x, y, size float64) []shp.Point {
	return []shp.Point{
		{X: x, Y: y},
		{X: x, Y: y + size},
		{X: x + size, Y: y + size},
		{X: x + size, Y: y},
		{X: x, Y: y},
	}
}

// reversed returns ring in the opposite orientation.
func reversed(ring []shp.Point) []shp.Point {
	out := make([]shp.Point, len(ring))
	for i, p := range ring {
		out[len(ring)-1-i] = p
	}
	return out
}

func polygon(rings ...[]shp.Point) *shp.Polygon {
	p := shp.Polygon(*shp.NewPolyLine(rings))
	return &p
}

// constituencies is a two-feature polygon layer in WGS84 without a name
// column.
func constituencies() fixture {
	return fixture{
		name: "assembly",
		kind: shp.POLYGON,
		fields: []shp.Field{
			shp.NumberField("AC_NO", 4),
			shp.StringField("DIST", 20),
			shp.FloatField("AREA", 12, 3),
		},
		shapes: []shp.Shape{
			polygon(square(78, 17, 1)),
			polygon(square(80, 13, 1)),
		},
		rows: [][]interface{}{
			{1, "Srikakulam", 12.5},
			{2, "Chittoor", 8.25},
		},
		prj: esriWGS84,
	}
}
