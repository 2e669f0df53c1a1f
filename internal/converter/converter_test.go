package converter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/fixkaro/map-data-converter/internal/reproject"
	"github.com/fixkaro/map-data-converter/internal/shapefile"
	"github.com/fixkaro/map-data-converter/internal/shapefile/shptest"
	"github.com/fixkaro/map-data-converter/internal/types"
)

const esriWGS84 = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

const webMercator = `PROJCS["WGS_1984_Web_Mercator_Auxiliary_Sphere",GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]],PROJECTION["Mercator_Auxiliary_Sphere"],PARAMETER["False_Easting",0.0],PARAMETER["False_Northing",0.0],PARAMETER["Central_Meridian",0.0],PARAMETER["Standard_Parallel_1",0.0],PARAMETER["Auxiliary_Sphere_Type",0.0],UNIT["Meter",1.0],AUTHORITY["EPSG",3857]]`

const utm44N = `PROJCS["WGS 84 / UTM zone 44N",GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563,AUTHORITY["EPSG","7030"]],AUTHORITY["EPSG","6326"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4326"]],PROJECTION["Transverse_Mercator"],PARAMETER["latitude_of_origin",0],PARAMETER["central_meridian",81],PARAMETER["scale_factor",0.9996],PARAMETER["false_easting",500000],PARAMETER["false_northing",0],UNIT["metre",1,AUTHORITY["EPSG","9001"]],AXIS["Easting",EAST],AXIS["Northing",NORTH],AUTHORITY["EPSG","32644"]]`

// fakeReprojector shifts every coordinate and records the source CRS.
type fakeReprojector struct {
	calls []string
	err   error
}

func (f *fakeReprojector) Reproject(fs *types.FeatureSet) error {
	f.calls = append(f.calls, fs.CRS.String())
	if f.err != nil {
		return f.err
	}
	if err := fs.TransformCoords(func(x, y float64) (float64, float64, error) {
		return x / 1000, y / 1000, nil
	}); err != nil {
		return err
	}
	fs.CRS = &types.CRS{Definition: types.WGS84, Authority: types.WGS84}
	return nil
}

// writeShapefile writes a polygon layer with one square per AC_NO value.
func writeShapefile(t *testing.T, dir, prj string, withName bool, count int) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))

	path := filepath.Join(dir, "assembly.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)

	fields := []shp.Field{shp.NumberField("AC_NO", 4)}
	if withName {
		fields = append(fields, shp.StringField("name", 30))
	}
	require.NoError(t, w.SetFields(fields))

	for i := 0; i < count; i++ {
		x, y := 78+float64(i), 17.0
		ring := []shp.Point{{X: x, Y: y}, {X: x, Y: y + 1}, {X: x + 1, Y: y + 1}, {X: x + 1, Y: y}, {X: x, Y: y}}
		poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{ring}))
		row := int(w.Write(&poly))
		require.NoError(t, w.WriteAttribute(row, 0, i+1))
		if withName {
			require.NoError(t, w.WriteAttribute(row, 1, fmt.Sprintf("AC %d", i+1)))
		}
	}
	shptest.Close(t, w, path)

	if prj != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "assembly.prj"), []byte(prj), 0o644))
	}
	return path
}

// =============================================================================
// SHAPEFILE CONVERTER SUITE
// =============================================================================

type ShapefileConverterTestSuite struct {
	suite.Suite
	dir    string
	output string
}

func TestShapefileConverterTestSuite(t *testing.T) {
	suite.Run(t, new(ShapefileConverterTestSuite))
}

func (s *ShapefileConverterTestSuite) SetupTest() {
	root := s.T().TempDir()
	s.dir = filepath.Join(root, "maps", "assembly-constituencies")
	s.output = filepath.Join(root, "india_assembly.geojson")
}

func (s *ShapefileConverterTestSuite) options() ShapefileOptions {
	return ShapefileOptions{Dir: s.dir, Output: s.output, WriteCRS: true}
}

func (s *ShapefileConverterTestSuite) readOutput() *geojson.FeatureCollection {
	data, err := os.ReadFile(s.output)
	s.Require().NoError(err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	s.Require().NoError(err)
	return fc
}

func (s *ShapefileConverterTestSuite) TestIndexNames() {
	writeShapefile(s.T(), s.dir, esriWGS84, false, 2)
	reprojector := &fakeReprojector{}

	result, err := NewShapefile(s.options(), reprojector).Run()
	s.Require().NoError(err)

	s.Equal(2, result.Stats.Features)
	s.Equal([]string{"AC_NO", "geometry"}, result.Stats.Columns)
	s.Equal(shapefile.NamesIndex, result.Stats.NameSource)
	s.False(result.Stats.Reprojected)
	s.Empty(reprojector.calls)
	s.Equal([]float64{78, 17, 80, 18}, result.Stats.Bounds)
	s.Equal(s.output, result.OutputFile)
	s.NotEmpty(result.RunID)

	fc := s.readOutput()
	s.Require().Len(fc.Features, 2)
	s.Equal("0", fc.Features[0].Properties.MustString("name"))
	s.Equal("1", fc.Features[1].Properties.MustString("name"))
	s.Equal(1.0, fc.Features[0].Properties.MustFloat64("AC_NO"))
	s.IsType(orb.Polygon{}, fc.Features[0].Geometry)
}

func (s *ShapefileConverterTestSuite) TestExplicitNames() {
	writeShapefile(s.T(), s.dir, esriWGS84, true, 2)
	opts := s.options()
	opts.Names = []string{"Ichchapuram", "Palasa"}

	result, err := NewShapefile(opts, nil).Run()
	s.Require().NoError(err)
	s.Equal(shapefile.NamesExplicit, result.Stats.NameSource)

	fc := s.readOutput()
	s.Equal("Ichchapuram", fc.Features[0].Properties.MustString("name"))
	s.Equal("Palasa", fc.Features[1].Properties.MustString("name"))
}

func (s *ShapefileConverterTestSuite) TestExistingNames() {
	writeShapefile(s.T(), s.dir, esriWGS84, true, 2)

	result, err := NewShapefile(s.options(), nil).Run()
	s.Require().NoError(err)
	s.Equal(shapefile.NamesExisting, result.Stats.NameSource)

	fc := s.readOutput()
	s.Equal("AC 2", fc.Features[1].Properties.MustString("name"))
}

func (s *ShapefileConverterTestSuite) TestNameMismatchWritesNothing() {
	writeShapefile(s.T(), s.dir, esriWGS84, false, 3)
	opts := s.options()
	opts.Names = []string{"a", "b"}

	_, err := NewShapefile(opts, nil).Run()

	var ve *types.ValidationError
	s.Require().True(errors.As(err, &ve))
	s.NoFileExists(s.output)
}

func (s *ShapefileConverterTestSuite) TestReprojects() {
	writeShapefile(s.T(), s.dir, webMercator, false, 1)
	reprojector := &fakeReprojector{}

	result, err := NewShapefile(s.options(), reprojector).Run()
	s.Require().NoError(err)

	s.Equal([]string{"EPSG:3857"}, reprojector.calls)
	s.True(result.Stats.Reprojected)
	s.Equal([]float64{0.078, 0.017, 0.079, 0.018}, result.Stats.Bounds)

	fc := s.readOutput()
	poly := fc.Features[0].Geometry.(orb.Polygon)
	s.Equal(orb.Point{0.078, 0.017}, poly[0][0])
}

func (s *ShapefileConverterTestSuite) TestReprojectFailureWritesNothing() {
	writeShapefile(s.T(), s.dir, webMercator, false, 1)

	_, err := NewShapefile(s.options(), &fakeReprojector{err: fmt.Errorf("no grid")}).Run()
	s.ErrorContains(err, "failed to reproject: no grid")
	s.NoFileExists(s.output)

	_, err = NewShapefile(s.options(), nil).Run()
	s.ErrorContains(err, "no reprojector available for EPSG:3857")
}

func (s *ShapefileConverterTestSuite) TestMissingCRSAssumesWGS84() {
	writeShapefile(s.T(), s.dir, "", false, 1)
	reprojector := &fakeReprojector{}

	result, err := NewShapefile(s.options(), reprojector).Run()
	s.Require().NoError(err)
	s.Empty(reprojector.calls)
	s.False(result.Stats.Reprojected)
	s.FileExists(s.output)
}

func (s *ShapefileConverterTestSuite) TestSourceCRSForMissingPRJ() {
	writeShapefile(s.T(), s.dir, "", false, 1)
	opts := s.options()
	opts.SourceCRS = "EPSG:32644"
	reprojector := &fakeReprojector{}

	result, err := NewShapefile(opts, reprojector).Run()
	s.Require().NoError(err)
	s.Equal([]string{"EPSG:32644"}, reprojector.calls)
	s.True(result.Stats.Reprojected)
}

func (s *ShapefileConverterTestSuite) TestDryRun() {
	writeShapefile(s.T(), s.dir, esriWGS84, false, 2)
	opts := s.options()
	opts.DryRun = true

	result, err := NewShapefile(opts, nil).Run()
	s.Require().NoError(err)
	s.Empty(result.OutputFile)
	s.Equal(2, result.Stats.Features)
	s.NoFileExists(s.output)
}

func (s *ShapefileConverterTestSuite) TestOverwritesOutput() {
	writeShapefile(s.T(), s.dir, esriWGS84, false, 1)
	s.Require().NoError(os.WriteFile(s.output, []byte("stale"), 0o644))

	_, err := NewShapefile(s.options(), nil).Run()
	s.Require().NoError(err)

	fc := s.readOutput()
	s.Len(fc.Features, 1)
}

func (s *ShapefileConverterTestSuite) TestMissingDirectory() {
	_, err := NewShapefile(s.options(), nil).Run()

	var nf *types.NotFoundError
	s.Require().True(errors.As(err, &nf))
	s.Equal("shapefile directory", nf.Kind)
	s.NoFileExists(s.output)
}

func (s *ShapefileConverterTestSuite) TestNoShapefile() {
	s.Require().NoError(os.MkdirAll(s.dir, 0o755))

	_, err := NewShapefile(s.options(), nil).Run()

	var nf *types.NotFoundError
	s.Require().True(errors.As(err, &nf))
	s.Equal("shapefile", nf.Kind)
	s.NoFileExists(s.output)
}

func (s *ShapefileConverterTestSuite) TestMissingCompanion() {
	writeShapefile(s.T(), s.dir, esriWGS84, false, 1)
	s.Require().NoError(os.Remove(filepath.Join(s.dir, "assembly.dbf")))

	_, err := NewShapefile(s.options(), nil).Run()

	var nf *types.NotFoundError
	s.Require().True(errors.As(err, &nf))
	s.Equal(filepath.Join(s.dir, "assembly.dbf"), nf.Path)
	s.NoFileExists(s.output)
}

func (s *ShapefileConverterTestSuite) TestUpperCaseDBFWritesNothing() {
	writeShapefile(s.T(), s.dir, esriWGS84, true, 1)
	s.Require().NoError(os.Rename(filepath.Join(s.dir, "assembly.dbf"), filepath.Join(s.dir, "assembly.DBF")))

	_, err := NewShapefile(s.options(), nil).Run()

	var nf *types.NotFoundError
	s.Require().True(errors.As(err, &nf), "got %v", err)
	s.Equal("attribute table", nf.Kind)
	s.NoFileExists(s.output)
}

func TestLayerName(t *testing.T) {
	assert.Equal(t, "india_assembly", layerName("out/india_assembly.geojson"))
	assert.Equal(t, "data", layerName("data"))
}

func TestOutputHasCRSMember(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "maps")
	writeShapefile(t, dir, esriWGS84, false, 1)
	output := filepath.Join(root, "out.geojson")

	_, err := NewShapefile(ShapefileOptions{Dir: dir, Output: output, WriteCRS: true}, nil).Run()
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name": "out",`)
	assert.Contains(t, string(data), `"crs": {"type":"name","properties":{"name":"urn:ogc:def:crs:OGC:1.3:CRS84"}},`)
}

func TestReprojectsUTMWithPROJ(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "maps")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	// A 10 km square around the UTM 44N central meridian (81°E).
	path := filepath.Join(dir, "utm.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.NumberField("AC_NO", 4)}))
	ring := []shp.Point{
		{X: 495000, Y: 1895000}, {X: 495000, Y: 1905000},
		{X: 505000, Y: 1905000}, {X: 505000, Y: 1895000},
		{X: 495000, Y: 1895000},
	}
	poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{ring}))
	require.NoError(t, w.WriteAttribute(int(w.Write(&poly)), 0, 1))
	shptest.Close(t, w, path)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "utm.prj"), []byte(utm44N), 0o644))

	output := filepath.Join(root, "out.geojson")
	result, err := NewShapefile(ShapefileOptions{Dir: dir, Output: output, WriteCRS: true}, reproject.New()).Run()
	require.NoError(t, err)
	assert.True(t, result.Stats.Reprojected)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)

	bound := fc.Features[0].Geometry.Bound()
	for _, p := range []orb.Point{bound.Min, bound.Max} {
		assert.True(t, p.Lon() >= -180 && p.Lon() <= 180, "longitude %v", p.Lon())
		assert.True(t, p.Lat() >= -90 && p.Lat() <= 90, "latitude %v", p.Lat())
	}
	assert.InDelta(t, 81, (bound.Min.Lon()+bound.Max.Lon())/2, 0.01)
	assert.InDelta(t, 17.18, (bound.Min.Lat()+bound.Max.Lat())/2, 0.05)
}
