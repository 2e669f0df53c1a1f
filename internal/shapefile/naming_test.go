package shapefile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixkaro/map-data-converter/internal/types"
)

func namedSet(fields []string, rows ...map[string]interface{}) *types.FeatureSet {
	fs := &types.FeatureSet{Fields: fields}
	for _, row := range rows {
		r := types.NewRecord(len(fields))
		for _, f := range fields {
			r.Set(f, row[f])
		}
		fs.Features = append(fs.Features, &types.Feature{Properties: r})
	}
	return fs
}

func names(fs *types.FeatureSet) []interface{} {
	var out []interface{}
	for _, f := range fs.Features {
		v, _ := f.Properties.Get(NameField)
		out = append(out, v)
	}
	return out
}

func TestAssignNamesExplicit(t *testing.T) {
	fs := namedSet([]string{"AC_NO", "name"},
		map[string]interface{}{"AC_NO": 1, "name": "old"},
		map[string]interface{}{"AC_NO": 2, "name": "old"},
	)

	source, err := AssignNames(fs, []string{"Araku", "Paderu"})
	require.NoError(t, err)
	assert.Equal(t, NamesExplicit, source)
	assert.Equal(t, []interface{}{"Araku", "Paderu"}, names(fs))
	assert.Equal(t, []string{"AC_NO", "name"}, fs.Fields)
	assert.Equal(t, []string{"AC_NO", "name"}, fs.Features[0].Properties.Keys())
}

func TestAssignNamesExplicitAddsColumn(t *testing.T) {
	fs := namedSet([]string{"AC_NO"}, map[string]interface{}{"AC_NO": 1})

	_, err := AssignNames(fs, []string{"Araku"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AC_NO", "name"}, fs.Fields)
	assert.Equal(t, []string{"AC_NO", "name"}, fs.Features[0].Properties.Keys())
}

func TestAssignNamesMismatch(t *testing.T) {
	fs := namedSet([]string{"AC_NO"},
		map[string]interface{}{"AC_NO": 1},
		map[string]interface{}{"AC_NO": 2},
		map[string]interface{}{"AC_NO": 3},
	)

	_, err := AssignNames(fs, []string{"a", "b"})
	var ve *types.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"AC_NO"}, fs.Fields)
	assert.Equal(t, []interface{}{nil, nil, nil}, names(fs))
}

func TestAssignNamesExisting(t *testing.T) {
	fs := namedSet([]string{"name"},
		map[string]interface{}{"name": "Kuppam"},
		map[string]interface{}{"name": "Hindupur"},
	)

	source, err := AssignNames(fs, nil)
	require.NoError(t, err)
	assert.Equal(t, NamesExisting, source)
	assert.Equal(t, []interface{}{"Kuppam", "Hindupur"}, names(fs))
}

func TestAssignNamesIndex(t *testing.T) {
	fs := namedSet([]string{"AC_NO"},
		map[string]interface{}{"AC_NO": 1},
		map[string]interface{}{"AC_NO": 2},
	)

	source, err := AssignNames(fs, nil)
	require.NoError(t, err)
	assert.Equal(t, NamesIndex, source)
	assert.Equal(t, []interface{}{"0", "1"}, names(fs))
	assert.Equal(t, []string{"AC_NO", "name"}, fs.Fields)
}

func TestAssignNamesEmptySet(t *testing.T) {
	fs := namedSet([]string{"AC_NO"})

	source, err := AssignNames(fs, nil)
	require.NoError(t, err)
	assert.Equal(t, NamesIndex, source)
	assert.Equal(t, 0, fs.Len())
}

func TestReadNamesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.txt")
	require.NoError(t, os.WriteFile(path, []byte("Araku\n\n  Paderu \r\nRampachodavaram\n"), 0o644))

	got, err := ReadNamesFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Araku", "Paderu", "Rampachodavaram"}, got)
}

func TestReadNamesFileMissing(t *testing.T) {
	_, err := ReadNamesFile(filepath.Join(t.TempDir(), "names.txt"))
	var nf *types.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "names file", nf.Kind)
}
