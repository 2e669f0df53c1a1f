// Package shptest helps tests write shapefiles with go-shp.
package shptest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/require"
)

// Close closes w and moves its attribute table to <base>.dbf.
//
// The go-shp writer names the table <base>dbf (no dot) while its reader,
// like every other shapefile tool, opens <base>.dbf.
func Close(t testing.TB, w *shp.Writer, shpPath string) {
	t.Helper()
	w.Close()

	base := strings.TrimSuffix(shpPath, filepath.Ext(shpPath))
	written := base + "dbf"
	if _, err := os.Stat(written); os.IsNotExist(err) {
		return
	}
	require.NoError(t, os.Rename(written, base+".dbf"))
}
