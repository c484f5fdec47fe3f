// Package mapdir pairs nav files with the geometry files they were built
// for, by map name.
package mapdir

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dyuri/navconv/internal/export"
)

// Pair is one map's nav file and, if found, its geometry file.
type Pair struct {
	Name         string
	GeometryPath string // empty when no geometry file exists
	NavPath      string
}

// Paths returns the geometry and nav paths for a single map name.
func Paths(mapsDir, navsDir, mapName, mapExt, navExt string) (geometry, nav string) {
	return filepath.Join(mapsDir, mapName+mapExt), filepath.Join(navsDir, mapName+navExt)
}

// Pairs lists every nav file in navsDir, sorted by map name, each paired
// with the same-named geometry file from mapsDir. Nav files compressed
// with zstd or LZ4 (map.nav.zst, map.nav.lz4) are listed too.
func Pairs(mapsDir, navsDir, mapExt, navExt string) ([]Pair, error) {
	dirEnts, err := os.ReadDir(navsDir)
	if err != nil {
		return nil, fmt.Errorf("read nav directory: %w", err)
	}

	var pairs []Pair
	for _, dirEnt := range dirEnts {
		if dirEnt.IsDir() {
			continue
		}
		fName := dirEnt.Name()
		plain, _ := export.TrimCompressionExt(fName)
		if !strings.EqualFold(filepath.Ext(plain), navExt) {
			continue
		}
		name := plain[:len(plain)-len(navExt)]

		p := Pair{
			Name:    name,
			NavPath: filepath.Join(navsDir, fName),
		}
		geometry := filepath.Join(mapsDir, name+mapExt)
		if info, err := os.Stat(geometry); err == nil && !info.IsDir() {
			p.GeometryPath = geometry
		}
		pairs = append(pairs, p)
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Name != pairs[j].Name {
			return pairs[i].Name < pairs[j].Name
		}
		return pairs[i].NavPath < pairs[j].NavPath
	})
	return pairs, nil
}
