// Package store persists merged, quantized band matrices as flat,
// memory-mappable artifacts and serves bounded windows of them back.
//
// One directory per band id under the data root:
//
//	band<ID>/
//	  waterfall.i16   T*F int16 codes, little-endian, row-major
//	  freqs.f64       F float64 values, little-endian, ascending
//	  rel_t.i64       T int64 values, little-endian, rel_t[0] == 0
//	  meta.json       quantization params, shape, bounds, epoch, tiers
//	  tiers.json      min/avg/max summaries per decimation factor
//
// Artifacts are written into a hidden staging directory and published with
// an atomic rename, so readers only ever observe complete sets. Published
// sets are immutable; re-ingesting a band swaps in a freshly built
// directory.
package store

import (
	"path/filepath"
	"strings"
)

const (
	matrixFile = "waterfall.i16"
	freqsFile  = "freqs.f64"
	timesFile  = "rel_t.i64"
	metaFile   = "meta.json"
	tiersFile  = "tiers.json"

	bandPrefix  = "band"
	stagePrefix = ".band"
)

func bandDir(root, id string) string {
	return filepath.Join(root, bandPrefix+id)
}

// bandIDFromDir extracts the band id from a band directory name, or "" if
// the name is not a published band directory.
func bandIDFromDir(name string) string {
	if !strings.HasPrefix(name, bandPrefix) || strings.HasPrefix(name, stagePrefix) {
		return ""
	}
	return strings.TrimPrefix(name, bandPrefix)
}
