// Package artifacts writes the analyzer's JSON outputs: the raw
// dependencies-mapping and its dependency-graph and root-files-mapping
// projections, each alongside a gzip sibling for CI archival (SPEC_FULL.md §10).
package artifacts

import (
	"encoding/json"
	"os"

	"github.com/klauspost/compress/gzip"
)

// WriteJSON marshals v as pretty-printed JSON to path, and writes a
// ".gz" sibling compressing the same bytes. The uncompressed file remains
// the contract downstream consumers read; the gzip sibling is what CI
// archives.
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	return writeGzip(path+".gz", data)
}

func writeGzip(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	gw := gzip.NewWriter(f)
	if _, err := gw.Write(data); err != nil {
		gw.Close()
		return err
	}
	return gw.Close()
}
