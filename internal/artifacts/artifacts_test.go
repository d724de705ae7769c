package artifacts

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func TestWriteJSONWritesPrettyFileAndGzipSibling(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deps.json")

	payload := map[string][]string{"a.ts": {"b.ts"}}
	if err := WriteJSON(path, payload); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var roundTrip map[string][]string
	if err := json.Unmarshal(raw, &roundTrip); err != nil {
		t.Fatal(err)
	}
	if roundTrip["a.ts"][0] != "b.ts" {
		t.Errorf("round-tripped payload = %v, want a.ts -> [b.ts]", roundTrip)
	}

	gz, err := os.Open(path + ".gz")
	if err != nil {
		t.Fatal(err)
	}
	defer gz.Close()
	r, err := gzip.NewReader(gz)
	if err != nil {
		t.Fatal(err)
	}
	decompressed, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(decompressed) != string(raw) {
		t.Error("gzip sibling should decompress to exactly the uncompressed file's bytes")
	}
}
