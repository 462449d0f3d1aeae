package testsupport

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// LoadFixture loads test data from a fixture file.
// The path is relative to the test package directory.
func LoadFixture(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}

	return data
}

// LoadFixtureJSON loads JSON test data from a fixture file and unmarshals it.
func LoadFixtureJSON(t *testing.T, path string, dest any) {
	t.Helper()

	data := LoadFixture(t, path)
	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// FixturePath constructs a path to a fixture file relative to the testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}

// CacheRoot returns a fresh cache root inside the test's temp directory.
// The directory itself is not created, matching a first run.
func CacheRoot(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), ".cache")
}

// ListBlobs returns every regular file under root, relative to root and
// slash separated, sorted. A missing root yields an empty list.
func ListBlobs(t *testing.T, root string) []string {
	t.Helper()

	var blobs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		blobs = append(blobs, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		t.Fatalf("failed to walk cache root %s: %v", root, err)
	}

	sort.Strings(blobs)
	return blobs
}

// CorruptFile overwrites path with bytes that are not a valid blob.
func CorruptFile(t *testing.T, path string) {
	t.Helper()

	if err := os.WriteFile(path, []byte(strings.Repeat("not gzip", 4)), 0o644); err != nil {
		t.Fatalf("failed to corrupt %s: %v", path, err)
	}
}
