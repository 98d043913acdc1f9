package loader

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
)

// Fixture is one non-code entry from the test manifest: testdata files,
// golden files, generated inputs. They surface as data nodes in the tree so
// a package's test assets sit next to its coverage.
type Fixture struct {
	// Path is the fixture location relative to the module root, using
	// forward slashes ("pkg/loader/testdata/profile.out").
	Path string `json:"path"`
	// Name overrides the display name; the path's base name when empty.
	Name string `json:"name,omitempty"`
}

// Manifest is the optional covview test manifest.
type Manifest struct {
	Fixtures []Fixture `json:"fixtures"`
}

// LoadManifest reads and decodes a manifest file. A missing file is not an
// error: the manifest is optional.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, err)
	}
	return &m, nil
}
