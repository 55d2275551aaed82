package fs

import (
	"os"
	"path/filepath"

	"github.com/fwojciec/sitemirror"
	"gopkg.in/yaml.v3"
)

// manifestEntry is the on-disk form of a mirrored file.
type manifestEntry struct {
	Path   string `yaml:"path"`
	Source string `yaml:"source"`
	Kind   string `yaml:"kind"`
	Bytes  int    `yaml:"bytes"`
	Hash   string `yaml:"hash"`
}

// WriteManifest writes the list of mirrored files to path as YAML.
func WriteManifest(path string, files []sitemirror.MirroredFile) error {
	entries := make([]manifestEntry, 0, len(files))
	for _, f := range files {
		entries = append(entries, manifestEntry{
			Path:   f.Path,
			Source: f.Source,
			Kind:   f.Kind.String(),
			Bytes:  f.Bytes,
			Hash:   f.Hash,
		})
	}

	data, err := yaml.Marshal(map[string]any{"files": entries})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
