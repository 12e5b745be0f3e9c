package artifact

import (
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

// Manifest records what a build produced. Two builds over the same corpus
// must yield identical digests.
type Manifest struct {
	CreatedAt time.Time       `yaml:"createdAt"`
	Documents int             `yaml:"documents"`
	Skipped   []string        `yaml:"skipped,omitempty"`
	Terms     int             `yaml:"terms"`
	Artifacts []ManifestEntry `yaml:"artifacts"`
}

// ManifestEntry describes one artifact file.
type ManifestEntry struct {
	Name   string `yaml:"name"`
	Path   string `yaml:"path"`
	Lines  int    `yaml:"lines"`
	Blake3 string `yaml:"blake3"`
}

// Digest returns the hex BLAKE3-256 of the file's decompressed content.
func Digest(path string) (string, error) {
	rc, err := Open("artifact", path)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	h := blake3.New()
	if _, err := io.Copy(h, rc); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// WriteManifest serializes m as YAML at path, atomically.
func WriteManifest(path string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	w, err := Create(path)
	if err != nil {
		return err
	}
	if _, err := w.buf.Write(data); err != nil {
		w.Abort()
		return fmt.Errorf("writing manifest: %w", err)
	}
	return w.Commit()
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (*Manifest, error) {
	data, err := ReadAll("manifest", path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return &m, nil
}
