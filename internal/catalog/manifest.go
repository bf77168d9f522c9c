package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrUnknownDataset = errors.New("unknown dataset")

// Dataset is one manifest entry.
type Dataset struct {
	ID          string   `yaml:"id" json:"id"`
	Label       string   `yaml:"label" json:"label"`
	NotebookURL string   `yaml:"notebookUrl" json:"notebookUrl,omitempty"`
	Sources     []string `yaml:"sources" json:"sources"`
}

// Manifest lists the available datasets. Both YAML and JSON files parse.
type Manifest struct {
	Datasets []Dataset `yaml:"datasets" json:"datasets"`
}

// LoadManifest reads a manifest file. Relative file sources are resolved
// against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	for i := range m.Datasets {
		for j, src := range m.Datasets[i].Sources {
			if !isURL(src) && !filepath.IsAbs(src) {
				m.Datasets[i].Sources[j] = filepath.Join(dir, src)
			}
		}
	}
	return m, nil
}

// ParseManifest decodes and validates a manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	seen := make(map[string]struct{}, len(m.Datasets))
	for i := range m.Datasets {
		d := &m.Datasets[i]
		d.ID = strings.TrimSpace(d.ID)
		if d.ID == "" {
			return nil, fmt.Errorf("manifest: dataset %d has no id", i)
		}
		if _, dup := seen[d.ID]; dup {
			return nil, fmt.Errorf("manifest: duplicate dataset id %q", d.ID)
		}
		seen[d.ID] = struct{}{}
		if len(d.Sources) == 0 {
			return nil, fmt.Errorf("manifest: dataset %q has no sources", d.ID)
		}
		if d.Label == "" {
			d.Label = d.ID
		}
	}
	return &m, nil
}

// Lookup returns the dataset with the given id.
func (m *Manifest) Lookup(id string) (Dataset, error) {
	for _, d := range m.Datasets {
		if d.ID == id {
			return d, nil
		}
	}
	return Dataset{}, fmt.Errorf("%w: %q", ErrUnknownDataset, id)
}

func isURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}
