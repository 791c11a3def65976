// Package markers stores user frequency annotations per band. Marker
// documents live beside, not inside, the immutable band artifact sets, so
// re-ingesting a band never destroys user annotations, and they may be
// rewritten at any time without coordinating with readers of the store.
package markers

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Marker is a single user annotation on a band's frequency axis.
type Marker struct {
	ID    string  `json:"id"`    // client-assigned identifier
	Freq  float64 `json:"freq"`  // Hz
	Label string  `json:"label"`
	Color string  `json:"color"` // CSS color string
	Width float64 `json:"width"` // optional region width, Hz
}

// Store reads and writes per-band marker documents under a data root.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) path(bandID string) string {
	return filepath.Join(s.root, fmt.Sprintf("markers_%s.json", bandID))
}

// Load returns the band's markers; a band without a marker document has an
// empty list, not an error.
func (s *Store) Load(bandID string) ([]Marker, error) {
	data, err := os.ReadFile(s.path(bandID))
	if err != nil {
		if os.IsNotExist(err) {
			return []Marker{}, nil
		}
		return nil, fmt.Errorf("markers: reading document for band %s: %w", bandID, err)
	}
	var out []Marker
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("markers: parsing document for band %s: %w", bandID, err)
	}
	return out, nil
}

// Save replaces the band's marker document via rename, so concurrent
// readers see either the old or the new document, never a partial write.
func (s *Store) Save(bandID string, ms []Marker) error {
	if ms == nil {
		ms = []Marker{}
	}
	data, err := json.MarshalIndent(ms, "", "  ")
	if err != nil {
		return fmt.Errorf("markers: encoding document for band %s: %w", bandID, err)
	}

	path := s.path(bandID)
	tmp, err := os.CreateTemp(s.root, ".markers-")
	if err != nil {
		return fmt.Errorf("markers: staging document for band %s: %w", bandID, err)
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("markers: writing document for band %s: %w", bandID, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("markers: flushing document for band %s: %w", bandID, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("markers: publishing document for band %s: %w", bandID, err)
	}
	return nil
}
