package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/Aman-CERP/backdrops/internal/errors"
	"github.com/Aman-CERP/backdrops/internal/identifier"
)

// FileName is the catalog file inside the data directory.
const FileName = "catalog.json"

// Stamp identifies one version of the catalog file on disk.
type Stamp struct {
	ModTime time.Time
	Size    int64
}

// Store reads and writes catalog.json.
type Store struct {
	path string
	lock *FileLock
}

// NewStore returns a store for the catalog in dataDir.
func NewStore(dataDir string) *Store {
	return &Store{
		path: filepath.Join(dataDir, FileName),
		lock: NewFileLock(dataDir),
	}
}

// Path returns the catalog file path.
func (s *Store) Path() string {
	return s.path
}

// Lock returns the cross-process catalog lock.
func (s *Store) Lock() *FileLock {
	return s.lock
}

// Exists reports whether the catalog file exists.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Stamp returns the modification stamp of the catalog file.
func (s *Store) Stamp() (Stamp, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return Stamp{}, err
	}
	return Stamp{ModTime: info.ModTime(), Size: info.Size()}, nil
}

// Load reads the catalog. A missing file is CatalogUnavailable; a file that
// does not parse, or whose backgrounds field is absent or not an object, is
// CatalogCorrupt. An empty catalog is never substituted.
func (s *Store) Load() (*Catalog, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, errors.CatalogUnavailable(s.path, err)
	}
	if err != nil {
		return nil, errors.CatalogCorrupt(s.path, "unreadable", err)
	}
	return decode(s.path, data)
}

func decode(path string, data []byte) (*Catalog, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.CatalogCorrupt(path, "not a JSON object", err)
	}
	if raw == nil {
		return nil, errors.CatalogCorrupt(path, "not a JSON object", nil)
	}

	bg, ok := raw["backgrounds"]
	if !ok {
		return nil, errors.CatalogCorrupt(path, "backgrounds field missing", nil)
	}
	if t := bytes.TrimSpace(bg); len(t) == 0 || t[0] != '{' {
		return nil, errors.CatalogCorrupt(path, "backgrounds is not an object", nil)
	}

	var stamps map[identifier.ID]float64
	if err := json.Unmarshal(bg, &stamps); err != nil {
		return nil, errors.CatalogCorrupt(path, "backgrounds holds non-numeric timestamps", err)
	}

	c := New()
	for id, ts := range stamps {
		c.Backgrounds[id] = int64(math.Trunc(ts))
	}

	// The indices are caches rebuilt on every pass; a malformed one is
	// dropped rather than failing the load.
	if v, ok := raw["tags"]; ok {
		if err := json.Unmarshal(v, &c.Tags); err != nil {
			c.Tags = nil
		}
	}
	if v, ok := raw["names"]; ok {
		if err := json.Unmarshal(v, &c.Names); err != nil {
			c.Names = nil
		}
	}
	if v, ok := raw["externalRoots"]; ok {
		if err := json.Unmarshal(v, &c.ExternalRoots); err != nil {
			c.ExternalRoots = nil
		}
	}

	c.Normalize()
	return c, nil
}

// Encode renders c the way Save writes it: two-space indent, sorted keys,
// sorted id lists.
func Encode(c *Catalog) ([]byte, error) {
	out := c.Clone()
	out.Normalize()
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Save writes c atomically through a temp file and rename, so an
// interrupted write leaves the previous catalog intact.
func (s *Store) Save(c *Catalog) error {
	data, err := Encode(c)
	if err != nil {
		return errors.New(errors.ErrCodeInternal, "failed to encode catalog", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace catalog: %w", err)
	}
	return nil
}

// Init creates an empty catalog if none exists. Reports whether one was
// created.
func (s *Store) Init() (bool, error) {
	if s.Exists() {
		return false, nil
	}
	if err := s.Save(New()); err != nil {
		return false, err
	}
	return true, nil
}
