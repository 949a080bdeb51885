package config

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/Aman-CERP/backdrops/internal/errors"
	"github.com/Aman-CERP/backdrops/internal/identifier"
)

// Setting keys understood by GetSetting.
const (
	KeyExternalPaths  = "externalPaths"
	KeyLocalTags      = "localTags"
	KeyBackgroundsDir = "backgroundsDir"
	KeyDataDir        = "dataDir"
)

// Partial is a settings update. Nil fields are left unchanged.
type Partial struct {
	ExternalPaths  *[]string
	LocalTags      *[]LocalTag
	BackgroundsDir *string
}

// Store is the settings collaborator. It keeps the file contents separate
// from the effective (env-overridden) config so that saving never persists
// environment overrides.
type Store struct {
	mu        sync.RWMutex
	path      string
	file      *Config
	effective *Config
}

// OpenStore loads the settings file at path (the user config path when
// empty). A missing file yields defaults.
func OpenStore(path string) (*Store, error) {
	if path == "" {
		path = GetUserConfigPath()
	}
	file, err := loadFile(path)
	if err != nil {
		return nil, errors.New(errors.ErrCodeConfigInvalid, err.Error(), err).WithDetail("path", path)
	}

	s := &Store{path: path, file: file}
	if err := s.refresh(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) refresh() error {
	eff := s.file.clone()
	eff.applyEnvOverrides()
	if err := eff.Validate(); err != nil {
		return errors.New(errors.ErrCodeConfigInvalid, err.Error(), err).WithDetail("path", s.path)
	}
	s.effective = eff
	return nil
}

// Path returns the settings file path.
func (s *Store) Path() string {
	return s.path
}

// Config returns a copy of the effective configuration.
func (s *Store) Config() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.effective.clone()
}

// GetSetting returns the value stored under key: []string for
// externalPaths, []LocalTag for localTags, string for the directories.
func (s *Store) GetSetting(key string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch key {
	case KeyExternalPaths:
		return append([]string{}, s.effective.ExternalPaths...), nil
	case KeyLocalTags:
		return append([]LocalTag{}, s.effective.LocalTags...), nil
	case KeyBackgroundsDir:
		return s.effective.Paths.Backgrounds, nil
	case KeyDataDir:
		return s.effective.Paths.DataDir, nil
	}
	return nil, errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("unknown setting %q", key), nil)
}

// ExternalPaths returns the configured external roots in order.
func (s *Store) ExternalPaths() []string {
	v, _ := s.GetSetting(KeyExternalPaths)
	return v.([]string)
}

// LocalTags returns the user's custom tags.
func (s *Store) LocalTags() []LocalTag {
	v, _ := s.GetSetting(KeyLocalTags)
	return v.([]LocalTag)
}

// AllowedTags returns the tag set used for indexing.
func (s *Store) AllowedTags() map[string]struct{} {
	return AllowedTags(s.LocalTags())
}

// Roots computes the storage roots. The legacy default root is included
// only when the primary root differs from the default location.
func (s *Store) Roots() identifier.Roots {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roots := identifier.Roots{
		Primary:  s.effective.Paths.Backgrounds,
		External: append([]string{}, s.effective.ExternalPaths...),
	}
	def := DefaultBackgroundsDir()
	if filepath.Clean(roots.Primary) != filepath.Clean(def) {
		roots.Default = def
	}
	return roots
}

// SaveSettings merges p into the settings file and writes it atomically,
// keeping a backup of the previous file.
func (s *Store) SaveSettings(p Partial) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.file.clone()
	if p.ExternalPaths != nil {
		next.ExternalPaths = append([]string{}, (*p.ExternalPaths)...)
	}
	if p.LocalTags != nil {
		next.LocalTags = append([]LocalTag{}, (*p.LocalTags)...)
	}
	if p.BackgroundsDir != nil {
		next.Paths.Backgrounds = *p.BackgroundsDir
	}
	if err := next.Validate(); err != nil {
		return errors.New(errors.ErrCodeConfigInvalid, err.Error(), err)
	}

	if _, err := Backup(s.path); err != nil {
		return err
	}
	if err := next.WriteYAML(s.path); err != nil {
		return err
	}

	prev := s.file
	s.file = next
	if err := s.refresh(); err != nil {
		s.file = prev
		return err
	}
	return nil
}
