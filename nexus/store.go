package nexus

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Artifact file names written under the profile directory.
const (
	userProfileFile = "user_profile.json"
	modInfosFile    = "mod_infos.json"
	fileListsFile   = "file_lists.json"
)

// Store persists fetched API artifacts as JSON files in a profile
// directory, one file per artifact kind. Each save overwrites the
// previous snapshot.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore returns a store rooted at dir. The directory is created on
// first save.
func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{dir: dir, logger: logger}
}

// Dir returns the profile directory.
func (s *Store) Dir() string { return s.dir }

// SaveUserProfile writes the validated account snapshot.
func (s *Store) SaveUserProfile(p *UserProfile) error {
	return s.save(userProfileFile, p)
}

// SaveModInfos writes the successful entries of a metadata batch.
// Failed entries are skipped; they carry no value worth persisting.
func (s *Store) SaveModInfos(a Aggregated[ModInfo]) error {
	return s.save(modInfosFile, a.Values())
}

// SaveFileLists writes the successful entries of a file-list batch.
func (s *Store) SaveFileLists(a Aggregated[FileList]) error {
	return s.save(fileListsFile, a.Values())
}

// LoadUserProfile reads back a previously saved account snapshot.
func (s *Store) LoadUserProfile() (*UserProfile, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, userProfileFile))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", userProfileFile, err)
	}

	var p UserProfile
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", userProfileFile, err)
	}

	return &p, nil
}

func (s *Store) save(name string, v any) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating profile directory: %w", err)
	}

	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}

	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}

	s.logger.Debug("artifact saved", "path", path, "bytes", len(b))

	return nil
}
