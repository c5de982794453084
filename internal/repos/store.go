package repos

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/favsync/internal/shared"
)

// Store reads and writes repository identity documents under a base directory.
// Each repository is a subdirectory named after the repo holding one
// [ConfigFileName] document next to its artifact files.
type Store struct {
	baseDir string
	logger  *log.Logger
}

// NewStore creates a store rooted at baseDir.
func NewStore(baseDir string, logger *log.Logger) *Store {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Store{baseDir: baseDir, logger: logger}
}

// BaseDir returns the root directory holding all repositories.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// RepoPath returns the directory for the named repository.
func (s *Store) RepoPath(name string) string {
	return filepath.Join(s.baseDir, name)
}

func (s *Store) configPath(name string) string {
	return filepath.Join(s.baseDir, name, ConfigFileName)
}

// Create persists a brand-new identity. It fails with [shared.ErrAlreadyExists]
// when an identity document is already present, so initialization can never
// silently overwrite an existing repository.
func (s *Store) Create(identity *Identity) error {
	path := s.configPath(identity.RepoName)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", shared.ErrAlreadyExists, identity.RepoName)
	}

	if err := os.MkdirAll(s.RepoPath(identity.RepoName), 0755); err != nil {
		return fmt.Errorf("failed to create repository directory: %w", err)
	}

	return s.Save(identity.RepoName, identity)
}

// Load reads the identity for the named repository. A missing or unparseable
// document yields (nil, nil): corrupt state is logged and treated as absent,
// never fatal.
func (s *Store) Load(name string) (*Identity, error) {
	data, err := os.ReadFile(s.configPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read repository config: %w", err)
	}

	var identity Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		s.logger.Warn("corrupt repository config, treating as absent", "repo", name, "err", err)
		return nil, nil
	}

	if identity.VideoList == nil {
		identity.VideoList = make(map[string]*LedgerEntry)
	}

	return &identity, nil
}

// Save writes the full identity document in a single logical write:
// temp file, fsync, atomic rename. A crash mid-write leaves the previous
// document intact.
func (s *Store) Save(name string, identity *Identity) error {
	writer, err := NewAtomicWriter(s.configPath(name))
	if err != nil {
		return fmt.Errorf("failed to open config for writing: %w", err)
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(identity); err != nil {
		writer.Abort()
		return fmt.Errorf("failed to encode repository config: %w", err)
	}

	if err := writer.Commit(); err != nil {
		return fmt.Errorf("failed to commit repository config: %w", err)
	}

	return nil
}
