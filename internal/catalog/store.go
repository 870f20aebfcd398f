package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"repo-clipboard/internal/git/mirror"
)

// Store reads and writes the catalog file. Update serialises
// read-modify-write cycles within one process.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store for the catalog file at path
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the catalog file location
func (s *Store) Path() string {
	return s.path
}

// Load reads and validates the catalog. A missing file is ErrCatalogNotFound
// and an empty document is ErrEmptyCatalog.
func (s *Store) Load() (*Catalog, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s; run init or create it from config.example.yaml", ErrCatalogNotFound, s.path)
		}
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", s.path, err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Tag == "!!null" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyCatalog, s.path)
	}

	var cat Catalog
	if err := doc.Decode(&cat); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", s.path, err)
	}
	if err := cat.normalize(); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", s.path, err)
	}

	return &cat, nil
}

// Save writes the catalog through a temporary file and rename, so readers
// never observe a partial document.
func (s *Store) Save(cat *Catalog) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cat); err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".catalog-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temporary catalog: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace catalog: %w", err)
	}

	slog.Debug("Catalog saved", "path", s.path, "repositories", len(cat.Repositories))
	return nil
}

// Update loads the catalog, applies fn and saves the result. Nothing is
// written when fn fails.
func (s *Store) Update(fn func(*Catalog) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cat, err := s.Load()
	if err != nil {
		return err
	}
	if err := fn(cat); err != nil {
		return err
	}
	return s.Save(cat)
}

// Init writes an empty catalog when none exists and reports whether it did
func (s *Store) Init() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("failed to inspect catalog: %w", err)
	}

	if err := s.Save(&Catalog{Repositories: []Repository{}}); err != nil {
		return false, err
	}
	slog.Info("Catalog created", "path", s.path)
	return true, nil
}

func (c *Catalog) normalize() error {
	seen := make(map[string]bool, len(c.Repositories))
	for i := range c.Repositories {
		repo := &c.Repositories[i]
		if repo.Branch == "" {
			repo.Branch = mirror.DefaultBranch
		}
		if err := repo.Validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i+1, err)
		}
		if seen[repo.Name] {
			return fmt.Errorf("%w: duplicate name %s", ErrInvalidRepository, repo.Name)
		}
		seen[repo.Name] = true
	}
	return nil
}
