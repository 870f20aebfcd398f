package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"repo-clipboard/internal/git/mirror"
)

var (
	ErrCatalogNotFound    = errors.New("catalog file not found")
	ErrEmptyCatalog       = errors.New("catalog file is empty")
	ErrRepositoryNotFound = errors.New("repository not found")
	ErrPatternNotFound    = errors.New("pattern not found")
	ErrRepositoryExists   = errors.New("repository already exists")
	ErrInvalidRepository  = errors.New("invalid repository entry")
	ErrInvalidPattern     = errors.New("invalid pattern set")
)

// Catalog is the persisted list of tracked repositories
type Catalog struct {
	Repositories []Repository `yaml:"repositories" json:"repositories"`
}

// Repository describes one tracked remote and its named pattern sets
type Repository struct {
	Name     string     `yaml:"name" json:"name"`
	URL      string     `yaml:"url" json:"url"`
	Branch   string     `yaml:"branch" json:"branch"`
	Patterns PatternSet `yaml:"patterns" json:"patterns"`
}

// Find returns the named repository
func (c *Catalog) Find(name string) (*Repository, error) {
	for i := range c.Repositories {
		if c.Repositories[i].Name == name {
			return &c.Repositories[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrRepositoryNotFound, name)
}

// Add appends repo after validating it. The branch defaults to main.
func (c *Catalog) Add(repo Repository) error {
	if repo.Branch == "" {
		repo.Branch = mirror.DefaultBranch
	}
	if err := repo.Validate(); err != nil {
		return err
	}
	if _, err := c.Find(repo.Name); err == nil {
		return fmt.Errorf("%w: %s", ErrRepositoryExists, repo.Name)
	}
	c.Repositories = append(c.Repositories, repo)
	return nil
}

// Remove drops the named repository and reports whether it was present
func (c *Catalog) Remove(name string) bool {
	before := len(c.Repositories)
	c.Repositories = slices.DeleteFunc(c.Repositories, func(r Repository) bool {
		return r.Name == name
	})
	return len(c.Repositories) != before
}

// Names lists repository names in catalog order
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Repositories))
	for i, r := range c.Repositories {
		names[i] = r.Name
	}
	return names
}

// Validate checks the fields a sync depends on
func (r *Repository) Validate() error {
	if err := mirror.ValidateName(r.Name); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRepository, err)
	}
	if strings.TrimSpace(r.URL) == "" {
		return fmt.Errorf("%w: repository %s has no url", ErrInvalidRepository, r.Name)
	}
	if err := mirror.ValidateBranch(r.Branch); err != nil {
		return fmt.Errorf("%w: repository %s: %w", ErrInvalidRepository, r.Name, err)
	}
	return nil
}

// PatternList returns the patterns stored under label
func (r *Repository) PatternList(label string) ([]string, error) {
	patterns, ok := r.Patterns.Get(label)
	if !ok {
		return nil, fmt.Errorf("%w: %s for repository %s", ErrPatternNotFound, label, r.Name)
	}
	return patterns, nil
}

// SetPatterns stores patterns under label, replacing any previous set
func (r *Repository) SetPatterns(label string, patterns []string) error {
	if strings.TrimSpace(label) == "" {
		return fmt.Errorf("%w: label must not be empty", ErrInvalidPattern)
	}
	if len(patterns) == 0 {
		return fmt.Errorf("%w: %s has no patterns", ErrInvalidPattern, label)
	}
	r.Patterns.Set(label, patterns)
	return nil
}

// ParsePatterns splits user input on commas and whitespace, dropping empty entries
func ParsePatterns(input string) []string {
	return strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}
