package script

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

// document is the on-disk form of a script. Only the source text and identity
// are persisted; lines, scenes and the roster are re-derived on load.
type document struct {
	ID        string    `yaml:"id"`
	Title     string    `yaml:"title"`
	CreatedAt time.Time `yaml:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at"`
	RawText   string    `yaml:"raw_text"`
}

var idRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// Store keeps scripts as YAML files, one <id>.yaml per script.
type Store struct {
	dir    string
	parser *Parser
	mu     sync.Mutex
}

// NewStore creates a store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create script directory: %w", err)
	}
	return &Store{dir: dir, parser: NewParser()}, nil
}

// Dir returns the directory the store writes to.
func (st *Store) Dir() string {
	return st.dir
}

// Save writes s to disk and bumps its UpdatedAt.
func (st *Store) Save(s *Script) error {
	if s == nil {
		return ErrEmptyScript
	}
	if !idRegex.MatchString(s.ID) {
		return fmt.Errorf("%w: %q", ErrInvalidID, s.ID)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	s.UpdatedAt = st.parser.now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = s.UpdatedAt
	}

	data, err := yaml.Marshal(document{
		ID:        s.ID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		RawText:   s.RawText,
	})
	if err != nil {
		return fmt.Errorf("failed to encode script %s: %w", s.ID, err)
	}

	path := st.path(s.ID)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to write script %s: %w", s.ID, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to write script %s: %w", s.ID, err)
	}

	log.Debug("script saved", "id", s.ID, "path", path)
	return nil
}

// Load reads and re-parses the script with the given ID.
func (st *Store) Load(id string) (*Script, error) {
	if !idRegex.MatchString(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	return st.load(st.path(id))
}

// Delete removes the script with the given ID.
func (st *Store) Delete(id string) error {
	if !idRegex.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	err := os.Remove(st.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

// List returns every stored script, most recently updated first. Files that
// fail to load are skipped and logged.
func (st *Store) List() ([]*Script, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	entries, err := os.ReadDir(st.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read script directory: %w", err)
	}

	var scripts []*Script
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		s, err := st.load(filepath.Join(st.dir, e.Name()))
		if err != nil {
			log.Warn("skipping unreadable script", "file", e.Name(), "error", err)
			continue
		}
		scripts = append(scripts, s)
	}

	sort.SliceStable(scripts, func(i, j int) bool {
		return scripts[i].UpdatedAt.After(scripts[j].UpdatedAt)
	})
	return scripts, nil
}

func (st *Store) load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}

	s, err := st.parser.build(doc.ID, doc.Title, doc.RawText, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (st *Store) path(id string) string {
	return filepath.Join(st.dir, id+".yaml")
}
