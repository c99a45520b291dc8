// Package manager keeps the catalogue stores under a base directory open on
// demand.
package manager

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/duynguyendang/tripsim/pkg/catalogue"
	"github.com/duynguyendang/tripsim/pkg/common/errors"
	"github.com/duynguyendang/tripsim/pkg/logger"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// CatalogueMetadata describes a catalogue directory.
type CatalogueMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

const (
	DefaultMaxOpen = 10
	ListTTL        = 1 * time.Minute
	metadataFile   = "metadata.json"
)

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// CatalogueManager opens catalogue stores by name and closes the least
// recently used one when more than maxOpen are open.
type CatalogueManager struct {
	baseDir  string
	readOnly bool
	stores   *lru.Cache[string, *catalogue.Store]
	log      *zap.SugaredLogger

	mu            sync.RWMutex
	cachedList    []CatalogueMetadata
	lastListBuild time.Time
}

// New returns a manager for catalogues under baseDir.
func New(baseDir string, maxOpen int, readOnly bool) (*CatalogueManager, error) {
	if maxOpen <= 0 {
		maxOpen = DefaultMaxOpen
	}
	log := logger.Named("manager")
	cache, err := lru.NewWithEvict[string, *catalogue.Store](maxOpen, func(name string, s *catalogue.Store) {
		if err := s.Close(); err != nil {
			log.Warnw("close evicted catalogue", logger.FieldCatalogue, name, logger.FieldError, err)
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "catalogue cache")
	}
	return &CatalogueManager{
		baseDir:  baseDir,
		readOnly: readOnly,
		stores:   cache,
		log:      log,
	}, nil
}

// Store returns the named catalogue's store, opening it if necessary.
func (m *CatalogueManager) Store(name string) (*catalogue.Store, error) {
	if s, ok := m.stores.Get(name); ok {
		return s, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.stores.Get(name); ok {
		return s, nil
	}

	dir, err := m.dir(name)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, errors.Wrapf(errors.ErrNotFound, "catalogue %s", name)
	}
	return m.open(name, dir)
}

// Create makes a new catalogue directory and opens its store. An existing
// catalogue is opened as is.
func (m *CatalogueManager) Create(name, description string) (*catalogue.Store, error) {
	if m.readOnly {
		return nil, errors.Wrap(errors.ErrUnauthorized, "catalogue manager is read-only")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.stores.Get(name); ok {
		return s, nil
	}

	dir, err := m.dir(name)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create catalogue %s", name)
	}
	if description != "" {
		data, err := json.Marshal(CatalogueMetadata{Name: name, Description: description})
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(filepath.Join(dir, metadataFile), data, 0o644); err != nil {
			return nil, errors.Wrapf(err, "write metadata for %s", name)
		}
	}
	m.cachedList = nil
	return m.open(name, dir)
}

// Entries returns the named catalogue's entries.
func (m *CatalogueManager) Entries(name string) ([]catalogue.Entry, error) {
	s, err := m.Store(name)
	if err != nil {
		return nil, err
	}
	return s.List()
}

// open must be called with m.mu held.
func (m *CatalogueManager) open(name, dir string) (*catalogue.Store, error) {
	cfg := catalogue.DefaultConfig(dir)
	cfg.ReadOnly = m.readOnly
	cfg.BypassLockGuard = m.readOnly
	cfg.Profile = catalogue.ProfileLowMem
	if !m.readOnly {
		cfg.Profile = catalogue.ProfileImport
	}

	s, err := catalogue.Open(cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "open catalogue %s", name)
	}
	m.stores.Add(name, s)
	m.log.Debugw("opened catalogue", logger.FieldCatalogue, name, "read_only", m.readOnly)
	return s, nil
}

func (m *CatalogueManager) dir(name string) (string, error) {
	if !validName.MatchString(name) {
		return "", errors.Wrapf(errors.ErrInvalidInput, "invalid catalogue name %q", name)
	}
	return filepath.Join(m.baseDir, name), nil
}

// List returns the catalogues under the base directory. The listing is cached
// for ListTTL.
func (m *CatalogueManager) List() ([]CatalogueMetadata, error) {
	m.mu.RLock()
	if m.cachedList != nil && time.Since(m.lastListBuild) < ListTTL {
		list := make([]CatalogueMetadata, len(m.cachedList))
		copy(list, m.cachedList)
		m.mu.RUnlock()
		return list, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []CatalogueMetadata{}, nil
		}
		return nil, errors.Wrapf(err, "list catalogues in %s", m.baseDir)
	}

	list := make([]CatalogueMetadata, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || !validName.MatchString(entry.Name()) {
			continue
		}
		meta := CatalogueMetadata{Name: entry.Name()}
		if data, err := os.ReadFile(filepath.Join(m.baseDir, entry.Name(), metadataFile)); err == nil {
			var stored CatalogueMetadata
			if err := json.Unmarshal(data, &stored); err == nil {
				meta.Description = stored.Description
			}
		}
		list = append(list, meta)
	}

	m.cachedList = list
	m.lastListBuild = time.Now()
	out := make([]CatalogueMetadata, len(list))
	copy(out, list)
	return out, nil
}

// CloseAll closes every open store.
func (m *CatalogueManager) CloseAll() {
	m.stores.Purge()
}
