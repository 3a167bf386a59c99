// Package bizconfig loads static per-business configuration from YAML files
// on disk, one file per business id. Configs are cached after first load and
// treated as immutable.
package bizconfig

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"fortuneone-chat-backend/internal/types"
)

// ErrNotFound is returned when no configuration file exists for a business
// id. For a live session this is fatal: the server sends one terminal error
// message and closes the connection.
var ErrNotFound = errors.New("business config not found")

type Loader struct {
	dir   string
	mu    sync.RWMutex
	cache map[string]*types.BusinessConfig
}

func NewLoader(dir string) *Loader {
	return &Loader{dir: dir, cache: make(map[string]*types.BusinessConfig)}
}

// Load returns the configuration for businessID, reading
// <dir>/<businessID>.yaml on first use.
func (l *Loader) Load(businessID string) (*types.BusinessConfig, error) {
	l.mu.RLock()
	cfg, ok := l.cache[businessID]
	l.mu.RUnlock()
	if ok {
		return cfg, nil
	}

	path := filepath.Join(l.dir, businessID+".yaml")
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "reading business config %s", path)
	}
	var parsed types.BusinessConfig
	if err := yaml.Unmarshal(b, &parsed); err != nil {
		return nil, errors.Wrapf(err, "parsing business config %s", path)
	}
	if parsed.BusinessID == "" {
		parsed.BusinessID = businessID
	}

	l.mu.Lock()
	l.cache[businessID] = &parsed
	l.mu.Unlock()
	return &parsed, nil
}
