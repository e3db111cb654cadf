package platform

import (
	"sort"
	"strings"
	"sync"

	"github.com/juju/errors"
)

var (
	registryMu sync.RWMutex
	registry   = map[string]func() Dialect{
		"ansi":       NewANSI,
		"postgresql": NewPostgreSQL,
		"postgres":   NewPostgreSQL,
		"mysql":      NewMySQL,
		"sqlite":     NewSQLite,
		"sqlite3":    NewSQLite,
		"oracle":     NewOracle,
		"db2":        NewDB2,
		"maxdb":      NewMaxDB,
		"sapdb":      NewMaxDB,
	}
)

// Register makes a dialect available under the given name, replacing any
// dialect registered under it before.
func Register(name string, factory func() Dialect) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(name)] = factory
}

// Lookup returns a fresh instance of the named dialect. Names are matched
// case-insensitively; unknown names fail with a NotFound error.
func Lookup(name string) (Dialect, error) {
	registryMu.RLock()
	factory, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.NotFoundf("dialect %q", name)
	}
	return factory(), nil
}

// Names returns every registered dialect name in sorted order
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
