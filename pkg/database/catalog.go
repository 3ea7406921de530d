package database

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Catalog manages the named indexes that can be scanned.
type Catalog struct {
	indexes map[string]*Index
	ids     map[uint32]string
	mu      sync.RWMutex
}

// NewCatalog creates a new empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		indexes: make(map[string]*Index),
		ids:     make(map[uint32]string),
	}
}

// RegisterIndex adds an index to the catalog. Names and ids must be unique.
func (c *Catalog) RegisterIndex(ix *Index) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := strings.ToLower(ix.Name)
	if _, ok := c.indexes[key]; ok {
		return fmt.Errorf("index '%s' already registered", ix.Name)
	}
	if other, ok := c.ids[ix.ID]; ok {
		return fmt.Errorf("index '%s' reuses id %d of index '%s'", ix.Name, ix.ID, other)
	}
	c.indexes[key] = ix
	c.ids[ix.ID] = ix.Name
	return nil
}

// GetIndex retrieves an index by name
func (c *Catalog) GetIndex(name string) (*Index, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ix, ok := c.indexes[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("index '%s' not found", name)
	}
	return ix, nil
}

// Indexes lists the registered indexes ordered by name.
func (c *Catalog) Indexes() []*Index {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Index, 0, len(c.indexes))
	for _, ix := range c.indexes {
		out = append(out, ix)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
