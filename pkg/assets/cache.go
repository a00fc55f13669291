package assets

import (
	"slices"

	"buddy/pkg/catalog"
	"buddy/pkg/utils"
)

// Cache holds fetched image bytes keyed by body part name.
type Cache struct {
	m *utils.SyncMap[map[string][]byte, string, []byte]
}

func NewCache() *Cache {
	return &Cache{m: utils.NewSyncMap[map[string][]byte]()}
}

func (c *Cache) Get(part string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	return c.m.Load(part)
}

func (c *Cache) Has(part string) bool {
	_, ok := c.Get(part)
	return ok
}

func (c *Cache) Store(part string, data []byte) {
	c.m.Store(part, data)
}

func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.m.Len()
}

// Parts returns the cached part names: body parts in catalog order, then any
// other names sorted.
func (c *Cache) Parts() []string {
	if c == nil {
		return nil
	}
	var known, extra []string
	for _, p := range catalog.BodyParts {
		if c.Has(p) {
			known = append(known, p)
		}
	}
	for _, k := range c.m.Keys() {
		if !catalog.IsBodyPart(k) {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)
	return append(known, extra...)
}

// Missing lists the body parts absent from the cache, in catalog order.
func (c *Cache) Missing() []string {
	return utils.Missing(catalog.BodyParts, c.Parts())
}
