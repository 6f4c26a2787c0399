package service

import (
	"sort"
	"sync"

	"phonecbr/internal/model"
)

// Snapshot is an immutable view of the catalog at one version. Retrieval and
// evaluation passes only ever read a snapshot.
type Snapshot struct {
	Version    uint64
	Phones     []model.Phone
	Normalizer *Normalizer
}

// NewSnapshot copies phones, orders them by ID and builds the normalizer.
func NewSnapshot(version uint64, phones []model.Phone) *Snapshot {
	cp := make([]model.Phone, len(phones))
	copy(cp, phones)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].ID < cp[j].ID })
	return &Snapshot{
		Version:    version,
		Phones:     cp,
		Normalizer: NewNormalizer(cp),
	}
}

// Find returns the phone with the given ID.
func (s *Snapshot) Find(id int64) (*model.Phone, bool) {
	i := sort.Search(len(s.Phones), func(i int) bool { return s.Phones[i].ID >= id })
	if i < len(s.Phones) && s.Phones[i].ID == id {
		return &s.Phones[i], true
	}
	return nil, false
}

// Catalog holds the in-memory phone set and hands out versioned snapshots.
// Every mutation bumps the version, which invalidates the cached snapshot and
// its normalizer.
type Catalog struct {
	mu      sync.RWMutex
	phones  map[int64]model.Phone
	version uint64
	snap    *Snapshot
}

// NewCatalog creates a catalog holding phones at version 1.
func NewCatalog(phones []model.Phone) *Catalog {
	c := &Catalog{phones: make(map[int64]model.Phone, len(phones))}
	c.Load(phones)
	return c
}

// Load replaces the whole catalog.
func (c *Catalog) Load(phones []model.Phone) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phones = make(map[int64]model.Phone, len(phones))
	for _, p := range phones {
		c.phones[p.ID] = p
	}
	return c.bump()
}

// Put adds or replaces one phone.
func (c *Catalog) Put(p model.Phone) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phones[p.ID] = p
	return c.bump()
}

// Remove deletes a phone, reporting whether it existed.
func (c *Catalog) Remove(id int64) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.phones[id]; !ok {
		return c.version, false
	}
	delete(c.phones, id)
	return c.bump(), true
}

func (c *Catalog) bump() uint64 {
	c.version++
	c.snap = nil
	return c.version
}

// Version returns the current catalog version.
func (c *Catalog) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Len returns the number of phones.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.phones)
}

// Snapshot returns the snapshot for the current version, building it once per
// version.
func (c *Catalog) Snapshot() *Snapshot {
	c.mu.RLock()
	snap := c.snap
	c.mu.RUnlock()
	if snap != nil {
		return snap
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap == nil {
		phones := make([]model.Phone, 0, len(c.phones))
		for _, p := range c.phones {
			phones = append(phones, p)
		}
		c.snap = NewSnapshot(c.version, phones)
	}
	return c.snap
}
