package carousel

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/teranos/carousel/config"
	"github.com/teranos/carousel/slides"
)

// Registry tracks the carousels mounted on one surface, keyed by identity.
type Registry struct {
	mu        sync.RWMutex
	carousels map[uuid.UUID]*Carousel
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{carousels: make(map[uuid.UUID]*Carousel)}
}

// Mount builds a carousel and registers it. A carousel that fails to build
// is not registered; the error is returned so the host can fall back to
// static content for that instance only.
func (r *Registry) Mount(settings config.Settings, panels []slides.Panel, opts ...Option) (*Carousel, error) {
	c, err := New(settings, panels, opts...)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.carousels[c.ID()]; ok {
		old.Close()
	}
	r.carousels[c.ID()] = c
	return c, nil
}

// Get returns a mounted carousel.
func (r *Registry) Get(id uuid.UUID) (*Carousel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.carousels[id]
	return c, ok
}

// Unmount closes and forgets a carousel. It reports whether it was mounted.
func (r *Registry) Unmount(id uuid.UUID) bool {
	r.mu.Lock()
	c, ok := r.carousels[id]
	delete(r.carousels, id)
	r.mu.Unlock()

	if ok {
		c.Close()
	}
	return ok
}

// Len is the number of mounted carousels.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.carousels)
}

// IDs lists mounted identities in a stable order.
func (r *Registry) IDs() []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(r.carousels))
	for id := range r.carousels {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// CloseAll unmounts every carousel.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := r.carousels
	r.carousels = make(map[uuid.UUID]*Carousel)
	r.mu.Unlock()

	for _, c := range all {
		c.Close()
	}
}
