// Package memory holds map-backed stores used when STORAGE_DRIVER=memory and in tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/cart"
)

type CartStore struct {
	mu      sync.Mutex
	byOwner map[string]*cart.Cart
	now     func() time.Time
}

func NewCartStore() *CartStore {
	return &CartStore{byOwner: make(map[string]*cart.Cart), now: time.Now}
}

func (s *CartStore) FindByOwner(ctx context.Context, ownerID string) (*cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byOwner[ownerID]
	if !ok {
		return nil, cart.ErrCartNotFound
	}
	return c.Clone(), nil
}

func (s *CartStore) Create(ctx context.Context, c *cart.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byOwner[c.OwnerID]; ok {
		return cart.ErrCartExists
	}
	c.Version = 1
	c.UpdatedAt = s.now().UTC()
	if c.Items == nil {
		c.Items = []cart.Item{}
	}
	s.byOwner[c.OwnerID] = c.Clone()
	return nil
}

func (s *CartStore) Save(ctx context.Context, c *cart.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byOwner[c.OwnerID]
	if !ok || stored.ID != c.ID || stored.Version != c.Version {
		return cart.ErrStaleCart
	}
	c.Version++
	c.UpdatedAt = s.now().UTC()
	s.byOwner[c.OwnerID] = c.Clone()
	return nil
}

func (s *CartStore) List(ctx context.Context) ([]cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]cart.Cart, 0, len(s.byOwner))
	for _, c := range s.byOwner {
		out = append(out, *c.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.Before(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *CartStore) DeleteByOwner(ctx context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byOwner[ownerID]; !ok {
		return cart.ErrCartNotFound
	}
	delete(s.byOwner, ownerID)
	return nil
}
