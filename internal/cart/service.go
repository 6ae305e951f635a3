package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/logging"
)

var (
	ErrCartNotFound    = apperr.NotFound("cart not found")
	ErrItemNotFound    = apperr.NotFound("item not found in cart")
	ErrProductNotFound = apperr.NotFound("product not found")
	ErrOwnerNotFound   = apperr.NotFound("user not found")
	ErrCartExists      = apperr.Conflict("cart already exists")
	ErrStaleCart       = apperr.Conflict("cart was modified concurrently")
)

// Repository persists carts. FindByOwner returns ErrCartNotFound when the owner
// has no cart, Create returns ErrCartExists when one already exists and Save
// returns ErrStaleCart when c.Version no longer matches the stored version.
// Save and Create bump c.Version and c.UpdatedAt on success.
type Repository interface {
	FindByOwner(ctx context.Context, ownerID string) (*Cart, error)
	Create(ctx context.Context, c *Cart) error
	Save(ctx context.Context, c *Cart) error
	List(ctx context.Context) ([]Cart, error)
	DeleteByOwner(ctx context.Context, ownerID string) error
}

// Catalog resolves products by id.
type Catalog interface {
	FindProduct(ctx context.Context, id string) (catalog.Product, error)
}

// OwnerDirectory reports whether a cart owner exists. It is consulted before an
// admin creates a cart on behalf of another user.
type OwnerDirectory interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type Action string

const (
	ActionAdd    Action = "add"
	ActionUpdate Action = "update"
	ActionRemove Action = "remove"
	ActionClear  Action = "clear"
)

// Change describes one applied mutation.
type Change struct {
	Cart      *Cart
	Action    Action
	ProductID string
	ActorID   string
}

type EventPublisher interface {
	PublishCartUpdated(ctx context.Context, ch Change) error
}

type noopPublisher struct{}

func (noopPublisher) PublishCartUpdated(context.Context, Change) error { return nil }

// Service applies cart operations on behalf of a principal.
type Service struct {
	repo    Repository
	catalog Catalog
	owners  OwnerDirectory
	events  EventPublisher
	locks   *ownerLocks
	log     *logrus.Entry
}

type Option func(*Service)

func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

func WithOwnerDirectory(d OwnerDirectory) Option {
	return func(s *Service) { s.owners = d }
}

func NewService(repo Repository, cat Catalog, log *logrus.Entry, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		catalog: cat,
		events:  noopPublisher{},
		locks:   newOwnerLocks(),
		log:     log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the target's cart. A principal reading its own cart gets an empty
// one created on first access; anyone else gets ErrCartNotFound.
func (s *Service) Get(ctx context.Context, p auth.Principal, target string) (*Cart, error) {
	d, err := Authorize(p, target)
	if err != nil {
		return nil, err
	}

	c, err := s.repo.FindByOwner(ctx, d.Owner)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrCartNotFound) {
		return nil, err
	}
	if !d.Self {
		return nil, ErrCartNotFound
	}
	return s.create(ctx, d.Owner)
}

// List returns every cart. Admin only.
func (s *Service) List(ctx context.Context, p auth.Principal) ([]Cart, error) {
	if !auth.CheckRole(p, auth.RoleAdmin) {
		return nil, auth.ErrNotPermitted
	}
	return s.repo.List(ctx)
}

// AddItem adds quantity of a product, merging into an existing line for the same product.
func (s *Service) AddItem(ctx context.Context, p auth.Principal, target, productID string, quantity int) (*Cart, error) {
	if quantity <= 0 {
		return nil, apperr.InvalidInput("quantity must be at least 1")
	}
	d, err := Authorize(p, target)
	if err != nil {
		return nil, err
	}

	product, err := s.catalog.FindProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}

	unlock := s.locks.lock(d.Owner)
	defer unlock()

	c, err := s.loadOrCreate(ctx, d)
	if err != nil {
		return nil, err
	}

	if i := c.indexOf(productID); i >= 0 {
		c.Items[i].Quantity += quantity
	} else {
		c.Items = append(c.Items, Item{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    quantity,
		})
	}

	return s.save(ctx, p, c, ActionAdd, productID)
}

// UpdateItem sets the quantity of an existing line. Zero removes the line.
func (s *Service) UpdateItem(ctx context.Context, p auth.Principal, target, productID string, quantity int) (*Cart, error) {
	if quantity < 0 {
		return nil, apperr.InvalidInput("quantity cannot be negative")
	}
	d, err := Authorize(p, target)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(d.Owner)
	defer unlock()

	c, err := s.repo.FindByOwner(ctx, d.Owner)
	if err != nil {
		return nil, err
	}
	i := c.indexOf(productID)
	if i < 0 {
		return nil, ErrItemNotFound
	}

	if quantity == 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	} else {
		c.Items[i].Quantity = quantity
	}

	return s.save(ctx, p, c, ActionUpdate, productID)
}

func (s *Service) RemoveItem(ctx context.Context, p auth.Principal, target, productID string) (*Cart, error) {
	d, err := Authorize(p, target)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(d.Owner)
	defer unlock()

	c, err := s.repo.FindByOwner(ctx, d.Owner)
	if err != nil {
		return nil, err
	}
	i := c.indexOf(productID)
	if i < 0 {
		return nil, ErrItemNotFound
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)

	return s.save(ctx, p, c, ActionRemove, productID)
}

// Clear empties the cart. The cart must already exist.
func (s *Service) Clear(ctx context.Context, p auth.Principal, target string) (*Cart, error) {
	d, err := Authorize(p, target)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(d.Owner)
	defer unlock()

	c, err := s.repo.FindByOwner(ctx, d.Owner)
	if err != nil {
		return nil, err
	}
	c.Items = []Item{}

	return s.save(ctx, p, c, ActionClear, "")
}

// DeleteByOwner drops the owner's cart entirely. Used when the account goes away.
func (s *Service) DeleteByOwner(ctx context.Context, ownerID string) error {
	unlock := s.locks.lock(ownerID)
	defer unlock()
	return s.repo.DeleteByOwner(ctx, ownerID)
}

// loadOrCreate returns the owner's cart for a write, creating it when missing.
// Creating for someone else requires that the owner exists.
func (s *Service) loadOrCreate(ctx context.Context, d Decision) (*Cart, error) {
	c, err := s.repo.FindByOwner(ctx, d.Owner)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrCartNotFound) {
		return nil, err
	}

	if !d.Self && s.owners != nil {
		ok, err := s.owners.Exists(ctx, d.Owner)
		if err != nil {
			return nil, fmt.Errorf("check owner: %w", err)
		}
		if !ok {
			return nil, ErrOwnerNotFound
		}
	}
	return s.create(ctx, d.Owner)
}

func (s *Service) create(ctx context.Context, owner string) (*Cart, error) {
	c := &Cart{
		ID:      uuid.NewString(),
		OwnerID: owner,
		Items:   []Item{},
	}
	err := s.repo.Create(ctx, c)
	if err == nil {
		s.log.WithFields(logrus.Fields{"cart_id": c.ID, "owner_id": owner}).Debug("cart created")
		return c, nil
	}
	if errors.Is(err, ErrCartExists) {
		// lost a creation race with another request; the stored cart wins
		return s.repo.FindByOwner(ctx, owner)
	}
	return nil, err
}

func (s *Service) save(ctx context.Context, p auth.Principal, c *Cart, action Action, productID string) (*Cart, error) {
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}

	change := Change{Cart: c.Clone(), Action: action, ProductID: productID, ActorID: p.ID}
	if err := s.events.PublishCartUpdated(ctx, change); err != nil {
		logging.FromContext(ctx, s.log).WithError(err).WithFields(logrus.Fields{
			"cart_id":  c.ID,
			"owner_id": c.OwnerID,
			"action":   action,
		}).Warn("publish cart updated failed")
	}
	return c, nil
}
