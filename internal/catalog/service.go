package catalog

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/auth"
)

// Service exposes the product catalog. Reads are open to any principal, writes need admin.
type Service struct {
	repo Repository
	log  *logrus.Entry
}

func NewService(repo Repository, log *logrus.Entry) *Service {
	return &Service{repo: repo, log: log}
}

// FindProduct resolves a product for the cart engine.
func (s *Service) FindProduct(ctx context.Context, id string) (Product, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	return *p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) Create(ctx context.Context, p auth.Principal, in Product) (*Product, error) {
	if !auth.CheckRole(p, auth.RoleAdmin) {
		return nil, auth.ErrNotPermitted
	}
	prod := normalize(in)
	if err := s.repo.Create(ctx, &prod); err != nil {
		return nil, err
	}
	s.log.WithField("product_id", prod.ID).Info("product created")
	return &prod, nil
}

// Update replaces every editable field of the product with id.
func (s *Service) Update(ctx context.Context, p auth.Principal, id string, in Product) (*Product, error) {
	if !auth.CheckRole(p, auth.RoleAdmin) {
		return nil, auth.ErrNotPermitted
	}
	prod := normalize(in)
	prod.ID = id
	if err := s.repo.Update(ctx, &prod); err != nil {
		return nil, err
	}
	return &prod, nil
}

// Patch holds the product fields a partial update may change. Nil means unchanged.
type Patch struct {
	Name          *string
	Description   *string
	SupplierName  *string
	SupplierCode  *string
	SupplierPrice *float64
}

func (pt Patch) apply(p *Product) {
	if pt.Name != nil {
		p.Name = *pt.Name
	}
	if pt.Description != nil {
		p.Description = *pt.Description
	}
	if pt.SupplierName != nil {
		p.Supplier.Name = *pt.SupplierName
	}
	if pt.SupplierCode != nil {
		p.Supplier.Code = *pt.SupplierCode
	}
	if pt.SupplierPrice != nil {
		p.SupplierPrice = *pt.SupplierPrice
	}
}

// Patch applies the set fields of pt to the stored product.
func (s *Service) Patch(ctx context.Context, p auth.Principal, id string, pt Patch) (*Product, error) {
	if !auth.CheckRole(p, auth.RoleAdmin) {
		return nil, auth.ErrNotPermitted
	}
	cur, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	pt.apply(cur)
	return s.Update(ctx, p, id, *cur)
}

func (s *Service) Delete(ctx context.Context, p auth.Principal, id string) error {
	if !auth.CheckRole(p, auth.RoleAdmin) {
		return auth.ErrNotPermitted
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithField("product_id", id).Info("product deleted")
	return nil
}

func normalize(p Product) Product {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	p.Supplier.Name = strings.TrimSpace(p.Supplier.Name)
	p.Supplier.Code = strings.TrimSpace(p.Supplier.Code)
	return p
}
