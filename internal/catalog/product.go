package catalog

import (
	"time"

	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/apperr"
)

var (
	ErrNotFound  = apperr.NotFound("product not found")
	ErrDuplicate = apperr.Conflict("Duplicate productGUID value entered")
)

type Supplier struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type Product struct {
	ID            string    `json:"productGUID"`
	Name          string    `json:"productName"`
	Description   string    `json:"description"`
	Supplier      Supplier  `json:"supplier"`
	SupplierPrice float64   `json:"supplierPrice"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
