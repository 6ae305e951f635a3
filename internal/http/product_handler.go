package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/respond"
)

type ProductHandler struct {
	products *catalog.Service
	log      *logrus.Entry
}

func NewProductHandler(products *catalog.Service, log *logrus.Entry) *ProductHandler {
	return &ProductHandler{products: products, log: log}
}

type supplierRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Code string `json:"code" validate:"required,max=50,suppliercode"`
}

type createProductRequest struct {
	ProductName   string          `json:"productName" validate:"required,max=100"`
	Description   string          `json:"description" validate:"required,max=1000"`
	Supplier      supplierRequest `json:"supplier"`
	SupplierPrice *float64        `json:"supplierPrice" validate:"required,min=0,max=1000000"`
}

func (req *createProductRequest) trim() {
	req.ProductName = strings.TrimSpace(req.ProductName)
	req.Description = strings.TrimSpace(req.Description)
	req.Supplier.Name = strings.TrimSpace(req.Supplier.Name)
	req.Supplier.Code = strings.TrimSpace(req.Supplier.Code)
}

type supplierPatch struct {
	Name *string `json:"name" validate:"omitempty,max=100"`
	Code *string `json:"code" validate:"omitempty,max=50,suppliercode"`
}

type updateProductRequest struct {
	ProductName   *string        `json:"productName" validate:"omitempty,max=100"`
	Description   *string        `json:"description" validate:"omitempty,max=1000"`
	Supplier      *supplierPatch `json:"supplier"`
	SupplierPrice *float64       `json:"supplierPrice" validate:"omitempty,min=0,max=1000000"`
}

func (req *updateProductRequest) trim() {
	trimPtr(req.ProductName)
	trimPtr(req.Description)
	if req.Supplier != nil {
		trimPtr(req.Supplier.Name)
		trimPtr(req.Supplier.Code)
	}
}

func (req updateProductRequest) patch() catalog.Patch {
	pt := catalog.Patch{
		Name:          req.ProductName,
		Description:   req.Description,
		SupplierPrice: req.SupplierPrice,
	}
	if req.Supplier != nil {
		pt.SupplierName = req.Supplier.Name
		pt.SupplierCode = req.Supplier.Code
	}
	return pt
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productGUID")
	if !validProductGUID(w, r, id) {
		return
	}
	p, err := h.products.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if !bind(w, r, &req) {
		return
	}

	p, err := h.products.Create(r.Context(), middleware.MustPrincipal(r.Context()), catalog.Product{
		Name:          req.ProductName,
		Description:   req.Description,
		Supplier:      catalog.Supplier{Name: req.Supplier.Name, Code: req.Supplier.Code},
		SupplierPrice: *req.SupplierPrice,
	})
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, p)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productGUID")
	if !validProductGUID(w, r, id) {
		return
	}
	var req updateProductRequest
	if !bind(w, r, &req) {
		return
	}

	p, err := h.products.Patch(r.Context(), middleware.MustPrincipal(r.Context()), id, req.patch())
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productGUID")
	if !validProductGUID(w, r, id) {
		return
	}
	if err := h.products.Delete(r.Context(), middleware.MustPrincipal(r.Context()), id); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.NoContent(w)
}
