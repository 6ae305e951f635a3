package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/respond"
)

// MutationRecorder observes the outcome of every cart mutation.
type MutationRecorder interface {
	RecordCartMutation(action cart.Action, err error)
}

type CartHandler struct {
	carts   *cart.Service
	metrics MutationRecorder
	log     *logrus.Entry
}

func NewCartHandler(carts *cart.Service, metrics MutationRecorder, log *logrus.Entry) *CartHandler {
	return &CartHandler{carts: carts, metrics: metrics, log: log}
}

type addItemRequest struct {
	ProductGUID string `json:"productGUID" validate:"required,uuid4"`
	Quantity    *int   `json:"quantity" validate:"required,min=1,max=100"`
}

func (req *addItemRequest) trim() {
	req.ProductGUID = strings.TrimSpace(req.ProductGUID)
}

type updateItemRequest struct {
	Quantity *int `json:"quantity" validate:"required,min=0,max=100"`
}

// GetCart returns the caller's cart, or the cart of {userId} when present.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(r.Context(), middleware.MustPrincipal(r.Context()), chi.URLParam(r, "userId"))
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, c)
}

func (h *CartHandler) ListCarts(w http.ResponseWriter, r *http.Request) {
	carts, err := h.carts.List(r.Context(), middleware.MustPrincipal(r.Context()))
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, carts)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !bind(w, r, &req) {
		return
	}

	c, err := h.carts.AddItem(r.Context(), middleware.MustPrincipal(r.Context()), chi.URLParam(r, "userId"), req.ProductGUID, *req.Quantity)
	h.finish(w, r, cart.ActionAdd, c, err)
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productGUID")
	if !validProductGUID(w, r, productID) {
		return
	}
	var req updateItemRequest
	if !bind(w, r, &req) {
		return
	}

	c, err := h.carts.UpdateItem(r.Context(), middleware.MustPrincipal(r.Context()), "", productID, *req.Quantity)
	h.finish(w, r, cart.ActionUpdate, c, err)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productGUID")
	if !validProductGUID(w, r, productID) {
		return
	}

	c, err := h.carts.RemoveItem(r.Context(), middleware.MustPrincipal(r.Context()), "", productID)
	h.finish(w, r, cart.ActionRemove, c, err)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Clear(r.Context(), middleware.MustPrincipal(r.Context()), "")
	h.finish(w, r, cart.ActionClear, c, err)
}

func (h *CartHandler) finish(w http.ResponseWriter, r *http.Request, action cart.Action, c *cart.Cart, err error) {
	if h.metrics != nil {
		h.metrics.RecordCartMutation(action, err)
	}
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, c)
}
