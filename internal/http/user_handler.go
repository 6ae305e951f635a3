package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/respond"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/user"
)

type UserHandler struct {
	accounts *user.Accounts
	log      *logrus.Entry
}

func NewUserHandler(accounts *user.Accounts, log *logrus.Entry) *UserHandler {
	return &UserHandler{accounts: accounts, log: log}
}

type updateUserRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=2,max=50"`
	Email *string `json:"email" validate:"omitempty,email"`
}

func (req *updateUserRequest) trim() {
	trimPtr(req.Name)
	trimPtr(req.Email)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.List(r.Context(), middleware.MustPrincipal(r.Context()))
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, users)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.accounts.Get(r.Context(), middleware.MustPrincipal(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if !bind(w, r, &req) {
		return
	}

	u, err := h.accounts.Update(r.Context(), middleware.MustPrincipal(r.Context()), chi.URLParam(r, "id"), user.Update{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.Delete(r.Context(), middleware.MustPrincipal(r.Context()), chi.URLParam(r, "id")); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.NoContent(w)
}
