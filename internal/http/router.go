package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/metrics"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/respond"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/user"
)

const serviceName = "shop-service"

type Deps struct {
	Log      *logrus.Entry
	Cfg      config.Config
	Metrics  *metrics.Metrics
	Resolver middleware.PrincipalResolver
	Limiter  *middleware.RateLimiter
	Accounts *user.Accounts
	Products *catalog.Service
	Carts    *cart.Service
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(middleware.Recover(d.Log))
	r.Use(d.Metrics.Instrument)
	r.Use(chimw.Compress(5))
	r.Use(middleware.CORS(d.Cfg.CORSAllowOrigins))
	if d.Cfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(d.Cfg.RequestTimeout))
	}

	r.Get("/health", healthHandler)
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())

	authH := NewAuthHandler(d.Accounts, d.Log)
	userH := NewUserHandler(d.Accounts, d.Log)
	productH := NewProductHandler(d.Products, d.Log)
	cartH := NewCartHandler(d.Carts, d.Metrics, d.Log)

	r.Route("/api/auth", func(r chi.Router) {
		if d.Limiter != nil {
			r.Use(d.Limiter.Handler)
		}
		r.Post("/register", authH.Register)
		r.Post("/login", authH.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(d.Resolver, d.Log, d.Metrics))
		if d.Limiter != nil {
			r.Use(d.Limiter.Handler)
		}

		r.Route("/api/users", func(r chi.Router) {
			r.With(middleware.RequireRole(auth.RoleAdmin)).Get("/", userH.List)
			r.Get("/{id}", userH.Get)
			r.Put("/{id}", userH.Update)
			r.With(middleware.RequireRole(auth.RoleAdmin)).Delete("/{id}", userH.Delete)
		})

		r.Route("/api/products", func(r chi.Router) {
			r.Get("/", productH.List)
			r.Get("/{productGUID}", productH.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(auth.RoleAdmin))
				r.Post("/", productH.Create)
				r.Put("/{productGUID}", productH.Update)
				r.Delete("/{productGUID}", productH.Delete)
			})
		})

		r.Route("/api/cart", func(r chi.Router) {
			r.Get("/", cartH.GetCart)
			r.Post("/", cartH.AddItem)
			r.Delete("/", cartH.Clear)

			r.Put("/items/{productGUID}", cartH.UpdateItem)
			r.Delete("/items/{productGUID}", cartH.RemoveItem)

			r.With(middleware.RequireRole(auth.RoleAdmin)).Get("/all", cartH.ListCarts)
			r.Get("/user/{userId}", cartH.GetCart)
			r.Post("/user/{userId}", cartH.AddItem)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Status(w, r, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.Status(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": serviceName,
	})
}
