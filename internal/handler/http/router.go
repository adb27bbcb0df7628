package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sumisonnn/MEDICO/internal/auth"
	"github.com/sumisonnn/MEDICO/internal/cart"
	"github.com/sumisonnn/MEDICO/internal/catalog"
	"github.com/sumisonnn/MEDICO/internal/order"
	"github.com/sumisonnn/MEDICO/internal/user"
)

// FeedServer upgrades an admin request to the live order feed.
type FeedServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
}

type Deps struct {
	Catalog catalog.Service
	Carts   cart.Service
	Orders  order.Service
	Users   user.Service
	Tokens  *auth.TokenManager
	Feed    FeedServer
}

func NewRouter(deps Deps) http.Handler {
	validate := newValidator()

	authHandler := NewAuthHandler(deps.Users, deps.Tokens, validate)
	medicineHandler := NewMedicineHandler(deps.Catalog, validate)
	cartHandler := NewCartHandler(deps.Carts, validate)
	orderHandler := NewOrderHandler(deps.Orders, validate)
	userHandler := NewUserHandler(deps.Users, validate)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.Route("/api", func(r chi.Router) {
		authHandler.RegisterRoutes(r)
		medicineHandler.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(deps.Tokens.Middleware)
			cartHandler.RegisterRoutes(r)
			orderHandler.RegisterRoutes(r)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(deps.Tokens.Middleware)
			r.Use(auth.RequireRole(auth.RoleAdmin))

			orderHandler.RegisterAdminRoutes(r)
			if deps.Feed != nil {
				r.Get("/orders/feed", deps.Feed.ServeWS)
			}
			medicineHandler.RegisterAdminRoutes(r)
			userHandler.RegisterRoutes(r)
		})
	})

	return router
}
