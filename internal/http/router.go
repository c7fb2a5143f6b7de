package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	authhttp "github.com/MrJamesThe3rd/budgetnest/internal/http/auth"
	"github.com/MrJamesThe3rd/budgetnest/internal/http/budget"
	"github.com/MrJamesThe3rd/budgetnest/internal/http/export"
	"github.com/MrJamesThe3rd/budgetnest/internal/http/importcsv"
	"github.com/MrJamesThe3rd/budgetnest/internal/http/matching"
)

type Handlers struct {
	Auth     *authhttp.Handler
	Budgets  *budget.Handler
	Import   *importcsv.Handler
	Export   *export.Handler
	Matching *matching.Handler
	// Verifier guards every route except login and register.
	Verifier authhttp.Verifier
}

func New(allowedOrigins []string, h Handlers) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", h.Auth.Routes)

		r.Group(func(r chi.Router) {
			r.Use(authhttp.RequireUser(h.Verifier))

			r.Route("/budgets", func(r chi.Router) {
				h.Budgets.Routes(r)

				r.Route("/{year}/{month}", func(r chi.Router) {
					r.Group(func(r chi.Router) {
						r.Use(middleware.AllowContentType("application/json"))
						h.Budgets.PeriodRoutes(r)
					})

					h.Import.Routes(r)
					h.Export.Routes(r)
				})
			})

			r.Route("/matching", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				h.Matching.Routes(r)
			})
		})
	})

	return router
}
