package app

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	httpxmiddleware "typst-relay/internal/httpx/middleware"
)

// Router builds the full HTTP routing tree.
func (a *ServerApp) Router() (http.Handler, error) {
	if a == nil {
		return nil, errors.New("server app is nil")
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(httpxmiddleware.RequestLogger(a.Logger))
	router.Use(a.withPanicRecovery)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.Config.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Group(func(r chi.Router) {
		r.Use(httpxmiddleware.AuthAPI([]byte(a.Config.JWTSecret)))
		r.Get("/commands", a.RelayHandler.List)
		r.Post("/invoke/{command}", a.RelayHandler.Invoke)
		r.Get("/ws/status", a.WSHandler.Handle)
	})

	return router, nil
}
