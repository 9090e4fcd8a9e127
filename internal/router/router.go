package router

import (
	"auctionhouse-api/internal/handler"
	"auctionhouse-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler        *handler.Handler
	MarketHandler  *handler.MarketHandler
	SessionHandler *handler.SessionHandler
	Logger         *zap.Logger
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
		}

		if cfg.MarketHandler != nil {
			r.Route("/listings", func(r chi.Router) {
				r.Post("/", cfg.MarketHandler.CreateListing)
				r.Get("/", cfg.MarketHandler.GetListings)
				r.Get("/{id}", cfg.MarketHandler.GetListing)
				r.Post("/{id}/purchase", cfg.MarketHandler.Purchase)
				r.Delete("/{id}", cfg.MarketHandler.CancelListing)
			})

			r.Route("/sellers", func(r chi.Router) {
				r.Get("/", cfg.MarketHandler.GetSellers)
				r.Get("/{seller_id}/listings", cfg.MarketHandler.GetSellerListings)
			})

			r.Route("/mailbox/{owner_id}", func(r chi.Router) {
				r.Get("/", cfg.MarketHandler.GetMailbox)
				r.Post("/claim/{entry_id}", cfg.MarketHandler.Claim)
			})

			r.Get("/price", cfg.MarketHandler.ParsePrice)
		}

		if cfg.SessionHandler != nil {
			r.Route("/sessions/{viewer_id}", func(r chi.Router) {
				r.Post("/", cfg.SessionHandler.OpenScreen)
				r.Get("/", cfg.SessionHandler.CurrentPage)
				r.Post("/next", cfg.SessionHandler.Next)
				r.Post("/previous", cfg.SessionHandler.Previous)
				r.Post("/purchase", cfg.SessionHandler.StartPurchase)
				r.Post("/confirm", cfg.SessionHandler.ConfirmPurchase)
				r.Delete("/", cfg.SessionHandler.Close)
			})
		}
	})

	return r
}
