package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"dulif-backend/internal/config"
	"dulif-backend/internal/domain"
	"dulif-backend/internal/security"
	"dulif-backend/internal/service"
)

// Deps bundles everything the router needs. Repositories and services are
// constructed by the caller so the router stays agnostic of the store driver.
type Deps struct {
	Users         domain.UserRepository
	Tokens        *security.TokenService
	Auth          *service.AuthService
	UserSvc       *service.UserService
	Listings      *service.ListingService
	Ratings       *service.RatingService
	Conversations *service.ConversationService
	Messages      *service.MessageService
	WSHandler     http.HandlerFunc
}

// NewRouter constructs the main HTTP router and wires routes and middleware.
func NewRouter(cfg *config.Config, d Deps) http.Handler {
	r := chi.NewRouter()

	// Middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"DULIF Marketplace API","version":"1.0.0"}`))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Auth routes (no auth required)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", signupHandler(d.Auth))
			r.Post("/verify", verifyHandler(d.Auth))
			r.Post("/login", loginHandler(d.Auth))
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(d.Tokens, d.Users))

			r.Get("/auth/me", meHandler())

			// Users
			r.Route("/users", func(r chi.Router) {
				r.Patch("/me", updateProfileHandler(d.UserSvc))
				r.Get("/{userID}", getUserHandler(d.UserSvc))
			})

			// Listings
			r.Route("/listings", func(r chi.Router) {
				r.Get("/", browseListingsHandler(d.Listings))
				r.Post("/", createListingHandler(d.Listings))
				r.Get("/{listingID}", getListingHandler(d.Listings))
				r.Patch("/{listingID}", updateListingHandler(d.Listings))
			})

			// Ratings
			r.Route("/ratings", func(r chi.Router) {
				r.Post("/", submitRatingHandler(d.Ratings))
				r.Get("/can-rate", canRateHandler(d.Ratings))
				r.Get("/pending", pendingRatingsHandler(d.Ratings))
			})
			r.Get("/sellers/{sellerID}/ratings", sellerRatingsHandler(d.Ratings))

			// Conversations
			r.Route("/conversations", func(r chi.Router) {
				r.Get("/", listConversationsHandler(d.Conversations))
				r.Post("/", startConversationHandler(d.Conversations))
				r.Route("/{conversationID}", func(r chi.Router) {
					r.Get("/", getConversationHandler(d.Conversations))
					r.Get("/messages", listMessagesHandler(d.Messages))
					r.Post("/messages", sendMessageHandler(d.Messages))
					r.Get("/unread", unreadCountHandler(d.Messages))
					r.Post("/read", markReadHandler(d.Messages))
				})
			})
		})
	})

	// WebSocket endpoint (token auth handled inside the handler)
	r.Get("/ws", d.WSHandler)

	return r
}
