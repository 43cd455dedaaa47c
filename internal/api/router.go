package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/blog-api/internal/api/handlers"
	"github.com/isdelr/blog-api/internal/auth"
	"github.com/isdelr/blog-api/internal/services"
	"github.com/isdelr/blog-api/internal/websocket"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	hub *websocket.Hub,
	tokens *auth.TokenService,
	allowedOrigins []string,
	authService services.AuthServiceProvider,
	userService services.UserServiceProvider,
	postService services.PostServiceProvider,
	eventService services.EventServiceProvider,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	postHandler := handlers.NewPostHandler(postService)
	eventHandler := handlers.NewEventHandler(eventService)
	wsHandler := handlers.NewWebSocketHandler(hub, allowedOrigins)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.With(tokens.RequireAuth).Get("/profile", authHandler.Profile)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", userHandler.GetAll)
			r.Route("/{id}", func(r chi.Router) {
				r.With(tokens.OptionalAuth).Get("/", userHandler.Get)
				r.Group(func(r chi.Router) {
					r.Use(tokens.RequireAuth)
					r.Patch("/", userHandler.Update)
					r.Delete("/", userHandler.Delete)
					r.Put("/password", userHandler.UpdatePassword)
				})
			})
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", postHandler.GetPublished)
			r.With(tokens.RequireAuth).Post("/", postHandler.Create)
			r.With(tokens.RequireAuth).Get("/my-posts", postHandler.GetMine)
			r.Route("/{id}", func(r chi.Router) {
				r.With(tokens.OptionalAuth).Get("/", postHandler.Get)
				r.Group(func(r chi.Router) {
					r.Use(tokens.RequireAuth)
					r.Patch("/", postHandler.Update)
					r.Delete("/", postHandler.Delete)
				})
			})
		})

		r.With(tokens.RequireAuth).Get("/events", eventHandler.GetRecent)

		// Live feed of newly published posts
		r.Get("/feed/ws", wsHandler.Serve)
	})

	return r
}
