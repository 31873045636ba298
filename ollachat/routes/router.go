package routes

import (
	"net/http"
	"net/url"
	"time"

	"ollachat/ollachat/config"
	"ollachat/ollachat/controllers"
	"ollachat/ollachat/middlewares"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// JSON bodies carry base64 audio, hence the generous cap.
const maxJSONBody = 50 << 20

type Controllers struct {
	Chats     *controllers.ChatsController
	Messages  *controllers.MessagesController
	Files     *controllers.FilesController
	Voice     *controllers.VoiceController
	Functions *controllers.FunctionsController
	Health    *controllers.HealthController
}

func NewRouter(cfg config.Config, c Controllers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.RequestLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Mount("/health", HealthRoutes(c.Health))

	r.Route(cfg.APIPrefix, func(api chi.Router) {
		api.Use(middlewares.AuthMiddleware(cfg.JWTSecret))

		// CRUD style endpoints answer quickly
		api.Group(func(gr chi.Router) {
			gr.Use(middleware.Timeout(60 * time.Second))
			gr.Use(middleware.RequestSize(maxJSONBody))
			gr.Mount("/chats", ChatsRoutes(c.Chats, c.Files))
			gr.Mount("/functions", FunctionRoutes(c.Functions))
			gr.Mount("/status", StatusRoutes(c.Messages))
		})

		// uploads additionally enforce their own, smaller limit
		api.Group(func(gr chi.Router) {
			gr.Use(middleware.Timeout(60 * time.Second))
			gr.Use(middleware.RequestSize(maxJSONBody))
			gr.Mount("/files", FileRoutes(c.Files, cfg.MaxUploadBytes))
		})

		// generation and transcription are bounded by their own timeouts
		api.Group(func(gr chi.Router) {
			gr.Use(middleware.RequestSize(maxJSONBody))
			gr.Mount("/chat", ChatRoutes(c.Messages))
			gr.Mount("/voice", VoiceRoutes(c.Voice))
			gr.Mount("/messages", MessageRoutes(c.Messages, originPatterns(cfg.CORSOrigin)))
		})
	})
	return r
}

func originPatterns(origin string) []string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}
