package http

import (
	"net/http"
	"strings"
	"time"

	"farmlink/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Config struct {
	CORSOrigins    []string
	RateLimit      int
	RateWindow     time.Duration
	CacheTTLUsers  time.Duration
	CacheTTLPublic time.Duration
	SecureCookies  bool
}

type Handler struct {
	auth   service.AuthService
	users  service.UserService
	chat   service.ChatService
	tokens service.TokenService
	cache  *ResponseCache
	cfg    Config
}

func NewRouter(auth service.AuthService, users service.UserService, chat service.ChatService, tokens service.TokenService, cache *ResponseCache, cfg Config) http.Handler {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 100
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = 15 * time.Minute
	}
	h := &Handler{auth: auth, users: users, chat: chat, tokens: tokens, cache: cache, cfg: cfg}

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(httprate.LimitByIP(cfg.RateLimit, cfg.RateWindow))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   originsIfSet(cfg.CORSOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
		r.Post("/logout", h.handleLogout)
		r.Group(func(pr chi.Router) {
			pr.Use(h.requireAuth)
			pr.Post("/send-verify-otp", h.handleSendVerifyCode)
			pr.Post("/verify-account", h.handleVerifyAccount)
			pr.Get("/me", h.handleMe)
		})
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Group(func(pr chi.Router) {
			pr.Use(h.requireAuth)
			pr.Get("/profile", h.handleProfile)
			pr.Put("/profile", h.handleUpdateProfile)
			pr.Get("/search", h.handleSearch)
		})
		r.Group(func(pub chi.Router) {
			if h.cache != nil {
				pub.Use(h.cache.Middleware(cfg.CacheTTLPublic))
			}
			pub.Get("/public/all", h.handlePublicList)
			pub.Get("/public/search", h.handlePublicSearch)
		})
	})

	r.Route("/api/messages", func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Post("/conversations", h.handleCreateConversation)
		r.Get("/conversations", h.handleListConversations)
		r.Post("/", h.handleSendMessage)
		r.Get("/{conversationID}", h.handleListMessages)
	})

	return r
}

func originsIfSet(in []string) []string {
	out := []string{}
	for _, o := range in {
		if s := strings.TrimSpace(o); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
