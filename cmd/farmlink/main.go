package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"farmlink/internal/config"
	"farmlink/internal/observability/logging"
	"farmlink/internal/observability/metrics"
	"farmlink/internal/observability/middleware"
	impl "farmlink/internal/service/impl"
	"farmlink/internal/store"
	httpx "farmlink/internal/transport/http"
	"farmlink/pkg/db"
)

func main() {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}

	logger := logging.NewLogger(logging.Config{
		ServiceName: "farmlink",
		Environment: env,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	slog.SetDefault(logger)
	metrics.MustRegister("farmlink")

	logger.Info("starting service")

	cfg := config.Load()

	gdb, err := db.OpenGorm(db.Config{DSN: cfg.DatabaseURL, LogSQL: cfg.LogSQL})
	if err != nil {
		logger.Error("gorm open", "error", err)
		os.Exit(1)
	}

	st := store.New(gdb)
	if err := st.AutoMigrate(context.Background()); err != nil {
		logger.Error("auto migrate", "error", err)
		os.Exit(1)
	}

	pw := impl.NewPasswordServiceArgon2id()
	ts := impl.NewTokenServiceHS256(impl.TokenConfig{
		Issuer:     cfg.Issuer,
		Audience:   cfg.Audience,
		SessionTTL: cfg.SessionTTL,
		SigningKey: []byte(cfg.SigningKey),
	}, st)
	email := impl.NewSMTPEmailService(impl.SMTPConfig{
		Addr:     cfg.SMTPAddr,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		Sender:   cfg.SenderEmail,
	})

	as := impl.NewAuthServiceImpl(st, pw, ts, email, cfg.VerifyCodeTTL)
	us := impl.NewUserServiceImpl(st)
	cs := impl.NewChatServiceImpl(st)

	cache := httpx.NewResponseCache(cfg.CacheTTLUsers)

	router := httpx.NewRouter(as, us, cs, ts, cache, httpx.Config{
		CORSOrigins:    strings.Split(cfg.CORSOrigins, ","),
		RateLimit:      cfg.RateLimit,
		RateWindow:     cfg.RateWindow,
		CacheTTLUsers:  cfg.CacheTTLUsers,
		CacheTTLPublic: cfg.CacheTTLPublic,
		SecureCookies:  env == "production",
	})

	handler := middleware.WithRequestAndTrace(middleware.WithMetrics(router))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("farmlink listening", "addr", cfg.Addr, "issuer", cfg.Issuer)
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
