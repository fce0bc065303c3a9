package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"dulif-backend/internal/config"
	"dulif-backend/internal/domain"
	"dulif-backend/internal/httpserver"
	"dulif-backend/internal/live"
	"dulif-backend/internal/mail"
	"dulif-backend/internal/security"
	"dulif-backend/internal/service"
	"dulif-backend/internal/store/postgres"
	"dulif-backend/internal/store/sqlite"
	"dulif-backend/internal/ws"
	"dulif-backend/pkg/logger"
)

type repositories struct {
	users         domain.UserRepository
	listings      domain.ListingRepository
	ratings       domain.RatingRepository
	pending       domain.PendingRatingRepository
	conversations domain.ConversationRepository
	messages      domain.MessageRepository
	codes         domain.VerificationRepository
}

func openStore(cfg *config.Config) (*sql.DB, repositories, error) {
	if cfg.DBDriver == "postgres" {
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, repositories{}, err
		}
		if err := postgres.Migrate(db); err != nil {
			db.Close()
			return nil, repositories{}, err
		}
		return db, repositories{
			users:         postgres.NewUserRepo(db),
			listings:      postgres.NewListingRepo(db),
			ratings:       postgres.NewRatingRepo(db),
			pending:       postgres.NewPendingRatingRepo(db),
			conversations: postgres.NewConversationRepo(db),
			messages:      postgres.NewMessageRepo(db),
			codes:         postgres.NewVerificationRepo(db),
		}, nil
	}

	db, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		return nil, repositories{}, err
	}
	if err := sqlite.Migrate(db); err != nil {
		db.Close()
		return nil, repositories{}, err
	}
	return db, repositories{
		users:         sqlite.NewUserRepo(db),
		listings:      sqlite.NewListingRepo(db),
		ratings:       sqlite.NewRatingRepo(db),
		pending:       sqlite.NewPendingRatingRepo(db),
		conversations: sqlite.NewConversationRepo(db),
		messages:      sqlite.NewMessageRepo(db),
		codes:         sqlite.NewVerificationRepo(db),
	}, nil
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	// Initialize database
	db, repos, err := openStore(cfg)
	if err != nil {
		zlog.Fatal("open database", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer db.Close()

	// Security components
	tokenSvc := security.NewTokenService(cfg.JWTSecret, time.Duration(cfg.AccessTokenMinutes)*time.Minute)
	passwordHasher := security.NewPasswordHasher(0)

	// Live update broker and mail transport
	broker := live.NewBroker()
	sender := mail.NewLogSender(zlog)

	// Services
	authSvc := service.NewAuthService(
		repos.users,
		repos.codes,
		sender,
		tokenSvc,
		passwordHasher,
		zlog,
		cfg.CampusEmailDomain,
		time.Duration(cfg.VerificationTTLMinutes)*time.Minute,
		cfg.VerificationMaxAttempts,
		time.Duration(cfg.RememberMeDays)*24*time.Hour,
	)
	userSvc := service.NewUserService(repos.users)
	listingSvc := service.NewListingService(repos.listings, repos.pending, zlog)
	ratingSvc := service.NewRatingService(repos.ratings, repos.users, repos.pending, zlog)
	convSvc := service.NewConversationService(repos.conversations, repos.listings, zlog)
	msgSvc := service.NewMessageService(repos.conversations, repos.messages, broker, zlog, cfg.MaxMessageLength, cfg.MessageWindow)

	wsHandler := ws.MakeHandler(tokenSvc, repos.users, msgSvc, cfg.CORSOrigins, zlog)

	// Build HTTP router
	router := httpserver.NewRouter(cfg, httpserver.Deps{
		Users:         repos.users,
		Tokens:        tokenSvc,
		Auth:          authSvc,
		UserSvc:       userSvc,
		Listings:      listingSvc,
		Ratings:       ratingSvc,
		Conversations: convSvc,
		Messages:      msgSvc,
		WSHandler:     wsHandler,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		zlog.Info("starting server",
			zap.String("app", cfg.AppName),
			zap.String("addr", cfg.HTTPAddr()),
			zap.String("driver", cfg.DBDriver),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	zlog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zlog.Warn("graceful shutdown failed", zap.Error(err))
	}
}
