// Package main runs the registration groups HTTP API.
//
// @title Event Registration Groups API
// @version 1.0
// @description Registration groups, email invites and group membership for events.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"eventregistration/config"
	_ "eventregistration/docs"
	"eventregistration/internal/adapters/auth"
	"eventregistration/internal/adapters/email"
	httpdelivery "eventregistration/internal/delivery/http"
	"eventregistration/internal/delivery/http/controllers"
	"eventregistration/internal/platform/otel"
	"eventregistration/internal/repository/postgres"
	"eventregistration/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := config.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	shutdownTracing, err := otel.Setup(ctx, otel.Config{
		Enabled:     cfg.OTel.Enabled,
		Endpoint:    cfg.OTel.Endpoint,
		ServiceName: cfg.OTel.ServiceName,
		Environment: cfg.Environment,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("flush traces", "err", err)
		}
	}()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()
	pingCtx, cancel := context.WithTimeout(ctx, cfg.ContextTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return err
	}

	// Repositories
	groupRepo := postgres.NewRegistrationGroupRepository(db)
	memberRepo := postgres.NewGroupMemberRepository(db)
	inviteRepo := postgres.NewRegistrationInviteRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	userRepo := postgres.NewUserRepository(db)
	roleRepo := postgres.NewRoleRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	tx := postgres.NewTransactor(db)

	// Adapters
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.SESRegion,
			AccessKeyID:        cfg.Email.SESAccessKeyID,
			SecretAccessKey:    cfg.Email.SESSecretAccessKey,
			InsecureSkipVerify: cfg.Email.SESInsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		return err
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return err
	}
	verifier := auth.NewJWTVerifier(cfg.JWTSecret)

	// Services
	emailService := services.NewEmailService(mailer, renderer, logger)
	groupService := services.NewRegistrationGroupService(groupRepo, memberRepo, eventRepo, roleRepo, auditRepo, tx, logger, cfg.ContextTimeout)
	inviteService := services.NewRegistrationInviteService(
		groupRepo, memberRepo, inviteRepo, eventRepo, userRepo, roleRepo, auditRepo, tx,
		auth.NewInviteTokenCodec(), emailService, cfg.AppBaseURL, logger, cfg.ContextTimeout,
	)

	router := httpdelivery.NewRouter(
		httpdelivery.RouterConfig{Logger: logger, Verifier: verifier, AllowedOrigins: cfg.CORSAllowedOrigins},
		controllers.NewRegistrationGroupController(logger, groupService),
		controllers.NewRegistrationInviteController(logger, inviteService),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}
