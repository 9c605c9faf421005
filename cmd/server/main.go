// Command server runs the practitioner onboarding service.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	noteskeystore "meridian/internal/applicant/store/noteskey"
	subjectstore "meridian/internal/applicant/store/subject"
	tokenstore "meridian/internal/applicant/store/token"
	"meridian/internal/directory"
	"meridian/internal/jwttoken"
	"meridian/internal/mail"
	"meridian/internal/onboarding/handler"
	onbmetrics "meridian/internal/onboarding/metrics"
	"meridian/internal/onboarding/service"
	"meridian/internal/onboarding/throttle"
	"meridian/internal/platform/config"
	"meridian/internal/platform/httpserver"
	"meridian/internal/platform/logger"
	"meridian/internal/platform/metrics"
	platformredis "meridian/internal/platform/redis"
	"meridian/internal/pms"
	httptransport "meridian/internal/transport/http"
	"meridian/internal/vault"
	"meridian/pkg/platform/tx"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := sql.Open("postgres", cfg.Postgres.DSN)
	if err != nil {
		log.Error("open postgres", "error", err)
		os.Exit(1)
	}
	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	if err := db.Ping(); err != nil {
		log.Error("postgres unreachable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis setup failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	subjects := subjectstore.NewPostgres(db)
	tokens := tokenstore.NewPostgres(db)
	keys := noteskeystore.NewPostgres(db)
	txRunner := tx.NewSQLRunner(db)

	dirProv := directory.NewProvisioner(directory.NewHTTPClient(cfg.Directory), cfg.Directory, directory.WithLogger(log))
	matcher := pms.NewMatcher(pms.NewHTTPClient(cfg.PMS), pms.WithLogger(log))
	notes := vault.NewKeyProvisioner(vault.NewHTTPClient(cfg.Vault), keys, subjects, txRunner, cfg.Vault, vault.WithLogger(log))
	mailer := mail.NewDispatcher(mail.NewHTTPSender(cfg.Mail), mail.MailConfig{
		FromAddress: cfg.Mail.FromAddress,
		OpsAddress:  cfg.Mail.OpsAddress,
	}, mail.WithLogger(log))

	svc := service.New(subjects, tokens, dirProv, matcher, notes, mailer, txRunner,
		service.Config{
			LinkBaseURL: cfg.Onboarding.LinkBaseURL,
			TokenTTL:    cfg.Onboarding.TokenTTL,
		},
		service.WithLogger(log),
		service.WithMetrics(onbmetrics.New()),
	)

	var th throttle.Throttle
	if redisClient != nil {
		th = throttle.NewRedis(redisClient.Client, cfg.Onboarding.ThrottleLimit, cfg.Onboarding.ThrottleWindow)
	} else {
		log.Info("redis not configured, using in-memory throttle")
		th = throttle.NewMemory(cfg.Onboarding.ThrottleLimit, cfg.Onboarding.ThrottleWindow)
	}

	jwtService := jwttoken.NewService(cfg.Server.AdminJWTKey, "meridian")

	checks := map[string]httptransport.HealthChecker{
		"postgres": pgHealth{db: db},
	}
	if redisClient != nil {
		checks["redis"] = redisClient
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Onboarding: handler.New(svc, th, handler.WithLogger(log)),
		AdminAuth:  jwttoken.MiddlewareValidator{Service: jwtService},
		HTTPMetric: metrics.NewHTTP(),
		Logger:     log,
		Checks:     checks,
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	go func() {
		log.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

type pgHealth struct {
	db *sql.DB
}

func (h pgHealth) Health(ctx context.Context) error {
	return h.db.PingContext(ctx)
}
