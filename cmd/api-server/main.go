package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinicdesk/appointment-backend/internal/api"
	"github.com/clinicdesk/appointment-backend/internal/config"
	"github.com/clinicdesk/appointment-backend/internal/db"
	"github.com/clinicdesk/appointment-backend/internal/notify"
	"github.com/clinicdesk/appointment-backend/internal/redisclient"
	"github.com/clinicdesk/appointment-backend/internal/scheduling"
)

const version = "1.0.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running in env=%s http_port=%s", cfg.Env, cfg.HTTPPort)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}()
	log.Println("connected to Redis")

	repo := scheduling.NewPgRepository(pgPool)

	// Schema and the initial doctor pair are applied at startup.
	initCtx, cancelInit := context.WithTimeout(rootCtx, 10*time.Second)
	if err := repo.Migrate(initCtx); err != nil {
		cancelInit()
		log.Fatalf("schema migration error: %v", err)
	}
	if err := repo.SeedInitialDoctors(initCtx); err != nil {
		cancelInit()
		log.Fatalf("doctor seed error: %v", err)
	}
	cancelInit()

	locker := redisclient.NewRedisDoctorLocker(rdb, cfg.LockTTL)
	mailer := notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SenderEmail)

	var messenger notify.MessengerNotifier = notify.LogMessenger{}
	if cfg.SummaryWebhookURL != "" {
		messenger = notify.NewWebhookMessenger(cfg.SummaryWebhookURL)
	}

	svc := scheduling.NewService(repo, locker, mailer, notify.LogCalendar{}, messenger)

	router := api.NewRouter(api.RouterConfig{
		Service:      svc,
		PgPool:       pgPool,
		Redis:        rdb,
		Env:          cfg.Env,
		Version:      version,
		BookingRPS:   cfg.BookingRPS,
		BookingBurst: cfg.BookingBurst,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("http server listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
			stop()
		}
	}()

	<-rootCtx.Done()

	log.Println("shutting down api-server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
}
