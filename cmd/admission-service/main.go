package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-admission/internal/admission"
	"ms-admission/internal/admission/api"
	admissiondb "ms-admission/internal/admission/db"
	"ms-admission/internal/config"
	"ms-admission/internal/kafka"
	"ms-admission/internal/logger"
	"ms-admission/internal/models"
	"ms-admission/internal/rsvp"
	"ms-admission/internal/token"
	"ms-admission/internal/utils"
)

func connectDatabase(cfg *config.Config, log *logger.Logger) *bun.DB {
	sqldb, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open Postgres: %v", err))
	}
	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to Postgres: %v", err))
	}
	log.Info("DATABASE", "Postgres connection successful")

	return bun.NewDB(sqldb, pgdialect.New())
}

func main() {
	_ = godotenv.Load() // Loads .env file if present

	cfg := config.Load()
	log := logger.NewLogger()
	defer log.Close()

	if cfg.Token.Secret == "" {
		log.Fatal("CONFIG", "TOKEN_SECRET_KEY not set")
	}
	loc, err := utils.LoadReferenceLocation(cfg.Token.ReferenceTZ)
	if err != nil {
		log.Fatal("CONFIG", err.Error())
	}

	ctx := context.Background()
	bunDB := connectDatabase(cfg, log)
	defer bunDB.Close()

	if err := admissiondb.Migrate(ctx, bunDB); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migration failed: %v", err))
	}

	store := &admissiondb.DB{Bun: bunDB}
	codec := token.NewCodec(cfg.Token.Secret, loc, store)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("REDIS", fmt.Sprintf("Redis unreachable, caching disabled: %v", err))
		redisClient = nil
	}

	var rsvpChecker admission.RSVPChecker
	if cfg.RSVP.BaseURL != "" {
		rsvpChecker = rsvp.NewClient(
			cfg.RSVP.BaseURL,
			&http.Client{Timeout: 10 * time.Second},
			redisClient,
			cfg.RSVP.CacheTTL,
			models.M2MConfig{
				KeycloakURL:   cfg.Auth.KeycloakURL,
				KeycloakRealm: cfg.Auth.KeycloakRealm,
				ClientID:      cfg.Auth.ClientID,
				ClientSecret:  cfg.Auth.ClientSecret,
			},
		)
		log.Info("RSVP", fmt.Sprintf("RSVP collaborator at %s", cfg.RSVP.BaseURL))
	} else {
		log.Warn("RSVP", "RSVP_SERVICE_URL not set, trusting stored confirmation flags")
	}

	var publisher admission.ScanPublisher
	if cfg.Kafka.Enabled {
		topics := []string{cfg.Kafka.Topics.ScanRecorded, cfg.Kafka.Topics.ScanConflict}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, topics); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic bootstrap failed: %v", err))
		}
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.ScanRecorded, cfg.Kafka.Topics.ScanConflict)
		defer producer.Close()
		publisher = producer
		log.Info("KAFKA", fmt.Sprintf("Publishing scans to %v", cfg.Kafka.Brokers))
	}

	service := admission.NewAdmissionService(store, codec, rsvpChecker, publisher)
	handler := api.NewHandler(service, log)

	r := chi.NewRouter()
	r.Route("/admission", func(r chi.Router) {
		r.Post("/scan", handler.LiveScan)
		r.Post("/scan/sync", handler.SyncOfflineScans)
		r.Get("/invitation/{ticketID}/token", handler.IssueToken)
		r.Get("/invitation/{ticketID}/qr", handler.TicketQR)
		r.Get("/invitation/{ticketID}/scans", handler.ScanHistory)
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("SERVER", fmt.Sprintf("Admission service on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", fmt.Sprintf("HTTP error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctxShutdown)
	log.Info("SERVER", "Admission service shutdown complete")
}
