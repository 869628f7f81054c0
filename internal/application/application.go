package application

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"

	"github.com/safespace/request-service/internal/auth"
	"github.com/safespace/request-service/internal/avatars"
	"github.com/safespace/request-service/internal/badge"
	"github.com/safespace/request-service/internal/config"
	"github.com/safespace/request-service/internal/database"
	"github.com/safespace/request-service/internal/handler"
	"github.com/safespace/request-service/internal/kafka"
	"github.com/safespace/request-service/internal/router"
	"github.com/safespace/request-service/internal/service"
)

// API приложение: HTTP-сервер и внешние коллабораторы (режим api).
type API struct {
	cfg      *config.Config
	httpSrv  *http.Server
	producer *kafka.Producer
	rdb      *redis.Client
}

// NewAPI собирает приложение: миграции, БД, очередь, каталог, Kafka, Redis, S3.
func NewAPI(cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	queue := service.NewRequestQueue(db)
	dir := service.NewDirectory(db)
	verifier := auth.NewVerifier(cfg.AuthSecret)
	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicRequests)

	// Redis необязателен: без него бейдж считается напрямую из БД.
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Printf("redis: ping %s: %v (badge cache disabled)", cfg.RedisAddr, err)
			_ = rdb.Close()
			rdb = nil
		}
		cancel()
	}
	counter := badge.NewCounter(rdb, 30*time.Second)

	// S3 тоже необязателен: без него маршруты аватаров отвечают 503.
	var store *avatars.Store
	if cfg.S3.Endpoint != "" {
		mc, err := minio.New(cfg.S3.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.S3.AccessKey, cfg.S3.SecretKey, ""),
			Secure: cfg.S3.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("s3: %w", err)
		}
		store = avatars.New(mc, cfg.S3.Bucket)
	} else {
		store = avatars.New(nil, "")
		log.Println("s3: S3_ENDPOINT not set, avatar storage disabled")
	}

	requests := handler.NewRequestHandler(queue, producer, counter)
	specialists := handler.NewSpecialistHandler(dir, store)

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.New(requests, specialists, verifier, dir),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{
		cfg:      cfg,
		httpSrv:  httpSrv,
		producer: producer,
		rdb:      rdb,
	}, nil
}

// Run запускает HTTP-сервер, блокируется до отмены ctx.
func (a *API) Run(ctx context.Context) error {
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	log.Printf("HTTP server listening on %s", a.httpSrv.Addr)
	log.Printf("  Swagger UI:    %s/swagger", base)
	log.Printf("  Swagger spec:  %s/swagger/openapi.json", base)
	log.Printf("  Health:        %s/health", base)
	log.Printf("  Ready:         %s/ready", base)
	log.Printf("  API v1:        %s/api/v1/", base)

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := a.producer.Close(); err != nil {
		log.Printf("kafka: close: %v", err)
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	return nil
}
