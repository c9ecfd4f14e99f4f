package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"github.com/fjod/go_grocer/internal/auth"
	"github.com/fjod/go_grocer/internal/cache"
	"github.com/fjod/go_grocer/internal/cart"
	"github.com/fjod/go_grocer/internal/catalog"
	"github.com/fjod/go_grocer/internal/composer"
	"github.com/fjod/go_grocer/internal/config"
	"github.com/fjod/go_grocer/internal/dish"
	"github.com/fjod/go_grocer/internal/domain"
	h "github.com/fjod/go_grocer/internal/http"
	"github.com/fjod/go_grocer/internal/media"
	"github.com/fjod/go_grocer/internal/orders"
	"github.com/fjod/go_grocer/internal/region"
	"github.com/fjod/go_grocer/internal/social"
	"github.com/fjod/go_grocer/pkg/circuitbreaker"
	"github.com/fjod/go_grocer/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// devUser is the caller when auth is disabled.
var devUser = domain.User{UID: "dev-user", Name: "Developer", Email: "dev@localhost"}

func main() {
	if err := run(); err != nil {
		log.Fatalf("grocer: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	l, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()
	zap.ReplaceGlobals(l)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := firestore.NewClient(ctx, cfg.GCPProject)
	if err != nil {
		return fmt.Errorf("firestore: %w", err)
	}
	defer func() { _ = store.Close() }()

	gcs, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer func() { _ = gcs.Close() }()

	authMiddleware := auth.MockMiddleware(devUser)
	if cfg.AuthDisabled {
		l.Warn("authentication disabled, all requests run as the development user")
	} else {
		verifier, err := auth.NewFirebaseVerifier(ctx, cfg.GCPProject)
		if err != nil {
			return err
		}
		authMiddleware = auth.Middleware(verifier)
	}

	redisClient, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return err
	}
	defer func() { _ = redisClient.Close() }()
	l.Info("connected to redis", zap.String("addr", cfg.RedisAddr))

	mongoDB, err := cart.OpenMongo(ctx, cart.MongoConfig{
		URI:      cfg.MongoURI,
		Database: cfg.MongoDB,
		Timeout:  cfg.MongoTimeout,
		PoolSize: cfg.MongoPoolSize,
	})
	if err != nil {
		return err
	}
	defer func() { _ = mongoDB.Client().Disconnect(context.Background()) }()
	cartRepo := cart.NewMongoRepository(mongoDB)
	if err := cart.EnsureIndexes(ctx, cartRepo); err != nil {
		return err
	}
	carts := cart.NewService(cartRepo)
	l.Info("connected to mongodb", zap.String("db", cfg.MongoDB))

	catalogRepo, err := newCatalogRepository(cfg, store)
	if err != nil {
		return err
	}
	defer func() { _ = catalogRepo.Close() }()
	products := catalog.NewService(
		catalogRepo,
		cache.NewRedisCache(redisClient, "catalog"),
		circuitbreaker.New(circuitbreaker.DefaultSettings("catalog")),
	)

	ordersRepo, err := orders.NewPostgresRepository(ctx, &orders.Credentials{
		Host:              cfg.Postgres.Host,
		Port:              cfg.Postgres.Port,
		User:              cfg.Postgres.User,
		Password:          cfg.Postgres.Password,
		DBName:            cfg.Postgres.DB,
		MigrationsDirPath: cfg.Postgres.Migrations,
	})
	if err != nil {
		return err
	}
	defer func() { _ = ordersRepo.Close() }()
	if err := ordersRepo.RunMigrations(cfg.Postgres.Migrations); err != nil {
		return err
	}
	l.Info("orders database migrations completed")

	sessions := composer.NewSessions(cfg.ComposerSessionTTL)
	defer func() { _ = sessions.Close() }()

	var wg sync.WaitGroup
	if cfg.EventsEnabled() {
		poller := orders.NewOutboxPoller(ordersRepo, l, cfg.KafkaBrokers...)
		consumer := cart.NewConsumer(carts, l, cfg.KafkaBrokers...)
		wg.Add(2)
		go func() {
			defer wg.Done()
			poller.Run(ctx)
		}()
		go func() {
			defer wg.Done()
			consumer.Run(ctx)
		}()
		defer poller.Close()
		defer consumer.Close()
		l.Info("checkout events enabled", zap.Strings("brokers", cfg.KafkaBrokers))
	}

	regions := region.NewService(
		region.NewFirestoreRepository(store),
		cache.NewRedisCache(redisClient, "regions"),
		circuitbreaker.New(circuitbreaker.DefaultSettings("regions")),
	)

	router := h.NewRouter(h.Services{
		Catalog:  products,
		Carts:    carts,
		Orders:   orders.NewService(ordersRepo, carts),
		Dishes:   dish.NewFirestoreRepository(store),
		Social:   social.NewService(social.NewFirestoreStore(store), cache.NewRedisCache(redisClient, "social")),
		Regions:  regions,
		Media:    media.NewUploader(media.NewGCSBucket(gcs, cfg.PublicBucket), circuitbreaker.New(circuitbreaker.DefaultSettings("media"))),
		Sessions: sessions,
	}, h.RouterConfig{
		Logger:         l,
		Auth:           authMiddleware,
		RequestTimeout: cfg.RequestTimeout,
		Currency:       cfg.Currency,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	// Enable reflection for grpcurl/grpcui
	reflection.Register(grpcServer)

	errCh := make(chan error, 2)
	go func() {
		l.Info("grpc health server listening", zap.String("port", cfg.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	go func() {
		l.Info("http server listening", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	select {
	case <-ctx.Done():
		l.Info("shutting down")
	case err := <-errCh:
		l.Error("server failed", zap.Error(err))
		stop()
	}

	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error("http server forced to shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
	wg.Wait()

	l.Info("server exited")
	return nil
}

func newCatalogRepository(cfg *config.Config, store *firestore.Client) (catalog.Repository, error) {
	if cfg.CatalogBackend != config.CatalogSQLite {
		return catalog.NewFirestoreRepository(store), nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
		return nil, fmt.Errorf("catalog: creating data dir: %w", err)
	}
	repo, err := catalog.NewSQLiteRepository(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	if err := repo.RunMigrations(cfg.SQLiteMigrations); err != nil {
		_ = repo.Close()
		return nil, err
	}
	return repo, nil
}
