package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/api/option"
	"gorm.io/gorm"

	"foodshare/internal/adapter/api"
	"foodshare/internal/adapter/api/handler"
	apimiddleware "foodshare/internal/adapter/api/middleware"
	"foodshare/internal/adapter/api/router"
	"foodshare/internal/adapter/repository"
	domainrepo "foodshare/internal/domain/repository"
	"foodshare/internal/domain/service"
	"foodshare/internal/infrastructure/database"
	"foodshare/internal/infrastructure/firebase"
	"foodshare/internal/infrastructure/geocoding"
	"foodshare/internal/infrastructure/metrics"
	"foodshare/internal/infrastructure/ratelimit"
	"foodshare/internal/infrastructure/storage"
	"foodshare/internal/usecase"
	"foodshare/pkg/config"
	"foodshare/pkg/logger"
)

type stores struct {
	listings      domainrepo.ListingRepository
	messages      domainrepo.MessageRepository
	notifications domainrepo.NotificationRepository
	users         domainrepo.UserRepository
	health        map[string]handler.HealthCheck
	close         func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	logger.Setup(os.Stdout, cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	credentials := firebase.CredentialsOption(cfg.FirebaseServiceAccountJSON, cfg.FirebaseServiceAccountPath)

	firebaseApp, err := firebase.NewApp(ctx, cfg.FirebaseProject, credentials)
	if err != nil {
		fatal("%v", err)
	}
	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		fatal("Failed to initialize Firebase Auth: %v", err)
	}
	firebaseAuth := firebase.NewFirebaseAuthClient(authClient)

	st, err := openStores(ctx, cfg, credentials)
	if err != nil {
		fatal("Failed to open %s store: %v", cfg.StorageDriver, err)
	}
	defer st.close()
	st.health["firebase_auth"] = firebaseAuth.TestConnection

	blobs, err := openBlobStore(ctx, cfg, credentials)
	if err != nil {
		logger.Warn("Uploads disabled: %v", err)
	} else {
		defer blobs.Close()
		handler.SetupUploadHandler(blobs)
	}

	var geocoder service.Geocoder
	if cfg.GoogleMapsAPIKey != "" {
		g, err := geocoding.NewGoogleGeocoder(cfg.GoogleMapsAPIKey)
		if err != nil {
			fatal("Failed to initialize geocoder: %v", err)
		}
		geocoder = g
		handler.SetupGeocodeHandler(geocoder)
	} else {
		logger.Warn("GOOGLE_MAPS_API_KEY not set, addresses will not be geocoded")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewCollector(registry)

	limiter := ratelimit.NewRateLimiter(map[string]ratelimit.Limit{
		ratelimit.ActionSendMessage:    {Burst: cfg.MessageRatePerMinute, Per: time.Minute},
		ratelimit.ActionCreateListing:  {Burst: cfg.ListingRatePerHour, Per: time.Hour},
		apimiddleware.ActionAPIRequest: {Burst: 120, Per: time.Minute},
	})
	limiter.StartCleanupRoutine(ctx)

	notificationUseCase := usecase.NewNotificationUseCase(st.notifications, st.users, recorder, cfg.FanOutConcurrency)
	listingUseCase := usecase.NewListingUseCase(st.listings, notificationUseCase, geocoder, limiter, recorder)
	messageUseCase := usecase.NewMessageUseCase(st.messages, st.users, notificationUseCase, limiter, recorder)
	userUseCase := usecase.NewUserUseCase(st.users, st.listings, geocoder)

	listingUseCase.StartExpiryJob(ctx, cfg.ExpiryCheckInterval, cfg.ExpiryReminderWindow)

	handler.Setup(listingUseCase, messageUseCase, notificationUseCase, userUseCase, cfg.DefaultSearchRadiusKm)
	handler.SetupHealthHandler(st.health)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(apimiddleware.RateLimit(limiter, recorder))

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(firebaseAuth, userUseCase)
	router.Setup(e, authMiddleware, metrics.Handler(registry))

	go func() {
		logger.Info("Starting server on port %s (store=%s)...", cfg.ServerPort, cfg.StorageDriver)
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			fatal("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
}

func openStores(ctx context.Context, cfg *config.Config, credentials option.ClientOption) (*stores, error) {
	switch cfg.StorageDriver {
	case "firestore":
		client, err := firestore.NewClient(ctx, cfg.FirebaseProject, credentials)
		if err != nil {
			return nil, err
		}
		return &stores{
			listings:      repository.NewFirestoreListingRepository(client),
			messages:      repository.NewFirestoreMessageRepository(client),
			notifications: repository.NewFirestoreNotificationRepository(client),
			users:         repository.NewFirestoreUserRepository(client),
			health: map[string]handler.HealthCheck{
				"firestore": func(ctx context.Context) error {
					_, err := client.Collection("users").Limit(1).Documents(ctx).GetAll()
					return err
				},
			},
			close: func() { client.Close() },
		}, nil

	case "postgres":
		db, err := database.Connect(cfg.DatabaseURL, cfg.IsDevelopment())
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(db); err != nil {
			return nil, err
		}
		return &stores{
			listings:      repository.NewPostgresListingRepository(db),
			messages:      repository.NewPostgresMessageRepository(db),
			notifications: repository.NewPostgresNotificationRepository(db),
			users:         repository.NewPostgresUserRepository(db),
			health: map[string]handler.HealthCheck{
				"postgres": func(ctx context.Context) error { return pingDB(ctx, db) },
			},
			close: func() {
				if sqlDB, err := db.DB(); err == nil {
					sqlDB.Close()
				}
			},
		}, nil

	case "memory":
		logger.Warn("Using the in-memory store, data is lost on restart")
		return &stores{
			listings:      repository.NewMemoryListingRepository(),
			messages:      repository.NewMemoryMessageRepository(),
			notifications: repository.NewMemoryNotificationRepository(),
			users:         repository.NewMemoryUserRepository(),
			health:        map[string]handler.HealthCheck{},
			close:         func() {},
		}, nil
	}

	return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
}

func openBlobStore(ctx context.Context, cfg *config.Config, credentials option.ClientOption) (service.BlobStore, error) {
	switch cfg.BlobDriver {
	case "gcs":
		return storage.NewCloudStorageClient(ctx, cfg.StorageBucket, credentials)
	case "s3":
		return storage.NewS3Client(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3PublicBaseURL)
	}
	return nil, fmt.Errorf("unknown BLOB_DRIVER %q", cfg.BlobDriver)
}

func pingDB(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func fatal(format string, v ...interface{}) {
	logger.Error(format, v...)
	os.Exit(1)
}
