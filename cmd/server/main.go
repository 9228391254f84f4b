package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/stockinator-service/config"
	"github.com/fekuna/stockinator-service/internal/auth"
	"github.com/fekuna/stockinator-service/internal/broker"
	"github.com/fekuna/stockinator-service/internal/cache"
	"github.com/fekuna/stockinator-service/internal/dashboard"
	"github.com/fekuna/stockinator-service/internal/database/postgres"
	"github.com/fekuna/stockinator-service/internal/httputil"
	"github.com/fekuna/stockinator-service/internal/i18n"
	"github.com/fekuna/stockinator-service/internal/logger"
	"github.com/fekuna/stockinator-service/internal/metrics"
	"github.com/fekuna/stockinator-service/internal/middleware"
	"github.com/fekuna/stockinator-service/internal/probe"
	"github.com/fekuna/stockinator-service/internal/product"
	"github.com/fekuna/stockinator-service/internal/realtime"
	"github.com/fekuna/stockinator-service/internal/scheduler"
	"github.com/fekuna/stockinator-service/internal/search"
	"github.com/fekuna/stockinator-service/internal/server"
	"github.com/fekuna/stockinator-service/internal/storage"

	businessH "github.com/fekuna/stockinator-service/internal/business/handler"
	businessRepoPkg "github.com/fekuna/stockinator-service/internal/business/repository"
	businessUCPkg "github.com/fekuna/stockinator-service/internal/business/usecase"

	dashboardH "github.com/fekuna/stockinator-service/internal/dashboard/handler"
	dashboardRepoPkg "github.com/fekuna/stockinator-service/internal/dashboard/repository"
	dashboardUCPkg "github.com/fekuna/stockinator-service/internal/dashboard/usecase"

	inviteH "github.com/fekuna/stockinator-service/internal/invite/handler"
	inviteRepoPkg "github.com/fekuna/stockinator-service/internal/invite/repository"
	inviteUCPkg "github.com/fekuna/stockinator-service/internal/invite/usecase"

	productH "github.com/fekuna/stockinator-service/internal/product/handler"
	productRepoPkg "github.com/fekuna/stockinator-service/internal/product/repository"
	productUCPkg "github.com/fekuna/stockinator-service/internal/product/usecase"

	profileH "github.com/fekuna/stockinator-service/internal/profile/handler"
	profileRepoPkg "github.com/fekuna/stockinator-service/internal/profile/repository"
	profileUCPkg "github.com/fekuna/stockinator-service/internal/profile/usecase"

	transactionH "github.com/fekuna/stockinator-service/internal/transaction/handler"
	transactionRepoPkg "github.com/fekuna/stockinator-service/internal/transaction/repository"
	transactionUCPkg "github.com/fekuna/stockinator-service/internal/transaction/usecase"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	i18n.Init()

	// 2. Initialize Logger
	appLogger := logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment:     cfg.IsDevelopment(),
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	defer appLogger.Sync()
	appLogger.Info("Starting stockinator", zap.Stringer("config", cfg))
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hostname, _ := os.Hostname()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	if cfg.Postgres.AutoMigrate {
		if err := postgres.Migrate(db); err != nil {
			appLogger.Fatal("Could not apply migrations", zap.Error(err))
		}
		appLogger.Info("Database schema is up to date")
	}

	// 4. Initialize Redis
	var (
		store  cache.Store
		locker cache.Locker
	)
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	switch {
	case err == nil:
		defer redisClient.Close()
		store, locker = redisClient, redisClient
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	case cfg.IsDevelopment():
		mem := cache.NewMemory()
		store, locker = mem, mem
		appLogger.Warn("Redis unavailable, using in-process cache", zap.Error(err))
	default:
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}

	// 5. Initialize Realtime fan-out
	hub := realtime.NewHub(appLogger)
	defer hub.Close()
	listCache := product.NewListCache(store)
	dashboardLoc, err := time.LoadLocation(cfg.Rules.Timezone)
	if err != nil {
		appLogger.Fatal("Invalid dashboard timezone", zap.Error(err))
	}
	dashboardStore := dashboard.NewStore(store, cfg.Rules.DashboardTTL)
	dispatcher := realtime.NewDispatcher(appLogger, hub, listCache, dashboardStore)

	var publisher realtime.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		groupID := cfg.Kafka.GroupID
		if groupID == "" {
			// Every instance needs every change for its own websocket
			// subscribers, so each one consumes under its own group.
			groupID = "stockinator-realtime-" + hostname
		}
		producer := broker.NewProducer(&broker.Config{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
		defer producer.Close()
		consumer := broker.NewConsumer(&broker.Config{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic, GroupID: groupID})
		defer consumer.Close()

		publisher = realtime.NewKafkaPublisher(producer)
		go realtime.NewListener(consumer, dispatcher, appLogger).Run(ctx)
		appLogger.Info("Connected to Kafka", zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic), zap.String("group_id", groupID))
	} else {
		publisher = realtime.NewLocalPublisher(dispatcher)
		appLogger.Warn("No Kafka brokers configured, change events stay in this process")
	}

	// 6. Initialize Elasticsearch
	var searchIndex productUCPkg.SearchIndex
	if len(cfg.Elastic.Addresses) > 0 {
		esClient, err := search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Elasticsearch, search falls back to SQL", zap.Error(err))
		} else {
			searchIndex = esClient
			appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	images := storage.NewClient(&storage.Config{
		URL:        cfg.Storage.URL,
		ServiceKey: cfg.Storage.ServiceKey,
		Bucket:     cfg.Storage.Bucket,
	})

	// 7. Initialize Repositories
	profileRepo := profileRepoPkg.NewPGRepository(db)
	businessRepo := businessRepoPkg.NewPGRepository(db)
	productRepo := productRepoPkg.NewPGRepository(db)
	transactionRepo := transactionRepoPkg.NewPGRepository(db)
	inviteRepo := inviteRepoPkg.NewPGRepository(db)
	dashboardRepo := dashboardRepoPkg.NewPGRepository(db)

	// 8. Initialize UseCases
	profileUC := profileUCPkg.NewProfileUseCase(profileRepo, publisher, appLogger)
	businessUC := businessUCPkg.NewBusinessUseCase(businessRepo, dashboardStore, listCache, images, publisher, appLogger)
	productUC := productUCPkg.NewProductUseCase(productRepo, listCache, searchIndex, images, publisher, cfg.Rules.LowStockThreshold, appLogger)
	transactionUC := transactionUCPkg.NewTransactionUseCase(transactionRepo, store, dashboardStore, publisher, cfg.Rules.DuplicateWindow, appLogger)
	inviteUC := inviteUCPkg.NewInviteUseCase(inviteRepo, publisher, cfg.Rules.MaxVendors, cfg.Rules.InviteTTL, appLogger)
	dashboardUC := dashboardUCPkg.NewDashboardUseCase(dashboardRepo, dashboardStore, dashboardLoc, appLogger)

	// 9. Background work
	prober := probe.New(probe.Config{
		URL:          cfg.Probe.URL,
		Interval:     cfg.Probe.Interval,
		InitialDelay: cfg.Probe.InitialDelay,
		MaxDelay:     cfg.Probe.MaxDelay,
		Timeout:      cfg.Probe.Timeout,
	}, nil, appLogger)
	grpcServer, healthServer := server.NewGRPCServer(appLogger)
	prober.OnChange(func(online bool) {
		metrics.SetProbeOnline(online)
		server.SetServing(healthServer, online)
	})
	go prober.Run(ctx)

	jobs := scheduler.New(locker, hostname, dashboardLoc, appLogger)
	if err := jobs.Add("expire-invites", "@every 1h", 10*time.Minute, func(ctx context.Context) error {
		_, err := inviteUC.ExpireStale(ctx, time.Now())
		return err
	}); err != nil {
		appLogger.Fatal("Could not schedule jobs", zap.Error(err))
	}
	jobs.Start()

	salesLimiter := middleware.NewRateLimiter(cfg.Rules.SubmissionsPerMinute, 5)
	salesLimiter.StartCleanup(ctx, 10*time.Minute)

	// 10. Initialize Handlers
	verifier := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.AuthURL, cfg.Auth.AnonKey)
	router := server.NewRouter(server.RouterConfig{
		Handlers: server.Handlers{
			Profile:     profileH.NewProfileHandler(profileUC, appLogger),
			Business:    businessH.NewBusinessHandler(businessUC, appLogger),
			Product:     productH.NewProductHandler(productUC, appLogger),
			Transaction: transactionH.NewTransactionHandler(transactionUC, appLogger),
			Invite:      inviteH.NewInviteHandler(inviteUC, appLogger),
			Dashboard:   dashboardH.NewDashboardHandler(dashboardUC, appLogger),
			Realtime:    realtime.NewWSHandler(hub, cfg.Server.AllowedOrigins, httputil.Error, appLogger),
		},
		Authenticate:   auth.Middleware(verifier, profileUC, httputil.Error, appLogger),
		SalesLimiter:   salesLimiter,
		Status:         prober.Handler(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         appLogger,
	})

	// 11. Start HTTP and gRPC servers
	httpServer := &http.Server{
		Addr:              listenAddr(cfg.Server.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve http", zap.Error(err))
		}
	}()

	lis, err := net.Listen("tcp", listenAddr(cfg.Server.GRPCPort))
	if err != nil {
		appLogger.Fatal("failed to listen", zap.Error(err))
	}
	go func() {
		appLogger.Info("Starting gRPC server", zap.String("addr", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve grpc", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
	jobs.Stop(shutdownCtx)
	cancel()
	appLogger.Info("Server stopped")
}

func listenAddr(port string) string {
	if !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}
