package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-ticket-booking/internal/api"
	"github.com/sanosuguru/go-ticket-booking/internal/api/handler"
	custommiddleware "github.com/sanosuguru/go-ticket-booking/internal/api/middleware"
	"github.com/sanosuguru/go-ticket-booking/internal/application"
	"github.com/sanosuguru/go-ticket-booking/internal/config"
	"github.com/sanosuguru/go-ticket-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-ticket-booking/internal/infrastructure/mongodb"
	"github.com/sanosuguru/go-ticket-booking/internal/infrastructure/postgres"
	redisinfra "github.com/sanosuguru/go-ticket-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-ticket-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-ticket-booking/internal/pkg/metrics"
	"github.com/sanosuguru/go-ticket-booking/internal/worker"
)

// store は選択されたバックエンドのリポジトリとトランザクションマネージャー
type store struct {
	repos     application.StoreRepositories
	txManager transaction.Manager
}

func main() {
	cfg := config.Load()

	logger.Set(logger.NewLogger(os.Getenv("APP_ENV")))
	defer logger.Sync()

	m := metrics.Init()

	ctx := context.Background()

	// ストアバックエンドを構築
	var st *store
	switch cfg.Store.Backend {
	case config.StorePostgres:
		st = setupPostgres(ctx, cfg)
	case config.StoreMongo:
		st = setupMongo(ctx, cfg)
	default:
		logger.Fatal("不明なストアバックエンド", zap.String("backend", cfg.Store.Backend))
	}

	// ストア移行（有効時のみ、PostgreSQL → MongoDB）
	if cfg.Migration.Enabled {
		runStoreMigration(ctx, cfg)
	}

	// Redis（任意。接続できない場合はロックとキャッシュなしで動作する）
	var (
		lockManager redisinfra.LockManagerInterface
		cache       redisinfra.AvailabilityCacheInterface
	)
	redisClient := redisinfra.NewClient(&cfg.Redis)
	if err := redisinfra.Ping(ctx, redisClient); err != nil {
		logger.Warn("Redis接続に失敗。分散ロックとキャッシュを無効化", zap.Error(err))
		redisClient = nil
	} else {
		lockManager = redisinfra.NewLockManager(redisClient)
		cache = redisinfra.NewAvailabilityCache(redisClient)
	}

	// アプリケーションサービス
	bookingService := application.NewBookingService(
		st.txManager,
		st.repos.Tickets,
		st.repos.Users,
		st.repos.Events,
		st.repos.Accounts,
		lockManager,
		cache,
		m,
	)
	eventService := application.NewEventService(st.repos.Events, st.repos.Tickets, cache, cfg.Worker.AvailabilityCacheTTL)
	userService := application.NewUserService(st.repos.Users)
	accountService := application.NewAccountService(st.txManager, st.repos.Accounts, st.repos.Users)

	// ハンドラー
	bookingHandler := handler.NewBookingHandler(bookingService)
	eventHandler := handler.NewEventHandler(eventService)
	userHandler := handler.NewUserHandler(userService)
	accountHandler := handler.NewAccountHandler(accountService)
	healthHandler := handler.NewHealthHandler()

	// Echo セットアップ
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	custommiddleware.SetupMiddleware(e)
	e.Use(custommiddleware.PrometheusMiddleware(m))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()),
		custommiddleware.MetricsBasicAuth(cfg.Metrics.Username, cfg.Metrics.Password))

	v1 := e.Group("/api/v1")
	v1.GET("/health", healthHandler.Check)

	v1.POST("/tickets", bookingHandler.Book)
	v1.GET("/tickets/:id", bookingHandler.GetByID)
	v1.DELETE("/tickets/:id", bookingHandler.Cancel)

	v1.POST("/events", eventHandler.Create)
	v1.GET("/events", eventHandler.List)
	v1.GET("/events/:id", eventHandler.GetByID)
	v1.PUT("/events/:id", eventHandler.Update)
	v1.DELETE("/events/:id", eventHandler.Delete)
	v1.GET("/events/:id/availability", eventHandler.GetAvailability)
	v1.GET("/events/:id/tickets", bookingHandler.GetEventTickets)

	v1.POST("/users", userHandler.Create)
	v1.GET("/users", userHandler.List)
	v1.GET("/users/:id", userHandler.GetByID)
	v1.PUT("/users/:id", userHandler.Update)
	v1.DELETE("/users/:id", userHandler.Delete)
	v1.GET("/users/:id/tickets", bookingHandler.GetUserTickets)
	v1.POST("/users/:id/account/refill", accountHandler.Refill)
	v1.GET("/users/:id/account", accountHandler.Get)

	// 空席数リフレッシャー（キャッシュ有効時のみ）
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	var refresher *worker.AvailabilityRefresher
	if cache != nil {
		refresher = worker.NewAvailabilityRefresher(
			st.repos.Events,
			st.repos.Tickets,
			cache,
			cfg.Worker.AvailabilityRefreshInterval,
			cfg.Worker.AvailabilityCacheTTL,
		)
		go refresher.Start(workerCtx)
	}

	// サーバー起動
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("サーバー起動", zap.String("addr", addr), zap.String("backend", cfg.Store.Backend))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	if refresher != nil {
		workerCancel()
		refresher.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}

func setupPostgres(ctx context.Context, cfg *config.Config) *store {
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("PostgreSQL接続に失敗", zap.Error(err))
	}
	if err := postgres.Ping(ctx, db); err != nil {
		logger.Fatal("PostgreSQL疎通確認に失敗", zap.Error(err))
	}
	if err := postgres.RunMigrations(db.DB, cfg.Database.MigrationsPath); err != nil {
		logger.Fatal("スキーママイグレーションに失敗", zap.Error(err))
	}

	return &store{
		repos: application.StoreRepositories{
			Users:    postgres.NewUserRepository(db),
			Accounts: postgres.NewAccountRepository(db),
			Events:   postgres.NewEventRepository(db),
			Tickets:  postgres.NewTicketRepository(db),
		},
		txManager: postgres.NewTxManager(db),
	}
}

func setupMongo(ctx context.Context, cfg *config.Config) *store {
	client, err := mongodb.NewClient(ctx, &cfg.Mongo)
	if err != nil {
		logger.Fatal("MongoDB接続に失敗", zap.Error(err))
	}
	if err := mongodb.Ping(ctx, client); err != nil {
		logger.Fatal("MongoDB疎通確認に失敗", zap.Error(err))
	}
	db := mongodb.Database(client, &cfg.Mongo)
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		logger.Fatal("MongoDBインデックス作成に失敗", zap.Error(err))
	}

	return &store{
		repos: application.StoreRepositories{
			Users:    mongodb.NewUserRepository(db),
			Accounts: mongodb.NewAccountRepository(db),
			Events:   mongodb.NewEventRepository(db),
			Tickets:  mongodb.NewTicketRepository(db),
		},
		txManager: mongodb.NewTxManager(client),
	}
}

// runStoreMigration はPostgreSQLの全データをMongoDBへ複製する
func runStoreMigration(ctx context.Context, cfg *config.Config) {
	source := setupPostgres(ctx, cfg)
	target := setupMongo(ctx, cfg)

	svc := application.NewMigrationService(source.repos, target.repos, target.txManager, cfg.Migration.BatchSize)
	summary, err := svc.Migrate(ctx)
	if err != nil {
		logger.Fatal("ストア移行に失敗", zap.Error(err))
	}
	logger.Info("ストア移行結果",
		zap.Int("users", summary.Users),
		zap.Int("accounts", summary.Accounts),
		zap.Int("events", summary.Events),
		zap.Int("tickets", summary.Tickets),
		zap.Int("skipped", summary.Skipped),
	)
}
