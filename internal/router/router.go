package router

import (
	"time"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/cache"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/config"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/handler"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/infra"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/middleware"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/repository"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/service"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services is the service layer shared by the HTTP router, the worker pool
// and the CLI.
type Services struct {
	Imports      service.ImportService
	Transactions service.TransactionService
	Clients      service.ClientService
	Activity     service.ActivityService
}

// BuildServices wires repositories, caches and services.
// Dependency graph: Service ← Repository ← DB / Cache ← Redis
// A nil rdb falls back to in-process caches and locks; a nil dispatcher
// disables async imports.
func BuildServices(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher *worker.Dispatcher) *Services {
	// ── Repositories ─────────────────────────────────────────────────────────
	inventoryRepo := repository.NewInventoryRepository(db)
	clientRepo := repository.NewClientRepository(db)
	storeRepo := repository.NewStoreRepository(db)
	salesPersonRepo := repository.NewSalesPersonRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	// ── Caches ───────────────────────────────────────────────────────────────
	var (
		metricsCache cache.ClientMetricsCache = cache.NoopClientMetricsCache{}
		results      cache.ResultStore        = cache.NewMemoryResultStore()
		locker       cache.BatchLocker        = cache.NewLocalBatchLocker()
	)
	if rdb != nil {
		metricsCache = cache.NewRedisClientMetricsCache(rdb)
		results = cache.NewRedisResultStore(rdb)
		locker = cache.NewRedisBatchLocker(rdb)
	}

	// ── Services ─────────────────────────────────────────────────────────────
	txSvc := service.NewTransactionService(txRepo, inventoryRepo, clientRepo, activityRepo, metricsCache)
	importSvc := service.NewImportService(
		inventoryRepo, clientRepo, storeRepo, salesPersonRepo, txRepo, txSvc,
		locker, results, dispatcher,
		service.ImportOptions{
			MaxRows:   cfg.ImportMaxRows,
			LockTTL:   cfg.ImportLockTTL(),
			ResultTTL: cfg.ImportResultTTL(),
		},
	)

	return &Services{
		Imports:      importSvc,
		Transactions: txSvc,
		Clients:      service.NewClientService(clientRepo, metricsCache, cfg.ClientMetricsTTL()),
		Activity:     service.NewActivityService(activityRepo),
	}
}

// New returns a configured Gin engine.
func New(cfg *config.Config, svcs *Services, db *gorm.DB, rdb *redis.Client, smtpCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = 32 << 20

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Handlers ─────────────────────────────────────────────────────────────
	importsH := handler.NewImportsHandler(svcs.Imports)
	transactionsH := handler.NewTransactionsHandler(svcs.Transactions)
	clientsH := handler.NewClientsHandler(svcs.Clients)
	activityH := handler.NewActivityHandler(svcs.Activity)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, smtpCB))

	anyRole := middleware.RequireRole(middleware.RoleSales, middleware.RoleManager, middleware.RoleAdmin)
	managers := middleware.RequireRole(middleware.RoleManager, middleware.RoleAdmin)
	admins := middleware.RequireRole(middleware.RoleAdmin)
	uploadLimit := middleware.RateLimiter(30, time.Minute)

	// Protected routes
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		imports := v1.Group("/imports")
		{
			imports.POST("/csv", managers, uploadLimit, importsH.ImportCSV)
			imports.POST("/manual", anyRole, uploadLimit, importsH.ImportManual)
			imports.POST("/async", managers, uploadLimit, importsH.ImportAsync)
			imports.GET("/:batchId", anyRole, importsH.GetResult)
			imports.GET("/:batchId/report.pdf", managers, importsH.Report)
		}

		v1.GET("/transactions", anyRole, transactionsH.List)
		v1.GET("/transactions/:id", anyRole, transactionsH.Get)
		v1.DELETE("/transactions/:id", admins, transactionsH.Delete)

		v1.GET("/clients/:id/metrics", anyRole, clientsH.Metrics)

		v1.GET("/activity", managers, activityH.List)
	}

	// Swagger UI: only enabled outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
