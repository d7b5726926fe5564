package router

import (
	"github.com/gin-gonic/gin"
	"github.com/nozzip/seccional/internal/config"
	"github.com/nozzip/seccional/internal/handler"
	"github.com/nozzip/seccional/internal/middleware"
	"github.com/nozzip/seccional/internal/service"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// Services are the application services the HTTP layer exposes.
type Services struct {
	Shifts       service.ShiftService
	Transactions service.TransactionService
	Inventory    service.InventoryService
	Roster       service.RosterService
	Archives     service.ArchiveService
}

// Deps are the infrastructure pieces the router needs besides the services.
// Realtime and Mirror may be nil.
type Deps struct {
	DB          *gorm.DB
	Redis       *redis.Client
	Realtime    handler.WSServer
	Mirror      handler.BreakerState
	RateLimiter *middleware.IPRateLimiter
}

// New returns the configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, svc Services, deps Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Order matters: the request id must exist before anything logs.
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())
	if deps.RateLimiter != nil {
		r.Use(deps.RateLimiter.Middleware())
	}

	// ── Handlers ─────────────────────────────────────────────────────────────
	shiftsH := handler.NewShiftsHandler(svc.Shifts, deps.Realtime)
	transactionsH := handler.NewTransactionsHandler(svc.Transactions)
	inventoryH := handler.NewInventoryHandler(svc.Inventory)
	rosterH := handler.NewRosterHandler(svc.Roster)
	archivesH := handler.NewArchivesHandler(svc.Archives)

	// ── Routes ───────────────────────────────────────────────────────────────

	r.GET("/health", handler.Health(deps.DB, deps.Redis, deps.Mirror))

	all := middleware.RequireRole(middleware.AllRoles...)
	supervisors := middleware.RequireRole(middleware.RoleSupervisor, middleware.RoleAdmin)
	admins := middleware.RequireRole(middleware.RoleAdmin)

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		shifts := v1.Group("/shifts")
		{
			shifts.GET("/current", all, shiftsH.Current)
			shifts.POST("/preview", all, shiftsH.Preview)
			shifts.POST("/:id/close", all, shiftsH.Close)
			shifts.POST("/handover", all, shiftsH.Handover)
			shifts.POST("/archive", supervisors, shiftsH.Archive)
			shifts.GET("/ws", all, shiftsH.Stream)
		}

		txs := v1.Group("/transactions", all)
		{
			txs.GET("", transactionsH.List)
			txs.POST("", transactionsH.Register)
			txs.GET("/summary", transactionsH.Summary)
		}

		inv := v1.Group("/inventory")
		{
			inv.GET("", all, inventoryH.List)
			inv.PUT("", supervisors, inventoryH.Upsert)
			inv.GET("/movements", all, inventoryH.Movements)
			inv.POST("/movements", all, inventoryH.RecordMovement)
		}

		roster := v1.Group("/roster")
		{
			roster.GET("", all, rosterH.List)
			roster.GET("/:weekday", all, rosterH.Get)
			roster.PUT("/:weekday", admins, rosterH.Put)
		}

		archives := v1.Group("/archives", supervisors)
		{
			archives.GET("", archivesH.List)
			archives.GET("/:date", archivesH.Get)
		}
	}

	// Swagger UI only outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
