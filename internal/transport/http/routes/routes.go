package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	red "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dkosarev/admincore/internal/infra/config"
	"github.com/dkosarev/admincore/internal/transport/http/handlers"
	"github.com/dkosarev/admincore/internal/transport/http/middleware"
	"github.com/dkosarev/admincore/internal/usecase"
)

// adminRoleCode guards the system-administration surfaces. Seed data assigns
// this role to the root account.
const adminRoleCode = "admin"

// PublicPaths lists the routes admitted without a token. The authentication
// middleware consults this set before anything else, so entries here are
// reachable even when Redis is down.
var PublicPaths = []string{
	"/api/auth/login",
	"/api/auth/password-reset/request",
	"/api/auth/password-reset/confirm",
}

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth          *usecase.AuthService
	Users         *usecase.UserService
	Roles         *usecase.RoleService
	Permissions   *usecase.PermissionService
	Units         *usecase.UnitService
	Bypass        *usecase.BypassService
	Sessions      *usecase.SessionService
	PasswordReset *usecase.PasswordResetService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	Services    ServiceSet
	RateLimiter middleware.HitCounter
	Metrics     prometheus.Registerer
	Database    *pgxpool.Pool
	Cache       *red.Client
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) (*gin.Engine, error) {
	if deps.Config != nil && deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))

	if deps.Metrics != nil {
		metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{
			Registerer: deps.Metrics,
		})
		if err != nil {
			return nil, err
		}
		r.Use(metrics.Middleware())
	}

	healthHandler := handlers.NewHealthHandler(deps.Database, deps.Cache)
	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(middleware.Authenticate(deps.Services.Auth))

	authHandler := handlers.NewAuthHandler(deps.Services.Auth, deps.Services.PasswordReset, deps.Services.Users)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", append(loginMiddlewares(deps), authHandler.Login)...)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/profile", authHandler.Profile)
		authGroup.POST("/password", authHandler.ChangePassword)

		resetGroup := authGroup.Group("/password-reset")
		if mws := resetMiddlewares(deps); len(mws) > 0 {
			resetGroup.Use(mws...)
		}
		resetGroup.POST("/request", authHandler.RequestReset)
		resetGroup.POST("/confirm", authHandler.ConfirmReset)
	}

	// User administration is open to any authenticated caller; the data
	// scope resolved from the caller's roles bounds what each one can see.
	userHandler := handlers.NewUserHandler(deps.Services.Users)
	userGroup := api.Group("/system/users")
	{
		userGroup.GET("", userHandler.List)
		userGroup.POST("", userHandler.Create)
		userGroup.GET("/:id", userHandler.Get)
		userGroup.PUT("/:id", userHandler.Update)
		userGroup.DELETE("/:id", userHandler.Delete)
		userGroup.PUT("/:id/roles", userHandler.AssignRoles)
	}

	// The remaining system surfaces mutate global state and stay behind the
	// superuser role.
	admin := api.Group("/system")
	admin.Use(middleware.RequireRole(deps.Services.Auth, adminRoleCode))

	roleHandler := handlers.NewRoleHandler(deps.Services.Roles)
	roleGroup := admin.Group("/roles")
	{
		roleGroup.GET("", roleHandler.List)
		roleGroup.GET("/all", roleHandler.ListAll)
		roleGroup.POST("", roleHandler.Create)
		roleGroup.GET("/:id", roleHandler.Get)
		roleGroup.PUT("/:id", roleHandler.Update)
		roleGroup.DELETE("/:id", roleHandler.Delete)
		roleGroup.PUT("/:id/permissions", roleHandler.AssignPermissions)
		roleGroup.GET("/:id/permissions", roleHandler.PermissionIDs)
	}

	permissionHandler := handlers.NewPermissionHandler(deps.Services.Permissions)
	permissionGroup := admin.Group("/permissions")
	{
		permissionGroup.GET("/tree", permissionHandler.Tree)
		permissionGroup.POST("", permissionHandler.Create)
		permissionGroup.PUT("/:id", permissionHandler.Update)
		permissionGroup.DELETE("/:id", permissionHandler.Delete)
	}

	unitHandler := handlers.NewUnitHandler(deps.Services.Units)
	unitGroup := admin.Group("/units")
	{
		unitGroup.GET("/tree", unitHandler.Tree)
		unitGroup.POST("", unitHandler.Create)
		unitGroup.GET("/:id", unitHandler.Get)
		unitGroup.PUT("/:id", unitHandler.Update)
		unitGroup.DELETE("/:id", unitHandler.Delete)
	}

	whitelistHandler := handlers.NewWhitelistHandler(deps.Services.Bypass)
	whitelistGroup := admin.Group("/whitelist")
	{
		whitelistGroup.GET("", whitelistHandler.List)
		whitelistGroup.POST("", whitelistHandler.Add)
		whitelistGroup.DELETE("", whitelistHandler.Remove)
		whitelistGroup.PUT("", whitelistHandler.Rename)
	}

	onlineHandler := handlers.NewOnlineHandler(deps.Services.Sessions)
	onlineGroup := admin.Group("/online")
	{
		onlineGroup.GET("", onlineHandler.List)
		onlineGroup.POST("/force-logout", onlineHandler.ForceLogout)
	}

	return r, nil
}

func loginMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil {
		return nil
	}

	limit := deps.Config.RateLimit.LoginMaxAttempts
	if limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.Window
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:   "auth_login_ip",
		Limit:  limit,
		Window: window,
	}
	return []gin.HandlerFunc{middleware.RateLimit(deps.RateLimiter, rule, deps.Logger)}
}

func resetMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil {
		return nil
	}

	limit := deps.Config.RateLimit.ResetMaxAttempts
	if limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.Window
	if window <= 0 {
		window = time.Hour
	}

	rule := middleware.RateLimitRule{
		Name:   "password_reset_ip",
		Limit:  limit,
		Window: window,
	}
	return []gin.HandlerFunc{middleware.RateLimit(deps.RateLimiter, rule, deps.Logger)}
}
