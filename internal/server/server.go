package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shiplane/platform/internal/access"
	"github.com/shiplane/platform/internal/auth"
	authdomain "github.com/shiplane/platform/internal/auth/domain"
	"github.com/shiplane/platform/internal/auth/session"
	"github.com/shiplane/platform/internal/company"
	companydomain "github.com/shiplane/platform/internal/company/domain"
	"github.com/shiplane/platform/internal/config"
	"github.com/shiplane/platform/internal/event"
	"github.com/shiplane/platform/internal/migration"
	"github.com/shiplane/platform/internal/module/activation"
	activationdomain "github.com/shiplane/platform/internal/module/activation/domain"
	"github.com/shiplane/platform/internal/module/catalog"
	"github.com/shiplane/platform/internal/observability"
	obslogger "github.com/shiplane/platform/internal/observability/logger"
	obsmetrics "github.com/shiplane/platform/internal/observability/metrics"
	obstracing "github.com/shiplane/platform/internal/observability/tracing"
	"github.com/shiplane/platform/internal/platformsettings"
	"github.com/shiplane/platform/internal/ratelimit"
	"github.com/shiplane/platform/internal/rbac"
	rbacdomain "github.com/shiplane/platform/internal/rbac/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	config.Module,
	fx.Provide(registerGin),
	auth.Module,
	event.Module,
	company.Module,
	rbac.Module,
	catalog.Module,
	activation.Module,
	access.Module,
	platformsettings.Module,
	ratelimit.Module,
	migration.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	db            *gorm.DB
	genID         *snowflake.Node
	sessions      *session.Manager
	authsvc       authdomain.Service
	companysvc    companydomain.Service
	companyrepo   companydomain.Repository
	rbacsvc       rbacdomain.Service
	activationsvc activationdomain.Service
	access        access.Engine
	settings      *platformsettings.Service
	catalog       *catalog.Catalog
	limiter       *ratelimit.RequestLimiter
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	GenID         *snowflake.Node
	Sessions      *session.Manager
	Authsvc       authdomain.Service
	Companysvc    companydomain.Service
	Companyrepo   companydomain.Repository
	Rbacsvc       rbacdomain.Service
	Activationsvc activationdomain.Service
	Access        access.Engine
	Settings      *platformsettings.Service
	Catalog       *catalog.Catalog
	Limiter       *ratelimit.RequestLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		genID:         p.GenID,
		sessions:      p.Sessions,
		authsvc:       p.Authsvc,
		companysvc:    p.Companysvc,
		companyrepo:   p.Companyrepo,
		rbacsvc:       p.Rbacsvc,
		activationsvc: p.Activationsvc,
		access:        p.Access,
		settings:      p.Settings,
		catalog:       p.Catalog,
		limiter:       p.Limiter,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/signup", s.Signup)
	auth.POST("/login", s.LoginRateLimit(), s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	api.POST("/companies", s.CreateCompany)
	api.GET("/companies", s.ListMyCompanies)

	company := api.Group("/companies/:companyId", s.CompanyContext())
	{
		company.GET("", s.GetCompany)

		// -------- Modules --------
		company.GET("/modules", s.ListCompanyModules)
		company.POST("/modules/:moduleKey/enable", s.RequireAbility(access.AbilityManageStructure, access.Context{}), s.ToggleRateLimit(), s.EnableModule)
		company.POST("/modules/:moduleKey/disable", s.RequireAbility(access.AbilityManageStructure, access.Context{}), s.ToggleRateLimit(), s.DisableModule)
		company.GET("/navigation", s.Navigation)

		// -------- Roles & permissions --------
		company.GET("/roles", s.ListRoles)
		company.POST("/roles", s.RequireAbility(access.AbilityManageStructure, access.Context{}), s.CreateRole)
		company.PATCH("/roles/:roleId", s.RequireAbility(access.AbilityManageStructure, access.Context{}), s.UpdateRole)
		company.DELETE("/roles/:roleId", s.RequireAbility(access.AbilityManageStructure, access.Context{}), s.DeleteRole)
		company.GET("/permissions", s.ListCompanyPermissions)

		// -------- Members --------
		company.POST("/members", s.RequireAbility(access.AbilityManageStructure, access.Context{}), s.AddCompanyMember)
		company.PUT("/members/:userId/role", s.RequireAbility(access.AbilityManageStructure, access.Context{}), s.AssignMemberRole)
	}
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin")

	admin.Use(s.AuthRequired())
	admin.Use(s.PlatformAdminRequired())

	admin.PATCH("/companies/:companyId/status", s.SetCompanyStatus)
	admin.PATCH("/companies/:companyId/plan", s.ChangeCompanyPlan)

	admin.GET("/modules", s.ListGlobalModules)
	admin.PATCH("/modules/:moduleKey", s.SetGlobalModuleAvailability)

	admin.GET("/settings", s.GetPlatformSettings)
	admin.PATCH("/settings", s.UpdatePlatformSettings)
}

func parseSnowflakeParam(c *gin.Context, name string) (snowflake.ID, error) {
	raw := strings.TrimSpace(c.Param(name))
	if raw == "" {
		return 0, newValidationError(name, "required", name+" is required")
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, newValidationError(name, "invalid", name+" is not a valid id")
	}
	return id, nil
}

func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError {
		return "internal", payload.Type
	}
	return "request", payload.Type
}
