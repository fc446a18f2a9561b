package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shiplane/platform/internal/access"
	authdomain "github.com/shiplane/platform/internal/auth/domain"
	companydomain "github.com/shiplane/platform/internal/company/domain"
	"github.com/shiplane/platform/internal/companyctx"
	obscontext "github.com/shiplane/platform/internal/observability/context"
	"github.com/shiplane/platform/internal/seed"
)

const (
	contextUserIDKey  = "user_id"
	contextCompanyKey = "company"
)

// AuthRequired resolves the session cookie into a user. Handlers behind it
// can rely on currentUserID returning a non zero id.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok || strings.TrimSpace(token) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		session, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextUserIDKey, session.UserID)
		ctx := companyctx.WithUserID(c.Request.Context(), session.UserID)
		ctx = obscontext.WithActor(ctx, "user", session.UserID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// CompanyContext resolves the :companyId path segment, requires the caller
// to belong to the company (ownership counts) and hangs the company on the
// request.
func (s *Server) CompanyContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := currentUserID(c)
		if userID == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		companyID, err := snowflake.ParseString(strings.TrimSpace(c.Param("companyId")))
		if err != nil || companyID == 0 {
			AbortWithError(c, companydomain.ErrInvalidCompany)
			return
		}

		company, err := s.companyrepo.FindByID(c.Request.Context(), s.db, companyID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if company == nil {
			AbortWithError(c, companydomain.ErrNotFound)
			return
		}

		if company.OwnerID != userID {
			member, err := s.companyrepo.FindMember(c.Request.Context(), s.db, companyID, userID)
			if err != nil {
				AbortWithError(c, err)
				return
			}
			if member == nil {
				AbortWithError(c, ErrForbidden)
				return
			}
		}

		if company.Status == companydomain.StatusSuspended {
			AbortWithError(c, ErrForbidden)
			return
		}

		c.Set(contextCompanyKey, company)
		ctx := companyctx.WithCompanyID(c.Request.Context(), companyID)
		ctx = obscontext.WithCompanyID(ctx, companyID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAbility gates a route on a single access engine decision.
func (s *Server) RequireAbility(ability access.Ability, in access.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := currentUserID(c)
		company := currentCompany(c)
		if userID == 0 || company == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if !s.access.Can(c.Request.Context(), userID, company.ID, ability, in) {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

// RequireModule gates a feature route group on module activation.
func (s *Server) RequireModule(moduleKey string) gin.HandlerFunc {
	return s.RequireAbility(access.AbilityUseModule, access.Context{Module: moduleKey})
}

// PlatformAdminRequired restricts a route to users flagged as platform
// operators.
func (s *Server) PlatformAdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := currentUserID(c)
		if userID == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		var user authdomain.User
		if err := s.db.WithContext(c.Request.Context()).
			Where("id = ?", userID).
			First(&user).Error; err != nil {
			AbortWithError(c, ErrForbidden)
			return
		}
		if !seed.IsPlatformAdmin(&user) {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

// LoginRateLimit throttles credential attempts per client address.
func (s *Server) LoginRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter.Enabled() && !s.limiter.AllowLogin(c.Request.Context(), c.ClientIP()) {
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}

// ToggleRateLimit throttles module toggles per company.
func (s *Server) ToggleRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		company := currentCompany(c)
		if company != nil && s.limiter.Enabled() &&
			!s.limiter.AllowModuleToggle(c.Request.Context(), company.ID.String()) {
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}

func currentUserID(c *gin.Context) snowflake.ID {
	value, ok := c.Get(contextUserIDKey)
	if !ok {
		return 0
	}
	userID, ok := value.(snowflake.ID)
	if !ok {
		return 0
	}
	return userID
}

func currentCompany(c *gin.Context) *companydomain.Company {
	value, ok := c.Get(contextCompanyKey)
	if !ok {
		return nil
	}
	company, ok := value.(*companydomain.Company)
	if !ok {
		return nil
	}
	return company
}
