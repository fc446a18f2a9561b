package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	companydomain "github.com/shiplane/platform/internal/company/domain"
)

type createCompanyRequest struct {
	Name       string   `json:"name"`
	Jobdomains []string `json:"jobdomains"`
	PlanKey    string   `json:"plan_key"`
}

type addMemberRequest struct {
	UserID string  `json:"user_id"`
	RoleID *string `json:"role_id"`
}

type assignRoleRequest struct {
	RoleID *string `json:"role_id"`
}

func (s *Server) CreateCompany(c *gin.Context) {
	userID := currentUserID(c)
	if userID == 0 {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.companysvc.Create(c.Request.Context(), userID, companydomain.CreateCompanyRequest{
		Name:       req.Name,
		Jobdomains: req.Jobdomains,
		PlanKey:    req.PlanKey,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) ListMyCompanies(c *gin.Context) {
	userID := currentUserID(c)
	if userID == 0 {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	items, err := s.companysvc.ListByUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"companies": items})
}

func (s *Server) GetCompany(c *gin.Context) {
	company := currentCompany(c)
	if company == nil {
		AbortWithError(c, companydomain.ErrNotFound)
		return
	}
	resp, err := s.companysvc.GetByID(c.Request.Context(), company.ID.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) AddCompanyMember(c *gin.Context) {
	company := currentCompany(c)
	if company == nil {
		AbortWithError(c, companydomain.ErrNotFound)
		return
	}

	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.companysvc.AddMember(c.Request.Context(), company.ID.String(), req.UserID, req.RoleID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "ok"})
}

func (s *Server) AssignMemberRole(c *gin.Context) {
	company := currentCompany(c)
	if company == nil {
		AbortWithError(c, companydomain.ErrNotFound)
		return
	}

	memberID, err := parseSnowflakeParam(c, "userId")
	if err != nil {
		AbortWithError(c, companydomain.ErrInvalidUser)
		return
	}

	var req assignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.rbacsvc.AssignRole(c.Request.Context(), company.ID, memberID, req.RoleID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
