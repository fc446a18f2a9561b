package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	companydomain "github.com/shiplane/platform/internal/company/domain"
	rbacdomain "github.com/shiplane/platform/internal/rbac/domain"
)

type permissionResponse struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	ModuleKey string `json:"module_key,omitempty"`
}

func (s *Server) ListRoles(c *gin.Context) {
	company := currentCompany(c)
	if company == nil {
		AbortWithError(c, companydomain.ErrNotFound)
		return
	}

	roles, err := s.rbacsvc.ListRoles(c.Request.Context(), company.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roles": roles})
}

func (s *Server) CreateRole(c *gin.Context) {
	company := currentCompany(c)
	if company == nil {
		AbortWithError(c, companydomain.ErrNotFound)
		return
	}

	var req rbacdomain.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	role, err := s.rbacsvc.CreateRole(c.Request.Context(), company.ID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, role)
}

func (s *Server) UpdateRole(c *gin.Context) {
	company := currentCompany(c)
	if company == nil {
		AbortWithError(c, companydomain.ErrNotFound)
		return
	}

	var req rbacdomain.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	role, err := s.rbacsvc.UpdateRole(c.Request.Context(), company.ID, c.Param("roleId"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, role)
}

func (s *Server) DeleteRole(c *gin.Context) {
	company := currentCompany(c)
	if company == nil {
		AbortWithError(c, companydomain.ErrNotFound)
		return
	}

	if err := s.rbacsvc.DeleteRole(c.Request.Context(), company.ID, c.Param("roleId")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListCompanyPermissions returns only permissions assignable to company
// roles. Platform admin permissions never show up here.
func (s *Server) ListCompanyPermissions(c *gin.Context) {
	perms, err := s.rbacsvc.ListPermissions(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]permissionResponse, 0, len(perms))
	for _, perm := range perms {
		if perm.IsAdmin {
			continue
		}
		out = append(out, permissionResponse{
			Key:       perm.Key,
			Label:     perm.Label,
			ModuleKey: perm.ModuleKey,
		})
	}
	c.JSON(http.StatusOK, gin.H{"permissions": out})
}
