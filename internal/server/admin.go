package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shiplane/platform/internal/platformsettings"
)

type setCompanyStatusRequest struct {
	Status string `json:"status"`
}

type changeCompanyPlanRequest struct {
	PlanKey string `json:"plan_key"`
}

type setModuleAvailabilityRequest struct {
	Enabled *bool `json:"enabled"`
}

func (s *Server) SetCompanyStatus(c *gin.Context) {
	var req setCompanyStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.companysvc.SetStatus(c.Request.Context(), c.Param("companyId"), req.Status); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) ChangeCompanyPlan(c *gin.Context) {
	var req changeCompanyPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.companysvc.ChangePlan(c.Request.Context(), c.Param("companyId"), req.PlanKey); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListGlobalModules returns every cataloged module with its platform wide
// availability flag. Modules without a stored override report enabled.
func (s *Server) ListGlobalModules(c *gin.Context) {
	availability, err := s.activationsvc.ListGlobalAvailability(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	type globalModule struct {
		Key     string `json:"key"`
		Name    string `json:"name"`
		Type    string `json:"type"`
		Scope   string `json:"scope"`
		Enabled bool   `json:"enabled"`
	}

	items := make([]globalModule, 0)
	for _, manifest := range s.catalog.All() {
		enabled, ok := availability[manifest.Key]
		if !ok {
			enabled = true
		}
		items = append(items, globalModule{
			Key:     manifest.Key,
			Name:    manifest.Name,
			Type:    string(manifest.Type),
			Scope:   string(manifest.Scope),
			Enabled: enabled,
		})
	}
	c.JSON(http.StatusOK, gin.H{"modules": items})
}

func (s *Server) SetGlobalModuleAvailability(c *gin.Context) {
	var req setModuleAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	res, err := s.activationsvc.SetGlobalAvailability(c.Request.Context(), c.Param("moduleKey"), *req.Enabled)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(res.Status, res)
}

func (s *Server) GetPlatformSettings(c *gin.Context) {
	settings, err := s.settings.Get(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (s *Server) UpdatePlatformSettings(c *gin.Context) {
	var req platformsettings.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	settings, err := s.settings.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
