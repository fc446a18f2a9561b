package server

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/shiplane/platform/internal/access"
	companydomain "github.com/shiplane/platform/internal/company/domain"
	moduledomain "github.com/shiplane/platform/internal/module/domain"
)

func (s *Server) ListCompanyModules(c *gin.Context) {
	company := currentCompany(c)
	if company == nil {
		AbortWithError(c, companydomain.ErrNotFound)
		return
	}

	items, err := s.activationsvc.ListForCompany(c.Request.Context(), company.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"modules": items})
}

func (s *Server) EnableModule(c *gin.Context) {
	s.toggleModule(c, true)
}

func (s *Server) DisableModule(c *gin.Context) {
	s.toggleModule(c, false)
}

func (s *Server) toggleModule(c *gin.Context, enable bool) {
	company := currentCompany(c)
	if company == nil {
		AbortWithError(c, companydomain.ErrNotFound)
		return
	}
	moduleKey := c.Param("moduleKey")

	toggle := s.activationsvc.Disable
	if enable {
		toggle = s.activationsvc.Enable
	}
	res, err := toggle(c.Request.Context(), company.ID, moduleKey)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(res.Status, res)
}

// Navigation returns the menu entries for modules the caller can currently
// use, so the client never renders links into gated features.
func (s *Server) Navigation(c *gin.Context) {
	company := currentCompany(c)
	userID := currentUserID(c)
	if company == nil || userID == 0 {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	type navItem struct {
		Module    string `json:"module"`
		Label     string `json:"label"`
		Route     string `json:"route"`
		Icon      string `json:"icon,omitempty"`
		SortOrder int    `json:"sort_order"`
	}

	items := make([]navItem, 0)
	for _, manifest := range s.catalog.All() {
		if manifest.Scope != moduledomain.ScopeCompany || !manifest.Visible {
			continue
		}
		if !s.access.Can(c.Request.Context(), userID, company.ID, access.AbilityUseModule, access.Context{Module: manifest.Key}) {
			continue
		}
		if !s.access.Can(c.Request.Context(), userID, company.ID, access.AbilityAccessSurface, access.Context{Surface: string(manifest.Surface)}) {
			continue
		}
		for _, entry := range manifest.Navigation {
			items = append(items, navItem{
				Module:    manifest.Key,
				Label:     entry.Label,
				Route:     entry.Route,
				Icon:      entry.Icon,
				SortOrder: manifest.SortOrder*100 + entry.SortOrder,
			})
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SortOrder < items[j].SortOrder })

	c.JSON(http.StatusOK, gin.H{"navigation": items})
}
