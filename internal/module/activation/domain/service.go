package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidCompany = errors.New("invalid_company")
	ErrCompanyGone    = errors.New("company_gone")
)

// ModuleListItem joins a manifest with its availability and activation state
// for one company.
type ModuleListItem struct {
	Key             string   `json:"key"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Type            string   `json:"type"`
	MinPlan         string   `json:"min_plan,omitempty"`
	Jobdomains      []string `json:"jobdomains,omitempty"`
	GloballyEnabled bool     `json:"globally_enabled"`
	Active          bool     `json:"active"`
	Activatable     bool     `json:"activatable"`
}

type Service interface {
	Enable(ctx context.Context, companyID snowflake.ID, moduleKey string) (*ToggleResult, error)
	Disable(ctx context.Context, companyID snowflake.ID, moduleKey string) (*ToggleResult, error)
	IsActive(ctx context.Context, companyID snowflake.ID, moduleKey string) bool

	ListForCompany(ctx context.Context, companyID snowflake.ID) ([]ModuleListItem, error)
	SetGlobalAvailability(ctx context.Context, moduleKey string, enabled bool) (*ToggleResult, error)
	ListGlobalAvailability(ctx context.Context) (map[string]bool, error)
}
