package domain

import (
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
)

// CompanyModule is one company's persisted activation flag for an addon
// module. Absence of a row means never activated.
type CompanyModule struct {
	ID        snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"id"`
	CompanyID snowflake.ID `gorm:"not null;uniqueIndex:ux_company_modules" json:"company_id"`
	ModuleKey string       `gorm:"size:64;not null;uniqueIndex:ux_company_modules" json:"module_key"`
	Active    bool         `gorm:"not null;default:false" json:"active"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (CompanyModule) TableName() string { return "company_modules" }

// ModuleSetting is the platform wide availability switch for a module key.
// Absent row means not available.
type ModuleSetting struct {
	ID        snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"id"`
	ModuleKey string       `gorm:"size:64;not null;uniqueIndex:ux_module_settings_key" json:"module_key"`
	Enabled   bool         `gorm:"not null;default:false" json:"enabled"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (ModuleSetting) TableName() string { return "module_settings" }

// Toggle error codes carried on ToggleResult.
const (
	CodeNotFound          = "not_found"
	CodeNotEligible       = "not_eligible"
	CodeGloballyDisabled  = "globally_disabled"
	CodePlanInsufficient  = "plan_insufficient"
	CodeJobdomainMismatch = "jobdomain_mismatch"
)

// ToggleResult is the outcome of an enable or disable attempt. Eligibility
// failures are results, not errors; only infrastructure faults surface as a
// Go error.
type ToggleResult struct {
	Success   bool   `json:"success"`
	Status    int    `json:"-"`
	ModuleKey string `json:"module_key"`
	Active    bool   `json:"active"`
	ErrorCode string `json:"error_code,omitempty"`
	Message   string `json:"message,omitempty"`
}

func SuccessResult(moduleKey string, active bool) *ToggleResult {
	return &ToggleResult{
		Success:   true,
		Status:    http.StatusOK,
		ModuleKey: moduleKey,
		Active:    active,
	}
}

func FailureResult(moduleKey string, status int, code string, message string) *ToggleResult {
	return &ToggleResult{
		Success:   false,
		Status:    status,
		ModuleKey: moduleKey,
		ErrorCode: code,
		Message:   message,
	}
}
