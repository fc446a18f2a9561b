// Package domain contains persistence models for the company service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// Company represents a tenant.
type Company struct {
	ID         snowflake.ID                `gorm:"primaryKey" json:"id"`
	Name       string                      `gorm:"type:text;not null" json:"name"`
	Slug       string                      `gorm:"type:text;not null;uniqueIndex:ux_companies_slug" json:"slug"`
	Status     string                      `gorm:"type:text;not null;default:'active'" json:"status"`
	PlanKey    string                      `gorm:"column:plan_key;type:text;not null" json:"plan_key"`
	Jobdomains datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'" json:"jobdomains"`
	OwnerID    snowflake.ID                `gorm:"column:owner_id;not null;index" json:"owner_id"`
	CreatedAt  time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Company) TableName() string { return "companies" }

// CompanyMember represents membership of a user in a company. A member
// without a role reference holds no permissions and is never administrative.
type CompanyMember struct {
	ID        snowflake.ID  `gorm:"primaryKey" json:"id"`
	CompanyID snowflake.ID  `gorm:"column:company_id;not null;index;uniqueIndex:ux_company_user,priority:1" json:"company_id"`
	UserID    snowflake.ID  `gorm:"column:user_id;not null;index;uniqueIndex:ux_company_user,priority:2" json:"user_id"`
	RoleID    *snowflake.ID `gorm:"column:role_id;index" json:"role_id"`
	CreatedAt time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (CompanyMember) TableName() string { return "company_members" }
