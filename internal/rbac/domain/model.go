package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// System role keys seeded for every company. The owner role exists so the
// founding member always has an assignable role row; ownership itself is
// tracked on the company record.
const (
	RoleKeyOwner  = "owner"
	RoleKeyAdmin  = "admin"
	RoleKeyMember = "member"
)

// Role is a named permission set. CompanyID is nil for platform-scoped
// roles; is_system roles cannot be deleted or re-keyed.
type Role struct {
	ID               snowflake.ID  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	CompanyID        *snowflake.ID `gorm:"uniqueIndex:ux_roles_company_key" json:"company_id,omitempty"`
	Key              string        `gorm:"size:64;not null;uniqueIndex:ux_roles_company_key" json:"key"`
	Label            string        `gorm:"size:128;not null" json:"label"`
	IsAdministrative bool          `gorm:"not null;default:false" json:"is_administrative"`
	IsSystem         bool          `gorm:"not null;default:false" json:"is_system"`
	Permissions      []Permission  `gorm:"many2many:role_permissions;" json:"permissions,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

func (Role) TableName() string { return "roles" }

// Permission is one grantable capability, declared by a module manifest and
// synced into the database so roles can reference it.
type Permission struct {
	ID        snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Key       string       `gorm:"size:128;not null;uniqueIndex:ux_permissions_key" json:"key"`
	Label     string       `gorm:"size:128;not null" json:"label"`
	ModuleKey string       `gorm:"size:64;not null" json:"module_key"`
	IsAdmin   bool         `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (Permission) TableName() string { return "permissions" }
