package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrInvalidRoleKey     = errors.New("invalid_role_key")
	ErrInvalidRoleLabel   = errors.New("invalid_role_label")
	ErrInvalidCompany     = errors.New("invalid_company")
	ErrInvalidUser        = errors.New("invalid_user")
	ErrRoleNotFound       = errors.New("role_not_found")
	ErrRoleExists         = errors.New("role_exists")
	ErrPermissionNotFound = errors.New("permission_not_found")
	ErrStructuralConflict = errors.New("structural_conflict")
	ErrMemberNotFound     = errors.New("member_not_found")
)

type CreateRoleRequest struct {
	Key              string   `json:"key"`
	Label            string   `json:"label"`
	IsAdministrative bool     `json:"is_administrative"`
	PermissionKeys   []string `json:"permission_keys"`
}

type UpdateRoleRequest struct {
	Key              *string  `json:"key,omitempty"`
	Label            *string  `json:"label,omitempty"`
	IsAdministrative *bool    `json:"is_administrative,omitempty"`
	PermissionKeys   []string `json:"permission_keys,omitempty"`
}

type RoleResponse struct {
	ID               string   `json:"id"`
	Key              string   `json:"key"`
	Label            string   `json:"label"`
	IsAdministrative bool     `json:"is_administrative"`
	IsSystem         bool     `json:"is_system"`
	PermissionKeys   []string `json:"permission_keys"`
}

// Service resolves and manages role based permissions. Resolution methods
// read the database on every call so a revocation is visible on the next
// request.
type Service interface {
	HasPermission(ctx context.Context, userID, companyID snowflake.ID, permissionKey string) bool
	IsAdministrative(ctx context.Context, userID, companyID snowflake.ID) bool

	SyncPermissions(ctx context.Context) error
	ListPermissions(ctx context.Context) ([]Permission, error)

	CreateRole(ctx context.Context, companyID snowflake.ID, req CreateRoleRequest) (*RoleResponse, error)
	UpdateRole(ctx context.Context, companyID snowflake.ID, roleID string, req UpdateRoleRequest) (*RoleResponse, error)
	DeleteRole(ctx context.Context, companyID snowflake.ID, roleID string) error
	ListRoles(ctx context.Context, companyID snowflake.ID) ([]RoleResponse, error)
	AssignRole(ctx context.Context, companyID, userID snowflake.ID, roleID *string) error

	// ResolveRole parses roleID and returns its ID when the role belongs
	// to the company; a role from another company is ErrRoleNotFound.
	ResolveRole(ctx context.Context, companyID snowflake.ID, roleID string) (snowflake.ID, error)

	// EnsureCompanyRoles creates the system roles for a company inside the
	// caller's transaction and returns their IDs by role key.
	EnsureCompanyRoles(ctx context.Context, tx *gorm.DB, companyID snowflake.ID) (map[string]snowflake.ID, error)
}
