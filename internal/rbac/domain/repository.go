package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	CreateRole(ctx context.Context, db *gorm.DB, role *Role) error
	FindRoleByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Role, error)
	FindRoleByKey(ctx context.Context, db *gorm.DB, companyID *snowflake.ID, key string) (*Role, error)
	ListRoles(ctx context.Context, db *gorm.DB, companyID snowflake.ID) ([]Role, error)
	UpdateRole(ctx context.Context, db *gorm.DB, role *Role) error
	DeleteRole(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	ReplaceRolePermissions(ctx context.Context, db *gorm.DB, roleID snowflake.ID, permissionIDs []snowflake.ID) error

	UpsertPermission(ctx context.Context, db *gorm.DB, perm *Permission) error
	ListPermissions(ctx context.Context, db *gorm.DB) ([]Permission, error)
	FindPermissionsByKeys(ctx context.Context, db *gorm.DB, keys []string) ([]Permission, error)
	DeletePermissionIfUnreferenced(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	RoleIDForMember(ctx context.Context, db *gorm.DB, companyID, userID snowflake.ID) (*snowflake.ID, error)
	RoleHasPermission(ctx context.Context, db *gorm.DB, roleID snowflake.ID, permissionKey string) (bool, error)
	CountMembersWithRole(ctx context.Context, db *gorm.DB, roleID snowflake.ID) (int64, error)
	SetMemberRole(ctx context.Context, db *gorm.DB, companyID, userID snowflake.ID, roleID *snowflake.ID) (int64, error)
}
