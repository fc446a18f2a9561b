package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shiplane/platform/internal/rbac/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) CreateRole(ctx context.Context, db *gorm.DB, role *domain.Role) error {
	return db.WithContext(ctx).Omit("Permissions").Create(role).Error
}

func (r *repo) FindRoleByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Role, error) {
	var role domain.Role
	err := db.WithContext(ctx).
		Preload("Permissions").
		Where("id = ?", id).
		First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

func (r *repo) FindRoleByKey(ctx context.Context, db *gorm.DB, companyID *snowflake.ID, key string) (*domain.Role, error) {
	query := db.WithContext(ctx).Where("key = ?", key)
	if companyID == nil {
		query = query.Where("company_id IS NULL")
	} else {
		query = query.Where("company_id = ?", *companyID)
	}

	var role domain.Role
	if err := query.First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

func (r *repo) ListRoles(ctx context.Context, db *gorm.DB, companyID snowflake.ID) ([]domain.Role, error) {
	var roles []domain.Role
	err := db.WithContext(ctx).
		Preload("Permissions").
		Where("company_id = ?", companyID).
		Order("is_system DESC, key ASC").
		Find(&roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *repo) UpdateRole(ctx context.Context, db *gorm.DB, role *domain.Role) error {
	return db.WithContext(ctx).Omit("Permissions").Save(role).Error
}

func (r *repo) DeleteRole(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	if err := db.WithContext(ctx).Exec(
		`DELETE FROM role_permissions WHERE role_id = ?`, id,
	).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Role{}).Error
}

func (r *repo) ReplaceRolePermissions(ctx context.Context, db *gorm.DB, roleID snowflake.ID, permissionIDs []snowflake.ID) error {
	if err := db.WithContext(ctx).Exec(
		`DELETE FROM role_permissions WHERE role_id = ?`, roleID,
	).Error; err != nil {
		return err
	}
	for _, permissionID := range permissionIDs {
		if err := db.WithContext(ctx).Exec(
			`INSERT INTO role_permissions (role_id, permission_id) VALUES (?, ?)`,
			roleID, permissionID,
		).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) UpsertPermission(ctx context.Context, db *gorm.DB, perm *domain.Permission) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"label", "module_key", "is_admin", "updated_at"}),
	}).Create(perm).Error
}

func (r *repo) ListPermissions(ctx context.Context, db *gorm.DB) ([]domain.Permission, error) {
	var perms []domain.Permission
	if err := db.WithContext(ctx).Order("module_key ASC, key ASC").Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *repo) FindPermissionsByKeys(ctx context.Context, db *gorm.DB, keys []string) ([]domain.Permission, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	var perms []domain.Permission
	if err := db.WithContext(ctx).Where("key IN ?", keys).Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *repo) DeletePermissionIfUnreferenced(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM permissions
		 WHERE id = ?
		   AND NOT EXISTS (
		     SELECT 1 FROM role_permissions WHERE permission_id = ?
		   )`,
		id, id,
	).Error
}

func (r *repo) RoleIDForMember(ctx context.Context, db *gorm.DB, companyID, userID snowflake.ID) (*snowflake.ID, error) {
	var row struct {
		RoleID *snowflake.ID `gorm:"column:role_id"`
	}
	res := db.WithContext(ctx).Raw(
		`SELECT role_id
		 FROM company_members
		 WHERE company_id = ? AND user_id = ?
		 LIMIT 1`,
		companyID, userID,
	).Scan(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return row.RoleID, nil
}

func (r *repo) RoleHasPermission(ctx context.Context, db *gorm.DB, roleID snowflake.ID, permissionKey string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1)
		 FROM role_permissions rp
		 JOIN permissions p ON p.id = rp.permission_id
		 WHERE rp.role_id = ? AND p.key = ?`,
		roleID, permissionKey,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) CountMembersWithRole(ctx context.Context, db *gorm.DB, roleID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM company_members WHERE role_id = ?`,
		roleID,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repo) SetMemberRole(ctx context.Context, db *gorm.DB, companyID, userID snowflake.ID, roleID *snowflake.ID) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE company_members SET role_id = ? WHERE company_id = ? AND user_id = ?`,
		roleID, companyID, userID,
	)
	return res.RowsAffected, res.Error
}
