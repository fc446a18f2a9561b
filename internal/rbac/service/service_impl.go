package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shiplane/platform/internal/module/catalog"
	moduledomain "github.com/shiplane/platform/internal/module/domain"
	"github.com/shiplane/platform/internal/rbac/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Catalog *catalog.Catalog
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	catalog *catalog.Catalog
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("rbac.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		catalog: p.Catalog,
	}
}

// HasPermission walks membership to role to permission set with fresh
// queries. Any failure along the chain resolves to false.
func (s *Service) HasPermission(ctx context.Context, userID, companyID snowflake.ID, permissionKey string) bool {
	permissionKey = strings.TrimSpace(permissionKey)
	if userID == 0 || companyID == 0 || permissionKey == "" {
		return false
	}
	roleID, err := s.repo.RoleIDForMember(ctx, s.db, companyID, userID)
	if err != nil {
		s.log.Warn("member role lookup failed",
			zap.String("company_id", companyID.String()),
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return false
	}
	if roleID == nil {
		return false
	}
	has, err := s.repo.RoleHasPermission(ctx, s.db, *roleID, permissionKey)
	if err != nil {
		s.log.Warn("role permission lookup failed",
			zap.String("role_id", roleID.String()),
			zap.String("permission_key", permissionKey),
			zap.Error(err),
		)
		return false
	}
	return has
}

func (s *Service) IsAdministrative(ctx context.Context, userID, companyID snowflake.ID) bool {
	if userID == 0 || companyID == 0 {
		return false
	}
	roleID, err := s.repo.RoleIDForMember(ctx, s.db, companyID, userID)
	if err != nil || roleID == nil {
		return false
	}
	role, err := s.repo.FindRoleByID(ctx, s.db, *roleID)
	if err != nil || role == nil {
		return false
	}
	return role.IsAdministrative
}

// SyncPermissions reconciles the permissions table with the manifest
// catalog. Keys no longer declared by any manifest are removed only when no
// role references them.
func (s *Service) SyncPermissions(ctx context.Context) error {
	declared := append(s.catalog.PlatformPermissions(), s.catalog.CompanyPermissions()...)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		keys := make(map[string]struct{}, len(declared))
		for _, entry := range declared {
			keys[entry.Key] = struct{}{}
			perm := &domain.Permission{
				ID:        s.genID.Generate(),
				Key:       entry.Key,
				Label:     entry.Label,
				ModuleKey: entry.ModuleKey,
				IsAdmin:   entry.IsAdmin,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := s.repo.UpsertPermission(ctx, tx, perm); err != nil {
				return err
			}
		}

		existing, err := s.repo.ListPermissions(ctx, tx)
		if err != nil {
			return err
		}
		for _, perm := range existing {
			if _, ok := keys[perm.Key]; ok {
				continue
			}
			if err := s.repo.DeletePermissionIfUnreferenced(ctx, tx, perm.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) ListPermissions(ctx context.Context) ([]domain.Permission, error) {
	return s.repo.ListPermissions(ctx, s.db)
}

func (s *Service) CreateRole(ctx context.Context, companyID snowflake.ID, req domain.CreateRoleRequest) (*domain.RoleResponse, error) {
	if companyID == 0 {
		return nil, domain.ErrInvalidCompany
	}
	key := strings.ToLower(strings.TrimSpace(req.Key))
	if key == "" {
		return nil, domain.ErrInvalidRoleKey
	}
	label := strings.TrimSpace(req.Label)
	if label == "" {
		return nil, domain.ErrInvalidRoleLabel
	}

	existing, err := s.repo.FindRoleByKey(ctx, s.db, &companyID, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrRoleExists
	}

	role := &domain.Role{
		ID:               s.genID.Generate(),
		CompanyID:        &companyID,
		Key:              key,
		Label:            label,
		IsAdministrative: req.IsAdministrative,
		CreatedAt:        time.Now().UTC(),
		UpdatedAt:        time.Now().UTC(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.CreateRole(ctx, tx, role); err != nil {
			return err
		}
		return s.attachPermissions(ctx, tx, role, req.PermissionKeys)
	})
	if err != nil {
		return nil, err
	}
	return s.toResponse(role), nil
}

func (s *Service) UpdateRole(ctx context.Context, companyID snowflake.ID, roleID string, req domain.UpdateRoleRequest) (*domain.RoleResponse, error) {
	role, err := s.companyRole(ctx, companyID, roleID)
	if err != nil {
		return nil, err
	}

	if req.Key != nil {
		key := strings.ToLower(strings.TrimSpace(*req.Key))
		if key == "" {
			return nil, domain.ErrInvalidRoleKey
		}
		if key != role.Key {
			if role.IsSystem {
				return nil, domain.ErrStructuralConflict
			}
			conflict, err := s.repo.FindRoleByKey(ctx, s.db, &companyID, key)
			if err != nil {
				return nil, err
			}
			if conflict != nil {
				return nil, domain.ErrRoleExists
			}
			role.Key = key
		}
	}
	if req.Label != nil {
		label := strings.TrimSpace(*req.Label)
		if label == "" {
			return nil, domain.ErrInvalidRoleLabel
		}
		role.Label = label
	}
	if req.IsAdministrative != nil && !role.IsSystem {
		role.IsAdministrative = *req.IsAdministrative
	}
	role.UpdatedAt = time.Now().UTC()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.UpdateRole(ctx, tx, role); err != nil {
			return err
		}
		if req.PermissionKeys == nil {
			return nil
		}
		return s.attachPermissions(ctx, tx, role, req.PermissionKeys)
	})
	if err != nil {
		return nil, err
	}
	return s.toResponse(role), nil
}

func (s *Service) DeleteRole(ctx context.Context, companyID snowflake.ID, roleID string) error {
	role, err := s.companyRole(ctx, companyID, roleID)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return domain.ErrStructuralConflict
	}
	members, err := s.repo.CountMembersWithRole(ctx, s.db, role.ID)
	if err != nil {
		return err
	}
	if members > 0 {
		return domain.ErrStructuralConflict
	}
	return s.repo.DeleteRole(ctx, s.db, role.ID)
}

func (s *Service) ListRoles(ctx context.Context, companyID snowflake.ID) ([]domain.RoleResponse, error) {
	if companyID == 0 {
		return nil, domain.ErrInvalidCompany
	}
	roles, err := s.repo.ListRoles(ctx, s.db, companyID)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.RoleResponse, 0, len(roles))
	for i := range roles {
		resp = append(resp, *s.toResponse(&roles[i]))
	}
	return resp, nil
}

func (s *Service) AssignRole(ctx context.Context, companyID, userID snowflake.ID, roleID *string) error {
	if companyID == 0 {
		return domain.ErrInvalidCompany
	}
	if userID == 0 {
		return domain.ErrInvalidUser
	}

	var target *snowflake.ID
	if roleID != nil && strings.TrimSpace(*roleID) != "" {
		role, err := s.companyRole(ctx, companyID, *roleID)
		if err != nil {
			return err
		}
		target = &role.ID
	}

	affected, err := s.repo.SetMemberRole(ctx, s.db, companyID, userID, target)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}

func (s *Service) EnsureCompanyRoles(ctx context.Context, tx *gorm.DB, companyID snowflake.ID) (map[string]snowflake.ID, error) {
	if companyID == 0 {
		return nil, domain.ErrInvalidCompany
	}

	seed := []struct {
		key            string
		label          string
		administrative bool
		permissions    []moduledomain.CatalogPermission
	}{
		{domain.RoleKeyOwner, "Owner", true, s.catalog.CompanyPermissions()},
		{domain.RoleKeyAdmin, "Administrator", true, s.catalog.CompanyPermissions()},
		{domain.RoleKeyMember, "Member", false, nil},
	}

	ids := make(map[string]snowflake.ID, len(seed))
	for _, entry := range seed {
		role, err := s.repo.FindRoleByKey(ctx, tx, &companyID, entry.key)
		if err != nil {
			return nil, err
		}
		if role == nil {
			role = &domain.Role{
				ID:               s.genID.Generate(),
				CompanyID:        &companyID,
				Key:              entry.key,
				Label:            entry.label,
				IsAdministrative: entry.administrative,
				IsSystem:         true,
				CreatedAt:        time.Now().UTC(),
				UpdatedAt:        time.Now().UTC(),
			}
			if err := s.repo.CreateRole(ctx, tx, role); err != nil {
				return nil, err
			}
			keys := make([]string, 0, len(entry.permissions))
			for _, perm := range entry.permissions {
				keys = append(keys, perm.Key)
			}
			if len(keys) > 0 {
				if err := s.linkDeclaredPermissions(ctx, tx, role.ID, keys); err != nil {
					return nil, err
				}
			}
		}
		ids[entry.key] = role.ID
	}
	return ids, nil
}

func (s *Service) ResolveRole(ctx context.Context, companyID snowflake.ID, roleID string) (snowflake.ID, error) {
	if companyID == 0 {
		return 0, domain.ErrInvalidCompany
	}
	role, err := s.companyRole(ctx, companyID, roleID)
	if err != nil {
		return 0, err
	}
	return role.ID, nil
}

func (s *Service) companyRole(ctx context.Context, companyID snowflake.ID, roleID string) (*domain.Role, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(roleID))
	if err != nil || parsed == 0 {
		return nil, domain.ErrRoleNotFound
	}
	role, err := s.repo.FindRoleByID(ctx, s.db, parsed)
	if err != nil {
		return nil, err
	}
	if role == nil || role.CompanyID == nil || *role.CompanyID != companyID {
		return nil, domain.ErrRoleNotFound
	}
	return role, nil
}

func (s *Service) attachPermissions(ctx context.Context, tx *gorm.DB, role *domain.Role, keys []string) error {
	normalized := make([]string, 0, len(keys))
	for _, key := range keys {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			normalized = append(normalized, trimmed)
		}
	}
	perms, err := s.repo.FindPermissionsByKeys(ctx, tx, normalized)
	if err != nil {
		return err
	}
	if len(perms) != len(normalized) {
		return domain.ErrPermissionNotFound
	}
	ids := make([]snowflake.ID, 0, len(perms))
	for _, perm := range perms {
		ids = append(ids, perm.ID)
	}
	if err := s.repo.ReplaceRolePermissions(ctx, tx, role.ID, ids); err != nil {
		return err
	}
	role.Permissions = perms
	return nil
}

// linkDeclaredPermissions attaches permissions during role seeding without
// failing when SyncPermissions has not run yet. Missing keys are skipped;
// the next sync plus a role update can fill them in.
func (s *Service) linkDeclaredPermissions(ctx context.Context, tx *gorm.DB, roleID snowflake.ID, keys []string) error {
	perms, err := s.repo.FindPermissionsByKeys(ctx, tx, keys)
	if err != nil {
		return err
	}
	ids := make([]snowflake.ID, 0, len(perms))
	for _, perm := range perms {
		ids = append(ids, perm.ID)
	}
	if len(ids) == 0 {
		return nil
	}
	return s.repo.ReplaceRolePermissions(ctx, tx, roleID, ids)
}

func (s *Service) toResponse(role *domain.Role) *domain.RoleResponse {
	keys := make([]string, 0, len(role.Permissions))
	for _, perm := range role.Permissions {
		keys = append(keys, perm.Key)
	}
	return &domain.RoleResponse{
		ID:               role.ID.String(),
		Key:              role.Key,
		Label:            role.Label,
		IsAdministrative: role.IsAdministrative,
		IsSystem:         role.IsSystem,
		PermissionKeys:   keys,
	}
}
