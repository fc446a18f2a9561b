package access

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	companydomain "github.com/shiplane/platform/internal/company/domain"
	companyrepo "github.com/shiplane/platform/internal/company/repository"
	activationdomain "github.com/shiplane/platform/internal/module/activation/domain"
	rbacdomain "github.com/shiplane/platform/internal/rbac/domain"
	dbpkg "github.com/shiplane/platform/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubActivation struct {
	active map[string]bool
}

func (s *stubActivation) Enable(ctx context.Context, companyID snowflake.ID, moduleKey string) (*activationdomain.ToggleResult, error) {
	return nil, errors.New("not implemented")
}

func (s *stubActivation) Disable(ctx context.Context, companyID snowflake.ID, moduleKey string) (*activationdomain.ToggleResult, error) {
	return nil, errors.New("not implemented")
}

func (s *stubActivation) IsActive(ctx context.Context, companyID snowflake.ID, moduleKey string) bool {
	return s.active[moduleKey]
}

func (s *stubActivation) ListForCompany(ctx context.Context, companyID snowflake.ID) ([]activationdomain.ModuleListItem, error) {
	return nil, nil
}

func (s *stubActivation) SetGlobalAvailability(ctx context.Context, moduleKey string, enabled bool) (*activationdomain.ToggleResult, error) {
	return nil, errors.New("not implemented")
}

func (s *stubActivation) ListGlobalAvailability(ctx context.Context) (map[string]bool, error) {
	return nil, nil
}

type stubRBAC struct {
	permissions    map[string]bool
	administrative map[snowflake.ID]bool
}

func (s *stubRBAC) HasPermission(ctx context.Context, userID, companyID snowflake.ID, permissionKey string) bool {
	return s.permissions[permissionKey]
}

func (s *stubRBAC) IsAdministrative(ctx context.Context, userID, companyID snowflake.ID) bool {
	return s.administrative[userID]
}

func (s *stubRBAC) SyncPermissions(ctx context.Context) error { return nil }

func (s *stubRBAC) ListPermissions(ctx context.Context) ([]rbacdomain.Permission, error) {
	return nil, nil
}

func (s *stubRBAC) CreateRole(ctx context.Context, companyID snowflake.ID, req rbacdomain.CreateRoleRequest) (*rbacdomain.RoleResponse, error) {
	return nil, errors.New("not implemented")
}

func (s *stubRBAC) UpdateRole(ctx context.Context, companyID snowflake.ID, roleID string, req rbacdomain.UpdateRoleRequest) (*rbacdomain.RoleResponse, error) {
	return nil, errors.New("not implemented")
}

func (s *stubRBAC) DeleteRole(ctx context.Context, companyID snowflake.ID, roleID string) error {
	return errors.New("not implemented")
}

func (s *stubRBAC) ListRoles(ctx context.Context, companyID snowflake.ID) ([]rbacdomain.RoleResponse, error) {
	return nil, nil
}

func (s *stubRBAC) AssignRole(ctx context.Context, companyID, userID snowflake.ID, roleID *string) error {
	return errors.New("not implemented")
}

func (s *stubRBAC) ResolveRole(ctx context.Context, companyID snowflake.ID, roleID string) (snowflake.ID, error) {
	return 0, errors.New("not implemented")
}

func (s *stubRBAC) EnsureCompanyRoles(ctx context.Context, tx *gorm.DB, companyID snowflake.ID) (map[string]snowflake.ID, error) {
	return nil, errors.New("not implemented")
}

type testEngine struct {
	engine     Engine
	db         *gorm.DB
	node       *snowflake.Node
	activation *stubActivation
	rbac       *stubRBAC
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()

	db, err := dbpkg.NewTest()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&companydomain.Company{}, &companydomain.CompanyMember{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	node, err := snowflake.NewNode(3)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	act := &stubActivation{active: map[string]bool{}}
	rb := &stubRBAC{permissions: map[string]bool{}, administrative: map[snowflake.ID]bool{}}
	eng := New(Params{
		DB:         db,
		Log:        zap.NewNop(),
		Activation: act,
		RBAC:       rb,
		Companies:  companyrepo.Provide(),
	})
	return &testEngine{engine: eng, db: db, node: node, activation: act, rbac: rb}
}

func (te *testEngine) createCompany(t *testing.T, ownerID snowflake.ID) snowflake.ID {
	t.Helper()
	company := &companydomain.Company{
		ID:      te.node.Generate(),
		Name:    "Polar Logistics",
		Slug:    "polar-" + te.node.Generate().String(),
		Status:  companydomain.StatusActive,
		PlanKey: "starter",
		OwnerID: ownerID,
	}
	if err := te.db.Create(company).Error; err != nil {
		t.Fatalf("create company: %v", err)
	}
	return company.ID
}

func TestUseModuleHasNoOwnerBypass(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	ownerID := te.node.Generate()
	companyID := te.createCompany(t, ownerID)

	if te.engine.Can(ctx, ownerID, companyID, AbilityUseModule, Context{Module: "shipments"}) {
		t.Fatal("inactive module must be denied even for the owner")
	}

	te.activation.active["shipments"] = true
	if !te.engine.Can(ctx, ownerID, companyID, AbilityUseModule, Context{Module: "shipments"}) {
		t.Fatal("active module must be allowed")
	}
	stranger := te.node.Generate()
	if !te.engine.Can(ctx, stranger, companyID, AbilityUseModule, Context{Module: "shipments"}) {
		t.Fatal("use-module depends only on activation state")
	}
}

func TestOwnerBypassForNonModuleAbilities(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	ownerID := te.node.Generate()
	companyID := te.createCompany(t, ownerID)

	if !te.engine.Can(ctx, ownerID, companyID, AbilityUsePermission, Context{Permission: "shipments.delete"}) {
		t.Fatal("owner must pass permission checks")
	}
	if !te.engine.Can(ctx, ownerID, companyID, AbilityManageStructure, Context{}) {
		t.Fatal("owner must pass structure checks")
	}
	if !te.engine.Can(ctx, ownerID, companyID, AbilityAccessSurface, Context{Surface: "structure"}) {
		t.Fatal("owner must pass surface checks")
	}
}

func TestSurfaceAccess(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	companyID := te.createCompany(t, te.node.Generate())
	userID := te.node.Generate()
	adminID := te.node.Generate()
	te.rbac.administrative[adminID] = true

	if !te.engine.Can(ctx, userID, companyID, AbilityAccessSurface, Context{Surface: "operations"}) {
		t.Fatal("non structure surfaces are open to members")
	}
	if te.engine.Can(ctx, userID, companyID, AbilityAccessSurface, Context{Surface: "structure"}) {
		t.Fatal("structure surface requires an administrative role")
	}
	if !te.engine.Can(ctx, adminID, companyID, AbilityAccessSurface, Context{Surface: "structure"}) {
		t.Fatal("administrative role must reach the structure surface")
	}
}

func TestUsePermission(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	companyID := te.createCompany(t, te.node.Generate())
	userID := te.node.Generate()
	te.rbac.permissions["shipments.view"] = true

	if !te.engine.Can(ctx, userID, companyID, AbilityUsePermission, Context{Permission: "shipments.view"}) {
		t.Fatal("granted permission must be allowed")
	}
	if te.engine.Can(ctx, userID, companyID, AbilityUsePermission, Context{Permission: "shipments.delete"}) {
		t.Fatal("ungranted permission must be denied")
	}
	if te.engine.Can(ctx, userID, companyID, AbilityUsePermission, Context{}) {
		t.Fatal("empty permission key must be denied")
	}
}

func TestManageStructure(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	companyID := te.createCompany(t, te.node.Generate())
	adminID := te.node.Generate()
	memberID := te.node.Generate()
	te.rbac.administrative[adminID] = true

	if !te.engine.Can(ctx, adminID, companyID, AbilityManageStructure, Context{}) {
		t.Fatal("admin must manage structure")
	}
	if te.engine.Can(ctx, memberID, companyID, AbilityManageStructure, Context{}) {
		t.Fatal("member must not manage structure")
	}
}

func TestUnknownAbilityDenied(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	companyID := te.createCompany(t, te.node.Generate())
	userID := te.node.Generate()

	if te.engine.Can(ctx, userID, companyID, Ability("superpowers"), Context{}) {
		t.Fatal("unknown abilities must be denied")
	}
}

func TestMissingSubjectsDenied(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	companyID := te.createCompany(t, te.node.Generate())

	if te.engine.Can(ctx, 0, companyID, AbilityManageStructure, Context{}) {
		t.Fatal("zero user must be denied")
	}
	if te.engine.Can(ctx, te.node.Generate(), 0, AbilityManageStructure, Context{}) {
		t.Fatal("zero company must be denied")
	}
}

func TestMissingCompanyFailsClosed(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	ghostCompany := te.node.Generate()
	userID := te.node.Generate()

	if te.engine.Can(ctx, userID, ghostCompany, AbilityManageStructure, Context{}) {
		t.Fatal("unknown company must be denied")
	}
}
