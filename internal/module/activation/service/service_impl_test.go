package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/bwmarrin/snowflake"
	companydomain "github.com/shiplane/platform/internal/company/domain"
	companyrepo "github.com/shiplane/platform/internal/company/repository"
	"github.com/shiplane/platform/internal/event"
	"github.com/shiplane/platform/internal/module/activation/domain"
	"github.com/shiplane/platform/internal/module/activation/repository"
	"github.com/shiplane/platform/internal/module/catalog"
	"github.com/shiplane/platform/internal/plan"
	dbpkg "github.com/shiplane/platform/pkg/db"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fixture struct {
	svc  *Service
	db   *gorm.DB
	node *snowflake.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := dbpkg.NewTest()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&domain.CompanyModule{},
		&domain.ModuleSetting{},
		&companydomain.Company{},
		&companydomain.CompanyMember{},
		&event.PlatformEvent{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	node, err := snowflake.NewNode(2)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	cat, err := catalog.New(catalog.Builtin())
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}

	svc := New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Repo:      repository.Provide(),
		Companies: companyrepo.Provide(),
		Catalog:   cat,
		Publisher: event.NewOutboxPublisher(node),
	}).(*Service)
	return &fixture{svc: svc, db: db, node: node}
}

func (f *fixture) createCompany(t *testing.T, planKey string, jobdomains ...string) snowflake.ID {
	t.Helper()
	company := &companydomain.Company{
		ID:         f.node.Generate(),
		Name:       "Acme Freight",
		Slug:       "acme-freight-" + f.node.Generate().String(),
		Status:     companydomain.StatusActive,
		PlanKey:    planKey,
		Jobdomains: datatypes.NewJSONSlice(jobdomains),
		OwnerID:    f.node.Generate(),
	}
	if err := f.db.Create(company).Error; err != nil {
		t.Fatalf("create company: %v", err)
	}
	return company.ID
}

func (f *fixture) makeAvailable(t *testing.T, moduleKey string) {
	t.Helper()
	if _, err := f.svc.SetGlobalAvailability(context.Background(), moduleKey, true); err != nil {
		t.Fatalf("set availability: %v", err)
	}
}

func (f *fixture) eventCount(t *testing.T, topic string) int64 {
	t.Helper()
	var count int64
	if err := f.db.Model(&event.PlatformEvent{}).Where("event_type = ?", topic).Count(&count).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	return count
}

func TestEnableUnknownModule(t *testing.T) {
	f := newFixture(t)
	companyID := f.createCompany(t, plan.KeyStarter)

	res, err := f.svc.Enable(context.Background(), companyID, "telemetry")
	if err != nil {
		t.Fatalf("enable: %v", err)
	}
	if res.Success || res.Status != http.StatusNotFound || res.ErrorCode != domain.CodeNotFound {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestEnableNonAddonModule(t *testing.T) {
	f := newFixture(t)
	companyID := f.createCompany(t, plan.KeyStarter)

	// core and internal modules are never toggleable
	for _, key := range []string{"company", "platformadmin"} {
		res, err := f.svc.Enable(context.Background(), companyID, key)
		if err != nil {
			t.Fatalf("enable %s: %v", key, err)
		}
		if res.Status != http.StatusConflict || res.ErrorCode != domain.CodeNotEligible {
			t.Fatalf("expected not_eligible for %s, got %+v", key, res)
		}
	}
}

func TestEnableGloballyDisabled(t *testing.T) {
	f := newFixture(t)
	companyID := f.createCompany(t, plan.KeyStarter, "freight")

	res, err := f.svc.Enable(context.Background(), companyID, "shipments")
	if err != nil {
		t.Fatalf("enable: %v", err)
	}
	if res.Success || res.Status != http.StatusConflict || res.ErrorCode != domain.CodeGloballyDisabled {
		t.Fatalf("expected globally_disabled, got %+v", res)
	}
	if f.svc.IsActive(context.Background(), companyID, "shipments") {
		t.Fatal("failed enable must not activate")
	}
}

func TestEnablePlanInsufficient(t *testing.T) {
	f := newFixture(t)
	f.makeAvailable(t, "fleet")
	companyID := f.createCompany(t, plan.KeyStarter, "freight")

	res, err := f.svc.Enable(context.Background(), companyID, "fleet")
	if err != nil {
		t.Fatalf("enable: %v", err)
	}
	if res.Status != http.StatusUnprocessableEntity || res.ErrorCode != domain.CodePlanInsufficient {
		t.Fatalf("expected plan_insufficient, got %+v", res)
	}

	// upgrading the plan unlocks the same toggle
	if err := f.db.Model(&companydomain.Company{}).Where("id = ?", companyID).
		Update("plan_key", plan.KeyPro).Error; err != nil {
		t.Fatalf("upgrade plan: %v", err)
	}
	res, err = f.svc.Enable(context.Background(), companyID, "fleet")
	if err != nil {
		t.Fatalf("enable after upgrade: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success after upgrade, got %+v", res)
	}
}

func TestEnableJobdomainMismatch(t *testing.T) {
	f := newFixture(t)
	f.makeAvailable(t, "warehousing")
	companyID := f.createCompany(t, plan.KeyBusiness, "courier")

	res, err := f.svc.Enable(context.Background(), companyID, "warehousing")
	if err != nil {
		t.Fatalf("enable: %v", err)
	}
	if res.Status != http.StatusUnprocessableEntity || res.ErrorCode != domain.CodeJobdomainMismatch {
		t.Fatalf("expected jobdomain_mismatch, got %+v", res)
	}
}

func TestEnableDisableRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.makeAvailable(t, "shipments")
	companyID := f.createCompany(t, plan.KeyStarter, "freight")
	ctx := context.Background()

	if f.svc.IsActive(ctx, companyID, "shipments") {
		t.Fatal("addon must start inactive")
	}

	res, err := f.svc.Enable(ctx, companyID, "shipments")
	if err != nil || !res.Success {
		t.Fatalf("enable: res=%+v err=%v", res, err)
	}
	if !f.svc.IsActive(ctx, companyID, "shipments") {
		t.Fatal("expected active after enable")
	}
	if got := f.eventCount(t, event.ModuleEnabledTopic); got != 1 {
		t.Fatalf("expected 1 enabled event, got %d", got)
	}

	res, err = f.svc.Disable(ctx, companyID, "shipments")
	if err != nil || !res.Success {
		t.Fatalf("disable: res=%+v err=%v", res, err)
	}
	if f.svc.IsActive(ctx, companyID, "shipments") {
		t.Fatal("expected inactive after disable")
	}
}

func TestDisableIdempotent(t *testing.T) {
	f := newFixture(t)
	f.makeAvailable(t, "shipments")
	companyID := f.createCompany(t, plan.KeyStarter, "freight")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := f.svc.Disable(ctx, companyID, "shipments")
		if err != nil || !res.Success {
			t.Fatalf("disable #%d: res=%+v err=%v", i+1, res, err)
		}
	}
	if f.svc.IsActive(ctx, companyID, "shipments") {
		t.Fatal("expected inactive")
	}
	if got := f.eventCount(t, event.ModuleDisabledTopic); got != 2 {
		t.Fatalf("expected 2 disabled events, got %d", got)
	}
}

func TestDisableAllowedAfterPlanDowngrade(t *testing.T) {
	f := newFixture(t)
	f.makeAvailable(t, "fleet")
	companyID := f.createCompany(t, plan.KeyPro, "freight")
	ctx := context.Background()

	if res, err := f.svc.Enable(ctx, companyID, "fleet"); err != nil || !res.Success {
		t.Fatalf("enable: res=%+v err=%v", res, err)
	}
	if err := f.db.Model(&companydomain.Company{}).Where("id = ?", companyID).
		Update("plan_key", plan.KeyStarter).Error; err != nil {
		t.Fatalf("downgrade: %v", err)
	}

	res, err := f.svc.Disable(ctx, companyID, "fleet")
	if err != nil || !res.Success {
		t.Fatalf("disable after downgrade: res=%+v err=%v", res, err)
	}
}

func TestGlobalOverrideMasksActivation(t *testing.T) {
	f := newFixture(t)
	f.makeAvailable(t, "shipments")
	companyID := f.createCompany(t, plan.KeyStarter, "freight")
	ctx := context.Background()

	if res, err := f.svc.Enable(ctx, companyID, "shipments"); err != nil || !res.Success {
		t.Fatalf("enable: res=%+v err=%v", res, err)
	}

	if _, err := f.svc.SetGlobalAvailability(ctx, "shipments", false); err != nil {
		t.Fatalf("revoke availability: %v", err)
	}
	if f.svc.IsActive(ctx, companyID, "shipments") {
		t.Fatal("global off must mask per company activation")
	}

	// re-enabling availability restores the persisted state untouched
	if _, err := f.svc.SetGlobalAvailability(ctx, "shipments", true); err != nil {
		t.Fatalf("restore availability: %v", err)
	}
	if !f.svc.IsActive(ctx, companyID, "shipments") {
		t.Fatal("persisted activation must survive a global off/on cycle")
	}
}

func TestImplicitModulesAlwaysActive(t *testing.T) {
	f := newFixture(t)
	companyID := f.createCompany(t, plan.KeyStarter)
	ctx := context.Background()

	if !f.svc.IsActive(ctx, companyID, "company") {
		t.Fatal("core module must be implicitly active")
	}
	if !f.svc.IsActive(ctx, companyID, "platformadmin") {
		t.Fatal("internal module must be implicitly active")
	}
	if f.svc.IsActive(ctx, companyID, "nope") {
		t.Fatal("unknown module must be inactive")
	}
}

func TestListForCompany(t *testing.T) {
	f := newFixture(t)
	f.makeAvailable(t, "shipments")
	companyID := f.createCompany(t, plan.KeyStarter, "freight")
	ctx := context.Background()

	if res, err := f.svc.Enable(ctx, companyID, "shipments"); err != nil || !res.Success {
		t.Fatalf("enable: res=%+v err=%v", res, err)
	}

	items, err := f.svc.ListForCompany(ctx, companyID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	byKey := make(map[string]domain.ModuleListItem, len(items))
	for _, item := range items {
		byKey[item.Key] = item
	}

	if item := byKey["shipments"]; !item.Active || !item.GloballyEnabled || !item.Activatable {
		t.Fatalf("unexpected shipments item: %+v", item)
	}
	if item := byKey["fleet"]; item.Active || item.GloballyEnabled {
		t.Fatalf("unexpected fleet item: %+v", item)
	}
	if item := byKey["company"]; !item.Active || item.Activatable {
		t.Fatalf("unexpected company item: %+v", item)
	}
	if _, ok := byKey["platformadmin"]; ok {
		t.Fatal("platform scoped modules must not appear in a company listing")
	}
}
