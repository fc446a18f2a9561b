package platformsettings

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shiplane/platform/internal/plan"
	dbpkg "github.com/shiplane/platform/pkg/db"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (*Service, *snowflake.Node) {
	t.Helper()
	db, err := dbpkg.NewTest()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&PlatformSettings{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	node, err := snowflake.NewNode(5)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return New(Params{DB: db, Log: zap.NewNop(), GenID: node}), node
}

func TestGetCreatesSingleton(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first.DefaultPlanKey != plan.KeyStarter || !first.SignupOpen {
		t.Fatalf("unexpected defaults: %+v", first)
	}

	second, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if first.ID != second.ID {
		t.Fatal("get must not create a second row")
	}
}

func TestEnsureIsIdempotentAcrossRestarts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Ensure(ctx)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}

	// Startup runs Ensure again on every boot; it must return the stored
	// row instead of querying for the freshly generated ID.
	second, err := svc.Ensure(ctx)
	if err != nil {
		t.Fatalf("ensure after restart: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected the existing row %d, got %d", first.ID, second.ID)
	}
}

func TestGetFailsOnDuplicateRows(t *testing.T) {
	svc, node := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Get(ctx); err != nil {
		t.Fatalf("get: %v", err)
	}
	extra := &PlatformSettings{ID: node.Generate(), DefaultPlanKey: plan.KeyPro}
	if err := svc.db.Create(extra).Error; err != nil {
		t.Fatalf("inject duplicate: %v", err)
	}

	if _, err := svc.Get(ctx); !errors.Is(err, ErrCardinality) {
		t.Fatalf("expected cardinality error, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	bogus := "platinum"
	if _, err := svc.Update(ctx, UpdateRequest{DefaultPlanKey: &bogus}); !errors.Is(err, ErrInvalidPlan) {
		t.Fatalf("expected invalid plan, got %v", err)
	}

	pro := plan.KeyPro
	closed := false
	updated, err := svc.Update(ctx, UpdateRequest{DefaultPlanKey: &pro, SignupOpen: &closed})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.DefaultPlanKey != plan.KeyPro || updated.SignupOpen {
		t.Fatalf("update not applied: %+v", updated)
	}
}
