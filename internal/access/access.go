// Package access is the single decision point for "can this user do this
// here". Every surface, permission and structure check funnels through Can;
// callers never combine the underlying resolvers themselves.
package access

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	companydomain "github.com/shiplane/platform/internal/company/domain"
	activationdomain "github.com/shiplane/platform/internal/module/activation/domain"
	moduledomain "github.com/shiplane/platform/internal/module/domain"
	"github.com/shiplane/platform/internal/observability/metrics"
	rbacdomain "github.com/shiplane/platform/internal/rbac/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Ability is the closed set of questions the engine answers. Anything else
// is denied.
type Ability string

const (
	AbilityUseModule       Ability = "use-module"
	AbilityAccessSurface   Ability = "access-surface"
	AbilityUsePermission   Ability = "use-permission"
	AbilityManageStructure Ability = "manage-structure"
)

// Context carries the subject of a single decision. Exactly one field is
// meaningful per ability.
type Context struct {
	Module     string
	Surface    string
	Permission string
}

// Engine decides access questions. It never returns errors; any failed
// lookup resolves to a denial.
type Engine interface {
	Can(ctx context.Context, userID, companyID snowflake.ID, ability Ability, in Context) bool
}

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Activation activationdomain.Service
	RBAC       rbacdomain.Service
	Companies  companydomain.Repository
}

type engine struct {
	db         *gorm.DB
	log        *zap.Logger
	activation activationdomain.Service
	rbac       rbacdomain.Service
	companies  companydomain.Repository
}

func New(p Params) Engine {
	return &engine{
		db:         p.DB,
		log:        p.Log.Named("access.engine"),
		activation: p.Activation,
		rbac:       p.RBAC,
		companies:  p.Companies,
	}
}

// Can evaluates an ability with fixed precedence. Module activation is
// checked first and is never bypassed, not even for the company owner; the
// owner shortcut applies to everything after it.
func (e *engine) Can(ctx context.Context, userID, companyID snowflake.ID, ability Ability, in Context) bool {
	allowed := e.decide(ctx, userID, companyID, ability, in)

	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	metrics.AccessDecisions.WithLabelValues(string(ability), outcome).Inc()
	return allowed
}

func (e *engine) decide(ctx context.Context, userID, companyID snowflake.ID, ability Ability, in Context) bool {
	if userID == 0 || companyID == 0 {
		return false
	}

	if ability == AbilityUseModule {
		if strings.TrimSpace(in.Module) == "" {
			return false
		}
		return e.activation.IsActive(ctx, companyID, in.Module)
	}

	if e.isOwner(ctx, userID, companyID) {
		return true
	}

	switch ability {
	case AbilityAccessSurface:
		if in.Surface != string(moduledomain.SurfaceStructure) {
			return true
		}
		return e.rbac.IsAdministrative(ctx, userID, companyID)
	case AbilityUsePermission:
		if strings.TrimSpace(in.Permission) == "" {
			return false
		}
		return e.rbac.HasPermission(ctx, userID, companyID, in.Permission)
	case AbilityManageStructure:
		return e.rbac.IsAdministrative(ctx, userID, companyID)
	default:
		return false
	}
}

func (e *engine) isOwner(ctx context.Context, userID, companyID snowflake.ID) bool {
	company, err := e.companies.FindByID(ctx, e.db, companyID)
	if err != nil {
		e.log.Warn("owner lookup failed",
			zap.String("company_id", companyID.String()),
			zap.Error(err),
		)
		return false
	}
	return company != nil && company.OwnerID == userID
}
