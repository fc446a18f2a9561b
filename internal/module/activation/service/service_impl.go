package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	companydomain "github.com/shiplane/platform/internal/company/domain"
	"github.com/shiplane/platform/internal/event"
	"github.com/shiplane/platform/internal/module/activation/domain"
	"github.com/shiplane/platform/internal/module/catalog"
	moduledomain "github.com/shiplane/platform/internal/module/domain"
	"github.com/shiplane/platform/internal/observability/metrics"
	"github.com/shiplane/platform/internal/plan"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      domain.Repository
	Companies companydomain.Repository
	Catalog   *catalog.Catalog
	Publisher event.Publisher
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	companies companydomain.Repository
	catalog   *catalog.Catalog
	publisher event.Publisher
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("activation.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		companies: p.Companies,
		catalog:   p.Catalog,
		publisher: p.Publisher,
	}
}

func (s *Service) Enable(ctx context.Context, companyID snowflake.ID, moduleKey string) (*domain.ToggleResult, error) {
	moduleKey = strings.TrimSpace(moduleKey)
	if companyID == 0 {
		return nil, domain.ErrInvalidCompany
	}

	manifest, result := s.activatableManifest(moduleKey)
	if result != nil {
		metrics.ModuleToggles.WithLabelValues("enable", result.ErrorCode).Inc()
		return result, nil
	}

	var outcome *domain.ToggleResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Eligibility is decided against rows read inside this transaction
		// so a concurrent availability or plan change cannot be raced past.
		if denied, err := s.checkEligibility(ctx, tx, companyID, manifest); err != nil {
			return err
		} else if denied != nil {
			outcome = denied
			return nil
		}

		now := time.Now().UTC()
		record := &domain.CompanyModule{
			ID:        s.genID.Generate(),
			CompanyID: companyID,
			ModuleKey: manifest.Key,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.SetCompanyModule(ctx, tx, record); err != nil {
			return err
		}
		if err := s.publisher.Publish(ctx, tx, companyID, event.ModuleEnabledTopic, map[string]any{
			"company_id": companyID.String(),
			"module_key": manifest.Key,
		}); err != nil {
			return err
		}
		outcome = domain.SuccessResult(manifest.Key, true)
		return nil
	})
	if err != nil {
		metrics.ModuleToggles.WithLabelValues("enable", "error").Inc()
		return nil, err
	}

	if outcome.Success {
		metrics.ModuleToggles.WithLabelValues("enable", "success").Inc()
		s.log.Info("module enabled",
			zap.String("company_id", companyID.String()),
			zap.String("module_key", manifest.Key),
		)
	} else {
		metrics.ModuleToggles.WithLabelValues("enable", outcome.ErrorCode).Inc()
	}
	return outcome, nil
}

func (s *Service) Disable(ctx context.Context, companyID snowflake.ID, moduleKey string) (*domain.ToggleResult, error) {
	moduleKey = strings.TrimSpace(moduleKey)
	if companyID == 0 {
		return nil, domain.ErrInvalidCompany
	}

	manifest, result := s.activatableManifest(moduleKey)
	if result != nil {
		metrics.ModuleToggles.WithLabelValues("disable", result.ErrorCode).Inc()
		return result, nil
	}

	// Disabling needs no eligibility: a company must always be able to turn
	// a module off, even after losing the plan that allowed enabling it.
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		record := &domain.CompanyModule{
			ID:        s.genID.Generate(),
			CompanyID: companyID,
			ModuleKey: manifest.Key,
			Active:    false,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.SetCompanyModule(ctx, tx, record); err != nil {
			return err
		}
		return s.publisher.Publish(ctx, tx, companyID, event.ModuleDisabledTopic, map[string]any{
			"company_id": companyID.String(),
			"module_key": manifest.Key,
		})
	})
	if err != nil {
		metrics.ModuleToggles.WithLabelValues("disable", "error").Inc()
		return nil, err
	}

	metrics.ModuleToggles.WithLabelValues("disable", "success").Inc()
	s.log.Info("module disabled",
		zap.String("company_id", companyID.String()),
		zap.String("module_key", manifest.Key),
	)
	return domain.SuccessResult(manifest.Key, false), nil
}

// IsActive reports whether a module is usable by a company right now. Core
// and internal modules are always on; addons require the global switch and a
// persisted activation. Failures resolve to false.
func (s *Service) IsActive(ctx context.Context, companyID snowflake.ID, moduleKey string) bool {
	manifest, ok := s.catalog.Lookup(strings.TrimSpace(moduleKey))
	if !ok {
		return false
	}
	if manifest.ImplicitlyActive() {
		return true
	}
	if !manifest.Activatable() || companyID == 0 {
		return false
	}

	setting, err := s.repo.FindSetting(ctx, s.db, manifest.Key)
	if err != nil {
		s.log.Warn("module setting lookup failed", zap.String("module_key", manifest.Key), zap.Error(err))
		return false
	}
	if setting == nil || !setting.Enabled {
		return false
	}

	record, err := s.repo.FindCompanyModule(ctx, s.db, companyID, manifest.Key)
	if err != nil {
		s.log.Warn("company module lookup failed",
			zap.String("company_id", companyID.String()),
			zap.String("module_key", manifest.Key),
			zap.Error(err),
		)
		return false
	}
	return record != nil && record.Active
}

func (s *Service) ListForCompany(ctx context.Context, companyID snowflake.ID) ([]domain.ModuleListItem, error) {
	if companyID == 0 {
		return nil, domain.ErrInvalidCompany
	}

	settings, err := s.repo.ListSettings(ctx, s.db)
	if err != nil {
		return nil, err
	}
	enabled := make(map[string]bool, len(settings))
	for _, setting := range settings {
		enabled[setting.ModuleKey] = setting.Enabled
	}

	records, err := s.repo.ListCompanyModules(ctx, s.db, companyID)
	if err != nil {
		return nil, err
	}
	active := make(map[string]bool, len(records))
	for _, record := range records {
		active[record.ModuleKey] = record.Active
	}

	items := make([]domain.ModuleListItem, 0)
	for _, manifest := range s.catalog.All() {
		if manifest.Scope != moduledomain.ScopeCompany || !manifest.Visible {
			continue
		}
		item := domain.ModuleListItem{
			Key:             manifest.Key,
			Name:            manifest.Name,
			Description:     manifest.Description,
			Type:            string(manifest.Type),
			MinPlan:         manifest.MinPlan,
			Jobdomains:      append([]string(nil), manifest.Jobdomains...),
			GloballyEnabled: enabled[manifest.Key],
			Activatable:     manifest.Activatable(),
		}
		if manifest.ImplicitlyActive() {
			item.GloballyEnabled = true
			item.Active = true
		} else {
			item.Active = enabled[manifest.Key] && active[manifest.Key]
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Service) SetGlobalAvailability(ctx context.Context, moduleKey string, enabled bool) (*domain.ToggleResult, error) {
	moduleKey = strings.TrimSpace(moduleKey)
	manifest, result := s.activatableManifest(moduleKey)
	if result != nil {
		return result, nil
	}

	setting := &domain.ModuleSetting{
		ID:        s.genID.Generate(),
		ModuleKey: manifest.Key,
		Enabled:   enabled,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.repo.SetSetting(ctx, s.db, setting); err != nil {
		return nil, err
	}
	s.log.Info("module availability changed",
		zap.String("module_key", manifest.Key),
		zap.Bool("enabled", enabled),
	)
	return domain.SuccessResult(manifest.Key, enabled), nil
}

func (s *Service) ListGlobalAvailability(ctx context.Context) (map[string]bool, error) {
	settings, err := s.repo.ListSettings(ctx, s.db)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool)
	for _, manifest := range s.catalog.All() {
		if !manifest.Activatable() {
			continue
		}
		out[manifest.Key] = false
	}
	for _, setting := range settings {
		if _, ok := out[setting.ModuleKey]; ok {
			out[setting.ModuleKey] = setting.Enabled
		}
	}
	return out, nil
}

func (s *Service) activatableManifest(moduleKey string) (moduledomain.Manifest, *domain.ToggleResult) {
	manifest, ok := s.catalog.Lookup(moduleKey)
	if !ok {
		return moduledomain.Manifest{}, domain.FailureResult(moduleKey, http.StatusNotFound,
			domain.CodeNotFound, fmt.Sprintf("unknown module %q", moduleKey))
	}
	if !manifest.Activatable() {
		return moduledomain.Manifest{}, domain.FailureResult(manifest.Key, http.StatusConflict,
			domain.CodeNotEligible, fmt.Sprintf("module %q cannot be toggled", manifest.Key))
	}
	return manifest, nil
}

func (s *Service) checkEligibility(ctx context.Context, tx *gorm.DB, companyID snowflake.ID, manifest moduledomain.Manifest) (*domain.ToggleResult, error) {
	setting, err := s.repo.FindSetting(ctx, tx, manifest.Key)
	if err != nil {
		return nil, err
	}
	if setting == nil || !setting.Enabled {
		return domain.FailureResult(manifest.Key, http.StatusConflict,
			domain.CodeGloballyDisabled, fmt.Sprintf("module %q is not available on this platform", manifest.Key)), nil
	}

	company, err := s.companies.FindByID(ctx, tx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrCompanyGone
	}

	if manifest.MinPlan != "" && !plan.MeetsRequirement(company.PlanKey, manifest.MinPlan) {
		return domain.FailureResult(manifest.Key, http.StatusUnprocessableEntity,
			domain.CodePlanInsufficient,
			fmt.Sprintf("module %q requires plan %q or higher", manifest.Key, manifest.MinPlan)), nil
	}

	if len(manifest.Jobdomains) > 0 && !jobdomainsIntersect(manifest.Jobdomains, company.Jobdomains) {
		return domain.FailureResult(manifest.Key, http.StatusUnprocessableEntity,
			domain.CodeJobdomainMismatch,
			fmt.Sprintf("module %q does not apply to this company's jobdomains", manifest.Key)), nil
	}
	return nil, nil
}

func jobdomainsIntersect(required, present []string) bool {
	for _, req := range required {
		for _, have := range present {
			if strings.EqualFold(req, have) {
				return true
			}
		}
	}
	return false
}
