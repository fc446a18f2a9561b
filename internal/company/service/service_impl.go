package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/shiplane/platform/internal/company/domain"
	"github.com/shiplane/platform/internal/config"
	"github.com/shiplane/platform/internal/event"
	"github.com/shiplane/platform/internal/plan"
	rbacdomain "github.com/shiplane/platform/internal/rbac/domain"
	dbpkg "github.com/shiplane/platform/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      domain.Repository
	Roles     rbacdomain.Service
	Publisher event.Publisher
	Runtime   *config.RuntimeConfigHolder `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	roles     rbacdomain.Service
	publisher event.Publisher
	runtime   *config.RuntimeConfigHolder
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("company.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		roles:     p.Roles,
		publisher: p.Publisher,
		runtime:   p.Runtime,
	}
}

func (s *Service) Create(ctx context.Context, ownerID snowflake.ID, req domain.CreateCompanyRequest) (*domain.CompanyResponse, error) {
	if ownerID == 0 {
		return nil, domain.ErrInvalidUser
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	planKey := strings.TrimSpace(req.PlanKey)
	if planKey == "" {
		planKey = s.defaultPlan()
	}
	if !plan.Known(planKey) {
		return nil, domain.ErrInvalidPlan
	}

	jobdomains := make([]string, 0, len(req.Jobdomains))
	for _, jd := range req.Jobdomains {
		if trimmed := strings.ToLower(strings.TrimSpace(jd)); trimmed != "" {
			jobdomains = append(jobdomains, trimmed)
		}
	}

	now := time.Now().UTC()
	company := &domain.Company{
		ID:         s.genID.Generate(),
		Name:       name,
		Slug:       slug.Make(name),
		Status:     domain.StatusActive,
		PlanKey:    planKey,
		Jobdomains: datatypes.NewJSONSlice(jobdomains),
		OwnerID:    ownerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Each attempt runs under a savepoint so a unique violation does
		// not abort the surrounding transaction on postgres.
		insert := func(tx *gorm.DB) error { return s.repo.Create(ctx, tx, company) }
		if err := tx.Transaction(insert); err != nil {
			if !dbpkg.IsDuplicateKeyErr(err) {
				return err
			}
			company.Slug = company.Slug + "-" + company.ID.String()
			if err := tx.Transaction(insert); err != nil {
				return err
			}
		}

		roleIDs, err := s.roles.EnsureCompanyRoles(ctx, tx, company.ID)
		if err != nil {
			return err
		}
		ownerRoleID, ok := roleIDs[rbacdomain.RoleKeyOwner]
		if !ok {
			return rbacdomain.ErrRoleNotFound
		}

		member := &domain.CompanyMember{
			ID:        s.genID.Generate(),
			CompanyID: company.ID,
			UserID:    ownerID,
			RoleID:    &ownerRoleID,
			CreatedAt: now,
		}
		if err := s.repo.AddMember(ctx, tx, member); err != nil {
			return err
		}

		return s.publisher.Publish(ctx, tx, company.ID, event.CompanyCreatedTopic, map[string]any{
			"company_id": company.ID.String(),
			"plan_key":   company.PlanKey,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("company created",
		zap.String("company_id", company.ID.String()),
		zap.String("plan_key", company.PlanKey),
	)
	return s.toResponse(company), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.CompanyResponse, error) {
	companyID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || companyID == 0 {
		return nil, domain.ErrInvalidCompany
	}
	company, err := s.repo.FindByID(ctx, s.db, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	return s.toResponse(company), nil
}

func (s *Service) ListByUser(ctx context.Context, userID snowflake.ID) ([]domain.CompanyListResponseItem, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	items, err := s.repo.ListByUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.CompanyListResponseItem, 0, len(items))
	for _, item := range items {
		resp = append(resp, domain.CompanyListResponseItem{
			ID:        item.ID.String(),
			Name:      item.Name,
			Slug:      item.Slug,
			Status:    item.Status,
			PlanKey:   item.PlanKey,
			CreatedAt: item.CreatedAt,
		})
	}
	return resp, nil
}

func (s *Service) SetStatus(ctx context.Context, id string, status string) error {
	companyID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || companyID == 0 {
		return domain.ErrInvalidCompany
	}
	switch status {
	case domain.StatusActive, domain.StatusSuspended:
	default:
		return domain.ErrInvalidStatus
	}

	company, err := s.repo.FindByID(ctx, s.db, companyID)
	if err != nil {
		return err
	}
	if company == nil {
		return domain.ErrNotFound
	}
	return s.repo.UpdateStatus(ctx, s.db, companyID, status)
}

func (s *Service) ChangePlan(ctx context.Context, id string, planKey string) error {
	companyID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || companyID == 0 {
		return domain.ErrInvalidCompany
	}
	if !plan.Known(planKey) {
		return domain.ErrInvalidPlan
	}

	company, err := s.repo.FindByID(ctx, s.db, companyID)
	if err != nil {
		return err
	}
	if company == nil {
		return domain.ErrNotFound
	}
	return s.repo.UpdatePlan(ctx, s.db, companyID, planKey)
}

func (s *Service) AddMember(ctx context.Context, companyID string, userID string, roleID *string) error {
	parsedCompanyID, err := snowflake.ParseString(strings.TrimSpace(companyID))
	if err != nil || parsedCompanyID == 0 {
		return domain.ErrInvalidCompany
	}
	parsedUserID, err := snowflake.ParseString(strings.TrimSpace(userID))
	if err != nil || parsedUserID == 0 {
		return domain.ErrInvalidUser
	}

	var parsedRoleID *snowflake.ID
	if roleID != nil && strings.TrimSpace(*roleID) != "" {
		resolved, err := s.roles.ResolveRole(ctx, parsedCompanyID, *roleID)
		if err != nil {
			return err
		}
		parsedRoleID = &resolved
	}

	existing, err := s.repo.FindMember(ctx, s.db, parsedCompanyID, parsedUserID)
	if err != nil {
		return err
	}
	if existing != nil {
		return domain.ErrMemberExists
	}

	member := &domain.CompanyMember{
		ID:        s.genID.Generate(),
		CompanyID: parsedCompanyID,
		UserID:    parsedUserID,
		RoleID:    parsedRoleID,
		CreatedAt: time.Now().UTC(),
	}
	return s.repo.AddMember(ctx, s.db, member)
}

func (s *Service) defaultPlan() string {
	if s.runtime != nil {
		if key := strings.TrimSpace(s.runtime.Current().SignupDefaultPlan); key != "" {
			return key
		}
	}
	return plan.KeyStarter
}

func (s *Service) toResponse(company *domain.Company) *domain.CompanyResponse {
	return &domain.CompanyResponse{
		ID:         company.ID.String(),
		Name:       company.Name,
		Slug:       company.Slug,
		Status:     company.Status,
		PlanKey:    company.PlanKey,
		Jobdomains: append([]string(nil), company.Jobdomains...),
		OwnerID:    company.OwnerID.String(),
	}
}
