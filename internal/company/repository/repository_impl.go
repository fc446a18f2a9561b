package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shiplane/platform/internal/company/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, company *domain.Company) error {
	return db.WithContext(ctx).Create(company).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Company, error) {
	var company domain.Company
	err := db.WithContext(ctx).Where("id = ?", id).First(&company).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]domain.CompanyListItem, error) {
	var items []domain.CompanyListItem
	err := db.WithContext(ctx).Raw(
		`SELECT c.id, c.name, c.slug, c.status, c.plan_key, c.created_at
		 FROM companies c
		 JOIN company_members m ON m.company_id = c.id
		 WHERE m.user_id = ?
		 ORDER BY c.created_at`,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE companies SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status,
		id,
	).Error
}

func (r *repo) UpdatePlan(ctx context.Context, db *gorm.DB, id snowflake.ID, planKey string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE companies SET plan_key = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		planKey,
		id,
	).Error
}

func (r *repo) AddMember(ctx context.Context, db *gorm.DB, member *domain.CompanyMember) error {
	return db.WithContext(ctx).Create(member).Error
}

func (r *repo) FindMember(ctx context.Context, db *gorm.DB, companyID, userID snowflake.ID) (*domain.CompanyMember, error) {
	var member domain.CompanyMember
	err := db.WithContext(ctx).
		Where("company_id = ? AND user_id = ?", companyID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *repo) SetMemberRole(ctx context.Context, db *gorm.DB, companyID, userID snowflake.ID, roleID *snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&domain.CompanyMember{}).
		Where("company_id = ? AND user_id = ?", companyID, userID).
		Update("role_id", roleID).Error
}

func (r *repo) CountMembersWithRole(ctx context.Context, db *gorm.DB, roleID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.CompanyMember{}).
		Where("role_id = ?", roleID).
		Count(&count).Error
	return count, err
}
