package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shiplane/platform/internal/module/activation/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindCompanyModule(ctx context.Context, db *gorm.DB, companyID snowflake.ID, moduleKey string) (*domain.CompanyModule, error) {
	var record domain.CompanyModule
	err := db.WithContext(ctx).
		Where("company_id = ? AND module_key = ?", companyID, moduleKey).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *repo) ListCompanyModules(ctx context.Context, db *gorm.DB, companyID snowflake.ID) ([]domain.CompanyModule, error) {
	var records []domain.CompanyModule
	if err := db.WithContext(ctx).Where("company_id = ?", companyID).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) SetCompanyModule(ctx context.Context, db *gorm.DB, record *domain.CompanyModule) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "company_id"}, {Name: "module_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"active", "updated_at"}),
	}).Create(record).Error
}

func (r *repo) FindSetting(ctx context.Context, db *gorm.DB, moduleKey string) (*domain.ModuleSetting, error) {
	var setting domain.ModuleSetting
	err := db.WithContext(ctx).Where("module_key = ?", moduleKey).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &setting, nil
}

func (r *repo) ListSettings(ctx context.Context, db *gorm.DB) ([]domain.ModuleSetting, error) {
	var settings []domain.ModuleSetting
	if err := db.WithContext(ctx).Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

func (r *repo) SetSetting(ctx context.Context, db *gorm.DB, setting *domain.ModuleSetting) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "module_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"enabled", "updated_at"}),
	}).Create(setting).Error
}
