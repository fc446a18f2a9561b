package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindCompanyModule(ctx context.Context, db *gorm.DB, companyID snowflake.ID, moduleKey string) (*CompanyModule, error)
	ListCompanyModules(ctx context.Context, db *gorm.DB, companyID snowflake.ID) ([]CompanyModule, error)
	SetCompanyModule(ctx context.Context, db *gorm.DB, record *CompanyModule) error

	FindSetting(ctx context.Context, db *gorm.DB, moduleKey string) (*ModuleSetting, error)
	ListSettings(ctx context.Context, db *gorm.DB) ([]ModuleSetting, error)
	SetSetting(ctx context.Context, db *gorm.DB, setting *ModuleSetting) error
}
