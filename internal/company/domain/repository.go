package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type CompanyListItem struct {
	ID        snowflake.ID
	Name      string
	Slug      string
	Status    string
	PlanKey   string
	CreatedAt time.Time
}

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, company *Company) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Company, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]CompanyListItem, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status string) error
	UpdatePlan(ctx context.Context, db *gorm.DB, id snowflake.ID, planKey string) error

	AddMember(ctx context.Context, db *gorm.DB, member *CompanyMember) error
	FindMember(ctx context.Context, db *gorm.DB, companyID, userID snowflake.ID) (*CompanyMember, error)
	SetMemberRole(ctx context.Context, db *gorm.DB, companyID, userID snowflake.ID, roleID *snowflake.ID) error
	CountMembersWithRole(ctx context.Context, db *gorm.DB, roleID snowflake.ID) (int64, error)
}
