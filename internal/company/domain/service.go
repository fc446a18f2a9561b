package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, ownerID snowflake.ID, req CreateCompanyRequest) (*CompanyResponse, error)
	GetByID(ctx context.Context, id string) (*CompanyResponse, error)
	ListByUser(ctx context.Context, userID snowflake.ID) ([]CompanyListResponseItem, error)
	SetStatus(ctx context.Context, id string, status string) error
	ChangePlan(ctx context.Context, id string, planKey string) error
	AddMember(ctx context.Context, companyID string, userID string, roleID *string) error
}

type CreateCompanyRequest struct {
	Name       string
	Jobdomains []string
	PlanKey    string
}

type CompanyResponse struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Slug       string   `json:"slug"`
	Status     string   `json:"status"`
	PlanKey    string   `json:"plan_key"`
	Jobdomains []string `json:"jobdomains"`
	OwnerID    string   `json:"owner_id"`
}

type CompanyListResponseItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Status    string    `json:"status"`
	PlanKey   string    `json:"plan_key"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidCompany = errors.New("invalid_company")
	ErrInvalidUser    = errors.New("invalid_user")
	ErrInvalidStatus  = errors.New("invalid_status")
	ErrInvalidPlan    = errors.New("invalid_plan")
	ErrNotFound       = errors.New("not_found")
	ErrMemberExists   = errors.New("member_exists")
)
