// Package platformsettings holds the single row of installation wide
// settings. The table is intentionally a singleton; reads fail fast when a
// bad migration or manual edit ever produces a second row.
package platformsettings

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shiplane/platform/internal/plan"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrCardinality = errors.New("platform_settings_cardinality")
	ErrInvalidPlan = errors.New("invalid_plan")
)

type PlatformSettings struct {
	ID             snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"id"`
	DefaultPlanKey string       `gorm:"size:32;not null" json:"default_plan_key"`
	SupportEmail   string       `gorm:"size:255" json:"support_email"`
	SignupOpen     bool         `gorm:"not null;default:true" json:"signup_open"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

func (PlatformSettings) TableName() string { return "platform_settings" }

type UpdateRequest struct {
	DefaultPlanKey *string `json:"default_plan_key,omitempty"`
	SupportEmail   *string `json:"support_email,omitempty"`
	SignupOpen     *bool   `json:"signup_open,omitempty"`
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func New(p Params) *Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("platformsettings.service"),
		genID: p.GenID,
	}
}

// Get returns the settings row, creating it with defaults on first use.
func (s *Service) Get(ctx context.Context) (*PlatformSettings, error) {
	var rows []PlatformSettings
	if err := s.db.WithContext(ctx).Limit(2).Find(&rows).Error; err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return s.Ensure(ctx)
	case 1:
		return &rows[0], nil
	default:
		s.log.Error("platform_settings has more than one row")
		return nil, ErrCardinality
	}
}

// Ensure creates the default row if none exists.
func (s *Service) Ensure(ctx context.Context) (*PlatformSettings, error) {
	settings := &PlatformSettings{
		ID:             s.genID.Generate(),
		DefaultPlanKey: plan.KeyStarter,
		SignupOpen:     true,
		UpdatedAt:      time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&PlatformSettings{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 1 {
			return ErrCardinality
		}
		if count == 1 {
			// A fresh destination keeps the generated ID out of the query
			// conditions; gorm treats a non-zero primary key as a filter.
			var existing PlatformSettings
			if err := tx.First(&existing).Error; err != nil {
				return err
			}
			settings = &existing
			return nil
		}
		return tx.Create(settings).Error
	})
	if err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *Service) Update(ctx context.Context, req UpdateRequest) (*PlatformSettings, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	if req.DefaultPlanKey != nil {
		if !plan.Known(*req.DefaultPlanKey) {
			return nil, ErrInvalidPlan
		}
		settings.DefaultPlanKey = *req.DefaultPlanKey
	}
	if req.SupportEmail != nil {
		settings.SupportEmail = *req.SupportEmail
	}
	if req.SignupOpen != nil {
		settings.SignupOpen = *req.SignupOpen
	}
	settings.UpdatedAt = time.Now().UTC()
	if err := s.db.WithContext(ctx).Save(settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

var Module = fx.Module("platformsettings",
	fx.Provide(New),
)
