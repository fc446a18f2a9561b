package migration

import (
	"context"

	authdomain "github.com/shiplane/platform/internal/auth/domain"
	companydomain "github.com/shiplane/platform/internal/company/domain"
	"github.com/shiplane/platform/internal/config"
	"github.com/shiplane/platform/internal/event"
	activationdomain "github.com/shiplane/platform/internal/module/activation/domain"
	"github.com/shiplane/platform/internal/platformsettings"
	rbacdomain "github.com/shiplane/platform/internal/rbac/domain"
	"github.com/shiplane/platform/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, rbac rbacdomain.Service, settings *platformsettings.Service) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := Run(sqlDB); err != nil {
				return err
			}
		} else {
			// sqlite and mysql installs fall back to model driven schema
			if err := conn.AutoMigrate(
				&authdomain.User{},
				&authdomain.Session{},
				&companydomain.Company{},
				&companydomain.CompanyMember{},
				&rbacdomain.Role{},
				&rbacdomain.Permission{},
				&activationdomain.CompanyModule{},
				&activationdomain.ModuleSetting{},
				&platformsettings.PlatformSettings{},
				&event.PlatformEvent{},
			); err != nil {
				return err
			}
		}

		ctx := context.Background()
		if err := rbac.SyncPermissions(ctx); err != nil {
			return err
		}
		if _, err := settings.Ensure(ctx); err != nil {
			return err
		}
		return seed.EnsurePlatformAdmin(conn)
	}),
)
