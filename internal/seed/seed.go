// Package seed bootstraps a fresh install: a platform admin account and the
// platform settings row. Seeding is idempotent and safe to run on every
// startup.
package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/shiplane/platform/internal/auth/domain"
	"github.com/shiplane/platform/internal/auth/password"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultAdminEmail    = "admin@shiplane.local"
	defaultAdminPassword = "admin"
	defaultAdminDisplay  = "Shiplane Admin"
)

// MetadataPlatformAdmin marks a user as a platform operator.
const MetadataPlatformAdmin = "platform_admin"

// EnsurePlatformAdmin creates the default admin user for self-hosted mode.
func EnsurePlatformAdmin(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user authdomain.User
		err := tx.WithContext(ctx).
			Where("email = ?", strings.ToLower(defaultAdminEmail)).
			First(&user).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := password.Hash(defaultAdminPassword)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		user = authdomain.User{
			ID:           node.Generate(),
			Email:        strings.ToLower(defaultAdminEmail),
			DisplayName:  defaultAdminDisplay,
			PasswordHash: hashed,
			Metadata:     datatypes.JSONMap{MetadataPlatformAdmin: true},
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.WithContext(ctx).Create(&user).Error
	})
}

// IsPlatformAdmin reports whether a user carries the platform admin flag.
func IsPlatformAdmin(user *authdomain.User) bool {
	if user == nil || user.Metadata == nil {
		return false
	}
	flag, ok := user.Metadata[MetadataPlatformAdmin].(bool)
	return ok && flag
}
