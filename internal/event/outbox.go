// Package event implements the transactional outbox used for platform
// notifications. Delivery to subscribers is an external concern; the core
// only records emissions.
package event

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	CompanyCreatedTopic = "company.created"
	ModuleEnabledTopic  = "module.enabled"
	ModuleDisabledTopic = "module.disabled"
)

// PlatformEvent is one outbox row.
type PlatformEvent struct {
	ID        snowflake.ID      `gorm:"primaryKey"`
	CompanyID snowflake.ID      `gorm:"column:company_id;not null;index"`
	EventType string            `gorm:"type:text;not null"`
	Payload   datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	Published bool              `gorm:"not null;default:false"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PlatformEvent) TableName() string { return "platform_events" }

// Publisher records platform events. Implementations must be safe to call
// inside the caller's transaction.
type Publisher interface {
	Publish(ctx context.Context, tx *gorm.DB, companyID snowflake.ID, topic string, payload map[string]any) error
}

type outboxPublisher struct {
	genID *snowflake.Node
}

// NewOutboxPublisher returns a Publisher writing to the platform_events table.
func NewOutboxPublisher(genID *snowflake.Node) Publisher {
	return &outboxPublisher{genID: genID}
}

func (p *outboxPublisher) Publish(ctx context.Context, tx *gorm.DB, companyID snowflake.ID, topic string, payload map[string]any) error {
	record := PlatformEvent{
		ID:        p.genID.Generate(),
		CompanyID: companyID,
		EventType: topic,
		Payload:   datatypes.JSONMap(payload),
		CreatedAt: time.Now().UTC(),
	}
	return tx.WithContext(ctx).Create(&record).Error
}
