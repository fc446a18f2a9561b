package event

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shiplane/platform/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupOutboxTest(t *testing.T) (*gorm.DB, Publisher) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&PlatformEvent{}))

	node, err := snowflake.NewNode(5)
	require.NoError(t, err)

	return conn, NewOutboxPublisher(node)
}

func TestPublishWritesOutboxRow(t *testing.T) {
	conn, pub := setupOutboxTest(t)

	companyID := snowflake.ID(42)
	err := conn.Transaction(func(tx *gorm.DB) error {
		return pub.Publish(context.Background(), tx, companyID, ModuleEnabledTopic, map[string]any{
			"module_key": "shipments",
		})
	})
	require.NoError(t, err)

	var events []PlatformEvent
	require.NoError(t, conn.Find(&events).Error)
	require.Len(t, events, 1)

	assert.Equal(t, companyID, events[0].CompanyID)
	assert.Equal(t, ModuleEnabledTopic, events[0].EventType)
	assert.Equal(t, "shipments", events[0].Payload["module_key"])
	assert.False(t, events[0].Published)
	assert.NotZero(t, events[0].ID)
}

func TestPublishRollsBackWithTransaction(t *testing.T) {
	conn, pub := setupOutboxTest(t)

	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := pub.Publish(context.Background(), tx, snowflake.ID(7), CompanyCreatedTopic, map[string]any{}); err != nil {
			return err
		}
		return gorm.ErrInvalidTransaction
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, conn.Model(&PlatformEvent{}).Count(&count).Error)
	assert.Zero(t, count, "rolled back publish must not leave an outbox row")
}
