package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shiplane/platform/internal/observability"
	"github.com/shiplane/platform/internal/server"
	"github.com/shiplane/platform/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,

		// HTTP surface plus every feature module it serves
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
