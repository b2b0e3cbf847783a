package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/fintegro/bankhook/internal/config"
	"github.com/fintegro/bankhook/internal/migration"
	"github.com/fintegro/bankhook/internal/observability"
	"github.com/fintegro/bankhook/internal/server"
	"github.com/fintegro/bankhook/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
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
