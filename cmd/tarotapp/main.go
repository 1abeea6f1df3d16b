package main

import (
	"github.com/TAROSUKE-Cyber/tarot-app/internal/config"
	"github.com/TAROSUKE-Cyber/tarot-app/internal/logger"
	"github.com/TAROSUKE-Cyber/tarot-app/internal/migration"
	"github.com/TAROSUKE-Cyber/tarot-app/internal/server"
	"github.com/TAROSUKE-Cyber/tarot-app/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
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
