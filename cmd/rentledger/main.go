package main

import (
	"github.com/Sandeep241003/home-rent-ease/internal/clock"
	"github.com/Sandeep241003/home-rent-ease/internal/config"
	"github.com/Sandeep241003/home-rent-ease/internal/lock"
	"github.com/Sandeep241003/home-rent-ease/internal/migration"
	"github.com/Sandeep241003/home-rent-ease/internal/observability"
	"github.com/Sandeep241003/home-rent-ease/internal/scheduler"
	"github.com/Sandeep241003/home-rent-ease/internal/server"
	"github.com/Sandeep241003/home-rent-ease/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		fx.Provide(
			config.Load,
			config.NewPolicyConfigHolder,
			registerSnowflake,
		),
		observability.Module,
		db.Module,
		clock.Module,
		lock.Module,
		migration.Module,
		scheduler.Module,
		server.Module,
	)
	app.Run()
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
