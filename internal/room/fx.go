package room

import (
	"github.com/Sandeep241003/home-rent-ease/internal/room/repository"
	"github.com/Sandeep241003/home-rent-ease/internal/room/service"
	"go.uber.org/fx"
)

var Module = fx.Module("room.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
