package activity

import (
	"github.com/Sandeep241003/home-rent-ease/internal/activity/repository"
	"github.com/Sandeep241003/home-rent-ease/internal/activity/service"
	"go.uber.org/fx"
)

var Module = fx.Module("activity.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
