package ledger

import (
	"github.com/Sandeep241003/home-rent-ease/internal/ledger/repository"
	"github.com/Sandeep241003/home-rent-ease/internal/ledger/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ledger.service",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
