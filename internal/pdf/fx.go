package pdf

import "go.uber.org/fx"

var Module = fx.Module("pdf",
	fx.Provide(
		fx.Annotate(NewGenerator, fx.As(new(Provider))),
	),
)
