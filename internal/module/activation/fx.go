package activation

import (
	"github.com/shiplane/platform/internal/module/activation/repository"
	"github.com/shiplane/platform/internal/module/activation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("activation",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
