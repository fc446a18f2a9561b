package company

import (
	"github.com/shiplane/platform/internal/company/repository"
	"github.com/shiplane/platform/internal/company/service"
	"go.uber.org/fx"
)

var Module = fx.Module("company",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
