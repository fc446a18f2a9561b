package rbac

import (
	"github.com/shiplane/platform/internal/rbac/repository"
	"github.com/shiplane/platform/internal/rbac/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rbac",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
