package auth

import (
	"github.com/shiplane/platform/internal/auth/service"
	"github.com/shiplane/platform/internal/auth/session"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(service.New),
	fx.Provide(session.NewManager),
)
