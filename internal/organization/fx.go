package organization

import (
	"github.com/fintegro/bankhook/internal/organization/repository"
	"github.com/fintegro/bankhook/internal/organization/service"
	"go.uber.org/fx"
)

var Module = fx.Module("organization.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
