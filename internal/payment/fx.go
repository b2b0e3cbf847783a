package payment

import (
	"github.com/fintegro/bankhook/internal/payment/repository"
	"github.com/fintegro/bankhook/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
