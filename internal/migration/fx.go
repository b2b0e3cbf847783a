package migration

import (
	"github.com/fintegro/bankhook/internal/config"
	orgdomain "github.com/fintegro/bankhook/internal/organization/domain"
	paymentdomain "github.com/fintegro/bankhook/internal/payment/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// Non-postgres stores run from the model definitions; the
			// versioned SQL path is postgres-only.
			return conn.AutoMigrate(
				&orgdomain.Organization{},
				&paymentdomain.Payment{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}

		return RunMigrations(sqlDB)
	}),
)
