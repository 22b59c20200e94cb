package migration

import (
	activitydomain "github.com/Sandeep241003/home-rent-ease/internal/activity/domain"
	"github.com/Sandeep241003/home-rent-ease/internal/config"
	ledgerdomain "github.com/Sandeep241003/home-rent-ease/internal/ledger/domain"
	roomdomain "github.com/Sandeep241003/home-rent-ease/internal/room/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// mysql/sqlite are dev conveniences; let gorm build the schema.
			return conn.AutoMigrate(
				&roomdomain.Room{},
				&ledgerdomain.RentEntry{},
				&ledgerdomain.ElectricityReading{},
				&ledgerdomain.Payment{},
				&activitydomain.ActivityLog{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
