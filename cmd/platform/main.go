package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"chicha-platform/pkg/config"
	"chicha-platform/pkg/db"
	"chicha-platform/pkg/health"
	"chicha-platform/pkg/logger"
	"chicha-platform/pkg/middleware"
	"chicha-platform/pkg/redis"
	"chicha-platform/pkg/sequence"
	"chicha-platform/pkg/server"
	"chicha-platform/pkg/task"
	"chicha-platform/services/booking"
	"chicha-platform/services/catalog"
	"chicha-platform/services/notification"
	"chicha-platform/services/order"
	"chicha-platform/services/payment"
	"chicha-platform/services/target"
	"chicha-platform/services/voucher"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		sequence.Module,
		middleware.Module,
		health.Module,
		task.Client,
		task.Server,
		fx.Provide(provideSnowflakeNode),
		fx.Invoke(autoMigrate),

		catalog.Module,
		voucher.Module,
		notification.Module,
		notification.Worker,
		target.Module,
		target.Worker,
		order.Module,
		payment.Module,
		booking.Module,

		server.ProvideHTTPServer,
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

func autoMigrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&catalog.Product{},
		&voucher.Voucher{},
		&voucher.VoucherUsage{},
		&order.Order{},
		&order.OrderItem{},
		&payment.PaymentEvent{},
		&target.Target{},
		&notification.Notification{},
		&booking.RepairBooking{},
	)
}
