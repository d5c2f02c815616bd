package main

import (
	"context"
	"log"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"chicha-platform/pkg/config"
	"chicha-platform/pkg/db"
	"chicha-platform/pkg/logger"
	"chicha-platform/services/catalog"
	"chicha-platform/services/voucher"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	app := fx.New(
		config.Module,
		logger.Module,
		db.Module,
		fx.Provide(provideSnowflakeNode),
		fx.Invoke(seed),
		fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
			return fxevent.NopLogger
		}),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
	_ = app.Stop(context.Background())
}

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

func seed(gdb *gorm.DB, node *snowflake.Node) error {
	if err := gdb.AutoMigrate(&catalog.Product{}, &voucher.Voucher{}, &voucher.VoucherUsage{}); err != nil {
		return err
	}

	products := []catalog.Product{
		{Name: "Casing iPhone 13", Slug: "casing-iphone-13", Category: "aksesoris", Price: decimal.NewFromInt(75000), Stock: 50, IsActive: true},
		{Name: "Tempered Glass Universal", Slug: "tempered-glass-universal", Category: "aksesoris", Price: decimal.NewFromInt(25000), Stock: 100, IsActive: true},
		{Name: "Baterai Samsung A52", Slug: "baterai-samsung-a52", Category: "sparepart", Price: decimal.NewFromInt(150000), Stock: 20, IsActive: true},
		{Name: "LCD Xiaomi Redmi Note 10", Slug: "lcd-xiaomi-redmi-note-10", Category: "sparepart", Price: decimal.NewFromInt(350000), Stock: 10, IsActive: true},
		{Name: "Charger 20W Original", Slug: "charger-20w-original", Category: "aksesoris", Price: decimal.NewFromInt(120000), Stock: 40, IsActive: true},
	}
	for i := range products {
		products[i].ProductID = node.Generate().String()
		if err := gdb.Where(catalog.Product{Slug: products[i].Slug}).
			FirstOrCreate(&products[i]).Error; err != nil {
			return err
		}
	}

	maxDiscount := decimal.NewFromInt(15000)
	vouchers := []voucher.Voucher{
		{
			Code:         "HEMAT10",
			Name:         "Diskon 10%",
			DiscountType: voucher.DiscountPercentage,
			Value:        decimal.NewFromInt(10),
			MinPurchase:  decimal.NewFromInt(50000),
			MaxDiscount:  decimal.NewNullDecimal(maxDiscount),
			Quota:        100,
			ValidFrom:    time.Now(),
			ValidUntil:   time.Now().AddDate(0, 1, 0),
			IsActive:     true,
		},
		{
			Code:         "POTONG20RB",
			Name:         "Potongan Rp20.000",
			DiscountType: voucher.DiscountFixed,
			Value:        decimal.NewFromInt(20000),
			MinPurchase:  decimal.NewFromInt(100000),
			Quota:        50,
			ValidFrom:    time.Now(),
			ValidUntil:   time.Now().AddDate(0, 1, 0),
			IsActive:     true,
		},
	}
	for i := range vouchers {
		vouchers[i].VoucherID = node.Generate().String()
		if err := gdb.Where(voucher.Voucher{Code: vouchers[i].Code}).
			FirstOrCreate(&vouchers[i]).Error; err != nil {
			return err
		}
	}

	zap.L().Info("seed completed",
		zap.Int("products", len(products)),
		zap.Int("vouchers", len(vouchers)),
	)

	return nil
}
