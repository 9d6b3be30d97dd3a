package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bank_automation/application/bankapp"
	"bank_automation/application/reconciler"
	"bank_automation/application/screen"
	"bank_automation/domain/entities"
	"bank_automation/domain/interfaces"
	"bank_automation/infrastructure/adb"
	"bank_automation/infrastructure/feeds"
	"bank_automation/infrastructure/ocr"
	"bank_automation/infrastructure/pricefeed"
	"bank_automation/infrastructure/security"
	"bank_automation/infrastructure/storage"
	"bank_automation/internal/config"
	"bank_automation/presentation/httpapi"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using environment variables")
	}

	// Setup logger
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("failed to load configuration")
	}

	device := adb.NewController(cfg.Device.ADBPath, cfg.Device.Serial, logger)

	var ocrService interfaces.OCR
	if cfg.OCR.URL != "" {
		ocrService = ocr.NewClient(cfg.OCR.URL)
	}

	locatorCfg := screen.DefaultConfig()
	locatorCfg.UseOCR = cfg.App.UseOCR
	locator := screen.NewLocatorWithConfig(device, ocrService, logger, locatorCfg)

	appCfg := bankapp.DefaultConfig()
	appCfg.Package = cfg.App.Package
	appCfg.Activity = cfg.App.Activity
	appCfg.PIN = cfg.Device.PIN
	if cfg.App.HomeMarker != "" {
		appCfg.HomeMarker = cfg.App.HomeMarker
	}
	if cfg.App.WidgetTapX > 0 {
		appCfg.WidgetTapX = cfg.App.WidgetTapX
	}
	if cfg.App.ScrollAttempts > 0 {
		appCfg.ScrollAttempts = cfg.App.ScrollAttempts
	}
	appCfg.Transactions.IncomeLabel = cfg.App.IncomeLabel
	client := bankapp.NewClientWithConfig(device, locator, logger, appCfg)

	managerCfg := reconciler.DefaultConfig()
	managerCfg.APIAccounts = cfg.APIAccounts
	managerCfg.Threshold = decimal.NewFromFloat(cfg.Reconcile.Threshold)
	managerCfg.Cooldown = time.Duration(cfg.Timing.CooldownMinutes) * time.Minute
	managerCfg.StartHour = cfg.Timing.StartHour
	managerCfg.Timezone = cfg.Timing.Timezone
	if cfg.Reconcile.Label != "" {
		managerCfg.CorrectionLabel = cfg.Reconcile.Label
	}
	if cfg.Reconcile.Category != "" {
		managerCfg.CorrectionCategory = cfg.Reconcile.Category
	}
	for name, va := range cfg.VirtualAccounts {
		managerCfg.VirtualAccounts = append(managerCfg.VirtualAccounts, entities.VirtualAccount{
			Name:            name,
			DataURL:         va.DataURL,
			BalanceKeyPath:  va.BalanceKeyPath,
			ForeignCurrency: va.ForeignCurrency,
		})
	}

	guard := security.NewLimitGuard(decimal.NewFromFloat(cfg.Reconcile.MaxCorrection), logger)

	manager := reconciler.NewManager(
		managerCfg,
		client,
		feeds.NewJSONFeed(),
		pricefeed.NewBinanceFeed(),
		guard,
		storage.NewBalanceStore(),
		logger,
	)

	scheduler, err := manager.StartScheduler()
	if err != nil {
		logger.WithError(err).Fatal("failed to start scheduler")
	}
	defer scheduler.Stop()

	server := httpapi.NewServer(manager, logger)
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := server.Start(addr); err != nil {
			logger.WithError(err).Fatal("http server failed")
		}
	}()

	if len(os.Args) > 1 && os.Args[1] == "force_update" {
		logger.Info("force update requested on startup")
		if err := manager.RequestUpdate(false); err != nil {
			logger.WithError(err).Warn("startup update not granted")
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("shutdown failed")
	}
}
