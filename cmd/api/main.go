package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mealmates/internal/config"
	"mealmates/internal/handler"
	"mealmates/internal/infra/db"
	"mealmates/internal/infra/notify"
	"mealmates/internal/infra/payment"
	infraRepo "mealmates/internal/infra/repository"
	"mealmates/internal/server"
	"mealmates/internal/settings"
	"mealmates/internal/usecase"
	"mealmates/internal/validator"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	historyRefreshInterval = time.Minute
	cartSweepInterval      = 5 * time.Minute
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func main() {
	config.LoadDotEnv(".env", "../.env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	setupLogger(cfg)

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}

	//Repository（GORM実装）生成
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	menuRepo := infraRepo.NewMenuGormRepository(gormDB)
	cartStore := infraRepo.NewCartStoreGorm(gormDB)
	settingsRepo := infraRepo.NewSettingsGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}

	bootstrap, err := loadBootstrapSettings(cfg.SettingsFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.SettingsFile).Msg("settings file")
	}
	settingsSvc := usecase.NewSettingsService(settingsRepo, auditRepo, clock, bootstrap)

	//通知（RabbitMQが無ければログ）
	var notifier usecase.Notifier = notify.NewLogNotifier(log.Logger)
	if cfg.RabbitMQURL != "" {
		mq, err := notify.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			log.Fatal().Err(err).Msg("rabbitmq connect")
		}
		defer mq.Close()
		notifier = mq
	}

	history := usecase.NewOrderHistory(orderRepo)
	views := usecase.NewOrderViewTracker()
	urgency := usecase.NewUrgencyNotifier(notifier, views, settingsSvc, clock)
	history.OnRefresh(urgency.HandleRefresh)

	var payments usecase.PaymentGateway
	if cfg.PaymentSecretKey != "" {
		payments = payment.NewClient(cfg.PaymentAPIURL, cfg.PaymentSecretKey, cfg.PaymentCurrency)
	}

	//Usecase生成
	carts := usecase.NewCartRegistry(cartStore, clock, usecase.DefaultCartIdleTTL)
	cartUC := usecase.NewCartUsecase(carts, menuRepo, orderRepo)
	checkoutUC := usecase.NewCheckoutUsecase(settingsSvc, payments, orderRepo, history, idGen, clock)
	orderUC := usecase.NewOrderUsecase(orderRepo)
	adminUC := usecase.NewAdminOrderUsecase(
		txm, orderRepo, menuRepo, auditRepo, history, settingsSvc,
		validator.NewOrderValidator(), idGen, clock,
	)
	logisticsUC := usecase.NewLogisticsUsecase(settingsSvc, clock)
	auditUC := usecase.NewAuditLogUsecase(auditRepo)
	tickers := usecase.NewLiveTickerRegistry(adminUC, clock, 0)

	//Handler生成
	e := server.New(cfg, server.Handlers{
		Cart:       handler.NewCartHandler(cartUC),
		Checkout:   handler.NewCheckoutHandler(cartUC, checkoutUC),
		Orders:     handler.NewOrderHandler(orderUC),
		AdminOrder: handler.NewAdminOrderHandler(adminUC, tickers, views),
		Settings:   handler.NewSettingsHandler(settingsSvc),
		Logistics:  handler.NewLogisticsHandler(logisticsUC),
		AuditLogs:  handler.NewAuditLogHandler(auditUC),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx, e, listenAddr(cfg.Port))
	})
	g.Go(func() error {
		<-gctx.Done()
		// SSEの接続はShutdownでは切れないので先にtickerを止める
		tickers.StopAll()
		return nil
	})
	g.Go(func() error {
		// 誰も操作しなくても待ち時間の通知が出るように定期的に読み直す
		t := time.NewTicker(historyRefreshInterval)
		defer t.Stop()
		for {
			if err := history.Refresh(gctx); err != nil && gctx.Err() == nil {
				log.Warn().Err(err).Msg("order history refresh failed")
			}
			select {
			case <-gctx.Done():
				return nil
			case <-t.C:
			}
		}
	})

	g.Go(func() error {
		// 放置されたカートはメモリから外す（DBには残る）
		t := time.NewTicker(cartSweepInterval)
		defer t.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-t.C:
				if n := carts.Sweep(); n > 0 {
					log.Debug().Int("evicted", n).Msg("idle carts evicted")
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
	log.Info().Msg("server exited")
}

func setupLogger(cfg config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.IsDev() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func loadBootstrapSettings(path string) (settings.Schema, error) {
	if path == "" {
		return settings.Defaults(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return settings.Schema{}, err
	}
	return settings.ParseYAML(data)
}

func listenAddr(port string) string {
	if port != "" && port[0] == ':' {
		return port
	}
	return ":" + port
}
