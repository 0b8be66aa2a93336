package main

import (
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/viper"

	"github.com/go-playground/validator/v10"
	"github.com/octans/marketplace/base/ctx"
	"github.com/octans/marketplace/base/log"
	"github.com/octans/marketplace/base/priceformat"
	bValidator "github.com/octans/marketplace/base/validator"
	"github.com/octans/marketplace/domain"
	"github.com/octans/marketplace/domain/fee"
	mmiddleware "github.com/octans/marketplace/middleware"
	"github.com/octans/marketplace/service/ledger"
	asset_delivery "github.com/octans/marketplace/stores/asset/delivery/http"
	asset_repository "github.com/octans/marketplace/stores/asset/repository"
	auction_delivery "github.com/octans/marketplace/stores/auction/delivery/http"
	auction_repository "github.com/octans/marketplace/stores/auction/repository"
	auction_usecase "github.com/octans/marketplace/stores/auction/usecase"
	fee_delivery "github.com/octans/marketplace/stores/fee/delivery/http"
	hc_delivery "github.com/octans/marketplace/stores/healthcheck/delivery/http"
	hc_repo "github.com/octans/marketplace/stores/healthcheck/repository"
	hc_usecase "github.com/octans/marketplace/stores/healthcheck/usecase"
	journal_delivery "github.com/octans/marketplace/stores/journal/delivery/http"
	journal_repository "github.com/octans/marketplace/stores/journal/repository"
	journal_usecase "github.com/octans/marketplace/stores/journal/usecase"
	ledger_delivery "github.com/octans/marketplace/stores/ledger/delivery/http"
	marketplace_delivery "github.com/octans/marketplace/stores/marketplace/delivery/http"
	marketplace_repository "github.com/octans/marketplace/stores/marketplace/repository"
	marketplace_usecase "github.com/octans/marketplace/stores/marketplace/usecase"
	paytoken_delivery "github.com/octans/marketplace/stores/paytoken/delivery/http"
	paytoken_repository "github.com/octans/marketplace/stores/paytoken/repository"
)

func init() {
	viper.SetConfigType("yaml")
	viper.SetConfigFile(`configs/config.yaml`)
	err := viper.ReadInConfig()
	if err != nil {
		panic(err)
	}

	if viper.GetBool(`debug`) {
		log.Init(true)
		log.Log().Info("Service RUN on DEBUG mode")
	}
}

func main() {
	// init echo
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{}))
	e.Use(middleware.RequestID())
	middL := mmiddleware.InitMiddleware()
	e.Use(middL.ResponseLogger())
	e.Use(middL.AddContext())
	e.Use(middleware.CORS())
	e.Validator = bValidator.NewCustomValidator(validator.New())

	context := ctx.Background()

	mmiddleware.SetupCache(viper.GetInt("cache.sizeMB"))

	// fee policy
	policy, err := fee.NewPolicy(
		viper.GetInt64("fee.platformFeeBps"),
		domain.Address(viper.GetString("fee.recipient")),
		domain.Address(viper.GetString("fee.operator")),
	)
	if err != nil {
		context.WithField("err", err).Panic("invalid fee policy")
	}

	engineAddress := domain.Address(viper.GetString("engine.address"))
	minBidIncrement, err := domain.ParseAmount(viper.GetString("engine.minBidIncrement"))
	if err != nil {
		context.WithField("err", err).Panic("invalid minBidIncrement")
	}

	// init journal store
	context.Info("init journal store")
	journalRepo, err := journal_repository.NewJournalRepo(viper.GetString("journal.dsn"))
	if err != nil {
		context.WithField("err", err).Panic("failed to open journal store")
	}

	// construct repository, usecase and delivery
	listingRepo := marketplace_repository.NewListingRepo()
	auctionRepo := auction_repository.NewAuctionRepo()
	bidRepo := auction_repository.NewBidRepo()
	paytokenRepo := paytoken_repository.NewPayTokenRepo()
	assetRegistry := asset_repository.New()
	ledgerService := ledger.New()
	hcRepo := hc_repo.New(journalRepo)

	// seed the pay token allow-list
	paytokens := viper.Sub("paytokens")
	if paytokens != nil {
		for k := range paytokens.AllSettings() {
			token := &domain.PayToken{
				Name:     paytokens.GetString(k + ".name"),
				Symbol:   paytokens.GetString(k + ".symbol"),
				Decimals: paytokens.GetInt32(k + ".decimals"),
				Address:  domain.Address(paytokens.GetString(k + ".address")),
			}
			if err := paytokenRepo.Upsert(context, token); err != nil {
				context.WithField("err", err).Panic("failed to seed pay token")
			}
		}
	}

	priceFormatter := priceformat.NewPriceFormatter(paytokenRepo)

	bus := EventBus.New()
	settleLock := &sync.Mutex{}

	marketplace := marketplace_usecase.New(&marketplace_usecase.MarketplaceUseCaseCfg{
		ListingRepo:   listingRepo,
		PaytokenRepo:  paytokenRepo,
		AssetRegistry: assetRegistry,
		Payment:       ledgerService,
		FeePolicy:     policy,
		EngineAddress: engineAddress,
		SettleLock:    settleLock,
		Bus:           bus,
	})
	auction := auction_usecase.New(&auction_usecase.AuctionUseCaseCfg{
		AuctionRepo:     auctionRepo,
		BidRepo:         bidRepo,
		PaytokenRepo:    paytokenRepo,
		AssetRegistry:   assetRegistry,
		Payment:         ledgerService,
		FeePolicy:       policy,
		EngineAddress:   engineAddress,
		MinBidIncrement: minBidIncrement,
		SettleLock:      settleLock,
		Bus:             bus,
	})
	journal := journal_usecase.New(&journal_usecase.JournalUseCaseCfg{
		JournalRepo: journalRepo,
		Bus:         bus,
	})
	if err := journal.Subscribe(); err != nil {
		context.WithField("err", err).Panic("failed to subscribe journal")
	}
	hc := hc_usecase.New(hcRepo)

	hc_delivery.New(e, hc)
	marketplace_delivery.New(e, marketplace)
	auction_delivery.New(e, auction)
	paytoken_delivery.New(e, paytokenRepo, policy)
	asset_delivery.New(e, assetRegistry)
	ledger_delivery.New(e, ledgerService, priceFormatter)
	journal_delivery.New(e, journal)
	fee_delivery.New(e, policy)

	go func() {
		if err := e.Start(viper.GetString("server.address")); err != nil && err != http.ErrServerClosed {
			log.Log().WithField("err", err).Error("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	// Use a buffered channel to avoid missing signals as recommended for signal.Notify
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-quit
	log.Log().WithField("signal", sig).Info("received signal")
	ctx, cancel := ctx.WithTimeout(context, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Log().WithField("err", err).Error("shutting down the server")
	} else {
		log.Log().Info("shutdown server successfully")
	}
}
