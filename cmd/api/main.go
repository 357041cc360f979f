// @title        Coleccionables API
// @version      1.0
// @description  Precios por jerarquía de niveles y libro de stock de coleccionables.
// @BasePath     /
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	_ "github.com/jhoicas/coleccionables-api/docs"
	"github.com/jhoicas/coleccionables-api/internal/application/pricing"
	"github.com/jhoicas/coleccionables-api/internal/application/stock"
	domainpricing "github.com/jhoicas/coleccionables-api/internal/domain/pricing"
	"github.com/jhoicas/coleccionables-api/internal/domain/repository"
	"github.com/jhoicas/coleccionables-api/internal/infrastructure/cache"
	"github.com/jhoicas/coleccionables-api/internal/infrastructure/memory"
	"github.com/jhoicas/coleccionables-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/coleccionables-api/internal/interfaces/http"
	"github.com/jhoicas/coleccionables-api/pkg/config"
	"github.com/jhoicas/coleccionables-api/pkg/logger"
)

// backend lo que cada driver de almacenamiento aporta a los casos de uso.
type backend struct {
	pricingTx pricing.TxRunner
	stockTx   stock.TxRunner
	stockRepo repository.StockRepository
	movRepo   repository.StockMovementRepository
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	be := openBackend(ctx, cfg, log)
	defer be.close()

	quoteCache, closeCache := openQuoteCache(ctx, cfg, log)
	defer closeCache()

	engine := domainpricing.NewEngine(domainpricing.Policy{
		ComposeLevelDiscountsAlways: cfg.Pricing.ComposeLevelDiscountsAlways,
		ClampPercentages:            cfg.Pricing.ClampPercentages,
	})
	pricingUC := pricing.NewPricingUseCase(be.pricingTx, engine, quoteCache, cfg.Redis.QuoteTTL(), log)
	ledgerUC := stock.NewLedgerUseCase(be.stockTx, be.stockRepo, be.movRepo, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Coleccionables API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.Store.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		PricingUC: pricingUC,
		LedgerUC:  ledgerUC,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func openBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) backend {
	if cfg.Store.Driver == config.StoreMemory {
		store := memory.NewSeeded()
		log.Warn().Msg("almacén en memoria con catálogo de demostración; los datos se pierden al reiniciar")
		return backend{
			pricingTx: store,
			stockTx:   store,
			stockRepo: store.StockRepository(),
			movRepo:   store.StockMovementRepository(),
			close:     func() {},
		}
	}

	if cfg.DB.AutoMigrate {
		if err := postgres.MigrateUp(cfg.DB.ConnectionString(), log); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	return backend{
		pricingTx: postgres.NewTxRunner(pool),
		stockTx:   postgres.NewTxRunner(pool),
		stockRepo: postgres.NewStockRepository(pool),
		movRepo:   postgres.NewStockMovementRepository(pool),
		close:     pool.Close,
	}
}

// openQuoteCache usa Redis si está configurado y responde; si no, cotiza siempre contra el almacén.
func openQuoteCache(ctx context.Context, cfg *config.Config, log *logger.Logger) (pricing.QuoteCache, func()) {
	if !cfg.Redis.Enabled() || cfg.Redis.QuoteTTLSeconds == 0 {
		return cache.NoopQuoteCache{}, func() {}
	}
	rc := cache.NewRedisQuoteCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis no disponible, caché de cotizaciones desactivada")
		_ = rc.Close()
		return cache.NoopQuoteCache{}, func() {}
	}
	log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.QuoteTTL()).Msg("caché de cotizaciones en Redis")
	return rc, func() { _ = rc.Close() }
}
