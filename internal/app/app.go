package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/odjakh/giveaway-bot/core/bootstrap"
	corecmd "github.com/odjakh/giveaway-bot/core/cmd"
	coreconfig "github.com/odjakh/giveaway-bot/core/config"
	coretelegram "github.com/odjakh/giveaway-bot/core/telegram"
	"github.com/odjakh/giveaway-bot/core/telegram/router"
	"github.com/odjakh/giveaway-bot/internal/certificate"
	appconfig "github.com/odjakh/giveaway-bot/internal/config"
	"github.com/odjakh/giveaway-bot/internal/export"
	"github.com/odjakh/giveaway-bot/internal/giveaway"
	"github.com/odjakh/giveaway-bot/internal/handlers"
	"github.com/odjakh/giveaway-bot/internal/notify"
	"github.com/odjakh/giveaway-bot/internal/storage"
)

// App carries the loaded configuration and the wired giveaway components.
type App struct {
	cfg *appconfig.Config

	db       *sqlx.DB
	notifier *notify.Telegram
	handlers *handlers.Handlers
}

// CoreConfig satisfies the runner's ConfigCarrier interface.
func (a *App) CoreConfig() *coreconfig.Config {
	return &a.cfg.Core
}

// Load reads and validates the configuration file.
func Load(path string) (corecmd.ConfigCarrier, error) {
	cfg, err := appconfig.Load(path)
	if err != nil {
		return nil, err
	}
	return &App{cfg: cfg}, nil
}

// Bootstrap initializes the logger, database and migrations, then wires the
// store, engines and handlers.
func Bootstrap(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	a, ok := carrier.(*App)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config carrier %T", carrier)
	}

	res, err := bootstrap.Run(bootstrap.Options{
		Config:   &a.cfg.Core,
		Database: a.cfg.Database,
	})
	if err != nil {
		return nil, err
	}
	a.db = res.DB

	gcfg := a.cfg.Giveaway
	loc := gcfg.Location()

	window, err := giveaway.NewWindow(gcfg.WindowStart, gcfg.WindowEnd, loc)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	store := storage.NewPostgresStore(a.db)
	a.notifier = notify.NewTelegram()
	certs := certificate.NewGenerator(gcfg.CertificateTemplate, gcfg.FontPaths, loc)

	svc, err := giveaway.NewService(giveaway.Options{
		Store:        store,
		Notifier:     a.notifier,
		Certificates: certs,
		Window:       window,
		DiscountDays: gcfg.DiscountDays,
		Messages:     handlers.DrawMessages(gcfg),
	})
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	exporter := export.NewExporter(loc, gcfg.DiscountDays)
	a.handlers = handlers.New(svc, exporter, gcfg, a.cfg.AdminSet())

	return a, nil
}

// TelegramRunOptions assembles the bot routes and lifecycle hooks.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	a.handlers.Register(reg)

	adminOpts := a.handlers.AdminOptions()
	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminIDs:      adminOpts.AdminIDs,
		OnAdminReject: adminOpts.OnReject,
	})
	routes = append(routes, router.TextRoutes(nil, reg, router.TextOptions{})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))

	return coretelegram.RunOptions{
		Config:      &a.cfg.Core,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(&a.cfg.Core, nil),
		Routes:      routes,
		OnStart: func(_ context.Context, rt coretelegram.Runtime) error {
			a.notifier.Bind(rt.Bot)
			return nil
		},
		OnStop: func(_ context.Context, _ coretelegram.Runtime) error {
			if a.db != nil {
				return a.db.Close()
			}
			return nil
		},
	}, nil
}
