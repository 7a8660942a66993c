package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kalkafox/ionia-img/internal/auth/apikey"
	"github.com/kalkafox/ionia-img/internal/config"
	"github.com/kalkafox/ionia-img/internal/metrics"
	"github.com/kalkafox/ionia-img/internal/service/post"
	"github.com/kalkafox/ionia-img/internal/transport/web"
	"github.com/kalkafox/ionia-img/internal/transport/web/v1/health"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	server *web.Server
	log    *log.Logger
	stores *Stores
}

func Build(ctx context.Context, cfg *config.Config, base *log.Logger) (*App, error) {
	base.Printf("\n  configuration: %s-------------------", cfg)

	stores, err := OpenStores(ctx, cfg, base)
	if err != nil {
		return nil, err
	}
	return build(cfg, base, stores), nil
}

func build(cfg *config.Config, base *log.Logger, stores *Stores) *App {
	m := metrics.New()

	svc := &post.Service{
		Auth:             apikey.New(stores.Repo, sub(base, "apikey")),
		Repo:             stores.Repo,
		Blobs:            stores.Blobs,
		Cache:            stores.Cache,
		Metrics:          m,
		Log:              sub(base, "post"),
		DefaultURLPrefix: cfg.DefaultURLPrefix,
		CacheTTLSeconds:  cfg.CacheTTLSeconds,
	}

	deps := web.Deps{Posts: svc, DB: stores.Repo, Storage: stores.Blobs, Metrics: m}
	// nil-кеш не должен превращаться в ненулевой интерфейс
	if stores.Cache != nil {
		deps.Cache = health.Pinger(stores.Cache)
	}

	base.Println("init Server")
	server := web.New(sub(base, "server"), cfg, deps)
	base.Println("build ended")

	return &App{config: cfg, server: server, log: base, stores: stores}
}

// Run обслуживает запросы до отмены ctx или ошибки сервера, затем закрывает хранилища.
func (a *App) Run(ctx context.Context) error {
	a.log.Println("start application...")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.server.Run(); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Println("stop application...")
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.server.Close(stopCtx)
		return nil
	})

	err := g.Wait()
	a.stores.Close()
	return err
}

func (a *App) Handler() http.Handler { return a.server.Handler() }

func (a *App) Stores() *Stores { return a.stores }
