package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/kalkafox/ionia-img/internal/config"
	"github.com/kalkafox/ionia-img/internal/metrics"
	"github.com/kalkafox/ionia-img/internal/transport/web/v1/assets"
	"github.com/kalkafox/ionia-img/internal/transport/web/v1/health"
	"github.com/kalkafox/ionia-img/internal/transport/web/v1/post"
)

type Server struct {
	log    *log.Logger
	server *http.Server
	cfg    *config.Config
}

type Deps struct {
	Posts   post.Service
	DB      health.Pinger
	Storage health.Pinger
	Cache   health.Pinger // nil = без кеша
	Metrics *metrics.Metrics
}

func New(logger *log.Logger, cfg *config.Config, d Deps) *Server {
	healthLog := log.New(logger.Writer(), logger.Prefix()+"[health] ", logger.Flags())
	postLog := log.New(logger.Writer(), logger.Prefix()+"[post] ", logger.Flags())
	assetsLog := log.New(logger.Writer(), logger.Prefix()+"[assets] ", logger.Flags())

	h := handlers{
		health: &health.Handler{Log: healthLog, DB: d.DB, Storage: d.Storage, Cache: d.Cache},
		posts:  &post.Handler{Log: postLog, Posts: d.Posts, MaxUploadBytes: cfg.MaxUploadBytes},
		assets: assets.New(cfg.AssetsPath, assetsLog),
	}
	var obs metrics.Observer = metrics.NoopObserver{}
	if d.Metrics != nil {
		h.metrics = d.Metrics.Handler()
		obs = d.Metrics
	}

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: newRouter(h, logger, obs),
		// загрузки до MAX_UPLOAD_BYTES на медленных каналах
		ReadTimeout:       10 * time.Minute,
		WriteTimeout:      10 * time.Minute,
		MaxHeaderBytes:    1 << 20,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return &Server{server: srv, cfg: cfg, log: logger}
}

// Run блокируется до остановки; http.ErrServerClosed ошибкой не считается.
func (ws *Server) Run() error {
	ws.log.Printf("started on %s", ws.server.Addr)
	if err := ws.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		ws.log.Printf("error: %v", err)
		return err
	}
	return nil
}

func (ws *Server) Close(ctx context.Context) {
	if err := ws.server.Shutdown(ctx); err != nil {
		ws.log.Printf("forced to shutdown: %v", err)
	}
	ws.log.Println("exited gracefully")
}

// Handler: для httptest
func (ws *Server) Handler() http.Handler { return ws.server.Handler }
