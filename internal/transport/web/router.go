package web

import (
	"log"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/kalkafox/ionia-img/internal/docs"
	"github.com/kalkafox/ionia-img/internal/transport/web/mw"
	"github.com/kalkafox/ionia-img/internal/transport/web/v1/assets"
	"github.com/kalkafox/ionia-img/internal/transport/web/v1/health"
	"github.com/kalkafox/ionia-img/internal/transport/web/v1/post"
)

type handlers struct {
	health  *health.Handler
	posts   *post.Handler
	assets  *assets.Handler
	metrics http.Handler
}

func newRouter(h handlers, logger *log.Logger, obs mw.RequestObserver) http.Handler {
	mux := http.NewServeMux()

	// health
	mux.HandleFunc("GET /v1/healthz", h.health.Liveness)
	mux.HandleFunc("GET /v1/readyz", h.health.Readiness)

	// posts; GET покрывает и HEAD
	mux.HandleFunc("POST /upload", h.posts.Upload)
	mux.HandleFunc("GET /{id}", h.posts.Download)

	// фронтенд
	mux.HandleFunc("GET /{$}", h.assets.Index)
	mux.HandleFunc("GET /assets/{file...}", h.assets.File)

	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}

	// swagger
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	return mw.WithRequestID(mw.Logging(logger, obs)(mux))
}
