package mw

import (
	"log"
	"net/http"
	"time"
)

// RequestObserver получает итог каждого запроса (метрики)
type RequestObserver interface {
	RecordRequest(method string, status int, seconds float64)
}

// Logging: финиш запроса, статус, размер, длительность
func Logging(l *log.Logger, obs RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := RequestIDFromCtx(r.Context())
			start := time.Now()

			mw := &metaWriter{ResponseWriter: w}

			next.ServeHTTP(mw, r)

			dur := time.Since(start)
			status := mw.statusCode()
			l.Printf("lvl=info req_id=%s method=%s path=%q status=%d size=%d duration_ms=%d",
				reqID, r.Method, r.URL.Path, status, mw.size, dur.Milliseconds())
			if obs != nil {
				obs.RecordRequest(r.Method, status, dur.Seconds())
			}
		})
	}
}

// metaWriter запоминает статус и число байт ответа
type metaWriter struct {
	http.ResponseWriter
	status int
	size   int64
}

func (w *metaWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *metaWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += int64(n)
	return n, err
}

func (w *metaWriter) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// Unwrap нужен http.ResponseController (Flush, дедлайны)
func (w *metaWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
