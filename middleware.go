package restaurantql

// middleware.go wraps the GraphQL handler with a request id and an access log

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andrewwphillips/restaurantql/internal/metrics"
)

// RequestIDHeader carries the id of a request, echoed in the response and in the access log
const RequestIDHeader = "X-Request-Id"

// timeoutBody is the response sent when a request takes too long (see Timeout)
const timeoutBody = `{"errors":[{"message":"request timed out","extensions":{"code":"TIMEOUT"}}]}`

// requestIDHandler uses the id sent by the client, or generates one, and returns it in the response
type requestIDHandler struct {
	inner http.Handler
}

func (h *requestIDHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(RequestIDHeader)
	if id == "" || len(id) > 128 {
		id = uuid.NewString()
		r.Header.Set(RequestIDHeader, id)
	}
	w.Header().Set(RequestIDHeader, id)
	h.inner.ServeHTTP(w, r)
}

// logHandler writes a line to the log for each request and counts the responses by status code
type logHandler struct {
	inner  http.Handler
	logger *zap.Logger
}

// statusWriter remembers the status code written
type statusWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *statusWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

func (h *logHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sw := &statusWriter{ResponseWriter: w}
	h.inner.ServeHTTP(sw, r)
	if sw.status == 0 {
		sw.status = http.StatusOK
	}

	metrics.HTTPRequests.WithLabelValues(strconv.Itoa(sw.status)).Inc()
	h.logger.Info("request",
		zap.String("id", r.Header.Get(RequestIDHeader)),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", sw.status),
		zap.Int("bytes", sw.size),
		zap.Duration("duration", time.Since(start)),
	)
}
