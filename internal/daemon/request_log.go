package daemon

import (
	"net/http"
	"strings"
	"time"

	"notetaker/internal/logging"
)

const requestIDHeader = "X-Request-Id"

// statusWriter remembers what the handler sent so the request can be logged
// after it completes.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

// RequestLogMiddleware tags each request with an id and writes one
// http_request line once it finishes. Health probes log at debug.
func RequestLogMiddleware(logger logging.Logger, next http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Nop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if reqID == "" {
			reqID = logging.NewRequestID()
		}
		w.Header().Set(requestIDHeader, reqID)
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)

		fields := []logging.Field{
			logging.F("request_id", reqID),
			logging.F("method", r.Method),
			logging.F("path", r.URL.Path),
			logging.F("status", sw.status),
			logging.F("bytes", sw.bytes),
			logging.F("latency_ms", time.Since(start).Milliseconds()),
		}
		if resource, id := resourceFromPath(r.URL.Path); id != "" {
			fields = append(fields, logging.F(resource+"_id", id))
		}
		switch {
		case sw.status >= http.StatusInternalServerError:
			logger.Error("http_request", fields...)
		case sw.status >= http.StatusBadRequest:
			logger.Warn("http_request", fields...)
		case r.URL.Path == "/health":
			logger.Debug("http_request", fields...)
		default:
			logger.Info("http_request", fields...)
		}
	})
}

// resourceFromPath maps /v1/notes/{id}, /v1/files/{id} and
// /v1/records/{id}/files to a log key and the id segment.
func resourceFromPath(path string) (string, string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 3 || parts[0] != "v1" || parts[2] == "" {
		return "", ""
	}
	switch parts[1] {
	case "notes":
		return "note", parts[2]
	case "files":
		return "file", parts[2]
	case "records":
		return "record", parts[2]
	}
	return "", ""
}
