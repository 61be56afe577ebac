package log

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request through Logger, tagged with the
// chi request id.
func RequestLogger() func(http.Handler) http.Handler {
	return middleware.RequestLogger(requestFormatter{})
}

type requestFormatter struct{}

func (requestFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	return &requestEntry{Logger.WithFields(Fields{
		"reqId":  middleware.GetReqID(r.Context()),
		"method": r.Method,
		"path":   r.URL.Path,
		"remote": r.RemoteAddr,
	})}
}

type requestEntry struct {
	*logrus.Entry
}

func (e *requestEntry) Write(status, bytes int, header http.Header, elapsed time.Duration, extra any) {
	entry := e.WithFields(Fields{
		"status":  status,
		"bytes":   bytes,
		"elapsed": elapsed.Round(time.Microsecond).String(),
	})
	if status >= http.StatusInternalServerError {
		entry.Warn("request")
		return
	}
	entry.Info("request")
}

func (e *requestEntry) Panic(v any, stack []byte) {
	e.WithFields(Fields{"panic": v, "stack": string(stack)}).Error("request.panic")
}
