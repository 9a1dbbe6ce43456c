package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/davoseaworthui/referral-builder-next/pkg/httputil"
)

// Recovery turns a handler panic into a logged 500. If the handler already
// started the response only the log line is written. http.ErrAbortHandler is
// re-raised so net/http can abort the connection.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := newStatusRecorder(w)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				l.ErrorContext(r.Context(), "handler panic",
					slog.Any("panic", rec),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Bool("response_started", rw.wroteHeader),
					slog.String("stack", string(debug.Stack())),
				)
				if !rw.wroteHeader {
					httputil.WriteMessage(rw, http.StatusInternalServerError, "an internal error occurred")
				}
			}()

			next.ServeHTTP(rw, r)
		})
	}
}
