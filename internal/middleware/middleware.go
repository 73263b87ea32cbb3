package middleware

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/handlers"
)

// Recovery turns a panicking handler into a 500 response.
func Recovery(next http.Handler) http.Handler {
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(panicLogger{}),
		handlers.PrintRecoveryStack(false),
	)(next)
}

type panicLogger struct{}

func (panicLogger) Println(v ...interface{}) {
	slog.Error("panic in handler", "panic", fmt.Sprint(v...))
}

// Logger logs one line per request. The response writer keeps its
// Hijacker, so websocket upgrades pass through.
func Logger(next http.Handler) http.Handler {
	return handlers.CustomLoggingHandler(io.Discard, next, logRequest)
}

func logRequest(_ io.Writer, p handlers.LogFormatterParams) {
	slog.Debug("request",
		"method", p.Request.Method,
		"path", p.URL.Path,
		"status", p.StatusCode,
		"size", p.Size,
		"duration", time.Since(p.TimeStamp),
	)
}

// CORS allows browser requests from the given hosts ("localhost:5173").
// Preflights are answered here, so it has to wrap the router rather than
// sit behind route matching.
func CORS(hosts []string) func(http.Handler) http.Handler {
	return handlers.CORS(
		handlers.AllowedOriginValidator(func(origin string) bool {
			return allowed(hosts, origin)
		}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		handlers.OptionStatusCode(http.StatusNoContent),
	)
}

func allowed(hosts []string, origin string) bool {
	for _, scheme := range []string{"http://", "https://"} {
		if len(origin) > len(scheme) && origin[:len(scheme)] == scheme {
			return slices.Contains(hosts, origin[len(scheme):])
		}
	}
	return false
}
