package httpapi

import (
	"net/http"

	"github.com/legendpaul/sportsapp/internal/platform/logging"
)

type RouterConfig struct {
	Logger             *logging.Logger
	SwaggerEnabled     bool
	CORSAllowedOrigins []string
	InternalJobToken   string
	// Metrics is mounted at GET /metrics when set.
	Metrics  http.Handler
	Recorder RequestRecorder
}

func NewRouter(handler *Handler, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler, cfg.SwaggerEnabled, cfg.Metrics)
	registerReadRoutes(mux, handler)
	registerMutatingRoutes(mux, handler, cfg.InternalJobToken)

	var root http.Handler = mux
	root = recoverPanic(logger, root)
	root = CORS(cfg.CORSAllowedOrigins, root)
	root = RequestMetrics(mux, cfg.Recorder, root)
	root = RequestLogging(logger, root)
	return RequestTracing(root)
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec, "path", r.URL.Path)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
