// internal/app/features/health/health.go
package health

import (
	"context"
	"net/http"

	"github.com/dalemusser/strataimpact/internal/app/system/jsonutil"
	"github.com/dalemusser/strataimpact/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler provides health check endpoints. The Redis client is optional.
type Handler struct {
	mongoClient *mongo.Client
	redis       *redis.Client
	logger      *zap.Logger
}

// NewHandler creates a new health check Handler. rdb may be nil when the
// form throttle is disabled.
func NewHandler(mongoClient *mongo.Client, rdb *redis.Client, logger *zap.Logger) *Handler {
	return &Handler{
		mongoClient: mongoClient,
		redis:       rdb,
		logger:      logger,
	}
}

// Response represents the health check response.
type Response struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services,omitempty"`
}

// Routes returns a chi.Router with /health, /health/ready and /health/live.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Check)
	r.Get("/ready", h.Ready)
	r.Get("/live", h.Live)
	return r
}

// MountRootEndpoints adds the probe endpoints directly on the root router:
// /ready, /readyz, /live and /livez.
func MountRootEndpoints(r chi.Router, h *Handler) {
	r.Get("/ready", h.Ready)
	r.Get("/readyz", h.Ready)
	r.Get("/live", h.Live)
	r.Get("/livez", h.Live)
}

// probe pings every configured backend and reports each one.
func (h *Handler) probe(ctx context.Context) Response {
	resp := Response{Status: "ok", Services: make(map[string]string)}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()

	if err := h.mongoClient.Ping(ctx, readpref.Primary()); err != nil {
		resp.Status = "degraded"
		resp.Services["mongodb"] = "unavailable"
		h.logger.Warn("health check: mongodb ping failed", zap.Error(err))
	} else {
		resp.Services["mongodb"] = "ok"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			resp.Status = "degraded"
			resp.Services["redis"] = "unavailable"
			h.logger.Warn("health check: redis ping failed", zap.Error(err))
		} else {
			resp.Services["redis"] = "ok"
		}
	}
	return resp
}

// Check reports every backend.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	resp := h.probe(r.Context())
	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	jsonutil.JSON(w, status, resp)
}

// Ready is the readiness probe: 503 until every backend answers.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	resp := h.probe(r.Context())
	if resp.Status != "ok" {
		jsonutil.JSON(w, http.StatusServiceUnavailable, Response{Status: "not ready", Services: resp.Services})
		return
	}
	jsonutil.JSON(w, http.StatusOK, Response{Status: "ready"})
}

// Live is the liveness probe. It never touches a backend.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	jsonutil.JSON(w, http.StatusOK, Response{Status: "alive"})
}
