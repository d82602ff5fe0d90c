// internal/app/features/status/handler.go
package status

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	errorsfeature "github.com/dalemusser/strataimpact/internal/app/features/errors"
	"github.com/dalemusser/strataimpact/internal/app/system/auditlog"
	"github.com/dalemusser/strataimpact/internal/app/system/tasks"
	"github.com/dalemusser/strataimpact/internal/app/system/timeouts"
	"github.com/dalemusser/strataimpact/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

var startTime = time.Now()

// JobRunner is the part of tasks.Runner the status page drives.
type JobRunner interface {
	Jobs() []tasks.JobInfo
	RunOnce(ctx context.Context, name string) error
}

// ConfigItem is one configuration value for display.
type ConfigItem struct {
	Name  string
	Value string
}

// ConfigGroup is a titled list of related configuration values.
type ConfigGroup struct {
	Name  string
	Items []ConfigItem
}

// Options carries the optional collaborators of the status page.
type Options struct {
	Redis  *redis.Client // nil when the form throttle is disabled
	Jobs   JobRunner     // nil hides the job table
	Audit  *auditlog.Logger
	Config []ConfigGroup // already masked by the caller
}

// Handler serves the admin system status page.
type Handler struct {
	client  *mongo.Client
	opts    Options
	errLog  *errorsfeature.ErrorLogger
	errPage *errorsfeature.Handler
	log     *zap.Logger
}

func NewHandler(client *mongo.Client, errLog *errorsfeature.ErrorLogger, opts Options, logger *zap.Logger) *Handler {
	return &Handler{
		client:  client,
		opts:    opts,
		errLog:  errLog,
		errPage: errorsfeature.NewHandler(),
		log:     logger,
	}
}

// Backend is the reachability of one service.
type Backend struct {
	Name    string
	OK      bool
	Detail  string // version or latency
	Error   string
	Enabled bool
}

// JobRow is one background job.
type JobRow struct {
	Name     string
	Interval string
	Running  bool
}

type statusVM struct {
	viewdata.BaseVM

	Backends []Backend
	Jobs     []JobRow
	Ran      string

	GoVersion    string
	Uptime       string
	NumGoroutine int
	MemAlloc     string

	ConfigGroups []ConfigGroup
}

// Serve handles GET /admin/status.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	vm := statusVM{
		BaseVM:       viewdata.NewBaseVM(r, "System Status", "/admin"),
		Backends:     []Backend{h.mongoBackend(ctx), h.redisBackend(ctx)},
		Ran:          r.URL.Query().Get("ran"),
		GoVersion:    runtime.Version(),
		Uptime:       formatDuration(time.Since(startTime)),
		NumGoroutine: runtime.NumGoroutine(),
		ConfigGroups: h.opts.Config,
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	vm.MemAlloc = formatBytes(m.Alloc)

	if h.opts.Jobs != nil {
		for _, j := range h.opts.Jobs.Jobs() {
			vm.Jobs = append(vm.Jobs, JobRow{Name: j.Name, Interval: j.Interval.String(), Running: j.Running})
		}
	}

	templates.Render(w, r, "status/index", vm)
}

// RunJob handles POST /admin/status/jobs/{name}/run.
func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if h.opts.Jobs == nil {
		h.errPage.NotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	err := h.opts.Jobs.RunOnce(ctx, name)
	if errors.Is(err, tasks.ErrUnknownJob) {
		h.errPage.NotFound(w, r)
		return
	}
	if err != nil {
		h.errLog.Log(r, "manual job run failed", err)
		h.errPage.InternalError(w, r)
		return
	}

	h.opts.Audit.Admin(r, "job_run", "job", name, nil)
	http.Redirect(w, r, "/admin/status?ran="+name, http.StatusSeeOther)
}

func (h *Handler) mongoBackend(ctx context.Context) Backend {
	b := Backend{Name: "MongoDB", Enabled: h.client != nil}
	if h.client == nil {
		return b
	}
	start := time.Now()
	if err := h.client.Ping(ctx, readpref.Primary()); err != nil {
		h.log.Warn("status page: database ping failed", zap.Error(err))
		b.Error = err.Error()
		return b
	}
	b.OK = true
	b.Detail = fmt.Sprintf("%d ms", time.Since(start).Milliseconds())

	var info bson.M
	if err := h.client.Database("admin").RunCommand(ctx, bson.D{{Key: "buildInfo", Value: 1}}).Decode(&info); err == nil {
		if v, ok := info["version"].(string); ok {
			b.Detail = "v" + v + ", " + b.Detail
		}
	}
	return b
}

func (h *Handler) redisBackend(ctx context.Context) Backend {
	b := Backend{Name: "Redis", Enabled: h.opts.Redis != nil}
	if h.opts.Redis == nil {
		return b
	}
	start := time.Now()
	if err := h.opts.Redis.Ping(ctx).Err(); err != nil {
		h.log.Warn("status page: redis ping failed", zap.Error(err))
		b.Error = err.Error()
		return b
	}
	b.OK = true
	b.Detail = fmt.Sprintf("%d ms", time.Since(start).Milliseconds())
	return b
}

// Mask hides all but the edges of a secret.
func Mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	if days > 0 {
		return plural(days, "day") + " " + plural(hours, "hour")
	}
	if hours > 0 {
		return plural(hours, "hour") + " " + plural(minutes, "min")
	}
	return plural(minutes, "min")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
