package status

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dalemusser/strataimpact/internal/app/system/auth"
	"github.com/dalemusser/strataimpact/internal/app/system/tasks"
	"github.com/dalemusser/strataimpact/internal/testutil"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type fakeJobs struct {
	ran []string
	err error
}

func (f *fakeJobs) Jobs() []tasks.JobInfo {
	return []tasks.JobInfo{{Name: tasks.ContactPurgeJobName, Interval: 6 * time.Hour}}
}

func (f *fakeJobs) RunOnce(ctx context.Context, name string) error {
	if name != tasks.ContactPurgeJobName {
		return tasks.ErrUnknownJob
	}
	f.ran = append(f.ran, name)
	return f.err
}

func newRoutes(t *testing.T, opts Options) http.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return Routes(NewHandler(db.Client(), nil, opts, zap.NewNop()), &auth.SessionManager{})
}

func TestServe_ShowsBackendsJobsAndConfig(t *testing.T) {
	testutil.MustBootTemplates(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	routes := newRoutes(t, Options{
		Redis: rdb,
		Jobs:  &fakeJobs{},
		Config: []ConfigGroup{{
			Name:  "Session",
			Items: []ConfigItem{{Name: "session_key", Value: Mask("super-secret-key")}},
		}},
	})

	rec := testutil.NewRecorder()
	routes.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/", testutil.AdminUser()))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "MongoDB")
	rec.AssertContains(t, "Redis")
	rec.AssertNotContains(t, "not configured")
	rec.AssertContains(t, tasks.ContactPurgeJobName)
	rec.AssertContains(t, "6h0m0s")
	rec.AssertContains(t, "su************ey")
	rec.AssertNotContains(t, "super-secret-key")
}

func TestServe_RedisNotConfigured(t *testing.T) {
	testutil.MustBootTemplates(t)
	routes := newRoutes(t, Options{})

	rec := testutil.NewRecorder()
	routes.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/", testutil.AdminUser()))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "not configured")
	rec.AssertContains(t, "No background jobs are scheduled.")
}

func TestServe_EditorForbidden(t *testing.T) {
	testutil.MustBootTemplates(t)
	routes := newRoutes(t, Options{})

	rec := testutil.NewRecorder()
	routes.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/", testutil.EditorUser()))

	rec.AssertStatus(t, http.StatusForbidden)
}

func TestRunJob(t *testing.T) {
	testutil.MustBootTemplates(t)
	jobs := &fakeJobs{}
	routes := newRoutes(t, Options{Jobs: jobs})

	rec := testutil.NewRecorder()
	routes.ServeHTTP(rec, testutil.NewAuthenticatedForm("/jobs/"+tasks.ContactPurgeJobName+"/run", nil, testutil.AdminUser()))
	rec.AssertRedirect(t, "/admin/status?ran="+tasks.ContactPurgeJobName)
	if len(jobs.ran) != 1 {
		t.Errorf("job ran %d times, want 1", len(jobs.ran))
	}

	rec = testutil.NewRecorder()
	routes.ServeHTTP(rec, testutil.NewAuthenticatedForm("/jobs/nope/run", nil, testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestMask(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"abc", "****"},
		{"abcdef", "ab**ef"},
	}
	for _, tt := range tests {
		if got := Mask(tt.in); got != tt.want {
			t.Errorf("Mask(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Minute, "30 mins"},
		{time.Hour, "1 hour 0 mins"},
		{50 * time.Hour, "2 days 2 hours"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		b    uint64
		want string
	}{
		{500, "500 B"},
		{1536, "1.5 KiB"},
		{1024 * 1024, "1.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.b); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.b, got, tt.want)
		}
	}
}
