package tasks_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/strataimpact/internal/app/system/tasks"
	"go.uber.org/zap"
)

func TestRunner_RunsAtStartAndStops(t *testing.T) {
	runner := tasks.New(zap.NewNop())

	ran := make(chan struct{}, 1)
	runner.Register(tasks.Job{
		Name:     "first",
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			select {
			case ran <- struct{}{}:
			default:
			}
			return nil
		},
	})
	runner.Start()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run at start")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := runner.Stop(ctx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestRunner_RepeatsOnInterval(t *testing.T) {
	runner := tasks.New(zap.NewNop())

	var count atomic.Int32
	runner.Register(tasks.Job{
		Name:     "tick",
		Interval: 20 * time.Millisecond,
		Run: func(ctx context.Context) error {
			count.Add(1)
			return errors.New("keeps going after errors")
		},
	})
	runner.Start()
	time.Sleep(150 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := runner.Stop(ctx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if count.Load() < 2 {
		t.Errorf("job ran %d times, want at least 2", count.Load())
	}
}

func TestRunner_StopTimesOut(t *testing.T) {
	runner := tasks.New(zap.NewNop())

	started := make(chan struct{})
	runner.Register(tasks.Job{
		Name:     "stubborn",
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			close(started)
			time.Sleep(2 * time.Second)
			return nil
		},
	})
	runner.Start()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := runner.Stop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Stop() error = %v, want DeadlineExceeded", err)
	}
}

func TestRunner_RunOnce(t *testing.T) {
	runner := tasks.New(zap.NewNop())

	var count atomic.Int32
	runner.Register(tasks.Job{
		Name: "manual",
		Run: func(ctx context.Context) error {
			count.Add(1)
			return nil
		},
	})

	if err := runner.RunOnce(context.Background(), "manual"); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if count.Load() != 1 {
		t.Errorf("ran %d times, want 1", count.Load())
	}
	if err := runner.RunOnce(context.Background(), "missing"); !errors.Is(err, tasks.ErrUnknownJob) {
		t.Errorf("RunOnce(missing) error = %v, want ErrUnknownJob", err)
	}
}

func TestRunner_Jobs(t *testing.T) {
	runner := tasks.New(zap.NewNop())
	noop := func(ctx context.Context) error { return nil }
	runner.Register(tasks.Job{Name: "first", Interval: time.Hour, Run: noop})
	runner.Register(tasks.Job{Name: "second", Interval: time.Minute, Run: noop})

	jobs := runner.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("Jobs() len = %d, want 2", len(jobs))
	}
	if jobs[0].Name != "first" || jobs[1].Name != "second" {
		t.Errorf("Jobs() order = %s, %s", jobs[0].Name, jobs[1].Name)
	}
	if jobs[1].Interval != time.Minute || jobs[0].Running {
		t.Errorf("Jobs()[1] = %+v", jobs[1])
	}
}

func TestRunner_RecoversPanicAndAppliesTimeout(t *testing.T) {
	runner := tasks.New(zap.NewNop())
	runner.Register(tasks.Job{
		Name: "panics",
		Run:  func(ctx context.Context) error { panic("boom") },
	})
	runner.Register(tasks.Job{
		Name:    "slow",
		Timeout: 20 * time.Millisecond,
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	})

	if err := runner.RunOnce(context.Background(), "panics"); err == nil {
		t.Error("panicking job should return an error")
	}
	if err := runner.RunOnce(context.Background(), "slow"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("slow job error = %v, want DeadlineExceeded", err)
	}
}
