package jobs

import (
	"context"
	"testing"
	"time"
)

func TestRegister_InvalidSpec(t *testing.T) {
	s := NewScheduler(time.Minute)
	err := s.Register(Job{
		Name: "bad",
		Spec: "not a cron expression",
		Run:  func(ctx context.Context) error { return nil },
	})
	if err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}

func TestRegister_MissingFields(t *testing.T) {
	s := NewScheduler(time.Minute)
	if err := s.Register(Job{Spec: "@hourly"}); err == nil {
		t.Error("expected error for job without name")
	}
	if err := s.Register(Job{Name: "x", Spec: "@hourly"}); err == nil {
		t.Error("expected error for job without run function")
	}
}

func TestRegister_ValidSpecs(t *testing.T) {
	s := NewScheduler(time.Minute)
	noop := func(ctx context.Context) error { return nil }
	specs := []string{"0 8 * * MON", "*/15 * * * *", "30 2 * * *", "@hourly"}
	for i, spec := range specs {
		if err := s.Register(Job{Name: string(rune('a' + i)), Spec: spec, Run: noop}); err != nil {
			t.Errorf("spec %q rejected: %v", spec, err)
		}
	}
	if len(s.Jobs()) != len(specs) {
		t.Errorf("expected %d jobs, got %d", len(specs), len(s.Jobs()))
	}
}

func TestRunJob_TimeoutContext(t *testing.T) {
	s := NewScheduler(10 * time.Millisecond)
	done := make(chan error, 1)
	job := Job{
		Name: "slow",
		Spec: "@hourly",
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			done <- ctx.Err()
			return ctx.Err()
		},
	}

	go s.runJob(job)

	select {
	case err := <-done:
		if err != context.DeadlineExceeded {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("job context never expired")
	}
}
