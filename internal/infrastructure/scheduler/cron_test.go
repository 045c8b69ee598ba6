package scheduler

import (
	"context"
	"testing"
	"time"
)

func TestCronSchedulerRejectsBadSpec(t *testing.T) {
	s := NewCronScheduler("not a cron", nil)
	if err := s.Start(context.Background(), func(time.Time) {}); err == nil {
		t.Fatal("expected error for invalid spec")
	}
}

func TestCronSchedulerRunsJob(t *testing.T) {
	s := NewCronScheduler("@every 1s", time.UTC)
	fired := make(chan time.Time, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx, func(at time.Time) {
		select {
		case fired <- at:
		default:
		}
	}); err != nil {
		t.Fatalf("start: %v", err)
	}

	select {
	case at := <-fired:
		if at.Location() != time.UTC {
			t.Fatalf("expected UTC trigger, got %v", at.Location())
		}
	case <-time.After(3 * time.Second):
		t.Fatal("job did not fire")
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}

func TestCronSchedulerNilJob(t *testing.T) {
	s := NewCronScheduler("@hourly", nil)
	if err := s.Start(context.Background(), nil); err != nil {
		t.Fatalf("nil job: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
}
