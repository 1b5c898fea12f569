package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"quiz-scoring-service/internal/domain"
)

func TestSubmitGuardSharedAcrossInstances(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	first := NewSubmitGuard(newClient(mr), 10*time.Second)
	second := NewSubmitGuard(newClient(mr), 10*time.Second)

	release, err := first.Acquire(context.Background(), "a1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !mr.Exists("attempt:a1:submitting") {
		t.Fatalf("expected guard key")
	}
	if _, err := second.Acquire(context.Background(), "a1"); !errors.Is(err, domain.ErrSubmissionInProgress) {
		t.Fatalf("expected in-progress conflict, got %v", err)
	}

	release()
	if mr.Exists("attempt:a1:submitting") {
		t.Fatalf("expected guard key removed on release")
	}
	if _, err := second.Acquire(context.Background(), "a1"); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
}

func TestSubmitGuardExpires(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	guard := NewSubmitGuard(newClient(mr), 5*time.Second)
	staleRelease, err := guard.Acquire(context.Background(), "a1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	mr.FastForward(6 * time.Second)

	release, err := guard.Acquire(context.Background(), "a1")
	if err != nil {
		t.Fatalf("expected expired guard to be reacquired: %v", err)
	}
	defer release()

	// a holder whose key expired must not remove the new holder's key
	staleRelease()
	if !mr.Exists("attempt:a1:submitting") {
		t.Fatalf("stale release removed the current guard")
	}
}

func TestSubmitGuardRedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	guard := NewSubmitGuard(newClient(mr), time.Second)
	mr.Close()
	if _, err := guard.Acquire(context.Background(), "a1"); err == nil || errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected raw connection error, got %v", err)
	}
}
