package helpers

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPipelineErrorFormat(t *testing.T) {
	plain := &PipelineError{Message: "archive write failed"}
	if plain.Error() != "archive write failed" {
		t.Errorf("Error() = %q", plain.Error())
	}

	cause := errors.New("disk full")
	wrapped := &PipelineError{Message: "archive write failed", Cause: cause}
	if wrapped.Error() != "archive write failed: disk full" {
		t.Errorf("Error() = %q", wrapped.Error())
	}

	// errors.Is sees through the wrapper
	if !errors.Is(wrapped, cause) {
		t.Error("Unwrap chain broken")
	}
}

func TestTypedErrorsMatch(t *testing.T) {
	cause := errors.New("timeout")
	err := error(&NotifyError{PipelineError{Message: "slack delivery failed", Cause: cause}})

	var notifyErr *NotifyError
	if !errors.As(err, &notifyErr) {
		t.Fatal("errors.As failed for NotifyError")
	}
	if !errors.Is(err, cause) {
		t.Error("typed wrapper lost the cause")
	}

	var archiveErr *ArchiveError
	if errors.As(err, &archiveErr) {
		t.Error("NotifyError matched as ArchiveError")
	}
}

// -----------------------------------------------------------------------------

func TestRetryWithBackoffSucceedsAfterFailures(t *testing.T) {
	attempts := 0
	res, err := RetryWithBackoff(context.Background(), "flaky op", 5, time.Millisecond, func() (interface{}, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("not yet")
		}
		return "done", nil
	})

	if err != nil {
		t.Fatalf("RetryWithBackoff: %v", err)
	}
	if res != "done" {
		t.Errorf("result = %v", res)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetryWithBackoffExhaustsRetries(t *testing.T) {
	attempts := 0
	boom := errors.New("boom")
	_, err := RetryWithBackoff(context.Background(), "doomed op", 3, time.Millisecond, func() (interface{}, error) {
		attempts++
		return nil, boom
	})

	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want the last failure", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetryWithBackoffStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	_, err := RetryWithBackoff(ctx, "cancelled op", 10, time.Hour, func() (interface{}, error) {
		attempts++
		cancel()
		return nil, errors.New("fail")
	})

	// The hour-long backoff is cut short by the cancelled context
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetryWithBackoffFirstTrySuccess(t *testing.T) {
	attempts := 0
	res, err := RetryWithBackoff(context.Background(), "healthy op", 3, time.Hour, func() (interface{}, error) {
		attempts++
		return 42, nil
	})

	if err != nil || res != 42 {
		t.Fatalf("res/err = %v/%v", res, err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}
