package shared

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func fastPolicy(retries int) RetryPolicy {
	return RetryPolicy{MaxRetries: retries, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestRetryDisabledRunsOnce(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryPolicy{}, func() error {
		calls++
		return &TransportError{StatusCode: http.StatusServiceUnavailable}
	})
	if err == nil || calls != 1 {
		t.Errorf("Expected one failing call, got %d calls, err %v", calls, err)
	}
}

func TestRetryRecovers(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy(3), func() error {
		calls++
		if calls < 3 {
			return &FetchError{StatusCode: http.StatusBadGateway}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestRetryGivesUp(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy(2), func() error {
		calls++
		return &TransportError{Err: fmt.Errorf("connection refused")}
	})
	if calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls)
	}
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Errorf("final error should wrap the last failure, got %v", err)
	}
}

func TestRetrySkipsPermanentErrors(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy(5), func() error {
		calls++
		return &FetchError{StatusCode: http.StatusNotFound}
	})
	if calls != 1 {
		t.Errorf("404 must not be retried, got %d calls", calls)
	}
	if err == nil {
		t.Error("Expected error")
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := RetryPolicy{MaxRetries: 5, InitialDelay: time.Hour}

	calls := 0
	err := Retry(ctx, policy, func() error {
		calls++
		cancel()
		return &TransportError{StatusCode: http.StatusTooManyRequests}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestBackoffDelayJitter(t *testing.T) {
	p := RetryPolicy{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second}
	for attempt := 0; attempt < 6; attempt++ {
		base := p.InitialDelay * time.Duration(1<<uint(attempt))
		if base > p.MaxDelay {
			base = p.MaxDelay
		}
		for i := 0; i < 50; i++ {
			d := backoffDelay(p, attempt)
			if d < base*3/4 || d > base*5/4 {
				t.Fatalf("attempt %d: delay %v outside ±25%% of %v", attempt, d, base)
			}
		}
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&TransportError{StatusCode: 429}, true},
		{&TransportError{StatusCode: 502}, true},
		{&TransportError{StatusCode: 503}, true},
		{&TransportError{StatusCode: 504}, true},
		{&TransportError{StatusCode: 500}, false},
		{&TransportError{Err: errors.New("dial tcp: refused")}, true},
		{&FetchError{StatusCode: 404}, false},
		{fmt.Errorf("wrapped: %w", &FetchError{StatusCode: 503}), true},
		{&MalformedResponseError{Err: errors.New("bad json")}, false},
		{&ApplicationError{Code: 1}, false},
		{errors.New("plain"), false},
	}
	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
