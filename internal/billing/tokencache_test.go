package billing

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (clock *manualClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

func (clock *manualClock) Advance(duration time.Duration) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.now = clock.now.Add(duration)
}

func TestTokenCacheCollapsesConcurrentRefreshes(test *testing.T) {
	test.Parallel()
	clock := &manualClock{now: time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)}
	release := make(chan struct{})
	var fetches atomic.Int32
	cache := NewTokenCache(func(context.Context) (string, time.Time, error) {
		fetches.Add(1)
		<-release
		return "service-token", clock.Now().Add(time.Hour), nil
	}, clock.Now, defaultExpiryMargin)

	const callers = 16
	tokens := make(chan string, callers)
	var group sync.WaitGroup
	for index := 0; index < callers; index++ {
		group.Add(1)
		go func() {
			defer group.Done()
			token, err := cache.Token(context.Background())
			if err != nil {
				test.Errorf("token: %v", err)
				return
			}
			tokens <- token
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	group.Wait()
	close(tokens)

	for token := range tokens {
		if token != "service-token" {
			test.Fatalf("unexpected token %q", token)
		}
	}
	if got := fetches.Load(); got != 1 {
		test.Fatalf("expected a single fetch, got %d", got)
	}
}

func TestTokenCacheRefreshesInsideMargin(test *testing.T) {
	test.Parallel()
	clock := &manualClock{now: time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)}
	var fetches int
	cache := NewTokenCache(func(context.Context) (string, time.Time, error) {
		fetches++
		return "token", clock.Now().Add(90 * time.Second), nil
	}, clock.Now, defaultExpiryMargin)

	for _, step := range []time.Duration{0, 29 * time.Second} {
		clock.Advance(step)
		if _, err := cache.Token(context.Background()); err != nil {
			test.Fatalf("token: %v", err)
		}
	}
	if fetches != 1 {
		test.Fatalf("expected cached token before margin, got %d fetches", fetches)
	}

	clock.Advance(time.Second)
	if _, err := cache.Token(context.Background()); err != nil {
		test.Fatalf("token: %v", err)
	}
	if fetches != 2 {
		test.Fatalf("expected refresh 60s before expiry, got %d fetches", fetches)
	}

	cache.Invalidate()
	if _, err := cache.Token(context.Background()); err != nil {
		test.Fatalf("token: %v", err)
	}
	if fetches != 3 {
		test.Fatalf("expected refresh after invalidate, got %d fetches", fetches)
	}
}

func TestTokenCacheDoesNotCacheFailures(test *testing.T) {
	test.Parallel()
	failure := errors.New("billing down")
	var fetches int
	cache := NewTokenCache(func(context.Context) (string, time.Time, error) {
		fetches++
		return "", time.Time{}, failure
	}, nil, defaultExpiryMargin)

	for attempt := 0; attempt < 2; attempt++ {
		if _, err := cache.Token(context.Background()); !errors.Is(err, failure) {
			test.Fatalf("expected fetch failure, got %v", err)
		}
	}
	if fetches != 2 {
		test.Fatalf("expected every call to retry, got %d fetches", fetches)
	}
}

func TestTokenCacheFetchOutlivesCancelledCaller(test *testing.T) {
	test.Parallel()
	clock := &manualClock{now: time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)}
	started := make(chan struct{})
	release := make(chan struct{})
	var fetches atomic.Int32
	cache := NewTokenCache(func(ctx context.Context) (string, time.Time, error) {
		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			return "", time.Time{}, errors.New("fetch has no deadline")
		}
		fetches.Add(1)
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			return "", time.Time{}, err
		}
		return "service-token", clock.Now().Add(time.Hour), nil
	}, clock.Now, defaultExpiryMargin)

	callerCtx, cancel := context.WithCancel(context.Background())
	results := make(chan error, 2)
	go func() {
		_, err := cache.Token(callerCtx)
		results <- err
	}()
	<-started
	cancel()
	go func() {
		_, err := cache.Token(context.Background())
		results <- err
	}()
	close(release)

	for index := 0; index < 2; index++ {
		if err := <-results; err != nil {
			test.Fatalf("token: %v", err)
		}
	}
	if got := fetches.Load(); got != 1 {
		test.Fatalf("expected 1 fetch, got %d", got)
	}
}
