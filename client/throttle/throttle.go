// Package throttle rate-limits outbound Nexus API calls. The API
// enforces hourly and daily request quotas per key; a token bucket
// from [golang.org/x/time/rate] paces requests client-side, and the
// quota headers the API attaches to every response feed low-quota
// warnings before the server starts answering 429.
package throttle

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// Rate-limit headers the Nexus API sets on every response.
const (
	HeaderHourlyLimit     = "X-RL-Hourly-Limit"
	HeaderHourlyRemaining = "X-RL-Hourly-Remaining"
	HeaderHourlyReset     = "X-RL-Hourly-Reset"
)

// lowQuotaThreshold is the remaining-requests level below which each
// response logs a warning. The hourly window refills slowly enough
// that a metadata batch can drain the last few requests fast.
const lowQuotaThreshold = 25

var (
	ErrMustNotBeZero = errors.New("must be greater than zero")
	ErrWaitingFailed = errors.New("limiter waiting failed")
	ErrContextEnded  = errors.New("throttle context ended")
)

// Config defines the throttler's requests per second and burst rate.
type Config struct {
	RPS   int
	Burst int
}

// limiter is an http.RoundTripper pacing outbound calls with a token
// bucket and surfacing the API's quota state from response headers.
type limiter struct {
	bucket *rate.Limiter
	cfg    Config
	next   http.RoundTripper
	logFn  func() *slog.Logger
}

// NewRoundTripper returns an http.RoundTripper that throttles outbound
// requests using a token bucket rate limiter. logFn lazily resolves the
// logger at request time, making option ordering irrelevant. A
// nil-returning logFn silences pacing and quota logs.
func NewRoundTripper(rps, burst int, logFn func() *slog.Logger, next http.RoundTripper) (http.RoundTripper, error) {
	if rps <= 0 || burst <= 0 {
		return nil, fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, ErrMustNotBeZero)
	}

	l := &limiter{
		bucket: rate.NewLimiter(rate.Limit(rps), burst),
		cfg:    Config{RPS: rps, Burst: burst},
		next:   next,
		logFn:  logFn,
	}

	return l, nil
}

func (l *limiter) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w early: %w", ErrContextEnded, err)
	}

	logger := l.logFn()

	// Reserve instead of Wait so the pacing delay is known up front and
	// one token covers the whole request.
	res := l.bucket.Reserve()
	if !res.OK() {
		return nil, fmt.Errorf("request exceeds burst[%d]: %w", l.cfg.Burst, ErrWaitingFailed)
	}

	if delay := res.Delay(); delay > 0 {
		if logger != nil {
			logger.Info("rate tokens exhausted, pacing", "delay", delay.String(), "rps", l.cfg.RPS, "burst", l.cfg.Burst, "path", r.URL.Path)
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			res.Cancel()
			return nil, fmt.Errorf("%w: %w", ErrWaitingFailed, ctx.Err())
		}
	}

	if err := ctx.Err(); err != nil { // Check context hasn't expired again.
		return nil, fmt.Errorf("%w post-wait: %w", ErrContextEnded, err)
	}

	resp, err := l.next.RoundTrip(r)
	if err != nil || logger == nil {
		return resp, err
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		logger.Warn("api rate limit exhausted", "path", r.URL.Path, "retry_after", resp.Header.Get("Retry-After"))
		return resp, nil
	}

	if remaining, ok := headerInt(resp.Header, HeaderHourlyRemaining); ok && remaining <= lowQuotaThreshold {
		logger.Warn("hourly quota low",
			"remaining", remaining,
			"limit", resp.Header.Get(HeaderHourlyLimit),
			"reset", resp.Header.Get(HeaderHourlyReset),
		)
	}

	return resp, nil
}

func headerInt(h http.Header, key string) (int, bool) {
	n, err := strconv.Atoi(h.Get(key))
	if err != nil {
		return 0, false
	}

	return n, true
}
