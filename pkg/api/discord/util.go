package discord

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var ErrRateLimit = errors.New("rate limit")

// IsRateLimit reports whether err is a rate limit and when the limit resets.
func IsRateLimit(err error) (time.Time, bool) {
	if !errors.Is(err, ErrRateLimit) {
		return time.Time{}, false
	}

	_, resetAt, found := strings.Cut(err.Error(), ":")
	if !found {
		return time.Time{}, false
	}

	resetAtMilli, err := strconv.ParseInt(resetAt, 10, 64)
	if err != nil {
		return time.Time{}, false
	}

	return time.UnixMilli(resetAtMilli), true
}

func wrapRateLimit(resetAt time.Time) error {
	return fmt.Errorf("%w:%d", ErrRateLimit, resetAt.UnixMilli())
}

// parseResetAt reads X-Ratelimit-Reset (epoch seconds with a fractional part), then falls back
// to X-Ratelimit-Reset-After (seconds from now).
func parseResetAt(header http.Header, now time.Time) (time.Time, error) {
	if v := header.Get("X-Ratelimit-Reset"); v != "" {
		seconds, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return time.UnixMilli(int64(math.Round(seconds * 1000))), nil
		}
	}

	if v := header.Get("X-Ratelimit-Reset-After"); v != "" {
		seconds, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return now.Add(time.Duration(seconds * float64(time.Second))), nil
		}
	}

	return time.Time{}, fmt.Errorf("cannot parse rate limit reset (reset=%q, reset-after=%q)",
		header.Get("X-Ratelimit-Reset"), header.Get("X-Ratelimit-Reset-After"))
}
