package github

import (
	"net/http"
	"strconv"
	"time"
)

// RateLimit is the X-RateLimit-* trio from the most recent API response.
type RateLimit struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// Low reports whether at most a quarter of the quota is left.
func (r RateLimit) Low() bool {
	return r.Remaining*4 <= r.Limit
}

// parseRateLimit reads the rate limit headers. ok is false when any of
// them is missing or malformed.
func parseRateLimit(header http.Header) (rl RateLimit, ok bool) {
	remaining, err := strconv.Atoi(header.Get("X-RateLimit-Remaining"))
	if err != nil {
		return RateLimit{}, false
	}
	limit, err := strconv.Atoi(header.Get("X-RateLimit-Limit"))
	if err != nil {
		return RateLimit{}, false
	}
	reset, err := strconv.ParseInt(header.Get("X-RateLimit-Reset"), 10, 64)
	if err != nil {
		return RateLimit{}, false
	}
	return RateLimit{Limit: limit, Remaining: remaining, Reset: time.Unix(reset, 0)}, true
}

func (c *Client) recordRateLimit(header http.Header) {
	rl, ok := parseRateLimit(header)
	if !ok {
		return
	}

	c.mu.Lock()
	c.rateLimit = rl
	c.rateLimitKnown = true
	c.mu.Unlock()

	log := c.logger.Debug
	if rl.Low() {
		log = c.logger.Warn
	}
	log("rate limit", "limit", rl.Limit, "remaining", rl.Remaining, "reset", rl.Reset.Local().Format(time.TimeOnly))
}

// RateLimit returns the last observed rate limit. ok is false until a
// response carried the headers.
func (c *Client) RateLimit() (rl RateLimit, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rateLimit, c.rateLimitKnown
}
