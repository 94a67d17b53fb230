package config

import "time"

// RateLimit tunes the token bucket guarding booking submissions.  One bucket
// is kept per client session and IP; it refills one token per interval.
type RateLimit struct {
    Enabled        bool          `yaml:"enabled"`         // RATE_LIMIT_ENABLED
    Capacity       int           `yaml:"capacity"`        // RATE_LIMIT_CAPACITY, burst size
    RefillInterval time.Duration `yaml:"refill_interval"` // RATE_LIMIT_REFILL_INTERVAL
    TTL            time.Duration `yaml:"ttl"`             // RATE_LIMIT_TTL, idle buckets expire after it
    Prefix         string        `yaml:"prefix"`          // RATE_LIMIT_PREFIX
}

func defaultRateLimit() RateLimit {
    return RateLimit{
        Enabled:        true,
        Capacity:       5,
        RefillInterval: 10 * time.Second,
        TTL:            10 * time.Minute,
        Prefix:         "rl",
    }
}

func (r *RateLimit) applyEnv() {
    r.Enabled = envBool("RATE_LIMIT_ENABLED", r.Enabled)
    r.Capacity = envInt("RATE_LIMIT_CAPACITY", r.Capacity)
    r.RefillInterval = envDur("RATE_LIMIT_REFILL_INTERVAL", r.RefillInterval)
    r.TTL = envDur("RATE_LIMIT_TTL", r.TTL)
    r.Prefix = envStr("RATE_LIMIT_PREFIX", r.Prefix)
}

// normalize clamps values a bucket cannot work with.  TTL is at least five
// refill intervals.
func (r *RateLimit) normalize() {
    if r.Capacity < 1 {
        r.Capacity = 1
    }
    if r.RefillInterval <= 0 {
        r.RefillInterval = time.Second
    }
    if floor := 5 * r.RefillInterval; r.TTL < floor {
        r.TTL = floor
    }
}
