package config

import (
    "context"
    "crypto/tls"
    "fmt"
    "time"

    "github.com/redis/go-redis/v9"
)

// Redis locates the server that carries the MySQL store's change
// notifications and the booking rate limit.  An empty Addr disables it.
type Redis struct {
    Addr     string `yaml:"addr"`     // REDIS_ADDR, or REDIS_HOST and REDIS_PORT
    Password string `yaml:"password"` // REDIS_PASSWORD
    DB       int    `yaml:"db"`       // REDIS_DB
    TLS      bool   `yaml:"tls"`      // REDIS_TLS
}

func (r *Redis) applyEnv() {
    r.Addr = envStr("REDIS_ADDR", r.Addr)
    if host, port := envStr("REDIS_HOST", ""), envStr("REDIS_PORT", ""); host != "" && port != "" {
        r.Addr = host + ":" + port
    }
    r.Password = envStr("REDIS_PASSWORD", r.Password)
    r.DB = envInt("REDIS_DB", r.DB)
    r.TLS = envBool("REDIS_TLS", r.TLS)
}

// NewRedisClient connects and pings with a short timeout.  Callers treat an
// error as "no Redis": the store polls and rate limiting is off.
func NewRedisClient(ctx context.Context, r Redis) (*redis.Client, error) {
    if r.Addr == "" {
        return nil, fmt.Errorf("redis: no address configured")
    }
    opts := &redis.Options{Addr: r.Addr, Password: r.Password, DB: r.DB}
    if r.TLS {
        opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(opts)
    ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        client.Close()
        return nil, fmt.Errorf("redis: ping %s: %w", r.Addr, err)
    }
    return client, nil
}
